package handler

import (
	"encoding/json"
	"net/http"

	"habla/internal/tenants"
	"habla/internal/tools/catalog"
	"habla/internal/tools/core"
	"habla/internal/tools/exec"
	apperrors "habla/pkg/errors"
	httputil "habla/pkg/http"
	"habla/pkg/locale"
	"habla/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type ToolHandler struct {
	executor *exec.Executor
	catalog  *catalog.Catalog
	tenants  tenants.Repository
	log      *logger.Logger
}

func NewToolHandler(executor *exec.Executor, cat *catalog.Catalog, tenantRepo tenants.Repository, log *logger.Logger) *ToolHandler {
	return &ToolHandler{
		executor: executor,
		catalog:  cat,
		tenants:  tenantRepo,
		log:      log,
	}
}

type ExecuteRequest struct {
	ToolName string         `json:"tool_name"`
	TenantID string         `json:"tenant_id"`
	BranchID string         `json:"branch_id,omitempty"`
	CallID   string         `json:"call_id"`
	Locale   string         `json:"locale,omitempty"`
	Channel  string         `json:"channel,omitempty"`
	Params   map[string]any `json:"params"`
	Entities map[string]any `json:"entities,omitempty"`
}

// Execute runs one tool invocation. The response is always 200 with an
// execution result; failures live inside the result, never in the HTTP
// status.
func (h *ToolHandler) Execute(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Execute", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if req.ToolName == "" || req.TenantID == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("tool_name and tenant_id are required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Execute", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	tenant, err := h.tenants.FindByID(r.Context(), req.TenantID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Execute", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	loc := req.Locale
	if !locale.Supported(loc) {
		loc = tenant.DefaultLocale
	}
	if !locale.Supported(loc) {
		loc = locale.LocaleSpanish
	}

	ec := core.NewExecutionContext(req.TenantID, req.CallID, tenant.AssistantType, loc)
	ec.BranchID = req.BranchID
	ec.Entities = req.Entities
	if req.Channel != "" {
		ec.Channel = req.Channel
	}

	result := h.executor.Execute(r.Context(), req.ToolName, req.Params, ec)

	if err := httputil.WriteJSON(w, http.StatusOK, result); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Execute", "operation", "WriteJSON", "error", err)
	}
}

type CatalogEntry struct {
	Name                 string         `json:"name"`
	Category             string         `json:"category"`
	Description          string         `json:"description"`
	Parameters           map[string]any `json:"parameters"`
	RequiresConfirmation bool           `json:"requiresConfirmation"`
}

// Catalog lists the tools enabled for an assistant type, in the shape the
// conversation platform imports.
func (h *ToolHandler) Catalog(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	assistantType := ps.ByName("type")

	definitions := h.catalog.GetForAssistantType(assistantType)
	entries := make([]CatalogEntry, 0, len(definitions))
	for _, def := range definitions {
		entries = append(entries, CatalogEntry{
			Name:                 def.Name,
			Category:             def.Category,
			Description:          def.Description,
			Parameters:           def.ParameterSchema,
			RequiresConfirmation: def.RequiresConfirmation,
		})
	}

	if err := httputil.WriteSuccess(w, entries); err != nil {
		h.log.Error("failed to write success response", "handler", "Catalog", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ToolHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/tools/execute", h.Execute)
	router.GET("/api/v1/tools/catalog/:type", h.Catalog)
}
