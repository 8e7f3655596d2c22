package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"habla/internal/tools/catalog"
	"habla/internal/tools/core"
	"habla/internal/tools/exec"
	"habla/pkg/logger"
	"habla/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockAuditRepository struct {
	records []*model.ToolExecution
}

func (m *mockAuditRepository) Record(ctx context.Context, record *model.ToolExecution) error {
	m.records = append(m.records, record)
	return nil
}

type mockTenantRepository struct {
	tenant *model.Tenant
}

func (m *mockTenantRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	return m.tenant, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Service: "test"})
}

func newTestRouter(t *testing.T) (*httprouter.Router, *mockAuditRepository) {
	t.Helper()
	log := testLogger()

	cat := catalog.New(log)
	err := cat.Register(&catalog.Definition{
		Name:        "echo_greeting",
		Category:    "info",
		Description: "Echo test tool",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
			"required":             []string{"name"},
			"additionalProperties": false,
		},
		EnabledFor: []string{catalog.Wildcard},
		Handler: func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
			name, _ := params["name"].(string)
			return core.Succeed("Hola, "+name, map[string]any{"locale": ec.Locale}), nil
		},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	audit := &mockAuditRepository{}
	executor := exec.New(cat, audit, log)

	tenantRepo := &mockTenantRepository{tenant: &model.Tenant{
		ID:            "tenant-1",
		AssistantType: model.AssistantTypeDental,
		DefaultLocale: "es",
		Timezone:      "Europe/Madrid",
	}}

	router := httprouter.New()
	NewToolHandler(executor, cat, tenantRepo, log).RegisterRoutes(router)
	return router, audit
}

func executeBody(t *testing.T, toolName string, params map[string]any) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(ExecuteRequest{
		ToolName: toolName,
		TenantID: "tenant-1",
		CallID:   "call-1",
		Params:   params,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewBuffer(body)
}

func TestExecute_Success(t *testing.T) {
	router, audit := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/execute",
		executeBody(t, "echo_greeting", map[string]any{"name": "Maria"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result core.ExecutionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v, want success", result)
	}
	if result.VoiceMessage != "Hola, Maria" {
		t.Errorf("VoiceMessage = %q, want %q", result.VoiceMessage, "Hola, Maria")
	}
	// The tenant's default locale reaches the handler.
	if result.Data["locale"] != "es" {
		t.Errorf("Data[locale] = %v, want es", result.Data["locale"])
	}
	if len(audit.records) != 1 {
		t.Errorf("audit records = %d, want 1", len(audit.records))
	}
}

func TestExecute_UnknownToolStaysHTTP200(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/execute",
		executeBody(t, "no_such_tool", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; failures live in the result", rec.Code)
	}

	var result core.ExecutionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if result.Success || result.ErrorCode != core.CodeToolNotFound {
		t.Errorf("result = %+v, want TOOL_NOT_FOUND", result)
	}
	if result.VoiceMessage == "" {
		t.Error("even failures must carry a spoken message")
	}
}

func TestExecute_InvalidParamsSurfaceViolations(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/execute",
		executeBody(t, "echo_greeting", map[string]any{"unexpected": true}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var result core.ExecutionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if result.ErrorCode != core.CodeInvalidParams {
		t.Fatalf("ErrorCode = %q, want INVALID_PARAMS", result.ErrorCode)
	}
	// Missing required field plus the unexpected property, both reported.
	if len(result.ValidationErrors) != 2 {
		t.Errorf("ValidationErrors = %v, want 2 entries", result.ValidationErrors)
	}
}

func TestExecute_MissingFields(t *testing.T) {
	router, _ := newTestRouter(t)

	body, _ := json.Marshal(map[string]any{"params": map[string]any{}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/execute", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCatalog_ListsEnabledTools(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tools/catalog/dental_clinic", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var response struct {
		Data []CatalogEntry `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(response.Data) != 1 || response.Data[0].Name != "echo_greeting" {
		t.Errorf("catalog = %+v, want the registered tool", response.Data)
	}
}
