package exec

import (
	"context"
	"fmt"
	"strings"
	"time"

	"habla/internal/tools/catalog"
	"habla/internal/tools/core"
	"habla/pkg/logger"
	"habla/pkg/model"

	"github.com/google/uuid"
)

// DefaultTimeout bounds handler execution when a definition does not set
// its own.
const DefaultTimeout = 30 * time.Second

// AuditRepository persists one execution-log row per invocation.
type AuditRepository interface {
	Record(ctx context.Context, entry *model.ToolExecution) error
}

// EventPublisher emits a tool-executed event after each invocation.
// Publishing is best-effort; failures never affect the result.
type EventPublisher interface {
	ToolExecuted(ctx context.Context, entry *model.ToolExecution) error
}

// Executor runs tools resolved from the catalog. Nothing errors or panics
// across Execute; every failure mode is a typed field on the result.
type Executor struct {
	catalog        *catalog.Catalog
	audit          AuditRepository
	events         EventPublisher
	defaultTimeout time.Duration
	log            *logger.Logger
}

type Option func(*Executor)

// WithEvents attaches an event publisher.
func WithEvents(p EventPublisher) Option {
	return func(e *Executor) { e.events = p }
}

// WithDefaultTimeout overrides the executor-wide handler timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Executor) { e.defaultTimeout = d }
}

func New(cat *catalog.Catalog, audit AuditRepository, log *logger.Logger, opts ...Option) *Executor {
	e := &Executor{
		catalog:        cat,
		audit:          audit,
		defaultTimeout: DefaultTimeout,
		log:            log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute resolves the named tool, enforces enablement, validates the
// parameters against the tool's schema, and runs the handler under a
// timeout. One execution-log row is written regardless of outcome; a
// logging failure is warned and swallowed.
func (e *Executor) Execute(ctx context.Context, name string, params map[string]any, ec *core.ExecutionContext) *core.ExecutionResult {
	started := time.Now()

	result := e.run(ctx, name, params, ec)

	if result.VoiceMessage == "" {
		result.VoiceMessage = apology(ec.Locale)
	}

	e.record(ctx, name, ec, result, time.Since(started))
	return result
}

func (e *Executor) run(ctx context.Context, name string, params map[string]any, ec *core.ExecutionContext) *core.ExecutionResult {
	def := e.catalog.Get(name)
	if def == nil {
		e.log.Warn("Unknown tool requested", "tool", name, "tenant_id", ec.TenantID, "call_id", ec.CallID)
		return core.Refuse(core.CodeToolNotFound,
			fmt.Sprintf("tool %q is not registered", name),
			notAvailable(ec.Locale))
	}

	if !def.EnabledForType(ec.AssistantType) {
		e.log.Warn("Tool not enabled for assistant type",
			"tool", name,
			"assistant_type", ec.AssistantType,
			"tenant_id", ec.TenantID,
		)
		return core.Refuse(core.CodeToolNotEnabled,
			fmt.Sprintf("tool %q is not enabled for assistant type %q", name, ec.AssistantType),
			notAvailable(ec.Locale))
	}

	violations, err := def.ValidateParams(params)
	if err != nil {
		e.log.Error("Parameter schema validation errored", "tool", name, "error", err)
		return core.Refuse(core.CodeExecutionError, err.Error(), apology(ec.Locale))
	}
	if len(violations) > 0 {
		result := core.Refuse(core.CodeInvalidParams,
			"invalid parameters: "+strings.Join(violations, "; "),
			missingDetails(ec.Locale))
		result.ValidationErrors = violations
		return result
	}

	timeout := def.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}

	return e.invoke(ctx, def, params, ec, timeout)
}

// invoke races the handler against the timeout. On timer win the handler's
// eventual result is discarded; its side effects are not cancelled, which
// is why create-style handlers must tolerate retries.
func (e *Executor) invoke(ctx context.Context, def *catalog.Definition, params map[string]any, ec *core.ExecutionContext, timeout time.Duration) *core.ExecutionResult {
	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result *core.ExecutionResult
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("Tool handler panicked", "tool", def.Name, "panic", r)
				done <- outcome{err: fmt.Errorf("handler panicked: %v", r)}
			}
		}()
		result, err := def.Handler(hctx, params, ec)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			e.log.Error("Tool handler failed", "tool", def.Name, "tenant_id", ec.TenantID, "error", out.err)
			return core.Refuse(core.CodeExecutionError, out.err.Error(), apology(ec.Locale))
		}
		if out.result == nil {
			return core.Refuse(core.CodeExecutionError, "handler returned no result", apology(ec.Locale))
		}
		return out.result
	case <-hctx.Done():
		e.log.Warn("Tool execution timed out", "tool", def.Name, "timeout", timeout, "tenant_id", ec.TenantID)
		return core.Refuse(core.CodeTimeout,
			fmt.Sprintf("tool %q exceeded its %s timeout", def.Name, timeout),
			tryAgain(ec.Locale))
	}
}

func (e *Executor) record(ctx context.Context, name string, ec *core.ExecutionContext, result *core.ExecutionResult, elapsed time.Duration) {
	entry := &model.ToolExecution{
		ID:         uuid.NewString(),
		ToolName:   name,
		TenantID:   ec.TenantID,
		BranchID:   ec.BranchID,
		CallID:     ec.CallID,
		Channel:    ec.Channel,
		Locale:     ec.Locale,
		DurationMS: elapsed.Milliseconds(),
		Success:    result.Success,
		ErrorCode:  result.ErrorCode,
		Error:      result.Error,
		CreatedAt:  time.Now().UTC(),
	}

	if err := e.audit.Record(ctx, entry); err != nil {
		e.log.Warn("Failed to record tool execution", "tool", name, "call_id", ec.CallID, "error", err)
	}

	if e.events != nil {
		if err := e.events.ToolExecuted(ctx, entry); err != nil {
			e.log.Warn("Failed to publish tool execution event", "tool", name, "error", err)
		}
	}
}

func apology(locale string) string {
	if locale == "es" {
		return "Lo siento, ha ocurrido un problema. ¿Puedo ayudarte con otra cosa?"
	}
	return "I'm sorry, something went wrong. Can I help you with anything else?"
}

func notAvailable(locale string) string {
	if locale == "es" {
		return "Lo siento, no puedo hacer eso ahora mismo."
	}
	return "I'm sorry, I can't do that right now."
}

func missingDetails(locale string) string {
	if locale == "es" {
		return "Me faltan algunos datos. ¿Puedes repetir los detalles, por favor?"
	}
	return "I'm missing some details. Could you repeat them, please?"
}

func tryAgain(locale string) string {
	if locale == "es" {
		return "Está tardando más de lo normal. ¿Lo intentamos de nuevo?"
	}
	return "This is taking longer than usual. Shall we try again?"
}
