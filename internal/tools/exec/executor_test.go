package exec

import (
	"context"
	"errors"
	"testing"
	"time"

	"habla/internal/tools/catalog"
	"habla/internal/tools/core"
	"habla/pkg/logger"
	"habla/pkg/model"
)

type mockAudit struct {
	entries []*model.ToolExecution
	err     error
}

func (m *mockAudit) Record(ctx context.Context, entry *model.ToolExecution) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

type mockEvents struct {
	published int
	err       error
}

func (m *mockEvents) ToolExecuted(ctx context.Context, entry *model.ToolExecution) error {
	m.published++
	return m.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Service: "test"})
}

func testContext() *core.ExecutionContext {
	ec := core.NewExecutionContext("tenant-1", "call-1", "dental_clinic", "en")
	return ec
}

func register(t *testing.T, cat *catalog.Catalog, def *catalog.Definition) {
	t.Helper()
	if err := cat.Register(def); err != nil {
		t.Fatalf("register %s: %v", def.Name, err)
	}
}

func simpleDefinition(name string, handler core.Handler) *catalog.Definition {
	return &catalog.Definition{
		Name:        name,
		Category:    "booking",
		Description: "test",
		ParameterSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		EnabledFor: []string{"dental_clinic"},
		Handler:    handler,
	}
}

func TestExecute_Success(t *testing.T) {
	cat := catalog.New(testLogger())
	register(t, cat, simpleDefinition("check_availability", func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
		return core.Succeed("The slot is free.", map[string]any{"available": true}), nil
	}))

	audit := &mockAudit{}
	executor := New(cat, audit, testLogger())

	result := executor.Execute(context.Background(), "check_availability", map[string]any{}, testContext())

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.VoiceMessage == "" {
		t.Error("voice message must never be empty")
	}
	if len(audit.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(audit.entries))
	}
	entry := audit.entries[0]
	if entry.ToolName != "check_availability" || entry.TenantID != "tenant-1" || !entry.Success {
		t.Errorf("unexpected audit entry %+v", entry)
	}
}

func TestExecute_ToolNotFound(t *testing.T) {
	cat := catalog.New(testLogger())
	audit := &mockAudit{}
	executor := New(cat, audit, testLogger())

	result := executor.Execute(context.Background(), "no_such_tool", nil, testContext())

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.ErrorCode != core.CodeToolNotFound {
		t.Errorf("ErrorCode = %q, want %q", result.ErrorCode, core.CodeToolNotFound)
	}
	if result.VoiceMessage == "" {
		t.Error("voice message must never be empty")
	}
	if len(audit.entries) != 1 {
		t.Errorf("failure must still be audited, got %d entries", len(audit.entries))
	}
}

func TestExecute_ToolNotEnabled(t *testing.T) {
	cat := catalog.New(testLogger())
	def := simpleDefinition("create_reservation", func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
		return core.Succeed("ok", nil), nil
	})
	def.EnabledFor = []string{"restaurant"}
	register(t, cat, def)

	executor := New(cat, &mockAudit{}, testLogger())
	result := executor.Execute(context.Background(), "create_reservation", nil, testContext())

	if result.ErrorCode != core.CodeToolNotEnabled {
		t.Errorf("ErrorCode = %q, want %q", result.ErrorCode, core.CodeToolNotEnabled)
	}
}

func TestExecute_InvalidParamsAggregated(t *testing.T) {
	cat := catalog.New(testLogger())
	def := simpleDefinition("create_hold", func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
		t.Fatal("handler must not run on invalid params")
		return nil, nil
	})
	def.ParameterSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"date":     map[string]any{"type": "string"},
			"duration": map[string]any{"type": "integer", "minimum": 15},
			"type":     map[string]any{"type": "string", "enum": []any{"appointment", "reservation"}},
		},
		"required": []any{"date", "duration", "type"},
	}
	register(t, cat, def)

	executor := New(cat, &mockAudit{}, testLogger())
	result := executor.Execute(context.Background(), "create_hold", map[string]any{
		"date":     12,
		"duration": 1,
		"type":     "party",
	}, testContext())

	if result.ErrorCode != core.CodeInvalidParams {
		t.Fatalf("ErrorCode = %q, want %q", result.ErrorCode, core.CodeInvalidParams)
	}
	if len(result.ValidationErrors) != 3 {
		t.Errorf("got %d validation errors, want 3: %v", len(result.ValidationErrors), result.ValidationErrors)
	}
}

func TestExecute_Timeout(t *testing.T) {
	cat := catalog.New(testLogger())
	def := simpleDefinition("slow_tool", func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
		select {} // never resolves
	})
	def.Timeout = 50 * time.Millisecond
	register(t, cat, def)

	executor := New(cat, &mockAudit{}, testLogger())

	started := time.Now()
	result := executor.Execute(context.Background(), "slow_tool", nil, testContext())
	elapsed := time.Since(started)

	if result.ErrorCode != core.CodeTimeout {
		t.Fatalf("ErrorCode = %q, want %q", result.ErrorCode, core.CodeTimeout)
	}
	if elapsed > 2*time.Second {
		t.Errorf("execute took %s, timeout did not bound the caller", elapsed)
	}
}

func TestExecute_HandlerError(t *testing.T) {
	cat := catalog.New(testLogger())
	register(t, cat, simpleDefinition("failing_tool", func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
		return nil, errors.New("database unreachable")
	}))

	executor := New(cat, &mockAudit{}, testLogger())
	result := executor.Execute(context.Background(), "failing_tool", nil, testContext())

	if result.ErrorCode != core.CodeExecutionError {
		t.Errorf("ErrorCode = %q, want %q", result.ErrorCode, core.CodeExecutionError)
	}
	if result.Error != "database unreachable" {
		t.Errorf("Error = %q", result.Error)
	}
}

func TestExecute_HandlerPanic(t *testing.T) {
	cat := catalog.New(testLogger())
	register(t, cat, simpleDefinition("panicking_tool", func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
		panic("boom")
	}))

	executor := New(cat, &mockAudit{}, testLogger())
	result := executor.Execute(context.Background(), "panicking_tool", nil, testContext())

	if result.ErrorCode != core.CodeExecutionError {
		t.Errorf("panic must surface as %q, got %q", core.CodeExecutionError, result.ErrorCode)
	}
	if result.VoiceMessage == "" {
		t.Error("voice message must never be empty")
	}
}

func TestExecute_AuditFailureSwallowed(t *testing.T) {
	cat := catalog.New(testLogger())
	register(t, cat, simpleDefinition("check_availability", func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
		return core.Succeed("The slot is free.", nil), nil
	}))

	audit := &mockAudit{err: errors.New("mongo down")}
	executor := New(cat, audit, testLogger())

	result := executor.Execute(context.Background(), "check_availability", nil, testContext())
	if !result.Success {
		t.Error("audit failure must not turn a success into a failure")
	}
}

func TestExecute_PublishesEvent(t *testing.T) {
	cat := catalog.New(testLogger())
	register(t, cat, simpleDefinition("check_availability", func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
		return core.Succeed("The slot is free.", nil), nil
	}))

	events := &mockEvents{}
	executor := New(cat, &mockAudit{}, testLogger(), WithEvents(events))

	executor.Execute(context.Background(), "check_availability", nil, testContext())
	if events.published != 1 {
		t.Errorf("published = %d, want 1", events.published)
	}
}

func TestExecute_EventFailureSwallowed(t *testing.T) {
	cat := catalog.New(testLogger())
	register(t, cat, simpleDefinition("check_availability", func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
		return core.Succeed("The slot is free.", nil), nil
	}))

	events := &mockEvents{err: errors.New("kafka down")}
	executor := New(cat, &mockAudit{}, testLogger(), WithEvents(events))

	result := executor.Execute(context.Background(), "check_availability", nil, testContext())
	if !result.Success {
		t.Error("event publish failure must not affect the result")
	}
}

func TestExecute_SpanishMessages(t *testing.T) {
	cat := catalog.New(testLogger())
	executor := New(cat, &mockAudit{}, testLogger())

	ec := core.NewExecutionContext("tenant-1", "call-1", "dental_clinic", "es")
	result := executor.Execute(context.Background(), "no_such_tool", nil, ec)

	if result.VoiceMessage != "Lo siento, no puedo hacer eso ahora mismo." {
		t.Errorf("unexpected spanish message %q", result.VoiceMessage)
	}
}
