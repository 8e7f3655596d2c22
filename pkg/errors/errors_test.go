package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("connection refused")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if !errors.Is(wrapped, originalErr) {
		t.Errorf("expected errors.Is to unwrap to the original error")
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "hold not found",
			},
			expected: "NOT_FOUND: hold not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeDependency,
				Message: "trust lookup failed",
				Err:     errors.New("no reachable servers"),
			},
			expected: "DEPENDENCY_ERROR: trust lookup failed (caused by: no reachable servers)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestConflict(t *testing.T) {
	err := Conflict("Slot already held")
	if err.Code != CodeConflict {
		t.Errorf("expected code %s, got %s", CodeConflict, err.Code)
	}
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, err.HTTPStatus)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("slot held")
	if got := AsAppError(appErr); got != appErr {
		t.Errorf("expected pass-through for AppError values")
	}

	plain := errors.New("boom")
	wrapped := AsAppError(plain)
	if wrapped.Code != CodeInternal {
		t.Errorf("expected plain errors to map to %s, got %s", CodeInternal, wrapped.Code)
	}
	if !errors.Is(wrapped, plain) {
		t.Errorf("expected the original error to be preserved")
	}
}
