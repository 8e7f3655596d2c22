package core

import "context"

// Error codes surfaced on ExecutionResult. Nothing throws past the execution
// boundary; every failure mode maps to one of these.
const (
	CodeToolNotFound   = "TOOL_NOT_FOUND"
	CodeToolNotEnabled = "TOOL_NOT_ENABLED"
	CodeInvalidParams  = "INVALID_PARAMS"
	CodeTimeout        = "TIMEOUT"
	CodeExecutionError = "EXECUTION_ERROR"
)

// ExecutionResult is the outcome of one tool invocation. VoiceMessage is a
// user-facing contract: a plain string in the call's locale, never empty.
type ExecutionResult struct {
	Success           bool           `json:"success"`
	Data              map[string]any `json:"data,omitempty"`
	Error             string         `json:"error,omitempty"`
	ErrorCode         string         `json:"errorCode,omitempty"`
	ValidationErrors  []string       `json:"validationErrors,omitempty"`
	VoiceMessage      string         `json:"voiceMessage"`
	ForwardToPlatform bool           `json:"forwardToPlatform,omitempty"`
	EndCall           bool           `json:"endCall,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// Handler is a tool's business logic. Handlers return results, not errors;
// a returned error is treated as an unexpected failure and mapped to
// EXECUTION_ERROR by the executor.
type Handler func(ctx context.Context, params map[string]any, ec *ExecutionContext) (*ExecutionResult, error)

// Succeed builds a successful result with the given spoken message.
func Succeed(voiceMessage string, data map[string]any) *ExecutionResult {
	return &ExecutionResult{
		Success:      true,
		Data:         data,
		VoiceMessage: voiceMessage,
	}
}

// Refuse builds a business-outcome failure: a typed reason the caller is
// expected to present alternatives for, not an exception.
func Refuse(code, errMsg, voiceMessage string) *ExecutionResult {
	return &ExecutionResult{
		Success:      false,
		Error:        errMsg,
		ErrorCode:    code,
		VoiceMessage: voiceMessage,
	}
}
