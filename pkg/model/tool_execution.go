package model

import "time"

// ToolExecution is one audit row per tool invocation, written regardless of
// outcome.
type ToolExecution struct {
	ID         string    `json:"id" bson:"_id"`
	ToolName   string    `json:"tool_name" bson:"tool_name"`
	TenantID   string    `json:"tenant_id" bson:"tenant_id"`
	BranchID   string    `json:"branch_id,omitempty" bson:"branch_id,omitempty"`
	CallID     string    `json:"call_id" bson:"call_id"`
	Channel    string    `json:"channel" bson:"channel"`
	Locale     string    `json:"locale" bson:"locale"`
	DurationMS int64     `json:"duration_ms" bson:"duration_ms"`
	Success    bool      `json:"success" bson:"success"`
	ErrorCode  string    `json:"error_code,omitempty" bson:"error_code,omitempty"`
	Error      string    `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}
