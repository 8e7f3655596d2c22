package core

import "habla/pkg/client"

// Channel identifies the medium the customer is conversing over.
const (
	ChannelVoice     = "voice"
	ChannelChat      = "chat"
	ChannelMessaging = "messaging"
)

// ExecutionContext is the immutable per-call input bundle handed to a tool
// handler. It is owned exclusively by a single execution and never shared
// across calls.
type ExecutionContext struct {
	TenantID      string
	BranchID      string
	CallID        string
	AssistantType string
	Locale        string
	Channel       string

	// Entities holds free-form values extracted by the conversation driver
	// (customer name, party size, preferred staff).
	Entities map[string]any

	Client *client.Client
}

func NewExecutionContext(tenantID, callID, assistantType, locale string) *ExecutionContext {
	return &ExecutionContext{
		TenantID:      tenantID,
		CallID:        callID,
		AssistantType: assistantType,
		Locale:        locale,
		Channel:       ChannelVoice,
		Entities:      make(map[string]any),
	}
}
