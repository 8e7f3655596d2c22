// Package events defines the typed payloads published to Kafka by the
// assistant and consumed by the trust worker.
package events

import "time"

// Event types carried in the event-type message header.
const (
	TypeHoldCreated   = "hold.created"
	TypeHoldReleased  = "hold.released"
	TypeHoldExpired   = "hold.expired"
	TypeHoldConverted = "hold.converted"

	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
	TypeBookingNoShow    = "booking.no_show"

	TypeToolExecuted = "tool.executed"
)

// HoldEvent covers the hold lifecycle transitions.
type HoldEvent struct {
	HoldID        string    `json:"hold_id"`
	TenantID      string    `json:"tenant_id"`
	BranchID      string    `json:"branch_id,omitempty"`
	CustomerPhone string    `json:"customer_phone"`
	HoldType      string    `json:"hold_type"`
	SlotStart     time.Time `json:"slot_start"`
	SlotEnd       time.Time `json:"slot_end"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	BookingID     string    `json:"booking_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingEvent covers booking confirmation, cancellation and no-show
// outcomes. ReferenceID keys the idempotent trust adjustment derived from
// the event, so redelivery cannot double-apply a delta.
type BookingEvent struct {
	BookingID        string    `json:"booking_id"`
	TenantID         string    `json:"tenant_id"`
	BranchID         string    `json:"branch_id,omitempty"`
	CustomerPhone    string    `json:"customer_phone"`
	BookingType      string    `json:"booking_type"`
	Vertical         string    `json:"vertical,omitempty"`
	ConfirmationCode string    `json:"confirmation_code,omitempty"`
	HoldID           string    `json:"hold_id,omitempty"`
	TrustDelta       int       `json:"trust_delta"`
	ReferenceID      string    `json:"reference_id"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// ToolExecutedEvent mirrors the audit row for downstream analytics.
type ToolExecutedEvent struct {
	ToolName   string    `json:"tool_name"`
	TenantID   string    `json:"tenant_id"`
	CallID     string    `json:"call_id"`
	Channel    string    `json:"channel"`
	DurationMS int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	ErrorCode  string    `json:"error_code,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
