package model

import "time"

const (
	HoldStatusActive    = "active"
	HoldStatusExpired   = "expired"
	HoldStatusReleased  = "released"
	HoldStatusConverted = "converted"

	HoldTypeAppointment = "appointment"
	HoldTypeReservation = "reservation"
	HoldTypeOrder       = "order"
)

// Hold is a time-boxed exclusivity claim on a [SlotStart, SlotEnd) interval.
// Its interval blocks every later availability check and booking insert for
// the same tenant/branch (and staff, when staff-specific) until the hold
// expires, is released, or is converted into a booking.
type Hold struct {
	ID            string            `json:"id" bson:"_id" validate:"required,uuid4"`
	TenantID      string            `json:"tenant_id" bson:"tenant_id" validate:"required"`
	BranchID      string            `json:"branch_id,omitempty" bson:"branch_id,omitempty"`
	CustomerPhone string            `json:"customer_phone" bson:"customer_phone" validate:"required,numeric"`
	LeadID        string            `json:"lead_id,omitempty" bson:"lead_id,omitempty"`
	HoldType      string            `json:"hold_type" bson:"hold_type" validate:"required,oneof=appointment reservation order"`
	ServiceID     string            `json:"service_id,omitempty" bson:"service_id,omitempty"`
	StaffID       string            `json:"staff_id,omitempty" bson:"staff_id,omitempty"`
	Vertical      string            `json:"vertical" bson:"vertical" validate:"required"`
	SlotStart     time.Time         `json:"slot_start" bson:"slot_start" validate:"required"`
	SlotEnd       time.Time         `json:"slot_end" bson:"slot_end" validate:"required,gtfield=SlotStart"`
	Status        string            `json:"status" bson:"status" validate:"required,oneof=active expired released converted"`
	TrustScore    int               `json:"trust_score" bson:"trust_score" validate:"min=0,max=100"`
	// Deposit fields are stamped from the trust decision at creation time
	// and never recomputed afterwards.
	RequiresDeposit bool              `json:"requires_deposit" bson:"requires_deposit"`
	DepositAmount   float64           `json:"deposit_amount,omitempty" bson:"deposit_amount,omitempty" validate:"min=0"`
	Metadata        map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	ExpiresAt       time.Time         `json:"expires_at" bson:"expires_at" validate:"required"`
	ReleasedAt      *time.Time        `json:"released_at,omitempty" bson:"released_at,omitempty"`
	ReleaseReason   string            `json:"release_reason,omitempty" bson:"release_reason,omitempty"`
	ConvertedAt     *time.Time        `json:"converted_at,omitempty" bson:"converted_at,omitempty"`
	BookingID       string            `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
}

// Terminal reports whether the hold status is final. No transition leaves
// expired, released, or converted.
func (h *Hold) Terminal() bool {
	return h.Status != HoldStatusActive
}

// Overlaps reports whether the hold's interval intersects [start, end).
func (h *Hold) Overlaps(start, end time.Time) bool {
	return h.SlotStart.Before(end) && h.SlotEnd.After(start)
}

// HoldLock is an advisory lock taken around the fallback check-then-insert
// path when the data store cannot run multi-document transactions. Existence
// of the document is the lock; a duplicate key error means another request
// holds it. A TTL index on expires_at reaps locks leaked by crashed callers.
type HoldLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
