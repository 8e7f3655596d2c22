package model

import "time"

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"

	BookingTypeAppointment = "appointment"
	BookingTypeReservation = "reservation"
	BookingTypeOrder       = "order"
)

// Booking is the final committed entity, created either directly or by
// converting an active hold. It carries the trust score recorded at the
// moment of booking and, when converted, the id of the source hold.
type Booking struct {
	ID               string            `json:"id,omitempty" bson:"_id,omitempty"`
	TenantID         string            `json:"tenant_id" bson:"tenant_id" validate:"required"`
	BranchID         string            `json:"branch_id,omitempty" bson:"branch_id,omitempty"`
	BookingType      string            `json:"booking_type" bson:"booking_type" validate:"required,oneof=appointment reservation order"`
	CustomerPhone    string            `json:"customer_phone" bson:"customer_phone" validate:"required,numeric"`
	CustomerName     string            `json:"customer_name,omitempty" bson:"customer_name,omitempty" validate:"omitempty,min=2,max=100"`
	LeadID           string            `json:"lead_id,omitempty" bson:"lead_id,omitempty"`
	ServiceID        string            `json:"service_id,omitempty" bson:"service_id,omitempty"`
	StaffID          string            `json:"staff_id,omitempty" bson:"staff_id,omitempty"`
	Vertical         string            `json:"vertical" bson:"vertical" validate:"required"`
	StartTime        time.Time         `json:"start_time" bson:"start_time" validate:"required"`
	EndTime          time.Time         `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	PartySize        int               `json:"party_size,omitempty" bson:"party_size,omitempty" validate:"omitempty,min=1,max=200"`
	Status           string            `json:"status" bson:"status" validate:"required,oneof=confirmed cancelled"`
	ConfirmationCode string            `json:"confirmation_code" bson:"confirmation_code" validate:"required"`
	TrustScore       int               `json:"trust_score" bson:"trust_score" validate:"min=0,max=100"`
	HoldID           string            `json:"hold_id,omitempty" bson:"hold_id,omitempty"`
	DepositPaid      bool              `json:"deposit_paid" bson:"deposit_paid"`
	DepositAmount    float64           `json:"deposit_amount,omitempty" bson:"deposit_amount,omitempty" validate:"min=0"`
	Metadata         map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt        time.Time         `json:"created_at" bson:"created_at"`
	CancelledAt      *time.Time        `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancelReason     string            `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
}

// Overlaps reports whether the booking's interval intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}
