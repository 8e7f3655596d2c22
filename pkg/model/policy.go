package model

// BookingPolicy is the per (tenant, vertical) friction configuration.
// Read-only to this process; authored by tenant administration.
type BookingPolicy struct {
	ID                    string  `json:"id,omitempty" bson:"_id,omitempty"`
	TenantID              string  `json:"tenant_id" bson:"tenant_id" validate:"required"`
	Vertical              string  `json:"vertical" bson:"vertical" validate:"required"`
	ConfirmationThreshold int     `json:"confirmation_threshold" bson:"confirmation_threshold" validate:"min=0,max=100"`
	DepositThreshold      int     `json:"deposit_threshold" bson:"deposit_threshold" validate:"min=0,max=100"`
	DepositAmount         float64 `json:"deposit_amount" bson:"deposit_amount" validate:"min=0"`
	HoldDurationMinutes   int     `json:"hold_duration_minutes" bson:"hold_duration_minutes" validate:"min=1,max=1440"`
	ConfirmationEnabled   bool    `json:"confirmation_enabled" bson:"confirmation_enabled"`
	DepositEnabled        bool    `json:"deposit_enabled" bson:"deposit_enabled"`
}
