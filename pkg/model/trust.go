package model

import "time"

// DefaultTrustScore is assigned to customers we have never seen before.
// New customers are moderate-trust, not maximally trusted or distrusted.
const DefaultTrustScore = 70

// TrustProfile is the per (tenant, customer) reputation record. Created
// implicitly on first interaction; the score is moved by bounded deltas
// recorded in Trust_adjustments, never rewritten wholesale.
type TrustProfile struct {
	ID             string     `json:"id,omitempty" bson:"_id,omitempty"`
	TenantID       string     `json:"tenant_id" bson:"tenant_id" validate:"required"`
	CustomerPhone  string     `json:"customer_phone" bson:"customer_phone" validate:"required,numeric"`
	LeadID         string     `json:"lead_id,omitempty" bson:"lead_id,omitempty"`
	Score          int        `json:"score" bson:"score" validate:"min=0,max=100"`
	IsVip          bool       `json:"is_vip" bson:"is_vip"`
	Blocked        bool       `json:"blocked" bson:"blocked"`
	BlockReason    string     `json:"block_reason,omitempty" bson:"block_reason,omitempty"`
	BlockExpiresAt *time.Time `json:"block_expires_at,omitempty" bson:"block_expires_at,omitempty"`
	NoShowCount    int        `json:"no_show_count" bson:"no_show_count" validate:"min=0"`
	CompletedCount int        `json:"completed_count" bson:"completed_count" validate:"min=0"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at"`
}

// BlockActive reports whether the profile carries a block that has not
// expired as of now.
func (p *TrustProfile) BlockActive(now time.Time) bool {
	if !p.Blocked {
		return false
	}
	if p.BlockExpiresAt == nil {
		return true
	}
	return p.BlockExpiresAt.After(now)
}

// DefaultTrustProfile synthesizes the profile used for unknown customers.
func DefaultTrustProfile(tenantID, phone string) *TrustProfile {
	return &TrustProfile{
		TenantID:      tenantID,
		CustomerPhone: phone,
		Score:         DefaultTrustScore,
	}
}

// TrustAdjustment is one applied score delta. Its _id is the caller-supplied
// reference id, so redelivered adjustments hit the unique index and are
// dropped instead of double-applied.
type TrustAdjustment struct {
	ID            string    `json:"id" bson:"_id" validate:"required"`
	TenantID      string    `json:"tenant_id" bson:"tenant_id" validate:"required"`
	CustomerPhone string    `json:"customer_phone" bson:"customer_phone" validate:"required,numeric"`
	Delta         int       `json:"delta" bson:"delta" validate:"min=-20,max=20"`
	Reason        string    `json:"reason" bson:"reason" validate:"required"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}
