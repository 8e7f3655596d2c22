package service

import (
	"context"
	"errors"
	"time"

	"habla/internal/policies"
	trusterrors "habla/internal/trust/errors"
	"habla/internal/trust/repository"
	"habla/pkg/config"
	"habla/pkg/model"
)

// Trust levels. Levels use fixed breakpoints independent of policy
// thresholds; the level is informational, the action is policy-driven.
const (
	LevelVip     = "vip"
	LevelTrusted = "trusted"
	LevelNormal  = "normal"
	LevelRisky   = "risky"
	LevelBlocked = "blocked"
)

// Admission actions.
const (
	ActionProceed             = "proceed"
	ActionRequireConfirmation = "require_confirmation"
	ActionRequireDeposit      = "require_deposit"
	ActionBlocked             = "blocked"
)

const (
	trustedBreakpoint = 80
	normalBreakpoint  = 50
)

// Evaluation is the trust classification and admission decision for one
// customer at one tenant.
type Evaluation struct {
	Score         int     `json:"score"`
	Level         string  `json:"level"`
	Action        string  `json:"action"`
	IsVip         bool    `json:"is_vip"`
	IsBlocked     bool    `json:"is_blocked"`
	BlockReason   string  `json:"block_reason,omitempty"`
	DepositAmount float64 `json:"deposit_amount,omitempty"`
}

type TrustService interface {
	// Evaluate never fails: on any lookup error it degrades to the
	// permissive default. Trust is a risk-reduction signal, not a hard
	// gate, except for explicit blocks.
	Evaluate(ctx context.Context, tenantID, vertical, phone, leadID string) *Evaluation

	// AdjustScore applies a bounded delta keyed by referenceID. Redelivery
	// of the same reference is a no-op reporting applied=false.
	AdjustScore(ctx context.Context, tenantID, phone, referenceID, reason string, delta int) (bool, error)
}

type trustService struct {
	repo     repository.TrustRepository
	policies policies.Resolver
	cfg      *config.Config
}

func NewTrustService(repo repository.TrustRepository, policyResolver policies.Resolver, cfg *config.Config) TrustService {
	return &trustService{
		repo:     repo,
		policies: policyResolver,
		cfg:      cfg,
	}
}

func (s *trustService) Evaluate(ctx context.Context, tenantID, vertical, phone, leadID string) *Evaluation {
	policy, err := s.policies.Resolve(ctx, tenantID, vertical)
	if err != nil {
		s.cfg.Log.Warn("Policy resolution failed, degrading to permissive default",
			"tenant_id", tenantID,
			"vertical", vertical,
			"error", err,
		)
		return permissiveDefault()
	}

	profile, err := s.resolveProfile(ctx, tenantID, phone, leadID)
	if err != nil {
		s.cfg.Log.Warn("Trust profile lookup failed, degrading to permissive default",
			"tenant_id", tenantID,
			"error", err,
		)
		return permissiveDefault()
	}

	now := time.Now().UTC()
	if profile.BlockActive(now) {
		return &Evaluation{
			Score:       profile.Score,
			Level:       LevelBlocked,
			Action:      ActionBlocked,
			IsVip:       profile.IsVip,
			IsBlocked:   true,
			BlockReason: profile.BlockReason,
		}
	}

	eval := &Evaluation{
		Score: profile.Score,
		Level: classify(profile),
		IsVip: profile.IsVip,
	}
	eval.Action, eval.DepositAmount = admit(profile, policy)
	return eval
}

// resolveProfile prefers the lead id when known, else the phone. A customer
// we have never seen gets the synthesized default profile.
func (s *trustService) resolveProfile(ctx context.Context, tenantID, phone, leadID string) (*model.TrustProfile, error) {
	if leadID != "" {
		profile, err := s.repo.FindProfileByLead(ctx, tenantID, leadID)
		if err == nil {
			return profile, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}

	profile, err := s.repo.FindProfileByPhone(ctx, tenantID, phone)
	if err == nil {
		return profile, nil
	}
	if isNotFound(err) {
		return model.DefaultTrustProfile(tenantID, phone), nil
	}
	return nil, err
}

func (s *trustService) AdjustScore(ctx context.Context, tenantID, phone, referenceID, reason string, delta int) (bool, error) {
	adj := &model.TrustAdjustment{
		ID:            referenceID,
		TenantID:      tenantID,
		CustomerPhone: phone,
		Delta:         delta,
		Reason:        reason,
	}

	applied, err := s.repo.ApplyAdjustment(ctx, adj)
	if err != nil {
		s.cfg.Log.Error("Failed to apply trust adjustment",
			"tenant_id", tenantID,
			"reference_id", referenceID,
			"delta", delta,
			"error", err,
		)
		return false, err
	}
	if !applied {
		s.cfg.Log.Info("Trust adjustment already applied, skipping",
			"tenant_id", tenantID,
			"reference_id", referenceID,
		)
		return false, nil
	}

	s.cfg.Log.Info("Trust adjustment applied",
		"tenant_id", tenantID,
		"reference_id", referenceID,
		"delta", delta,
		"reason", reason,
	)
	return true, nil
}

func classify(profile *model.TrustProfile) string {
	switch {
	case profile.IsVip:
		return LevelVip
	case profile.Score >= trustedBreakpoint:
		return LevelTrusted
	case profile.Score >= normalBreakpoint:
		return LevelNormal
	default:
		return LevelRisky
	}
}

// admit maps the profile score onto the policy thresholds. Deposit gating
// only applies when the policy enables it; disabled gates degrade one step
// toward less friction.
func admit(profile *model.TrustProfile, policy *model.BookingPolicy) (action string, depositAmount float64) {
	if profile.IsVip || profile.Score >= policy.ConfirmationThreshold {
		return ActionProceed, 0
	}
	if profile.Score >= policy.DepositThreshold {
		if !policy.ConfirmationEnabled {
			return ActionProceed, 0
		}
		return ActionRequireConfirmation, 0
	}
	if !policy.DepositEnabled {
		if !policy.ConfirmationEnabled {
			return ActionProceed, 0
		}
		return ActionRequireConfirmation, 0
	}
	return ActionRequireDeposit, policy.DepositAmount
}

func permissiveDefault() *Evaluation {
	return &Evaluation{
		Score:  model.DefaultTrustScore,
		Level:  LevelNormal,
		Action: ActionProceed,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, trusterrors.ErrProfileNotFound)
}
