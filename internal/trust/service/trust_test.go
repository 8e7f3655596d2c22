package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"habla/internal/policies"
	trusterrors "habla/internal/trust/errors"
	"habla/pkg/config"
	"habla/pkg/logger"
	"habla/pkg/model"
)

type mockTrustRepository struct {
	profilesByPhone map[string]*model.TrustProfile
	profilesByLead  map[string]*model.TrustProfile
	findErr         error

	adjustments    []*model.TrustAdjustment
	seenReferences map[string]bool
	adjustErr      error
}

func newMockTrustRepository() *mockTrustRepository {
	return &mockTrustRepository{
		profilesByPhone: map[string]*model.TrustProfile{},
		profilesByLead:  map[string]*model.TrustProfile{},
		seenReferences:  map[string]bool{},
	}
}

func (m *mockTrustRepository) FindProfileByPhone(ctx context.Context, tenantID, phone string) (*model.TrustProfile, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if p, ok := m.profilesByPhone[phone]; ok {
		return p, nil
	}
	return nil, trusterrors.ErrProfileNotFound
}

func (m *mockTrustRepository) FindProfileByLead(ctx context.Context, tenantID, leadID string) (*model.TrustProfile, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if p, ok := m.profilesByLead[leadID]; ok {
		return p, nil
	}
	return nil, trusterrors.ErrProfileNotFound
}

func (m *mockTrustRepository) ApplyAdjustment(ctx context.Context, adj *model.TrustAdjustment) (bool, error) {
	if m.adjustErr != nil {
		return false, m.adjustErr
	}
	if m.seenReferences[adj.ID] {
		return false, nil
	}
	m.seenReferences[adj.ID] = true
	m.adjustments = append(m.adjustments, adj)
	return true, nil
}

type mockPolicyResolver struct {
	policy *model.BookingPolicy
	err    error
}

func (m *mockPolicyResolver) Resolve(ctx context.Context, tenantID, vertical string) (*model.BookingPolicy, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.policy != nil {
		return m.policy, nil
	}
	return policies.DefaultPolicy(tenantID, vertical, 15), nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Service: "test"}),
	}
}

func newService(repo *mockTrustRepository, resolver *mockPolicyResolver) TrustService {
	return NewTrustService(repo, resolver, testConfig())
}

func TestEvaluate_UnknownCustomerGetsDefault(t *testing.T) {
	svc := newService(newMockTrustRepository(), &mockPolicyResolver{})

	eval := svc.Evaluate(context.Background(), "tenant-1", "dental", "34612345678", "")

	if eval.Score != model.DefaultTrustScore {
		t.Errorf("Score = %d, want %d", eval.Score, model.DefaultTrustScore)
	}
	if eval.Level != LevelNormal {
		t.Errorf("Level = %q, want %q", eval.Level, LevelNormal)
	}
	// Default 70 is below the default confirmation threshold of 80.
	if eval.Action != ActionRequireConfirmation {
		t.Errorf("Action = %q, want %q", eval.Action, ActionRequireConfirmation)
	}
}

func TestEvaluate_Actions(t *testing.T) {
	tests := []struct {
		name       string
		score      int
		isVip      bool
		policy     *model.BookingPolicy
		wantAction string
		wantLevel  string
	}{
		{
			name:  "score 85 over confirmation threshold 80 proceeds",
			score: 85,
			policy: &model.BookingPolicy{
				ConfirmationThreshold: 80,
				DepositThreshold:      30,
				ConfirmationEnabled:   true,
				DepositEnabled:        true,
			},
			wantAction: ActionProceed,
			wantLevel:  LevelTrusted,
		},
		{
			name:  "score 25 under deposit threshold 30 requires deposit",
			score: 25,
			policy: &model.BookingPolicy{
				ConfirmationThreshold: 80,
				DepositThreshold:      30,
				DepositAmount:         20,
				ConfirmationEnabled:   true,
				DepositEnabled:        true,
			},
			wantAction: ActionRequireDeposit,
			wantLevel:  LevelRisky,
		},
		{
			name:  "mid score requires confirmation",
			score: 60,
			policy: &model.BookingPolicy{
				ConfirmationThreshold: 80,
				DepositThreshold:      30,
				ConfirmationEnabled:   true,
				DepositEnabled:        true,
			},
			wantAction: ActionRequireConfirmation,
			wantLevel:  LevelNormal,
		},
		{
			name:  "vip proceeds regardless of score",
			score: 20,
			isVip: true,
			policy: &model.BookingPolicy{
				ConfirmationThreshold: 80,
				DepositThreshold:      30,
				ConfirmationEnabled:   true,
				DepositEnabled:        true,
			},
			wantAction: ActionProceed,
			wantLevel:  LevelVip,
		},
		{
			name:  "deposit gating disabled degrades to confirmation",
			score: 10,
			policy: &model.BookingPolicy{
				ConfirmationThreshold: 80,
				DepositThreshold:      30,
				ConfirmationEnabled:   true,
				DepositEnabled:        false,
			},
			wantAction: ActionRequireConfirmation,
			wantLevel:  LevelRisky,
		},
		{
			name:  "restaurant defaults use 75 and 25",
			score: 76,
			policy: policies.DefaultPolicy("tenant-1", "restaurant", 15),
			// 76 >= 75 so the restaurant vertical already proceeds.
			wantAction: ActionProceed,
			wantLevel:  LevelNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockTrustRepository()
			repo.profilesByPhone["34612345678"] = &model.TrustProfile{
				TenantID:      "tenant-1",
				CustomerPhone: "34612345678",
				Score:         tt.score,
				IsVip:         tt.isVip,
			}

			svc := newService(repo, &mockPolicyResolver{policy: tt.policy})
			eval := svc.Evaluate(context.Background(), "tenant-1", "dental", "34612345678", "")

			if eval.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", eval.Action, tt.wantAction)
			}
			if eval.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", eval.Level, tt.wantLevel)
			}
		})
	}
}

func TestEvaluate_DepositAmountFromPolicy(t *testing.T) {
	repo := newMockTrustRepository()
	repo.profilesByPhone["34612345678"] = &model.TrustProfile{Score: 10}

	svc := newService(repo, &mockPolicyResolver{policy: &model.BookingPolicy{
		ConfirmationThreshold: 80,
		DepositThreshold:      30,
		DepositAmount:         35.5,
		ConfirmationEnabled:   true,
		DepositEnabled:        true,
	}})

	eval := svc.Evaluate(context.Background(), "tenant-1", "dental", "34612345678", "")
	if eval.Action != ActionRequireDeposit {
		t.Fatalf("Action = %q", eval.Action)
	}
	if eval.DepositAmount != 35.5 {
		t.Errorf("DepositAmount = %v, want 35.5", eval.DepositAmount)
	}
}

func TestEvaluate_BlockOverridesEverything(t *testing.T) {
	repo := newMockTrustRepository()
	repo.profilesByPhone["34612345678"] = &model.TrustProfile{
		Score:       95,
		IsVip:       true,
		Blocked:     true,
		BlockReason: "repeated no-shows",
	}

	svc := newService(repo, &mockPolicyResolver{})
	eval := svc.Evaluate(context.Background(), "tenant-1", "dental", "34612345678", "")

	if eval.Action != ActionBlocked {
		t.Errorf("Action = %q, want %q", eval.Action, ActionBlocked)
	}
	if eval.Level != LevelBlocked {
		t.Errorf("Level = %q, want %q", eval.Level, LevelBlocked)
	}
	if eval.BlockReason != "repeated no-shows" {
		t.Errorf("BlockReason = %q", eval.BlockReason)
	}
}

func TestEvaluate_ExpiredBlockIsIgnored(t *testing.T) {
	expired := time.Now().UTC().Add(-time.Hour)
	repo := newMockTrustRepository()
	repo.profilesByPhone["34612345678"] = &model.TrustProfile{
		Score:          85,
		Blocked:        true,
		BlockReason:    "old incident",
		BlockExpiresAt: &expired,
	}

	svc := newService(repo, &mockPolicyResolver{})
	eval := svc.Evaluate(context.Background(), "tenant-1", "dental", "34612345678", "")

	if eval.Action != ActionProceed {
		t.Errorf("Action = %q, want %q", eval.Action, ActionProceed)
	}
	if eval.IsBlocked {
		t.Error("expired block must not report blocked")
	}
}

func TestEvaluate_LeadIDPreferred(t *testing.T) {
	repo := newMockTrustRepository()
	repo.profilesByLead["lead-7"] = &model.TrustProfile{Score: 90}
	repo.profilesByPhone["34612345678"] = &model.TrustProfile{Score: 10}

	svc := newService(repo, &mockPolicyResolver{})
	eval := svc.Evaluate(context.Background(), "tenant-1", "dental", "34612345678", "lead-7")

	if eval.Score != 90 {
		t.Errorf("Score = %d, want the lead profile's 90", eval.Score)
	}
}

func TestEvaluate_DegradesOnProfileLookupFailure(t *testing.T) {
	repo := newMockTrustRepository()
	repo.findErr = errors.New("connection reset")

	svc := newService(repo, &mockPolicyResolver{})
	eval := svc.Evaluate(context.Background(), "tenant-1", "dental", "34612345678", "")

	if eval.Score != model.DefaultTrustScore || eval.Action != ActionProceed {
		t.Errorf("degraded evaluation = %+v, want score 70 and proceed", eval)
	}
}

func TestEvaluate_DegradesOnPolicyFailure(t *testing.T) {
	svc := newService(newMockTrustRepository(), &mockPolicyResolver{err: errors.New("mongo down")})

	eval := svc.Evaluate(context.Background(), "tenant-1", "dental", "34612345678", "")
	if eval.Score != model.DefaultTrustScore || eval.Action != ActionProceed {
		t.Errorf("degraded evaluation = %+v, want score 70 and proceed", eval)
	}
}

func TestAdjustScore_Idempotent(t *testing.T) {
	repo := newMockTrustRepository()
	svc := newService(repo, &mockPolicyResolver{})

	applied, err := svc.AdjustScore(context.Background(), "tenant-1", "34612345678", "booking-42", "booking confirmed", 2)
	if err != nil {
		t.Fatalf("first adjust failed: %v", err)
	}
	if !applied {
		t.Fatal("first adjust should apply")
	}

	applied, err = svc.AdjustScore(context.Background(), "tenant-1", "34612345678", "booking-42", "booking confirmed", 2)
	if err != nil {
		t.Fatalf("second adjust errored: %v", err)
	}
	if applied {
		t.Error("second adjust with the same reference must be a no-op")
	}
	if len(repo.adjustments) != 1 {
		t.Errorf("adjustments recorded = %d, want 1", len(repo.adjustments))
	}
}

func TestAdjustScore_PropagatesStoreError(t *testing.T) {
	repo := newMockTrustRepository()
	repo.adjustErr = errors.New("write concern failure")
	svc := newService(repo, &mockPolicyResolver{})

	if _, err := svc.AdjustScore(context.Background(), "tenant-1", "34612345678", "ref-1", "test", 2); err == nil {
		t.Error("expected error")
	}
}
