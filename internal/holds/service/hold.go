package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingsservice "habla/internal/bookings/service"
	holdserrors "habla/internal/holds/errors"
	"habla/internal/holds/repository"
	"habla/internal/policies"
	"habla/internal/tenants"
	trustservice "habla/internal/trust/service"
	"habla/pkg/config"
	apperrors "habla/pkg/errors"
	"habla/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// Trust delta issued when a hold converts into a booking. Applied
// idempotently, keyed by the hold id.
const ConvertTrustDelta = 2

// Availability refusal reasons.
const (
	ReasonHeld   = "held"
	ReasonBooked = "booked"
	ReasonClosed = "closed"
)

type CreateRequest struct {
	TenantID        string
	BranchID        string
	SlotStart       time.Time
	DurationMinutes int
	CustomerPhone   string
	LeadID          string
	ServiceID       string
	StaffID         string
	HoldType        string
	Vertical        string
	Metadata        map[string]string
}

type CreateResult struct {
	Hold             *model.Hold
	ExpiresInMinutes int
	RequiresDeposit  bool
	DepositAmount    float64
}

// ReleaseResult reports the true prior status when the release was a no-op.
type ReleaseResult struct {
	Released    bool
	PriorStatus string
}

type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AvailabilityRequest struct {
	TenantID        string
	BranchID        string
	Date            string // "2006-01-02" in the tenant's timezone
	Time            string // optional "15:04"; empty enumerates the day
	DurationMinutes int
	StaffID         string
}

type AvailabilityResult struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	Slots     []Slot `json:"slots,omitempty"`
}

type ConvertRequest struct {
	TenantID         string
	HoldID           string
	CustomerName     string
	DepositConfirmed bool
}

// EventPublisher mirrors the events the engine emits. All publishing is
// best-effort; failures are warned and swallowed.
type EventPublisher interface {
	HoldCreated(ctx context.Context, hold *model.Hold) error
	HoldReleased(ctx context.Context, hold *model.Hold, reason string) error
	HoldExpired(ctx context.Context, hold *model.Hold) error
	HoldConverted(ctx context.Context, hold *model.Hold, bookingID string) error
	BookingConfirmed(ctx context.Context, booking *model.Booking, trustDelta int, referenceID string) error
}

type HoldService interface {
	Create(ctx context.Context, req *CreateRequest) (*CreateResult, error)
	Release(ctx context.Context, tenantID, holdID, reason string) (*ReleaseResult, error)
	CheckAvailability(ctx context.Context, req *AvailabilityRequest) (*AvailabilityResult, error)
	Convert(ctx context.Context, req *ConvertRequest) (*model.Booking, error)
}

type holdService struct {
	repo     repository.HoldRepository
	lockRepo repository.HoldLockRepository
	tenants  tenants.Repository
	policies policies.Resolver
	trust    trustservice.TrustService
	bookings bookingsservice.BookingService
	events   EventPublisher
	cfg      *config.Config
}

func NewHoldService(
	repo repository.HoldRepository,
	lockRepo repository.HoldLockRepository,
	tenantRepo tenants.Repository,
	policyResolver policies.Resolver,
	trust trustservice.TrustService,
	bookings bookingsservice.BookingService,
	events EventPublisher,
	cfg *config.Config,
) HoldService {
	return &holdService{
		repo:     repo,
		lockRepo: lockRepo,
		tenants:  tenantRepo,
		policies: policyResolver,
		trust:    trust,
		bookings: bookings,
		events:   events,
		cfg:      cfg,
	}
}

func (s *holdService) Create(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	now := time.Now().UTC()
	if !req.SlotStart.After(now) {
		return nil, apperrors.Wrap(holdserrors.ErrSlotInPast, apperrors.CodeInvalidInput,
			"Slot start must be in the future", 400)
	}

	policy, err := s.policies.Resolve(ctx, req.TenantID, req.Vertical)
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve booking policy", err)
	}

	eval := s.trust.Evaluate(ctx, req.TenantID, req.Vertical, req.CustomerPhone, req.LeadID)
	if eval.Action == trustservice.ActionBlocked {
		return nil, apperrors.Wrap(holdserrors.ErrCustomerBlocked, apperrors.CodeForbidden,
			"Customer is blocked from booking", 403)
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = s.cfg.DefaultSlotDuration
	}
	slotEnd := req.SlotStart.Add(time.Duration(duration) * time.Minute)

	hold := &model.Hold{
		ID:            uuid.NewString(),
		TenantID:      req.TenantID,
		BranchID:      req.BranchID,
		CustomerPhone: req.CustomerPhone,
		LeadID:        req.LeadID,
		HoldType:      req.HoldType,
		ServiceID:     req.ServiceID,
		StaffID:       req.StaffID,
		Vertical:      req.Vertical,
		SlotStart:     req.SlotStart,
		SlotEnd:       slotEnd,
		Status:        model.HoldStatusActive,
		TrustScore:    eval.Score,
		// Stamped from the trust decision now, never recomputed. The
		// conversion path reads these fields, not a fresh evaluation.
		RequiresDeposit: eval.Action == trustservice.ActionRequireDeposit,
		DepositAmount:   eval.DepositAmount,
		Metadata:        req.Metadata,
		CreatedAt:       now,
		ExpiresAt:       now.Add(time.Duration(policy.HoldDurationMinutes) * time.Minute),
	}

	if err := s.createExclusive(ctx, hold); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Hold created",
		"hold_id", hold.ID,
		"tenant_id", hold.TenantID,
		"slot_start", hold.SlotStart,
		"slot_end", hold.SlotEnd,
		"expires_at", hold.ExpiresAt,
		"requires_deposit", hold.RequiresDeposit,
	)

	s.publish(ctx, "hold created", func(ctx context.Context) error {
		return s.events.HoldCreated(ctx, hold)
	})

	return &CreateResult{
		Hold:             hold,
		ExpiresInMinutes: policy.HoldDurationMinutes,
		RequiresDeposit:  hold.RequiresDeposit,
		DepositAmount:    hold.DepositAmount,
	}, nil
}

// createExclusive performs the atomic check-and-insert. The primary path
// runs the overlap check and the insert inside one multi-document
// transaction; first committer wins. Deployments without replica-set
// transactions fall back to an advisory slot lock around an explicit
// check-then-insert, which narrows but does not close the race window.
func (s *holdService) createExclusive(ctx context.Context, hold *model.Hold) error {
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifySlotFree(sessCtx, hold); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, hold); err != nil {
			return apperrors.Internal("Failed to create hold", err)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if !transactionsUnsupported(err) {
		return err
	}

	s.cfg.Log.Warn("Transactions unavailable, using advisory lock fallback", "error", err)
	return s.createWithLock(ctx, hold)
}

func (s *holdService) createWithLock(ctx context.Context, hold *model.Hold) error {
	lockID, err := s.acquireSlotLock(ctx, hold)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.lockRepo.Delete(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release hold lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	if err := s.verifySlotFree(ctx, hold); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, hold); err != nil {
		return apperrors.Internal("Failed to create hold", err)
	}
	return nil
}

// acquireSlotLock creates the advisory lock document. A duplicate key means
// another request is claiming the same slot coordinates right now.
func (s *holdService) acquireSlotLock(ctx context.Context, hold *model.Hold) (string, error) {
	lockID := fmt.Sprintf("hold_lock_%s_%s_%s_%d",
		hold.TenantID, hold.BranchID, hold.StaffID, hold.SlotStart.Unix())

	lock := &model.HoldLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(10 * time.Second),
	}

	if _, err := s.lockRepo.Create(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Wrap(holdserrors.ErrSlotHeld, apperrors.CodeConflict,
				"Slot already held", 409)
		}
		return "", apperrors.Internal("Failed to acquire hold lock", err)
	}
	return lockID, nil
}

func (s *holdService) verifySlotFree(ctx context.Context, hold *model.Hold) error {
	overlapping, err := s.repo.FindActiveOverlapping(ctx, hold.TenantID, hold.BranchID, hold.StaffID, hold.SlotStart, hold.SlotEnd)
	if err != nil {
		return apperrors.Internal("Failed to check overlapping holds", err)
	}
	if len(overlapping) > 0 {
		return apperrors.Wrap(holdserrors.ErrSlotHeld, apperrors.CodeConflict,
			"Slot already held", 409)
	}

	booked, err := s.repo.FindConfirmedBookingsOverlapping(ctx, hold.TenantID, hold.BranchID, hold.StaffID, hold.SlotStart, hold.SlotEnd)
	if err != nil {
		return apperrors.Internal("Failed to check overlapping bookings", err)
	}
	if len(booked) > 0 {
		return apperrors.Wrap(holdserrors.ErrSlotBooked, apperrors.CodeConflict,
			"Slot already booked", 409)
	}
	return nil
}

func transactionsUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "failed to start session") ||
		strings.Contains(msg, "transaction numbers are only allowed") ||
		strings.Contains(msg, "transactions are not supported")
}

func (s *holdService) Release(ctx context.Context, tenantID, holdID, reason string) (*ReleaseResult, error) {
	hold, err := s.repo.FindByID(ctx, tenantID, holdID)
	if err != nil {
		if errors.Is(err, holdserrors.ErrNotFound) {
			return nil, apperrors.Wrap(holdserrors.ErrNotFound, apperrors.CodeNotFound,
				"Hold not found", 404)
		}
		return nil, apperrors.Internal("Failed to load hold", err)
	}

	now := time.Now().UTC()

	// Terminal statuses are final; releasing again is a truthful no-op.
	if hold.Terminal() {
		return &ReleaseResult{Released: false, PriorStatus: hold.Status}, nil
	}

	// Lazy expiry: the stored status says active but the clock disagrees.
	if !hold.ExpiresAt.After(now) {
		s.expireLazily(ctx, hold)
		return &ReleaseResult{Released: false, PriorStatus: model.HoldStatusExpired}, nil
	}

	released, err := s.repo.Release(ctx, tenantID, holdID, reason, now)
	if err != nil {
		return nil, apperrors.Internal("Failed to release hold", err)
	}
	if !released {
		// Lost a race with another transition; report the true status.
		current, findErr := s.repo.FindByID(ctx, tenantID, holdID)
		if findErr != nil {
			return nil, apperrors.Internal("Failed to reload hold", findErr)
		}
		return &ReleaseResult{Released: false, PriorStatus: current.Status}, nil
	}

	hold.Status = model.HoldStatusReleased
	hold.ReleasedAt = &now
	hold.ReleaseReason = reason

	s.cfg.Log.Info("Hold released", "hold_id", holdID, "tenant_id", tenantID, "reason", reason)

	s.publish(ctx, "hold released", func(ctx context.Context) error {
		return s.events.HoldReleased(ctx, hold, reason)
	})

	return &ReleaseResult{Released: true, PriorStatus: model.HoldStatusActive}, nil
}

func (s *holdService) CheckAvailability(ctx context.Context, req *AvailabilityRequest) (*AvailabilityResult, error) {
	tenant, err := s.tenants.FindByID(ctx, req.TenantID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load tenant", err)
	}

	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		loc = time.UTC
	}

	day, err := time.ParseInLocation("2006-01-02", req.Date, loc)
	if err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = s.cfg.DefaultSlotDuration
	}

	if req.Time != "" {
		return s.checkSlot(ctx, req, day, loc, duration)
	}
	return s.enumerateSlots(ctx, req, tenant, day, loc, duration)
}

func (s *holdService) checkSlot(ctx context.Context, req *AvailabilityRequest, day time.Time, loc *time.Location, durationMin int) (*AvailabilityResult, error) {
	clock, err := time.Parse("15:04", req.Time)
	if err != nil {
		return nil, apperrors.InvalidInput("Time must be in HH:MM format")
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
	end := start.Add(time.Duration(durationMin) * time.Minute)

	holds, err := s.repo.FindActiveOverlapping(ctx, req.TenantID, req.BranchID, req.StaffID, start, end)
	if err != nil {
		return nil, apperrors.Internal("Failed to check holds", err)
	}
	if len(holds) > 0 {
		return &AvailabilityResult{Available: false, Reason: ReasonHeld}, nil
	}

	bookings, err := s.repo.FindConfirmedBookingsOverlapping(ctx, req.TenantID, req.BranchID, req.StaffID, start, end)
	if err != nil {
		return nil, apperrors.Internal("Failed to check bookings", err)
	}
	if len(bookings) > 0 {
		return &AvailabilityResult{Available: false, Reason: ReasonBooked}, nil
	}

	return &AvailabilityResult{Available: true}, nil
}

// enumerateSlots walks the tenant's opening hours at the configured
// interval, batch-fetches the day's active holds and confirmed bookings in
// one query each, and filters with the same overlap predicate the write
// side uses.
func (s *holdService) enumerateSlots(ctx context.Context, req *AvailabilityRequest, tenant *model.Tenant, day time.Time, loc *time.Location, durationMin int) (*AvailabilityResult, error) {
	openAt, closeAt, ok := s.openingWindow(tenant, day, loc)
	if !ok {
		return &AvailabilityResult{Available: false, Reason: ReasonClosed}, nil
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	holds, err := s.repo.FindActiveByDay(ctx, req.TenantID, req.BranchID, dayStart, dayEnd)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch holds for day", err)
	}
	bookings, err := s.repo.FindConfirmedBookingsByDay(ctx, req.TenantID, req.BranchID, dayStart, dayEnd)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch bookings for day", err)
	}

	interval := time.Duration(s.cfg.SlotIntervalMin) * time.Minute
	slotLen := time.Duration(durationMin) * time.Minute
	now := time.Now()

	var free []Slot
	for start := openAt; !start.Add(slotLen).After(closeAt); start = start.Add(interval) {
		if !start.After(now) {
			continue
		}
		end := start.Add(slotLen)
		if overlapsAnyHold(holds, req.StaffID, start, end) || overlapsAnyBooking(bookings, req.StaffID, start, end) {
			continue
		}
		free = append(free, Slot{Start: start, End: end})
	}

	return &AvailabilityResult{Available: len(free) > 0, Slots: free}, nil
}

// openingWindow resolves the tenant's open and close instants for the given
// day, falling back to the configured defaults when the tenant has no
// schedule for that weekday.
func (s *holdService) openingWindow(tenant *model.Tenant, day time.Time, loc *time.Location) (time.Time, time.Time, bool) {
	openStr, closeStr := s.cfg.DefaultStartOfDay, s.cfg.DefaultEndOfDay

	if len(tenant.OpeningHours) > 0 {
		weekday := strings.ToLower(day.Weekday().String())
		hours, found := tenant.OpeningHours[weekday]
		if !found || hours.Closed {
			return time.Time{}, time.Time{}, false
		}
		openStr, closeStr = hours.Open, hours.Close
	}

	open, err := time.Parse("15:04", openStr)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	closeClock, err := time.Parse("15:04", closeStr)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	openAt := time.Date(day.Year(), day.Month(), day.Day(), open.Hour(), open.Minute(), 0, 0, loc)
	closeAt := time.Date(day.Year(), day.Month(), day.Day(), closeClock.Hour(), closeClock.Minute(), 0, 0, loc)
	if !closeAt.After(openAt) {
		return time.Time{}, time.Time{}, false
	}
	return openAt, closeAt, true
}

func overlapsAnyHold(holds []*model.Hold, staffID string, start, end time.Time) bool {
	for _, h := range holds {
		if staffID != "" && h.StaffID != "" && h.StaffID != staffID {
			continue
		}
		if h.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func overlapsAnyBooking(bookings []*model.Booking, staffID string, start, end time.Time) bool {
	for _, b := range bookings {
		if staffID != "" && b.StaffID != "" && b.StaffID != staffID {
			continue
		}
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func (s *holdService) Convert(ctx context.Context, req *ConvertRequest) (*model.Booking, error) {
	hold, err := s.repo.FindByID(ctx, req.TenantID, req.HoldID)
	if err != nil {
		if errors.Is(err, holdserrors.ErrNotFound) {
			return nil, apperrors.Wrap(holdserrors.ErrNotFound, apperrors.CodeNotFound,
				"Hold not found", 404)
		}
		return nil, apperrors.Internal("Failed to load hold", err)
	}

	if err := s.checkConvertible(ctx, hold); err != nil {
		return nil, err
	}

	// Deposit gate: refuse without mutating, carrying the amount so the
	// caller can present a payment request. Stamped amount, not a fresh
	// trust evaluation.
	if hold.RequiresDeposit && !req.DepositConfirmed {
		return nil, &holdserrors.DepositRequiredError{Amount: hold.DepositAmount}
	}

	booking, err := s.bookings.CreateFromHold(ctx, hold, req.CustomerName, hold.RequiresDeposit && req.DepositConfirmed)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	converted, err := s.repo.MarkConverted(ctx, req.TenantID, hold.ID, booking.ID, now)
	if err != nil {
		return nil, apperrors.Internal("Failed to mark hold converted", err)
	}
	if !converted {
		// Another conversion won the race after our status check. Undo the
		// duplicate booking and report the truth.
		if _, cancelErr := s.bookings.CancelByConfirmationCode(ctx, req.TenantID, booking.ConfirmationCode, "duplicate conversion"); cancelErr != nil {
			s.cfg.Log.Error("Failed to cancel duplicate booking",
				"booking_id", booking.ID,
				"hold_id", hold.ID,
				"error", cancelErr,
			)
		}
		return nil, apperrors.Wrap(holdserrors.ErrAlreadyConverted, apperrors.CodeConflict,
			"Hold already converted", 409)
	}

	hold.Status = model.HoldStatusConverted
	hold.ConvertedAt = &now
	hold.BookingID = booking.ID

	referenceID := "hold-converted:" + hold.ID
	if _, adjErr := s.trust.AdjustScore(ctx, hold.TenantID, hold.CustomerPhone, referenceID, "hold converted to booking", ConvertTrustDelta); adjErr != nil {
		s.cfg.Log.Warn("Failed to apply conversion trust delta",
			"hold_id", hold.ID,
			"reference_id", referenceID,
			"error", adjErr,
		)
	}

	s.cfg.Log.Info("Hold converted",
		"hold_id", hold.ID,
		"booking_id", booking.ID,
		"tenant_id", hold.TenantID,
		"confirmation_code", booking.ConfirmationCode,
	)

	s.publish(ctx, "hold converted", func(ctx context.Context) error {
		return s.events.HoldConverted(ctx, hold, booking.ID)
	})
	s.publish(ctx, "booking confirmed", func(ctx context.Context) error {
		return s.events.BookingConfirmed(ctx, booking, ConvertTrustDelta, referenceID)
	})

	return booking, nil
}

// checkConvertible enforces the status machine with a status-specific
// message, applying lazy expiry when the clock has passed expires_at.
func (s *holdService) checkConvertible(ctx context.Context, hold *model.Hold) error {
	switch hold.Status {
	case model.HoldStatusConverted:
		return apperrors.Wrap(holdserrors.ErrAlreadyConverted, apperrors.CodeConflict,
			"Hold already converted", 409)
	case model.HoldStatusReleased:
		return apperrors.Wrap(holdserrors.ErrAlreadyReleased, apperrors.CodeConflict,
			"Hold already released", 409)
	case model.HoldStatusExpired:
		return apperrors.Wrap(holdserrors.ErrExpired, apperrors.CodeConflict,
			"Hold has expired", 409)
	}

	if !hold.ExpiresAt.After(time.Now().UTC()) {
		s.expireLazily(ctx, hold)
		return apperrors.Wrap(holdserrors.ErrExpired, apperrors.CodeConflict,
			"Hold has expired", 409)
	}
	return nil
}

// expireLazily persists the expired status observed by a read path. No
// background sweeper exists; this is the only way stored statuses catch up
// with the clock.
func (s *holdService) expireLazily(ctx context.Context, hold *model.Hold) {
	if err := s.repo.MarkExpired(ctx, hold.TenantID, hold.ID); err != nil {
		s.cfg.Log.Warn("Failed to persist lazy expiry", "hold_id", hold.ID, "error", err)
		return
	}
	hold.Status = model.HoldStatusExpired

	s.publish(ctx, "hold expired", func(ctx context.Context) error {
		return s.events.HoldExpired(ctx, hold)
	})
}

func (s *holdService) publish(ctx context.Context, what string, fn func(ctx context.Context) error) {
	if s.events == nil {
		return
	}
	if err := fn(ctx); err != nil {
		s.cfg.Log.Warn("Failed to publish event", "event", what, "error", err)
	}
}
