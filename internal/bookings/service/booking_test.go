package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	bookingserrors "habla/internal/bookings/errors"
	"habla/internal/bookings/validator"
	holdserrors "habla/internal/holds/errors"
	"habla/pkg/config"
	"habla/pkg/confirmcode"
	mongotx "habla/pkg/db/mongo"
	apperrors "habla/pkg/errors"
	"habla/pkg/logger"
	"habla/pkg/model"
)

type mockBookingRepository struct {
	bookings      map[string]*model.Booking
	createErrs    []error
	createCalls   int
	cancelResult  bool
	cancelErr     error
	cancelledIDs  []string
	findByCodeErr error
}

func newMockBookingRepository() *mockBookingRepository {
	return &mockBookingRepository{bookings: make(map[string]*model.Booking)}
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	m.createCalls++
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	copied := *booking
	m.bookings[booking.ID] = &copied
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Booking, error) {
	if b, ok := m.bookings[id]; ok && b.TenantID == tenantID {
		return b, nil
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindByConfirmationCode(ctx context.Context, tenantID, code string) (*model.Booking, error) {
	if m.findByCodeErr != nil {
		return nil, m.findByCodeErr
	}
	for _, b := range m.bookings {
		if b.TenantID == tenantID && b.ConfirmationCode == code {
			return b, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindByPhone(ctx context.Context, tenantID, phone string, limit int) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.TenantID == tenantID && b.CustomerPhone == phone {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepository) Cancel(ctx context.Context, tenantID, id, reason string, at time.Time) (bool, error) {
	if m.cancelErr != nil {
		return false, m.cancelErr
	}
	b, ok := m.bookings[id]
	if !ok || b.Status != model.BookingStatusConfirmed || !m.cancelResult {
		return false, nil
	}
	b.Status = model.BookingStatusCancelled
	b.CancelReason = reason
	m.cancelledIDs = append(m.cancelledIDs, id)
	return true, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockConflictRepository struct {
	holds    []*model.Hold
	bookings []*model.Booking
}

func (m *mockConflictRepository) FindActiveOverlapping(ctx context.Context, tenantID, branchID, staffID string, start, end time.Time) ([]*model.Hold, error) {
	var out []*model.Hold
	for _, h := range m.holds {
		if h.SlotStart.Before(end) && h.SlotEnd.After(start) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockConflictRepository) FindConfirmedBookingsOverlapping(ctx context.Context, tenantID, branchID, staffID string, start, end time.Time) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.StartTime.Before(end) && b.EndTime.After(start) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockConflictRepository) Create(ctx context.Context, hold *model.Hold) error { return nil }
func (m *mockConflictRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Hold, error) {
	return nil, holdserrors.ErrNotFound
}
func (m *mockConflictRepository) FindActiveByDay(ctx context.Context, tenantID, branchID string, dayStart, dayEnd time.Time) ([]*model.Hold, error) {
	return nil, nil
}
func (m *mockConflictRepository) FindConfirmedBookingsByDay(ctx context.Context, tenantID, branchID string, dayStart, dayEnd time.Time) ([]*model.Booking, error) {
	return nil, nil
}
func (m *mockConflictRepository) MarkExpired(ctx context.Context, tenantID, id string) error {
	return nil
}
func (m *mockConflictRepository) Release(ctx context.Context, tenantID, id, reason string, at time.Time) (bool, error) {
	return false, nil
}
func (m *mockConflictRepository) MarkConverted(ctx context.Context, tenantID, id, bookingID string, at time.Time) (bool, error) {
	return false, nil
}
func (m *mockConflictRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func bookingTestConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Service: "test"}),
	}
}

func validBooking(start time.Time) *model.Booking {
	return &model.Booking{
		TenantID:      "tenant-1",
		BookingType:   model.BookingTypeAppointment,
		CustomerPhone: "34612345678",
		CustomerName:  "Maria Garcia",
		Vertical:      "dental",
		StartTime:     start,
		EndTime:       start.Add(30 * time.Minute),
	}
}

func TestCreateFromHold_CarriesHoldSnapshot(t *testing.T) {
	repo := newMockBookingRepository()
	svc := NewBookingService(repo, &mockConflictRepository{}, validator.NewBookingValidator(), bookingTestConfig())

	start := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Minute)
	hold := &model.Hold{
		ID:            "hold-1",
		TenantID:      "tenant-1",
		BranchID:      "branch-1",
		HoldType:      model.BookingTypeReservation,
		CustomerPhone: "34612345678",
		Vertical:      "restaurant",
		SlotStart:     start,
		SlotEnd:       start.Add(30 * time.Minute),
		TrustScore:    65,
		DepositAmount: 20,
		Metadata:      map[string]string{"customer_name": "Luis Romero"},
	}

	booking, err := svc.CreateFromHold(context.Background(), hold, "", true)
	if err != nil {
		t.Fatalf("CreateFromHold returned error: %v", err)
	}
	if booking.HoldID != "hold-1" {
		t.Errorf("expected hold link, got %q", booking.HoldID)
	}
	if booking.TrustScore != 65 {
		t.Errorf("expected trust score 65 from the hold, got %d", booking.TrustScore)
	}
	if booking.DepositAmount != 20 || !booking.DepositPaid {
		t.Errorf("expected deposit snapshot carried over, got amount=%v paid=%v", booking.DepositAmount, booking.DepositPaid)
	}
	if booking.CustomerName != "Luis Romero" {
		t.Errorf("expected customer name from hold metadata, got %q", booking.CustomerName)
	}
	if booking.Status != model.BookingStatusConfirmed {
		t.Errorf("expected confirmed status, got %q", booking.Status)
	}
	if !strings.HasPrefix(booking.ConfirmationCode, confirmcode.PrefixReservation) {
		t.Errorf("expected reservation code prefix, got %q", booking.ConfirmationCode)
	}
	if len(booking.ConfirmationCode) != len(confirmcode.PrefixReservation)+confirmcode.DefaultLength {
		t.Errorf("unexpected code length: %q", booking.ConfirmationCode)
	}
}

func TestCreateDirect_RefusesHeldSlot(t *testing.T) {
	start := time.Now().UTC().Add(2 * time.Hour)
	conflicts := &mockConflictRepository{
		holds: []*model.Hold{{
			ID:        "hold-1",
			SlotStart: start,
			SlotEnd:   start.Add(30 * time.Minute),
			Status:    model.HoldStatusActive,
		}},
	}
	svc := NewBookingService(newMockBookingRepository(), conflicts, validator.NewBookingValidator(), bookingTestConfig())

	_, err := svc.CreateDirect(context.Background(), validBooking(start))
	if !errors.Is(err, holdserrors.ErrSlotHeld) {
		t.Fatalf("expected ErrSlotHeld, got %v", err)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 409 {
		t.Errorf("expected 409 conflict, got %+v", err)
	}
}

func TestCreateDirect_RefusesBookedSlot(t *testing.T) {
	start := time.Now().UTC().Add(2 * time.Hour)
	conflicts := &mockConflictRepository{
		bookings: []*model.Booking{{
			ID:        "booking-1",
			StartTime: start,
			EndTime:   start.Add(30 * time.Minute),
			Status:    model.BookingStatusConfirmed,
		}},
	}
	svc := NewBookingService(newMockBookingRepository(), conflicts, validator.NewBookingValidator(), bookingTestConfig())

	_, err := svc.CreateDirect(context.Background(), validBooking(start))
	if !errors.Is(err, holdserrors.ErrSlotBooked) {
		t.Fatalf("expected ErrSlotBooked, got %v", err)
	}
}

func TestCreateDirect_AdjacentSlotIsFree(t *testing.T) {
	start := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Minute)
	conflicts := &mockConflictRepository{
		holds: []*model.Hold{{
			ID:        "hold-1",
			SlotStart: start.Add(-30 * time.Minute),
			SlotEnd:   start,
			Status:    model.HoldStatusActive,
		}},
	}
	svc := NewBookingService(newMockBookingRepository(), conflicts, validator.NewBookingValidator(), bookingTestConfig())

	booking, err := svc.CreateDirect(context.Background(), validBooking(start))
	if err != nil {
		t.Fatalf("adjacent slot should be free, got %v", err)
	}
	if booking.ConfirmationCode == "" {
		t.Error("expected a confirmation code to be stamped")
	}
}

func TestCreateDirect_RedrawsOnCodeCollision(t *testing.T) {
	repo := newMockBookingRepository()
	repo.createErrs = []error{bookingserrors.ErrDuplicateCode}
	svc := NewBookingService(repo, &mockConflictRepository{}, validator.NewBookingValidator(), bookingTestConfig())

	start := time.Now().UTC().Add(2 * time.Hour)
	booking, err := svc.CreateDirect(context.Background(), validBooking(start))
	if err != nil {
		t.Fatalf("expected redraw to succeed, got %v", err)
	}
	if repo.createCalls != 2 {
		t.Errorf("expected 2 create attempts, got %d", repo.createCalls)
	}
	if booking.ConfirmationCode == "" {
		t.Error("expected a confirmation code after redraw")
	}
}

func TestCreateDirect_ValidationFailure(t *testing.T) {
	svc := NewBookingService(newMockBookingRepository(), &mockConflictRepository{}, validator.NewBookingValidator(), bookingTestConfig())

	start := time.Now().UTC().Add(2 * time.Hour)
	booking := validBooking(start)
	booking.CustomerPhone = "not a phone"

	_, err := svc.CreateDirect(context.Background(), booking)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected validation code, got %+v", err)
	}
}

func TestCancelByConfirmationCode_Success(t *testing.T) {
	repo := newMockBookingRepository()
	repo.cancelResult = true
	svc := NewBookingService(repo, &mockConflictRepository{}, validator.NewBookingValidator(), bookingTestConfig())

	start := time.Now().UTC().Add(2 * time.Hour)
	created, err := svc.CreateDirect(context.Background(), validBooking(start))
	if err != nil {
		t.Fatalf("setup create failed: %v", err)
	}

	cancelled, err := svc.CancelByConfirmationCode(context.Background(), "tenant-1", created.ConfirmationCode, "customer asked")
	if err != nil {
		t.Fatalf("cancel returned error: %v", err)
	}
	if cancelled.Status != model.BookingStatusCancelled {
		t.Errorf("expected cancelled status, got %q", cancelled.Status)
	}
	if cancelled.CancelReason != "customer asked" {
		t.Errorf("expected cancel reason recorded, got %q", cancelled.CancelReason)
	}
	if cancelled.CancelledAt == nil {
		t.Error("expected cancelled_at to be set")
	}
}

func TestCancelByConfirmationCode_AlreadyCancelled(t *testing.T) {
	repo := newMockBookingRepository()
	repo.cancelResult = true
	svc := NewBookingService(repo, &mockConflictRepository{}, validator.NewBookingValidator(), bookingTestConfig())

	start := time.Now().UTC().Add(2 * time.Hour)
	created, err := svc.CreateDirect(context.Background(), validBooking(start))
	if err != nil {
		t.Fatalf("setup create failed: %v", err)
	}
	if _, err := svc.CancelByConfirmationCode(context.Background(), "tenant-1", created.ConfirmationCode, "first"); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}

	_, err = svc.CancelByConfirmationCode(context.Background(), "tenant-1", created.ConfirmationCode, "second")
	if !errors.Is(err, bookingserrors.ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
}

func TestCancelByConfirmationCode_LostRaceReportsAlreadyCancelled(t *testing.T) {
	repo := newMockBookingRepository()
	repo.cancelResult = false
	svc := NewBookingService(repo, &mockConflictRepository{}, validator.NewBookingValidator(), bookingTestConfig())

	start := time.Now().UTC().Add(2 * time.Hour)
	created, err := svc.CreateDirect(context.Background(), validBooking(start))
	if err != nil {
		t.Fatalf("setup create failed: %v", err)
	}

	_, err = svc.CancelByConfirmationCode(context.Background(), "tenant-1", created.ConfirmationCode, "race")
	if !errors.Is(err, bookingserrors.ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled on guarded update miss, got %v", err)
	}
}

func TestGetByConfirmationCode_NotFound(t *testing.T) {
	svc := NewBookingService(newMockBookingRepository(), &mockConflictRepository{}, validator.NewBookingValidator(), bookingTestConfig())

	_, err := svc.GetByConfirmationCode(context.Background(), "tenant-1", "A-XXXXXX")
	if !errors.Is(err, bookingserrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 404 {
		t.Errorf("expected 404, got %+v", err)
	}
}

func TestGetByConfirmationCode_EmptyCode(t *testing.T) {
	svc := NewBookingService(newMockBookingRepository(), &mockConflictRepository{}, validator.NewBookingValidator(), bookingTestConfig())

	_, err := svc.GetByConfirmationCode(context.Background(), "tenant-1", "")
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}
