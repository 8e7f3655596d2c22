package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	bookingserrors "habla/internal/bookings/errors"
	holdserrors "habla/internal/holds/errors"
	holdsservice "habla/internal/holds/service"
	"habla/internal/tools/catalog"
	"habla/internal/tools/core"
	trustservice "habla/internal/trust/service"
	"habla/pkg/config"
	apperrors "habla/pkg/errors"
	"habla/pkg/logger"
	"habla/pkg/model"
)

type mockHolds struct {
	createResult *holdsservice.CreateResult
	createErr    error
	lastCreate   *holdsservice.CreateRequest

	releaseResult *holdsservice.ReleaseResult
	releaseErr    error

	availability    *holdsservice.AvailabilityResult
	availabilityErr error

	convertBooking *model.Booking
	convertErr     error
}

func (m *mockHolds) Create(ctx context.Context, req *holdsservice.CreateRequest) (*holdsservice.CreateResult, error) {
	m.lastCreate = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createResult, nil
}

func (m *mockHolds) Release(ctx context.Context, tenantID, holdID, reason string) (*holdsservice.ReleaseResult, error) {
	if m.releaseErr != nil {
		return nil, m.releaseErr
	}
	return m.releaseResult, nil
}

func (m *mockHolds) CheckAvailability(ctx context.Context, req *holdsservice.AvailabilityRequest) (*holdsservice.AvailabilityResult, error) {
	if m.availabilityErr != nil {
		return nil, m.availabilityErr
	}
	return m.availability, nil
}

func (m *mockHolds) Convert(ctx context.Context, req *holdsservice.ConvertRequest) (*model.Booking, error) {
	if m.convertErr != nil {
		return nil, m.convertErr
	}
	return m.convertBooking, nil
}

type mockBookings struct {
	cancelBooking *model.Booking
	cancelErr     error
	created       *model.Booking
}

func (m *mockBookings) CreateFromHold(ctx context.Context, hold *model.Hold, customerName string, depositPaid bool) (*model.Booking, error) {
	return nil, nil
}

func (m *mockBookings) CreateDirect(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	booking.ID = "booking-1"
	booking.ConfirmationCode = "A7XK2Q"
	m.created = booking
	return booking, nil
}

func (m *mockBookings) GetByConfirmationCode(ctx context.Context, tenantID, code string) (*model.Booking, error) {
	return nil, nil
}

func (m *mockBookings) CancelByConfirmationCode(ctx context.Context, tenantID, code, reason string) (*model.Booking, error) {
	if m.cancelErr != nil {
		return nil, m.cancelErr
	}
	return m.cancelBooking, nil
}

type mockTrust struct {
	eval *trustservice.Evaluation
}

func (m *mockTrust) Evaluate(ctx context.Context, tenantID, vertical, phone, leadID string) *trustservice.Evaluation {
	if m.eval != nil {
		return m.eval
	}
	return &trustservice.Evaluation{Score: 85, Level: trustservice.LevelTrusted, Action: trustservice.ActionProceed}
}

func (m *mockTrust) AdjustScore(ctx context.Context, tenantID, phone, referenceID, reason string, delta int) (bool, error) {
	return true, nil
}

type mockTenants struct {
	tenant *model.Tenant
}

func (m *mockTenants) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	return m.tenant, nil
}

type mockPublisher struct {
	deltas []int
	refs   []string
}

func (m *mockPublisher) BookingCancelled(ctx context.Context, booking *model.Booking, trustDelta int, referenceID string) error {
	m.deltas = append(m.deltas, trustDelta)
	m.refs = append(m.refs, referenceID)
	return nil
}

func newServices() (*Services, *mockHolds, *mockBookings, *mockPublisher) {
	holds := &mockHolds{}
	bookings := &mockBookings{}
	publisher := &mockPublisher{}
	s := &Services{
		Holds:    holds,
		Bookings: bookings,
		Trust:    &mockTrust{},
		Tenants: &mockTenants{tenant: &model.Tenant{
			ID:            "tenant-1",
			AssistantType: model.AssistantTypeDental,
			Vertical:      "dental",
			Timezone:      "Europe/Madrid",
		}},
		Events: publisher,
		Cfg: &config.Config{
			Log:                 logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Service: "test"}),
			DefaultSlotDuration: 30,
		},
	}
	return s, holds, bookings, publisher
}

func execContext(loc string) *core.ExecutionContext {
	return core.NewExecutionContext("tenant-1", "call-1", model.AssistantTypeDental, loc)
}

func TestRegisterAll(t *testing.T) {
	s, _, _, _ := newServices()
	cat := catalog.New(s.Cfg.Log)

	if err := RegisterAll(cat, s); err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}

	want := []string{
		"cancel_booking", "check_availability", "convert_hold", "create_booking",
		"create_hold", "get_opening_hours", "release_hold", "transfer_to_human",
	}
	names := cat.ListNames()
	if len(names) != len(want) {
		t.Fatalf("registered %d tools, want %d: %v", len(names), len(want), names)
	}
	for _, name := range want {
		if cat.Get(name) == nil {
			t.Errorf("tool %q not registered", name)
		}
	}

	// Every tool is wildcard-enabled.
	enabled := cat.GetForAssistantType(model.AssistantTypeRestaurant)
	if len(enabled) != len(want) {
		t.Errorf("restaurant sees %d tools, want %d", len(enabled), len(want))
	}
}

func TestCheckAvailability_SpeaksOpenSlots(t *testing.T) {
	s, holds, _, _ := newServices()
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	holds.availability = &holdsservice.AvailabilityResult{
		Available: true,
		Slots: []holdsservice.Slot{
			{Start: start, End: start.Add(30 * time.Minute)},
			{Start: start.Add(30 * time.Minute), End: start.Add(60 * time.Minute)},
			{Start: start.Add(60 * time.Minute), End: start.Add(90 * time.Minute)},
			{Start: start.Add(90 * time.Minute), End: start.Add(120 * time.Minute)},
		},
	}

	def := checkAvailabilityTool(s)
	result, err := def.Handler(context.Background(), map[string]any{"date": "2026-09-07"}, execContext("es"))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false: %+v", result)
	}
	if !strings.Contains(result.VoiceMessage, "10:00 de la mañana") {
		t.Errorf("VoiceMessage = %q, want first slot spoken", result.VoiceMessage)
	}
	// Only three alternatives are spoken even when more exist.
	if strings.Contains(result.VoiceMessage, "11:30") {
		t.Errorf("VoiceMessage = %q, fourth slot should not be spoken", result.VoiceMessage)
	}
	if len(result.Data["slots"].([]holdsservice.Slot)) != 4 {
		t.Error("full slot list should travel in the data payload")
	}
}

func TestCheckAvailability_ClosedDay(t *testing.T) {
	s, holds, _, _ := newServices()
	holds.availability = &holdsservice.AvailabilityResult{Available: false, Reason: holdsservice.ReasonClosed}

	def := checkAvailabilityTool(s)
	result, err := def.Handler(context.Background(), map[string]any{"date": "2026-09-07"}, execContext("es"))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !strings.Contains(result.VoiceMessage, "cerrados") {
		t.Errorf("VoiceMessage = %q, want closed-day phrasing", result.VoiceMessage)
	}
}

func TestCreateHold_SpeaksDepositRequirement(t *testing.T) {
	s, holds, _, _ := newServices()
	start := time.Date(2026, 9, 7, 16, 0, 0, 0, time.UTC)
	holds.createResult = &holdsservice.CreateResult{
		Hold: &model.Hold{
			ID:        "hold-1",
			SlotStart: start,
			SlotEnd:   start.Add(30 * time.Minute),
		},
		ExpiresInMinutes: 15,
		RequiresDeposit:  true,
		DepositAmount:    20,
	}

	def := createHoldTool(s)
	params := map[string]any{
		"date":           "2026-09-07",
		"time":           "16:00",
		"customer_phone": "+34612345678",
	}
	result, err := def.Handler(context.Background(), params, execContext("es"))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false: %+v", result)
	}
	if !strings.Contains(result.VoiceMessage, "15 minutos") {
		t.Errorf("VoiceMessage = %q, want hold window spoken", result.VoiceMessage)
	}
	if !strings.Contains(result.VoiceMessage, "20 euros") {
		t.Errorf("VoiceMessage = %q, want deposit amount spoken", result.VoiceMessage)
	}
	if result.Data["hold_id"] != "hold-1" {
		t.Errorf("Data[hold_id] = %v, want hold-1", result.Data["hold_id"])
	}
	if holds.lastCreate.CustomerPhone != "34612345678" {
		t.Errorf("CustomerPhone = %q, want digits-only key", holds.lastCreate.CustomerPhone)
	}
	if holds.lastCreate.HoldType != model.HoldTypeAppointment {
		t.Errorf("HoldType = %q, want appointment default", holds.lastCreate.HoldType)
	}
}

func TestCreateHold_SlotHeldRefusal(t *testing.T) {
	s, holds, _, _ := newServices()
	holds.createErr = apperrors.Wrap(holdserrors.ErrSlotHeld, apperrors.CodeConflict, "Slot already held", 409)

	def := createHoldTool(s)
	params := map[string]any{
		"date":           "2026-09-07",
		"time":           "16:00",
		"customer_phone": "+34612345678",
	}
	result, err := def.Handler(context.Background(), params, execContext("es"))
	if err != nil {
		t.Fatalf("handler error = %v, refusals must not propagate", err)
	}
	if result.Success {
		t.Fatal("Success = true, want refusal")
	}
	if result.ErrorCode != CodeSlotHeld {
		t.Errorf("ErrorCode = %q, want %q", result.ErrorCode, CodeSlotHeld)
	}
	if result.VoiceMessage == "" {
		t.Error("refusal must carry a spoken message")
	}
}

func TestConvertHold_DepositGate(t *testing.T) {
	s, holds, _, _ := newServices()
	holds.convertErr = &holdserrors.DepositRequiredError{Amount: 20}

	def := convertHoldTool(s)
	result, err := def.Handler(context.Background(), map[string]any{"hold_id": "hold-1"}, execContext("es"))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result.Success || result.ErrorCode != CodeDepositRequired {
		t.Fatalf("result = %+v, want DEPOSIT_REQUIRED refusal", result)
	}
	if !strings.Contains(result.VoiceMessage, "20 euros") {
		t.Errorf("VoiceMessage = %q, want deposit amount spoken", result.VoiceMessage)
	}
}

func TestConvertHold_SpellsConfirmationCode(t *testing.T) {
	s, holds, _, _ := newServices()
	holds.convertBooking = &model.Booking{
		ID:               "booking-1",
		ConfirmationCode: "A7XK2Q",
		StartTime:        time.Date(2026, 9, 7, 16, 0, 0, 0, time.UTC),
	}

	def := convertHoldTool(s)
	result, err := def.Handler(context.Background(), map[string]any{"hold_id": "hold-1"}, execContext("en"))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !strings.Contains(result.VoiceMessage, "A, 7, X, K, 2, Q") {
		t.Errorf("VoiceMessage = %q, want spelled code", result.VoiceMessage)
	}
}

func TestReleaseHold_NoOpSpeaksTruth(t *testing.T) {
	s, holds, _, _ := newServices()
	holds.releaseResult = &holdsservice.ReleaseResult{Released: false, PriorStatus: model.HoldStatusExpired}

	def := releaseHoldTool(s)
	result, err := def.Handler(context.Background(), map[string]any{"hold_id": "hold-1"}, execContext("es"))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !result.Success {
		t.Fatal("no-op release is still a successful outcome")
	}
	if result.Data["released"] != false || result.Data["prior_status"] != model.HoldStatusExpired {
		t.Errorf("Data = %v, want released=false prior_status=expired", result.Data)
	}
	if !strings.Contains(result.VoiceMessage, "ya no estaba activa") {
		t.Errorf("VoiceMessage = %q, want no-op phrasing", result.VoiceMessage)
	}
}

func TestCreateBooking_BlockedCustomer(t *testing.T) {
	s, _, _, _ := newServices()
	s.Trust = &mockTrust{eval: &trustservice.Evaluation{
		Score:     10,
		Level:     trustservice.LevelBlocked,
		Action:    trustservice.ActionBlocked,
		IsBlocked: true,
	}}

	def := createBookingTool(s)
	params := map[string]any{
		"date":           "2099-01-04",
		"time":           "12:00",
		"customer_phone": "+34612345678",
		"customer_name":  "Maria Garcia",
	}
	result, err := def.Handler(context.Background(), params, execContext("es"))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result.Success || result.ErrorCode != CodeCustomerBlocked {
		t.Fatalf("result = %+v, want CUSTOMER_BLOCKED refusal", result)
	}
	if !result.ForwardToPlatform {
		t.Error("blocked customer should be forwarded to the platform")
	}
}

func TestCreateBooking_StampsTrustScore(t *testing.T) {
	s, _, bookings, _ := newServices()

	def := createBookingTool(s)
	params := map[string]any{
		"date":           "2099-01-04",
		"time":           "12:00",
		"customer_phone": "+34612345678",
		"customer_name":  "Maria Garcia",
	}
	result, err := def.Handler(context.Background(), params, execContext("en"))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if bookings.created.TrustScore != 85 {
		t.Errorf("TrustScore = %d, want 85 from evaluation", bookings.created.TrustScore)
	}
	if bookings.created.EndTime.Sub(bookings.created.StartTime) != 30*time.Minute {
		t.Errorf("duration = %v, want default 30m", bookings.created.EndTime.Sub(bookings.created.StartTime))
	}
}

func TestCancelBooking_PublishesTrustDelta(t *testing.T) {
	s, _, bookings, publisher := newServices()
	bookings.cancelBooking = &model.Booking{ID: "booking-1", Status: model.BookingStatusCancelled}

	def := cancelBookingTool(s)
	result, err := def.Handler(context.Background(), map[string]any{"confirmation_code": "A7XK2Q"}, execContext("es"))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if len(publisher.deltas) != 1 || publisher.deltas[0] != CancelTrustDelta {
		t.Errorf("published deltas = %v, want [%d]", publisher.deltas, CancelTrustDelta)
	}
	if publisher.refs[0] != "booking-cancelled:booking-1" {
		t.Errorf("reference = %q, want booking-cancelled:booking-1", publisher.refs[0])
	}
}

func TestCancelBooking_NotFound(t *testing.T) {
	s, _, bookings, _ := newServices()
	bookings.cancelErr = apperrors.Wrap(bookingserrors.ErrNotFound, apperrors.CodeNotFound, "Booking not found", 404)

	def := cancelBookingTool(s)
	result, err := def.Handler(context.Background(), map[string]any{"confirmation_code": "A7XK2Q"}, execContext("en"))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result.Success || result.ErrorCode != CodeBookingNotFound {
		t.Fatalf("result = %+v, want BOOKING_NOT_FOUND refusal", result)
	}
}

func TestTransferToHuman(t *testing.T) {
	s, _, _, _ := newServices()

	def := transferToHumanTool(s)
	result, err := def.Handler(context.Background(), map[string]any{"reason": "billing question"}, execContext("es"))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !result.ForwardToPlatform {
		t.Error("ForwardToPlatform = false, want true")
	}
	if result.VoiceMessage == "" {
		t.Error("handoff must announce itself")
	}
}

func TestCancelBooking_ConfirmationQuestion(t *testing.T) {
	s, _, _, _ := newServices()

	def := cancelBookingTool(s)
	if !def.RequiresConfirmation {
		t.Fatal("cancel_booking must require confirmation")
	}
	question := def.ConfirmationGenerator(map[string]any{"confirmation_code": "A7XK2Q"}, "es")
	if !strings.Contains(question, "A, 7, X, K, 2, Q") {
		t.Errorf("question = %q, want spelled code", question)
	}
}
