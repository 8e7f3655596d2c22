package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	bookingsservice "habla/internal/bookings/service"
	holdsservice "habla/internal/holds/service"
	"habla/internal/tenants"
	"habla/internal/tools/catalog"
	trustservice "habla/internal/trust/service"
	"habla/pkg/config"
	"habla/pkg/locale"
	"habla/pkg/model"
	"habla/pkg/sanitizer"
)

// Tool categories, surfaced in the catalog listing.
const (
	CategoryAvailability = "availability"
	CategoryBooking      = "booking"
	CategoryInfo         = "info"
	CategoryHandoff      = "handoff"
)

// Refusal codes specific to the booking tools. The executor-level codes
// (invalid params, timeout) are defined alongside the executor.
const (
	CodeSlotHeld        = "SLOT_HELD"
	CodeSlotBooked      = "SLOT_BOOKED"
	CodeSlotInPast      = "SLOT_IN_PAST"
	CodeCustomerBlocked = "CUSTOMER_BLOCKED"
	CodeDepositRequired = "DEPOSIT_REQUIRED"
	CodeHoldNotFound    = "HOLD_NOT_FOUND"
	CodeHoldExpired     = "HOLD_EXPIRED"
	CodeHoldFinal       = "HOLD_FINAL"
	CodeBookingNotFound = "BOOKING_NOT_FOUND"
	CodeClosed          = "CLOSED"
)

// BookingEventPublisher emits the cancellation event the trust worker
// consumes. Publishing is best-effort.
type BookingEventPublisher interface {
	BookingCancelled(ctx context.Context, booking *model.Booking, trustDelta int, referenceID string) error
}

// Services bundles the domain dependencies the tool handlers close over.
type Services struct {
	Holds    holdsservice.HoldService
	Bookings bookingsservice.BookingService
	Trust    trustservice.TrustService
	Tenants  tenants.Repository
	Events   BookingEventPublisher
	Cfg      *config.Config
}

// RegisterAll installs every assistant tool into the catalog. Called once at
// startup from the composition root.
func RegisterAll(cat *catalog.Catalog, s *Services) error {
	definitions := []*catalog.Definition{
		checkAvailabilityTool(s),
		createHoldTool(s),
		convertHoldTool(s),
		releaseHoldTool(s),
		createBookingTool(s),
		cancelBookingTool(s),
		openingHoursTool(s),
		transferToHumanTool(s),
	}
	for _, def := range definitions {
		if err := cat.Register(def); err != nil {
			return fmt.Errorf("failed to register tool %q: %w", def.Name, err)
		}
	}
	return nil
}

// msg picks the Spanish or English variant for the call's locale.
func msg(loc, es, en string) string {
	if loc == locale.LocaleEnglish {
		return en
	}
	return es
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// intParam reads a numeric parameter. JSON numbers decode as float64.
func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// phoneKey normalizes a raw spoken phone number into the digits-only
// partition key. Numbers that fail strict normalization keep their digits so
// a garbled caller id still gets a stable key.
func phoneKey(raw string) string {
	if key, err := sanitizer.NormalizePhoneKey(raw); err == nil {
		return key
	}
	return sanitizer.PhoneKey(raw)
}

func boolParam(params map[string]any, key string) bool {
	v, _ := params[key].(bool)
	return v
}

// slotTime combines the date and time parameters into an instant in the
// tenant's local timezone.
func slotTime(date, clock, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
}
