package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "habla/internal/bookings/errors"
	holdserrors "habla/internal/holds/errors"
	"habla/internal/tools/catalog"
	"habla/internal/tools/core"
	trustservice "habla/internal/trust/service"
	"habla/pkg/model"
	"habla/pkg/sanitizer"
	"habla/pkg/voice"
)

// CancelTrustDelta is carried on the cancellation event and applied by the
// trust worker, keyed by the booking id.
const CancelTrustDelta = -2

const CodeAlreadyCancelled = "ALREADY_CANCELLED"

func createBookingTool(s *Services) *catalog.Definition {
	return &catalog.Definition{
		Name:        "create_booking",
		Category:    CategoryBooking,
		Description: "Book a time slot directly, without a prior hold",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date": map[string]any{
					"type":    "string",
					"pattern": `^\d{4}-\d{2}-\d{2}$`,
				},
				"time": map[string]any{
					"type":    "string",
					"pattern": `^\d{2}:\d{2}$`,
				},
				"customer_phone": map[string]any{
					"type":      "string",
					"minLength": 6,
				},
				"customer_name": map[string]any{
					"type":      "string",
					"minLength": 2,
					"maxLength": 100,
				},
				"duration_minutes": map[string]any{
					"type":    "integer",
					"minimum": 5,
					"maximum": 480,
				},
				"booking_type": map[string]any{
					"type": "string",
					"enum": []string{model.BookingTypeAppointment, model.BookingTypeReservation, model.BookingTypeOrder},
				},
				"party_size": map[string]any{
					"type":    "integer",
					"minimum": 1,
					"maximum": 200,
				},
				"service_id": map[string]any{"type": "string"},
				"staff_id":   map[string]any{"type": "string"},
			},
			"required":             []string{"date", "time", "customer_phone", "customer_name"},
			"additionalProperties": false,
		},
		EnabledFor:           []string{catalog.Wildcard},
		RequiresConfirmation: true,
		ConfirmationGenerator: func(params map[string]any, loc string) string {
			date, _ := params["date"].(string)
			clock, _ := params["time"].(string)
			return msg(loc,
				fmt.Sprintf("¿Confirmo la reserva para el %s a las %s?", date, clock),
				fmt.Sprintf("Shall I confirm the booking for %s at %s?", date, clock),
			)
		},
		Handler: func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
			tenant, err := s.Tenants.FindByID(ctx, ec.TenantID)
			if err != nil {
				return nil, err
			}

			start, err := slotTime(stringParam(params, "date"), stringParam(params, "time"), tenant.Timezone)
			if err != nil {
				return core.Refuse(core.CodeInvalidParams, "invalid date or time",
					msg(ec.Locale, "No he entendido la fecha y hora.", "I did not catch the date and time."),
				), nil
			}
			if !start.After(time.Now()) {
				refusal, _ := refuseHoldError(holdserrors.ErrSlotInPast, ec.Locale)
				return refusal, nil
			}

			phone := phoneKey(stringParam(params, "customer_phone"))
			eval := s.Trust.Evaluate(ctx, ec.TenantID, tenant.Vertical, phone, entityString(ec, "lead_id"))
			if eval.Action == trustservice.ActionBlocked {
				refusal, _ := refuseHoldError(holdserrors.ErrCustomerBlocked, ec.Locale)
				return refusal, nil
			}

			duration := intParam(params, "duration_minutes")
			if duration <= 0 {
				duration = s.Cfg.DefaultSlotDuration
			}

			bookingType := stringParam(params, "booking_type")
			if bookingType == "" {
				bookingType = defaultHoldType(tenant.AssistantType)
			}

			booking := &model.Booking{
				TenantID:      ec.TenantID,
				BranchID:      ec.BranchID,
				BookingType:   bookingType,
				CustomerPhone: phone,
				CustomerName:  sanitizer.NormalizeName(stringParam(params, "customer_name")),
				LeadID:        entityString(ec, "lead_id"),
				ServiceID:     stringParam(params, "service_id"),
				StaffID:       stringParam(params, "staff_id"),
				Vertical:      tenant.Vertical,
				StartTime:     start,
				EndTime:       start.Add(time.Duration(duration) * time.Minute),
				PartySize:     intParam(params, "party_size"),
				TrustScore:    eval.Score,
			}

			created, err := s.Bookings.CreateDirect(ctx, booking)
			if err != nil {
				if refusal, ok := refuseHoldError(err, ec.Locale); ok {
					return refusal, nil
				}
				return nil, err
			}

			return core.Succeed(msg(ec.Locale,
				fmt.Sprintf("¡Perfecto! Tu reserva para el %s está confirmada. Tu código de confirmación es %s.",
					voice.DateTime(created.StartTime, ec.Locale),
					voice.ConfirmationCode(created.ConfirmationCode)),
				fmt.Sprintf("Great! Your booking for %s is confirmed. Your confirmation code is %s.",
					voice.DateTime(created.StartTime, ec.Locale),
					voice.ConfirmationCode(created.ConfirmationCode)),
			), map[string]any{
				"booking_id":        created.ID,
				"confirmation_code": created.ConfirmationCode,
				"start_time":        created.StartTime,
			}), nil
		},
	}
}

func cancelBookingTool(s *Services) *catalog.Definition {
	return &catalog.Definition{
		Name:        "cancel_booking",
		Category:    CategoryBooking,
		Description: "Cancel an existing booking by its confirmation code",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"confirmation_code": map[string]any{
					"type":      "string",
					"minLength": 4,
					"maxLength": 12,
				},
				"reason": map[string]any{
					"type":      "string",
					"maxLength": 200,
				},
			},
			"required":             []string{"confirmation_code"},
			"additionalProperties": false,
		},
		EnabledFor:           []string{catalog.Wildcard},
		RequiresConfirmation: true,
		ConfirmationGenerator: func(params map[string]any, loc string) string {
			code, _ := params["confirmation_code"].(string)
			return msg(loc,
				fmt.Sprintf("¿Seguro que quieres cancelar la reserva %s?", voice.ConfirmationCode(code)),
				fmt.Sprintf("Are you sure you want to cancel booking %s?", voice.ConfirmationCode(code)),
			)
		},
		Handler: func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
			code := stringParam(params, "confirmation_code")

			booking, err := s.Bookings.CancelByConfirmationCode(ctx, ec.TenantID, code, stringParam(params, "reason"))
			if err != nil {
				switch {
				case errors.Is(err, bookingserrors.ErrNotFound):
					return core.Refuse(CodeBookingNotFound, err.Error(), msg(ec.Locale,
						"No encuentro ninguna reserva con ese código.",
						"I cannot find any booking with that code.",
					)), nil
				case errors.Is(err, bookingserrors.ErrAlreadyCancelled):
					return core.Refuse(CodeAlreadyCancelled, err.Error(), msg(ec.Locale,
						"Esa reserva ya estaba cancelada.",
						"That booking was already cancelled.",
					)), nil
				}
				return nil, err
			}

			if s.Events != nil {
				referenceID := "booking-cancelled:" + booking.ID
				if pubErr := s.Events.BookingCancelled(ctx, booking, CancelTrustDelta, referenceID); pubErr != nil {
					s.Cfg.Log.Warn("Failed to publish cancellation event",
						"booking_id", booking.ID, "error", pubErr)
				}
			}

			return core.Succeed(msg(ec.Locale,
				"He cancelado tu reserva. ¿Puedo ayudarte con algo más?",
				"I have cancelled your booking. Is there anything else I can help you with?",
			), map[string]any{
				"booking_id": booking.ID,
				"cancelled":  true,
			}), nil
		},
	}
}
