package tools

import (
	"context"
	"errors"
	"fmt"

	holdserrors "habla/internal/holds/errors"
	holdsservice "habla/internal/holds/service"
	"habla/internal/tools/catalog"
	"habla/internal/tools/core"
	"habla/pkg/model"
	"habla/pkg/sanitizer"
	"habla/pkg/voice"
)

func createHoldTool(s *Services) *catalog.Definition {
	return &catalog.Definition{
		Name:        "create_hold",
		Category:    CategoryBooking,
		Description: "Temporarily reserve a time slot while the customer decides",
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
					"maxLength": 100,
				},
				"duration_minutes": map[string]any{
					"type":    "integer",
					"minimum": 5,
					"maximum": 480,
				},
				"hold_type": map[string]any{
					"type": "string",
					"enum": []string{model.HoldTypeAppointment, model.HoldTypeReservation, model.HoldTypeOrder},
				},
				"service_id": map[string]any{"type": "string"},
				"staff_id":   map[string]any{"type": "string"},
			},
			"required":             []string{"date", "time", "customer_phone"},
			"additionalProperties": false,
		},
		EnabledFor: []string{catalog.Wildcard},
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

			holdType := stringParam(params, "hold_type")
			if holdType == "" {
				holdType = defaultHoldType(tenant.AssistantType)
			}

			req := &holdsservice.CreateRequest{
				TenantID:        ec.TenantID,
				BranchID:        ec.BranchID,
				SlotStart:       start,
				DurationMinutes: intParam(params, "duration_minutes"),
				CustomerPhone:   phoneKey(stringParam(params, "customer_phone")),
				LeadID:          entityString(ec, "lead_id"),
				ServiceID:       stringParam(params, "service_id"),
				StaffID:         stringParam(params, "staff_id"),
				HoldType:        holdType,
				Vertical:        tenant.Vertical,
			}
			if name := sanitizer.NormalizeName(stringParam(params, "customer_name")); name != "" {
				req.Metadata = map[string]string{"customer_name": name}
			}

			result, err := s.Holds.Create(ctx, req)
			if err != nil {
				if refusal, ok := refuseHoldError(err, ec.Locale); ok {
					return refusal, nil
				}
				return nil, err
			}

			spoken := msg(ec.Locale,
				fmt.Sprintf("He bloqueado el %s durante %s mientras lo decides.",
					voice.DateTime(result.Hold.SlotStart, ec.Locale),
					voice.Duration(result.ExpiresInMinutes, ec.Locale)),
				fmt.Sprintf("I have held %s for %s while you decide.",
					voice.DateTime(result.Hold.SlotStart, ec.Locale),
					voice.Duration(result.ExpiresInMinutes, ec.Locale)),
			)
			if result.RequiresDeposit {
				spoken += msg(ec.Locale,
					fmt.Sprintf(" Para confirmar se requiere un depósito de %s.",
						voice.Money(result.DepositAmount, "EUR", ec.Locale)),
					fmt.Sprintf(" A deposit of %s is required to confirm.",
						voice.Money(result.DepositAmount, "EUR", ec.Locale)),
				)
			}

			return core.Succeed(spoken, map[string]any{
				"hold_id":            result.Hold.ID,
				"slot_start":         result.Hold.SlotStart,
				"slot_end":           result.Hold.SlotEnd,
				"expires_in_minutes": result.ExpiresInMinutes,
				"requires_deposit":   result.RequiresDeposit,
				"deposit_amount":     result.DepositAmount,
			}), nil
		},
	}
}

func convertHoldTool(s *Services) *catalog.Definition {
	return &catalog.Definition{
		Name:        "convert_hold",
		Category:    CategoryBooking,
		Description: "Confirm a held slot into a definitive booking",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"hold_id": map[string]any{
					"type":      "string",
					"minLength": 1,
				},
				"customer_name": map[string]any{
					"type":      "string",
					"maxLength": 100,
				},
				"deposit_confirmed": map[string]any{"type": "boolean"},
			},
			"required":             []string{"hold_id"},
			"additionalProperties": false,
		},
		EnabledFor:           []string{catalog.Wildcard},
		RequiresConfirmation: true,
		ConfirmationGenerator: func(params map[string]any, loc string) string {
			return msg(loc,
				"¿Confirmo la reserva?",
				"Shall I confirm the booking?",
			)
		},
		Handler: func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
			booking, err := s.Holds.Convert(ctx, &holdsservice.ConvertRequest{
				TenantID:         ec.TenantID,
				HoldID:           stringParam(params, "hold_id"),
				CustomerName:     sanitizer.NormalizeName(stringParam(params, "customer_name")),
				DepositConfirmed: boolParam(params, "deposit_confirmed"),
			})
			if err != nil {
				if refusal, ok := refuseHoldError(err, ec.Locale); ok {
					return refusal, nil
				}
				return nil, err
			}

			return core.Succeed(msg(ec.Locale,
				fmt.Sprintf("¡Perfecto! Tu reserva está confirmada. Tu código de confirmación es %s.",
					voice.ConfirmationCode(booking.ConfirmationCode)),
				fmt.Sprintf("Great! Your booking is confirmed. Your confirmation code is %s.",
					voice.ConfirmationCode(booking.ConfirmationCode)),
			), map[string]any{
				"booking_id":        booking.ID,
				"confirmation_code": booking.ConfirmationCode,
				"start_time":        booking.StartTime,
			}), nil
		},
	}
}

func releaseHoldTool(s *Services) *catalog.Definition {
	return &catalog.Definition{
		Name:        "release_hold",
		Category:    CategoryBooking,
		Description: "Free a held slot the customer no longer wants",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"hold_id": map[string]any{
					"type":      "string",
					"minLength": 1,
				},
				"reason": map[string]any{
					"type":      "string",
					"maxLength": 200,
				},
			},
			"required":             []string{"hold_id"},
			"additionalProperties": false,
		},
		EnabledFor: []string{catalog.Wildcard},
		Handler: func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
			result, err := s.Holds.Release(ctx, ec.TenantID, stringParam(params, "hold_id"), stringParam(params, "reason"))
			if err != nil {
				if refusal, ok := refuseHoldError(err, ec.Locale); ok {
					return refusal, nil
				}
				return nil, err
			}

			spoken := msg(ec.Locale,
				"He liberado la reserva provisional.",
				"I have released the held slot.",
			)
			if !result.Released {
				spoken = msg(ec.Locale,
					"Esa reserva provisional ya no estaba activa.",
					"That held slot was no longer active.",
				)
			}

			return core.Succeed(spoken, map[string]any{
				"released":     result.Released,
				"prior_status": result.PriorStatus,
			}), nil
		},
	}
}

// defaultHoldType infers the kind of claim from the business type when the
// model did not say.
func defaultHoldType(assistantType string) string {
	if assistantType == model.AssistantTypeRestaurant {
		return model.HoldTypeReservation
	}
	return model.HoldTypeAppointment
}

func entityString(ec *core.ExecutionContext, key string) string {
	if ec.Entities == nil {
		return ""
	}
	v, _ := ec.Entities[key].(string)
	return v
}

// refuseHoldError maps domain refusals to spoken results. Unknown errors are
// passed through so the executor surfaces them as execution failures.
func refuseHoldError(err error, loc string) (*core.ExecutionResult, bool) {
	var depositErr *holdserrors.DepositRequiredError
	if errors.As(err, &depositErr) {
		return core.Refuse(CodeDepositRequired, err.Error(), msg(loc,
			fmt.Sprintf("Para confirmar esta reserva se requiere un depósito de %s. ¿Quieres continuar?",
				voice.Money(depositErr.Amount, "EUR", loc)),
			fmt.Sprintf("A deposit of %s is required to confirm this booking. Would you like to continue?",
				voice.Money(depositErr.Amount, "EUR", loc)),
		)), true
	}

	switch {
	case errors.Is(err, holdserrors.ErrSlotInPast):
		return core.Refuse(CodeSlotInPast, err.Error(), msg(loc,
			"Esa hora ya ha pasado. ¿Quieres elegir otra?",
			"That time has already passed. Would you like to pick another?",
		)), true
	case errors.Is(err, holdserrors.ErrSlotHeld):
		return core.Refuse(CodeSlotHeld, err.Error(), msg(loc,
			"Lo siento, alguien está reservando ese horario ahora mismo. ¿Te busco otra hora?",
			"I'm sorry, someone is booking that time right now. Shall I find you another?",
		)), true
	case errors.Is(err, holdserrors.ErrSlotBooked):
		return core.Refuse(CodeSlotBooked, err.Error(), msg(loc,
			"Lo siento, ese horario ya está reservado. ¿Te busco otra hora?",
			"I'm sorry, that time is already booked. Shall I find you another?",
		)), true
	case errors.Is(err, holdserrors.ErrCustomerBlocked):
		result := core.Refuse(CodeCustomerBlocked, err.Error(), msg(loc,
			"Lo siento, no puedo completar esta reserva. Te paso con el equipo.",
			"I'm sorry, I cannot complete this booking. Let me connect you with the team.",
		))
		result.ForwardToPlatform = true
		return result, true
	case errors.Is(err, holdserrors.ErrNotFound):
		return core.Refuse(CodeHoldNotFound, err.Error(), msg(loc,
			"No encuentro esa reserva provisional.",
			"I cannot find that held slot.",
		)), true
	case errors.Is(err, holdserrors.ErrExpired):
		return core.Refuse(CodeHoldExpired, err.Error(), msg(loc,
			"La reserva provisional ha caducado. ¿Compruebo si el horario sigue libre?",
			"The held slot has expired. Shall I check whether the time is still free?",
		)), true
	case errors.Is(err, holdserrors.ErrAlreadyConverted):
		return core.Refuse(CodeHoldFinal, err.Error(), msg(loc,
			"Esa reserva ya está confirmada.",
			"That booking is already confirmed.",
		)), true
	case errors.Is(err, holdserrors.ErrAlreadyReleased):
		return core.Refuse(CodeHoldFinal, err.Error(), msg(loc,
			"Esa reserva provisional ya fue cancelada.",
			"That held slot was already released.",
		)), true
	}
	return nil, false
}
