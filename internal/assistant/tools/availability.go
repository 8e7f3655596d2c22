package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	holdsservice "habla/internal/holds/service"
	"habla/internal/tools/catalog"
	"habla/internal/tools/core"
	"habla/pkg/voice"
)

// maxSpokenSlots bounds how many alternatives are read out loud. The full
// list still travels in the result data.
const maxSpokenSlots = 3

func checkAvailabilityTool(s *Services) *catalog.Definition {
	return &catalog.Definition{
		Name:        "check_availability",
		Category:    CategoryAvailability,
		Description: "Check whether a specific time is free, or list the open slots for a day",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date": map[string]any{
					"type":        "string",
					"pattern":     `^\d{4}-\d{2}-\d{2}$`,
					"description": "Day to check, YYYY-MM-DD in the business timezone",
				},
				"time": map[string]any{
					"type":        "string",
					"pattern":     `^\d{2}:\d{2}$`,
					"description": "Optional specific time, HH:MM 24h; omit to list open slots",
				},
				"duration_minutes": map[string]any{
					"type":    "integer",
					"minimum": 5,
					"maximum": 480,
				},
				"staff_id": map[string]any{"type": "string"},
			},
			"required":             []string{"date"},
			"additionalProperties": false,
		},
		EnabledFor: []string{catalog.Wildcard},
		Timeout:    10 * time.Second,
		Handler: func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
			req := &holdsservice.AvailabilityRequest{
				TenantID:        ec.TenantID,
				BranchID:        ec.BranchID,
				Date:            stringParam(params, "date"),
				Time:            stringParam(params, "time"),
				DurationMinutes: intParam(params, "duration_minutes"),
				StaffID:         stringParam(params, "staff_id"),
			}

			result, err := s.Holds.CheckAvailability(ctx, req)
			if err != nil {
				return nil, err
			}

			if req.Time != "" {
				return specificTimeResult(s, ctx, req, result, ec.Locale)
			}
			return openSlotsResult(result, ec.Locale)
		},
	}
}

func specificTimeResult(s *Services, ctx context.Context, req *holdsservice.AvailabilityRequest, result *holdsservice.AvailabilityResult, loc string) (*core.ExecutionResult, error) {
	data := map[string]any{
		"available": result.Available,
	}
	if result.Reason != "" {
		data["reason"] = result.Reason
	}

	spoken := req.Date + " " + req.Time
	if at, err := tenantSlotTime(s, ctx, req.TenantID, req.Date, req.Time); err == nil {
		spoken = voice.DateTime(at, loc)
	}

	if result.Available {
		return core.Succeed(msg(loc,
			fmt.Sprintf("Sí, tenemos disponible el %s.", spoken),
			fmt.Sprintf("Yes, %s is available.", spoken),
		), data), nil
	}

	return &core.ExecutionResult{
		Success: true,
		Data:    data,
		VoiceMessage: msg(loc,
			"Lo siento, ese horario no está disponible. ¿Quieres que busque otra hora?",
			"I'm sorry, that time is not available. Would you like me to look for another time?",
		),
	}, nil
}

func openSlotsResult(result *holdsservice.AvailabilityResult, loc string) (*core.ExecutionResult, error) {
	if result.Reason == holdsservice.ReasonClosed {
		return &core.ExecutionResult{
			Success: true,
			Data:    map[string]any{"available": false, "reason": result.Reason},
			VoiceMessage: msg(loc,
				"Lo siento, ese día estamos cerrados.",
				"I'm sorry, we are closed that day.",
			),
		}, nil
	}

	if len(result.Slots) == 0 {
		return &core.ExecutionResult{
			Success: true,
			Data:    map[string]any{"available": false},
			VoiceMessage: msg(loc,
				"Lo siento, no queda disponibilidad ese día. ¿Miramos otro día?",
				"I'm sorry, there is no availability left that day. Shall we try another day?",
			),
		}, nil
	}

	spoken := make([]string, 0, maxSpokenSlots)
	for i, slot := range result.Slots {
		if i == maxSpokenSlots {
			break
		}
		spoken = append(spoken, voice.Time(slot.Start, loc))
	}

	return core.Succeed(msg(loc,
		fmt.Sprintf("Tenemos hueco a las %s.", voice.List(spoken, loc)),
		fmt.Sprintf("We have openings at %s.", voice.List(spoken, loc)),
	), map[string]any{
		"available": true,
		"slots":     result.Slots,
	}), nil
}

func openingHoursTool(s *Services) *catalog.Definition {
	return &catalog.Definition{
		Name:        "get_opening_hours",
		Category:    CategoryInfo,
		Description: "Tell the customer the opening hours for a given day",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date": map[string]any{
					"type":        "string",
					"pattern":     `^\d{4}-\d{2}-\d{2}$`,
					"description": "Day to report, YYYY-MM-DD; defaults to today",
				},
			},
			"additionalProperties": false,
		},
		EnabledFor: []string{catalog.Wildcard},
		Handler: func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
			tenant, err := s.Tenants.FindByID(ctx, ec.TenantID)
			if err != nil {
				return nil, err
			}

			tz, err := time.LoadLocation(tenant.Timezone)
			if err != nil {
				tz = time.UTC
			}

			day := time.Now().In(tz)
			if date := stringParam(params, "date"); date != "" {
				parsed, parseErr := time.ParseInLocation("2006-01-02", date, tz)
				if parseErr != nil {
					return core.Refuse(core.CodeInvalidParams, "invalid date",
						msg(ec.Locale, "No he entendido la fecha.", "I did not catch that date."),
					), nil
				}
				day = parsed
			}

			weekday := strings.ToLower(day.Weekday().String())
			spokenDay := voice.Date(day, ec.Locale)

			hours, found := tenant.OpeningHours[weekday]
			if !found || hours.Closed {
				return core.Succeed(msg(ec.Locale,
					fmt.Sprintf("El %s estamos cerrados.", spokenDay),
					fmt.Sprintf("We are closed on %s.", spokenDay),
				), map[string]any{"open": false}), nil
			}

			return core.Succeed(msg(ec.Locale,
				fmt.Sprintf("El %s abrimos de %s a %s.", spokenDay, spokenClock(hours.Open, ec.Locale, tz), spokenClock(hours.Close, ec.Locale, tz)),
				fmt.Sprintf("On %s we are open from %s to %s.", spokenDay, spokenClock(hours.Open, ec.Locale, tz), spokenClock(hours.Close, ec.Locale, tz)),
			), map[string]any{
				"open":  true,
				"from":  hours.Open,
				"until": hours.Close,
			}), nil
		},
	}
}

func spokenClock(clock, loc string, tz *time.Location) string {
	parsed, err := time.ParseInLocation("15:04", clock, tz)
	if err != nil {
		return clock
	}
	return voice.Time(parsed, loc)
}

// tenantSlotTime resolves a date and time pair into an instant in the
// tenant's timezone.
func tenantSlotTime(s *Services, ctx context.Context, tenantID, date, clock string) (time.Time, error) {
	tenant, err := s.Tenants.FindByID(ctx, tenantID)
	if err != nil {
		return time.Time{}, err
	}
	return slotTime(date, clock, tenant.Timezone)
}
