package tools

import (
	"context"

	"habla/internal/tools/catalog"
	"habla/internal/tools/core"
)

func transferToHumanTool(s *Services) *catalog.Definition {
	return &catalog.Definition{
		Name:        "transfer_to_human",
		Category:    CategoryHandoff,
		Description: "Hand the conversation over to a human team member",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"reason": map[string]any{
					"type":      "string",
					"maxLength": 200,
				},
			},
			"additionalProperties": false,
		},
		EnabledFor: []string{catalog.Wildcard},
		Handler: func(ctx context.Context, params map[string]any, ec *core.ExecutionContext) (*core.ExecutionResult, error) {
			if reason := stringParam(params, "reason"); reason != "" {
				s.Cfg.Log.Info("Transferring to human",
					"tenant_id", ec.TenantID,
					"call_id", ec.CallID,
					"reason", reason,
				)
			}
			return &core.ExecutionResult{
				Success:           true,
				ForwardToPlatform: true,
				VoiceMessage: msg(ec.Locale,
					"Un momento, te paso con una persona del equipo.",
					"One moment, let me connect you with a member of the team.",
				),
			}, nil
		},
	}
}
