package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/coordinator_prompt.txt
var coordinatorSystemPrompt string

// CoordinatorVars are the values substituted into the coordinator prompt.
type CoordinatorVars struct {
	ContextSummary      string
	ConversationHistory string
	UserInput           string
	Background          string
	SkillLevel          string
	LearningGoals       string
}

// RenderCoordinatorSystem renders the coordinator system prompt via the Eino
// prompt component so prompt callbacks fire.
func RenderCoordinatorSystem(ctx context.Context, v CoordinatorVars) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(coordinatorSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"ContextSummary":      v.ContextSummary,
		"ConversationHistory": v.ConversationHistory,
		"UserInput":           v.UserInput,
		"Background":          orUnknown(v.Background),
		"SkillLevel":          orUnknown(v.SkillLevel),
		"LearningGoals":       orUnknown(v.LearningGoals),
	})
	if err != nil {
		return "", fmt.Errorf("coordinator prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("coordinator prompt render: empty result")
	}
	return msgs[0].Content, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "未知"
	}
	return s
}
