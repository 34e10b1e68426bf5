package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/it-worker-club/study-agent/internal/agent/model"
)

//go:embed template/planner_prompt.txt
var plannerSystemPrompt string

// PlannerVars are the values substituted into the learning planner prompt.
type PlannerVars struct {
	LearningGoals       string
	TimeAvailability    string
	SkillLevel          string
	Background          string
	CurrentTask         string
	ConversationHistory string
	Courses             []model.CourseInfo
}

// RenderPlannerSystem renders the learning planner system prompt.
func RenderPlannerSystem(ctx context.Context, v PlannerVars) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(plannerSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"LearningGoals":       orUnknown(v.LearningGoals),
		"TimeAvailability":    orUnknown(v.TimeAvailability),
		"SkillLevel":          orUnknown(v.SkillLevel),
		"Background":          orUnknown(v.Background),
		"CurrentTask":         orUnknown(v.CurrentTask),
		"ConversationHistory": v.ConversationHistory,
		"Courses":             v.Courses,
	})
	if err != nil {
		return "", fmt.Errorf("planner prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("planner prompt render: empty result")
	}
	return msgs[0].Content, nil
}
