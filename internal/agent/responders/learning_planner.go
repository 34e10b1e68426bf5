package responders

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/it-worker-club/study-agent/internal/agent/graph/conversations"
	"github.com/it-worker-club/study-agent/internal/agent/graph/parsers"
	"github.com/it-worker-club/study-agent/internal/agent/graph/prompts"
	"github.com/it-worker-club/study-agent/internal/agent/model"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

// LearningPlanner drafts a learning plan over the current course candidates
// and raises the gate for approval.
type LearningPlanner struct {
	chatModel einomodel.BaseChatModel
	modelName string
	mm        *conversations.MessagesManager
}

func NewLearningPlanner(cm einomodel.BaseChatModel, modelName string, mm *conversations.MessagesManager) *LearningPlanner {
	return &LearningPlanner{chatModel: cm, modelName: modelName, mm: mm}
}

func (p *LearningPlanner) Respond(ctx context.Context, state *model.ConversationState) (*model.SubtaskResult, error) {
	draft, err := p.draft(ctx, state)
	if err != nil {
		return nil, err
	}

	plan := &model.LearningPlan{
		Goal:               draft.Goal,
		Milestones:         draft.Milestones,
		RecommendedCourses: model.CloneCourses(state.CourseCandidates),
		CandidateRefs:      model.CourseRefs(state.CourseCandidates),
		EstimatedDuration:  draft.EstimatedDuration,
		CreatedAt:          model.Now(),
		Status:             model.PlanDraft,
	}
	if plan.RecommendedCourses == nil {
		plan.RecommendedCourses = []model.CourseInfo{}
	}
	state.LearningPlan = plan
	state.AddAssistantMessage(formatPlan(plan, draft.Summary), model.StepLearningPlanner)
	state.RequestHumanInput()

	logx.Debug().
		Str("conversation_id", state.ConversationID).
		Int("milestones", len(plan.Milestones)).
		Str("estimated_duration", plan.EstimatedDuration).
		Msg("Learning plan drafted")
	return &model.SubtaskResult{
		Name:              model.SubtaskLearningPlanCreation,
		NumMilestones:     len(plan.Milestones),
		EstimatedDuration: plan.EstimatedDuration,
	}, nil
}

func (p *LearningPlanner) draft(ctx context.Context, state *model.ConversationState) (*parsers.PlanDraft, error) {
	if p.chatModel == nil {
		return templatePlan(state), nil
	}

	system, err := prompts.RenderPlannerSystem(ctx, prompts.PlannerVars{
		LearningGoals:       strings.Join(state.UserProfile.LearningGoals, ", "),
		TimeAvailability:    state.UserProfile.TimeAvailability,
		SkillLevel:          statedSkill(state),
		Background:          state.UserProfile.Background,
		CurrentTask:         state.CurrentTask,
		ConversationHistory: p.mm.FormatHistory(state.Messages),
		Courses:             state.CourseCandidates,
	})
	if err != nil {
		return nil, fmt.Errorf("render planner prompt: %w", err)
	}

	out, err := generate(ctx, p.chatModel, p.modelName, state.ConversationID, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(nonEmpty(conversations.LatestUserInput(state), "请为我制定学习计划")),
	})
	if err != nil {
		return nil, err
	}
	draft, err := parsers.ParsePlan(out.Content)
	if err != nil {
		logx.Warn().Err(err).
			Str("conversation_id", state.ConversationID).
			Msg("Unparsable plan; using the template plan")
		return templatePlan(state), nil
	}
	return draft, nil
}

// templatePlan is the three-stage plan used without a chat model.
func templatePlan(state *model.ConversationState) *parsers.PlanDraft {
	goal := planGoal(state)
	stages := []model.Milestone{
		{Title: "基础入门", Description: "掌握" + goal + "的核心概念和基础知识", EstimatedDuration: "2-3周"},
		{Title: "项目实践", Description: "通过实际项目巩固所学内容", EstimatedDuration: "3-4周"},
		{Title: "进阶提升", Description: "学习进阶主题并总结最佳实践", EstimatedDuration: "2-3周"},
	}
	for i, c := range state.CourseCandidates {
		stage := &stages[i%len(stages)]
		stage.Resources = append(stage.Resources, c.Title)
	}
	return &parsers.PlanDraft{
		Goal:              goal,
		Milestones:        stages,
		EstimatedDuration: "2-3个月",
		Summary:           "按照由浅入深的顺序学习，每个阶段结束后通过小项目检验学习效果。",
	}
}

func planGoal(state *model.ConversationState) string {
	if goals := state.UserProfile.LearningGoals; len(goals) > 0 {
		return strings.Join(goals, "、")
	}
	if req := lastRequest(state); req != "" {
		return req
	}
	return nonEmpty(state.CurrentTask, "目标技能")
}

func formatPlan(plan *model.LearningPlan, summary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📚 学习计划：%s\n", plan.Goal)
	fmt.Fprintf(&b, "预计总时长：%s\n", orUnknown(plan.EstimatedDuration))
	for i, m := range plan.Milestones {
		fmt.Fprintf(&b, "\n阶段 %d：%s", i+1, m.Title)
		if m.EstimatedDuration != "" {
			fmt.Fprintf(&b, "（%s）", m.EstimatedDuration)
		}
		b.WriteString("\n")
		if m.Description != "" {
			fmt.Fprintf(&b, "   %s\n", m.Description)
		}
		for _, r := range m.Resources {
			fmt.Fprintf(&b, "   - 推荐课程：%s\n", r)
		}
	}
	if summary != "" {
		fmt.Fprintf(&b, "\n%s\n", summary)
	}
	b.WriteString("\n" + planFeedbackPrompt)
	return b.String()
}
