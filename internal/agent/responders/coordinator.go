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

// Coordinator decides which responder handles the conversation next. Without
// a chat model it falls back to RuleDecision.
type Coordinator struct {
	chatModel einomodel.BaseChatModel
	modelName string
	mm        *conversations.MessagesManager
}

func NewCoordinator(cm einomodel.BaseChatModel, modelName string, mm *conversations.MessagesManager) *Coordinator {
	return &Coordinator{chatModel: cm, modelName: modelName, mm: mm}
}

func (c *Coordinator) Respond(ctx context.Context, state *model.ConversationState) (*model.SubtaskResult, error) {
	if handledSinceLastUser(state) {
		askOnce(state, feedbackPrompt(state), model.StepCoordinator)
		state.RequestHumanInput()
		return nil, nil
	}

	d := feedbackTaskDecision(state)
	if d == nil {
		var err error
		if d, err = c.decide(ctx, state); err != nil {
			return nil, err
		}
	}
	c.apply(state, d)

	logx.Debug().
		Str("conversation_id", state.ConversationID).
		Str("next_step", string(state.NextStep)).
		Str("current_task", state.CurrentTask).
		Bool("requires_human_input", state.RequiresHumanInput).
		Msg("Coordinator decision")
	return nil, nil
}

func (c *Coordinator) decide(ctx context.Context, state *model.ConversationState) (*parsers.Decision, error) {
	if c.chatModel == nil {
		return RuleDecision(state), nil
	}

	system, err := prompts.RenderCoordinatorSystem(ctx, prompts.CoordinatorVars{
		ContextSummary:      conversations.BuildContextSummary(state),
		ConversationHistory: c.mm.FormatHistory(state.Messages),
		UserInput:           conversations.LatestUserInput(state),
		Background:          state.UserProfile.Background,
		SkillLevel:          statedSkill(state),
		LearningGoals:       strings.Join(state.UserProfile.LearningGoals, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("render coordinator prompt: %w", err)
	}

	out, err := generate(ctx, c.chatModel, c.modelName, state.ConversationID, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(conversations.LatestUserInput(state)),
	})
	if err != nil {
		return nil, err
	}

	d, err := parsers.ParseDecision(out.Content)
	if err != nil {
		logx.Warn().Err(err).
			Str("conversation_id", state.ConversationID).
			Msg("Unparsable coordinator decision; asking the user to clarify")
		return parsers.FallbackDecision(), nil
	}
	return d, nil
}

func (c *Coordinator) apply(state *model.ConversationState, d *parsers.Decision) {
	if d.CurrentTask != "" {
		state.CurrentTask = d.CurrentTask
	}

	switch d.NextStep {
	case model.StepTerminate:
		state.AddAssistantMessage(nonEmpty(d.Response, genericGoodbye), model.StepCoordinator)
		state.MarkComplete()
	case model.StepCourseAdvisor, model.StepLearningPlanner:
		if d.Response != "" {
			state.AddAssistantMessage(d.Response, model.StepCoordinator)
		}
		if msg := conversations.TransitionMessage(model.StepCoordinator, d.NextStep); msg != "" {
			state.AddAssistantMessage(msg, model.StepCoordinator)
		}
		state.NextStep = d.NextStep
	default:
		askOnce(state, nonEmpty(d.Response, parsers.FallbackDecision().Response), model.StepCoordinator)
		state.RequestHumanInput()
	}
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
