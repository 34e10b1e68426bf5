package responders

import (
	"context"
	"strings"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

// Tasks written by the human-input consumer and read by the coordinator.
const (
	TaskPlanApproved              = "plan_approved"
	TaskRevisePlan                = "revise_learning_plan"
	TaskAdjustPlanWithFeedback    = "adjust_learning_plan_with_feedback"
	TaskFindMoreCourses           = "find_more_courses"
	TaskAdjustCourses             = "adjust_course_recommendations"
	TaskCourseRecommendationsDone = "course_recommendations_accepted"
)

const (
	planFeedbackPrompt = "我已经为您制定了学习计划。请查看上述计划并提供反馈：\n" +
		"- 如果您同意该计划，请回复「同意」或「批准」\n" +
		"- 如果需要调整，请告诉我您的具体建议\n" +
		"- 如果想重新规划，请回复「重新规划」"
	courseFeedbackPrompt = "我已经为您推荐了一些课程。请提供您的反馈：\n" +
		"- 如果您对推荐满意，请回复「满意」\n" +
		"- 如果需要更多课程，请回复「更多推荐」\n" +
		"- 如果想调整推荐方向，请告诉我您的具体需求"
	generalFeedbackPrompt = "请提供您的反馈或确认，以便我继续为您服务。"

	planRevisionAck    = "好的，我会根据您的反馈调整学习计划。请告诉我您希望如何调整？"
	planAdjustmentAck  = "我理解了您的反馈。让我根据您的建议调整学习计划。"
	generalFeedbackAck = "感谢您的反馈。让我继续为您服务。"
)

// feedbackPrompt picks the question matching what is waiting for review.
func feedbackPrompt(state *model.ConversationState) string {
	switch {
	case state.LearningPlan != nil && state.LearningPlan.Status == model.PlanDraft:
		return planFeedbackPrompt
	case len(state.CourseCandidates) > 0:
		return courseFeedbackPrompt
	default:
		return generalFeedbackPrompt
	}
}

// askOnce appends prompt unless it is already the last message.
func askOnce(state *model.ConversationState, prompt string, step model.StepID) {
	if last, ok := state.LastMessage(); ok && last.Content == prompt {
		return
	}
	state.AddAssistantMessage(prompt, step)
}

// HumanInput consumes feedback supplied at the gate.
type HumanInput struct {
	classifier FeedbackClassifier
}

func NewHumanInput(classifier FeedbackClassifier) *HumanInput {
	return &HumanInput{classifier: classifier}
}

func (h *HumanInput) Respond(ctx context.Context, state *model.ConversationState) (*model.SubtaskResult, error) {
	feedback := strings.TrimSpace(state.HumanFeedback)
	if feedback == "" {
		askOnce(state, feedbackPrompt(state), model.StepHumanInput)
		state.RequestHumanInput()
		logx.Debug().Str("conversation_id", state.ConversationID).Msg("Waiting for human feedback")
		return nil, nil
	}

	state.AddMessage(model.RoleUser, feedback, model.StepHumanInput)

	var result *model.SubtaskResult
	switch {
	case state.LearningPlan != nil && state.LearningPlan.Status == model.PlanDraft:
		result = h.planFeedback(ctx, state, feedback)
	case len(state.CourseCandidates) > 0:
		result = h.courseFeedback(ctx, state, feedback)
	default:
		state.AddAssistantMessage(generalFeedbackAck, model.StepHumanInput)
	}

	state.ClearHumanInput()
	state.NextStep = model.StepCoordinator
	logx.Debug().
		Str("conversation_id", state.ConversationID).
		Str("current_task", state.CurrentTask).
		Msg("Human input processed, routing to coordinator")
	return result, nil
}

func (h *HumanInput) planFeedback(ctx context.Context, state *model.ConversationState, feedback string) *model.SubtaskResult {
	switch h.classifier.Classify(ctx, SubjectPlan, feedback) {
	case VerdictApprove:
		if err := state.LearningPlan.Approve(); err != nil {
			logx.Warn().Err(err).Str("conversation_id", state.ConversationID).Msg("Plan approval rejected")
			return nil
		}
		state.CurrentTask = TaskPlanApproved
		return &model.SubtaskResult{Name: model.SubtaskPlanApproval, Status: model.PlanApproved}
	case VerdictRequestRevision:
		state.CurrentTask = TaskRevisePlan
		state.AddAssistantMessage(planRevisionAck, model.StepHumanInput)
	default:
		state.CurrentTask = TaskAdjustPlanWithFeedback
		state.AddAssistantMessage(planAdjustmentAck, model.StepHumanInput)
	}
	return nil
}

func (h *HumanInput) courseFeedback(ctx context.Context, state *model.ConversationState, feedback string) *model.SubtaskResult {
	result := &model.SubtaskResult{Name: model.SubtaskCourseFeedback}
	switch h.classifier.Classify(ctx, SubjectCourses, feedback) {
	case VerdictRequestRevision:
		state.CurrentTask = TaskFindMoreCourses
		result.FeedbackType = model.FeedbackMore
	case VerdictApprove:
		state.CurrentTask = TaskCourseRecommendationsDone
		result.FeedbackType = model.FeedbackSatisfied
	default:
		state.CurrentTask = TaskAdjustCourses
		result.FeedbackType = model.FeedbackAdjust
	}
	return result
}
