package responders

import (
	"strings"

	"github.com/it-worker-club/study-agent/internal/agent/graph/conversations"
	"github.com/it-worker-club/study-agent/internal/agent/graph/parsers"
	"github.com/it-worker-club/study-agent/internal/agent/model"
)

var (
	farewellWords = []string{"再见", "谢谢", "结束", "bye", "thanks"}
	planWords     = []string{"计划", "规划", "路线", "plan", "roadmap"}
	courseWords   = []string{"课程", "推荐", "学习资源", "course", "recommend"}
)

const (
	planConfirmedGoodbye = "学习计划已确认，祝您学习顺利！再见"
	genericGoodbye       = "好的，祝您学习顺利！再见"
	offerPlanQuestion    = "需要我为您制定学习计划吗？"
)

// handledSinceLastUser reports whether a specialist already answered the most
// recent user message. Routing it again would repeat the same work.
func handledSinceLastUser(state *model.ConversationState) bool {
	_, userIdx, ok := state.LastUserMessage()
	if !ok {
		return false
	}
	for i := len(state.Messages) - 1; i > userIdx; i-- {
		switch state.Messages[i].Step {
		case model.StepCourseAdvisor, model.StepLearningPlanner:
			return true
		}
	}
	return false
}

// feedbackTaskDecision routes the tasks written by the human-input consumer.
// It returns nil when the newest user message is not gate feedback or the task
// needs no fixed route.
func feedbackTaskDecision(state *model.ConversationState) *parsers.Decision {
	msg, _, ok := state.LastUserMessage()
	if !ok || msg.Step != model.StepHumanInput {
		return nil
	}
	switch state.CurrentTask {
	case TaskFindMoreCourses, TaskAdjustCourses:
		return &parsers.Decision{NextStep: model.StepCourseAdvisor, CurrentTask: state.CurrentTask}
	case TaskRevisePlan, TaskAdjustPlanWithFeedback:
		return &parsers.Decision{NextStep: model.StepLearningPlanner, CurrentTask: state.CurrentTask}
	case TaskPlanApproved:
		return &parsers.Decision{NextStep: model.StepTerminate, CurrentTask: state.CurrentTask, Response: planConfirmedGoodbye}
	}
	return nil
}

// RuleDecision is the keyword router used when no chat model is configured.
func RuleDecision(state *model.ConversationState) *parsers.Decision {
	input := conversations.LatestUserInput(state)
	text := strings.ToLower(input)

	if containsAny(text, farewellWords) {
		return &parsers.Decision{NextStep: model.StepTerminate, CurrentTask: "结束对话", Response: goodbyeFor(state)}
	}
	if d := feedbackTaskDecision(state); d != nil {
		return d
	}
	if containsAny(text, planWords) {
		return &parsers.Decision{NextStep: model.StepLearningPlanner, CurrentTask: input}
	}
	if containsAny(text, courseWords) {
		return &parsers.Decision{NextStep: model.StepCourseAdvisor, CurrentTask: input}
	}

	d := parsers.FallbackDecision()
	if len(state.CourseCandidates) > 0 {
		d.CurrentTask = state.CurrentTask
		d.Response = offerPlanQuestion
	}
	return d
}

func goodbyeFor(state *model.ConversationState) string {
	if state.LearningPlan != nil && state.LearningPlan.Status == model.PlanApproved {
		return planConfirmedGoodbye
	}
	return genericGoodbye
}
