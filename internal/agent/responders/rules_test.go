package responders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/it-worker-club/study-agent/internal/agent/model"
)

func TestRuleDecision(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.StepID
	}{
		{"course request", "推荐Python课程", model.StepCourseAdvisor},
		{"english course request", "Can you recommend a course?", model.StepCourseAdvisor},
		{"plan request", "帮我制定一个学习计划", model.StepLearningPlanner},
		{"roadmap", "give me a Go roadmap", model.StepLearningPlanner},
		{"farewell", "谢谢，再见", model.StepTerminate},
		{"unclear", "你好", model.StepHumanInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := RuleDecision(newState(tt.text))
			assert.Equal(t, tt.want, d.NextStep)
		})
	}
}

func TestRuleDecisionCourseTaskIsUserText(t *testing.T) {
	d := RuleDecision(newState("推荐Python课程"))
	assert.Equal(t, "推荐Python课程", d.CurrentTask)
}

func TestRuleDecisionOffersPlanWhenCandidatesExist(t *testing.T) {
	s := newState("")
	s.CourseCandidates = pythonCourses()
	s.CurrentTask = TaskCourseRecommendationsDone
	s.AddMessage(model.RoleUser, "满意", model.StepHumanInput)

	d := RuleDecision(s)
	assert.Equal(t, model.StepHumanInput, d.NextStep)
	assert.Equal(t, offerPlanQuestion, d.Response)
	assert.Equal(t, TaskCourseRecommendationsDone, d.CurrentTask)
}

func TestRuleDecisionFeedbackTasks(t *testing.T) {
	tests := []struct {
		task string
		want model.StepID
	}{
		{TaskFindMoreCourses, model.StepCourseAdvisor},
		{TaskAdjustCourses, model.StepCourseAdvisor},
		{TaskRevisePlan, model.StepLearningPlanner},
		{TaskAdjustPlanWithFeedback, model.StepLearningPlanner},
		{TaskPlanApproved, model.StepTerminate},
	}
	for _, tt := range tests {
		s := newState("")
		s.CurrentTask = tt.task
		s.AddMessage(model.RoleUser, "随便说点什么", model.StepHumanInput)
		d := RuleDecision(s)
		assert.Equal(t, tt.want, d.NextStep, tt.task)
		assert.Equal(t, tt.task, d.CurrentTask)
	}
}

func TestFeedbackTaskDecisionIgnoresTypedMessages(t *testing.T) {
	s := newState("推荐Python课程")
	s.CurrentTask = TaskPlanApproved
	assert.Nil(t, feedbackTaskDecision(s))
}

func TestHandledSinceLastUser(t *testing.T) {
	s := newState("推荐Python课程")
	assert.False(t, handledSinceLastUser(s))

	s.AddAssistantMessage("让我为您查找相关课程...", model.StepCoordinator)
	assert.False(t, handledSinceLastUser(s))

	s.AddAssistantMessage("为您推荐以下课程", model.StepCourseAdvisor)
	assert.True(t, handledSinceLastUser(s))

	s.AddMessage(model.RoleUser, "满意", model.StepHumanInput)
	assert.False(t, handledSinceLastUser(s))
}
