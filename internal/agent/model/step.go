package model

import (
	"context"
	"strings"
)

// StepID names a step of the conversation flow. The set is closed.
type StepID string

const (
	StepCoordinator     StepID = "coordinator"
	StepCourseAdvisor   StepID = "courseAdvisor"
	StepLearningPlanner StepID = "learningPlanner"
	StepHumanInput      StepID = "humanInput"
	StepAwaitHumanInput StepID = "awaitHumanInput"
	StepTerminate       StepID = "terminate"
)

// Responders lists the steps backed by a responder, in dispatch order.
func Responders() []StepID {
	return []StepID{StepCoordinator, StepCourseAdvisor, StepLearningPlanner, StepHumanInput}
}

// IsResponder reports whether s is one of the four responder steps.
func (s StepID) IsResponder() bool {
	switch s {
	case StepCoordinator, StepCourseAdvisor, StepLearningPlanner, StepHumanInput:
		return true
	}
	return false
}

func (s StepID) String() string {
	return string(s)
}

var stepAliases = map[string]StepID{
	"coordinator":       StepCoordinator,
	"courseadvisor":     StepCourseAdvisor,
	"course_advisor":    StepCourseAdvisor,
	"learningplanner":   StepLearningPlanner,
	"learning_planner":  StepLearningPlanner,
	"humaninput":        StepHumanInput,
	"human_input":       StepHumanInput,
	"awaithumaninput":   StepAwaitHumanInput,
	"await_human_input": StepAwaitHumanInput,
	"terminate":         StepTerminate,
	"end":               StepTerminate,
}

// ParseStepID accepts both camelCase and snake_case step names.
func ParseStepID(v string) (StepID, bool) {
	s, ok := stepAliases[strings.ToLower(strings.TrimSpace(v))]
	return s, ok
}

// Signal tells the driver whether to call the flow again.
type Signal string

const (
	SignalContinue       Signal = "continue"
	SignalHaltComplete   Signal = "halt-complete"
	SignalHaltAwaitHuman Signal = "halt-await-human"
	SignalHaltLoopLimit  Signal = "halt-loop-limit"
)

// IsHalt reports whether the driver must stop calling the flow.
func (s Signal) IsHalt() bool {
	return s != SignalContinue
}

type SubtaskName string

const (
	SubtaskCourseSearch         SubtaskName = "course_search"
	SubtaskLearningPlanCreation SubtaskName = "learning_plan_creation"
	SubtaskPlanApproval         SubtaskName = "plan_approval"
	SubtaskCourseFeedback       SubtaskName = "course_recommendation_feedback"
)

type FeedbackType string

const (
	FeedbackSatisfied FeedbackType = "satisfied"
	FeedbackMore      FeedbackType = "more"
	FeedbackAdjust    FeedbackType = "adjust"
)

// SubtaskResult is returned by a responder that completed a unit of work.
// The flow turns it into a completion summary message.
type SubtaskResult struct {
	Name              SubtaskName  `json:"name"`
	NumCourses        int          `json:"num_courses,omitempty"`
	NumMilestones     int          `json:"num_milestones,omitempty"`
	EstimatedDuration string       `json:"estimated_duration,omitempty"`
	Status            PlanStatus   `json:"status,omitempty"`
	FeedbackType      FeedbackType `json:"feedback_type,omitempty"`
}

// Responder is the implementation behind one responder step. It mutates the
// state it is given and optionally reports a completed subtask.
type Responder interface {
	Respond(ctx context.Context, state *ConversationState) (*SubtaskResult, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, state *ConversationState) (*SubtaskResult, error)

func (f ResponderFunc) Respond(ctx context.Context, state *ConversationState) (*SubtaskResult, error) {
	return f(ctx, state)
}
