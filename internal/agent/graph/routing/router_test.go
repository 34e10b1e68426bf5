package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/it-worker-club/study-agent/internal/agent/model"
)

func newState() *model.ConversationState {
	return model.NewConversationState("routing", model.UserProfile{})
}

func TestDecideNextStep(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *model.ConversationState)
		want  model.StepID
	}{
		{
			name:  "routes to next step",
			setup: func(s *model.ConversationState) { s.NextStep = model.StepCourseAdvisor },
			want:  model.StepCourseAdvisor,
		},
		{
			name: "loop limit wins over everything",
			setup: func(s *model.ConversationState) {
				s.LoopCount = 11
				s.RequiresHumanInput = true
				s.NextStep = model.StepCoordinator
			},
			want: model.StepTerminate,
		},
		{
			name:  "loop count equal to max still routes",
			setup: func(s *model.ConversationState) { s.LoopCount = 10; s.NextStep = model.StepCoordinator },
			want:  model.StepCoordinator,
		},
		{
			name: "complete terminates",
			setup: func(s *model.ConversationState) {
				s.IsComplete = true
				s.NextStep = model.StepCourseAdvisor
			},
			want: model.StepTerminate,
		},
		{
			name: "human gate beats next step",
			setup: func(s *model.ConversationState) {
				s.RequiresHumanInput = true
				s.NextStep = model.StepLearningPlanner
			},
			want: model.StepAwaitHumanInput,
		},
		{
			name:  "unset next step fails safe",
			setup: func(s *model.ConversationState) {},
			want:  model.StepTerminate,
		},
		{
			name:  "unknown next step fails safe",
			setup: func(s *model.ConversationState) { s.NextStep = model.StepID("researcher") },
			want:  model.StepTerminate,
		},
		{
			name:  "non responder step fails safe",
			setup: func(s *model.ConversationState) { s.NextStep = model.StepAwaitHumanInput },
			want:  model.StepTerminate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState()
			tt.setup(s)
			assert.Equal(t, tt.want, DecideNextStep(s, 10))
		})
	}
}

func TestDecideNilState(t *testing.T) {
	assert.Equal(t, model.StepTerminate, DecideNextStep(nil, 10))
}

func TestSignalFor(t *testing.T) {
	s := newState()
	s.NextStep = model.StepCoordinator
	_, sig := SignalFor(s, 10)
	assert.Equal(t, model.SignalContinue, sig)

	s.RequiresHumanInput = true
	_, sig = SignalFor(s, 10)
	assert.Equal(t, model.SignalHaltAwaitHuman, sig)

	s.LoopCount = 11
	d, sig := SignalFor(s, 10)
	assert.Equal(t, ReasonLoopLimit, d.Reason)
	assert.Equal(t, model.SignalHaltLoopLimit, sig)

	s.IsComplete = true
	_, sig = SignalFor(s, 10)
	assert.Equal(t, model.SignalHaltComplete, sig)

	failSafe := newState()
	_, sig = SignalFor(failSafe, 10)
	assert.Equal(t, model.SignalHaltComplete, sig)
}

var allSteps = []model.StepID{
	"",
	model.StepCoordinator,
	model.StepCourseAdvisor,
	model.StepLearningPlanner,
	model.StepHumanInput,
	model.StepAwaitHumanInput,
	model.StepTerminate,
	"unknown",
}

func drawState(t *rapid.T) *model.ConversationState {
	s := newState()
	s.LoopCount = rapid.IntRange(0, 30).Draw(t, "loop")
	s.IsComplete = rapid.Bool().Draw(t, "complete")
	s.RequiresHumanInput = rapid.Bool().Draw(t, "human")
	s.NextStep = rapid.SampledFrom(allSteps).Draw(t, "next")
	return s
}

func TestDecidePriorityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := drawState(t)
		max := rapid.IntRange(0, 20).Draw(t, "max")
		got := DecideNextStep(s, max)

		switch {
		case s.LoopCount > max:
			if got != model.StepTerminate {
				t.Fatalf("loop %d > %d must terminate, got %s", s.LoopCount, max, got)
			}
		case s.IsComplete:
			if got != model.StepTerminate {
				t.Fatalf("complete must terminate, got %s", got)
			}
		case s.RequiresHumanInput:
			if got != model.StepAwaitHumanInput {
				t.Fatalf("human gate must await, got %s", got)
			}
		case s.NextStep.IsResponder():
			if got != s.NextStep {
				t.Fatalf("want %s, got %s", s.NextStep, got)
			}
		default:
			if got != model.StepTerminate {
				t.Fatalf("fail-safe must terminate, got %s", got)
			}
		}
	})
}

func TestDecideIsPureProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := drawState(t)
		before := s.Clone()
		first := DecideNextStep(s, 10)
		second := DecideNextStep(s, 10)

		if first != second {
			t.Fatalf("same state routed to %s then %s", first, second)
		}
		if s.LoopCount != before.LoopCount || s.NextStep != before.NextStep ||
			s.IsComplete != before.IsComplete || s.RequiresHumanInput != before.RequiresHumanInput {
			t.Fatalf("routing mutated the state")
		}
	})
}
