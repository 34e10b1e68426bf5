package routing

import (
	"github.com/it-worker-club/study-agent/internal/agent/model"
)

type Reason string

const (
	ReasonLoopLimit  Reason = "loop_limit"
	ReasonComplete   Reason = "complete"
	ReasonAwaitHuman Reason = "await_human"
	ReasonRouted     Reason = "routed"
	ReasonFailSafe   Reason = "fail_safe"
)

// Decision is the routed step and the rule that produced it.
type Decision struct {
	Step   model.StepID
	Reason Reason
}

// Decide applies the routing rules in priority order. It reads the state and
// never mutates it.
func Decide(state *model.ConversationState, maxLoopCount int) Decision {
	switch {
	case state == nil:
		return Decision{Step: model.StepTerminate, Reason: ReasonFailSafe}
	case state.LoopCount > maxLoopCount:
		return Decision{Step: model.StepTerminate, Reason: ReasonLoopLimit}
	case state.IsComplete:
		return Decision{Step: model.StepTerminate, Reason: ReasonComplete}
	case state.RequiresHumanInput:
		return Decision{Step: model.StepAwaitHumanInput, Reason: ReasonAwaitHuman}
	case state.NextStep.IsResponder():
		return Decision{Step: state.NextStep, Reason: ReasonRouted}
	default:
		return Decision{Step: model.StepTerminate, Reason: ReasonFailSafe}
	}
}

// DecideNextStep returns only the routed step of Decide.
func DecideNextStep(state *model.ConversationState, maxLoopCount int) model.StepID {
	return Decide(state, maxLoopCount).Step
}

// SignalFor routes the state and maps the result onto the driver signal.
func SignalFor(state *model.ConversationState, maxLoopCount int) (Decision, model.Signal) {
	d := Decide(state, maxLoopCount)
	switch d.Step {
	case model.StepAwaitHumanInput:
		return d, model.SignalHaltAwaitHuman
	case model.StepTerminate:
		if state != nil && !state.IsComplete && d.Reason == ReasonLoopLimit {
			return d, model.SignalHaltLoopLimit
		}
		return d, model.SignalHaltComplete
	default:
		return d, model.SignalContinue
	}
}
