package nodes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/it-worker-club/study-agent/internal/agent/graph/consistency"
	"github.com/it-worker-club/study-agent/internal/agent/graph/conversations"
	"github.com/it-worker-club/study-agent/internal/agent/graph/routing"
	"github.com/it-worker-club/study-agent/internal/agent/model"
	errx "github.com/it-worker-club/study-agent/internal/core/error"
	"github.com/it-worker-club/study-agent/internal/metrics"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

const (
	NodeInputConverter = "InputConverter"
	NodeTopicSwitch    = "TopicSwitch"
	NodeDispatcher     = "Dispatcher"
	NodeBookkeeping    = "Bookkeeping"
	NodeRouter         = "Router"
)

// Deps are the collaborators shared by the flow nodes.
type Deps struct {
	Responders map[model.StepID]model.Responder
	Detector   *conversations.TopicDetector
	Metrics    *metrics.Recorder
}

// NewInputConverterPreHandler copies the per-call settings into the local state.
func NewInputConverterPreHandler() func(context.Context, model.StepInput, *model.FlowState) (model.StepInput, error) {
	return func(ctx context.Context, in model.StepInput, s *model.FlowState) (model.StepInput, error) {
		if in.State != nil {
			s.ConversationID = in.State.ConversationID
		}
		s.MaxLoopCount = in.MaxLoopCount
		return in, nil
	}
}

// NewInputConverterNode unwraps the conversation state from the step input.
func NewInputConverterNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.StepInput) (*model.ConversationState, error) {
		if in.State == nil {
			return nil, fmt.Errorf("step input has no conversation state")
		}
		return in.State, nil
	})
}

// NewTopicSwitchNode applies a topic switch found in the newest user message.
// Feedback waiting at the human-input gate is left alone.
func NewTopicSwitchNode(d Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		if state.RequiresHumanInput && state.HumanFeedback != "" {
			return state, nil
		}
		sw, idx := d.Detector.Detect(state)
		conversations.MarkInspected(state, idx)
		if !conversations.ApplyTopicSwitch(state, sw) {
			return state, nil
		}
		d.Metrics.TopicSwitch(string(sw))
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Str("topic_switch", string(sw)).
			Msg("Topic switch applied; skipping responder this step")
		err := compose.ProcessState(ctx, func(_ context.Context, fs *model.FlowState) error {
			fs.TopicSwitch = string(sw)
			return nil
		})
		return state, err
	})
}

// NewTopicSwitchCondition skips the dispatcher on a step that switched topics.
func NewTopicSwitchCondition() func(context.Context, *model.ConversationState) (string, error) {
	return func(ctx context.Context, _ *model.ConversationState) (string, error) {
		switched := false
		err := compose.ProcessState(ctx, func(_ context.Context, fs *model.FlowState) error {
			switched = fs.TopicSwitch != ""
			return nil
		})
		if err != nil {
			return "", err
		}
		if switched {
			return NodeBookkeeping, nil
		}
		return NodeDispatcher, nil
	}
}

// dispatchTarget picks the responder for this step. Feedback waiting at the
// gate always goes to the human-input responder.
func dispatchTarget(state *model.ConversationState, max int) (model.StepID, bool) {
	if state.RequiresHumanInput && state.HumanFeedback != "" && !state.IsComplete {
		return model.StepHumanInput, true
	}
	d := routing.Decide(state, max)
	return d.Step, d.Step.IsResponder()
}

// NewDispatcherNode runs the routed responder. A failing responder does not
// abort the step: the error is kept in the local state and reported by the router.
func NewDispatcherNode(d Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		var max int
		if err := compose.ProcessState(ctx, func(_ context.Context, fs *model.FlowState) error {
			max = fs.MaxLoopCount
			return nil
		}); err != nil {
			return nil, err
		}

		target, ok := dispatchTarget(state, max)
		if !ok {
			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Str("route", string(target)).
				Msg("No responder to dispatch")
			return state, nil
		}
		responder, found := d.Responders[target]
		if !found {
			return nil, errx.New(fmt.Errorf("no responder registered for %s", target), http.StatusInternalServerError, errx.SystemErrorMessage)
		}

		// the responder decides the next step; a stale value must not leak through
		state.NextStep = ""
		started := time.Now()
		result, err := invokeResponder(ctx, responder, state)
		d.Metrics.ObserveStep(string(target), time.Since(started))
		d.Metrics.Step(string(target))
		if err != nil {
			d.Metrics.ResponderFailure(string(target))
			logx.Error().Err(err).
				Str("conversation_id", state.ConversationID).
				Str("step", string(target)).
				Msg("Responder failed")
			if target == model.StepHumanInput {
				// feedback is read once, even when the read fails
				state.HumanFeedback = ""
			}
		}

		perr := compose.ProcessState(ctx, func(_ context.Context, fs *model.FlowState) error {
			fs.Executed = target
			fs.Completion = result
			fs.Failure = err
			return nil
		})
		return state, perr
	})
}

// NewBookkeepingNode appends completion summaries, counts the step and
// repairs any cross-field inconsistency.
func NewBookkeepingNode(d Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		var (
			completion *model.SubtaskResult
			executed   model.StepID
		)
		if err := compose.ProcessState(ctx, func(_ context.Context, fs *model.FlowState) error {
			completion, executed = fs.Completion, fs.Executed
			return nil
		}); err != nil {
			return nil, err
		}

		if completion != nil {
			conversations.AppendSubtaskSummary(state, *completion, executed)
		}
		state.LoopCount++
		state.UpdatedAt = model.Now()

		report := consistency.Check(state)
		if report.OK() {
			return state, nil
		}
		logx.Warn().
			Str("conversation_id", state.ConversationID).
			Str("violations", report.Description()).
			Msg("State inconsistency detected; remediating")
		fixed := consistency.Remediate(state, report)
		kinds := make([]string, 0, len(report.Violations))
		for _, v := range report.Violations {
			d.Metrics.Violation(string(v.Kind))
			kinds = append(kinds, string(v.Kind))
		}
		logx.Debug().Int("fixed", fixed).Msg("Remediation finished")

		err := compose.ProcessState(ctx, func(_ context.Context, fs *model.FlowState) error {
			fs.Violations = append(fs.Violations, kinds...)
			return nil
		})
		return state, err
	})
}

// NewRouterNode decides where the next call goes and builds the step outcome.
func NewRouterNode(d Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.StepOutcome, error) {
		var fs model.FlowState
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.FlowState) error {
			fs = *s
			return nil
		}); err != nil {
			return nil, err
		}

		decision, signal := routing.SignalFor(state, fs.MaxLoopCount)
		if signal == model.SignalContinue {
			state.NextStep = decision.Step
		} else {
			d.Metrics.Halt(string(signal))
		}

		out := &model.StepOutcome{
			State:       state,
			Route:       decision.Step,
			Signal:      signal,
			TopicSwitch: fs.TopicSwitch,
			Executed:    fs.Executed,
			Completion:  fs.Completion,
			Violations:  fs.Violations,
		}
		if fs.Failure != nil {
			out.Err = errx.ResponderFailure(string(fs.Executed), fs.Failure)
		}
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Int("loop_count", state.LoopCount).
			Str("route", string(decision.Step)).
			Str("reason", string(decision.Reason)).
			Str("signal", string(signal)).
			Msg("Step routed")
		return out, nil
	})
}
