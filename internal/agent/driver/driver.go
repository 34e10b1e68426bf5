package driver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/it-worker-club/study-agent/internal/agent/graph/consistency"
	"github.com/it-worker-club/study-agent/internal/agent/graph/conversations"
	"github.com/it-worker-club/study-agent/internal/agent/graph/routing"
	"github.com/it-worker-club/study-agent/internal/agent/model"
	"github.com/it-worker-club/study-agent/internal/agent/session"
	errx "github.com/it-worker-club/study-agent/internal/core/error"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

const (
	defaultMaxLoopCount = 10

	serviceUnavailableMessage = "抱歉，AI 服务暂时不可用。请稍后再试。"
	farewellMessage           = "感谢您的使用！如有其他问题，欢迎随时回来。"
	loopLimitMessage          = "对话已达到最大轮次限制。如需继续，请开始新的对话。"
	farewellMarker            = "再见"
)

// Stepper advances a conversation by one step.
type Stepper interface {
	RunStep(ctx context.Context, state *model.ConversationState, maxLoopCount int) (*model.ConversationState, model.Signal, error)
}

type Config struct {
	Controller Stepper
	Sessions   *session.Manager
	// Detector decides whether text typed at a pending gate is a topic switch.
	Detector *conversations.TopicDetector
	Flow     model.FlowConfig
}

// TurnResult is what one user turn produced.
type TurnResult struct {
	State   *model.ConversationState `json:"state"`
	Signal  model.Signal             `json:"signal"`
	Replies []model.Message          `json:"replies"`
}

// Driver feeds user input into the flow and runs it until it halts.
type Driver struct {
	stepper  Stepper
	sessions *session.Manager
	detector *conversations.TopicDetector
	flow     model.FlowConfig
}

func New(cfg Config) (*Driver, error) {
	if cfg.Controller == nil {
		return nil, fmt.Errorf("driver: controller is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("driver: session manager is required")
	}
	if cfg.Detector == nil {
		cfg.Detector = conversations.NewTopicDetector(conversations.DefaultMarkers())
	}
	if cfg.Flow.MaxLoopCount <= 0 {
		cfg.Flow.MaxLoopCount = defaultMaxLoopCount
	}
	return &Driver{
		stepper:  cfg.Controller,
		sessions: cfg.Sessions,
		detector: cfg.Detector,
		flow:     cfg.Flow,
	}, nil
}

// Start opens a new conversation for the profile.
func (d *Driver) Start(ctx context.Context, profile model.UserProfile) (*model.ConversationState, error) {
	return d.sessions.LoadOrCreate(ctx, uuid.NewString(), profile)
}

// Get returns the stored conversation.
func (d *Driver) Get(ctx context.Context, conversationID string) (*model.ConversationState, error) {
	return d.sessions.Load(ctx, conversationID)
}

// Delete drops the stored conversation.
func (d *Driver) Delete(ctx context.Context, conversationID string) error {
	return d.sessions.Delete(ctx, conversationID)
}

// List returns the ids of stored conversations.
func (d *Driver) List(ctx context.Context) ([]string, error) {
	return d.sessions.List(ctx)
}

// Health reports on the stored conversation. With per-turn limits the loop
// checks are relative to the next turn.
func (d *Driver) Health(ctx context.Context, conversationID string) (consistency.HealthReport, error) {
	state, err := d.sessions.Load(ctx, conversationID)
	if err != nil {
		return consistency.HealthReport{}, err
	}
	limit := d.flow.MaxLoopCount
	if d.flow.PerTurn {
		limit += state.LoopCount
	}
	return consistency.HealthCheck(state, limit), nil
}

// Restart replaces the conversation with a fresh one that keeps the user profile.
func (d *Driver) Restart(ctx context.Context, conversationID string) (*model.ConversationState, error) {
	var fresh *model.ConversationState
	err := d.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		old, err := d.sessions.Repository().Load(ctx, conversationID)
		if err != nil {
			return err
		}
		fresh = model.NewConversationState(conversationID, old.UserProfile)
		return d.sessions.Repository().Save(ctx, fresh)
	})
	if err != nil {
		return nil, err
	}
	logx.Info().Str("conversation_id", conversationID).Msg("Conversation restarted")
	return fresh, nil
}

// Send delivers one user turn and runs the flow until it halts. An unknown id
// starts a new conversation; a completed one is never resumed.
func (d *Driver) Send(ctx context.Context, conversationID, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errx.New(fmt.Errorf("empty message"), http.StatusBadRequest, "message must not be empty")
	}

	var result *TurnResult
	_, err := d.sessions.Update(ctx, conversationID, model.UserProfile{}, func(ctx context.Context, state *model.ConversationState) error {
		if state.IsComplete {
			return errx.ErrConversationClosed
		}
		var err error
		result, err = d.runTurn(ctx, state, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runTurn is called with the conversation lock held.
func (d *Driver) runTurn(ctx context.Context, state *model.ConversationState, text string) (*TurnResult, error) {
	mark := len(state.Messages)
	d.accept(state, text)

	maxLoop := d.flow.MaxLoopCount
	if d.flow.PerTurn {
		maxLoop += state.LoopCount
	}
	repo := d.sessions.Repository()

	signal := model.SignalContinue
	for !signal.IsHalt() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, sig, err := d.stepper.RunStep(ctx, state, maxLoop)
		if next == nil {
			next = state
		}
		switch {
		case err == nil:
		case errx.IsResponderFailure(err):
			logx.Error().Err(err).
				Str("conversation_id", state.ConversationID).
				Int("loop_count", next.LoopCount).
				Msg("Responder failed; waiting for the user")
			next.AddAssistantMessage(serviceUnavailableMessage, model.StepCoordinator)
			next.HumanFeedback = ""
			next.RequestHumanInput()
			_, sig = routing.SignalFor(next, maxLoop)
		default:
			return nil, fmt.Errorf("advance conversation %s: %w", state.ConversationID, err)
		}
		if next != state {
			*state = *next
		}
		signal = sig

		if err := repo.Save(ctx, state); err != nil {
			return nil, fmt.Errorf("save conversation: %w", err)
		}
	}

	d.finish(state, signal)

	logx.Info().
		Str("conversation_id", state.ConversationID).
		Str("signal", string(signal)).
		Int("loop_count", state.LoopCount).
		Msg("Turn finished")

	return &TurnResult{
		State:   state,
		Signal:  signal,
		Replies: repliesSince(state, mark),
	}, nil
}

// accept records the incoming text. At a pending gate the text is feedback,
// unless it switches topic, in which case the gate is abandoned.
func (d *Driver) accept(state *model.ConversationState, text string) {
	if state.RequiresHumanInput && !d.interrupts(state, text) {
		state.HumanFeedback = text
		return
	}
	if state.RequiresHumanInput {
		logx.Debug().Str("conversation_id", state.ConversationID).Msg("Topic switch at the feedback gate")
		state.ClearHumanInput()
	}
	state.AddMessage(model.RoleUser, text, "")
	state.NextStep = model.StepCoordinator
}

func (d *Driver) interrupts(state *model.ConversationState, text string) bool {
	switch d.detector.Classify(text) {
	case conversations.TopicNew:
		return true
	case conversations.TopicReturnToPrevious:
		return len(state.TopicStack) > 0
	}
	return false
}

// finish appends the closing message for terminal signals.
func (d *Driver) finish(state *model.ConversationState, signal model.Signal) {
	switch signal {
	case model.SignalHaltComplete:
		if last, ok := state.LastMessage(); !ok || !strings.Contains(last.Content, farewellMarker) {
			state.AddAssistantMessage(farewellMessage, model.StepTerminate)
		}
		state.MarkComplete()
	case model.SignalHaltLoopLimit:
		state.AddAssistantMessage(loopLimitMessage, model.StepTerminate)
		state.MarkComplete()
	}
}

func repliesSince(state *model.ConversationState, mark int) []model.Message {
	replies := []model.Message{}
	if mark > len(state.Messages) {
		return replies
	}
	for _, m := range state.Messages[mark:] {
		if m.Role == model.RoleAssistant {
			replies = append(replies, m)
		}
	}
	return replies
}

// IsClosed reports whether err means the conversation already ended.
func IsClosed(err error) bool {
	return errors.Is(err, errx.ErrConversationClosed)
}
