package driver

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-worker-club/study-agent/internal/agent/graph"
	"github.com/it-worker-club/study-agent/internal/agent/graph/consistency"
	"github.com/it-worker-club/study-agent/internal/agent/model"
	"github.com/it-worker-club/study-agent/internal/agent/repo"
	"github.com/it-worker-club/study-agent/internal/agent/responders"
	"github.com/it-worker-club/study-agent/internal/agent/session"
	"github.com/it-worker-club/study-agent/internal/core"
	errx "github.com/it-worker-club/study-agent/internal/core/error"
	"github.com/it-worker-club/study-agent/internal/metrics"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

func TestMain(m *testing.M) {
	logx.Init(logx.LoggerOpts{Environment: core.Testing})
	os.Exit(m.Run())
}

func newDriver(t *testing.T, rs map[model.StepID]model.Responder, flow model.FlowConfig) *Driver {
	t.Helper()
	ctrl, err := graph.NewController(context.Background(), graph.Config{
		Responders: rs,
		Metrics:    metrics.NewRecorder(),
	})
	require.NoError(t, err)

	d, err := New(Config{
		Controller: ctrl,
		Sessions:   session.NewManager(repo.NewMemoryConversationRepository()),
		Flow:       flow,
	})
	require.NoError(t, err)
	return d
}

func ruleDriver(t *testing.T) *Driver {
	return newDriver(t, responders.NewRegistry(responders.Options{}), model.FlowConfig{MaxLoopCount: 10, PerTurn: true})
}

// withOverride returns the rule-based responders with one step replaced.
func withOverride(step model.StepID, fn model.ResponderFunc) map[model.StepID]model.Responder {
	rs := responders.NewRegistry(responders.Options{})
	rs[step] = fn
	return rs
}

func contents(msgs []model.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}

func TestFullConversation(t *testing.T) {
	ctx := context.Background()
	d := ruleDriver(t)

	res, err := d.Send(ctx, "conv-1", "推荐Python课程")
	require.NoError(t, err)
	assert.Equal(t, model.SignalHaltAwaitHuman, res.Signal)
	assert.NotEmpty(t, res.State.CourseCandidates)
	assert.True(t, res.State.RequiresHumanInput)
	assert.NotEmpty(t, res.Replies)
	for _, m := range res.Replies {
		assert.Equal(t, model.RoleAssistant, m.Role)
	}

	res, err = d.Send(ctx, "conv-1", "满意")
	require.NoError(t, err)
	assert.Equal(t, model.SignalHaltAwaitHuman, res.Signal)
	assert.Equal(t, responders.TaskCourseRecommendationsDone, res.State.CurrentTask)

	res, err = d.Send(ctx, "conv-1", "好的，请帮我制定学习计划")
	require.NoError(t, err)
	assert.Equal(t, model.SignalHaltAwaitHuman, res.Signal)
	require.NotNil(t, res.State.LearningPlan)
	assert.Equal(t, model.PlanDraft, res.State.LearningPlan.Status)
	assert.Equal(t, model.StepHumanInput, res.State.NextStep)

	res, err = d.Send(ctx, "conv-1", "同意")
	require.NoError(t, err)
	assert.Equal(t, model.SignalHaltComplete, res.Signal)
	assert.True(t, res.State.IsComplete)
	assert.Equal(t, model.PlanApproved, res.State.LearningPlan.Status)
	assert.Contains(t, contents(res.Replies), "学习计划已确认，祝您学习顺利！再见")
	assert.NotContains(t, contents(res.Replies), farewellMessage)

	stored, err := d.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.True(t, stored.IsComplete)
	assert.Equal(t, res.State.LoopCount, stored.LoopCount)

	_, err = d.Send(ctx, "conv-1", "还在吗")
	require.ErrorIs(t, err, errx.ErrConversationClosed)
	assert.True(t, IsClosed(err))
}

func TestLoopCountIsMonotonicAcrossTurns(t *testing.T) {
	ctx := context.Background()
	d := ruleDriver(t)

	prev := 0
	for _, text := range []string{"推荐Python课程", "满意", "好的，请帮我制定学习计划"} {
		res, err := d.Send(ctx, "conv-mono", text)
		require.NoError(t, err)
		assert.Greater(t, res.State.LoopCount, prev)
		prev = res.State.LoopCount
	}
}

func TestLoopLimitEndsConversation(t *testing.T) {
	ctx := context.Background()
	spin := model.ResponderFunc(func(_ context.Context, s *model.ConversationState) (*model.SubtaskResult, error) {
		s.NextStep = model.StepCoordinator
		return nil, nil
	})
	d := newDriver(t, withOverride(model.StepCoordinator, spin), model.FlowConfig{MaxLoopCount: 3})

	res, err := d.Send(ctx, "conv-loop", "推荐Python课程")
	require.NoError(t, err)
	assert.Equal(t, model.SignalHaltLoopLimit, res.Signal)
	assert.Equal(t, 4, res.State.LoopCount)
	assert.True(t, res.State.IsComplete)
	last, _ := res.State.LastMessage()
	assert.Equal(t, loopLimitMessage, last.Content)

	_, err = d.Send(ctx, "conv-loop", "继续")
	assert.ErrorIs(t, err, errx.ErrConversationClosed)
}

func TestPerTurnLimitCountsFromTurnStart(t *testing.T) {
	ctx := context.Background()
	d := newDriver(t, responders.NewRegistry(responders.Options{}), model.FlowConfig{MaxLoopCount: 3, PerTurn: true})

	res, err := d.Send(ctx, "conv-turns", "推荐Python课程")
	require.NoError(t, err)
	require.Equal(t, model.SignalHaltAwaitHuman, res.Signal)
	require.Equal(t, 3, res.State.LoopCount)

	res, err = d.Send(ctx, "conv-turns", "满意")
	require.NoError(t, err)
	assert.Equal(t, model.SignalHaltAwaitHuman, res.Signal)
	assert.False(t, res.State.IsComplete)
}

func TestResponderFailureWaitsForUser(t *testing.T) {
	ctx := context.Background()
	failing := model.ResponderFunc(func(context.Context, *model.ConversationState) (*model.SubtaskResult, error) {
		return nil, errors.New("model unavailable")
	})
	d := newDriver(t, withOverride(model.StepCoordinator, failing), model.FlowConfig{MaxLoopCount: 10, PerTurn: true})

	res, err := d.Send(ctx, "conv-fail", "推荐Python课程")
	require.NoError(t, err)
	assert.Equal(t, model.SignalHaltAwaitHuman, res.Signal)
	assert.True(t, res.State.RequiresHumanInput)
	assert.Equal(t, model.StepHumanInput, res.State.NextStep)
	assert.Equal(t, 1, res.State.LoopCount)
	assert.False(t, res.State.IsComplete)
	assert.Equal(t, []string{serviceUnavailableMessage}, contents(res.Replies))

	stored, err := d.Get(ctx, "conv-fail")
	require.NoError(t, err)
	assert.True(t, stored.RequiresHumanInput)
}

func TestResponderFailureAtGateDropsFeedback(t *testing.T) {
	ctx := context.Background()
	rs := responders.NewRegistry(responders.Options{})
	gate := rs[model.StepHumanInput]
	rs[model.StepHumanInput] = model.ResponderFunc(func(ctx context.Context, state *model.ConversationState) (*model.SubtaskResult, error) {
		if state.HumanFeedback == "" {
			return gate.Respond(ctx, state)
		}
		panic("feedback classifier crashed")
	})
	d := newDriver(t, rs, model.FlowConfig{MaxLoopCount: 10, PerTurn: true})

	res, err := d.Send(ctx, "conv-gate-fail", "推荐Python课程")
	require.NoError(t, err)
	require.Equal(t, model.SignalHaltAwaitHuman, res.Signal)

	res, err = d.Send(ctx, "conv-gate-fail", "满意")
	require.NoError(t, err)
	assert.Equal(t, model.SignalHaltAwaitHuman, res.Signal)
	assert.True(t, res.State.RequiresHumanInput)
	assert.Empty(t, res.State.HumanFeedback)
	assert.Equal(t, []string{serviceUnavailableMessage}, contents(res.Replies))

	stored, err := d.Get(ctx, "conv-gate-fail")
	require.NoError(t, err)
	assert.Empty(t, stored.HumanFeedback)
	assert.True(t, stored.RequiresHumanInput)
}

func TestTopicSwitchAtGateInterruptsFeedback(t *testing.T) {
	ctx := context.Background()
	d := ruleDriver(t)

	_, err := d.Send(ctx, "conv-topic", "推荐Python课程")
	require.NoError(t, err)

	res, err := d.Send(ctx, "conv-topic", "换个话题，另外我还想问Go后端课程")
	require.NoError(t, err)
	assert.Empty(t, res.State.HumanFeedback)
	require.Len(t, res.State.TopicStack, 1)
	assert.Equal(t, "推荐Python课程", res.State.TopicStack[0].CurrentTask)
	assert.Equal(t, "Go 语言后端开发", res.State.CourseCandidates[0].Title)

	res, err = d.Send(ctx, "conv-topic", "回到之前的话题")
	require.NoError(t, err)
	assert.Empty(t, res.State.TopicStack)
	assert.Equal(t, "推荐Python课程", res.State.CurrentTask)
	assert.Equal(t, model.SignalHaltAwaitHuman, res.Signal)
}

func TestReturnMarkerWithEmptyStackIsFeedback(t *testing.T) {
	ctx := context.Background()
	d := ruleDriver(t)

	_, err := d.Send(ctx, "conv-back", "推荐Python课程")
	require.NoError(t, err)

	res, err := d.Send(ctx, "conv-back", "刚才那些不错")
	require.NoError(t, err)
	assert.Equal(t, responders.TaskCourseRecommendationsDone, res.State.CurrentTask)
	msg, _, ok := res.State.LastUserMessage()
	require.True(t, ok)
	assert.Equal(t, model.StepHumanInput, msg.Step)
}

func TestRestartKeepsProfile(t *testing.T) {
	ctx := context.Background()
	d := ruleDriver(t)

	profile := model.UserProfile{UserID: "u1", SkillLevel: model.SkillBeginner, LearningGoals: []string{"Python"}}
	st, err := d.Start(ctx, profile)
	require.NoError(t, err)
	require.NotEmpty(t, st.ConversationID)

	_, err = d.Send(ctx, st.ConversationID, "谢谢，再见")
	require.NoError(t, err)

	fresh, err := d.Restart(ctx, st.ConversationID)
	require.NoError(t, err)
	assert.False(t, fresh.IsComplete)
	assert.Empty(t, fresh.Messages)
	assert.Equal(t, profile, fresh.UserProfile)

	res, err := d.Send(ctx, st.ConversationID, "推荐Python课程")
	require.NoError(t, err)
	assert.False(t, res.State.IsComplete)
}

func TestRestartUnknownConversation(t *testing.T) {
	d := ruleDriver(t)
	_, err := d.Restart(context.Background(), "missing")
	assert.ErrorIs(t, err, errx.ErrConversationNotFound)
}

func TestSendRejectsEmptyText(t *testing.T) {
	d := ruleDriver(t)
	_, err := d.Send(context.Background(), "conv-empty", "   ")
	require.Error(t, err)
	assert.Equal(t, 400, errx.StatusOf(err))
}

func TestSendHonoursCancelledContext(t *testing.T) {
	d := ruleDriver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Send(ctx, "conv-cancel", "推荐Python课程")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHealth(t *testing.T) {
	ctx := context.Background()
	d := ruleDriver(t)
	st, err := d.Start(ctx, model.UserProfile{LearningGoals: []string{"Python"}})
	require.NoError(t, err)
	_, err = d.Send(ctx, st.ConversationID, "推荐Python课程")
	require.NoError(t, err)

	report, err := d.Health(ctx, st.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, consistency.Healthy, report.Health)
	assert.Equal(t, 3, report.LoopCount)

	_, err = d.Health(ctx, "missing")
	assert.ErrorIs(t, err, errx.ErrConversationNotFound)
}
