// Package repotest holds the behaviour every ConversationRepository must share.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	errx "github.com/it-worker-club/study-agent/internal/core/error"
)

// SampleState returns a state exercising every persisted field.
func SampleState(id string) *model.ConversationState {
	s := model.NewConversationState(id, model.UserProfile{
		UserID:           "user-1",
		Background:       "后端工程师",
		SkillLevel:       model.SkillIntermediate,
		TimeAvailability: "每周10小时",
	})
	s.UserProfile.AddLearningGoal("数据分析")
	s.AddMessage(model.RoleUser, "推荐Python课程", "")
	s.AddAssistantMessage("让我为您查找相关课程...", model.StepCoordinator)
	courses := []model.CourseInfo{
		{Title: "Python 编程入门", URL: "https://learn.example.com/courses/python-basics", Difficulty: "beginner", Rating: 4.8},
		{Title: "Python 数据分析实战", URL: "https://learn.example.com/courses/python-data-analysis", Rating: 4.7},
	}
	s.CourseCandidates = courses
	s.CurrentTask = "推荐Python课程"
	s.LearningPlan = &model.LearningPlan{
		Goal:               "数据分析",
		Milestones:         []model.Milestone{{Title: "基础入门", EstimatedDuration: "2-3周", Resources: []string{"Python 编程入门"}}},
		RecommendedCourses: model.CloneCourses(courses),
		CandidateRefs:      model.CourseRefs(courses),
		EstimatedDuration:  "2-3个月",
		CreatedAt:          model.Now(),
		Status:             model.PlanDraft,
	}
	s.TopicStack = append(s.TopicStack, s.Snapshot())
	s.TopicCursor = 1
	s.LoopCount = 7
	s.RequestHumanInput()
	return s
}

// RunRepositoryContract runs the shared behaviour checks against repositories
// produced by newRepo. Each subtest gets a fresh repository.
func RunRepositoryContract(t *testing.T, newRepo func(t *testing.T) model.ConversationRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("load unknown", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Load(ctx, "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, errx.ErrConversationNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		r := newRepo(t)
		want := SampleState("conv-round-trip")
		require.NoError(t, r.Save(ctx, want))

		got, err := r.Load(ctx, want.ConversationID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("save replaces", func(t *testing.T) {
		r := newRepo(t)
		s := SampleState("conv-replace")
		require.NoError(t, r.Save(ctx, s))

		s.LoopCount++
		s.MarkComplete()
		s.UpdatedAt = s.UpdatedAt.Add(time.Second)
		require.NoError(t, r.Save(ctx, s))

		got, err := r.Load(ctx, s.ConversationID)
		require.NoError(t, err)
		assert.Equal(t, 8, got.LoopCount)
		assert.True(t, got.IsComplete)
		assert.False(t, got.RequiresHumanInput)
	})

	t.Run("loaded state is detached", func(t *testing.T) {
		r := newRepo(t)
		s := SampleState("conv-detached")
		require.NoError(t, r.Save(ctx, s))

		got, err := r.Load(ctx, s.ConversationID)
		require.NoError(t, err)
		got.Messages[0].Content = "changed"
		got.TopicStack[0].CurrentTask = "changed"

		again, err := r.Load(ctx, s.ConversationID)
		require.NoError(t, err)
		assert.Equal(t, "推荐Python课程", again.Messages[0].Content)
		assert.Equal(t, "推荐Python课程", again.TopicStack[0].CurrentTask)
	})

	t.Run("delete", func(t *testing.T) {
		r := newRepo(t)
		s := SampleState("conv-delete")
		require.NoError(t, r.Save(ctx, s))
		require.NoError(t, r.Delete(ctx, s.ConversationID))

		_, err := r.Load(ctx, s.ConversationID)
		assert.ErrorIs(t, err, errx.ErrConversationNotFound)
		assert.NoError(t, r.Delete(ctx, "never-stored"))
	})

	t.Run("list", func(t *testing.T) {
		r := newRepo(t)
		for _, id := range []string{"conv-a", "conv-b", "conv-c"} {
			require.NoError(t, r.Save(ctx, SampleState(id)))
		}
		require.NoError(t, r.Delete(ctx, "conv-b"))

		ids, err := r.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"conv-a", "conv-c"}, ids)
	})
}
