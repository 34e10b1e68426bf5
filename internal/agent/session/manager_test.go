package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	"github.com/it-worker-club/study-agent/internal/agent/repo"
)

func TestLoadOrCreate(t *testing.T) {
	m := NewManager(repo.NewMemoryConversationRepository())
	ctx := context.Background()

	s, err := m.LoadOrCreate(ctx, "conv-1", model.UserProfile{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "conv-1", s.ConversationID)
	assert.Equal(t, "u1", s.UserProfile.UserID)

	s.LoopCount = 3
	require.NoError(t, m.Save(ctx, s))

	again, err := m.LoadOrCreate(ctx, "conv-1", model.UserProfile{UserID: "other"})
	require.NoError(t, err)
	assert.Equal(t, 3, again.LoopCount)
	assert.Equal(t, "u1", again.UserProfile.UserID)
}

func TestUpdateSerializesReadModifyWrite(t *testing.T) {
	m := NewManager(repo.NewMemoryConversationRepository())
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Update(ctx, "conv-race", model.UserProfile{}, func(_ context.Context, s *model.ConversationState) error {
				n := s.LoopCount
				time.Sleep(time.Millisecond)
				s.LoopCount = n + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := m.Load(ctx, "conv-race")
	require.NoError(t, err)
	assert.Equal(t, writers, s.LoopCount)
	assert.Zero(t, m.activeLocks())
}

func TestUpdateDoesNotSaveOnError(t *testing.T) {
	m := NewManager(repo.NewMemoryConversationRepository())
	ctx := context.Background()
	_, err := m.LoadOrCreate(ctx, "conv-err", model.UserProfile{})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = m.Update(ctx, "conv-err", model.UserProfile{}, func(_ context.Context, s *model.ConversationState) error {
		s.LoopCount = 99
		return boom
	})
	require.ErrorIs(t, err, boom)

	s, err := m.Load(ctx, "conv-err")
	require.NoError(t, err)
	assert.Zero(t, s.LoopCount)
}

func TestIndependentConversationsDoNotBlock(t *testing.T) {
	m := NewManager(repo.NewMemoryConversationRepository())
	ctx := context.Background()

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.WithLock(ctx, "a", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	done := make(chan error, 1)
	go func() {
		done <- m.WithLock(ctx, "b", func(context.Context) error { return nil })
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	close(release)
}

func TestWithLockCancelledContext(t *testing.T) {
	m := NewManager(repo.NewMemoryConversationRepository())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := m.WithLock(ctx, "x", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestDeleteAndList(t *testing.T) {
	m := NewManager(repo.NewMemoryConversationRepository())
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		_, err := m.LoadOrCreate(ctx, id, model.UserProfile{})
		require.NoError(t, err)
	}
	require.NoError(t, m.Delete(ctx, "a"))

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}
