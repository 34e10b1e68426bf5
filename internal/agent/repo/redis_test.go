package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	"github.com/it-worker-club/study-agent/internal/agent/repo/repotest"
	errx "github.com/it-worker-club/study-agent/internal/core/error"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (*RedisConversationRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisConversationRepository(rdb, ttl, "test"), mr
}

func TestRedisConversationRepository(t *testing.T) {
	repotest.RunRepositoryContract(t, func(t *testing.T) model.ConversationRepository {
		r, _ := newRedisRepo(t, time.Hour)
		return r
	})
}

func TestRedisSaveSetsTTL(t *testing.T) {
	r, mr := newRedisRepo(t, 30*time.Minute)
	s := repotest.SampleState("conv-ttl")
	require.NoError(t, r.Save(context.Background(), s))

	assert.True(t, mr.Exists("test:conversation:conv-ttl:state"))
	assert.Equal(t, 30*time.Minute, mr.TTL("test:conversation:conv-ttl:state"))
}

func TestRedisExpiredConversation(t *testing.T) {
	r, mr := newRedisRepo(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, r.Save(ctx, repotest.SampleState("conv-old")))
	require.NoError(t, r.Save(ctx, repotest.SampleState("conv-new")))

	mr.FastForward(2 * time.Minute)
	require.NoError(t, r.Save(ctx, repotest.SampleState("conv-new")))

	_, err := r.Load(ctx, "conv-old")
	assert.ErrorIs(t, err, errx.ErrConversationNotFound)
	assert.Equal(t, 404, errx.StatusOf(err))

	ids, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"conv-new"}, ids)

	members, err := mr.ZMembers("test:conversations")
	require.NoError(t, err)
	assert.Equal(t, []string{"conv-new"}, members)
}

func TestRedisUnavailable(t *testing.T) {
	r, mr := newRedisRepo(t, time.Minute)
	mr.Close()

	err := r.Save(context.Background(), repotest.SampleState("conv-down"))
	require.Error(t, err)
	assert.Equal(t, 502, errx.StatusOf(err))
}
