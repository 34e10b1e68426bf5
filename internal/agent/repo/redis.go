package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	errx "github.com/it-worker-club/study-agent/internal/core/error"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

// RedisConversationRepository stores each state as one JSON value with a
// sliding TTL, plus a sorted-set index of ids ordered by last update.
type RedisConversationRepository struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewRedisConversationRepository(rdb redis.Cmdable, ttl time.Duration, prefix string) *RedisConversationRepository {
	if prefix == "" {
		prefix = "study-agent"
	}
	return &RedisConversationRepository{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (r *RedisConversationRepository) conversationKey(conversationID string) string {
	return fmt.Sprintf("%s:conversation:%s:state", r.prefix, conversationID)
}

func (r *RedisConversationRepository) indexKey() string {
	return r.prefix + ":conversations"
}

func (r *RedisConversationRepository) Save(ctx context.Context, state *model.ConversationState) error {
	if state == nil {
		return fmt.Errorf("save: nil state")
	}
	b, err := json.Marshal(state)
	if err != nil {
		logx.Error().Err(err).Str("conversation_id", state.ConversationID).Msg("failed to marshal conversation")
		return fmt.Errorf("marshal conversation: %w", err)
	}

	key := r.conversationKey(state.ConversationID)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		// refresh TTL on every write
		pipe.Set(ctx, key, b, r.ttl)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{
			Score:  float64(state.UpdatedAt.UnixMilli()),
			Member: state.ConversationID,
		})
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save conversation to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) Load(ctx context.Context, conversationID string) (*model.ConversationState, error) {
	key := r.conversationKey(conversationID)
	b, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to load conversation from redis")
		}
		return nil, errx.WrapRedis(err)
	}
	return decodeState(conversationID, b)
}

func (r *RedisConversationRepository) Delete(ctx context.Context, conversationID string) error {
	key := r.conversationKey(conversationID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.ZRem(ctx, r.indexKey(), conversationID)
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete conversation from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// List returns ids, most recently updated first. Ids whose state has expired
// are pruned from the index on the way.
func (r *RedisConversationRepository) List(ctx context.Context) ([]string, error) {
	ids, err := r.rdb.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		logx.Error().Err(err).Msg("failed to list conversations from redis")
		return nil, errx.WrapRedis(err)
	}

	live := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := r.rdb.Exists(ctx, r.conversationKey(id)).Result()
		if err != nil {
			return nil, errx.WrapRedis(err)
		}
		if n == 0 {
			if err := r.rdb.ZRem(ctx, r.indexKey(), id).Err(); err != nil {
				logx.Warn().Err(err).Str("conversation_id", id).Msg("failed to prune expired conversation")
			}
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

var _ model.ConversationRepository = (*RedisConversationRepository)(nil)
