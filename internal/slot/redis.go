package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	logx "github.com/convobridge/server/pkg/logger"
)

// RedisStore parks slots in a shared Redis so any server instance can answer
// the fetchresponse poll, and pending replies survive a redeploy.
//
// Get issues GET then DEL rather than a single atomic pair; two concurrent
// polls for one key could both receive the value. The external platform runs
// one serial poller per conversation, so the race is accepted. GETDEL is the
// upgrade path if that ever changes.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) slotKey(key string) string {
	return fmt.Sprintf("pending:%s:response", key)
}

// Put is fire-and-forget: a Redis outage drops the reply and is logged, but
// must never fail the webhook cycle that triggered it.
func (s *RedisStore) Put(ctx context.Context, key, value string) {
	if err := s.rdb.Set(ctx, s.slotKey(key), value, s.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store pending response, reply dropped")
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	rkey := s.slotKey(key)

	value, err := s.rdb.Get(ctx, rkey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logx.Error().Err(err).Str("key", key).Msg("failed to read pending response, treating as absent")
		}
		return "", false
	}

	if err := s.rdb.Del(ctx, rkey).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete consumed response")
	}
	return value, true
}

func (s *RedisStore) PendingKeys(ctx context.Context) []string {
	keys, err := s.rdb.Keys(ctx, s.slotKey("*")).Result()
	if err != nil {
		logx.Error().Err(err).Msg("failed to list pending response keys")
		return nil
	}
	return keys
}

var _ Store = (*RedisStore)(nil)
