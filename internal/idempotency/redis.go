package idempotency

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps idempotency mappings in redis with a TTL, namespaced by
// scope so different operations do not collide.
type RedisStore struct {
	rdb   *redis.Client
	scope string
	ttl   time.Duration
}

// NewRedisStore creates a RedisStore for the given scope.
func NewRedisStore(rdb *redis.Client, scope string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, scope: scope, ttl: ttl}
}

func (s *RedisStore) key(k string) string {
	return "idemp:" + s.scope + ":" + k
}

// Remember stores the mapping for the configured TTL.
func (s *RedisStore) Remember(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "set idempotency key")
	}
	return nil
}

// Recall returns the remembered value, or ok=false when the key is unknown
// or expired.
func (s *RedisStore) Recall(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "get idempotency key")
	}
	return val, true, nil
}
