package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kalaklub-site/internal/shared/util"
)

const redisKeyPrefix = "ratelimit:"

// RedisStore keeps attempts in Redis. A key lives exactly one cooldown, so an
// existing key means the last attempt is still inside the window.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Admit(ctx context.Context, key string, now time.Time, cooldown time.Duration) (bool, time.Duration, error) {
	k := redisKey(key)
	ok, err := s.rdb.SetNX(ctx, k, now.UnixMilli(), cooldown).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis setnx: %w", err)
	}
	if ok {
		return true, 0, nil
	}
	ttl, err := s.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis pttl: %w", err)
	}
	if ttl < 0 {
		ttl = cooldown
	}
	return false, ttl, nil
}

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func redisKey(key string) string {
	return redisKeyPrefix + util.HashKey(key)
}

var _ Store = (*RedisStore)(nil)
