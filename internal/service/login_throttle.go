package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginFailureKeyPrefix = "login:failures:"

// LoginLimiter counts failed logins per account.
type LoginLimiter interface {
	// Allow reports whether another attempt may be made for key.
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// RedisLoginThrottle keeps failure counters in Redis. The counter window
// starts at the first failure and is not extended by later ones.
type RedisLoginThrottle struct {
	client      redis.Cmdable
	maxAttempts int64
	window      time.Duration
}

// NewRedisLoginThrottle returns a nil limiter when maxAttempts or window
// disable throttling.
func NewRedisLoginThrottle(client redis.Cmdable, maxAttempts int, window time.Duration) LoginLimiter {
	if client == nil || maxAttempts <= 0 || window <= 0 {
		return nil
	}
	return &RedisLoginThrottle{client: client, maxAttempts: int64(maxAttempts), window: window}
}

func (t *RedisLoginThrottle) Allow(ctx context.Context, key string) (bool, error) {
	count, err := t.client.Get(ctx, loginFailureKeyPrefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("read login failures: %w", err)
	}
	return count < t.maxAttempts, nil
}

func (t *RedisLoginThrottle) RecordFailure(ctx context.Context, key string) error {
	redisKey := loginFailureKeyPrefix + key
	count, err := t.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	if count == 1 {
		if err := t.client.Expire(ctx, redisKey, t.window).Err(); err != nil {
			return fmt.Errorf("set login failure window: %w", err)
		}
	}
	return nil
}

func (t *RedisLoginThrottle) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, loginFailureKeyPrefix+key).Err()
}
