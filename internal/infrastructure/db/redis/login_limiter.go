package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter keeps failed-login counters in Redis so every API instance
// sees the same throttling state.
// Key format: login:fail:<key> (counter), login:block:<key> (flag)
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewLoginLimiter creates a LoginLimiter wrapping the given Redis client.
func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginLimiter{client: client, maxAttempts: int64(maxAttempts), window: window}
}

// Allow reports whether key is currently not blocked.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, blockKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("login limiter check: %w", err)
	}
	return n == 0, nil
}

// RecordFailure bumps the counter and sets the block flag once the threshold
// is reached. The counter expires one window after the first failure.
func (l *LoginLimiter) RecordFailure(ctx context.Context, key string) error {
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, failKey(key))
		pipe.ExpireNX(ctx, failKey(key), l.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("login limiter record: %w", err)
	}

	if incr.Val() >= l.maxAttempts {
		if err := l.client.Set(ctx, blockKey(key), "1", l.window).Err(); err != nil {
			return fmt.Errorf("login limiter block: %w", err)
		}
	}
	return nil
}

// Reset clears counter and block flag (used on successful login).
func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, failKey(key), blockKey(key)).Err()
}

func failKey(key string) string  { return fmt.Sprintf("login:fail:%s", key) }
func blockKey(key string) string { return fmt.Sprintf("login:block:%s", key) }
