package ports

import "context"

// LoginLimiter tracks failed login attempts per key (client IP).
type LoginLimiter interface {
	// Allow reports whether key may attempt a login right now.
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
