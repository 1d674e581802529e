package memory

import (
	"context"
	"sync"
	"time"
)

const (
	// Above this many tracked keys, expired entries are swept more eagerly.
	maxTrackedKeys = 10000
	minPruneGap    = time.Second
)

type attempt struct {
	count int
	first time.Time
}

// LoginLimiter counts failed logins per key within a window and blocks the
// key for the same window once maxAttempts is reached.
type LoginLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*attempt
	blocked     map[string]time.Time
	maxAttempts int
	window      time.Duration
	now         func() time.Time
	lastPrune   time.Time
}

func NewLoginLimiter(maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginLimiter{
		attempts:    make(map[string]*attempt),
		blocked:     make(map[string]time.Time),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

func (l *LoginLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if until, ok := l.blocked[key]; ok {
		if l.now().Before(until) {
			return false, nil
		}
		delete(l.blocked, key)
		delete(l.attempts, key)
	}
	return true, nil
}

func (l *LoginLimiter) RecordFailure(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybePrune(now)

	a, ok := l.attempts[key]
	if !ok || now.Sub(a.first) > l.window {
		a = &attempt{first: now}
		l.attempts[key] = a
	}
	a.count++
	if a.count >= l.maxAttempts {
		l.blocked[key] = now.Add(l.window)
	}
	return nil
}

func (l *LoginLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
	delete(l.blocked, key)
	return nil
}

// maybePrune sweeps expired counters and blocks once per window, or sooner
// when the maps grow large. Live entries are never dropped.
func (l *LoginLimiter) maybePrune(now time.Time) {
	since := now.Sub(l.lastPrune)
	oversized := len(l.attempts)+len(l.blocked) > maxTrackedKeys
	if since < l.window && !(oversized && since >= minPruneGap) {
		return
	}

	for key, a := range l.attempts {
		if now.Sub(a.first) > l.window {
			delete(l.attempts, key)
		}
	}
	for key, until := range l.blocked {
		if !now.Before(until) {
			delete(l.blocked, key)
		}
	}
	l.lastPrune = now
}
