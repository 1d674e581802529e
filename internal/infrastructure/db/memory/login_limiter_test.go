package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLoginLimiter_BlocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	l := NewLoginLimiter(3, time.Minute)
	ip := "127.0.0.1"

	for i := 0; i < 2; i++ {
		_ = l.RecordFailure(ctx, ip)
	}
	if ok, _ := l.Allow(ctx, ip); !ok {
		t.Fatal("expected allowed below threshold")
	}

	_ = l.RecordFailure(ctx, ip)
	if ok, _ := l.Allow(ctx, ip); ok {
		t.Fatal("expected blocked at threshold")
	}

	if ok, _ := l.Allow(ctx, "10.0.0.9"); !ok {
		t.Fatal("other keys must not be affected")
	}
}

func TestLoginLimiter_ResetClears(t *testing.T) {
	ctx := context.Background()
	l := NewLoginLimiter(1, time.Minute)

	_ = l.RecordFailure(ctx, "ip")
	_ = l.Reset(ctx, "ip")

	if ok, _ := l.Allow(ctx, "ip"); !ok {
		t.Fatal("expected allowed after reset")
	}
}

func TestLoginLimiter_BlockExpires(t *testing.T) {
	ctx := context.Background()
	l := NewLoginLimiter(1, time.Minute)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_ = l.RecordFailure(ctx, "ip")
	if ok, _ := l.Allow(ctx, "ip"); ok {
		t.Fatal("expected blocked")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := l.Allow(ctx, "ip"); !ok {
		t.Fatal("expected block to expire")
	}
}

func TestLoginLimiter_WindowRestartsCount(t *testing.T) {
	ctx := context.Background()
	l := NewLoginLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_ = l.RecordFailure(ctx, "ip")
	now = now.Add(90 * time.Second)
	_ = l.RecordFailure(ctx, "ip")

	if ok, _ := l.Allow(ctx, "ip"); !ok {
		t.Fatal("failures in separate windows must not accumulate")
	}
}

func TestLoginLimiter_Parallel(t *testing.T) {
	ctx := context.Background()
	l := NewLoginLimiter(5, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.RecordFailure(ctx, "10.0.0.1")
		}()
	}
	wg.Wait()

	if ok, _ := l.Allow(ctx, "10.0.0.1"); ok {
		t.Fatal("expected blocked after concurrent failures")
	}
}

func TestLoginLimiter_PrunesExpiredEntries(t *testing.T) {
	ctx := context.Background()
	l := NewLoginLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_ = l.RecordFailure(ctx, "blocked-ip")
	_ = l.RecordFailure(ctx, "blocked-ip")
	_ = l.RecordFailure(ctx, "counted-ip")

	now = now.Add(2 * time.Minute)
	_ = l.RecordFailure(ctx, "fresh-ip")

	if len(l.blocked) != 0 {
		t.Fatalf("expired blocks must be swept, got %v", l.blocked)
	}
	if _, ok := l.attempts["fresh-ip"]; !ok || len(l.attempts) != 1 {
		t.Fatalf("only the live counter should remain, got %d entries", len(l.attempts))
	}
}

func TestLoginLimiter_ManyKeysKeepLiveCounters(t *testing.T) {
	ctx := context.Background()
	l := NewLoginLimiter(3, time.Minute)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_ = l.RecordFailure(ctx, "victim")
	_ = l.RecordFailure(ctx, "victim")

	for i := 0; i < maxTrackedKeys+5; i++ {
		now = now.Add(time.Millisecond)
		_ = l.RecordFailure(ctx, fmt.Sprintf("10.%d.%d.%d", i>>16&255, i>>8&255, i&255))
	}

	_ = l.RecordFailure(ctx, "victim")
	if ok, _ := l.Allow(ctx, "victim"); ok {
		t.Fatal("flooding other keys must not reset a live counter")
	}
}
