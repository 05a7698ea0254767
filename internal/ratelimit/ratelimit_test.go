package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryLimiter_BurstThenRefill(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	if !l.Allow(ctx, "u-1") || !l.Allow(ctx, "u-1") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow(ctx, "u-1") {
		t.Fatal("third request inside the window should be limited")
	}
	if !l.Allow(ctx, "u-2") {
		t.Fatal("other keys have their own bucket")
	}

	now = now.Add(30 * time.Second)
	if !l.Allow(ctx, "u-1") {
		t.Fatal("one token should refill after half the window")
	}
}

func TestMemoryLimiter_EvictsIdleKeys(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow(context.Background(), "idle")
	now = now.Add(5 * time.Minute)
	l.Allow(context.Background(), "active")

	if _, ok := l.entries["idle"]; ok {
		t.Error("idle key should have been evicted")
	}
}

func newRedisLimiter(t *testing.T, maxRequests int, window time.Duration) *RedisLimiter {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	l, err := NewRedisLimiter(addr, maxRequests, window)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRedisLimiter(t *testing.T) {
	l := newRedisLimiter(t, 2, time.Minute)

	key := "test:" + uuid.NewString()
	ctx := context.Background()
	if !l.Allow(ctx, key) || !l.Allow(ctx, key) {
		t.Fatal("first two requests should pass")
	}
	if l.Allow(ctx, key) {
		t.Fatal("third request should be limited")
	}
}

func TestRedisLimiter_WindowNotExtendedByLaterHits(t *testing.T) {
	l := newRedisLimiter(t, 1, time.Second)

	key := "test:" + uuid.NewString()
	ctx := context.Background()
	if !l.Allow(ctx, key) {
		t.Fatal("first request should pass")
	}

	time.Sleep(600 * time.Millisecond)
	if l.Allow(ctx, key) {
		t.Fatal("second request inside the window should be limited")
	}

	// Still inside one second of the limited hit, but past the window that
	// opened with the first request.
	time.Sleep(600 * time.Millisecond)
	if !l.Allow(ctx, key) {
		t.Fatal("window should have reset one second after it opened")
	}
}
