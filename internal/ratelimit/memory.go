// Package ratelimit throttles expensive gateway operations (a search makes
// the backend scrape live stores) per user or client address.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type memoryEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryLimiter is the single-instance fallback used when no Redis address
// is configured. Each key gets a token bucket refilled at maxRequests per
// window.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

func NewMemoryLimiter(maxRequests int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		entries: make(map[string]*memoryEntry),
		limit:   rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:   maxRequests,
		idleTTL: 2 * window,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictIdle(now)

	entry, ok := l.entries[key]
	if !ok {
		entry = &memoryEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastAccess = now
	return entry.limiter.AllowN(now, 1)
}

func (l *MemoryLimiter) evictIdle(now time.Time) {
	for key, e := range l.entries {
		if now.Sub(e.lastAccess) > l.idleTTL {
			delete(l.entries, key)
		}
	}
}
