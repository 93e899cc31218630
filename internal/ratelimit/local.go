package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	localMaxKeys = 10000
	localIdleTTL = 10 * time.Minute
)

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalBuckets is the in-process fallback used when redis is not configured.
// Limits are per instance.
type LocalBuckets struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	now     func() time.Time
}

func NewLocalBuckets(now func() time.Time) *LocalBuckets {
	if now == nil {
		now = time.Now
	}
	return &LocalBuckets{
		entries: make(map[string]*localEntry),
		now:     now,
	}
}

func (b *LocalBuckets) Allow(key string, r float64, burst int) *RateLimitResult {
	now := b.now()

	b.mu.Lock()
	entry, ok := b.entries[key]
	if !ok {
		if len(b.entries) >= localMaxKeys {
			b.evictIdle(now)
		}
		entry = &localEntry{limiter: rate.NewLimiter(rate.Limit(r), burst)}
		b.entries[key] = entry
	}
	entry.lastSeen = now
	limiter := entry.limiter
	b.mu.Unlock()

	allowed := limiter.AllowN(now, 1)
	return newResult(allowed, burst, limiter.TokensAt(now), r, now)
}

func (b *LocalBuckets) evictIdle(now time.Time) {
	for key, entry := range b.entries {
		if now.Sub(entry.lastSeen) > localIdleTTL {
			delete(b.entries, key)
		}
	}
}

func (b *LocalBuckets) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
