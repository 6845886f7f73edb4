package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is an in-process sliding-window limiter. It is only correct
// for a single instance; deployments with more than one instance use the
// RedisLimiter.
type MemoryLimiter struct {
	conf  Conf
	now   func() time.Time
	mu    sync.Mutex
	hits  map[string][]time.Time
	calls int
}

// NewMemory creates a new MemoryLimiter
func NewMemory(conf Conf) *MemoryLimiter {
	return &MemoryLimiter{
		conf: conf.withDefaults(),
		now:  time.Now,
		hits: make(map[string][]time.Time),
	}
}

// WithClock replaces the time source, for tests
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

// Allow implements the Limiter interface
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	hits := prune(l.hits[key], now.Add(-l.conf.Window))
	res := Result{Limit: l.conf.Max}
	if len(hits) < l.conf.Max {
		hits = append(hits, now)
		res.Allowed = true
	}
	res.Remaining = l.conf.Max - len(hits)
	res.Reset = hits[0].Add(l.conf.Window).Sub(now)
	l.hits[key] = hits

	l.calls++
	if l.calls%1024 == 0 {
		l.sweep(now)
	}
	return res, nil
}

// sweep drops keys whose hits all left the window
func (l *MemoryLimiter) sweep(now time.Time) {
	cutoff := now.Add(-l.conf.Window)
	for k, hits := range l.hits {
		if len(prune(hits, cutoff)) == 0 {
			delete(l.hits, k)
		}
	}
}

// prune returns hits without the entries at or before cutoff; hits is sorted
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}
