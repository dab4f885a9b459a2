// Package ratelimit implements fixed-window request limits keyed by caller.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Defaults for the match endpoint.
const (
	DefaultRequests = 10
	DefaultWindow   = 60 * time.Second
)

type counter struct {
	count     int
	expiresAt time.Time
}

// MemoryLimiter keeps counters in process memory. State is lost on restart
// and is not shared between instances, so limits are per instance.
type MemoryLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	counters map[string]*counter
	now      func() time.Time
}

// NewMemoryLimiter creates a limiter allowing limit requests per window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = DefaultRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryLimiter{
		limit:    limit,
		window:   window,
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// IsRateLimited counts a request for key and reports whether it exceeds the limit.
func (l *MemoryLimiter) IsRateLimited(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.counters[key]
	if !ok || !now.Before(w.expiresAt) {
		l.sweep(now)
		l.counters[key] = &counter{count: 1, expiresAt: now.Add(l.window)}
		return false, nil
	}
	w.count++
	return w.count > l.limit, nil
}

// sweep drops expired windows. Callers hold mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, w := range l.counters {
		if !now.Before(w.expiresAt) {
			delete(l.counters, k)
		}
	}
}
