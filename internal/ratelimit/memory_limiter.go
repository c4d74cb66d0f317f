package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// MemoryLimiter is a mutex-guarded fixed-window limiter used when Redis is
// not configured, and by tests.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewMemoryLimiter builds an in-process limiter.
func NewMemoryLimiter(limit int, windowSize time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = 60
	}
	if windowSize <= 0 {
		windowSize = time.Minute
	}
	return &MemoryLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		window:  windowSize,
		now:     time.Now,
	}
}

// Allow admits the request unless the key's window is exhausted.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.windows[key] = &window{start: now, count: 1}
		return Decision{Allowed: true, Remaining: l.limit - 1}, nil
	}

	w.count++
	if w.count <= l.limit {
		return Decision{Allowed: true, Remaining: l.limit - w.count}, nil
	}
	retryAfter := l.window - now.Sub(w.start)
	return Decision{Allowed: false, RetryAfter: retryAfter}, nil
}

// SetClock overrides the time source. Test hook.
func (l *MemoryLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
