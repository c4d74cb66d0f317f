package ratelimit

import (
	"context"
	"time"
)

// Decision reports the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits up to a fixed number of requests per key within a window.
// Requests beyond the threshold are rejected with a retry-after hint, not
// queued. Every call counts against the window, including ones that later
// fail downstream.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
