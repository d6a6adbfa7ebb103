// Package ratelimit spaces outbound requests so consecutive fetches never
// start closer together than a configured minimum interval, with random
// jitter on top to avoid a perfectly periodic request signature that
// anti-scraping heuristics could key on.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	// DefaultInterval is the minimum spacing between request starts.
	DefaultInterval = 1 * time.Second
	// DefaultJitter bounds the random delay added on top of the interval.
	DefaultJitter = 500 * time.Millisecond
)

// Limiter enforces a global minimum spacing between operations. It is safe
// for concurrent use; each caller reserves a slot against the shared
// last-request timestamp, so concurrent and sequential callers respect the
// same cadence.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	jitter   time.Duration
	last     time.Time // start time of the most recently reserved slot
}

// NewLimiter creates a limiter with the given minimum interval and jitter
// bound. An interval <= 0 disables blocking entirely.
func NewLimiter(interval, jitter time.Duration) *Limiter {
	if jitter < 0 {
		jitter = 0
	}
	return &Limiter{interval: interval, jitter: jitter}
}

// Wait blocks until the caller's reserved slot arrives, or until the context
// is canceled. The shared timestamp is advanced before sleeping so that
// overlapping callers reserve disjoint slots.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	start := now
	if elapsed := now.Sub(l.last); elapsed < l.interval {
		start = l.last.Add(l.interval)
		if l.jitter > 0 {
			start = start.Add(time.Duration(rand.Int63n(int64(l.jitter))))
		}
	}
	l.last = start
	l.mu.Unlock()

	wait := time.Until(start)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
