// Package backoff computes jittered exponential delays for retry loops.
package backoff

import (
	"math/rand"
	"time"
)

const (
	// DefaultBase is the delay before the first retry.
	DefaultBase = 100 * time.Millisecond
	// DefaultMax caps the computed delay.
	DefaultMax = 120 * time.Second
)

// Policy sizes the suspension before each retry attempt. The zero value is
// not usable; construct with New.
type Policy struct {
	base time.Duration
	max  time.Duration
}

// New creates a policy with the given base and ceiling. Non-positive values
// fall back to the defaults.
func New(base, max time.Duration) *Policy {
	if base <= 0 {
		base = DefaultBase
	}
	if max <= 0 {
		max = DefaultMax
	}
	return &Policy{base: base, max: max}
}

// Delay returns min(base * 2^attempt + uniform(0, base), max) for a
// zero-based attempt index. Purely computational; callers own the sleep.
func (p *Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	// Guard the shift: past 2^62 the exponential term alone exceeds any
	// realistic ceiling.
	if attempt > 62 {
		return p.max
	}

	d := p.base << uint(attempt)
	if d <= 0 || d > p.max {
		return p.max
	}

	d += time.Duration(rand.Int63n(int64(p.base)))
	if d > p.max {
		return p.max
	}
	return d
}
