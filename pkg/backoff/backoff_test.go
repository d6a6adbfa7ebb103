package backoff

import (
	"testing"
	"time"
)

func TestPolicy_ExponentialGrowth(t *testing.T) {
	base := 100 * time.Millisecond
	p := New(base, DefaultMax)

	for attempt := 0; attempt < 5; attempt++ {
		d := p.Delay(attempt)

		lo := base << uint(attempt)
		hi := lo + base
		if d < lo || d > hi {
			t.Errorf("attempt %d: delay %v outside [%v, %v]", attempt, d, lo, hi)
		}
	}
}

func TestPolicy_Ceiling(t *testing.T) {
	p := New(100*time.Millisecond, 2*time.Second)

	// 100ms * 2^10 = ~102s, far past the 2s ceiling
	if d := p.Delay(10); d != 2*time.Second {
		t.Errorf("expected delay capped at 2s, got %v", d)
	}

	// Absurd attempt indexes must not overflow
	if d := p.Delay(500); d != 2*time.Second {
		t.Errorf("expected delay capped at 2s for huge attempt, got %v", d)
	}
}

func TestPolicy_NegativeAttemptTreatedAsZero(t *testing.T) {
	base := 100 * time.Millisecond
	p := New(base, DefaultMax)

	d := p.Delay(-3)
	if d < base || d > 2*base {
		t.Errorf("expected first-attempt delay, got %v", d)
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(0, 0)
	if p.base != DefaultBase || p.max != DefaultMax {
		t.Errorf("expected defaults, got base=%v max=%v", p.base, p.max)
	}
}
