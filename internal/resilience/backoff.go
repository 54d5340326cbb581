// Package resilience provides the backoff policy and fault classification
// used by the fetch retry loop.
package resilience

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffPolicy maps a zero-based attempt number to a wait duration.
// Delays are non-decreasing in the attempt number.
type BackoffPolicy struct {
	// Base is the delay before the first retry. Default: 2s.
	Base time.Duration

	// Max caps the computed delay. Default: 60s.
	Max time.Duration

	// JitterFraction adds random jitter as a fraction of the computed delay
	// (0.0 = none). Jitter is additive only and bounded at 1.0 so the
	// realized delays stay non-decreasing across attempts.
	JitterFraction float64
}

// DefaultBackoff returns the backoff policy used for profile fetches.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		Base: 2 * time.Second,
		Max:  60 * time.Second,
	}
}

// Delay returns the wait before retrying after the given attempt.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	base := p.Base
	if base <= 0 {
		base = 2 * time.Second
	}
	maxDelay := p.Max
	if maxDelay <= 0 {
		maxDelay = 60 * time.Second
	}
	if attempt < 0 {
		attempt = 0
	}

	d := float64(base) * math.Pow(2, float64(attempt))
	if d > float64(maxDelay) {
		d = float64(maxDelay)
	}

	frac := p.JitterFraction
	if frac > 1 {
		frac = 1
	}
	if frac > 0 {
		d += rand.Float64() * frac * d
	}

	return time.Duration(d)
}
