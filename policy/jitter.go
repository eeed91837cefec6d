package policy

import (
	"math/rand/v2"
	"time"
)

// JitterFunc perturbs a backoff delay to avoid synchronized retries.
// Implementations must return a non-negative duration.
type JitterFunc func(d time.Duration) time.Duration

// NoJitter returns the delay unchanged.
func NoJitter(d time.Duration) time.Duration {
	return d
}

// FullJitter returns a uniformly random delay in [0, d].
func FullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	// #nosec G404 -- jitter is non-cryptographic timing variance.
	return time.Duration(rand.Int64N(int64(d) + 1))
}

// EqualJitter keeps half the delay and randomizes the other half,
// bounding the result to [d/2, d].
func EqualJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	// #nosec G404 -- jitter is non-cryptographic timing variance.
	return half + time.Duration(rand.Int64N(int64(d-half)+1))
}

// ProportionalJitter returns a JitterFunc that perturbs the delay by up
// to ±factor of its value. A factor of 0.25 yields delays in
// [0.75d, 1.25d]. Negative results clamp to zero.
func ProportionalJitter(factor float64) JitterFunc {
	return func(d time.Duration) time.Duration {
		if d <= 0 || factor <= 0 {
			return d
		}
		span := float64(d) * factor
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		offset := (rand.Float64()*2 - 1) * span
		jittered := time.Duration(float64(d) + offset)
		if jittered < 0 {
			return 0
		}
		return jittered
	}
}
