package policy

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/faultops/clock"
	"github.com/jonwraymond/faultops/outcome"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of operations allowed per second.
	// Default: 100
	Rate float64

	// Burst is the maximum burst size.
	// Default: 10
	Burst int

	// WaitOnLimit waits for a token instead of rejecting.
	// Default: false
	WaitOnLimit bool

	// MaxWait is the maximum time to wait for a token.
	// Default: 1s
	MaxWait time.Duration

	// Clock overrides the time source.
	// Default: real time.
	Clock clock.Clock
}

// RateLimiter bounds the rate of executions with a token bucket.
type RateLimiter[T any] struct {
	rate        float64
	burst       int
	waitOnLimit bool
	maxWait     time.Duration
	clock       clock.Clock

	mu          sync.Mutex
	tokens      float64
	lastRefresh time.Time
}

// NewRateLimiter creates a new rate limiter. It panics if Rate or Burst
// is negative.
func NewRateLimiter[T any](config RateLimiterConfig) *RateLimiter[T] {
	if config.Rate < 0 {
		panic("policy: Rate must not be negative")
	}
	if config.Burst < 0 {
		panic("policy: Burst must not be negative")
	}
	if config.Rate == 0 {
		config.Rate = 100
	}
	if config.Burst == 0 {
		config.Burst = 10
	}
	if config.MaxWait <= 0 {
		config.MaxWait = time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}

	return &RateLimiter[T]{
		rate:        config.Rate,
		burst:       config.Burst,
		waitOnLimit: config.WaitOnLimit,
		maxWait:     config.MaxWait,
		clock:       config.Clock,
		tokens:      float64(config.Burst),
		lastRefresh: config.Clock.Now(),
	}
}

// Execute runs op if the rate limit allows it. With WaitOnLimit set it
// waits up to MaxWait for a token first.
func (rl *RateLimiter[T]) Execute(ctx context.Context, op Operation[T]) outcome.Outcome[T] {
	if rl.waitOnLimit {
		if err := rl.waitOne(ctx); err != nil {
			return outcome.Err[T](err)
		}
	} else if !rl.Allow() {
		return outcome.Err[T](&RateLimitedError{Rate: rl.rate, Burst: rl.burst})
	}

	v, err := runOperation(ctx, op)
	if err != nil {
		return outcome.Err[T](err)
	}
	return outcome.Ok(v)
}

// Allow reports whether a single execution is allowed right now,
// consuming a token if so.
func (rl *RateLimiter[T]) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// waitOne blocks until a token is available, the wait cap elapses, or
// ctx is done.
func (rl *RateLimiter[T]) waitOne(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rl.Allow() {
		return nil
	}

	rl.mu.Lock()
	needed := 1 - rl.tokens
	wait := time.Duration(needed / rl.rate * float64(time.Second))
	rl.mu.Unlock()

	if wait > rl.maxWait {
		wait = rl.maxWait
	}

	if err := rl.clock.Sleep(ctx, wait); err != nil {
		return err
	}
	if rl.Allow() {
		return nil
	}
	return &RateLimitedError{Rate: rl.rate, Burst: rl.burst, Waited: wait}
}

func (rl *RateLimiter[T]) refillLocked() {
	now := rl.clock.Now()
	elapsed := now.Sub(rl.lastRefresh)
	rl.lastRefresh = now

	rl.tokens += elapsed.Seconds() * rl.rate
	if rl.tokens > float64(rl.burst) {
		rl.tokens = float64(rl.burst)
	}
}

// Tokens returns the current number of available tokens.
func (rl *RateLimiter[T]) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

// Reset refills the bucket to full capacity.
func (rl *RateLimiter[T]) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = float64(rl.burst)
	rl.lastRefresh = rl.clock.Now()
}
