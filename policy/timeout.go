package policy

import (
	"context"
	"time"

	"github.com/jonwraymond/faultops/clock"
	"github.com/jonwraymond/faultops/outcome"
)

// TimeoutConfig configures the timeout policy.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation. Negative values
	// panic.
	// Default: 30s
	Timeout time.Duration

	// Clock overrides the time source.
	// Default: real time.
	Clock clock.Clock
}

// Timeout races an operation against a deadline. If the deadline fires
// first, the outcome is a TimeoutError and the still-running operation is
// abandoned: its context is cancelled, but its eventual result is
// discarded whether or not it honors the cancellation.
type Timeout[T any] struct {
	config TimeoutConfig
	clock  clock.Clock
}

// NewTimeout creates a new timeout policy. It panics if Timeout is
// negative.
func NewTimeout[T any](config TimeoutConfig) *Timeout[T] {
	if config.Timeout < 0 {
		panic("policy: Timeout must not be negative")
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}

	return &Timeout[T]{config: config, clock: config.Clock}
}

// Execute runs op, abandoning it at the deadline.
func (t *Timeout[T]) Execute(ctx context.Context, op Operation[T]) outcome.Outcome[T] {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := t.clock.Now()
	timer := t.clock.NewTimer(t.config.Timeout)
	defer timer.Stop()

	// Buffered so the abandoned goroutine never leaks.
	done := make(chan outcome.Outcome[T], 1)
	go func() {
		v, err := runOperation(ctx, op)
		if err != nil {
			done <- outcome.Err[T](err)
			return
		}
		done <- outcome.Ok(v)
	}()

	select {
	case o := <-done:
		return o
	case <-timer.C():
		cancel()
		return outcome.Err[T](&TimeoutError{
			Timeout: t.config.Timeout,
			Elapsed: t.clock.Since(start),
		})
	case <-ctx.Done():
		return outcome.Err[T](ctx.Err())
	}
}

// Config returns the timeout configuration.
func (t *Timeout[T]) Config() TimeoutConfig {
	return t.config
}
