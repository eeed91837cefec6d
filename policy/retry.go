package policy

import (
	"context"
	"math"
	"time"

	"github.com/jonwraymond/faultops/clock"
	"github.com/jonwraymond/faultops/outcome"
)

// BackoffStrategy defines how delays grow between retry attempts.
type BackoffStrategy int

const (
	// BackoffConstant uses the base delay for every retry.
	BackoffConstant BackoffStrategy = iota
	// BackoffLinear grows the delay linearly with the attempt number.
	BackoffLinear
	// BackoffExponential doubles the delay each attempt.
	BackoffExponential
)

// RetryContext is the per-attempt record passed to the retry predicate
// and the OnRetry callback. It is read-only and not retained after the
// call returns.
type RetryContext struct {
	// Attempt is the 1-based attempt number.
	Attempt int

	// Err is the error that triggered this consultation.
	Err error

	// Delay is the backoff that preceded this attempt; zero before the
	// first attempt.
	Delay time.Duration

	// TotalDelay is the cumulative backoff slept so far.
	TotalDelay time.Duration

	// Metadata is the optional bag configured on the policy.
	Metadata map[string]any
}

// RetryConfig configures a Retry policy.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt, so
	// the operation runs at most MaxRetries+1 times. Zero means a single
	// attempt. Negative values panic.
	MaxRetries int

	// Backoff selects the delay growth curve.
	// Default: BackoffConstant
	Backoff BackoffStrategy

	// Delay is the base backoff delay.
	// Default: 100ms
	Delay time.Duration

	// MaxDelay caps every computed delay.
	// Default: 30s
	MaxDelay time.Duration

	// Jitter perturbs each computed delay.
	// Default: no jitter.
	Jitter JitterFunc

	// RetryIf filters retryable errors. Ignored when RetryPredicate is
	// set. Default: all errors are retryable.
	RetryIf func(err error) bool

	// RetryPredicate decides, from the full RetryContext, whether to
	// continue retrying. Returning false short-circuits with the current
	// failure; a non-nil error aborts the loop and becomes the failure
	// outcome itself.
	RetryPredicate func(ctx context.Context, rc *RetryContext) (bool, error)

	// Metadata is carried on every RetryContext.
	Metadata map[string]any

	// OnRetry is invoked after each backoff, just before the next attempt.
	OnRetry func(rc *RetryContext)

	// Listener receives retry lifecycle events.
	Listener RetryListener

	// Clock overrides the time source.
	// Default: real time.
	Clock clock.Clock
}

// Retry re-executes a failing operation with backoff.
type Retry[T any] struct {
	config RetryConfig
	clock  clock.Clock
}

// NewRetry creates a new Retry policy. It panics if MaxRetries is
// negative.
func NewRetry[T any](config RetryConfig) *Retry[T] {
	if config.MaxRetries < 0 {
		panic("policy: MaxRetries must not be negative")
	}
	if config.Delay <= 0 {
		config.Delay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Jitter == nil {
		config.Jitter = NoJitter
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}

	return &Retry[T]{config: config, clock: config.Clock}
}

// Execute runs op up to MaxRetries+1 times, sleeping between attempts.
func (r *Retry[T]) Execute(ctx context.Context, op Operation[T]) outcome.Outcome[T] {
	attempts := r.config.MaxRetries + 1
	listener := r.config.Listener

	if listener != nil {
		listener.RetryStarted(ctx, attempts)
	}

	var (
		lastErr    error
		prevDelay  time.Duration
		totalDelay time.Duration
	)

	for attempt := 1; attempt <= attempts; attempt++ {
		if listener != nil {
			listener.AttemptStarted(ctx, attempt)
		}

		v, err := runOperation(ctx, op)
		if err == nil {
			if listener != nil {
				listener.RetrySucceeded(ctx, attempt)
			}
			return outcome.Ok(v)
		}

		lastErr = err
		if listener != nil {
			listener.AttemptFailed(ctx, attempt, err)
		}

		if attempt == attempts {
			break
		}

		rc := &RetryContext{
			Attempt:    attempt,
			Err:        err,
			Delay:      prevDelay,
			TotalDelay: totalDelay,
			Metadata:   r.config.Metadata,
		}
		retry, perr := r.shouldRetry(ctx, rc)
		if perr != nil {
			return outcome.Err[T](perr)
		}
		if !retry {
			return outcome.Err[T](err)
		}

		delay := r.nextDelay(attempt)
		if listener != nil {
			listener.BackoffScheduled(ctx, attempt, delay)
		}
		if serr := r.clock.Sleep(ctx, delay); serr != nil {
			return outcome.Err[T](serr)
		}
		totalDelay += delay
		prevDelay = delay

		if r.config.OnRetry != nil {
			r.config.OnRetry(&RetryContext{
				Attempt:    attempt + 1,
				Err:        err,
				Delay:      delay,
				TotalDelay: totalDelay,
				Metadata:   r.config.Metadata,
			})
		}
	}

	if listener != nil {
		listener.RetryExhausted(ctx, attempts, lastErr)
	}
	return outcome.Err[T](&RetryExhaustedError{Attempts: attempts, Err: lastErr})
}

func (r *Retry[T]) shouldRetry(ctx context.Context, rc *RetryContext) (bool, error) {
	if r.config.RetryPredicate != nil {
		return r.config.RetryPredicate(ctx, rc)
	}
	if r.config.RetryIf != nil {
		return r.config.RetryIf(rc.Err), nil
	}
	return true, nil
}

func (r *Retry[T]) nextDelay(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.Backoff {
	case BackoffConstant:
		delay = r.config.Delay
	case BackoffLinear:
		delay = r.config.Delay * time.Duration(attempt)
	case BackoffExponential:
		delay = time.Duration(float64(r.config.Delay) * math.Pow(2, float64(attempt-1)))
	}

	if delay < 0 {
		delay = r.config.MaxDelay
	}

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	return r.config.Jitter(delay)
}

// Config returns the retry configuration.
func (r *Retry[T]) Config() RetryConfig {
	return r.config
}
