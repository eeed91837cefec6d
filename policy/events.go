package policy

import (
	"context"
	"time"
)

// RetryListener receives retry lifecycle events. Delivery is synchronous
// and ordered within a single Execute call. Listeners must not panic and
// should return quickly; slow listeners delay the retry loop.
type RetryListener interface {
	// RetryStarted fires once per Execute call, before the first attempt.
	RetryStarted(ctx context.Context, maxAttempts int)

	// AttemptStarted fires before each attempt, including the first.
	AttemptStarted(ctx context.Context, attempt int)

	// AttemptFailed fires after each failed attempt.
	AttemptFailed(ctx context.Context, attempt int, err error)

	// BackoffScheduled fires after the decision to retry, with the delay
	// that will precede the next attempt.
	BackoffScheduled(ctx context.Context, attempt int, delay time.Duration)

	// RetrySucceeded fires when an attempt succeeds.
	RetrySucceeded(ctx context.Context, attempt int)

	// RetryExhausted fires when every attempt failed.
	RetryExhausted(ctx context.Context, attempts int, err error)
}

// Listeners fans events out to multiple listeners in order.
type Listeners []RetryListener

var _ RetryListener = Listeners(nil)

func (ls Listeners) RetryStarted(ctx context.Context, maxAttempts int) {
	for _, l := range ls {
		l.RetryStarted(ctx, maxAttempts)
	}
}

func (ls Listeners) AttemptStarted(ctx context.Context, attempt int) {
	for _, l := range ls {
		l.AttemptStarted(ctx, attempt)
	}
}

func (ls Listeners) AttemptFailed(ctx context.Context, attempt int, err error) {
	for _, l := range ls {
		l.AttemptFailed(ctx, attempt, err)
	}
}

func (ls Listeners) BackoffScheduled(ctx context.Context, attempt int, delay time.Duration) {
	for _, l := range ls {
		l.BackoffScheduled(ctx, attempt, delay)
	}
}

func (ls Listeners) RetrySucceeded(ctx context.Context, attempt int) {
	for _, l := range ls {
		l.RetrySucceeded(ctx, attempt)
	}
}

func (ls Listeners) RetryExhausted(ctx context.Context, attempts int, err error) {
	for _, l := range ls {
		l.RetryExhausted(ctx, attempts, err)
	}
}
