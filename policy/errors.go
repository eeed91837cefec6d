package policy

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. Every engine-detected failure is reported as a typed
// error value that matches one of these via errors.Is, so callers can
// branch on the kind without depending on the concrete type.
var (
	// ErrRetryExhausted is matched when every retry attempt failed.
	ErrRetryExhausted = errors.New("policy: retry attempts exhausted")

	// ErrCircuitOpen is matched when the circuit breaker rejects a call.
	ErrCircuitOpen = errors.New("policy: circuit breaker is open")

	// ErrTimeout is matched when an operation exceeds its deadline.
	ErrTimeout = errors.New("policy: operation timed out")

	// ErrBulkheadRejected is matched when the bulkhead is at capacity and
	// the queue is full.
	ErrBulkheadRejected = errors.New("policy: bulkhead at capacity")

	// ErrQueueTimeout is matched when a queued call waits longer than the
	// queue timeout.
	ErrQueueTimeout = errors.New("policy: bulkhead queue wait timed out")

	// ErrHedgeFailed is matched when every hedged attempt failed.
	ErrHedgeFailed = errors.New("policy: all hedged attempts failed")

	// ErrRateLimited is matched when the rate limiter rejects a call.
	ErrRateLimited = errors.New("policy: rate limit exceeded")
)

// RetryExhaustedError reports that all attempts of a Retry execution
// failed, wrapping the final error.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("policy: retry exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

func (e *RetryExhaustedError) Is(target error) bool { return target == ErrRetryExhausted }

// CircuitOpenError reports a call rejected by an open circuit breaker.
type CircuitOpenError struct {
	OpenedAt time.Time
	Failures int
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("policy: circuit open since %s after %d failures",
		e.OpenedAt.Format(time.RFC3339), e.Failures)
}

func (e *CircuitOpenError) Is(target error) bool { return target == ErrCircuitOpen }

// TimeoutError reports an operation abandoned at its deadline.
type TimeoutError struct {
	Timeout time.Duration
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("policy: operation timed out after %s (limit %s)", e.Elapsed, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// BulkheadRejectedError reports a call rejected because the bulkhead and
// its queue were full, carrying the configured limits and load at the
// moment of rejection.
type BulkheadRejectedError struct {
	MaxConcurrent int
	MaxQueue      int
	Active        int
	Queued        int
}

func (e *BulkheadRejectedError) Error() string {
	return fmt.Sprintf("policy: bulkhead rejected call (active %d/%d, queued %d/%d)",
		e.Active, e.MaxConcurrent, e.Queued, e.MaxQueue)
}

func (e *BulkheadRejectedError) Is(target error) bool { return target == ErrBulkheadRejected }

// QueueTimeoutError reports a queued call that timed out before a slot
// freed up.
type QueueTimeoutError struct {
	Timeout time.Duration
	Waited  time.Duration
}

func (e *QueueTimeoutError) Error() string {
	return fmt.Sprintf("policy: queued call timed out after %s (limit %s)", e.Waited, e.Timeout)
}

func (e *QueueTimeoutError) Is(target error) bool { return target == ErrQueueTimeout }

// HedgeError aggregates the errors of every failed hedged attempt, in
// launch order with the primary first.
type HedgeError struct {
	Errs []error
}

func (e *HedgeError) Error() string {
	return fmt.Sprintf("policy: all %d hedged attempts failed: %v", len(e.Errs), errors.Join(e.Errs...))
}

func (e *HedgeError) Unwrap() []error { return e.Errs }

func (e *HedgeError) Is(target error) bool { return target == ErrHedgeFailed }

// RateLimitedError reports a call rejected by the rate limiter. Waited
// is non-zero when the limiter waited for a token before giving up.
type RateLimitedError struct {
	Rate   float64
	Burst  int
	Waited time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("policy: rate limit exceeded (%.0f/s, burst %d)", e.Rate, e.Burst)
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }
