package policy

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/faultops/clock"
	"github.com/jonwraymond/faultops/outcome"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls flow through normally.
	StateClosed State = iota
	// StateOpen means calls fail fast without executing.
	StateOpen
	// StateHalfOpen means a single trial call is probing recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Threshold is the number of consecutive failures that opens the
	// circuit. Negative values panic.
	// Default: 5
	Threshold int

	// Cooldown is how long the circuit stays open before a half-open
	// trial is allowed.
	// Default: 30s
	Cooldown time.Duration

	// OnOpen is invoked when the circuit opens.
	OnOpen func(openedAt time.Time, failures int)

	// OnClose is invoked when a half-open trial closes the circuit.
	OnClose func()

	// Clock overrides the time source.
	// Default: real time.
	Clock clock.Clock
}

// CircuitBreaker fails fast once consecutive failures cross a threshold.
//
// State transitions happen only on the breaker's own execution path and
// are guarded by its mutex, so exactly one caller performs the half-open
// trial while concurrent callers keep failing fast.
type CircuitBreaker[T any] struct {
	config CircuitBreakerConfig
	clock  clock.Clock

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

// NewCircuitBreaker creates a new circuit breaker. It panics if
// Threshold is negative.
func NewCircuitBreaker[T any](config CircuitBreakerConfig) *CircuitBreaker[T] {
	if config.Threshold < 0 {
		panic("policy: Threshold must not be negative")
	}
	if config.Threshold == 0 {
		config.Threshold = 5
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 30 * time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}

	return &CircuitBreaker[T]{
		config: config,
		clock:  config.Clock,
		state:  StateClosed,
	}
}

// Execute runs op through the circuit breaker. While open, op is not
// invoked and the outcome carries a CircuitOpenError; after the cooldown
// elapses, the next caller runs the single half-open trial.
func (cb *CircuitBreaker[T]) Execute(ctx context.Context, op Operation[T]) outcome.Outcome[T] {
	trial, rejection := cb.admit()
	if rejection != nil {
		return outcome.Err[T](rejection)
	}

	v, err := runOperation(ctx, op)
	rejection = cb.record(trial, err)
	if rejection != nil {
		return outcome.Err[T](rejection)
	}
	if err != nil {
		return outcome.Err[T](err)
	}
	return outcome.Ok(v)
}

// admit decides whether the call may execute. The second return is a
// CircuitOpenError for fail-fast rejections; trial reports that this
// call is the half-open probe.
func (cb *CircuitBreaker[T]) admit() (trial bool, _ error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return false, nil
	case StateOpen:
		if cb.clock.Since(cb.openedAt) >= cb.config.Cooldown {
			cb.state = StateHalfOpen
			return true, nil
		}
		return false, &CircuitOpenError{OpenedAt: cb.openedAt, Failures: cb.failures}
	default: // StateHalfOpen: the trial slot is taken
		return false, &CircuitOpenError{OpenedAt: cb.openedAt, Failures: cb.failures}
	}
}

// record applies the attempt result to the state machine. For a failed
// half-open trial it returns the CircuitOpenError the caller must report.
func (cb *CircuitBreaker[T]) record(trial bool, err error) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial {
		if err != nil {
			cb.state = StateOpen
			cb.openedAt = cb.clock.Now()
			return &CircuitOpenError{OpenedAt: cb.openedAt, Failures: cb.failures}
		}
		cb.state = StateClosed
		cb.failures = 0
		if cb.config.OnClose != nil {
			cb.config.OnClose()
		}
		return nil
	}

	if cb.state != StateClosed {
		// The circuit opened underneath a still-running call; its result
		// no longer counts.
		return nil
	}

	if err != nil {
		cb.failures++
		if cb.failures >= cb.config.Threshold {
			cb.state = StateOpen
			cb.openedAt = cb.clock.Now()
			if cb.config.OnOpen != nil {
				cb.config.OnOpen(cb.openedAt, cb.failures)
			}
		}
	} else {
		cb.failures = 0
	}
	return nil
}

// State returns the current circuit state. It does not itself trigger
// the open-to-half-open transition; that happens on the execution path.
func (cb *CircuitBreaker[T]) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Metrics returns a snapshot of the breaker's counters.
func (cb *CircuitBreaker[T]) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerMetrics{
		State:    cb.state,
		Failures: cb.failures,
		OpenedAt: cb.openedAt,
	}
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State    State
	Failures int
	OpenedAt time.Time
}
