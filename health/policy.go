package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/faultops/policy"
)

// BreakerState reports circuit breaker state. *policy.CircuitBreaker[T]
// satisfies it for any T.
type BreakerState interface {
	State() policy.State
	Metrics() policy.CircuitBreakerMetrics
}

// BreakerChecker reports the health of a circuit breaker: healthy while
// closed, degraded while half-open, unhealthy while open.
type BreakerChecker struct {
	name    string
	breaker BreakerState
}

// NewBreakerChecker creates a checker over the given breaker.
func NewBreakerChecker(name string, breaker BreakerState) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: breaker}
}

func (c *BreakerChecker) Name() string {
	return c.name
}

func (c *BreakerChecker) Check(ctx context.Context) Result {
	m := c.breaker.Metrics()
	details := map[string]any{
		"state":    m.State.String(),
		"failures": m.Failures,
	}

	switch m.State {
	case policy.StateOpen:
		details["opened_at"] = m.OpenedAt
		return Unhealthy(
			fmt.Sprintf("circuit open after %d failures", m.Failures),
			policy.ErrCircuitOpen,
		).WithDetails(details)
	case policy.StateHalfOpen:
		return Degraded("circuit half-open, probing").WithDetails(details)
	default:
		return Healthy("circuit closed").WithDetails(details)
	}
}

// BulkheadLoad reports bulkhead load. *policy.Bulkhead[T] satisfies it
// for any T.
type BulkheadLoad interface {
	Metrics() policy.BulkheadMetrics
}

// BulkheadChecker reports the health of a bulkhead: healthy with free
// capacity, degraded when all slots are busy, unhealthy when the queue
// is also full.
type BulkheadChecker struct {
	name     string
	bulkhead BulkheadLoad
}

// NewBulkheadChecker creates a checker over the given bulkhead.
func NewBulkheadChecker(name string, bulkhead BulkheadLoad) *BulkheadChecker {
	return &BulkheadChecker{name: name, bulkhead: bulkhead}
}

func (c *BulkheadChecker) Name() string {
	return c.name
}

func (c *BulkheadChecker) Check(ctx context.Context) Result {
	m := c.bulkhead.Metrics()
	details := map[string]any{
		"active":         m.Active,
		"queued":         m.Queued,
		"max_concurrent": m.MaxConcurrent,
		"max_queue":      m.MaxQueue,
		"rejected":       m.Rejected,
	}

	switch {
	case m.Active >= m.MaxConcurrent && m.Queued >= m.MaxQueue:
		return Unhealthy(
			fmt.Sprintf("bulkhead saturated (%d/%d active, %d/%d queued)",
				m.Active, m.MaxConcurrent, m.Queued, m.MaxQueue),
			policy.ErrBulkheadRejected,
		).WithDetails(details)
	case m.Active >= m.MaxConcurrent:
		return Degraded(
			fmt.Sprintf("all %d slots busy, %d queued", m.MaxConcurrent, m.Queued),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("%d/%d slots busy", m.Active, m.MaxConcurrent),
		).WithDetails(details)
	}
}
