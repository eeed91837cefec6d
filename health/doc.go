// Package health provides health checking primitives for guarded
// operations.
//
// A Checker is any component that can report its health status. The
// Status type represents the health state: Healthy, Degraded, or
// Unhealthy. Checkers for circuit breakers and bulkheads surface the
// live state of those policies, so a service can report degraded
// readiness while a breaker is open or a bulkhead is saturated.
//
// # Basic Usage
//
//	cb := policy.NewCircuitBreaker[*sql.Rows](policy.CircuitBreakerConfig{Threshold: 5})
//	check := health.NewBreakerChecker("database", cb)
//
//	result := check.Check(ctx)
//	if result.Status == health.StatusUnhealthy {
//	    log.Printf("database circuit open: %s", result.Message)
//	}
//
// # Aggregating Health Checks
//
// Use Aggregator to combine multiple health checks into a single
// composite check:
//
//	agg := health.NewAggregator()
//	agg.Register("database", health.NewBreakerChecker("database", dbBreaker))
//	agg.Register("workers", health.NewBulkheadChecker("workers", pool))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
package health
