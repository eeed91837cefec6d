// Package policy provides composable fault-tolerance policies for
// asynchronous operations.
//
// Every policy implements the same contract: execute a zero-argument
// operation and return an outcome.Outcome instead of propagating an error.
// Because all policies share the contract, any policy can wrap any other,
// producing layered pipelines such as retry around circuit breaker around
// timeout.
//
// # Policies
//
//   - Retry: re-executes a failing operation with constant, linear, or
//     exponential backoff, optional jitter, and a conditional-retry
//     predicate.
//
//   - CircuitBreaker: fails fast once consecutive failures cross a
//     threshold, probing recovery with a single half-open trial after a
//     cooldown.
//
//   - Timeout: races an operation against a deadline.
//
//   - Bulkhead: bounds concurrency, with an optional FIFO wait queue and
//     per-entry queue timeout.
//
//   - Conditional, Branch, Adaptive: route execution to one of several
//     sub-policies based on recorded execution statistics.
//
//   - Hedge: launches speculative duplicate attempts after a delay to cut
//     tail latency.
//
//   - RateLimiter: throttles calls with a token bucket, either rejecting
//     or waiting when the bucket is empty.
//
// # Composition
//
// Wrap nests one policy inside another; Compose folds a list of policies
// into a single pipeline with the leftmost policy outermost:
//
//	p := policy.Compose[string](
//	    policy.NewRetry[string](policy.RetryConfig{MaxRetries: 3}),
//	    policy.NewCircuitBreaker[string](policy.CircuitBreakerConfig{Threshold: 5}),
//	    policy.NewTimeout[string](policy.TimeoutConfig{Timeout: 2 * time.Second}),
//	)
//
//	o := p.Execute(ctx, fetchRemote)
//	if o.IsErr() {
//	    // every failure path arrives here as a typed error
//	}
//
// All timing goes through an injected clock.Clock (defaulting to real
// time), so behavior is testable against virtual time.
package policy
