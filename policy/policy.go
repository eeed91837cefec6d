package policy

import (
	"context"
	"fmt"

	"github.com/jonwraymond/faultops/outcome"
)

// Operation is a deferred computation producing a value or failing.
type Operation[T any] func(ctx context.Context) (T, error)

// Policy executes operations under a fault-tolerance discipline.
//
// Contract:
// - Execute never panics and never returns an error by any path other
//   than the failure arm of the returned Outcome.
// - Policies may mutate their own internal state (counters, circuit
//   state) but must not mutate shared external state.
// - Policies are constructed once and reused across many Execute calls.
type Policy[T any] interface {
	Execute(ctx context.Context, op Operation[T]) outcome.Outcome[T]
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc[T any] func(ctx context.Context, op Operation[T]) outcome.Outcome[T]

// Execute calls f.
func (f PolicyFunc[T]) Execute(ctx context.Context, op Operation[T]) outcome.Outcome[T] {
	return f(ctx, op)
}

// Wrap nests inner inside outer: outer executes a thunk that runs inner
// and surfaces inner's failure as the thunk error, so outer's own failure
// handling (retry, circuit counting, ...) engages on it.
func Wrap[T any](outer, inner Policy[T]) Policy[T] {
	if outer == nil || inner == nil {
		panic("policy: Wrap requires non-nil policies")
	}
	return PolicyFunc[T](func(ctx context.Context, op Operation[T]) outcome.Outcome[T] {
		return outer.Execute(ctx, func(ctx context.Context) (T, error) {
			return inner.Execute(ctx, op).Get()
		})
	})
}

// Compose folds policies into a single pipeline, leftmost outermost.
// A single policy is returned unchanged. Compose panics on an empty list.
func Compose[T any](policies ...Policy[T]) Policy[T] {
	if len(policies) == 0 {
		panic("policy: Compose requires at least one policy")
	}
	composed := policies[0]
	for _, p := range policies[1:] {
		composed = Wrap(composed, p)
	}
	return composed
}

// runOperation invokes op, converting a panic into an error so no policy
// ever lets one escape.
func runOperation[T any](ctx context.Context, op Operation[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("policy: operation panicked: %v", r)
		}
	}()
	return op(ctx)
}
