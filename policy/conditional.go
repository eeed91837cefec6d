package policy

import (
	"context"

	"github.com/jonwraymond/faultops/clock"
	"github.com/jonwraymond/faultops/outcome"
)

// ConditionalConfig configures a Conditional policy.
type ConditionalConfig[T any] struct {
	// Predicate chooses between the two sub-policies from the recorded
	// execution history. Required.
	Predicate func(s Stats) bool

	// IfTrue runs when the predicate holds. Required.
	IfTrue Policy[T]

	// IfFalse runs otherwise. Required.
	IfFalse Policy[T]

	// Clock overrides the time source used for duration tracking.
	// Default: real time.
	Clock clock.Clock
}

// Conditional routes each execution to one of exactly two sub-policies
// based on a predicate over its own execution history.
type Conditional[T any] struct {
	config ConditionalConfig[T]
	clock  clock.Clock
	stats  policyStats
}

// NewConditional creates a new Conditional policy. It panics if the
// predicate or either sub-policy is nil.
func NewConditional[T any](config ConditionalConfig[T]) *Conditional[T] {
	if config.Predicate == nil {
		panic("policy: Predicate is required")
	}
	if config.IfTrue == nil || config.IfFalse == nil {
		panic("policy: both sub-policies are required")
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}

	return &Conditional[T]{config: config, clock: config.Clock}
}

// Execute evaluates the predicate and delegates to the chosen
// sub-policy, then records the result into its history.
func (p *Conditional[T]) Execute(ctx context.Context, op Operation[T]) outcome.Outcome[T] {
	chosen := p.config.IfFalse
	if p.config.Predicate(p.stats.snapshot()) {
		chosen = p.config.IfTrue
	}
	return observeExecution(p.clock, &p.stats, func() outcome.Outcome[T] {
		return chosen.Execute(ctx, op)
	})
}

// Stats returns a snapshot of the recorded execution history.
func (p *Conditional[T]) Stats() Stats {
	return p.stats.snapshot()
}

// BranchCase pairs a condition with the policy it selects.
type BranchCase[T any] struct {
	When   func(s Stats) bool
	Policy Policy[T]
}

// BranchConfig configures a Branch policy.
type BranchConfig[T any] struct {
	// Branches are evaluated in order; the first matching case runs.
	Branches []BranchCase[T]

	// Fallback runs when no branch matches. Required.
	Fallback Policy[T]

	// Clock overrides the time source used for duration tracking.
	// Default: real time.
	Clock clock.Clock
}

// Branch routes each execution to the first sub-policy whose condition
// matches, falling back to a default.
type Branch[T any] struct {
	config BranchConfig[T]
	clock  clock.Clock
	stats  policyStats
}

// NewBranch creates a new Branch policy. It panics if the fallback is
// nil or any branch has a nil condition or policy.
func NewBranch[T any](config BranchConfig[T]) *Branch[T] {
	if config.Fallback == nil {
		panic("policy: Fallback is required")
	}
	for _, br := range config.Branches {
		if br.When == nil || br.Policy == nil {
			panic("policy: every branch needs a condition and a policy")
		}
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}

	return &Branch[T]{config: config, clock: config.Clock}
}

// Execute selects the first matching branch and delegates to it, then
// records the result into its history.
func (p *Branch[T]) Execute(ctx context.Context, op Operation[T]) outcome.Outcome[T] {
	s := p.stats.snapshot()
	chosen := p.config.Fallback
	for _, br := range p.config.Branches {
		if br.When(s) {
			chosen = br.Policy
			break
		}
	}
	return observeExecution(p.clock, &p.stats, func() outcome.Outcome[T] {
		return chosen.Execute(ctx, op)
	})
}

// Stats returns a snapshot of the recorded execution history.
func (p *Branch[T]) Stats() Stats {
	return p.stats.snapshot()
}
