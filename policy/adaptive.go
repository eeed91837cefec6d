package policy

import (
	"context"

	"github.com/jonwraymond/faultops/clock"
	"github.com/jonwraymond/faultops/outcome"
)

// AdaptiveConfig configures an Adaptive policy.
type AdaptiveConfig[T any] struct {
	// Policies are the candidates the selector chooses among. At least
	// one is required; the first is used throughout the warm-up window.
	Policies []Policy[T]

	// Selector picks a policy index from the recorded execution history
	// once warm-up completes. Out-of-range indices fall back to the
	// first policy. Required when more than one policy is configured.
	Selector func(s Stats) int

	// WarmUp is the number of executions served by the first policy
	// before the selector takes over. Negative values panic.
	// Default: 10
	WarmUp int

	// Clock overrides the time source used for duration tracking.
	// Default: real time.
	Clock clock.Clock
}

// Adaptive serves a warm-up window with its first policy, then lets a
// user-supplied selector choose among the configured policies based on
// the recorded execution history.
type Adaptive[T any] struct {
	config AdaptiveConfig[T]
	clock  clock.Clock
	stats  policyStats
}

// NewAdaptive creates a new Adaptive policy. It panics if no policies
// are configured, if WarmUp is negative, or if multiple policies are
// configured without a selector.
func NewAdaptive[T any](config AdaptiveConfig[T]) *Adaptive[T] {
	if len(config.Policies) == 0 {
		panic("policy: at least one policy is required")
	}
	for _, p := range config.Policies {
		if p == nil {
			panic("policy: nil policy configured")
		}
	}
	if config.WarmUp < 0 {
		panic("policy: WarmUp must not be negative")
	}
	if config.WarmUp == 0 {
		config.WarmUp = 10
	}
	if config.Selector == nil && len(config.Policies) > 1 {
		panic("policy: Selector is required with multiple policies")
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}

	return &Adaptive[T]{config: config, clock: config.Clock}
}

// Execute delegates to the warm-up policy or the selector's choice, then
// records the result into its history.
func (p *Adaptive[T]) Execute(ctx context.Context, op Operation[T]) outcome.Outcome[T] {
	s := p.stats.snapshot()

	idx := 0
	if s.Executions >= p.config.WarmUp && p.config.Selector != nil {
		idx = p.config.Selector(s)
		if idx < 0 || idx >= len(p.config.Policies) {
			idx = 0
		}
	}
	chosen := p.config.Policies[idx]

	return observeExecution(p.clock, &p.stats, func() outcome.Outcome[T] {
		return chosen.Execute(ctx, op)
	})
}

// Stats returns a snapshot of the recorded execution history.
func (p *Adaptive[T]) Stats() Stats {
	return p.stats.snapshot()
}
