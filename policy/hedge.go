package policy

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonwraymond/faultops/clock"
	"github.com/jonwraymond/faultops/outcome"
)

// DelayStrategy computes the delay before launching the next hedged
// attempt.
type DelayStrategy interface {
	// HedgeDelay returns the delay before the next speculative attempt.
	HedgeDelay() time.Duration

	// RecordLatency feeds the latency of a completed successful attempt
	// back into the strategy.
	RecordLatency(d time.Duration)
}

// FixedDelay is a DelayStrategy with a constant hedge delay.
type FixedDelay time.Duration

func (f FixedDelay) HedgeDelay() time.Duration { return time.Duration(f) }

func (f FixedDelay) RecordLatency(time.Duration) {}

// LatencyStrategy hedges at a quantile of recently observed latencies,
// so the hedge fires only when an attempt is running slower than most of
// its predecessors. Until enough history accumulates it falls back to a
// fixed initial delay.
type LatencyStrategy struct {
	quantile float64
	initial  time.Duration

	mu     sync.Mutex
	window []time.Duration
	next   int
	full   bool
}

// NewLatencyStrategy creates a LatencyStrategy over a sliding window of
// the last windowSize latencies. quantile must be in (0, 1]; initial is
// the delay used before the window has any data. Panics on an invalid
// window size or quantile.
func NewLatencyStrategy(windowSize int, quantile float64, initial time.Duration) *LatencyStrategy {
	if windowSize < 1 {
		panic("policy: windowSize must be at least 1")
	}
	if quantile <= 0 || quantile > 1 {
		panic("policy: quantile must be in (0, 1]")
	}
	return &LatencyStrategy{
		quantile: quantile,
		initial:  initial,
		window:   make([]time.Duration, windowSize),
	}
}

// HedgeDelay returns the configured quantile over the recorded window.
func (s *LatencyStrategy) HedgeDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.next
	if s.full {
		n = len(s.window)
	}
	if n == 0 {
		return s.initial
	}

	sorted := make([]time.Duration, n)
	copy(sorted, s.window[:n])
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(n) * s.quantile)
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// RecordLatency adds d to the sliding window.
func (s *LatencyStrategy) RecordLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.window[s.next] = d
	s.next++
	if s.next == len(s.window) {
		s.next = 0
		s.full = true
	}
}

// HedgeConfig configures a Hedge policy.
type HedgeConfig struct {
	// Delay is the fixed hedge delay, used when Strategy is nil.
	// Default: 1s
	Delay time.Duration

	// Strategy computes hedge delays dynamically; takes precedence over
	// Delay when set.
	Strategy DelayStrategy

	// MaxHedges is the number of speculative attempts launched after the
	// primary. Must be at least 1; anything less panics.
	// Default via zero value is rejected: set it explicitly.
	MaxHedges int

	// Clock overrides the time source.
	// Default: real time.
	Clock clock.Clock
}

// Hedge launches speculative duplicate attempts after a delay to reduce
// tail latency. The first attempt to succeed wins; losing attempts are
// abandoned. If every attempt fails, the outcome aggregates all their
// errors.
type Hedge[T any] struct {
	strategy  DelayStrategy
	maxHedges int
	clock     clock.Clock
}

// NewHedge creates a new Hedge policy. It panics if MaxHedges < 1.
func NewHedge[T any](config HedgeConfig) *Hedge[T] {
	if config.MaxHedges < 1 {
		panic("policy: MaxHedges must be at least 1")
	}
	if config.Strategy == nil {
		delay := config.Delay
		if delay <= 0 {
			delay = time.Second
		}
		config.Strategy = FixedDelay(delay)
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}

	return &Hedge[T]{
		strategy:  config.Strategy,
		maxHedges: config.MaxHedges,
		clock:     config.Clock,
	}
}

type hedgeResult[T any] struct {
	index int
	value T
	err   error
}

// Execute runs the primary attempt, staggering up to MaxHedges
// speculative duplicates behind it.
func (h *Hedge[T]) Execute(ctx context.Context, op Operation[T]) outcome.Outcome[T] {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	total := h.maxHedges + 1
	// Buffered so abandoned attempts never leak.
	results := make(chan hedgeResult[T], total)

	attempt := func(index int) {
		start := h.clock.Now()
		v, err := runOperation(ctx, op)
		if err == nil {
			h.strategy.RecordLatency(h.clock.Since(start))
		}
		results <- hedgeResult[T]{index: index, value: v, err: err}
	}

	var timer clock.Timer
	if total > 1 {
		timer = h.clock.NewTimer(h.strategy.HedgeDelay())
	}
	go attempt(0)
	launched := 1
	pending := 1
	// Indexed by launch order so the aggregate error reads primary first.
	errs := make([]error, total)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
	}
	launchNext := func() {
		stopTimer()
		go attempt(launched)
		launched++
		pending++
		if launched < total {
			timer = h.clock.NewTimer(h.strategy.HedgeDelay())
		}
	}

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case res := <-results:
			if res.err == nil {
				stopTimer()
				cancel()
				return outcome.Ok(res.value)
			}
			errs[res.index] = res.err
			pending--
			if pending == 0 {
				if launched == total {
					return outcome.Err[T](&HedgeError{Errs: errs})
				}
				// Everything in flight failed before the hedge delay
				// elapsed; launch the next attempt immediately.
				launchNext()
			}

		case <-timerC:
			timer = nil
			launchNext()

		case <-ctx.Done():
			return outcome.Err[T](ctx.Err())
		}
	}
}
