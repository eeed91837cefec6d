package policy

import (
	"sync"
	"time"

	"github.com/jonwraymond/faultops/clock"
	"github.com/jonwraymond/faultops/outcome"
)

// Stats is a read-only snapshot of a selection policy's execution
// history, passed to predicates and selectors.
type Stats struct {
	// Executions is the number of completed Execute calls.
	Executions int

	// ConsecutiveFailures is the current failure streak; reset to zero
	// by any success.
	ConsecutiveFailures int

	// LastErr is the error of the most recent execution, nil on success.
	LastErr error

	// LastDuration is how long the most recent execution took.
	LastDuration time.Duration
}

// policyStats is the mutable context owned by a selection policy. It is
// updated exclusively by the owning policy after each execution; callers
// only ever see value snapshots.
type policyStats struct {
	mu    sync.Mutex
	stats Stats
}

func (s *policyStats) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *policyStats) record(err error, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Executions++
	s.stats.LastErr = err
	s.stats.LastDuration = d
	if err != nil {
		s.stats.ConsecutiveFailures++
	} else {
		s.stats.ConsecutiveFailures = 0
	}
}

// observe runs the chosen policy and records the outcome and duration
// into the owned stats, regardless of which sub-policy ran.
func observeExecution[T any](c clock.Clock, s *policyStats, run func() outcome.Outcome[T]) outcome.Outcome[T] {
	start := c.Now()
	o := run()
	s.record(o.Error(), c.Since(start))
	return o
}
