// Package clocktest provides a deterministic clock.Clock for tests,
// backed by github.com/coder/quartz virtual time.
package clocktest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"

	"github.com/jonwraymond/faultops/clock"
)

// Mock is a clock.Clock over virtual time. Time only moves when the test
// advances it, either explicitly via Advance/Set (inherited from
// quartz.Mock) or implicitly through Sleep, which records the requested
// duration and advances virtual time by it instead of blocking.
//
// The implicit advance makes policies whose only suspension point is a
// sleep (retry backoff) directly callable from the test goroutine; timer
// based policies (timeout, bulkhead queues, hedging) are driven by
// advancing from the test side.
type Mock struct {
	*quartz.Mock

	mu     sync.Mutex
	sleeps []time.Duration
}

var _ clock.Clock = (*Mock)(nil)

// NewMock returns a Mock whose virtual time starts at quartz's fixed epoch.
func NewMock(t testing.TB) *Mock {
	return &Mock{Mock: quartz.NewMock(t)}
}

// Now returns the current virtual time.
func (m *Mock) Now() time.Time {
	return m.Mock.Now()
}

// Since returns the virtual time elapsed since t.
func (m *Mock) Since(t time.Time) time.Duration {
	return m.Mock.Since(t)
}

// NewTimer returns a virtual timer that fires when the mock's time passes
// its deadline.
func (m *Mock) NewTimer(d time.Duration) clock.Timer {
	return timer{timer: m.Mock.NewTimer(d)}
}

// Sleep records d and advances virtual time by d without blocking.
func (m *Mock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.sleeps = append(m.sleeps, d)
	m.mu.Unlock()
	if d > 0 {
		m.Mock.Advance(d)
	}
	return nil
}

// Sleeps returns every duration passed to Sleep, in call order.
func (m *Mock) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.sleeps))
	copy(out, m.sleeps)
	return out
}

type timer struct {
	timer *quartz.Timer
}

func (t timer) C() <-chan time.Time {
	return t.timer.C
}

func (t timer) Stop() bool {
	return t.timer.Stop()
}
