package policy

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/faultops/clock/clocktest"
)

func TestNewHedge_InvalidConfigPanics(t *testing.T) {
	for _, n := range []int{0, -1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("MaxHedges = %d did not panic", n)
				}
			}()
			NewHedge[int](HedgeConfig{MaxHedges: n})
		}()
	}
}

func TestHedge_PrimaryWinsWithoutHedging(t *testing.T) {
	h := NewHedge[string](HedgeConfig{Delay: time.Hour, MaxHedges: 2})

	var calls atomic.Int32
	o := h.Execute(context.Background(), func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "primary", nil
	})

	if !o.IsOK() || o.Value() != "primary" {
		t.Errorf("Execute() = %v, want Ok(primary)", o)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("operation invoked %d times, want 1 (no hedge before the delay)", n)
	}
}

func TestHedge_HedgeWinsAfterDelay(t *testing.T) {
	mock := clocktest.NewMock(t)
	h := NewHedge[string](HedgeConfig{
		Delay:     100 * time.Millisecond,
		MaxHedges: 1,
		Clock:     mock,
	})

	primaryStarted := make(chan struct{})
	var calls atomic.Int32
	done := make(chan struct{})
	var got string
	var gotErr error
	go func() {
		defer close(done)
		o := h.Execute(context.Background(), func(ctx context.Context) (string, error) {
			if calls.Add(1) == 1 {
				// The primary stalls until the whole execution is
				// cancelled by the winning hedge.
				close(primaryStarted)
				<-ctx.Done()
				return "", ctx.Err()
			}
			return "hedge", nil
		})
		got, gotErr = o.Value(), o.Error()
	}()

	<-primaryStarted
	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mock.Advance(100 * time.Millisecond).MustWait(waitCtx)

	<-done
	if gotErr != nil || got != "hedge" {
		t.Errorf("Execute() = (%q, %v), want the hedge's result", got, gotErr)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("operation invoked %d times, want 2", n)
	}
}

func TestHedge_AllAttemptsFail(t *testing.T) {
	h := NewHedge[int](HedgeConfig{Delay: time.Millisecond, MaxHedges: 2})

	fail := errors.New("boom")
	var calls atomic.Int32
	o := h.Execute(context.Background(), func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 0, fail
	})

	var herr *HedgeError
	if !errors.As(o.Error(), &herr) {
		t.Fatalf("error = %v, want HedgeError", o.Error())
	}
	if !errors.Is(o.Error(), ErrHedgeFailed) {
		t.Error("error should match ErrHedgeFailed")
	}
	if len(herr.Errs) != 3 {
		t.Errorf("aggregated %d errors, want 3 (primary + 2 hedges)", len(herr.Errs))
	}
	for i, err := range herr.Errs {
		if !errors.Is(err, fail) {
			t.Errorf("Errs[%d] = %v, want %v", i, err, fail)
		}
	}
	if !errors.Is(o.Error(), fail) {
		t.Error("aggregate should unwrap to the attempt errors")
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("operation invoked %d times, want 3", n)
	}
}

func TestHedge_AggregatesErrorsInLaunchOrder(t *testing.T) {
	h := NewHedge[int](HedgeConfig{Delay: time.Hour, MaxHedges: 2})

	attemptErrs := []error{
		errors.New("primary failed"),
		errors.New("first hedge failed"),
		errors.New("second hedge failed"),
	}
	var calls atomic.Int32
	o := h.Execute(context.Background(), func(ctx context.Context) (int, error) {
		n := calls.Add(1)
		return 0, attemptErrs[n-1]
	})

	var herr *HedgeError
	if !errors.As(o.Error(), &herr) {
		t.Fatalf("error = %v, want HedgeError", o.Error())
	}
	if len(herr.Errs) != len(attemptErrs) {
		t.Fatalf("aggregated %d errors, want %d", len(herr.Errs), len(attemptErrs))
	}
	for i, want := range attemptErrs {
		if herr.Errs[i] != want {
			t.Errorf("Errs[%d] = %v, want %v", i, herr.Errs[i], want)
		}
	}
}

func TestHedge_ContextCancellation(t *testing.T) {
	h := NewHedge[int](HedgeConfig{Delay: time.Hour, MaxHedges: 1})

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	go func() {
		<-started
		cancel()
	}()

	o := h.Execute(ctx, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	if !errors.Is(o.Error(), context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", o.Error())
	}
}

func TestHedge_RecordsWinnerLatency(t *testing.T) {
	rec := &recordingStrategy{delay: time.Hour}
	h := NewHedge[int](HedgeConfig{Strategy: rec, MaxHedges: 1})

	h.Execute(context.Background(), func(ctx context.Context) (int, error) {
		return 1, nil
	})
	if rec.recorded.Load() != 1 {
		t.Errorf("recorded %d latencies after success, want 1", rec.recorded.Load())
	}

	h.Execute(context.Background(), func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	if rec.recorded.Load() != 1 {
		t.Errorf("recorded %d latencies after failure, want 1 (failures are not fed back)", rec.recorded.Load())
	}
}

type recordingStrategy struct {
	delay    time.Duration
	recorded atomic.Int32
}

func (s *recordingStrategy) HedgeDelay() time.Duration { return s.delay }

func (s *recordingStrategy) RecordLatency(time.Duration) { s.recorded.Add(1) }

func TestNewLatencyStrategy_InvalidConfigPanics(t *testing.T) {
	tests := []struct {
		name       string
		windowSize int
		quantile   float64
	}{
		{"zero window", 0, 0.95},
		{"zero quantile", 10, 0},
		{"quantile above one", 10, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("invalid config did not panic")
				}
			}()
			NewLatencyStrategy(tt.windowSize, tt.quantile, time.Second)
		})
	}
}

func TestLatencyStrategy_InitialDelayBeforeData(t *testing.T) {
	s := NewLatencyStrategy(10, 0.95, 250*time.Millisecond)

	if d := s.HedgeDelay(); d != 250*time.Millisecond {
		t.Errorf("HedgeDelay() = %v with no data, want the initial delay", d)
	}
}

func TestLatencyStrategy_Quantile(t *testing.T) {
	s := NewLatencyStrategy(10, 0.5, time.Second)
	for i := 1; i <= 10; i++ {
		s.RecordLatency(time.Duration(i) * time.Millisecond)
	}

	// Median of 1..10ms lands on the 6th sorted value.
	if d := s.HedgeDelay(); d != 6*time.Millisecond {
		t.Errorf("HedgeDelay() = %v, want 6ms", d)
	}
}

func TestLatencyStrategy_WindowSlides(t *testing.T) {
	s := NewLatencyStrategy(3, 1.0, time.Second)
	for _, d := range []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
		10 * time.Millisecond,
	} {
		s.RecordLatency(d)
	}

	// The 100ms sample rolled out; the max of the window is 300ms.
	if d := s.HedgeDelay(); d != 300*time.Millisecond {
		t.Errorf("HedgeDelay() = %v, want 300ms", d)
	}

	s.RecordLatency(20 * time.Millisecond)
	s.RecordLatency(30 * time.Millisecond)
	// Window is now {10ms, 20ms, 30ms}.
	if d := s.HedgeDelay(); d != 30*time.Millisecond {
		t.Errorf("HedgeDelay() = %v after slide, want 30ms", d)
	}
}
