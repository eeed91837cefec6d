package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/faultops/clock/clocktest"
)

func TestNewRateLimiter_InvalidConfigPanics(t *testing.T) {
	tests := []struct {
		name   string
		config RateLimiterConfig
	}{
		{"negative rate", RateLimiterConfig{Rate: -1}},
		{"negative burst", RateLimiterConfig{Burst: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("invalid config did not panic")
				}
			}()
			NewRateLimiter[int](tt.config)
		})
	}
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	mock := clocktest.NewMock(t)
	rl := NewRateLimiter[int](RateLimiterConfig{Rate: 1, Burst: 3, Clock: mock})

	for i := 0; i < 3; i++ {
		o := rl.Execute(context.Background(), func(ctx context.Context) (int, error) {
			return i, nil
		})
		if !o.IsOK() {
			t.Fatalf("execution %d rejected: %v", i, o.Error())
		}
	}

	invoked := false
	o := rl.Execute(context.Background(), func(ctx context.Context) (int, error) {
		invoked = true
		return 0, nil
	})
	if invoked {
		t.Error("rejected call must not run the operation")
	}
	var rerr *RateLimitedError
	if !errors.As(o.Error(), &rerr) {
		t.Fatalf("error = %v, want RateLimitedError", o.Error())
	}
	if !errors.Is(o.Error(), ErrRateLimited) {
		t.Error("error should match ErrRateLimited")
	}
	if rerr.Burst != 3 {
		t.Errorf("Burst = %d, want 3", rerr.Burst)
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	mock := clocktest.NewMock(t)
	rl := NewRateLimiter[int](RateLimiterConfig{Rate: 2, Burst: 1, Clock: mock})

	if !rl.Allow() {
		t.Fatal("first token should be available")
	}
	if rl.Allow() {
		t.Fatal("bucket should be empty")
	}

	// At 2 tokens/s, half a second refills the single-token bucket.
	mock.Advance(500 * time.Millisecond)
	if !rl.Allow() {
		t.Error("token should have refilled")
	}
}

func TestRateLimiter_BurstCap(t *testing.T) {
	mock := clocktest.NewMock(t)
	rl := NewRateLimiter[int](RateLimiterConfig{Rate: 100, Burst: 2, Clock: mock})

	// A long idle period must not accumulate beyond the burst.
	mock.Advance(time.Hour)
	if tokens := rl.Tokens(); tokens != 2 {
		t.Errorf("Tokens() = %f, want burst cap 2", tokens)
	}
}

func TestRateLimiter_WaitOnLimit(t *testing.T) {
	mock := clocktest.NewMock(t)
	rl := NewRateLimiter[string](RateLimiterConfig{
		Rate:        10,
		Burst:       1,
		WaitOnLimit: true,
		MaxWait:     time.Second,
		Clock:       mock,
	})

	o := rl.Execute(context.Background(), func(ctx context.Context) (string, error) {
		return "first", nil
	})
	if !o.IsOK() {
		t.Fatalf("first execution rejected: %v", o.Error())
	}

	// The bucket is empty; the limiter sleeps 100ms for the next token.
	// The mock clock advances through Sleep, so this runs synchronously.
	o = rl.Execute(context.Background(), func(ctx context.Context) (string, error) {
		return "second", nil
	})
	if !o.IsOK() {
		t.Fatalf("waited execution rejected: %v", o.Error())
	}

	sleeps := mock.Sleeps()
	if len(sleeps) != 1 || sleeps[0] != 100*time.Millisecond {
		t.Errorf("sleeps = %v, want [100ms]", sleeps)
	}
}

func TestRateLimiter_WaitCapExceeded(t *testing.T) {
	mock := clocktest.NewMock(t)
	rl := NewRateLimiter[int](RateLimiterConfig{
		Rate:        0.1, // one token per 10s
		Burst:       1,
		WaitOnLimit: true,
		MaxWait:     time.Second,
		Clock:       mock,
	})

	if !rl.Allow() {
		t.Fatal("first token should be available")
	}

	o := rl.Execute(context.Background(), func(ctx context.Context) (int, error) {
		return 0, nil
	})
	var rerr *RateLimitedError
	if !errors.As(o.Error(), &rerr) {
		t.Fatalf("error = %v, want RateLimitedError", o.Error())
	}
	if rerr.Waited != time.Second {
		t.Errorf("Waited = %v, want the 1s cap", rerr.Waited)
	}
}

func TestRateLimiter_ContextCancelledWhileWaiting(t *testing.T) {
	rl := NewRateLimiter[int](RateLimiterConfig{
		Rate:        0.1,
		Burst:       1,
		WaitOnLimit: true,
		MaxWait:     time.Minute,
	})
	rl.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := rl.Execute(ctx, func(ctx context.Context) (int, error) {
		return 0, nil
	})
	if !errors.Is(o.Error(), context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", o.Error())
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	mock := clocktest.NewMock(t)
	rl := NewRateLimiter[int](RateLimiterConfig{Rate: 1, Burst: 2, Clock: mock})

	rl.Allow()
	rl.Allow()
	if rl.Allow() {
		t.Fatal("bucket should be empty")
	}

	rl.Reset()
	if tokens := rl.Tokens(); tokens != 2 {
		t.Errorf("Tokens() after reset = %f, want 2", tokens)
	}
}

func TestRateLimiter_OperationErrorPassesThrough(t *testing.T) {
	rl := NewRateLimiter[int](RateLimiterConfig{})

	testErr := errors.New("boom")
	o := rl.Execute(context.Background(), func(ctx context.Context) (int, error) {
		return 0, testErr
	})
	if !errors.Is(o.Error(), testErr) {
		t.Errorf("error = %v, want %v", o.Error(), testErr)
	}
}
