package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.status.String(); got != tc.expected {
			t.Errorf("Status(%d).String() = %q, expected %q", tc.status, got, tc.expected)
		}
	}
}

func TestResultConstructors(t *testing.T) {
	r := Healthy("all good")
	if r.Status != StatusHealthy || r.Message != "all good" {
		t.Errorf("Healthy() = %+v", r)
	}
	if r.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}

	r = Degraded("slow")
	if r.Status != StatusDegraded || r.Message != "slow" {
		t.Errorf("Degraded() = %+v", r)
	}

	checkErr := errors.New("connection refused")
	r = Unhealthy("down", checkErr)
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, checkErr) {
		t.Errorf("Unhealthy() = %+v", r)
	}
}

func TestResult_WithDetails(t *testing.T) {
	r := Healthy("ok").WithDetails(map[string]any{"connections": 5})
	if r.Details["connections"] != 5 {
		t.Errorf("expected details to carry connections=5, got %v", r.Details)
	}
}

func TestCheckerFunc(t *testing.T) {
	called := false
	checker := NewCheckerFunc("custom", func(ctx context.Context) Result {
		called = true
		return Healthy("ok")
	})

	if checker.Name() != "custom" {
		t.Errorf("Name() = %q, expected %q", checker.Name(), "custom")
	}

	result := checker.Check(context.Background())
	if !called {
		t.Error("expected check function to be called")
	}
	if result.Status != StatusHealthy {
		t.Errorf("expected healthy result, got %v", result.Status)
	}
}
