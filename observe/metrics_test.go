package observe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *metricsImpl) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return reader, m
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name in ResourceMetrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	found := findMetric(rm, name)
	if found == nil {
		t.Fatalf("%s metric not found", name)
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64] for %s, got %T", name, found.Data)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatalf("no data points for %s", name)
	}
	return sum.DataPoints[0].Value
}

// TestMetrics_TotalCounterIncrements verifies policy.exec.total is incremented.
func TestMetrics_TotalCounterIncrements(t *testing.T) {
	reader, m := newTestMeter(t)

	meta := PolicyMeta{Name: "db-retry", Kind: "retry"}
	m.RecordExecution(context.Background(), meta, 100*time.Millisecond, nil)

	rm := collect(t, reader)
	if v := sumValue(t, rm, "policy.exec.total"); v != 1 {
		t.Errorf("expected count 1, got %d", v)
	}
}

// TestMetrics_ErrorCounterOnFailure verifies errors counter incremented on failure.
func TestMetrics_ErrorCounterOnFailure(t *testing.T) {
	reader, m := newTestMeter(t)

	meta := PolicyMeta{Name: "flaky"}
	m.RecordExecution(context.Background(), meta, 50*time.Millisecond, errors.New("execution failed"))

	rm := collect(t, reader)
	if v := sumValue(t, rm, "policy.exec.errors"); v != 1 {
		t.Errorf("expected errors count 1, got %d", v)
	}
}

// TestMetrics_ErrorCounterOnSuccess verifies errors counter NOT incremented on success.
func TestMetrics_ErrorCounterOnSuccess(t *testing.T) {
	reader, m := newTestMeter(t)

	meta := PolicyMeta{Name: "steady"}
	m.RecordExecution(context.Background(), meta, 50*time.Millisecond, nil)

	rm := collect(t, reader)
	found := findMetric(rm, "policy.exec.errors")
	if found == nil {
		// No errors recorded at all is acceptable
		return
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		return
	}
	if len(sum.DataPoints) > 0 && sum.DataPoints[0].Value != 0 {
		t.Errorf("expected errors count 0, got %d", sum.DataPoints[0].Value)
	}
}

// TestMetrics_DurationHistogramRecords verifies duration is recorded.
func TestMetrics_DurationHistogramRecords(t *testing.T) {
	reader, m := newTestMeter(t)

	meta := PolicyMeta{Name: "timed"}
	m.RecordExecution(context.Background(), meta, 50*time.Millisecond, nil)

	rm := collect(t, reader)
	found := findMetric(rm, "policy.exec.duration_ms")
	if found == nil {
		t.Fatal("policy.exec.duration_ms metric not found")
	}

	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if dp := hist.DataPoints[0]; dp.Sum != 50 {
		t.Errorf("expected duration 50ms, got %f", dp.Sum)
	}
}

// TestMetrics_LabelsApplied verifies labels include policy metadata.
func TestMetrics_LabelsApplied(t *testing.T) {
	reader, m := newTestMeter(t)

	meta := PolicyMeta{Name: "payments", Kind: "circuit"}
	m.RecordExecution(context.Background(), meta, 10*time.Millisecond, nil)

	rm := collect(t, reader)
	found := findMetric(rm, "policy.exec.total")
	if found == nil {
		t.Fatal("policy.exec.total metric not found")
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}

	attrs := sum.DataPoints[0].Attributes
	var foundName, foundKind bool
	for iter := attrs.Iter(); iter.Next(); {
		kv := iter.Attribute()
		switch string(kv.Key) {
		case "policy.name":
			foundName = true
			if kv.Value.AsString() != "payments" {
				t.Errorf("expected policy.name='payments', got %q", kv.Value.AsString())
			}
		case "policy.kind":
			foundKind = true
			if kv.Value.AsString() != "circuit" {
				t.Errorf("expected policy.kind='circuit', got %q", kv.Value.AsString())
			}
		}
	}

	if !foundName {
		t.Error("policy.name attribute not found")
	}
	if !foundKind {
		t.Error("policy.kind attribute not found")
	}
}

// TestMetrics_ConcurrentRecording verifies thread safety.
func TestMetrics_ConcurrentRecording(t *testing.T) {
	reader, m := newTestMeter(t)

	meta := PolicyMeta{Name: "concurrent"}
	const numGoroutines = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			m.RecordExecution(context.Background(), meta, time.Millisecond, nil)
		}()
	}
	wg.Wait()

	rm := collect(t, reader)
	if v := sumValue(t, rm, "policy.exec.total"); v != numGoroutines {
		t.Errorf("expected count %d, got %d", numGoroutines, v)
	}
}
