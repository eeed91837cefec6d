package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/faultops/policy"
)

// RetryMetricsListener records retry lifecycle events as OpenTelemetry
// metrics. Attach it to a retry policy via RetryConfig.Listener.
type RetryMetricsListener struct {
	meta         PolicyMeta
	attemptCount metric.Int64Counter
	backoffHist  metric.Float64Histogram
	exhausted    metric.Int64Counter
}

var _ policy.RetryListener = (*RetryMetricsListener)(nil)

// NewRetryMetricsListener creates a listener publishing to the given
// meter, labelled with the policy metadata.
func NewRetryMetricsListener(meter metric.Meter, meta PolicyMeta) (*RetryMetricsListener, error) {
	attemptCount, err := meter.Int64Counter(
		"policy.retry.attempts",
		metric.WithDescription("Total number of retry attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	backoffHist, err := meter.Float64Histogram(
		"policy.retry.backoff_ms",
		metric.WithDescription("Scheduled backoff delay in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	exhausted, err := meter.Int64Counter(
		"policy.retry.exhausted",
		metric.WithDescription("Total number of retry executions that exhausted all attempts"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return &RetryMetricsListener{
		meta:         meta,
		attemptCount: attemptCount,
		backoffHist:  backoffHist,
		exhausted:    exhausted,
	}, nil
}

func (l *RetryMetricsListener) attrs() metric.MeasurementOption {
	kv := []attribute.KeyValue{
		attribute.String("policy.name", l.meta.Name),
	}
	if l.meta.Kind != "" {
		kv = append(kv, attribute.String("policy.kind", l.meta.Kind))
	}
	return metric.WithAttributes(kv...)
}

func (l *RetryMetricsListener) RetryStarted(ctx context.Context, maxAttempts int) {}

func (l *RetryMetricsListener) AttemptStarted(ctx context.Context, attempt int) {
	l.attemptCount.Add(ctx, 1, l.attrs())
}

func (l *RetryMetricsListener) AttemptFailed(ctx context.Context, attempt int, err error) {}

func (l *RetryMetricsListener) BackoffScheduled(ctx context.Context, attempt int, delay time.Duration) {
	l.backoffHist.Record(ctx, float64(delay.Milliseconds()), l.attrs())
}

func (l *RetryMetricsListener) RetrySucceeded(ctx context.Context, attempt int) {}

func (l *RetryMetricsListener) RetryExhausted(ctx context.Context, attempts int, err error) {
	l.exhausted.Add(ctx, 1, l.attrs())
}
