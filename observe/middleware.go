package observe

import (
	"context"
	"time"

	"github.com/jonwraymond/faultops/outcome"
	"github.com/jonwraymond/faultops/policy"
)

// Middleware bundles the observability components used to instrument a
// policy.
//
// Contract:
//   - Concurrency: instrumented policies are safe for concurrent use when
//     the underlying policy is.
//   - Context: propagates context through tracing spans.
//   - Errors: the wrapped policy's outcome is recorded and returned
//     unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability
// components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Instrument wraps p with tracing, metrics, and logging, labelled by
// meta. The returned policy delegates every Execute call to p.
func Instrument[T any](m *Middleware, p policy.Policy[T], meta PolicyMeta) (policy.Policy[T], error) {
	if meta.Name == "" {
		return nil, ErrMissingPolicyName
	}

	logger := m.logger.WithPolicy(meta)

	return policy.PolicyFunc[T](func(ctx context.Context, op policy.Operation[T]) outcome.Outcome[T] {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		o := p.Execute(ctx, op)

		duration := time.Since(start)
		err := o.Error()

		m.tracer.EndSpan(span, err)
		m.metrics.RecordExecution(ctx, meta, duration, err)

		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "policy execution failed", fields...)
		} else {
			logger.Info(ctx, "policy execution completed", fields...)
		}

		return o
	}), nil
}
