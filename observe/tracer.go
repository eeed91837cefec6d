package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// PolicyMeta identifies a policy for telemetry purposes.
type PolicyMeta struct {
	Name    string   // Policy name (required)
	Kind    string   // Policy kind: retry, circuit, timeout, bulkhead, hedge, ... (optional)
	Version string   // Version of the guarded operation (optional)
	Tags    []string // Free-form tags (optional)
}

// SpanName returns the deterministic span name for this policy.
// Format: policy.exec.<kind>.<name> or policy.exec.<name>
func (m PolicyMeta) SpanName() string {
	if m.Kind != "" {
		return "policy.exec." + m.Kind + "." + m.Name
	}
	return "policy.exec." + m.Name
}

// Tracer wraps OpenTelemetry tracing with policy-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a policy execution.
	StartSpan(ctx context.Context, meta PolicyMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with policy metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta PolicyMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("policy.name", meta.Name),
		attribute.Bool("policy.error", false), // Updated in EndSpan on failure
	}
	if meta.Kind != "" {
		attrs = append(attrs, attribute.String("policy.kind", meta.Kind))
	}
	if meta.Version != "" {
		attrs = append(attrs, attribute.String("policy.version", meta.Version))
	}
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("policy.tags", meta.Tags))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("policy.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta PolicyMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
