// Package apm wires OpenTelemetry tracing.
package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts Spans without exposing the otel API to callers.
type Tracer interface {
	StartSpanFromContext(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, Span)
	SpanFromContext(ctx context.Context) Span
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer backed by the global provider, so it follows
// whatever NewTraceProvider installed.
func NewTracer(name string) Tracer {
	return &otelTracer{tracer: otel.Tracer(name)}
}

func (t *otelTracer) StartSpanFromContext(
	ctx context.Context, name string, opts ...trace.SpanStartOption,
) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, NewSpan(span)
}

func (t *otelTracer) SpanFromContext(ctx context.Context) Span {
	return NewSpan(trace.SpanFromContext(ctx))
}

// Expected reports errors that end a span without marking it failed.
type Expected func(error) bool

// Traced runs fn inside a span named name and closes it with the outcome.
// Errors accepted by expected leave the span status unset.
func Traced[T any](
	ctx context.Context,
	t Tracer,
	name string,
	expected Expected,
	fn func(ctx context.Context, span Span) (T, error),
	opts ...trace.SpanStartOption,
) (T, error) {
	ctx, span := t.StartSpanFromContext(ctx, name, opts...)
	defer span.End()

	out, err := fn(ctx, span)
	switch {
	case err == nil:
		span.SetOK()
	case expected != nil && expected(err):
		span.AddEvent("expected_error")
	default:
		span.NoticeError(err)
	}
	return out, err
}
