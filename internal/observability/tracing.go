package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the span-starting facade. The similarity and personalization
// engines open one span per top-level call (Similar, PersonalizedFeed,
// PersonalizedSearch); IndexGateway calls, CacheLayer round-trips and embed
// calls get no spans of their own.
type Tracer struct {
	tr trace.Tracer
}

// NewTracer sets up an OTel TracerProvider for serviceName and returns the
// facade. With no exporter configured, spans are recorded in-process only —
// wiring a real exporter (OTLP, Jaeger, ...) is a deployment concern left to
// the caller via SetTracerProvider.
func NewTracer(serviceName string) *Tracer {
	res, _ := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	))
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	return &Tracer{tr: tp.Tracer(serviceName)}
}

// Span wraps an active trace.Span with the subset of operations the core
// components use.
type Span struct {
	span trace.Span
}

// Start begins a span named op, annotated with attrs, returning the updated
// context and the span handle. Callers must call End().
func (t *Tracer) Start(ctx context.Context, op string, attrs map[string]interface{}) (context.Context, *Span) {
	ctx, span := t.tr.Start(ctx, op)
	for k, v := range attrs {
		span.SetAttributes(toAttribute(k, v))
	}
	return ctx, &Span{span: span}
}

func toAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, "")
	}
}

// RecordError marks the span as failed.
func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// End finishes the span.
func (s *Span) End() { s.span.End() }
