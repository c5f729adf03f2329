package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceContextRoundTrip(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}))

	tc := CaptureTraceContext(ctx)
	if tc.Traceparent != "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01" {
		t.Fatalf("unexpected traceparent %q", tc.Traceparent)
	}

	restored := trace.SpanContextFromContext(tc.Context(context.Background()))
	if restored.TraceID() != traceID || restored.SpanID() != spanID {
		t.Fatalf("span context not restored: %v", restored)
	}
}

func TestTraceContextEmpty(t *testing.T) {
	if tc := CaptureTraceContext(context.Background()); tc.Traceparent != "" {
		t.Fatalf("expected empty trace context, got %+v", tc)
	}
	parent := context.Background()
	if got := (TraceContext{}).Context(parent); got != parent {
		t.Fatalf("empty trace context should return parent unchanged")
	}
}
