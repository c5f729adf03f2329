package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceContext is a W3C trace context held as plain strings so it can be stored next to the rows a
// request wrote and restored by whatever later acts on them.
type TraceContext struct {
	Traceparent string
	Tracestate  string
}

// CaptureTraceContext serialises the span context carried by ctx. Both fields are empty when ctx
// carries no span or no propagator is installed.
func CaptureTraceContext(ctx context.Context) TraceContext {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceContext{
		Traceparent: carrier.Get("traceparent"),
		Tracestate:  carrier.Get("tracestate"),
	}
}

// Context returns parent with tc installed as its remote span context.
func (tc TraceContext) Context(parent context.Context) context.Context {
	if tc.Traceparent == "" {
		return parent
	}
	carrier := propagation.MapCarrier{"traceparent": tc.Traceparent}
	if tc.Tracestate != "" {
		carrier["tracestate"] = tc.Tracestate
	}
	return otel.GetTextMapPropagator().Extract(parent, carrier)
}
