package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/exo-addons/leadcapture"

// Tracer provides OpenTelemetry spans around lead delivery.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global OpenTelemetry provider.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// NewTracerFromProvider creates a tracer from an explicit provider.
func NewTracerFromProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{
		tracer: tp.Tracer(tracerName),
	}
}

// StartSendSpan starts the span covering one SendLead call.
func (t *Tracer) StartSendSpan(ctx context.Context, userID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "leadcapture.send_lead",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("leadcapture.user_id", userID)),
	)
}

// StartPostSpan starts the client span covering one POST to the lead server.
func (t *Tracer) StartPostSpan(ctx context.Context, endpoint string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "leadcapture.post",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", "POST"),
			attribute.String("url.full", endpoint),
		),
	)
}

// EndPostSpan records the response attributes and ends the span.
func (t *Tracer) EndPostSpan(span trace.Span, statusCode int, outcome string, err error) {
	span.SetAttributes(
		attribute.Int("http.response.status_code", statusCode),
		attribute.String("leadcapture.outcome", outcome),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// EndSpan ends a span, marking it failed when err is non-nil.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
