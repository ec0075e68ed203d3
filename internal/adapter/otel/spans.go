package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "travelsync"

// StartCommandSpan starts a span for one command round trip.
func StartCommandSpan(ctx context.Context, command, actorID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "command."+command,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("command", command),
			attribute.String("actor.id", actorID),
		),
	)
}

// StartDialSpan starts a span for opening the push channel.
func StartDialSpan(ctx context.Context, actorID string, attempt int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "pushchannel.dial",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("actor.id", actorID),
			attribute.Int("dial.attempt", attempt),
		),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
