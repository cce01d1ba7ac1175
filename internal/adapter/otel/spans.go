package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "taskflow"

// StartPrioritizeSpan starts a span for a prioritization round.
func StartPrioritizeSpan(ctx context.Context, taskCount int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "prioritize",
		trace.WithAttributes(attribute.Int("tasks.count", taskCount)),
	)
}

// StartPersistSpan starts a span for writing a slot.
func StartPersistSpan(ctx context.Context, key string, size int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "persist",
		trace.WithAttributes(
			attribute.String("slot.key", key),
			attribute.Int("slot.bytes", size),
		),
	)
}
