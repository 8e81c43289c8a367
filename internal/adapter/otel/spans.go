package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "travel-planner"

// StartRunSpan starts a span covering a whole planning pipeline run.
func StartRunSpan(ctx context.Context, runID, tripType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "plan_trip",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("trip.type", tripType),
		),
	)
}

// StartStageSpan starts a span for one agent stage of a run.
func StartStageSpan(ctx context.Context, agentName, model string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "agent "+agentName,
		trace.WithAttributes(
			attribute.String("agent.name", agentName),
			attribute.String("llm.model", model),
		),
	)
}

// StartToolCallSpan starts a span for a tool call within a stage.
func StartToolCallSpan(ctx context.Context, callID, tool string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toolcall",
		trace.WithAttributes(
			attribute.String("toolcall.id", callID),
			attribute.String("toolcall.tool", tool),
		),
	)
}
