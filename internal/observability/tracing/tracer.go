package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies spans emitted by the pipeline.
const TracerName = "scholar-abstracts"

// tracer is the global tracer instance for the pipeline.
// It delegates to whichever TracerProvider is registered with otel.
var tracer = otel.Tracer(TracerName)

// GetTracer returns the global tracer for creating spans.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "abstract.reduce")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}
