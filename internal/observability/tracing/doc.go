// Package tracing provides the OpenTelemetry tracer of the pipeline.
//
// Spans are emitted per document reduction and per model call. No exporter
// is configured here; the binary or a test installs a TracerProvider.
//
// Example usage:
//
//	import "scholar-abstracts/internal/observability/tracing"
//
//	func reduce(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "abstract.reduce")
//	    defer span.End()
//	    // ... reduce document ...
//	}
package tracing
