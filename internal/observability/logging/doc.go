// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the pipeline.
//
// Key features:
//   - JSON and text output formats
//   - Run ID and document attributes
//   - Context-aware logging
//   - Configurable log levels
//
// Logs are written to stderr; stdout is reserved for pipeline output.
//
// Example usage:
//
//	import "scholar-abstracts/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("pipeline started", slog.String("version", "1.0"))
//	}
//
//	func reduce(ctx context.Context, runID string) {
//	    logger := logging.WithRunID(logging.FromContext(ctx), runID)
//	    logger.Debug("chunking")
//	}
package logging
