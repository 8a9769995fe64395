// Package observability provides the observability infrastructure of the
// abstract pipeline: structured logging, Prometheus metrics, and
// OpenTelemetry tracing.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus recorders for pipeline outcomes
//   - tracing: OpenTelemetry tracer for pipeline spans
//
// Example usage:
//
//	import (
//	    "scholar-abstracts/internal/observability/logging"
//	    "scholar-abstracts/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    recorder := metrics.NewPrometheusRecorder(prometheus.DefaultRegisterer)
//	    logger.Info("pipeline started")
//	    recorder.RecordDocument(metrics.OutcomeSummarized)
//	}
package observability
