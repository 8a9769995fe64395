// Package metrics provides Prometheus recorders for the abstract pipeline.
//
// Metrics:
//   - abstracts_documents_total{outcome}: documents by outcome
//   - abstracts_chunks_total{source}: chunk summaries by how they were produced
//   - abstracts_fallbacks_total{stage,reason}: extractive fallbacks
//   - abstracts_dropped_windows_total: windows past the chunk cap
//   - abstracts_stage_duration_seconds{stage}: time spent per stage
//
// Recorders are injected; a NoopRecorder is used when metrics are disabled.
//
// Example usage:
//
//	import "scholar-abstracts/internal/observability/metrics"
//
//	recorder := metrics.NewPrometheusRecorder(prometheus.DefaultRegisterer)
//	start := time.Now()
//	// ... reduce document ...
//	recorder.RecordStageDuration(metrics.StageDocument, time.Since(start))
package metrics
