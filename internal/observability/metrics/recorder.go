package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Document outcomes.
const (
	OutcomeSummarized = "summarized"
	OutcomeNoContent  = "no_content"
	OutcomeError      = "error"
)

// Chunk summary sources.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// Pipeline stages.
const (
	StageChunk    = "chunk"
	StageFinal    = "final"
	StageDocument = "document"
)

// Recorder records pipeline metrics.
type Recorder interface {
	// RecordDocument counts one finished document by outcome.
	RecordDocument(outcome string)

	// RecordChunk counts one chunk summary by source.
	RecordChunk(source string)

	// RecordFallback counts one extractive fallback at stage for reason.
	RecordFallback(stage, reason string)

	// RecordDroppedWindows counts windows discarded by the chunk cap.
	RecordDroppedWindows(n int)

	// RecordStageDuration observes the time spent in stage.
	RecordStageDuration(stage string, duration time.Duration)
}

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	documents      *prometheus.CounterVec
	chunks         *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	droppedWindows prometheus.Counter
	stageDuration  *prometheus.HistogramVec
}

// NewPrometheusRecorder creates and registers the pipeline collectors with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		documents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abstracts_documents_total",
				Help: "Total number of documents processed by outcome",
			},
			[]string{"outcome"},
		),
		chunks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abstracts_chunks_total",
				Help: "Total number of chunk summaries by source",
			},
			[]string{"source"}, // source: model, fallback
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abstracts_fallbacks_total",
				Help: "Total number of extractive fallbacks",
			},
			[]string{"stage", "reason"},
		),
		droppedWindows: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "abstracts_dropped_windows_total",
				Help: "Total number of token windows dropped by the chunk cap",
			},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "abstracts_stage_duration_seconds",
				Help:    "Time spent per pipeline stage",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
			},
			[]string{"stage"},
		),
	}
}

// RecordDocument counts one finished document by outcome.
func (r *PrometheusRecorder) RecordDocument(outcome string) {
	r.documents.WithLabelValues(outcome).Inc()
}

// RecordChunk counts one chunk summary by source.
func (r *PrometheusRecorder) RecordChunk(source string) {
	r.chunks.WithLabelValues(source).Inc()
}

// RecordFallback counts one extractive fallback.
func (r *PrometheusRecorder) RecordFallback(stage, reason string) {
	r.fallbacks.WithLabelValues(stage, reason).Inc()
}

// RecordDroppedWindows counts windows discarded by the chunk cap.
func (r *PrometheusRecorder) RecordDroppedWindows(n int) {
	if n > 0 {
		r.droppedWindows.Add(float64(n))
	}
}

// RecordStageDuration observes the time spent in stage.
func (r *PrometheusRecorder) RecordStageDuration(stage string, duration time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// NoopRecorder discards all metrics.
type NoopRecorder struct{}

func (NoopRecorder) RecordDocument(string)                     {}
func (NoopRecorder) RecordChunk(string)                        {}
func (NoopRecorder) RecordFallback(string, string)             {}
func (NoopRecorder) RecordDroppedWindows(int)                  {}
func (NoopRecorder) RecordStageDuration(string, time.Duration) {}

var (
	_ Recorder = (*PrometheusRecorder)(nil)
	_ Recorder = NoopRecorder{}
)
