package summarizer

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SummaryMetricsRecorder records per-call metrics of a model-backed summarizer.
// The interface keeps Prometheus out of the adapters so tests can inject a spy.
type SummaryMetricsRecorder interface {
	// RecordLength records the length of a generated summary in output tokens.
	RecordLength(tokens int)

	// RecordBudgetExceeded increments the counter when a summary uses more
	// output tokens than the budget allowed.
	RecordBudgetExceeded()

	// RecordCompliance records whether the last summary stayed within budget.
	RecordCompliance(withinBudget bool)

	// RecordDuration records the time taken by one model call.
	RecordDuration(duration time.Duration)
}

// PrometheusSummaryMetrics implements SummaryMetricsRecorder using Prometheus metrics.
type PrometheusSummaryMetrics struct {
	lengthHistogram   prometheus.Histogram
	exceededCounter   prometheus.Counter
	complianceGauge   prometheus.Gauge
	durationHistogram prometheus.Histogram
}

// getOrCreate registers c, returning the already registered collector when an
// identical one exists.
func getOrCreate[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

// NewPrometheusSummaryMetrics creates the summarizer metrics on reg. Calling it
// twice with the same registerer returns recorders sharing the same collectors.
func NewPrometheusSummaryMetrics(reg prometheus.Registerer) *PrometheusSummaryMetrics {
	return &PrometheusSummaryMetrics{
		lengthHistogram: getOrCreate(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "summarizer_output_tokens",
			Help:    "Distribution of model summary lengths in output tokens",
			Buckets: []float64{25, 50, 100, 200, 300, 400, 600, 800},
		})),
		exceededCounter: getOrCreate(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "summarizer_budget_exceeded_total",
			Help: "Total number of model summaries longer than their token budget",
		})),
		complianceGauge: getOrCreate(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "summarizer_budget_compliance",
			Help: "1 when the last model summary stayed within its token budget, 0 otherwise",
		})),
		durationHistogram: getOrCreate(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "summarizer_call_duration_seconds",
			Help:    "Time taken by a single summarization model call",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		})),
	}
}

// RecordLength implements SummaryMetricsRecorder.RecordLength
func (p *PrometheusSummaryMetrics) RecordLength(tokens int) {
	p.lengthHistogram.Observe(float64(tokens))
}

// RecordBudgetExceeded implements SummaryMetricsRecorder.RecordBudgetExceeded
func (p *PrometheusSummaryMetrics) RecordBudgetExceeded() {
	p.exceededCounter.Inc()
}

// RecordCompliance implements SummaryMetricsRecorder.RecordCompliance
func (p *PrometheusSummaryMetrics) RecordCompliance(withinBudget bool) {
	if withinBudget {
		p.complianceGauge.Set(1.0)
	} else {
		p.complianceGauge.Set(0.0)
	}
}

// RecordDuration implements SummaryMetricsRecorder.RecordDuration
func (p *PrometheusSummaryMetrics) RecordDuration(duration time.Duration) {
	p.durationHistogram.Observe(duration.Seconds())
}

// NoopSummaryMetrics discards every measurement.
type NoopSummaryMetrics struct{}

func (NoopSummaryMetrics) RecordLength(int)             {}
func (NoopSummaryMetrics) RecordBudgetExceeded()        {}
func (NoopSummaryMetrics) RecordCompliance(bool)        {}
func (NoopSummaryMetrics) RecordDuration(time.Duration) {}

// recordCall records the common measurements of a completed model call.
func recordCall(m SummaryMetricsRecorder, outputTokens, maxOutput int, duration time.Duration) bool {
	within := outputTokens <= maxOutput
	m.RecordLength(outputTokens)
	m.RecordDuration(duration)
	m.RecordCompliance(within)
	if !within {
		m.RecordBudgetExceeded()
	}
	return within
}
