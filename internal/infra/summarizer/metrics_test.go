package summarizer

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusSummaryMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusSummaryMetrics(reg)

	within := recordCall(m, 120, 100, 2*time.Second)
	assert.False(t, within)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.exceededCounter))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.complianceGauge))

	within = recordCall(m, 80, 100, time.Second)
	assert.True(t, within)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.exceededCounter))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.complianceGauge))

	assert.Equal(t, uint64(2), sampleCount(t, m.lengthHistogram))
	assert.Equal(t, uint64(2), sampleCount(t, m.durationHistogram))
}

func sampleCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, h.Write(&pb))
	return pb.GetHistogram().GetSampleCount()
}

func TestNewPrometheusSummaryMetrics_SharesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewPrometheusSummaryMetrics(reg)
	second := NewPrometheusSummaryMetrics(reg)

	second.RecordBudgetExceeded()

	assert.Equal(t, float64(1), testutil.ToFloat64(first.exceededCounter))
}
