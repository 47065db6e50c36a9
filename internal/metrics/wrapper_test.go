package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diabetes-risk/internal/dataset"
	"diabetes-risk/internal/ml"
)

var (
	_ ml.MetricsInterface      = (*MetricsWrapper)(nil)
	_ dataset.MetricsInterface = (*MetricsWrapper)(nil)
)

func newTestMetrics(t *testing.T) (*Metrics, *MetricsWrapper) {
	t.Helper()
	m := NewWithRegistry(prometheus.NewRegistry())
	return m, NewWrapper(m)
}

func TestNewWrapper(t *testing.T) {
	m, w := newTestMetrics(t)
	require.NotNil(t, w)
	assert.Same(t, m, w.m)
}

func TestNewWithRegistry_RegistersEverything(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	m.HTTPRequests.WithLabelValues("/health", "200").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"predictions_total",
		"prediction_failures_total",
		"prediction_latency_seconds",
		"prediction_risk_scores",
		"model_loads_total",
		"model_load_failures_total",
		"dataset_loads_total",
		"dataset_load_failures_total",
		"dataset_load_duration_seconds",
		"dataset_rows",
		"http_requests_total",
		"ws_connections",
	} {
		assert.True(t, names[want], "metric %s not registered", want)
	}
}

func TestNewWithRegistry_DuplicatePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewWithRegistry(reg)
	assert.Panics(t, func() { NewWithRegistry(reg) })
}

func TestMetricsWrapper_PredictionHooks(t *testing.T) {
	m, w := newTestMetrics(t)

	w.MLPredictionsInc()
	w.MLPredictionsInc()
	w.MLFailuresInc()
	w.MLModelLoadsInc()
	w.MLModelLoadFailuresInc()
	w.MLLatencyObserve(0.002)
	w.MLPredictionScoresObserve(0.7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Predictions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelLoads))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelLoadFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PredictionLatency))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PredictionScores))
}

func TestMetricsWrapper_DatasetHooks(t *testing.T) {
	m, w := newTestMetrics(t)

	w.DatasetLoadsInc()
	w.DatasetLoadFailuresInc()
	w.DatasetLoadDurationObserve(0.25)
	w.DatasetRowsSet(253680)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatasetLoads))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatasetLoadFailures))
	assert.Equal(t, 253680.0, testutil.ToFloat64(m.DatasetRows))
}

func TestMetricsWrapper_APIHooks(t *testing.T) {
	m, w := newTestMetrics(t)

	w.Request("/api/predict", 200).Inc()
	w.Request("/api/predict", 200).Inc()
	w.Request("/api/predict", 400).Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/predict", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/predict", "400")))

	g := w.WSConnections()
	g.Inc()
	g.Inc()
	g.Dec()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
	g.Set(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.WSConnections))
}

func TestFailureRate(t *testing.T) {
	m, w := newTestMetrics(t)
	assert.Equal(t, 0.0, w.FailureRate())

	for i := 0; i < 3; i++ {
		w.MLPredictionsInc()
	}
	w.MLFailuresInc()

	assert.InDelta(t, 0.25, m.FailureRate(), 1e-12)
}
