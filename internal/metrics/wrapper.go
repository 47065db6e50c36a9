package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Interfaces for metrics to avoid circular imports
type MetricsCounter interface {
	Inc()
}

type MetricsGauge interface {
	Inc()
	Dec()
	Set(float64)
}

// MetricsWrapper adapts Metrics to the hook interfaces of the predictor, the
// dataset cache and the API.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) MLPredictionsInc() {
	w.m.Predictions.Inc()
}

func (w *MetricsWrapper) MLFailuresInc() {
	w.m.PredictionFailures.Inc()
}

func (w *MetricsWrapper) MLLatencyObserve(seconds float64) {
	w.m.PredictionLatency.Observe(seconds)
}

func (w *MetricsWrapper) MLPredictionScoresObserve(score float64) {
	w.m.PredictionScores.Observe(score)
}

func (w *MetricsWrapper) MLModelLoadsInc() {
	w.m.ModelLoads.Inc()
}

func (w *MetricsWrapper) MLModelLoadFailuresInc() {
	w.m.ModelLoadFailures.Inc()
}

func (w *MetricsWrapper) DatasetLoadsInc() {
	w.m.DatasetLoads.Inc()
}

func (w *MetricsWrapper) DatasetLoadFailuresInc() {
	w.m.DatasetLoadFailures.Inc()
}

func (w *MetricsWrapper) DatasetLoadDurationObserve(seconds float64) {
	w.m.DatasetLoadDuration.Observe(seconds)
}

func (w *MetricsWrapper) DatasetRowsSet(rows float64) {
	w.m.DatasetRows.Set(rows)
}

// Request returns the counter for one route and status code.
func (w *MetricsWrapper) Request(route string, code int) MetricsCounter {
	return &CounterWrapper{w.m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code))}
}

func (w *MetricsWrapper) WSConnections() MetricsGauge {
	return &GaugeWrapper{w.m.WSConnections}
}

func (w *MetricsWrapper) FailureRate() float64 {
	return w.m.FailureRate()
}

type CounterWrapper struct {
	c prometheus.Counter
}

func (cw *CounterWrapper) Inc() {
	cw.c.Inc()
}

type GaugeWrapper struct {
	g prometheus.Gauge
}

func (gw *GaugeWrapper) Inc() {
	gw.g.Inc()
}

func (gw *GaugeWrapper) Dec() {
	gw.g.Dec()
}

func (gw *GaugeWrapper) Set(v float64) {
	gw.g.Set(v)
}
