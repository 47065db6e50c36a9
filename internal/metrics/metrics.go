// Package metrics provides Prometheus metrics collection for the risk service.
// It defines the prediction, model-load, dataset and HTTP metrics exposed via
// the Prometheus metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction metrics
	Predictions        prometheus.Counter   // Total number of predictions served
	PredictionFailures prometheus.Counter   // Total number of failed prediction requests
	PredictionLatency  prometheus.Histogram // End-to-end prediction latency in seconds
	PredictionScores   prometheus.Histogram // Distribution of class-1 probabilities
	ModelLoads         prometheus.Counter   // Successful model artifact loads
	ModelLoadFailures  prometheus.Counter   // Failed model artifact loads

	// Dataset metrics
	DatasetLoads        prometheus.Counter   // Successful dataset loads
	DatasetLoadFailures prometheus.Counter   // Failed dataset loads
	DatasetLoadDuration prometheus.Histogram // Dataset fetch + parse time in seconds
	DatasetRows         prometheus.Gauge     // Rows in the loaded dataset

	// API metrics
	HTTPRequests  *prometheus.CounterVec // Requests by route and status code
	WSConnections prometheus.Gauge       // Open prediction stream connections

	gatherer prometheus.Gatherer
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// When the registerer is also a Gatherer it is used for FailureRate.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	gatherer, ok := registerer.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions served",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed prediction requests",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Prediction latency in seconds (end-to-end, including first model load)",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_risk_scores",
			Help:    "Distribution of predicted diabetes risk scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		ModelLoads: factory.NewCounter(prometheus.CounterOpts{
			Name: "model_loads_total",
			Help: "Total number of successful model artifact loads",
		}),
		ModelLoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "model_load_failures_total",
			Help: "Total number of failed model artifact loads",
		}),
		DatasetLoads: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_loads_total",
			Help: "Total number of successful dataset loads",
		}),
		DatasetLoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_load_failures_total",
			Help: "Total number of failed dataset loads",
		}),
		DatasetLoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dataset_load_duration_seconds",
			Help:    "Dataset fetch and parse duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		DatasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_rows",
			Help: "Number of rows in the loaded dataset",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests by route and status code",
		}, []string{"route", "code"}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Number of open prediction stream connections",
		}),
		gatherer: gatherer,
	}
}

// FailureRate returns failed / (served + failed) predictions, or 0 before
// any prediction has been attempted.
func (m *Metrics) FailureRate() float64 {
	var served, failed float64

	metricFamilies, err := m.gatherer.Gather()
	if err != nil {
		return 0
	}

	for _, mf := range metricFamilies {
		switch mf.GetName() {
		case "predictions_total":
			for _, m := range mf.Metric {
				served = m.GetCounter().GetValue()
			}
		case "prediction_failures_total":
			for _, m := range mf.Metric {
				failed = m.GetCounter().GetValue()
			}
		}
	}

	if served+failed == 0 {
		return 0
	}
	return failed / (served + failed)
}
