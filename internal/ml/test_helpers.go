package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu                sync.Mutex
	predictions       int
	failures          int
	latencySum        float64
	latencyCount      int
	modelLoads        int
	modelLoadFailures int
	predictionScores  []float64
}

func (m *MockMetrics) MLPredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) MLFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) MLLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
	m.latencyCount++
}

func (m *MockMetrics) MLPredictionScoresObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictionScores = append(m.predictionScores, v)
}

func (m *MockMetrics) MLModelLoadsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelLoads++
}

func (m *MockMetrics) MLModelLoadFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelLoadFailures++
}

func (m *MockMetrics) snapshot() (predictions, failures, loads, loadFailures, latencies int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions, m.failures, m.modelLoads, m.modelLoadFailures, m.latencyCount
}
