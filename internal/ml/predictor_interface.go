// Package ml provides diabetes-risk prediction from a serialized decision tree.
// It loads the model and its preprocessing artifact once, turns raw attributes
// into a feature vector, walks the tree and converts leaf counts into a
// thresholded class, calibrated probabilities and a risk score.
//
// Monitoring and prediction history are optional hooks; a Predictor without
// them behaves identically.
package ml

import (
	"context"

	"diabetes-risk/internal/storage"
)

// PredictorInterface is what transport layers need from a predictor.
type PredictorInterface interface {
	// Predict evaluates raw user attributes against the model.
	Predict(ctx context.Context, raw map[string]any) (*Result, error)

	// Info describes the loaded model, loading it if needed.
	Info(ctx context.Context) (*ModelInfo, error)
}

// MetricsInterface defines metrics methods needed by the predictor
type MetricsInterface interface {
	MLPredictionsInc()
	MLFailuresInc()
	MLLatencyObserve(float64)
	MLPredictionScoresObserve(float64)
	MLModelLoadsInc()
	MLModelLoadFailuresInc()
}

// Recorder persists served predictions.
type Recorder interface {
	StorePrediction(rec storage.PredictionRecord) error
}
