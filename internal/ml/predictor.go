package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"diabetes-risk/internal/fetch"
	"diabetes-risk/internal/loadonce"
	"diabetes-risk/internal/preprocess"
	"diabetes-risk/internal/storage"
	"diabetes-risk/internal/tree"
)

var (
	// ErrModelLoad wraps any failure to fetch, parse or validate the artifacts.
	ErrModelLoad = errors.New("model load failed")
	// ErrDegenerateLeaf is returned when the reached leaf has no samples.
	ErrDegenerateLeaf = errors.New("degenerate leaf: zero sample counts")
)

// Bundle is a loaded model together with its preprocessing config.
type Bundle struct {
	Model  *Model
	Config *preprocess.Config
}

// Result is one prediction.
type Result struct {
	Class         int        `json:"class"`
	Probabilities [2]float64 `json:"probabilities"`
	RiskScore     float64    `json:"risk_score"`
	Confidence    float64    `json:"confidence"`
	ModelVersion  string     `json:"model_version"`
	Threshold     float64    `json:"threshold"`
	RiskLevel     RiskLevel  `json:"risk_level"`

	// Majority class at the leaf; may disagree with Class.
	LeafClass int       `json:"-"`
	Features  []float64 `json:"-"`
}

type Predictor struct {
	fetcher       fetch.Fetcher
	modelLocation string
	configLoc     string
	loader        *loadonce.Loader[*Bundle]
	metrics       MetricsInterface
	recorder      Recorder
	recordInputs  bool
}

// New creates a predictor that lazily loads both artifacts on first use.
func New(fetcher fetch.Fetcher, modelLocation, preprocLocation string) *Predictor {
	return NewWithMetrics(fetcher, modelLocation, preprocLocation, nil)
}

func NewWithMetrics(fetcher fetch.Fetcher, modelLocation, preprocLocation string, metrics MetricsInterface) *Predictor {
	p := &Predictor{
		fetcher:       fetcher,
		modelLocation: modelLocation,
		configLoc:     preprocLocation,
		metrics:       metrics,
	}
	p.loader = loadonce.New(p.loadBundle)
	return p
}

// SetRecorder enables prediction history. Raw inputs are stored only when
// includeInputs is set.
func (p *Predictor) SetRecorder(r Recorder, includeInputs bool) {
	p.recorder = r
	p.recordInputs = includeInputs
}

func (p *Predictor) loadBundle(ctx context.Context) (*Bundle, error) {
	start := time.Now()

	var modelData, configData []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := p.fetcher.Fetch(gctx, p.modelLocation)
		if err != nil {
			return fmt.Errorf("fetch model: %w", err)
		}
		modelData = data
		return nil
	})
	g.Go(func() error {
		data, err := p.fetcher.Fetch(gctx, p.configLoc)
		if err != nil {
			return fmt.Errorf("fetch preprocessing config: %w", err)
		}
		configData = data
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, p.loadFailed(err)
	}

	model, err := ParseModel(modelData)
	if err != nil {
		return nil, p.loadFailed(err)
	}
	cfg, err := preprocess.ParseConfig(configData)
	if err != nil {
		return nil, p.loadFailed(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, p.loadFailed(err)
	}
	// Out-of-range indices fail only on the paths that reach them.
	if maxIdx := tree.MaxFeatureIndex(model.Tree.Nodes); maxIdx >= cfg.NumFeatures() {
		log.Warn().
			Int("max_feature_index", maxIdx).
			Int("features", cfg.NumFeatures()).
			Msg("Tree references features beyond the preprocessing config")
	}

	if p.metrics != nil {
		p.metrics.MLModelLoadsInc()
	}
	log.Info().
		Str("model_version", model.ModelVersion).
		Float64("threshold", model.Threshold).
		Int("nodes", len(model.Tree.Nodes)).
		Int("features", cfg.NumFeatures()).
		Dur("took", time.Since(start)).
		Msg("Decision tree model loaded")

	return &Bundle{Model: model, Config: cfg}, nil
}

func (p *Predictor) loadFailed(err error) error {
	if p.metrics != nil {
		p.metrics.MLModelLoadFailuresInc()
	}
	log.Error().Err(err).
		Str("model_location", p.modelLocation).
		Str("preproc_location", p.configLoc).
		Msg("Failed to load model artifacts")
	return fmt.Errorf("%w: %w", ErrModelLoad, err)
}

// Load warms the artifact cache. After a failure the next call tries again.
func (p *Predictor) Load(ctx context.Context) error {
	_, err := p.loader.Get(ctx)
	return err
}

// State reports the artifact loader state.
func (p *Predictor) State() loadonce.State {
	return p.loader.State()
}

func (p *Predictor) Info(ctx context.Context) (*ModelInfo, error) {
	if p == nil {
		return nil, ErrModelLoad
	}
	b, err := p.loader.Get(ctx)
	if err != nil {
		return nil, err
	}
	features := make([]string, 0, len(b.Config.FinalFeatureOrder))
	for _, spec := range b.Config.FinalFeatureOrder {
		if spec.Kind == preprocess.KindOneHot {
			features = append(features, fmt.Sprintf("%s=%v", spec.Source, spec.Category))
		} else {
			features = append(features, spec.Source)
		}
	}
	return &ModelInfo{
		ModelVersion: b.Model.ModelVersion,
		Threshold:    b.Model.Threshold,
		Nodes:        len(b.Model.Tree.Nodes),
		Leaves:       tree.NumLeaves(b.Model.Tree.Nodes),
		NumFeatures:  b.Config.NumFeatures(),
		Features:     features,
		State:        p.loader.State().String(),
	}, nil
}

// Predict turns raw user attributes into a thresholded prediction.
func (p *Predictor) Predict(ctx context.Context, raw map[string]any) (*Result, error) {
	if p == nil {
		return nil, ErrModelLoad
	}

	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.MLLatencyObserve(time.Since(start).Seconds())
		}
	}()

	res, err := p.predict(ctx, raw)
	if err != nil {
		if p.metrics != nil {
			p.metrics.MLFailuresInc()
		}
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.MLPredictionsInc()
		p.metrics.MLPredictionScoresObserve(res.RiskScore)
	}
	p.record(res, raw)
	return res, nil
}

func (p *Predictor) predict(ctx context.Context, raw map[string]any) (*Result, error) {
	b, err := p.loader.Get(ctx)
	if err != nil {
		return nil, err
	}

	features, err := preprocess.Preprocess(raw, b.Config)
	if err != nil {
		return nil, err
	}

	leaf, err := tree.Evaluate(b.Model.Tree.Nodes, features)
	if err != nil {
		return nil, err
	}

	total := leaf.LeafCounts[0] + leaf.LeafCounts[1]
	if total == 0 {
		return nil, fmt.Errorf("%w: leaf %d", ErrDegenerateLeaf, leaf.LeafIndex)
	}
	probs := [2]float64{leaf.LeafCounts[0] / total, leaf.LeafCounts[1] / total}

	class := 0
	if probs[1] >= b.Model.Threshold {
		class = 1
	}

	return &Result{
		Class:         class,
		Probabilities: probs,
		RiskScore:     probs[1],
		Confidence:    math.Max(probs[0], probs[1]),
		ModelVersion:  b.Model.ModelVersion,
		Threshold:     b.Model.Threshold,
		RiskLevel:     RiskLevelFor(probs[1]),
		LeafClass:     leaf.PredictedClass,
		Features:      features,
	}, nil
}

func (p *Predictor) record(res *Result, raw map[string]any) {
	if p.recorder == nil {
		return
	}
	rec := storage.PredictionRecord{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		ModelVersion:  res.ModelVersion,
		Class:         res.Class,
		Probabilities: res.Probabilities,
		RiskScore:     res.RiskScore,
		Confidence:    res.Confidence,
		Threshold:     res.Threshold,
		Features:      res.Features,
	}
	if p.recordInputs {
		rec.Input = raw
	}
	if err := p.recorder.StorePrediction(rec); err != nil {
		log.Warn().Err(err).Str("id", rec.ID).Msg("Failed to record prediction")
	}
}
