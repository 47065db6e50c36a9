package analytics

import (
	"diabetes-risk/internal/dataset"
)

// Analytics groups every derived view of the dataset.
type Analytics struct {
	FeatureNames []string           `json:"feature_names"`
	Correlations []CorrelationEntry `json:"correlations"`
	Imbalance    Imbalance          `json:"imbalance"`
	AgeBinned    []AgeBin           `json:"age_binned"`
	PhysActivity ActivityImpact     `json:"phys_activity"`
	RiskFactors  []RiskFactorEntry  `json:"risk_factors"`
	Mosaic       Mosaic             `json:"mosaic"`
	Smoking      SmokingRiskSummary `json:"smoking"`
	Summary      Summary            `json:"summary"`
}

// Report is the full analysis of one dataset.
type Report struct {
	Metadata  dataset.Metadata `json:"metadata"`
	Analytics Analytics        `json:"analytics"`
}

// Analyze runs every analysis over d.
func Analyze(d *dataset.Dataset) Report {
	mosaic := AgeSmokingMosaic(d)
	return Report{
		Metadata: d.Metadata,
		Analytics: Analytics{
			FeatureNames: append([]string(nil), d.FeatureColumns...),
			Correlations: KeyCorrelations(d),
			Imbalance:    ClassImbalance(d),
			AgeBinned:    AgeBinnedRisk(d),
			PhysActivity: PhysActivityImpact(d),
			RiskFactors:  RiskFactorProfile(d),
			Mosaic:       mosaic,
			Smoking:      SmokingRisk(mosaic),
			Summary:      SummaryStats(d),
		},
	}
}

// Engine serves analytics from a dataset cache.
type Engine struct {
	cache *dataset.Cache
}

func NewEngine(cache *dataset.Cache) *Engine {
	return &Engine{cache: cache}
}

// compute runs f over the cached dataset, or fails with dataset.ErrDataNotLoaded.
func compute[T any](e *Engine, f func(*dataset.Dataset) T) (T, error) {
	d, err := e.cache.Dataset()
	if err != nil {
		var zero T
		return zero, err
	}
	return f(d), nil
}

func (e *Engine) Metadata() (dataset.Metadata, error) {
	return e.cache.Metadata()
}

func (e *Engine) Report() (Report, error) {
	return compute(e, Analyze)
}

func (e *Engine) ClassImbalance() (Imbalance, error) {
	return compute(e, ClassImbalance)
}

func (e *Engine) Correlation(a, b string) (float64, error) {
	return compute(e, func(d *dataset.Dataset) float64 { return Correlation(d, a, b) })
}

func (e *Engine) KeyCorrelations() ([]CorrelationEntry, error) {
	return compute(e, KeyCorrelations)
}

func (e *Engine) AgeBinnedRisk() ([]AgeBin, error) {
	return compute(e, AgeBinnedRisk)
}

func (e *Engine) PhysActivityImpact() (ActivityImpact, error) {
	return compute(e, PhysActivityImpact)
}

func (e *Engine) RiskFactorProfile() ([]RiskFactorEntry, error) {
	return compute(e, RiskFactorProfile)
}

func (e *Engine) AgeSmokingMosaic() (Mosaic, error) {
	return compute(e, AgeSmokingMosaic)
}

func (e *Engine) SmokingRisk() (SmokingRiskSummary, error) {
	return compute(e, func(d *dataset.Dataset) SmokingRiskSummary {
		return SmokingRisk(AgeSmokingMosaic(d))
	})
}

func (e *Engine) Summary() (Summary, error) {
	return compute(e, SummaryStats)
}
