// Package preprocess turns raw user attributes into the fixed-order numeric
// feature vector the decision tree was trained on.
//
// Numeric features are imputed when blank and clamped to the training range.
// Categorical features are one-hot encoded against a single category value.
package preprocess

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Feature kinds understood by the preprocessor.
const (
	KindNumeric = "numeric"
	KindOneHot  = "onehot"
)

var (
	// ErrInvalidInput is returned when a numeric feature cannot be coerced to a number
	// even after imputation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig is returned by Validate for structurally unusable configs.
	ErrInvalidConfig = errors.New("invalid preprocessing config")
)

// FeatureSpec describes one position of the final feature vector.
type FeatureSpec struct {
	Kind     string `json:"kind"`
	Source   string `json:"source"`
	Category any    `json:"category,omitempty"`
}

// Range is the training-set bound of a numeric feature.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Config is the preprocessing artifact shipped alongside the model.
type Config struct {
	FinalFeatureOrder  []FeatureSpec      `json:"final_feature_order"`
	NumericImputation  map[string]float64 `json:"numeric_imputation"`
	NumericRangesTrain map[string]Range   `json:"numeric_ranges_train"`
}

// ParseConfig decodes a preprocessing artifact.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &c, nil
}

// Validate checks that every spec can be evaluated.
func (c *Config) Validate() error {
	if c == nil || len(c.FinalFeatureOrder) == 0 {
		return fmt.Errorf("%w: empty final_feature_order", ErrInvalidConfig)
	}
	for i, spec := range c.FinalFeatureOrder {
		if spec.Source == "" {
			return fmt.Errorf("%w: feature %d has no source", ErrInvalidConfig, i)
		}
		switch spec.Kind {
		case KindNumeric:
			r, ok := c.NumericRangesTrain[spec.Source]
			if !ok {
				return fmt.Errorf("%w: numeric feature %q has no training range", ErrInvalidConfig, spec.Source)
			}
			if r.Min > r.Max {
				return fmt.Errorf("%w: numeric feature %q has min %v > max %v", ErrInvalidConfig, spec.Source, r.Min, r.Max)
			}
		case KindOneHot:
			if spec.Category == nil {
				return fmt.Errorf("%w: onehot feature %q has no category", ErrInvalidConfig, spec.Source)
			}
		default:
			return fmt.Errorf("%w: feature %d has unknown kind %q", ErrInvalidConfig, i, spec.Kind)
		}
	}
	return nil
}

// NumFeatures returns the length of the vector Preprocess produces.
func (c *Config) NumFeatures() int {
	return len(c.FinalFeatureOrder)
}

// Preprocess builds the feature vector for raw, in FinalFeatureOrder order.
func Preprocess(raw map[string]any, c *Config) ([]float64, error) {
	out := make([]float64, 0, len(c.FinalFeatureOrder))
	for _, spec := range c.FinalFeatureOrder {
		switch spec.Kind {
		case KindNumeric:
			v, err := numericValue(raw, spec.Source, c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		case KindOneHot:
			if strictEqual(raw[spec.Source], spec.Category) {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		default:
			return nil, fmt.Errorf("%w: unknown feature kind %q", ErrInvalidConfig, spec.Kind)
		}
	}
	return out, nil
}

func numericValue(raw map[string]any, source string, c *Config) (float64, error) {
	value := raw[source]
	if isBlank(value) {
		if imputed, ok := c.NumericImputation[source]; ok {
			value = imputed
		}
	}

	f, ok := toFloat(value)
	if !ok || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: feature %q value %v is not a number", ErrInvalidInput, source, value)
	}

	if r, ok := c.NumericRangesTrain[source]; ok {
		f = math.Max(r.Min, math.Min(r.Max, f))
	}
	return f, nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return numeric(v)
}

// numeric converts Go numeric kinds to float64. Strings are never numeric here.
func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// strictEqual compares without cross-type coercion: "1" never equals 1.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	if fa, ok := numeric(a); ok {
		fb, ok := numeric(b)
		return ok && fa == fb
	}
	if _, ok := numeric(b); ok {
		return false
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return sa == sb
	}
	ba, okA := a.(bool)
	bb, okB := b.(bool)
	return okA && okB && ba == bb
}
