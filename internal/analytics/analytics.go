// Package analytics derives population statistics from the survey dataset.
//
// Every function here is a pure read over an immutable *dataset.Dataset and
// recomputes its result on each call. Engine binds the same functions to a
// dataset.Cache and reports dataset.ErrDataNotLoaded until the cache is loaded.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"diabetes-risk/internal/dataset"
)

// Survey column names.
const (
	ColAge          = "Age"
	ColBMI          = "BMI"
	ColIncome       = "Income"
	ColSmoker       = "Smoker"
	ColPhysActivity = "PhysActivity"
	ColHighBP       = "HighBP"
	ColHighChol     = "HighChol"
	ColGenHlth      = "GenHlth"
)

// keyFeatures are correlated against the target in KeyCorrelations.
var keyFeatures = []string{ColHighBP, ColHighChol, ColBMI, ColAge, ColGenHlth}

const maxKeyCorrelations = 5

type Imbalance struct {
	// Ratio is negative/positive to two decimals, or "0" without positives.
	Ratio         string `json:"ratio"`
	NegativeCount int    `json:"negative_count"`
	PositiveCount int    `json:"positive_count"`
}

type CorrelationEntry struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// ClassImbalance summarizes the outcome class counts.
func ClassImbalance(d *dataset.Dataset) Imbalance {
	cd := d.Metadata.ClassDistribution
	ratio := "0"
	if cd.Positive > 0 {
		// halves round up, so 9/8 is "1.13"
		r := float64(cd.Negative) / float64(cd.Positive)
		ratio = strconv.FormatFloat(math.Floor(r*100+0.5)/100, 'f', 2, 64)
	}
	return Imbalance{
		Ratio:         ratio,
		NegativeCount: cd.Negative,
		PositiveCount: cd.Positive,
	}
}

// Correlation is the Pearson coefficient of two columns over the rows where
// both are numeric. It is 0 when there are no such rows or either column has
// no variance.
func Correlation(d *dataset.Dataset, a, b string) float64 {
	var xs, ys []float64
	for _, row := range d.Rows {
		x, okX := dataset.Number(row[a])
		y, okY := dataset.Number(row[b])
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) == 0 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// KeyCorrelations correlates the key clinical features present in the dataset
// with the target, strongest first.
func KeyCorrelations(d *dataset.Dataset) []CorrelationEntry {
	var out []CorrelationEntry
	for _, f := range keyFeatures {
		if f == d.TargetColumn || !d.HasColumn(f) {
			continue
		}
		out = append(out, CorrelationEntry{
			Feature: fmt.Sprintf("%s → %s", f, d.TargetColumn),
			Value:   round(Correlation(d, f, d.TargetColumn), 3),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Value) > math.Abs(out[j].Value)
	})
	if len(out) > maxKeyCorrelations {
		out = out[:maxKeyCorrelations]
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// percent returns part/total*100, or 0 for an empty total.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// ratio returns a/b, or 0 when b is 0.
func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// binaryCode reads a 0/1 indicator cell.
func binaryCode(v any) (int, bool) {
	f, ok := dataset.Number(v)
	if !ok || (f != 0 && f != 1) {
		return 0, false
	}
	return int(f), true
}

// intCode reads an integer category code in [lo,hi].
func intCode(v any, lo, hi int) (int, bool) {
	f, ok := dataset.Number(v)
	if !ok || f != math.Trunc(f) || f < float64(lo) || f > float64(hi) {
		return 0, false
	}
	return int(f), true
}
