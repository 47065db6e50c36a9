package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"diabetes-risk/internal/dataset"
)

// BRFSS household income bands, code 1 through 8.
var incomeLabels = [...]string{
	"Less than $10,000",
	"$10,000-$14,999",
	"$15,000-$19,999",
	"$20,000-$24,999",
	"$25,000-$34,999",
	"$35,000-$49,999",
	"$50,000-$74,999",
	"$75,000 or more",
}

// IncomeLabel returns the label of an income code, or "" outside 1..8.
func IncomeLabel(code int) string {
	if code < 1 || code > len(incomeLabels) {
		return ""
	}
	return incomeLabels[code-1]
}

// Summary holds population averages. Codes are 0 and labels empty when the
// column has no numeric values.
type Summary struct {
	AvgAgeCode     int     `json:"avg_age_code"`
	AvgAgeLabel    string  `json:"avg_age_label"`
	AvgBMI         float64 `json:"avg_bmi"`
	AvgIncomeCode  int     `json:"avg_income_code"`
	AvgIncomeLabel string  `json:"avg_income_label"`
}

// SummaryStats averages age code, BMI and income code over the rows where
// each is numeric.
func SummaryStats(d *dataset.Dataset) Summary {
	var s Summary
	if mean, ok := columnMean(d, ColAge); ok {
		s.AvgAgeCode = int(math.Round(mean))
		s.AvgAgeLabel = AgeLabel(s.AvgAgeCode)
	}
	if mean, ok := columnMean(d, ColBMI); ok {
		s.AvgBMI = round(mean, 1)
	}
	if mean, ok := columnMean(d, ColIncome); ok {
		s.AvgIncomeCode = int(math.Round(mean))
		s.AvgIncomeLabel = IncomeLabel(s.AvgIncomeCode)
	}
	return s
}

func columnMean(d *dataset.Dataset, column string) (float64, bool) {
	var xs []float64
	for _, row := range d.Rows {
		if v, ok := dataset.Number(row[column]); ok {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return 0, false
	}
	return stat.Mean(xs, nil), true
}
