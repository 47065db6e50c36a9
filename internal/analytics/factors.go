package analytics

import (
	"math"
	"sort"

	"diabetes-risk/internal/dataset"
)

type ActivityGroup struct {
	Total        int     `json:"total"`
	Diabetic     int     `json:"diabetic"`
	NonDiabetic  int     `json:"non_diabetic"`
	DiabetesRate float64 `json:"diabetes_rate"`
}

type ActivityImpact struct {
	Active        ActivityGroup `json:"active"`
	Inactive      ActivityGroup `json:"inactive"`
	RelativeRisk  float64       `json:"relative_risk"`
	RiskReduction float64       `json:"risk_reduction"`
}

// PhysActivityImpact compares diabetes rates of physically active (1) and
// inactive (0) respondents.
func PhysActivityImpact(d *dataset.Dataset) ActivityImpact {
	var active, inactive ActivityGroup
	for _, row := range d.Rows {
		code, ok := binaryCode(row[ColPhysActivity])
		if !ok {
			continue
		}
		g := &inactive
		if code == 1 {
			g = &active
		}
		switch d.Outcome(row) {
		case dataset.OutcomePositive:
			g.Diabetic++
		case dataset.OutcomeNegative:
			g.NonDiabetic++
		default:
			continue
		}
		g.Total++
	}

	active.DiabetesRate = percent(active.Diabetic, active.Total)
	inactive.DiabetesRate = percent(inactive.Diabetic, inactive.Total)
	return ActivityImpact{
		Active:        active,
		Inactive:      inactive,
		RelativeRisk:  ratio(inactive.DiabetesRate, active.DiabetesRate),
		RiskReduction: inactive.DiabetesRate - active.DiabetesRate,
	}
}

// riskFactor is a named predicate over one numeric column.
type riskFactor struct {
	name   string
	column string
	has    func(v float64) bool
}

func equals(want float64) func(float64) bool {
	return func(v float64) bool { return v == want }
}

var riskFactors = []riskFactor{
	{"High Blood Pressure", "HighBP", equals(1)},
	{"High Cholesterol", "HighChol", equals(1)},
	{"Smoking", ColSmoker, equals(1)},
	{"Obesity (BMI>30)", ColBMI, func(v float64) bool { return v > 30 }},
	{"Physical Inactivity", ColPhysActivity, equals(0)},
	{"Heavy Alcohol Consumption", "HvyAlcoholConsump", equals(1)},
	{"Poor General Health", ColGenHlth, func(v float64) bool { return v >= 4 }},
	{"Heart Disease/Attack", "HeartDiseaseorAttack", equals(1)},
	{"Stroke History", "Stroke", equals(1)},
	{"Difficulty Walking", "DiffWalk", equals(1)},
}

type RiskFactorEntry struct {
	Factor      string  `json:"factor"`
	Column      string  `json:"column"`
	Diabetic    float64 `json:"diabetic"`
	NonDiabetic float64 `json:"non_diabetic"`
	Difference  float64 `json:"difference"`
	Ratio       float64 `json:"ratio"`
}

// RiskFactorProfile ranks risk factors by how much more common they are among
// diabetic respondents. Prevalences are percentages of each outcome subgroup
// that has a numeric value for the factor's column.
func RiskFactorProfile(d *dataset.Dataset) []RiskFactorEntry {
	type tally struct{ posHas, posN, negHas, negN int }

	tallies := make([]tally, len(riskFactors))
	for _, row := range d.Rows {
		outcome := d.Outcome(row)
		if outcome == dataset.OutcomeUnknown {
			continue
		}
		for i, f := range riskFactors {
			v, ok := dataset.Number(row[f.column])
			if !ok {
				continue
			}
			t := &tallies[i]
			if outcome == dataset.OutcomePositive {
				t.posN++
				if f.has(v) {
					t.posHas++
				}
			} else {
				t.negN++
				if f.has(v) {
					t.negHas++
				}
			}
		}
	}

	out := make([]RiskFactorEntry, len(riskFactors))
	for i, f := range riskFactors {
		t := tallies[i]
		pos := percent(t.posHas, t.posN)
		neg := percent(t.negHas, t.negN)
		out[i] = RiskFactorEntry{
			Factor:      f.name,
			Column:      f.column,
			Diabetic:    round(pos, 1),
			NonDiabetic: round(neg, 1),
			Difference:  round(pos-neg, 1),
			Ratio:       round(ratio(pos, neg), 2),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Difference) > math.Abs(out[j].Difference)
	})
	return out
}
