package analytics

import (
	"diabetes-risk/internal/dataset"
)

// BRFSS five-year age categories, code 1 through 13.
var ageLabels = [...]string{
	"18-24", "25-29", "30-34", "35-39", "40-44", "45-49", "50-54",
	"55-59", "60-64", "65-69", "70-74", "75-79", "80+",
}

const (
	minAgeCode = 1
	maxAgeCode = len(ageLabels)
)

// Mosaic category labels.
const (
	LabelSmoker      = "Smoker"
	LabelNonSmoker   = "Non-Smoker"
	LabelNonDiabetic = "Non-Diabetic"
	LabelDiabetic    = "Diabetic/Prediabetic"
)

// AgeLabel returns the label of an age code, or "" outside 1..13.
func AgeLabel(code int) string {
	if code < minAgeCode || code > maxAgeCode {
		return ""
	}
	return ageLabels[code-1]
}

type AgeBin struct {
	AgeCode      int     `json:"age_code"`
	AgeLabel     string  `json:"age_label"`
	Total        int     `json:"total"`
	Positive     int     `json:"positive"`
	Negative     int     `json:"negative"`
	PositiveRate float64 `json:"positive_rate"`
}

// AgeBinnedRisk reports diabetes prevalence per age category. Rows need an
// integer age code in 1..13 and a known outcome; empty bins are left out.
func AgeBinnedRisk(d *dataset.Dataset) []AgeBin {
	var bins [maxAgeCode]AgeBin
	for _, row := range d.Rows {
		code, ok := intCode(row[ColAge], minAgeCode, maxAgeCode)
		if !ok {
			continue
		}
		b := &bins[code-1]
		switch d.Outcome(row) {
		case dataset.OutcomePositive:
			b.Positive++
		case dataset.OutcomeNegative:
			b.Negative++
		default:
			continue
		}
		b.Total++
	}

	out := make([]AgeBin, 0, maxAgeCode)
	for i, b := range bins {
		if b.Total == 0 {
			continue
		}
		b.AgeCode = i + 1
		b.AgeLabel = ageLabels[i]
		b.PositiveRate = percent(b.Positive, b.Total)
		out = append(out, b)
	}
	return out
}

type SmokingGroup struct {
	Total     int            `json:"total"`
	ByOutcome map[string]int `json:"by_outcome"`
}

type AgeGroup struct {
	AgeCode         int                     `json:"age_code"`
	Label           string                  `json:"label"`
	Total           int                     `json:"total"`
	BySmokingStatus map[string]SmokingGroup `json:"by_smoking_status"`
}

// Mosaic is the age × smoking × outcome cross-tabulation.
type Mosaic struct {
	AgeGroups         []AgeGroup `json:"age_groups"`
	SmokingCategories []string   `json:"smoking_categories"`
	Outcomes          []string   `json:"outcomes"`
	TotalRecords      int        `json:"total_records"`
}

// AgeSmokingMosaic cross-tabulates age category, smoking status and outcome.
// Rows missing any of the three are skipped, as are empty age groups.
func AgeSmokingMosaic(d *dataset.Dataset) Mosaic {
	groups := make([]AgeGroup, maxAgeCode)
	for i := range groups {
		groups[i] = AgeGroup{
			AgeCode: i + 1,
			Label:   ageLabels[i],
			BySmokingStatus: map[string]SmokingGroup{
				LabelSmoker:    {ByOutcome: map[string]int{LabelNonDiabetic: 0, LabelDiabetic: 0}},
				LabelNonSmoker: {ByOutcome: map[string]int{LabelNonDiabetic: 0, LabelDiabetic: 0}},
			},
		}
	}

	for _, row := range d.Rows {
		code, ok := intCode(row[ColAge], minAgeCode, maxAgeCode)
		if !ok {
			continue
		}
		smoker, ok := binaryCode(row[ColSmoker])
		if !ok {
			continue
		}
		var outcome string
		switch d.Outcome(row) {
		case dataset.OutcomePositive:
			outcome = LabelDiabetic
		case dataset.OutcomeNegative:
			outcome = LabelNonDiabetic
		default:
			continue
		}
		status := LabelNonSmoker
		if smoker == 1 {
			status = LabelSmoker
		}

		g := &groups[code-1]
		sg := g.BySmokingStatus[status]
		sg.Total++
		sg.ByOutcome[outcome]++
		g.BySmokingStatus[status] = sg
		g.Total++
	}

	m := Mosaic{
		AgeGroups:         []AgeGroup{},
		SmokingCategories: []string{LabelSmoker, LabelNonSmoker},
		Outcomes:          []string{LabelNonDiabetic, LabelDiabetic},
	}
	for _, g := range groups {
		if g.Total == 0 {
			continue
		}
		m.AgeGroups = append(m.AgeGroups, g)
		m.TotalRecords += g.Total
	}
	return m
}

type AgeRate struct {
	Label string  `json:"label"`
	Rate  float64 `json:"rate"`
}

// SmokingRiskSummary compares diabetes rates of smokers and non-smokers.
type SmokingRiskSummary struct {
	SmokerTotal    int      `json:"smoker_total"`
	NonSmokerTotal int      `json:"non_smoker_total"`
	SmokerRate     float64  `json:"smoker_rate"`
	NonSmokerRate  float64  `json:"non_smoker_rate"`
	RiskIncrease   float64  `json:"risk_increase"`
	RelativeRisk   float64  `json:"relative_risk"`
	HighestRiskAge *AgeRate `json:"highest_risk_age,omitempty"`
	LowestRiskAge  *AgeRate `json:"lowest_risk_age,omitempty"`
}

// SmokingRisk summarizes a mosaic by smoking status. Rates are percentages
// rounded to two decimals; ties between age groups keep the younger one.
func SmokingRisk(m Mosaic) SmokingRiskSummary {
	var s SmokingRiskSummary
	var smokerPos, nonSmokerPos int

	for _, g := range m.AgeGroups {
		sm := g.BySmokingStatus[LabelSmoker]
		ns := g.BySmokingStatus[LabelNonSmoker]
		s.SmokerTotal += sm.Total
		s.NonSmokerTotal += ns.Total
		smokerPos += sm.ByOutcome[LabelDiabetic]
		nonSmokerPos += ns.ByOutcome[LabelDiabetic]

		rate := AgeRate{
			Label: g.Label,
			Rate:  round(percent(sm.ByOutcome[LabelDiabetic]+ns.ByOutcome[LabelDiabetic], g.Total), 2),
		}
		if s.HighestRiskAge == nil || rate.Rate > s.HighestRiskAge.Rate {
			r := rate
			s.HighestRiskAge = &r
		}
		if s.LowestRiskAge == nil || rate.Rate < s.LowestRiskAge.Rate {
			r := rate
			s.LowestRiskAge = &r
		}
	}

	s.SmokerRate = round(percent(smokerPos, s.SmokerTotal), 2)
	s.NonSmokerRate = round(percent(nonSmokerPos, s.NonSmokerTotal), 2)
	s.RiskIncrease = round(s.SmokerRate-s.NonSmokerRate, 2)
	s.RelativeRisk = round(ratio(s.SmokerRate, s.NonSmokerRate), 2)
	return s
}
