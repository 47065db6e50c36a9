package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Outcome is the diabetes status of a row.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeNegative
	OutcomePositive
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNegative:
		return "negative"
	case OutcomePositive:
		return "positive"
	}
	return "unknown"
}

// ClassifyOutcome maps a target cell to an Outcome. 0 is negative, 1
// (prediabetic) and 2 (diabetic) are positive, numbers or their string forms.
// Anything else is unknown.
func ClassifyOutcome(v any) Outcome {
	switch x := v.(type) {
	case string:
		switch x {
		case "0":
			return OutcomeNegative
		case "1", "2":
			return OutcomePositive
		}
		return OutcomeUnknown
	case nil, bool:
		return OutcomeUnknown
	}
	f, ok := Number(v)
	if !ok {
		return OutcomeUnknown
	}
	switch f {
	case 0:
		return OutcomeNegative
	case 1, 2:
		return OutcomePositive
	}
	return OutcomeUnknown
}

// Number coerces a cell to a finite float. Numeric strings are accepted.
func Number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint64:
		f = float64(x)
	case uint32:
		f = float64(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsMissing reports whether a cell counts as a missing value.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case float64:
		return math.IsNaN(x)
	}
	return false
}

// typeCell turns raw CSV text into a dynamically typed value.
func typeCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	return f
}
