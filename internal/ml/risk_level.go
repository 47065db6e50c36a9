package ml

// RiskLevel is a coarse band over the class-1 probability.
type RiskLevel struct {
	Level       string `json:"level"`
	Description string `json:"description"`
}

// RiskLevelFor maps a probability onto its band.
func RiskLevelFor(probability float64) RiskLevel {
	switch {
	case probability < 0.3:
		return RiskLevel{
			Level:       "Low Risk",
			Description: "Low probability of diabetes based on current factors.",
		}
	case probability < 0.5:
		return RiskLevel{
			Level:       "Moderate Risk",
			Description: "Moderate probability. Consider lifestyle modifications and regular screening.",
		}
	case probability < 0.7:
		return RiskLevel{
			Level:       "High Risk",
			Description: "High probability. Consult healthcare provider for comprehensive screening.",
		}
	default:
		return RiskLevel{
			Level:       "Very High Risk",
			Description: "Very high probability. Urgent medical consultation recommended.",
		}
	}
}
