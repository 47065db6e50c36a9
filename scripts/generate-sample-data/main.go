package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
)

var header = []string{
	"Diabetes_012", "HighBP", "HighChol", "CholCheck", "BMI", "Smoker", "Stroke",
	"HeartDiseaseorAttack", "PhysActivity", "Fruits", "Veggies", "HvyAlcoholConsump",
	"AnyHealthcare", "NoDocbcCost", "GenHlth", "MentHlth", "PhysHlth", "DiffWalk",
	"Sex", "Age", "Education", "Income",
}

func main() {
	var (
		output = flag.String("output", "data/sample_health_indicators.csv", "Output CSV path")
		rows   = flag.Int("rows", 5000, "Number of survey rows to generate")
		seed   = flag.Uint64("seed", 42, "Random seed")
	)
	flag.Parse()

	fmt.Printf("Generating %d sample survey rows...\n", *rows)
	fmt.Printf("  Output: %s\n", *output)
	fmt.Printf("  Seed: %d\n", *seed)

	if err := os.MkdirAll(filepath.Dir(*output), 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	file, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer file.Close()

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	counts, err := generateSurvey(csv.NewWriter(file), rng, *rows)
	if err != nil {
		log.Fatalf("Failed to generate data: %v", err)
	}

	fmt.Printf("✓ Generated %d rows (%d no diabetes, %d prediabetes, %d diabetes)\n",
		*rows, counts[0], counts[1], counts[2])
}

func bernoulli(rng *rand.Rand, p float64) int {
	if rng.Float64() < p {
		return 1
	}
	return 0
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// generateSurvey writes rows whose outcome follows a logistic risk over age,
// BMI, blood pressure, cholesterol, activity and general health.
func generateSurvey(w *csv.Writer, rng *rand.Rand, n int) ([3]int, error) {
	var counts [3]int
	if err := w.Write(header); err != nil {
		return counts, err
	}

	for i := 0; i < n; i++ {
		age := clampInt(int(math.Round(7+rng.NormFloat64()*3)), 1, 13)
		bmi := math.Max(12, math.Round(27+rng.NormFloat64()*6))
		highBP := bernoulli(rng, 0.2+0.04*float64(age-1))
		highChol := bernoulli(rng, 0.25+0.03*float64(age-1))
		smoker := bernoulli(rng, 0.44)
		active := bernoulli(rng, 0.76)
		genHlth := clampInt(int(math.Round(2.5+rng.NormFloat64()+0.05*(bmi-27))), 1, 5)

		z := -5.2 + 0.18*float64(age) + 0.07*(bmi-12) + 0.8*float64(highBP) +
			0.6*float64(highChol) + 0.15*float64(smoker) - 0.3*float64(active) + 0.4*float64(genHlth-1)
		p := 1 / (1 + math.Exp(-z))

		outcome := 0
		if rng.Float64() < p {
			outcome = 2
			if rng.Float64() < 0.15 {
				outcome = 1
			}
		}
		counts[outcome]++

		rec := []int{
			outcome, highBP, highChol, bernoulli(rng, 0.96), int(bmi), smoker,
			bernoulli(rng, 0.04), bernoulli(rng, 0.09+0.1*float64(highBP)), active,
			bernoulli(rng, 0.63), bernoulli(rng, 0.81), bernoulli(rng, 0.06),
			bernoulli(rng, 0.95), bernoulli(rng, 0.08), genHlth,
			clampInt(int(rng.ExpFloat64()*3), 0, 30), clampInt(int(rng.ExpFloat64()*4), 0, 30),
			bernoulli(rng, 0.1+0.03*float64(genHlth)), bernoulli(rng, 0.44), age,
			clampInt(int(math.Round(5+rng.NormFloat64())), 1, 6),
			clampInt(int(math.Round(6+rng.NormFloat64()*2)), 1, 8),
		}

		// BRFSS exports floats
		fields := make([]string, len(rec))
		for j, v := range rec {
			fields[j] = strconv.FormatFloat(float64(v), 'f', 1, 64)
		}
		if err := w.Write(fields); err != nil {
			return counts, err
		}
	}

	w.Flush()
	return counts, w.Error()
}
