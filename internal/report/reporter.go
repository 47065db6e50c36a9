// Package report writes an analytics report to disk as a text summary,
// a JSON document and per-table CSV files.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"diabetes-risk/internal/analytics"
)

// Output formats accepted by Generate.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatAll  = "all"
)

// File names written into the output directory.
const (
	SummaryFile     = "analytics_summary.txt"
	JSONFile        = "analytics_report.json"
	AgeBinnedFile   = "age_binned_risk.csv"
	RiskFactorsFile = "risk_factors.csv"
	MosaicFile      = "age_smoking_mosaic.csv"
)

// Reporter generates dataset analytics reports
type Reporter struct {
	report     analytics.Report
	source     string
	outputPath string
	now        func() time.Time
}

// NewReporter creates a new reporter. source names the dataset location.
func NewReporter(report analytics.Report, source, outputPath string) *Reporter {
	return &Reporter{
		report:     report,
		source:     source,
		outputPath: outputPath,
		now:        time.Now,
	}
}

// Generate writes the requested format, or every format for FormatAll.
func (r *Reporter) Generate(format string) error {
	var steps []func() error
	switch format {
	case FormatText:
		steps = []func() error{r.generateSummary}
	case FormatJSON:
		steps = []func() error{r.generateJSONReport}
	case FormatCSV:
		steps = []func() error{r.generateAgeBinned, r.generateRiskFactors, r.generateMosaic}
	case FormatAll:
		steps = []func() error{r.generateSummary, r.generateJSONReport, r.generateAgeBinned, r.generateRiskFactors, r.generateMosaic}
	default:
		return fmt.Errorf("unknown report format %q", format)
	}

	if err := os.MkdirAll(r.outputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, SummaryFile)
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	r.writeSummary(file)

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

func (r *Reporter) writeSummary(w io.Writer) {
	md := r.report.Metadata
	a := r.report.Analytics

	fmt.Fprintf(w, "DIABETES RISK DATASET SUMMARY\n")
	fmt.Fprintf(w, "=============================\n\n")
	fmt.Fprintf(w, "Source: %s\n", r.source)
	fmt.Fprintf(w, "Generated: %s\n\n", r.now().Format("2006-01-02 15:04:05"))

	fmt.Fprintf(w, "DATASET\n")
	fmt.Fprintf(w, "-------\n")
	fmt.Fprintf(w, "Records: %d\n", md.TotalRecords)
	fmt.Fprintf(w, "Features: %d (%d numeric)\n", md.Features, md.FeatureTypes.Numeric)
	fmt.Fprintf(w, "Target: %s\n", md.TargetVariable)
	fmt.Fprintf(w, "Missing values: %d\n", md.MissingValues)
	fmt.Fprintf(w, "Non-diabetic: %d\n", a.Imbalance.NegativeCount)
	fmt.Fprintf(w, "Diabetic/prediabetic: %d\n", a.Imbalance.PositiveCount)
	fmt.Fprintf(w, "Imbalance ratio: %s\n\n", a.Imbalance.Ratio)

	fmt.Fprintf(w, "POPULATION\n")
	fmt.Fprintf(w, "----------\n")
	fmt.Fprintf(w, "Average age: %s (code %d)\n", orNA(a.Summary.AvgAgeLabel), a.Summary.AvgAgeCode)
	fmt.Fprintf(w, "Average BMI: %.1f\n", a.Summary.AvgBMI)
	fmt.Fprintf(w, "Average income: %s (code %d)\n\n", orNA(a.Summary.AvgIncomeLabel), a.Summary.AvgIncomeCode)

	if len(a.Correlations) > 0 {
		fmt.Fprintf(w, "KEY CORRELATIONS\n")
		fmt.Fprintf(w, "----------------\n")
		for _, c := range a.Correlations {
			fmt.Fprintf(w, "%s: %.3f\n", c.Feature, c.Value)
		}
		fmt.Fprintln(w)
	}

	pa := a.PhysActivity
	fmt.Fprintf(w, "PHYSICAL ACTIVITY\n")
	fmt.Fprintf(w, "-----------------\n")
	fmt.Fprintf(w, "Active: %d people, %.2f%% diabetic\n", pa.Active.Total, pa.Active.DiabetesRate)
	fmt.Fprintf(w, "Inactive: %d people, %.2f%% diabetic\n", pa.Inactive.Total, pa.Inactive.DiabetesRate)
	fmt.Fprintf(w, "Relative risk: %.2f\n", pa.RelativeRisk)
	fmt.Fprintf(w, "Risk reduction: %.2f%%\n\n", pa.RiskReduction)

	sm := a.Smoking
	fmt.Fprintf(w, "SMOKING\n")
	fmt.Fprintf(w, "-------\n")
	fmt.Fprintf(w, "Smokers: %d people, %.2f%% diabetic\n", sm.SmokerTotal, sm.SmokerRate)
	fmt.Fprintf(w, "Non-smokers: %d people, %.2f%% diabetic\n", sm.NonSmokerTotal, sm.NonSmokerRate)
	fmt.Fprintf(w, "Relative risk: %.2f\n", sm.RelativeRisk)
	if sm.HighestRiskAge != nil {
		fmt.Fprintf(w, "Highest risk age: %s (%.2f%%)\n", sm.HighestRiskAge.Label, sm.HighestRiskAge.Rate)
	}
	if sm.LowestRiskAge != nil {
		fmt.Fprintf(w, "Lowest risk age: %s (%.2f%%)\n", sm.LowestRiskAge.Label, sm.LowestRiskAge.Rate)
	}

	if len(a.RiskFactors) > 0 {
		fmt.Fprintf(w, "\nRISK FACTORS (diabetic vs non-diabetic)\n")
		fmt.Fprintf(w, "---------------------------------------\n")
		for _, f := range a.RiskFactors {
			fmt.Fprintf(w, "%s: %.1f%% vs %.1f%% (diff %.1f, ratio %.2f)\n",
				f.Factor, f.Diabetic, f.NonDiabetic, f.Difference, f.Ratio)
		}
	}
}

func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, JSONFile)

	doc := struct {
		analytics.Report
		Source      string    `json:"source"`
		GeneratedAt time.Time `json:"generated_at"`
	}{r.report, r.source, r.now()}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}

func (r *Reporter) generateAgeBinned() error {
	header := []string{"Age Code", "Age", "Total", "Diabetic", "Non-Diabetic", "Diabetic %"}
	var records [][]string
	for _, b := range r.report.Analytics.AgeBinned {
		records = append(records, []string{
			strconv.Itoa(b.AgeCode),
			b.AgeLabel,
			strconv.Itoa(b.Total),
			strconv.Itoa(b.Positive),
			strconv.Itoa(b.Negative),
			fmt.Sprintf("%.2f", b.PositiveRate),
		})
	}
	return r.writeCSV(AgeBinnedFile, header, records)
}

func (r *Reporter) generateRiskFactors() error {
	header := []string{"Factor", "Column", "Diabetic %", "Non-Diabetic %", "Difference", "Ratio"}
	var records [][]string
	for _, f := range r.report.Analytics.RiskFactors {
		records = append(records, []string{
			f.Factor,
			f.Column,
			fmt.Sprintf("%.1f", f.Diabetic),
			fmt.Sprintf("%.1f", f.NonDiabetic),
			fmt.Sprintf("%.1f", f.Difference),
			fmt.Sprintf("%.2f", f.Ratio),
		})
	}
	return r.writeCSV(RiskFactorsFile, header, records)
}

// generateMosaic flattens the mosaic to one row per age, smoking status
// and outcome cell.
func (r *Reporter) generateMosaic() error {
	m := r.report.Analytics.Mosaic
	header := []string{"Age Code", "Age", "Smoking", "Outcome", "Count"}
	var records [][]string
	for _, g := range m.AgeGroups {
		for _, status := range m.SmokingCategories {
			sg := g.BySmokingStatus[status]
			for _, outcome := range m.Outcomes {
				records = append(records, []string{
					strconv.Itoa(g.AgeCode),
					g.Label,
					status,
					outcome,
					strconv.Itoa(sg.ByOutcome[outcome]),
				})
			}
		}
	}
	return r.writeCSV(MosaicFile, header, records)
}

func (r *Reporter) writeCSV(name string, header []string, records [][]string) error {
	csvPath := filepath.Join(r.outputPath, name)
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	log.Info().Str("file", csvPath).Int("rows", len(records)).Msg("CSV report generated")
	return nil
}

// PrintSummary prints the text summary to w.
func (r *Reporter) PrintSummary(w io.Writer) {
	r.writeSummary(w)
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
