package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diabetes-risk/internal/analytics"
	"diabetes-risk/internal/dataset"
)

const surveyCSV = "Diabetes_012,Age,Smoker,PhysActivity,BMI,HighBP,Income\n" +
	"0,1,0,1,22,0,8\n" +
	"2,9,1,0,35,1,3\n" +
	"0,9,1,1,27,0,5\n" +
	"1,12,0,0,31,1,4\n"

func newReporter(t *testing.T) (*Reporter, string) {
	t.Helper()
	d, err := dataset.Parse([]byte(surveyCSV))
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	r := NewReporter(analytics.Analyze(d), "survey.csv", dir)
	r.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return r, dir
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestGenerate_All(t *testing.T) {
	r, dir := newReporter(t)
	require.NoError(t, r.Generate(FormatAll))

	for _, name := range []string{SummaryFile, JSONFile, AgeBinnedFile, RiskFactorsFile, MosaicFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestGenerate_Summary(t *testing.T) {
	r, dir := newReporter(t)
	require.NoError(t, r.Generate(FormatText))

	data, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Source: survey.csv")
	assert.Contains(t, text, "Generated: 2025-03-01 12:00:00")
	assert.Contains(t, text, "Records: 4")
	assert.Contains(t, text, "Target: Diabetes_012")
	assert.Contains(t, text, "Imbalance ratio: 1.00")
	assert.Contains(t, text, "Average BMI: 28.8")
	assert.Contains(t, text, "Smokers: 2 people, 50.00% diabetic")
	assert.NoFileExists(t, filepath.Join(dir, JSONFile))
}

func TestGenerate_JSON(t *testing.T) {
	r, dir := newReporter(t)
	require.NoError(t, r.Generate(FormatJSON))

	data, err := os.ReadFile(filepath.Join(dir, JSONFile))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "survey.csv", doc["source"])
	assert.Equal(t, "2025-03-01T12:00:00Z", doc["generated_at"])
	assert.Contains(t, doc, "metadata")
	a := doc["analytics"].(map[string]any)
	assert.Contains(t, a, "age_binned")
	assert.Contains(t, a, "mosaic")
}

func TestGenerate_CSV(t *testing.T) {
	r, dir := newReporter(t)
	require.NoError(t, r.Generate(FormatCSV))

	bins := readCSV(t, filepath.Join(dir, AgeBinnedFile))
	require.Len(t, bins, 4) // header + ages 1, 9, 12
	assert.Equal(t, []string{"Age Code", "Age", "Total", "Diabetic", "Non-Diabetic", "Diabetic %"}, bins[0])
	assert.Equal(t, []string{"9", analytics.AgeLabel(9), "2", "1", "1", "50.00"}, bins[2])

	mosaic := readCSV(t, filepath.Join(dir, MosaicFile))
	// 3 age groups × 2 smoking × 2 outcomes
	assert.Len(t, mosaic, 1+3*2*2)

	factors := readCSV(t, filepath.Join(dir, RiskFactorsFile))
	assert.Equal(t, "Factor", factors[0][0])
}

func TestGenerate_UnknownFormat(t *testing.T) {
	r, dir := newReporter(t)
	assert.Error(t, r.Generate("xml"))
	assert.NoDirExists(t, dir)
}

func TestPrintSummary(t *testing.T) {
	r, _ := newReporter(t)
	var buf bytes.Buffer
	r.PrintSummary(&buf)
	assert.Contains(t, buf.String(), "DIABETES RISK DATASET SUMMARY")
	assert.Contains(t, buf.String(), "KEY CORRELATIONS")
}
