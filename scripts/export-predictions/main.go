package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"diabetes-risk/internal/storage"
)

func main() {
	var (
		dataPath   = flag.String("data", "data", "Data directory holding the prediction history")
		outputPath = flag.String("output", "predictions.csv", "Output file path")
		format     = flag.String("format", "csv", "Output format: csv or json")
		days       = flag.Int("days", 30, "Number of days to export")
	)
	flag.Parse()

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -*days)
	log.Printf("Exporting predictions from %s (%s to %s) to %s",
		*dataPath, start.Format(time.RFC3339), end.Format(time.RFC3339), *outputPath)

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatalf("Failed to open prediction history: %v", err)
	}
	defer store.Close()

	records, err := store.GetPredictions(start, end)
	if err != nil {
		log.Fatalf("Failed to read predictions: %v", err)
	}

	file, err := os.Create(*outputPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer file.Close()

	switch *format {
	case "csv":
		err = writeCSV(file, records)
	case "json":
		enc := json.NewEncoder(file)
		enc.SetIndent("", "  ")
		err = enc.Encode(records)
	default:
		err = fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		log.Fatalf("Failed to write export: %v", err)
	}

	log.Printf("Exported %d predictions", len(records))
}

func writeCSV(w io.Writer, records []storage.PredictionRecord) error {
	cw := csv.NewWriter(w)
	header := []string{"ID", "Timestamp", "Model Version", "Class", "P(negative)", "P(positive)", "Risk Score", "Confidence", "Threshold"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.ID,
			r.Timestamp.Format(time.RFC3339Nano),
			r.ModelVersion,
			strconv.Itoa(r.Class),
			fmt.Sprintf("%.4f", r.Probabilities[0]),
			fmt.Sprintf("%.4f", r.Probabilities[1]),
			fmt.Sprintf("%.4f", r.RiskScore),
			fmt.Sprintf("%.4f", r.Confidence),
			fmt.Sprintf("%.4f", r.Threshold),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
