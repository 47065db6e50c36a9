package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"diabetes-risk/internal/analytics"
	"diabetes-risk/internal/common"
	"diabetes-risk/internal/dataset"
	"diabetes-risk/internal/fetch"
	"diabetes-risk/internal/report"
)

func main() {
	var (
		datasetLoc = flag.String("dataset", "", "Dataset path or http(s) URL (default from config)")
		outputPath = flag.String("output", "reports", "Output directory for reports")
		format     = flag.String("format", report.FormatAll, "Report format: text, json, csv, all")
		logLevel   = flag.String("log-level", common.DefaultLogLevel, "Log level: debug, info, warn, error")
		timeout    = flag.Duration("timeout", time.Minute, "Dataset fetch timeout")
		quiet      = flag.Bool("quiet", false, "Do not print the summary to stdout")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *datasetLoc == "" {
		*datasetLoc = os.Getenv(common.EnvDatasetLocation)
	}
	if *datasetLoc == "" {
		*datasetLoc = common.DefaultDatasetLocation
	}

	cache := dataset.NewCache(fetch.New(*timeout), *datasetLoc)

	start := time.Now()
	if err := cache.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Str("dataset", *datasetLoc).Msg("Failed to load dataset")
	}
	d, err := cache.Dataset()
	if err != nil {
		log.Fatal().Err(err).Msg("Dataset unavailable")
	}

	rep := analytics.Analyze(d)
	log.Info().
		Int("records", rep.Metadata.TotalRecords).
		Str("target", rep.Metadata.TargetVariable).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis complete")

	reporter := report.NewReporter(rep, *datasetLoc, *outputPath)
	if err := reporter.Generate(*format); err != nil {
		log.Fatal().Err(err).Msg("Failed to write report")
	}

	if !*quiet {
		reporter.PrintSummary(os.Stdout)
		fmt.Printf("\nReports written to %s\n", *outputPath)
	}
}
