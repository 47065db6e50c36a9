package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"diabetes-risk/internal/api"
	"diabetes-risk/internal/cfg"
	"diabetes-risk/internal/dataset"
	"diabetes-risk/internal/fetch"
	"diabetes-risk/internal/metrics"
	"diabetes-risk/internal/ml"
	"diabetes-risk/internal/storage"
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)
	metricsServer := startMetricsServer(c)

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	fetcher := fetch.New(c.FetchTimeout)
	predictor := ml.NewWithMetrics(fetcher, c.ModelLocation, c.PreprocLocation, mw)
	cache := dataset.NewCacheWithMetrics(fetcher, c.DatasetLocation, mw)

	// history stays nil when storage is off
	var history api.History
	if store != nil {
		predictor.SetRecorder(store, c.RecordInputs)
		history = store
	}

	if c.Preload {
		preload(ctx, predictor, cache)
	}

	server := api.New(c.APIPort, predictor, cache, history, mw)
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start API server")
	}

	log.Info().
		Str("model", c.ModelLocation).
		Str("dataset", c.DatasetLocation).
		Int("api_port", c.APIPort).
		Int("metrics_port", c.MetricsPort).
		Bool("history", store != nil).
		Msg("diabetes risk service started")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown metrics server")
	}
	log.Info().Msg("shutdown complete")
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// initializeStorage opens the prediction history if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without prediction history")
		return nil
	}
	return store
}

// startMetricsServer serves Prometheus metrics on the metrics port
func startMetricsServer(c cfg.Settings) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return server
}

// preload warms the model and dataset. Failures are logged and the service
// still starts; the next request retries.
func preload(ctx context.Context, predictor *ml.Predictor, cache *dataset.Cache) {
	if err := predictor.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("model preload failed")
	}
	if err := cache.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("dataset preload failed")
	}
}
