package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"diabetes-risk/internal/fetch"
	"diabetes-risk/internal/loadonce"
)

var (
	// ErrDatasetLoad wraps fetch and parse failures.
	ErrDatasetLoad = errors.New("dataset load failed")
	// ErrDataNotLoaded is returned by accessors before a successful Load.
	ErrDataNotLoaded = errors.New("dataset not loaded")
)

// MetricsInterface defines metrics methods needed by the cache
type MetricsInterface interface {
	DatasetLoadsInc()
	DatasetLoadFailuresInc()
	DatasetLoadDurationObserve(float64)
	DatasetRowsSet(float64)
}

// Cache owns the single loaded copy of the dataset.
type Cache struct {
	fetcher  fetch.Fetcher
	location string
	loader   *loadonce.Loader[*Dataset]
	metrics  MetricsInterface
}

func NewCache(fetcher fetch.Fetcher, location string) *Cache {
	return NewCacheWithMetrics(fetcher, location, nil)
}

func NewCacheWithMetrics(fetcher fetch.Fetcher, location string, metrics MetricsInterface) *Cache {
	c := &Cache{fetcher: fetcher, location: location, metrics: metrics}
	c.loader = loadonce.New(c.load)
	return c
}

// Load fetches and parses the dataset. It is a no-op once loaded; concurrent
// callers share one in-flight load and a failed load is retried only by the
// next call.
func (c *Cache) Load(ctx context.Context) error {
	_, err := c.loader.Get(ctx)
	return err
}

func (c *Cache) load(ctx context.Context) (*Dataset, error) {
	start := time.Now()
	log.Info().Str("location", c.location).Msg("Loading dataset")

	data, err := c.fetcher.Fetch(ctx, c.location)
	if err != nil {
		return nil, c.failed(fmt.Errorf("fetch: %w", err))
	}
	d, err := Parse(data)
	if err != nil {
		return nil, c.failed(fmt.Errorf("parse: %w", err))
	}

	elapsed := time.Since(start)
	if c.metrics != nil {
		c.metrics.DatasetLoadsInc()
		c.metrics.DatasetLoadDurationObserve(elapsed.Seconds())
		c.metrics.DatasetRowsSet(float64(len(d.Rows)))
	}
	log.Info().
		Int("records", d.Metadata.TotalRecords).
		Int("features", d.Metadata.Features).
		Str("target", d.TargetColumn).
		Int("missing", d.Metadata.MissingValues).
		Dur("took", elapsed).
		Msg("Dataset loaded")
	return d, nil
}

func (c *Cache) failed(err error) error {
	if c.metrics != nil {
		c.metrics.DatasetLoadFailuresInc()
	}
	log.Error().Err(err).Str("location", c.location).Msg("Failed to load dataset")
	return fmt.Errorf("%w: %w", ErrDatasetLoad, err)
}

// Dataset returns the loaded dataset without triggering a load.
func (c *Cache) Dataset() (*Dataset, error) {
	d, ok := c.loader.Peek()
	if !ok {
		return nil, ErrDataNotLoaded
	}
	return d, nil
}

func (c *Cache) Rows() ([]Row, error) {
	d, err := c.Dataset()
	if err != nil {
		return nil, err
	}
	return d.Rows, nil
}

func (c *Cache) Metadata() (Metadata, error) {
	d, err := c.Dataset()
	if err != nil {
		return Metadata{}, err
	}
	return d.Metadata, nil
}

// State reports the loader state.
func (c *Cache) State() loadonce.State {
	return c.loader.State()
}

// LastError is the error of the most recent failed load, if any.
func (c *Cache) LastError() error {
	return c.loader.Err()
}
