// Package fetch reads model artifacts and datasets from a location that is
// either an http(s) URL or a local file path.
package fetch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Fetcher returns the raw bytes stored at location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Client is the default Fetcher.
type Client struct {
	rest *resty.Client
}

// New creates a Client whose HTTP requests time out after timeout.
func New(timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(10 * time.Second)
	}
	return &Client{rest: r}
}

// Fetch reads location. URLs go through HTTP GET, "file://" and bare paths
// through the filesystem.
func (c *Client) Fetch(ctx context.Context, location string) ([]byte, error) {
	if IsRemote(location) {
		return c.fetchHTTP(ctx, location)
	}

	path := strings.TrimPrefix(location, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("Read local resource")
	return data, nil
}

func (c *Client) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	resp, err := c.rest.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode())
	}

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode()).
		Int("bytes", len(resp.Body())).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched remote resource")
	return resp.Body(), nil
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
