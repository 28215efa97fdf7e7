// Package extractor is the Extractor API adapter (C3): a single
// long-running URL -> iPricing-YAML transformation call. Invoked only from
// the Pricing-Context Cache's single-flight path (internal/cache), never
// directly from the agent loop (spec.md §4.3).
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/isa-group/harvey-agent-core/internal/adapters"
)

// Config tunes the extractor HTTP call. Because a transform may take
// minutes, the adapter's own timeout is intentionally generous and distinct
// from the Analysis adapter's short request timeout.
type Config struct {
	BaseURL        string
	Model          string
	MaxTries       int
	Temperature    float64
	RequestTimeout time.Duration // default 5m
	RateLimitRPS   float64
}

func (c Config) withDefaults() Config {
	if c.MaxTries <= 0 {
		c.MaxTries = 3
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 5 * time.Minute
	}
	return c
}

// Client is the Extractor API adapter.
type Client struct {
	cfg  Config
	http *adapters.Client
}

// New builds a Client against cfg.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:  cfg,
		http: adapters.NewClient(cfg.RequestTimeout, cfg.RateLimitRPS, "extractor"),
	}
}

type transformRequest struct {
	URL         string  `json:"url"`
	Model       string  `json:"model"`
	MaxTries    int     `json:"max_tries"`
	Temperature float64 `json:"temperature"`
}

type transformResponse struct {
	YAML string `json:"yaml"`
}

// Transform extracts and returns the iPricing YAML for url. This is the
// function internal/cache.Cache wires as its Transform callback.
func (c *Client) Transform(ctx context.Context, url string) (string, error) {
	payload, err := json.Marshal(transformRequest{
		URL:         url,
		Model:       c.cfg.Model,
		MaxTries:    c.cfg.MaxTries,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", &adapters.Error{Kind: adapters.KindTransport, Op: "extractor.transform", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/transform", bytes.NewReader(payload))
	if err != nil {
		return "", &adapters.Error{Kind: adapters.KindTransport, Op: "extractor.transform", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(payload)), nil }

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out transformResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &adapters.Error{Kind: adapters.KindDecode, Op: "extractor.transform", Err: err}
	}
	return out.YAML, nil
}
