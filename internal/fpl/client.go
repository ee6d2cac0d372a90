// Package fpl fetches the public Fantasy Premier League endpoints the
// importer reads: the bootstrap catalog and per-player summaries.
package fpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dwes123/fpl-stats-go/internal/config"
)

const (
	EndpointBootstrap      = "bootstrap-static"
	EndpointElementSummary = "element-summary"

	maxErrorBody = 512
)

// ErrMalformedResponse wraps every body that does not decode into the expected shape.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is returned for any non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s failed: %d body=%s", e.URL, e.StatusCode, e.Body)
}

// Client talks to the FPL API. Requests are made one at a time and never retried.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string

	// Observe, when set, is called after every request with the endpoint
	// name, how long it took and the resulting error (nil on success).
	Observe func(endpoint string, took time.Duration, err error)
}

func NewClient(cfg *config.FPLConfig) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: cfg.Timeout},
		BaseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		UserAgent: cfg.UserAgent,
	}
}

// Bootstrap fetches /bootstrap-static/.
func (c *Client) Bootstrap(ctx context.Context) (*Bootstrap, error) {
	var b Bootstrap
	if err := c.getJSON(ctx, EndpointBootstrap, "/bootstrap-static/", &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ElementSummary fetches /element-summary/{playerID}/.
func (c *Client) ElementSummary(ctx context.Context, playerID int) (*ElementSummary, error) {
	var s ElementSummary
	path := fmt.Sprintf("/element-summary/%d/", playerID)
	if err := c.getJSON(ctx, EndpointElementSummary, path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) (err error) {
	start := time.Now()
	if c.Observe != nil {
		defer func() { c.Observe(endpoint, time.Since(start), err) }()
	}

	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", url, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			return fmt.Errorf("decode %s: %w", url, err)
		}
		return fmt.Errorf("decode %s: %w: %v", url, ErrMalformedResponse, err)
	}
	return nil
}
