// Package places proxies place search to the Foursquare API with a small
// cache in front, so the browser never sees the API key.
package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.foursquare.com/v3/places/search"

var (
	// ErrNoAPIKey is returned when no Foursquare API key is configured
	ErrNoAPIKey = errors.New("foursquare API key is not configured")

	// ErrUpstreamTimeout is returned when the upstream call exceeds the
	// configured deadline
	ErrUpstreamTimeout = errors.New("foursquare request timed out")

	// ErrUpstreamFailed is returned for non-200 upstream responses
	ErrUpstreamFailed = errors.New("foursquare request failed")
)

// Client calls the Foursquare places search API
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewClient creates a Foursquare client. The timeout bounds the whole
// request including body read.
func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
	}
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Search performs a place search and returns the upstream response body
// verbatim. The caller is responsible for query validation.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build foursquare request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrUpstreamTimeout
		}
		return nil, fmt.Errorf("foursquare request error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrUpstreamTimeout
		}
		return nil, fmt.Errorf("failed to read foursquare response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamFailed, resp.StatusCode)
	}

	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
