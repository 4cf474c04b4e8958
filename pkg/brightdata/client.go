// Package brightdata provides a client for the Bright Data request API
// (Web Unlocker and SERP zones).
package brightdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.brightdata.com"

// Client defines the Bright Data operations used by the collector.
type Client interface {
	// Request fetches a URL through the given zone and returns the raw body.
	Request(ctx context.Context, params RequestParams) ([]byte, error)
	// GoogleSearch runs a query through a SERP zone and returns organic results.
	GoogleSearch(ctx context.Context, zone, query string) (*SERPResponse, error)
}

// RequestParams is the body for POST /request.
type RequestParams struct {
	Zone    string `json:"zone"`
	URL     string `json:"url"`
	Format  string `json:"format"`
	Country string `json:"country,omitempty"`
}

// SERPResponse is the parsed JSON SERP payload.
type SERPResponse struct {
	Organic []OrganicResult `json:"organic"`
}

// OrganicResult is one organic search hit.
type OrganicResult struct {
	Link        string `json:"link"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Rank        int    `json:"rank"`
}

// APIError is returned when Bright Data responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("brightdata: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a Bright Data client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Request(ctx context.Context, params RequestParams) ([]byte, error) {
	if params.Format == "" {
		params.Format = "raw"
	}
	buf, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrap(err, "brightdata: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/request", bytes.NewReader(buf))
	if err != nil {
		return nil, eris.Wrap(err, "brightdata: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "brightdata: execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "brightdata: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

func (c *httpClient) GoogleSearch(ctx context.Context, zone, query string) (*SERPResponse, error) {
	target := "https://www.google.com/search?" + url.Values{"q": {query}, "brd_json": {"1"}}.Encode()
	body, err := c.Request(ctx, RequestParams{Zone: zone, URL: target, Format: "raw"})
	if err != nil {
		return nil, eris.Wrap(err, "brightdata: google search")
	}

	var out SERPResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "brightdata: decode serp")
	}
	return &out, nil
}
