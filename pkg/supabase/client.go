// Package supabase provides a minimal PostgREST client for Supabase tables.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the table operations used by the persistence writer.
type Client interface {
	// Select reads rows matching q into out (a pointer to a slice).
	Select(ctx context.Context, table string, q Query, out any) error
	// Insert inserts rows and decodes the created representation into out when non-nil.
	Insert(ctx context.Context, table string, rows any, out any) error
	// Upsert inserts rows, merging duplicates on the onConflict columns.
	Upsert(ctx context.Context, table string, rows any, onConflict string, out any) error
	// Update patches the rows matching filters.
	Update(ctx context.Context, table string, filters []Filter, patch any, out any) error
	// Delete removes the rows matching filters.
	Delete(ctx context.Context, table string, filters []Filter) error
}

// Filter is one PostgREST horizontal filter (column=op.value).
type Filter struct {
	Column string
	Op     string
	Value  string
}

// Eq matches column = value.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: "eq", Value: fmt.Sprint(value)}
}

// In matches column IN (values...).
func In(column string, values ...string) Filter {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return Filter{Column: column, Op: "in", Value: "(" + strings.Join(quoted, ",") + ")"}
}

// Query describes a Select call.
type Query struct {
	Columns string
	Filters []Filter
	Order   string
	Limit   int
}

// APIError is returned when PostgREST responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
	RetryAfter string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	key     string
	http    *http.Client
}

// NewClient creates a client for the project at projectURL. The key is sent
// both as apikey and as the bearer token.
func NewClient(projectURL, key string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(projectURL, "/") + "/rest/v1",
		key:     key,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Select(ctx context.Context, table string, q Query, out any) error {
	params := filterValues(q.Filters)
	cols := q.Columns
	if cols == "" {
		cols = "*"
	}
	params.Set("select", cols)
	if q.Order != "" {
		params.Set("order", q.Order)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if err := c.do(ctx, http.MethodGet, table, params, nil, "", out); err != nil {
		return eris.Wrapf(err, "supabase: select %s", table)
	}
	return nil
}

func (c *httpClient) Insert(ctx context.Context, table string, rows any, out any) error {
	if err := c.do(ctx, http.MethodPost, table, nil, rows, preferFor(out, ""), out); err != nil {
		return eris.Wrapf(err, "supabase: insert %s", table)
	}
	return nil
}

func (c *httpClient) Upsert(ctx context.Context, table string, rows any, onConflict string, out any) error {
	params := url.Values{}
	if onConflict != "" {
		params.Set("on_conflict", onConflict)
	}
	prefer := preferFor(out, "resolution=merge-duplicates")
	if err := c.do(ctx, http.MethodPost, table, params, rows, prefer, out); err != nil {
		return eris.Wrapf(err, "supabase: upsert %s", table)
	}
	return nil
}

func (c *httpClient) Update(ctx context.Context, table string, filters []Filter, patch any, out any) error {
	if len(filters) == 0 {
		return eris.Errorf("supabase: update %s: refusing unfiltered update", table)
	}
	if err := c.do(ctx, http.MethodPatch, table, filterValues(filters), patch, preferFor(out, ""), out); err != nil {
		return eris.Wrapf(err, "supabase: update %s", table)
	}
	return nil
}

func (c *httpClient) Delete(ctx context.Context, table string, filters []Filter) error {
	if len(filters) == 0 {
		return eris.Errorf("supabase: delete %s: refusing unfiltered delete", table)
	}
	if err := c.do(ctx, http.MethodDelete, table, filterValues(filters), nil, "return=minimal", nil); err != nil {
		return eris.Wrapf(err, "supabase: delete %s", table)
	}
	return nil
}

func (c *httpClient) do(ctx context.Context, method, table string, params url.Values, body any, prefer string, out any) error {
	u := c.baseURL + "/" + table
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal body")
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data), RetryAfter: resp.Header.Get("Retry-After")}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

func filterValues(filters []Filter) url.Values {
	v := url.Values{}
	for _, f := range filters {
		v.Add(f.Column, f.Op+"."+f.Value)
	}
	return v
}

func preferFor(out any, extra string) string {
	ret := "return=minimal"
	if out != nil {
		ret = "return=representation"
	}
	if extra == "" {
		return ret
	}
	return extra + "," + ret
}
