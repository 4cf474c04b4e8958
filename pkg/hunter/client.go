// Package hunter provides a client for the Hunter.io v2 email API.
package hunter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.hunter.io/v2"

// Client defines the Hunter operations used by the contact waterfall.
type Client interface {
	DomainSearch(ctx context.Context, domain string, limit int) (*DomainSearchResponse, error)
	EmailFinder(ctx context.Context, domain, fullName string) (*EmailFinderResponse, error)
	EmailVerifier(ctx context.Context, email string) (*EmailVerifierResponse, error)
}

// DomainSearchResponse is the response from GET /domain-search.
type DomainSearchResponse struct {
	Data DomainData `json:"data"`
	Meta Meta       `json:"meta"`
}

// DomainData lists the emails Hunter knows for a domain.
type DomainData struct {
	Domain       string        `json:"domain"`
	Organization string        `json:"organization"`
	Pattern      string        `json:"pattern"`
	Emails       []DomainEmail `json:"emails"`
}

// DomainEmail is one person found at the domain.
type DomainEmail struct {
	Value       string   `json:"value"`
	Type        string   `json:"type"`
	Confidence  int      `json:"confidence"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Position    string   `json:"position"`
	LinkedIn    string   `json:"linkedin"`
	PhoneNumber string   `json:"phone_number"`
	Sources     []Source `json:"sources"`
}

// FullName joins first and last name.
func (e DomainEmail) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// Source is a page where Hunter saw the email.
type Source struct {
	Domain      string `json:"domain"`
	URI         string `json:"uri"`
	ExtractedOn string `json:"extracted_on"`
}

// Meta holds result counts.
type Meta struct {
	Results int `json:"results"`
	Limit   int `json:"limit"`
}

// EmailFinderResponse is the response from GET /email-finder.
type EmailFinderResponse struct {
	Data FinderData `json:"data"`
}

// FinderData is the most likely email for a person at a domain.
type FinderData struct {
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Email        string       `json:"email"`
	Score        int          `json:"score"`
	Domain       string       `json:"domain"`
	Position     string       `json:"position"`
	LinkedInURL  string       `json:"linkedin_url"`
	Verification Verification `json:"verification"`
}

// Verification is the verification state attached to a finder result.
type Verification struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// EmailVerifierResponse is the response from GET /email-verifier.
type EmailVerifierResponse struct {
	Data VerifierData `json:"data"`
}

// VerifierData describes a verified address.
type VerifierData struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	Result string `json:"result"`
	Score  int    `json:"score"`
}

// Verifier status values.
const (
	StatusValid      = "valid"
	StatusInvalid    = "invalid"
	StatusAcceptAll  = "accept_all"
	StatusWebmail    = "webmail"
	StatusDisposable = "disposable"
	StatusUnknown    = "unknown"
)

// APIError is returned when Hunter responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hunter: HTTP %d: %s", e.StatusCode, e.Body)
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
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Hunter API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) DomainSearch(ctx context.Context, domain string, limit int) (*DomainSearchResponse, error) {
	q := url.Values{"domain": {domain}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp DomainSearchResponse
	if err := c.get(ctx, "/domain-search", q, &resp); err != nil {
		return nil, eris.Wrapf(err, "hunter: domain search %s", domain)
	}
	return &resp, nil
}

func (c *httpClient) EmailFinder(ctx context.Context, domain, fullName string) (*EmailFinderResponse, error) {
	q := url.Values{"domain": {domain}, "full_name": {fullName}}
	var resp EmailFinderResponse
	if err := c.get(ctx, "/email-finder", q, &resp); err != nil {
		return nil, eris.Wrapf(err, "hunter: email finder %s", domain)
	}
	return &resp, nil
}

func (c *httpClient) EmailVerifier(ctx context.Context, email string) (*EmailVerifierResponse, error) {
	q := url.Values{"email": {email}}
	var resp EmailVerifierResponse
	if err := c.get(ctx, "/email-verifier", q, &resp); err != nil {
		return nil, eris.Wrap(err, "hunter: email verifier")
	}
	return &resp, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("api_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

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
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
