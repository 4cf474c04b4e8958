// Package apollo provides a client for the Apollo.io people search and
// enrichment API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.apollo.io"

// Client defines the Apollo operations used by the contact waterfall.
type Client interface {
	// SearchPeople runs a filtered people search. Each call spends one credit
	// whether or not it matches anyone.
	SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error)
	// MatchPerson enriches a person by id, unlocking email. Spends two credits.
	MatchPerson(ctx context.Context, req MatchRequest) (*MatchResponse, error)
}

// PeopleSearchRequest is the body for POST /api/v1/mixed_people/search.
type PeopleSearchRequest struct {
	OrganizationDomains []string `json:"q_organization_domains_list,omitempty"`
	Keywords            string   `json:"q_keywords,omitempty"`
	PersonTitles        []string `json:"person_titles,omitempty"`
	PersonLocations     []string `json:"person_locations,omitempty"`
	Page                int      `json:"page,omitempty"`
	PerPage             int      `json:"per_page,omitempty"`
}

// PeopleSearchResponse is the response from the people search endpoint.
type PeopleSearchResponse struct {
	People     []Person   `json:"people"`
	Pagination Pagination `json:"pagination"`
}

// Pagination reports result totals.
type Pagination struct {
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	TotalEntries int `json:"total_entries"`
}

// MatchRequest is the body for POST /api/v1/people/match.
type MatchRequest struct {
	ID                   string `json:"id"`
	RevealPersonalEmails bool   `json:"reveal_personal_emails"`
}

// MatchResponse is the response from the match endpoint.
type MatchResponse struct {
	Person *Person `json:"person"`
}

// Person is an Apollo person record.
type Person struct {
	ID                string       `json:"id"`
	FirstName         string       `json:"first_name"`
	LastName          string       `json:"last_name"`
	Name              string       `json:"name"`
	Title             string       `json:"title"`
	Email             string       `json:"email"`
	EmailStatus       string       `json:"email_status"`
	LinkedInURL       string       `json:"linkedin_url"`
	State             string       `json:"state"`
	Organization      Organization `json:"organization"`
	EmploymentHistory []Employment `json:"employment_history"`
	PhoneNumbers      []Phone      `json:"phone_numbers"`
}

// Organization is the person's current employer.
type Organization struct {
	Name          string `json:"name"`
	PrimaryDomain string `json:"primary_domain"`
	WebsiteURL    string `json:"website_url"`
}

// Employment is one entry of a person's job history.
type Employment struct {
	OrganizationName string `json:"organization_name"`
	Title            string `json:"title"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	Current          bool   `json:"current"`
}

// Phone is a phone number attached to a person.
type Phone struct {
	RawNumber       string `json:"raw_number"`
	SanitizedNumber string `json:"sanitized_number"`
}

// Email status values reported by Apollo.
const (
	EmailStatusVerified    = "verified"
	EmailStatusLikely      = "likely"
	EmailStatusGuessed     = "guessed"
	EmailStatusUnavailable = "unavailable"
)

// APIError is returned when Apollo responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apollo: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates an Apollo API client.
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

func (c *httpClient) SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PerPage == 0 {
		req.PerPage = 10
	}
	var resp PeopleSearchResponse
	if err := c.post(ctx, "/api/v1/mixed_people/search", req, &resp); err != nil {
		return nil, eris.Wrap(err, "apollo: search people")
	}
	return &resp, nil
}

func (c *httpClient) MatchPerson(ctx context.Context, req MatchRequest) (*MatchResponse, error) {
	if req.ID == "" {
		return nil, eris.New("apollo: match person: id is required")
	}
	var resp MatchResponse
	if err := c.post(ctx, "/api/v1/people/match", req, &resp); err != nil {
		return nil, eris.Wrapf(err, "apollo: match person %s", req.ID)
	}
	return &resp, nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-Api-Key", c.apiKey)

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
