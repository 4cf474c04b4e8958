// Package scrape reads single web pages into clean text through a chain of
// readers: Jina Reader, Firecrawl, a Bright Data Web Unlocker zone, then a
// keyless local fetch.
package scrape

import "context"

// Page is the text content of one fetched URL.
type Page struct {
	URL        string
	Title      string
	Markdown   string
	StatusCode int
}

// Result holds a scraped page with its source and billable usage.
type Result struct {
	Page     Page
	Source   string // e.g. "jina", "firecrawl"
	Tokens   int    // Jina reader tokens
	Credits  int    // Firecrawl credits
	Requests int    // Bright Data unlocker requests
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
