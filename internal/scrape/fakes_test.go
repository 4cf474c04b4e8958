package scrape

import (
	"context"

	"github.com/sells-group/course-intel/pkg/firecrawl"
	"github.com/sells-group/course-intel/pkg/jina"
)

type fakeJina struct {
	read  func(ctx context.Context, url string) (*jina.ReadResponse, error)
	calls int
}

func (f *fakeJina) Read(ctx context.Context, url string) (*jina.ReadResponse, error) {
	f.calls++
	return f.read(ctx, url)
}

func (f *fakeJina) Search(context.Context, string, ...jina.SearchOption) (*jina.SearchResponse, error) {
	return &jina.SearchResponse{}, nil
}

type fakeFirecrawl struct {
	scrape func(ctx context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error)
}

func (f *fakeFirecrawl) Scrape(ctx context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	return f.scrape(ctx, req)
}

func (f *fakeFirecrawl) Search(context.Context, firecrawl.SearchRequest) (*firecrawl.SearchResponse, error) {
	return &firecrawl.SearchResponse{}, nil
}

// mockScraper implements Scraper for chain tests.
type mockScraper struct {
	name     string
	supports bool
	result   *Result
	err      error
	calls    int
}

func (m *mockScraper) Name() string           { return m.name }
func (m *mockScraper) Supports(_ string) bool { return m.supports }
func (m *mockScraper) Scrape(_ context.Context, _ string) (*Result, error) {
	m.calls++
	return m.result, m.err
}
