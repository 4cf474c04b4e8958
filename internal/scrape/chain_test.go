package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Scrape_FirstSuccess(t *testing.T) {
	s1 := &mockScraper{
		name: "primary", supports: true,
		result: &Result{
			Page:   Page{URL: "https://deercroft.com/staff", Title: "Staff", Markdown: "content"},
			Source: "primary",
		},
	}
	s2 := &mockScraper{name: "fallback", supports: true}

	chain := NewChain(s1, s2)
	result, err := chain.Scrape(context.Background(), "https://deercroft.com/staff")

	require.NoError(t, err)
	assert.Equal(t, "primary", result.Source)
	assert.Equal(t, "https://deercroft.com/staff", result.Page.URL)
}

func TestChain_Scrape_FallbackCarriesSpentUsage(t *testing.T) {
	s1 := &mockScraper{name: "jina", supports: true, result: &Result{Tokens: 40}, err: errors.New("needs fallback")}
	s2 := &mockScraper{
		name: "firecrawl", supports: true,
		result: &Result{Page: Page{URL: "https://deercroft.com"}, Source: "firecrawl", Credits: 1},
	}

	result, err := NewChain(s1, s2).Scrape(context.Background(), "https://deercroft.com")

	require.NoError(t, err)
	assert.Equal(t, "firecrawl", result.Source)
	assert.Equal(t, 40, result.Tokens)
	assert.Equal(t, 1, result.Credits)
}

func TestChain_Scrape_AllFail(t *testing.T) {
	s1 := &mockScraper{name: "s1", supports: true, err: errors.New("s1 error")}
	s2 := &mockScraper{name: "s2", supports: true, result: &Result{Credits: 1}, err: errors.New("s2 error")}

	result, err := NewChain(s1, s2).Scrape(context.Background(), "https://deercroft.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all scrapers failed")
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Credits)
}

func TestChain_Scrape_RejectsNonHTTP(t *testing.T) {
	chain := NewChain(&mockScraper{name: "s1", supports: true})

	_, err := chain.Scrape(context.Background(), "mailto:pro@deercroft.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an http url")
}

func TestChain_Scrape_SkipsUnsupportedAndNil(t *testing.T) {
	s1 := &mockScraper{name: "s1", supports: false}
	s2 := &mockScraper{
		name: "s2", supports: true,
		result: &Result{Page: Page{URL: "https://deercroft.com"}, Source: "s2"},
	}

	chain := NewChain(nil, s1, s2)
	assert.Equal(t, 2, chain.Len())

	result, err := chain.Scrape(context.Background(), "https://deercroft.com")
	require.NoError(t, err)
	assert.Equal(t, "s2", result.Source)
}

func TestChain_Scrape_Empty(t *testing.T) {
	_, err := NewChain().Scrape(context.Background(), "https://deercroft.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no suitable scraper")
}

func TestChain_Scrape_BenchesFailingReader(t *testing.T) {
	flaky := &mockScraper{name: "jina", supports: true, err: errors.New("502")}
	backup := &mockScraper{
		name: "local_http", supports: true,
		result: &Result{Page: Page{URL: "https://deercroft.com"}, Source: "local_http"},
	}
	chain := NewChain(flaky, backup)

	for range 4 {
		result, err := chain.Scrape(context.Background(), "https://deercroft.com")
		require.NoError(t, err)
		assert.Equal(t, "local_http", result.Source)
	}
	assert.Equal(t, 3, flaky.calls, "benched after the third failure")
	assert.Equal(t, 4, backup.calls)
}

func TestChain_Scrape_BenchingStaysInsideRun(t *testing.T) {
	flaky := &mockScraper{name: "jina", supports: true, err: errors.New("502")}
	backup := &mockScraper{
		name: "local_http", supports: true,
		result: &Result{Page: Page{URL: "https://deercroft.com"}, Source: "local_http"},
	}
	chain := NewChain(flaky, backup)

	first := WithRun(context.Background())
	for range 4 {
		_, err := chain.Scrape(first, "https://deercroft.com")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, flaky.calls)

	second := WithRun(context.Background())
	_, err := chain.Scrape(second, "https://ballantyneclub.com")
	require.NoError(t, err)
	assert.Equal(t, 4, flaky.calls, "a new run starts with every reader available")

	_, err = chain.Scrape(first, "https://deercroft.com")
	require.NoError(t, err)
	assert.Equal(t, 4, flaky.calls, "the first run keeps its bench")

	_, err = chain.Scrape(context.Background(), "https://deercroft.com")
	require.NoError(t, err)
	assert.Equal(t, 5, flaky.calls, "unscoped calls use the chain's own health")
}

func TestReaderHealth_WindowAndCooldown(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	h := newReaderHealth("jina")
	h.now = func() time.Time { return now }

	h.failed()
	h.failed()
	now = now.Add(tripWindow + time.Second)
	h.failed()
	assert.True(t, h.available(), "failures outside the window start a new count")

	h.failed()
	h.failed()
	assert.False(t, h.available())

	now = now.Add(benchedFor)
	assert.True(t, h.available())

	h.failed()
	h.succeeded()
	h.failed()
	h.failed()
	assert.True(t, h.available(), "a success resets the count")
}
