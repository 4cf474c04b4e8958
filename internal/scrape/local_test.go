package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalScraper_ReadableText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Deercroft Golf Club</title></head>
<body><nav>Menu Home Tee Times</nav>
<article><h1>Our Staff</h1>
<p>Mike Jones joined Deercroft as PGA Head Golf Professional in 2015 after a decade at Pinehurst.</p>
<p>Sarah Lee is the General Manager and oversees club operations, membership and events.</p>
<p>Tom Brown, Golf Course Superintendent, manages the bentgrass greens and three irrigation ponds.</p>
</article>
<footer>Copyright 2024</footer></body></html>`))
	}))
	defer srv.Close()

	s := NewLocalScraper()
	result, err := s.Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "local_http", result.Source)
	assert.Contains(t, result.Page.Title, "Deercroft")
	assert.Equal(t, 200, result.Page.StatusCode)
	assert.Contains(t, result.Page.Markdown, "Head Golf Professional")
	assert.Contains(t, result.Page.Markdown, "General Manager")
	assert.Zero(t, result.Tokens)
	assert.Zero(t, result.Credits)
}

func TestLocalScraper_Cloudflare(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cf-Ray", "abc123")
		w.WriteHeader(403)
		_, _ = w.Write([]byte(`<html><body>Access denied</body></html>`))
	}))
	defer srv.Close()

	_, err := NewLocalScraper().Scrape(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestLocalScraper_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	_, err := NewLocalScraper().Scrape(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestLocalScraper_HTTP404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		_, _ = w.Write([]byte(`<html><body>Not found page with lots of content here to exceed the minimum body threshold</body></html>`))
	}))
	defer srv.Close()

	_, err := NewLocalScraper().Scrape(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "Hello world\n\nfoo", collapseWhitespace("  Hello     world\n\n\n\n\nfoo  "))
}
