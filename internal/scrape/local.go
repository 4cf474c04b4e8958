package scrape

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/rotisserie/eris"
)

const (
	maxHTMLBytes = 1 << 20
	minHTMLBytes = 100
	userAgent    = "Mozilla/5.0 (compatible; CourseIntel/1.0)"
)

// LocalScraper fetches HTML directly and extracts the readable text. It
// needs no API key and bills nothing, so it sits last in the chain.
type LocalScraper struct {
	client *http.Client
}

// NewLocalScraper creates a LocalScraper with a 15s request timeout.
func NewLocalScraper() *LocalScraper {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	return &LocalScraper{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// Name implements Scraper.
func (l *LocalScraper) Name() string { return "local_http" }

// Supports implements Scraper.
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape implements Scraper.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHTMLBytes))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	page, err := htmlPage(targetURL, resp.StatusCode, resp.Header, body)
	if err != nil {
		return nil, eris.Wrap(err, "local_http")
	}
	return &Result{Page: page, Source: "local_http"}, nil
}

// htmlPage turns a raw HTML response into a Page: wall detection first,
// then the status check, then readability extraction.
func htmlPage(targetURL string, status int, header http.Header, body []byte) (Page, error) {
	if bt := DetectBlock(status, header, body); bt != BlockNone {
		return Page{}, eris.Errorf("blocked (%s)", bt)
	}
	if status >= http.StatusBadRequest {
		return Page{}, eris.Errorf("status %d", status)
	}
	if len(bytes.TrimSpace(body)) < minHTMLBytes {
		return Page{}, eris.New("empty page")
	}

	base, err := url.Parse(targetURL)
	if err != nil {
		return Page{}, eris.Wrap(err, "parse url")
	}
	article, err := readability.FromReader(bytes.NewReader(body), base)
	if err != nil {
		return Page{}, eris.Wrap(err, "extract")
	}
	text := collapseWhitespace(article.TextContent)
	if text == "" {
		return Page{}, eris.New("no readable content")
	}

	return Page{
		URL:        targetURL,
		Title:      strings.TrimSpace(article.Title),
		Markdown:   text,
		StatusCode: status,
	}, nil
}

var (
	runOfSpaces = regexp.MustCompile(`[ \t]+`)
	blankLines  = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

func collapseWhitespace(s string) string {
	s = runOfSpaces.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
