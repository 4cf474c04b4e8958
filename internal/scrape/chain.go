package scrape

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type link struct {
	Scraper
	health *readerHealth
}

// Chain tries readers in priority order and returns the first page that
// comes back. A reader that fails repeatedly is benched for a minute, within
// the run scope of ctx (see WithRun) when there is one.
type Chain struct {
	links []link
}

// NewChain creates a Chain. Nil entries are skipped so callers can pass
// unconfigured readers.
func NewChain(scrapers ...Scraper) *Chain {
	c := &Chain{}
	for _, s := range scrapers {
		if s == nil {
			continue
		}
		c.links = append(c.links, link{Scraper: s, health: newReaderHealth(s.Name())})
	}
	return c
}

// Len returns the number of readers in the chain.
func (c *Chain) Len() int { return len(c.links) }

// Scrape reads targetURL. Usage billed by readers that failed is added to
// the returned result, which is also returned (without a page) on error.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	if !isHTTPURL(targetURL) {
		return nil, eris.Errorf("scrape: not an http url: %q", targetURL)
	}

	var (
		spent   Result
		lastErr error
	)
	for _, l := range c.links {
		health := healthFor(ctx, l.health)
		if !l.Supports(targetURL) || !health.available() {
			continue
		}

		res, err := l.Scrape(ctx, targetURL)
		spent.add(res)
		if err == nil && res != nil {
			health.succeeded()
			res.Tokens, res.Credits, res.Requests = spent.Tokens, spent.Credits, spent.Requests
			return res, nil
		}

		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		health.failed()
		if err != nil {
			lastErr = err
			zap.L().Debug("scrape: reader failed",
				zap.String("reader", l.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
		}
	}

	if lastErr != nil {
		return &spent, eris.Wrap(lastErr, "scrape: all scrapers failed")
	}
	return &spent, eris.Errorf("scrape: no suitable scraper for url: %s", targetURL)
}

func (r *Result) add(o *Result) {
	if o == nil {
		return
	}
	r.Tokens += o.Tokens
	r.Credits += o.Credits
	r.Requests += o.Requests
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
