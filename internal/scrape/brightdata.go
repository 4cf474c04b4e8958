package scrape

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/sells-group/course-intel/pkg/brightdata"
)

// BrightDataAdapter fetches pages through a Bright Data Web Unlocker zone and
// extracts readable text locally. Every request is billed.
type BrightDataAdapter struct {
	client brightdata.Client
	zone   string
}

// NewBrightDataAdapter creates an adapter for the given unlocker zone.
func NewBrightDataAdapter(client brightdata.Client, zone string) *BrightDataAdapter {
	return &BrightDataAdapter{client: client, zone: zone}
}

// Name implements Scraper.
func (b *BrightDataAdapter) Name() string { return "brightdata" }

// Supports implements Scraper.
func (b *BrightDataAdapter) Supports(_ string) bool { return b.zone != "" }

// Scrape fetches targetURL through the unlocker.
func (b *BrightDataAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	body, err := b.client.Request(ctx, brightdata.RequestParams{Zone: b.zone, URL: targetURL, Format: "raw"})
	spent := &Result{Source: "brightdata", Requests: 1}
	if err != nil {
		return spent, err
	}

	// The unlocker answers 200 for pages it fetched; walls show up in the body.
	page, err := htmlPage(targetURL, http.StatusOK, nil, body)
	if err != nil {
		return spent, eris.Wrap(err, "brightdata")
	}
	spent.Page = page
	return spent, nil
}
