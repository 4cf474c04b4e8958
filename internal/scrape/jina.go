package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/course-intel/pkg/jina"
)

// minReaderContent is the shortest markdown body treated as a real page.
const minReaderContent = 100

// JinaAdapter reads pages through the Jina Reader API. Tokens are billed
// even when the returned content turns out to be an interstitial.
type JinaAdapter struct {
	client jina.Client
}

// NewJinaAdapter creates a JinaAdapter from a Jina client.
func NewJinaAdapter(client jina.Client) *JinaAdapter {
	return &JinaAdapter{client: client}
}

// Name implements Scraper.
func (j *JinaAdapter) Name() string { return "jina" }

// Supports implements Scraper.
func (j *JinaAdapter) Supports(_ string) bool { return true }

// Scrape implements Scraper.
func (j *JinaAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := j.client.Read(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, eris.New("jina: empty response")
	}

	res := &Result{Source: "jina", Tokens: resp.Data.Usage.Tokens}
	if reason := unusable(resp); reason != "" {
		return res, eris.Errorf("jina: response needs fallback: %s", reason)
	}

	res.Page = Page{
		URL:        resp.Data.URL,
		Title:      resp.Data.Title,
		Markdown:   resp.Data.Content,
		StatusCode: resp.Code,
	}
	if res.Page.URL == "" {
		res.Page.URL = targetURL
	}
	return res, nil
}

// unusable explains why a reader response cannot stand in for the page,
// or returns "" when the content is good.
func unusable(resp *jina.ReadResponse) string {
	if resp == nil {
		return "no response"
	}
	if resp.Code != 0 && resp.Code != 200 {
		return "upstream status"
	}
	content := strings.TrimSpace(resp.Data.Content)
	if len(content) < minReaderContent {
		return "content too short"
	}
	if bt := matchBlockText(content); bt != BlockNone {
		return "blocked by " + string(bt)
	}
	return ""
}
