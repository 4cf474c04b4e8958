package provider

import (
	"context"
	"net/url"
	"strings"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/internal/scrape"
	"github.com/sells-group/course-intel/pkg/firecrawl"
	"github.com/sells-group/course-intel/pkg/jina"
)

// SearchHit is one web search result.
type SearchHit struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchResult is the normalized result of web_search.
type SearchResult struct {
	Meta
	Hits []SearchHit
}

// PageResult is the normalized result of page_read.
type PageResult struct {
	Meta
	URL      string
	Title    string
	Markdown string
	Reader   string
}

// Web performs general web search (Jina Search, then Firecrawl search) and
// single-page reads through a scrape chain.
type Web struct {
	jina      jina.Client
	firecrawl firecrawl.Client
	chain     *scrape.Chain
	opts      Options
}

// NewWeb creates the web adapter. Any client may be nil.
func NewWeb(jc jina.Client, fc firecrawl.Client, chain *scrape.Chain, opts Options) *Web {
	return &Web{jina: jc, firecrawl: fc, chain: chain, opts: opts.withDefaults()}
}

// Configured reports whether a search backend is available.
func (w *Web) Configured() bool { return w != nil && (w.jina != nil || w.firecrawl != nil) }

// CanRead reports whether the page reader has at least one scraper.
func (w *Web) CanRead() bool { return w != nil && w.chain != nil && w.chain.Len() > 0 }

// Search runs query. site optionally restricts results to one domain.
func (w *Web) Search(ctx context.Context, query, site string) SearchResult {
	var res SearchResult
	if !w.Configured() {
		res.Error = notConfigured("web_search")
		return res
	}

	if w.jina != nil {
		hits, meta := w.searchJina(ctx, query, site)
		res.Usage = append(res.Usage, meta.Usage...)
		if len(hits) > 0 || w.firecrawl == nil {
			res.Hits, res.Error = hits, meta.Error
			return res
		}
	}

	hits, meta := w.searchFirecrawl(ctx, query, site)
	res.Usage = append(res.Usage, meta.Usage...)
	res.Hits, res.Error = hits, meta.Error
	return res
}

func (w *Web) searchJina(ctx context.Context, query, site string) ([]SearchHit, Meta) {
	var meta Meta
	opts := []jina.SearchOption{jina.WithoutContent()}
	if site != "" {
		opts = append(opts, jina.WithSiteFilter(site))
	}

	var resp *jina.SearchResponse
	err := w.opts.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = w.jina.Search(ctx, query, opts...)
		return err
	})
	if err != nil {
		meta.Error = fail("jina", "search", err)
		meta.charge(model.Usage{Provider: "jina", Calls: 1})
		return nil, meta
	}

	tokens := resp.Tokens()
	meta.charge(model.Usage{Provider: "jina", CostUSD: w.opts.Calc.Jina(tokens), Calls: 1})

	hits := make([]SearchHit, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.URL == "" {
			continue
		}
		hits = append(hits, SearchHit{URL: d.URL, Title: d.Title, Snippet: d.Description})
	}
	return hits, meta
}

func (w *Web) searchFirecrawl(ctx context.Context, query, site string) ([]SearchHit, Meta) {
	var meta Meta
	if site != "" {
		query = "site:" + site + " " + query
	}

	var resp *firecrawl.SearchResponse
	err := w.opts.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = w.firecrawl.Search(ctx, firecrawl.SearchRequest{Query: query, Limit: 5, Country: "us"})
		return err
	})
	// Firecrawl bills the search whether or not it returns anything.
	meta.charge(model.Usage{Provider: "firecrawl", CostUSD: w.opts.Calc.Firecrawl(1), Credits: 1, CreditConsumed: true, Calls: 1})
	if err != nil {
		meta.Error = fail("firecrawl", "search", err)
		return nil, meta
	}

	hits := make([]SearchHit, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.URL == "" {
			continue
		}
		hits = append(hits, SearchHit{URL: d.URL, Title: d.Title, Snippet: d.Description})
	}
	return hits, meta
}

// Read extracts clean text from a single URL.
func (w *Web) Read(ctx context.Context, pageURL string) PageResult {
	var res PageResult
	if !w.CanRead() {
		res.Error = notConfigured("page_read")
		return res
	}

	var out *scrape.Result
	err := w.opts.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = w.chain.Scrape(ctx, pageURL)
		return err
	})
	if out != nil {
		w.chargeScrape(&res.Meta, out)
	}
	if err != nil {
		res.Error = fail("page_read", "read", err)
		return res
	}

	res.URL = out.Page.URL
	res.Title = out.Page.Title
	res.Markdown = out.Page.Markdown
	res.Reader = out.Source
	return res
}

func (w *Web) chargeScrape(m *Meta, out *scrape.Result) {
	if out.Tokens > 0 {
		m.charge(model.Usage{Provider: "jina", CostUSD: w.opts.Calc.Jina(out.Tokens), Calls: 1})
	}
	if out.Credits > 0 {
		m.charge(model.Usage{Provider: "firecrawl", CostUSD: w.opts.Calc.Firecrawl(out.Credits), Credits: out.Credits, CreditConsumed: true, Calls: out.Credits})
	}
	if out.Requests > 0 {
		m.charge(model.Usage{Provider: "brightdata", CostUSD: w.opts.Calc.BrightData(out.Requests), Calls: out.Requests})
	}
}

// WebsiteResult is the normalized result of website resolution.
type WebsiteResult struct {
	Meta
	URL    string
	Domain string
}

// nonCourseHosts are directories, booking engines and social sites that
// rank for course names but are never the course's own website.
var nonCourseHosts = []string{
	"golfnow.com", "teeoff.com", "golfpass.com", "golfadvisor.com", "golflink.com",
	"skygolf.com", "pga.com", "usga.org", "greenskeeper.org", "18birdies.com",
	"yelp.com", "tripadvisor.com", "facebook.com", "instagram.com", "twitter.com",
	"x.com", "linkedin.com", "youtube.com", "wikipedia.org", "mapquest.com",
	"yellowpages.com", "bbb.org", "google.com", "apple.com", "zillow.com",
	"golfdigest.com", "golf.com", "bluegolf.com", "chronogolf.com", "foreupsoftware.com",
}

// ResolveWebsite searches for the course and adopts the first result that
// is not a directory, booking or social host.
func (w *Web) ResolveWebsite(ctx context.Context, name, city, state string) WebsiteResult {
	var res WebsiteResult
	query := strings.Join(strings.Fields(strings.Join([]string{name, city, state, "golf"}, " ")), " ")
	sr := w.Search(ctx, query, "")
	res.merge(sr.Meta)

	for _, hit := range sr.Hits {
		host := HostOf(hit.URL)
		if host == "" || isNonCourseHost(host) {
			continue
		}
		res.URL = hit.URL
		res.Domain = host
		res.Error = ""
		return res
	}
	return res
}

// HostOf returns the lowercased host of rawURL without a leading "www.".
func HostOf(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func isNonCourseHost(host string) bool {
	for _, h := range nonCourseHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
