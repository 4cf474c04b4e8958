package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/pkg/brightdata"
)

const feeHazardHost = "skygolf.com"

// FeeHazardResult is the normalized result of fee_hazard_db_lookup.
type FeeHazardResult struct {
	Meta
	SkyGolfURL   string
	PageMarkdown string
}

// Found reports whether a course page was read.
func (r FeeHazardResult) Found() bool { return r.SkyGolfURL != "" && r.PageMarkdown != "" }

// FeeHazard resolves a course in the SkyGolf course database, which lists
// fee bands and qualitative water-hazard ratings. The page URL comes from a
// Bright Data Google SERP when configured, otherwise from site-filtered web
// search. The page is read through reader, which should lead with the
// Bright Data unlocker.
type FeeHazard struct {
	serp     brightdata.Client
	serpZone string
	search   *Web
	reader   *Web
	opts     Options
}

// NewFeeHazard creates the adapter. serp may be nil.
func NewFeeHazard(serp brightdata.Client, serpZone string, search, reader *Web, opts Options) *FeeHazard {
	return &FeeHazard{serp: serp, serpZone: serpZone, search: search, reader: reader, opts: opts.withDefaults()}
}

// Configured reports whether the adapter can find and read a page.
func (f *FeeHazard) Configured() bool {
	if f == nil || !f.reader.CanRead() {
		return false
	}
	return (f.serp != nil && f.serpZone != "") || f.search.Configured()
}

// Lookup finds and reads the course's database page.
func (f *FeeHazard) Lookup(ctx context.Context, courseName, state string) FeeHazardResult {
	var res FeeHazardResult
	if !f.Configured() {
		res.Error = notConfigured("fee_hazard_db")
		return res
	}

	pageURL := f.findURL(ctx, &res, courseName, state)
	if pageURL == "" {
		return res
	}

	page := f.reader.Read(ctx, pageURL)
	res.Usage = append(res.Usage, page.Usage...)
	if page.Failed() {
		res.Error = page.Error
		return res
	}
	res.SkyGolfURL = pageURL
	res.PageMarkdown = page.Markdown
	res.Error = ""
	return res
}

func (f *FeeHazard) findURL(ctx context.Context, res *FeeHazardResult, courseName, state string) string {
	stateName := StateName(state)

	if f.serp != nil && f.serpZone != "" {
		query := fmt.Sprintf("site:%s %s %s", feeHazardHost, courseName, stateName)
		var resp *brightdata.SERPResponse
		err := f.opts.call(ctx, func(ctx context.Context) error {
			var err error
			resp, err = f.serp.GoogleSearch(ctx, f.serpZone, query)
			return err
		})
		res.charge(model.Usage{Provider: "brightdata", CostUSD: f.opts.Calc.BrightData(1), Calls: 1})
		if err != nil {
			res.Error = fail("brightdata", "serp", err)
		} else {
			for _, o := range resp.Organic {
				if isFeeHazardPage(o.Link) {
					return o.Link
				}
			}
		}
	}

	if f.search.Configured() {
		sr := f.search.Search(ctx, fmt.Sprintf("%s %s golf course", courseName, stateName), feeHazardHost)
		res.Usage = append(res.Usage, sr.Usage...)
		if sr.Failed() && res.Error == "" {
			res.Error = sr.Error
		}
		for _, h := range sr.Hits {
			if isFeeHazardPage(h.URL) {
				return h.URL
			}
		}
	}
	return ""
}

func isFeeHazardPage(rawURL string) bool {
	host := HostOf(rawURL)
	if host != feeHazardHost && !strings.HasSuffix(host, "."+feeHazardHost) {
		return false
	}
	return strings.Contains(strings.ToLower(rawURL), "course")
}
