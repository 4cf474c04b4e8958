package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/course-intel/internal/scrape"
	"github.com/sells-group/course-intel/pkg/brightdata"
	"github.com/sells-group/course-intel/pkg/jina"
)

const skyGolfPage = `<html><head><title>Deep Springs CC</title></head><body><article>
<h1>Deep Springs Country Club</h1>
<p>Green Fees: $45 - $65. Semi-private 18 hole course in Stoneville, North Carolina.</p>
<p>Water Hazards: Heavy. Water in play on 11 holes, including a lake that guards the front of the
eighteenth green and a creek that crosses the fairway twice on the back nine. Bring extra balls.</p>
<p>The course opened in 1972 and was renovated in 2019 with new bentgrass greens, rebuilt bunkers and
an expanded practice range. Walking is permitted after 2pm on weekdays and carts are included in the
weekend rate. Tee times can be booked up to fourteen days in advance through the pro shop.</p>
</article></body></html>`

func TestFeeHazard_LookupViaSERP(t *testing.T) {
	t.Parallel()
	pageURL := "https://www.skygolf.com/courses/nc/deep-springs-country-club"
	serp := &fakeSERP{
		organic: []brightdata.OrganicResult{
			{Link: "https://www.skygolf.com/about"},
			{Link: pageURL},
		},
		pages: map[string]string{pageURL: skyGolfPage},
	}
	reader := NewWeb(nil, nil, scrape.NewChain(scrape.NewBrightDataAdapter(serp, "web_unlocker1")), Options{})
	f := NewFeeHazard(serp, "serp_api1", NewWeb(nil, nil, nil, Options{}), reader, Options{})
	require.True(t, f.Configured())

	res := f.Lookup(context.Background(), "Deep Springs Country Club", "NC")
	require.True(t, res.Found(), res.Error)
	assert.Equal(t, pageURL, res.SkyGolfURL)
	assert.Contains(t, res.PageMarkdown, "Water Hazards: Heavy")
	assert.Equal(t, []string{"site:skygolf.com Deep Springs Country Club North Carolina"}, serp.queries)
	// One SERP request and one unlocker request.
	assert.InDelta(t, 2*0.0015, res.CostUSD(), 1e-9)
}

func TestFeeHazard_FallsBackToWebSearch(t *testing.T) {
	t.Parallel()
	pageURL := "https://skygolf.com/course/deercroft"
	j := &fakeJina{
		hits:  map[string][]jina.SearchResult{"Deercroft": {{URL: pageURL}}},
		pages: map[string]string{pageURL: "Deercroft Golf Club. Water Hazards: Scarce. Green fees from $38 weekdays including cart, twilight rates after 2pm."},
	}
	web := jinaWeb(j)
	f := NewFeeHazard(nil, "", web, web, Options{})

	res := f.Lookup(context.Background(), "Deercroft", "NC")
	require.True(t, res.Found(), res.Error)
	assert.Contains(t, res.PageMarkdown, "Scarce")
}

func TestFeeHazard_NoPage(t *testing.T) {
	t.Parallel()
	web := jinaWeb(&fakeJina{})
	res := NewFeeHazard(nil, "", web, web, Options{}).Lookup(context.Background(), "Nowhere", "NC")
	assert.False(t, res.Found())
}
