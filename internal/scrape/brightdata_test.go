package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/course-intel/pkg/brightdata"
)

type fakeBrightData struct {
	body []byte
	err  error
	got  brightdata.RequestParams
}

func (f *fakeBrightData) Request(_ context.Context, p brightdata.RequestParams) ([]byte, error) {
	f.got = p
	return f.body, f.err
}

func (f *fakeBrightData) GoogleSearch(context.Context, string, string) (*brightdata.SERPResponse, error) {
	return &brightdata.SERPResponse{}, nil
}

const courseHTML = `<html><head><title>Deep Springs Country Club - SkyGolf</title></head><body>
<article><h1>Deep Springs Country Club</h1>
<p>Green fees range from $45 to $65 including cart. The course plays 6,800 yards from the back tees.</p>
<p>Water Hazards: Moderate. Water comes into play on 7 holes, including the signature par-3 16th over the lake.</p>
<p>Practice facilities include a driving range, chipping green and putting green.</p>
</article></body></html>`

func TestBrightDataAdapter_Scrape(t *testing.T) {
	t.Parallel()
	fake := &fakeBrightData{body: []byte(courseHTML)}
	adapter := NewBrightDataAdapter(fake, "web_unlocker1")

	result, err := adapter.Scrape(context.Background(), "https://www.skygolf.com/courses/deep-springs")
	require.NoError(t, err)
	assert.Equal(t, "web_unlocker1", fake.got.Zone)
	assert.Equal(t, "raw", fake.got.Format)
	assert.Equal(t, "brightdata", result.Source)
	assert.Equal(t, 1, result.Requests)
	assert.Contains(t, result.Page.Markdown, "Water Hazards: Moderate")
}

func TestBrightDataAdapter_ErrorStillBilled(t *testing.T) {
	t.Parallel()
	fake := &fakeBrightData{err: errors.New("HTTP 502")}

	result, err := NewBrightDataAdapter(fake, "z").Scrape(context.Background(), "https://x.com")
	require.Error(t, err)
	assert.Equal(t, 1, result.Requests)
}

func TestBrightDataAdapter_SupportsNeedsZone(t *testing.T) {
	t.Parallel()
	assert.False(t, NewBrightDataAdapter(&fakeBrightData{}, "").Supports("https://x.com"))
	assert.True(t, NewBrightDataAdapter(&fakeBrightData{}, "z").Supports("https://x.com"))
}
