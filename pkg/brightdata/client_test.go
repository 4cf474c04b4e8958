package brightdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/request", r.URL.Path)
		assert.Equal(t, "Bearer bd-token", r.Header.Get("Authorization"))

		var p RequestParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "web_unlocker1", p.Zone)
		assert.Equal(t, "https://www.skygolf.com/courses/x", p.URL)
		assert.Equal(t, "raw", p.Format)

		w.Write([]byte("<html><body>Water Hazards: Heavy</body></html>"))
	}))
	defer srv.Close()

	c := NewClient("bd-token", WithBaseURL(srv.URL))
	body, err := c.Request(context.Background(), RequestParams{Zone: "web_unlocker1", URL: "https://www.skygolf.com/courses/x"})
	require.NoError(t, err)
	assert.Contains(t, string(body), "Water Hazards: Heavy")
}

func TestGoogleSearch_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p RequestParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "serp_api1", p.Zone)

		u, err := url.Parse(p.URL)
		require.NoError(t, err)
		assert.Equal(t, "www.google.com", u.Host)
		assert.Equal(t, "skygolf Deep Springs Country Club NC", u.Query().Get("q"))
		assert.Equal(t, "1", u.Query().Get("brd_json"))

		w.Write([]byte(`{"organic":[{"link":"https://www.skygolf.com/courses/deep-springs","title":"Deep Springs CC","rank":1}]}`))
	}))
	defer srv.Close()

	c := NewClient("bd-token", WithBaseURL(srv.URL))
	resp, err := c.GoogleSearch(context.Background(), "serp_api1", "skygolf Deep Springs Country Club NC")
	require.NoError(t, err)
	require.Len(t, resp.Organic, 1)
	assert.Equal(t, "https://www.skygolf.com/courses/deep-springs", resp.Organic[0].Link)
}

func TestRequest_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("zone not active"))
	}))
	defer srv.Close()

	_, err := NewClient("t", WithBaseURL(srv.URL)).Request(context.Background(), RequestParams{Zone: "z", URL: "https://x"})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.StatusCode)
}

func TestGoogleSearch_DecodeError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>captcha</html>"))
	}))
	defer srv.Close()

	_, err := NewClient("t", WithBaseURL(srv.URL)).GoogleSearch(context.Background(), "serp", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode serp")
}
