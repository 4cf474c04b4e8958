package perplexity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletion_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer px-key", r.Header.Get("Authorization"))

		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sonar-pro", req.Model)
		assert.Equal(t, []string{"pga.org"}, req.SearchDomainFilter)
		require.Len(t, req.Messages, 1)

		json.NewEncoder(w).Encode(map[string]any{
			"id": "resp-1",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": "  Ballantyne is a private club.  "}},
			},
			"usage":     map[string]int{"prompt_tokens": 120, "completion_tokens": 80},
			"citations": []string{"https://ballantyneclub.com/about", "https://golfdigest.com/ballantyne"},
		})
	}))
	defer srv.Close()

	client := NewClient("px-key", WithBaseURL(srv.URL))
	resp, err := client.ChatCompletion(context.Background(), ChatCompletionRequest{
		Messages:           []Message{{Role: "user", Content: "Tell me about Ballantyne Country Club"}},
		SearchDomainFilter: []string{"pga.org"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Ballantyne is a private club.", resp.Answer())
	assert.Equal(t, []string{"https://ballantyneclub.com/about", "https://golfdigest.com/ballantyne"}, resp.Sources())
	assert.Equal(t, 120, resp.Usage.PromptTokens)
}

func TestChatCompletion_ModelOverride(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sonar", req.Model)
		json.NewEncoder(w).Encode(ChatCompletionResponse{ID: "x"})
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL), WithModel("sonar")).
		ChatCompletion(context.Background(), ChatCompletionRequest{})
	require.NoError(t, err)
}

func TestChatCompletion_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer srv.Close()

	_, err := NewClient("bad", WithBaseURL(srv.URL)).ChatCompletion(context.Background(), ChatCompletionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestChatCompletion_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{broken`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).ChatCompletion(context.Background(), ChatCompletionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestSources_FallsBackToSearchResults(t *testing.T) {
	t.Parallel()

	resp := &ChatCompletionResponse{SearchResults: []SearchResult{
		{Title: "a", URL: "https://a.example"},
		{Title: "no url"},
		{Title: "b", URL: "https://b.example"},
	}}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, resp.Sources())

	var nilResp *ChatCompletionResponse
	assert.Empty(t, nilResp.Sources())
	assert.Empty(t, nilResp.Answer())
}
