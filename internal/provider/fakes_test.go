package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/sells-group/course-intel/internal/scrape"
	"github.com/sells-group/course-intel/pkg/anthropic"
	"github.com/sells-group/course-intel/pkg/apollo"
	"github.com/sells-group/course-intel/pkg/brightdata"
	"github.com/sells-group/course-intel/pkg/firecrawl"
	"github.com/sells-group/course-intel/pkg/hunter"
	"github.com/sells-group/course-intel/pkg/jina"
	"github.com/sells-group/course-intel/pkg/perplexity"
)

type fakeAnthropic struct {
	replies []string
	err     error
	reqs    []anthropic.MessageRequest
}

func (f *fakeAnthropic) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	text := "{}"
	if len(f.replies) > 0 {
		text = f.replies[0]
		if len(f.replies) > 1 {
			f.replies = f.replies[1:]
		}
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 1_000_000, OutputTokens: 0},
	}, nil
}

type fakeApollo struct {
	search  func(req apollo.PeopleSearchRequest) (*apollo.PeopleSearchResponse, error)
	people  map[string]*apollo.Person
	matched []string
}

func (f *fakeApollo) SearchPeople(_ context.Context, req apollo.PeopleSearchRequest) (*apollo.PeopleSearchResponse, error) {
	return f.search(req)
}

func (f *fakeApollo) MatchPerson(_ context.Context, req apollo.MatchRequest) (*apollo.MatchResponse, error) {
	f.matched = append(f.matched, req.ID)
	p, ok := f.people[req.ID]
	if !ok {
		return nil, &apollo.APIError{StatusCode: 404, Body: "not found"}
	}
	return &apollo.MatchResponse{Person: p}, nil
}

type fakeHunter struct {
	domain   *hunter.DomainSearchResponse
	finder   map[string]*hunter.EmailFinderResponse
	verifier map[string]string
	err      error
}

func (f *fakeHunter) DomainSearch(context.Context, string, int) (*hunter.DomainSearchResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.domain, nil
}

func (f *fakeHunter) EmailFinder(_ context.Context, _, fullName string) (*hunter.EmailFinderResponse, error) {
	if r, ok := f.finder[fullName]; ok {
		return r, nil
	}
	return &hunter.EmailFinderResponse{}, nil
}

func (f *fakeHunter) EmailVerifier(_ context.Context, email string) (*hunter.EmailVerifierResponse, error) {
	status := f.verifier[email]
	score := 0
	if status == hunter.StatusValid {
		score = 97
	}
	return &hunter.EmailVerifierResponse{Data: hunter.VerifierData{Email: email, Status: status, Score: score}}, nil
}

type fakePerplexity struct {
	answer    string
	citations []string
	err       error
	prompts   []string
}

func (f *fakePerplexity) ChatCompletion(_ context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	f.prompts = append(f.prompts, req.Messages[0].Content)
	if f.err != nil {
		return nil, f.err
	}
	return &perplexity.ChatCompletionResponse{
		Choices:   []perplexity.Choice{{Message: perplexity.Message{Role: "assistant", Content: f.answer}}},
		Citations: f.citations,
	}, nil
}

type fakeJina struct {
	hits  map[string][]jina.SearchResult
	pages map[string]string
	err   error
}

func (f *fakeJina) Read(_ context.Context, u string) (*jina.ReadResponse, error) {
	content, ok := f.pages[u]
	if !ok {
		return nil, errors.New("jina: 404")
	}
	return &jina.ReadResponse{Code: 200, Data: jina.ReadData{URL: u, Title: "page", Content: content, Usage: jina.Usage{Tokens: 1000}}}, nil
}

func (f *fakeJina) Search(_ context.Context, query string, _ ...jina.SearchOption) (*jina.SearchResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	for key, hits := range f.hits {
		if key == "*" || containsFold(query, key) {
			return &jina.SearchResponse{Code: 200, Data: hits}, nil
		}
	}
	return &jina.SearchResponse{Code: 200}, nil
}

type fakeFirecrawl struct {
	results []firecrawl.SearchResult
	queries []string
}

func (f *fakeFirecrawl) Scrape(context.Context, firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	return &firecrawl.ScrapeResponse{Success: false}, nil
}

func (f *fakeFirecrawl) Search(_ context.Context, req firecrawl.SearchRequest) (*firecrawl.SearchResponse, error) {
	f.queries = append(f.queries, req.Query)
	return &firecrawl.SearchResponse{Success: true, Data: f.results}, nil
}

type fakeSERP struct {
	organic []brightdata.OrganicResult
	pages   map[string]string
	queries []string
}

func (f *fakeSERP) Request(_ context.Context, p brightdata.RequestParams) ([]byte, error) {
	body, ok := f.pages[p.URL]
	if !ok {
		return nil, &brightdata.APIError{StatusCode: 502, Body: "bad gateway"}
	}
	return []byte(body), nil
}

func (f *fakeSERP) GoogleSearch(_ context.Context, _ string, query string) (*brightdata.SERPResponse, error) {
	f.queries = append(f.queries, query)
	return &brightdata.SERPResponse{Organic: f.organic}, nil
}

func jinaWeb(j *fakeJina) *Web {
	return NewWeb(j, nil, scrape.NewChain(scrape.NewJinaAdapter(j)), Options{})
}

func containsFold(s, sub string) bool {
	return sub != "" && strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
