package waterfall

import (
	"context"
	"errors"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/internal/provider"
	"github.com/sells-group/course-intel/pkg/anthropic"
	"github.com/sells-group/course-intel/pkg/hunter"
	"github.com/sells-group/course-intel/pkg/jina"
)

// mockStage is a Stage backed by testify/mock.
type mockStage struct {
	mock.Mock
	name       model.Source
	configured bool
}

func newMockStage(name model.Source) *mockStage {
	return &mockStage{name: name, configured: true}
}

func (m *mockStage) Name() model.Source { return m.name }
func (m *mockStage) Configured() bool   { return m.configured }

func (m *mockStage) Run(ctx context.Context, req Request, accepted []model.Contact) provider.ContactsResult {
	args := m.Called(ctx, req, accepted)
	return args.Get(0).(provider.ContactsResult)
}

func contactsResult(cost float64, credits int, contacts ...model.Contact) provider.ContactsResult {
	var res provider.ContactsResult
	res.Contacts = contacts
	if cost > 0 || credits > 0 {
		res.Usage = []model.Usage{{Provider: "fake", CostUSD: cost, Credits: credits, CreditConsumed: credits > 0, Calls: 1}}
	}
	return res
}

func verified(name, title, email string) model.Contact {
	return model.Contact{Name: name, Title: title, Email: email, EmailConfidence: 95, EmailMethod: model.EmailVerifiedB2B, Source: "apollo"}
}

type fakeJina struct {
	hits  []jina.SearchResult
	pages map[string]string
}

func (f *fakeJina) Read(_ context.Context, u string) (*jina.ReadResponse, error) {
	content, ok := f.pages[u]
	if !ok {
		return nil, errors.New("jina: 404")
	}
	return &jina.ReadResponse{Code: 200, Data: jina.ReadData{URL: u, Content: content, Usage: jina.Usage{Tokens: 500}}}, nil
}

func (f *fakeJina) Search(context.Context, string, ...jina.SearchOption) (*jina.SearchResponse, error) {
	return &jina.SearchResponse{Code: 200, Data: f.hits}, nil
}

type fakeAnthropic struct{ reply string }

func (f *fakeAnthropic) CreateMessage(context.Context, anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.reply}},
		Usage:   anthropic.TokenUsage{InputTokens: 2000, OutputTokens: 200},
	}, nil
}

type fakeHunter struct {
	finder   map[string]hunter.FinderData
	verifier map[string]string
	calls    []string
}

func (f *fakeHunter) DomainSearch(context.Context, string, int) (*hunter.DomainSearchResponse, error) {
	f.calls = append(f.calls, "domain_search")
	return &hunter.DomainSearchResponse{}, nil
}

func (f *fakeHunter) EmailFinder(_ context.Context, _, fullName string) (*hunter.EmailFinderResponse, error) {
	f.calls = append(f.calls, "finder:"+fullName)
	return &hunter.EmailFinderResponse{Data: f.finder[fullName]}, nil
}

func (f *fakeHunter) EmailVerifier(_ context.Context, email string) (*hunter.EmailVerifierResponse, error) {
	f.calls = append(f.calls, "verify:"+email)
	status := f.verifier[strings.ToLower(email)]
	score := 70
	if status == hunter.StatusValid {
		score = 97
	}
	return &hunter.EmailVerifierResponse{Data: hunter.VerifierData{Email: email, Status: status, Score: score}}, nil
}
