package waterfall

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/internal/provider"
	"github.com/sells-group/course-intel/internal/scrape"
	"github.com/sells-group/course-intel/pkg/hunter"
	"github.com/sells-group/course-intel/pkg/jina"
)

const extractModel = "claude-haiku-4-5-20251001"

func TestBuildSteps_OrderAndDisabled(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Stages[0].Disabled = true

	got := BuildSteps(cfg, Providers{})
	require.Len(t, got, 4)
	names := make([]model.Source, 0, len(got))
	for _, s := range got {
		names = append(names, s.Stage.Name())
		assert.False(t, s.Stage.Configured(), "nil providers are unconfigured")
		require.NotNil(t, s.Advance)
	}
	assert.Equal(t, []model.Source{model.SourceB2B, model.SourceDomainEmail, model.SourceWebSearch, model.SourceLLMResearch}, names)
}

func TestBuildSteps_NoCredentialsYieldsEmptyRun(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	res := NewExecutor(cfg, BuildSteps(cfg, Providers{}), nil).
		Run(context.Background(), Request{CourseName: "Deercroft", State: "NC", Domain: "deercroft.com"})
	assert.Empty(t, res.Contacts)
	assert.Empty(t, res.SourcesUsed)
	assert.Len(t, res.Stages, 5)
}

func webStageFixture(h *fakeHunter) *webSearchStage {
	staffPage := "https://www.deercroft.com/staff"
	j := &fakeJina{
		hits:  []jina.SearchResult{{URL: staffPage}},
		pages: map[string]string{staffPage: strings.Repeat("Our staff at Deercroft. ", 10)},
	}
	llm := provider.NewLLM(&fakeAnthropic{reply: `{"staff":[
		{"name":"Amy Cole","title":"General Manager","email":"amy@deercroft.com"},
		{"name":"Bob Ray","title":"Superintendent"},
		{"name":"Carl Diaz","title":"Line Cook"},
		{"name":"Dee Fox","title":"Head Golf Professional","email":"dee@gmail.com"}
	]}`}, provider.Options{})
	web := provider.NewWeb(j, nil, scrape.NewChain(scrape.NewJinaAdapter(j)), provider.Options{})

	return &webSearchStage{
		staff:         provider.NewStaffPages(web, llm, extractModel),
		finder:        provider.NewDomainEmail(h, provider.Options{}),
		maxPromotions: 4,
		minConfidence: 90,
	}
}

func TestWebSearchStage_PromotesCandidates(t *testing.T) {
	t.Parallel()
	h := &fakeHunter{
		finder: map[string]hunter.FinderData{
			"Bob Ray":  {Email: "bob@deercroft.com", Score: 85},
			"Tom Page": {Email: "tom@deercroft.com", Score: 92},
		},
		verifier: map[string]string{
			"amy@deercroft.com": hunter.StatusValid,
			"bob@deercroft.com": hunter.StatusAcceptAll,
			"tom@deercroft.com": hunter.StatusValid,
		},
	}
	st := webStageFixture(h)
	prior := []model.Contact{
		{Name: "Tom Page", Title: "Director of Golf", Stage: model.SourceDirectory},
		{Name: "Gus Lee", Title: "Golf Shop Attendant", Stage: model.SourceDirectory},
	}

	res := st.Run(context.Background(), Request{CourseName: "Deercroft", State: "NC", Domain: "deercroft.com", Titles: model.DecisionMakerTitles}, prior)
	require.Len(t, res.Contacts, 5)

	byName := make(map[string]model.Contact)
	for _, c := range res.Contacts {
		byName[c.Name] = c
	}

	amy := byName["Amy Cole"]
	assert.Equal(t, model.EmailSearchScraped, amy.EmailMethod)
	assert.Equal(t, 97, amy.EmailConfidence)

	bob := byName["Bob Ray"]
	assert.Equal(t, "bob@deercroft.com", bob.Email)
	assert.Equal(t, model.EmailPatternVerified, bob.EmailMethod)
	assert.Equal(t, 80, bob.EmailConfidence)
	assert.False(t, bob.Counts(90))

	assert.Empty(t, byName["Carl Diaz"].Email, "non-target titles are not promoted")

	dee := byName["Dee Fox"]
	assert.Equal(t, 80, dee.EmailConfidence, "foreign-domain email is left for the validator")

	tom := byName["Tom Page"]
	assert.Equal(t, 97, tom.EmailConfidence)
	assert.Equal(t, model.EmailPatternVerified, tom.EmailMethod)

	_, ok := byName["Gus Lee"]
	assert.False(t, ok, "earlier candidates are only re-emitted when promoted")

	assert.Equal(t, []string{
		"verify:amy@deercroft.com",
		"finder:Bob Ray", "verify:bob@deercroft.com",
		"finder:Tom Page", "verify:tom@deercroft.com",
	}, h.calls)
}

func TestWebSearchStage_InvalidEmailDropped(t *testing.T) {
	t.Parallel()
	h := &fakeHunter{verifier: map[string]string{"amy@deercroft.com": hunter.StatusInvalid}}
	st := webStageFixture(h)
	st.maxPromotions = 1

	res := st.Run(context.Background(), Request{CourseName: "Deercroft", State: "NC", Domain: "deercroft.com", Titles: model.DecisionMakerTitles}, nil)
	require.NotEmpty(t, res.Contacts)
	amy := res.Contacts[0]
	assert.Equal(t, "Amy Cole", amy.Name)
	assert.Empty(t, amy.Email)
	assert.Equal(t, model.EmailNotFound, amy.EmailMethod)
	assert.Equal(t, []string{"verify:amy@deercroft.com"}, h.calls)
}

func TestWebSearchStage_NoDomainSkipsPromotion(t *testing.T) {
	t.Parallel()
	h := &fakeHunter{}
	st := webStageFixture(h)

	res := st.Run(context.Background(), Request{CourseName: "Deercroft", State: "NC", Titles: model.DecisionMakerTitles}, nil)
	assert.Len(t, res.Contacts, 4)
	assert.Empty(t, h.calls)
}
