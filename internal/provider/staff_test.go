package provider

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/pkg/jina"
)

const testModel = "claude-haiku-4-5-20251001"

var staffText = strings.Repeat("Meet our team at Deercroft Golf Club. ", 5)

func TestStaffPages_DirectorySearchStripsContactDetails(t *testing.T) {
	t.Parallel()
	j := &fakeJina{
		hits:  map[string][]jina.SearchResult{"PGA": {{URL: "https://carolinaspga.com/facility/deercroft"}}},
		pages: map[string]string{"https://carolinaspga.com/facility/deercroft": staffText},
	}
	llm := NewLLM(&fakeAnthropic{replies: []string{`{"staff":[
		{"name":"Mike Jones","title":"Head Golf Professional","email":"mike@deercroft.com"},
		{"name":"","title":"General Manager"},
		{"name":"Mike Jones","title":"PGA Professional"}
	]}`}}, Options{})
	s := NewStaffPages(jinaWeb(j), llm, testModel)

	res := s.DirectorySearch(context.Background(), "Deercroft Golf Club", "NC")
	require.Len(t, res.Contacts, 1)
	c := res.Contacts[0]
	assert.Equal(t, "Mike Jones", c.Name)
	assert.Empty(t, c.Email)
	assert.Equal(t, model.EmailNotFound, c.EmailMethod)
	assert.Equal(t, "https://carolinaspga.com/facility/deercroft", c.Source)
	assert.Greater(t, res.CostUSD(), 0.0)
}

func TestStaffPages_SiteSearchKeepsScrapedEmails(t *testing.T) {
	t.Parallel()
	j := &fakeJina{
		hits: map[string][]jina.SearchResult{"staff": {
			{URL: "https://othersite.com/deercroft"},
			{URL: "https://www.deercroft.com/staff"},
		}},
		pages: map[string]string{"https://www.deercroft.com/staff": staffText},
	}
	llm := NewLLM(&fakeAnthropic{replies: []string{`{"staff":[{"name":"Amy Cole","title":"General Manager","email":"Amy@Deercroft.com"}]}`}}, Options{})

	res := NewStaffPages(jinaWeb(j), llm, testModel).SiteSearch(context.Background(), "Deercroft", "NC", "deercroft.com")
	require.Len(t, res.Contacts, 1)
	assert.Equal(t, "amy@deercroft.com", res.Contacts[0].Email)
	assert.Equal(t, model.EmailSearchScraped, res.Contacts[0].EmailMethod)
	assert.Equal(t, 80, res.Contacts[0].EmailConfidence)
}

func TestStaffPages_NotConfigured(t *testing.T) {
	t.Parallel()
	s := NewStaffPages(jinaWeb(&fakeJina{}), NewLLM(nil, Options{}), "haiku")
	assert.False(t, s.Configured())
	assert.Equal(t, "staff_pages: not configured", s.DirectorySearch(context.Background(), "x", "NC").Error)
}
