package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/course-intel/internal/model"
)

func TestResearch_CourseFocus(t *testing.T) {
	t.Parallel()
	fake := &fakePerplexity{answer: "Deercroft is semi-private; green fees $45-$65 [1].", citations: []string{"https://deercroft.com/rates"}}
	r := NewResearch(fake, Options{})

	res := r.Research(context.Background(), "Deercroft Golf Club", "Wagram", "NC", ResearchCourse, nil)
	require.False(t, res.Failed())
	assert.Contains(t, res.Answer, "semi-private")
	assert.Equal(t, []string{"https://deercroft.com/rates"}, res.Citations)
	assert.InDelta(t, 0.005, res.CostUSD(), 1e-9)
	assert.Contains(t, fake.prompts[0], "Wagram, North Carolina")
}

func TestResearch_StaffContactsRequireCitation(t *testing.T) {
	t.Parallel()
	fake := &fakePerplexity{
		answer: "```json\n" + `{"contacts":[
			{"name":"Tom Brown","title":"Superintendent","email":"TBrown@deercroft.com","citation":2},
			{"name":"No Source","title":"General Manager","citation":0},
			{"name":"Out Of Range","title":"Director of Golf","citation":9},
			{"name":"Ann Page","title":"Director of Golf","linkedin_url":"https://linkedin.com/in/ann","citation":1}
		]}` + "\n```",
		citations: []string{"https://carolinaspga.com/deercroft", "https://deercroft.com/staff"},
	}

	res := NewResearch(fake, Options{}).StaffContacts(context.Background(), "Deercroft", "", "NC", model.DecisionMakerTitles)
	require.Len(t, res.Contacts, 2)

	tom := res.Contacts[0]
	assert.Equal(t, "https://deercroft.com/staff", tom.Source)
	assert.Equal(t, "tbrown@deercroft.com", tom.Email)
	assert.Equal(t, model.EmailLLMCited, tom.EmailMethod)
	assert.Equal(t, 50, tom.EmailConfidence)

	ann := res.Contacts[1]
	assert.Equal(t, "https://carolinaspga.com/deercroft", ann.Source)
	assert.Equal(t, model.EmailNotFound, ann.EmailMethod)
	assert.Equal(t, "llm_cited", ann.LinkedInMethod)
	assert.Contains(t, fake.prompts[0], "General Manager, Director of Golf")
}

func TestResearch_ErrorAbsorbed(t *testing.T) {
	t.Parallel()
	res := NewResearch(&fakePerplexity{err: errors.New("timeout")}, Options{}).
		StaffContacts(context.Background(), "X", "", "NC", nil)
	assert.Empty(t, res.Contacts)
	assert.Contains(t, res.Error, "perplexity: research")
	assert.Zero(t, res.CostUSD())
}
