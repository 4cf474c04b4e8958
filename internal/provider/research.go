package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/pkg/perplexity"
)

// ResearchFocus selects the research prompt.
type ResearchFocus int

const (
	// ResearchCourse gathers tier, fee, volume and ownership evidence.
	ResearchCourse ResearchFocus = iota
	// ResearchStaff gathers current decision-makers with citations.
	ResearchStaff
)

const courseResearchPrompt = `Research the golf course "%s" in %s.
Report with sources: current green fees and membership dues, whether it is private, semi-private,
public or resort, ownership and management company, estimated annual rounds played, number of holes
and water hazards, practice facilities, recent renovations or ownership changes, and any vendors or
technology providers mentioned (tee sheet, GPS carts, turf equipment). Cite every fact.`

const staffResearchPrompt = `Who currently holds these roles at the golf course "%s" in %s: %s?
Reply with JSON only: {"contacts":[{"name":"","title":"","email":"","linkedin_url":"","citation":1}]}
"citation" is the 1-based number of the source that names the person. Include only people named by a
source; use "" for unknown fields.`

// ResearchResult is the normalized result of llm_research.
type ResearchResult struct {
	Meta
	Answer    string
	Citations []string
}

// Research adapts Perplexity's cited research API.
type Research struct {
	client perplexity.Client
	opts   Options
}

// NewResearch creates the adapter. A nil client leaves it unconfigured.
func NewResearch(client perplexity.Client, opts Options) *Research {
	return &Research{client: client, opts: opts.withDefaults()}
}

// Configured reports whether the adapter has a client.
func (r *Research) Configured() bool { return r != nil && r.client != nil }

// Research runs a cited research call about the course.
func (r *Research) Research(ctx context.Context, course, city, state string, focus ResearchFocus, titles []string) ResearchResult {
	var res ResearchResult
	if !r.Configured() {
		res.Error = notConfigured("perplexity")
		return res
	}

	where := StateName(state)
	if city != "" {
		where = city + ", " + where
	}
	prompt := fmt.Sprintf(courseResearchPrompt, course, where)
	if focus == ResearchStaff {
		prompt = fmt.Sprintf(staffResearchPrompt, course, where, strings.Join(titles, ", "))
	}
	temp := 0.1

	var resp *perplexity.ChatCompletionResponse
	err := r.opts.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = r.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
			Messages:    []perplexity.Message{{Role: "user", Content: prompt}},
			Temperature: &temp,
		})
		return err
	})
	if err != nil {
		res.charge(model.Usage{Provider: "perplexity", Calls: 1})
		res.Error = fail("perplexity", "research", err)
		return res
	}
	res.charge(model.Usage{Provider: "perplexity", CostUSD: r.opts.Calc.PerplexityQuery(), Calls: 1})
	res.Answer = resp.Answer()
	res.Citations = resp.Sources()
	return res
}

type staffResearchReply struct {
	Contacts []struct {
		Name        string `json:"name"`
		Title       string `json:"title"`
		Email       string `json:"email"`
		LinkedInURL string `json:"linkedin_url"`
		Citation    int    `json:"citation"`
	} `json:"contacts"`
}

// llmCitedConfidence is the confidence of an email quoted by a research answer.
const llmCitedConfidence = 50

// StaffContacts runs a staff-focused research call and keeps only people
// backed by a citation URL, which becomes the contact source.
func (r *Research) StaffContacts(ctx context.Context, course, city, state string, titles []string) ContactsResult {
	var res ContactsResult
	rr := r.Research(ctx, course, city, state, ResearchStaff, titles)
	res.merge(rr.Meta)
	if rr.Failed() {
		return res
	}

	var reply staffResearchReply
	if err := decodeJSON(rr.Answer, &reply); err != nil {
		res.Error = fail("perplexity", "staff_research", err)
		return res
	}

	for _, p := range reply.Contacts {
		name := strings.TrimSpace(p.Name)
		if name == "" || p.Citation < 1 || p.Citation > len(rr.Citations) {
			continue
		}
		source := rr.Citations[p.Citation-1]
		if !strings.HasPrefix(source, "http") {
			continue
		}
		c := model.Contact{
			Name:          name,
			Title:         strings.TrimSpace(p.Title),
			LinkedInURL:   strings.TrimSpace(p.LinkedInURL),
			EmailMethod:   model.EmailNotFound,
			PreviousClubs: []model.PreviousClub{},
			Source:        source,
		}
		if email := strings.ToLower(strings.TrimSpace(p.Email)); email != "" {
			c.Email = email
			c.EmailMethod = model.EmailLLMCited
			c.EmailConfidence = llmCitedConfidence
		}
		if c.LinkedInURL != "" {
			c.LinkedInMethod = "llm_cited"
		}
		res.Contacts = append(res.Contacts, c)
	}
	return res
}
