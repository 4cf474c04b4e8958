package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/course-intel/internal/model"
)

// ContactsResult is the normalized result of every contact-producing call.
type ContactsResult struct {
	Meta
	Contacts []model.Contact
}

const staffSystemPrompt = `You extract golf course staff from web page text. Only list people the text
states currently work at the named course. Never invent names, emails or titles. Reply with JSON only.`

const staffPrompt = `Course: %s (%s)

From the page text below, list current staff members of this course.
Return a JSON object: {"staff":[{"name":"","title":"","email":"","phone":"","linkedin_url":""}]}
Use "" for anything the text does not state. Return {"staff":[]} if none are named.

Page (%s):
%s`

const maxPageChars = 12000

type staffReply struct {
	Staff []struct {
		Name        string `json:"name"`
		Title       string `json:"title"`
		Email       string `json:"email"`
		Phone       string `json:"phone"`
		LinkedInURL string `json:"linkedin_url"`
	} `json:"staff"`
}

// StaffPages discovers staff listing pages with web search, reads them and
// extracts name/title pairs with a single-shot LLM pass.
type StaffPages struct {
	web      *Web
	llm      *LLM
	model    string
	maxPages int
}

// NewStaffPages creates the staff page adapter. model is the extraction model.
func NewStaffPages(web *Web, llm *LLM, model string) *StaffPages {
	return &StaffPages{web: web, llm: llm, model: model, maxPages: 3}
}

// Configured reports whether search, read and extraction are all available.
func (s *StaffPages) Configured() bool {
	return s != nil && s.web.Configured() && s.web.CanRead() && s.llm.Configured()
}

// DirectorySearch finds a course's listing in public staff directories
// (state PGA sections and similar) and returns name/title candidates only.
func (s *StaffPages) DirectorySearch(ctx context.Context, courseName, state string) ContactsResult {
	query := fmt.Sprintf("%q %s PGA golf professional general manager staff directory", courseName, state)
	res := s.collect(ctx, courseName, state, query, "")
	for i := range res.Contacts {
		c := &res.Contacts[i]
		c.Email, c.Phone, c.LinkedInURL = "", "", ""
		c.EmailMethod = model.EmailNotFound
	}
	return res
}

// SiteSearch reads staff and contact pages on the course's own domain.
// Emails printed on the page are kept as search_scraped.
func (s *StaffPages) SiteSearch(ctx context.Context, courseName, state, domain string) ContactsResult {
	query := fmt.Sprintf("%s staff contact general manager golf professional superintendent", courseName)
	res := s.collect(ctx, courseName, state, query, domain)
	for i := range res.Contacts {
		c := &res.Contacts[i]
		if c.HasEmail() {
			c.EmailMethod = model.EmailSearchScraped
			c.EmailConfidence = scrapedEmailConfidence
		} else {
			c.EmailMethod = model.EmailNotFound
		}
		if c.LinkedInURL != "" {
			c.LinkedInMethod = "search_scraped"
		}
	}
	return res
}

// scrapedEmailConfidence is the confidence of an unverified email printed on
// a page. Verification can raise it.
const scrapedEmailConfidence = 80

func (s *StaffPages) collect(ctx context.Context, courseName, state, query, site string) ContactsResult {
	var res ContactsResult
	if !s.Configured() {
		res.Error = notConfigured("staff_pages")
		return res
	}

	sr := s.web.Search(ctx, query, site)
	res.merge(sr.Meta)

	seen := make(map[string]bool)
	read := 0
	for _, hit := range sr.Hits {
		if read >= s.maxPages || ctx.Err() != nil {
			break
		}
		if site != "" && !sameSite(HostOf(hit.URL), site) {
			continue
		}
		page := s.web.Read(ctx, hit.URL)
		res.Usage = append(res.Usage, page.Usage...)
		read++
		if page.Failed() || strings.TrimSpace(page.Markdown) == "" {
			continue
		}

		for _, c := range s.extract(ctx, &res.Meta, courseName, state, hit.URL, page.Markdown) {
			key := strings.ToLower(c.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			res.Contacts = append(res.Contacts, c)
		}
	}
	if len(res.Contacts) > 0 {
		res.Error = ""
	}
	return res
}

func (s *StaffPages) extract(ctx context.Context, meta *Meta, courseName, state, pageURL, text string) []model.Contact {
	text = ClipText(text, maxPageChars)
	var reply staffReply
	lr := s.llm.CompleteJSON(ctx, LLMRequest{
		Model:     s.model,
		System:    staffSystemPrompt,
		Prompt:    fmt.Sprintf(staffPrompt, courseName, state, pageURL, text),
		MaxTokens: 1024,
		Purpose:   "staff_extraction",
	}, &reply)
	meta.Usage = append(meta.Usage, lr.Usage...)
	if lr.Failed() {
		return nil
	}

	var out []model.Contact
	for _, st := range reply.Staff {
		name := strings.TrimSpace(st.Name)
		if name == "" || strings.TrimSpace(st.Title) == "" {
			continue
		}
		out = append(out, model.Contact{
			Name:          name,
			Title:         strings.TrimSpace(st.Title),
			Email:         strings.ToLower(strings.TrimSpace(st.Email)),
			Phone:         strings.TrimSpace(st.Phone),
			LinkedInURL:   strings.TrimSpace(st.LinkedInURL),
			PreviousClubs: []model.PreviousClub{},
			Source:        pageURL,
		})
	}
	return out
}

func sameSite(host, domain string) bool {
	domain = HostOf(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
