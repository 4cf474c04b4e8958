package model

import (
	"strings"
	"time"
	"unicode"
)

// EmailMethod records how a contact's email was obtained.
type EmailMethod string

const (
	EmailVerifiedB2B     EmailMethod = "verified_b2b"
	EmailDomainSearch    EmailMethod = "domain_search"
	EmailPatternVerified EmailMethod = "pattern_verified"
	EmailSearchScraped   EmailMethod = "search_scraped"
	EmailLLMCited        EmailMethod = "llm_cited"
	EmailNotFound        EmailMethod = "not_found"
)

// Source identifies the waterfall stage (provider family) that produced a contact.
type Source string

const (
	SourceDirectory   Source = "directory"
	SourceB2B         Source = "b2b"
	SourceDomainEmail Source = "domain_email"
	SourceWebSearch   Source = "web_search"
	SourceLLMResearch Source = "llm_research"
)

// DecisionMakerTitles are the default target titles in priority order.
var DecisionMakerTitles = []string{
	"General Manager",
	"Director of Golf",
	"Head Golf Professional",
	"Superintendent",
}

// PreviousClub is one prior position held by a contact.
type PreviousClub struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Contact is a candidate or final decision-maker for a course.
type Contact struct {
	Name            string         `json:"name"`
	Title           string         `json:"title"`
	Email           string         `json:"email,omitempty"`
	EmailConfidence int            `json:"email_confidence,omitempty"`
	EmailMethod     EmailMethod    `json:"email_method,omitempty"`
	LinkedInURL     string         `json:"linkedin_url,omitempty"`
	LinkedInMethod  string         `json:"linkedin_method,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	TenureYears     *float64       `json:"tenure_years,omitempty"`
	TenureStartDate string         `json:"tenure_start_date,omitempty"`
	PreviousClubs   []PreviousClub `json:"previous_clubs"`
	Source          string         `json:"source"`
	PersonID        string         `json:"person_id,omitempty"`

	// Stage is the waterfall stage that produced the contact. Not serialized;
	// Source carries the provider name or citation URL instead.
	Stage Source `json:"-"`
}

// MinCountedConfidence is the email confidence a contact needs to count toward
// waterfall success thresholds.
const MinCountedConfidence = 90

// HasEmail reports whether the contact carries an email address.
func (c Contact) HasEmail() bool { return strings.TrimSpace(c.Email) != "" }

// HasContactMethod reports whether the contact can be reached by email or LinkedIn.
func (c Contact) HasContactMethod() bool {
	return c.HasEmail() || strings.TrimSpace(c.LinkedInURL) != ""
}

// Counts reports whether the contact counts toward a success threshold of
// verified contacts at the given minimum confidence.
func (c Contact) Counts(minConfidence int) bool {
	return c.HasEmail() && c.EmailConfidence >= minConfidence
}

// LowConfidence reports whether the contact carries an email below minConfidence.
func (c Contact) LowConfidence(minConfidence int) bool {
	return c.HasEmail() && c.EmailConfidence < minConfidence
}

// TitlePriority returns the index of the first target title that matches the
// contact title, or len(titles) when nothing matches.
func TitlePriority(title string, titles []string) int {
	t := strings.ToLower(title)
	for i, target := range titles {
		if strings.Contains(t, strings.ToLower(target)) {
			return i
		}
	}
	// Common abbreviations.
	switch {
	case hasWord(t, "gm") || strings.Contains(t, "club manager"):
		return indexOf(titles, "General Manager", len(titles))
	case strings.Contains(t, "head pro") || strings.Contains(t, "pga professional"):
		return indexOf(titles, "Head Golf Professional", len(titles))
	case strings.Contains(t, "course manager") || strings.Contains(t, "grounds"):
		return indexOf(titles, "Superintendent", len(titles))
	}
	return len(titles)
}

// hasWord reports whether word appears in s as a whole word.
func hasWord(s, word string) bool {
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if w == word {
			return true
		}
	}
	return false
}

func indexOf(titles []string, want string, fallback int) int {
	for i, t := range titles {
		if strings.EqualFold(t, want) {
			return i
		}
	}
	return fallback
}

// ContactRecord is the persisted per-contact row keyed by (course_id, contact_name).
type ContactRecord struct {
	ID                 int64      `json:"id,omitempty"`
	CourseID           int64      `json:"course_id"`
	ContactName        string     `json:"contact_name"`
	ContactTitle       string     `json:"contact_title"`
	ContactEmail       string     `json:"contact_email"`
	EmailConfidence    int        `json:"email_confidence"`
	EmailMethod        string     `json:"email_method"`
	LinkedInURL        string     `json:"linkedin_url"`
	ContactPhone       string     `json:"contact_phone"`
	TenureYears        *float64   `json:"tenure_years"`
	ContactSources     []string   `json:"contact_sources"`
	PersonID           string     `json:"person_id"`
	EmploymentVerified bool       `json:"employment_verified"`
	NeedsEnrichment    bool       `json:"needs_enrichment"`
	EnrichedAt         *time.Time `json:"enriched_at"`
}

// NewContactRecord flattens c for persistence under courseID.
func NewContactRecord(courseID int64, c Contact) ContactRecord {
	var sources []string
	if c.Source != "" {
		sources = append(sources, c.Source)
	}
	if c.Stage != "" && string(c.Stage) != c.Source {
		sources = append(sources, string(c.Stage))
	}
	if sources == nil {
		sources = []string{}
	}
	return ContactRecord{
		CourseID:           courseID,
		ContactName:        c.Name,
		ContactTitle:       c.Title,
		ContactEmail:       c.Email,
		EmailConfidence:    c.EmailConfidence,
		EmailMethod:        string(c.EmailMethod),
		LinkedInURL:        c.LinkedInURL,
		ContactPhone:       c.Phone,
		TenureYears:        c.TenureYears,
		ContactSources:     sources,
		PersonID:           c.PersonID,
		EmploymentVerified: c.EmailMethod == EmailVerifiedB2B && c.EmailConfidence >= MinCountedConfidence,
		NeedsEnrichment:    true,
	}
}
