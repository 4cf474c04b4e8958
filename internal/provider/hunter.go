package provider

import (
	"context"
	"regexp"
	"strings"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/pkg/hunter"
)

// relevantTitle matches decision-maker titles in domain search results.
var relevantTitle = regexp.MustCompile(`(?i)\b(manager|director|professional|superintendent|president|gm|head pro)\b`)

// minDomainSearchConfidence filters domain search results locally.
const minDomainSearchConfidence = 90

// DomainEmail adapts the Hunter domain search, email finder and verifier.
type DomainEmail struct {
	client hunter.Client
	opts   Options
	limit  int
}

// NewDomainEmail creates the adapter. A nil client leaves it unconfigured.
func NewDomainEmail(client hunter.Client, opts Options) *DomainEmail {
	return &DomainEmail{client: client, opts: opts.withDefaults(), limit: 10}
}

// Configured reports whether the adapter has a client.
func (d *DomainEmail) Configured() bool { return d != nil && d.client != nil }

func (d *DomainEmail) usage() model.Usage {
	return model.Usage{
		Provider:       "hunter",
		CostUSD:        d.opts.Calc.Hunter(1),
		Credits:        1,
		CreditConsumed: true,
		Calls:          1,
	}
}

// Search lists everyone Hunter knows at domain and keeps personal emails
// with a relevant title and confidence of at least 90.
func (d *DomainEmail) Search(ctx context.Context, domain string) ContactsResult {
	var res ContactsResult
	if !d.Configured() {
		res.Error = notConfigured("hunter")
		return res
	}
	if domain == "" {
		res.Error = "hunter: domain search: no domain"
		return res
	}

	var resp *hunter.DomainSearchResponse
	err := d.opts.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = d.client.DomainSearch(ctx, domain, d.limit)
		return err
	})
	res.charge(d.usage())
	if err != nil {
		res.Error = fail("hunter", "domain_search", err)
		return res
	}

	for _, e := range resp.Data.Emails {
		name := e.FullName()
		if name == "" || e.Value == "" || e.Type == "generic" {
			continue
		}
		if e.Confidence < minDomainSearchConfidence || !relevantTitle.MatchString(e.Position) {
			continue
		}
		c := model.Contact{
			Name:            name,
			Title:           e.Position,
			Email:           strings.ToLower(e.Value),
			EmailConfidence: e.Confidence,
			EmailMethod:     model.EmailDomainSearch,
			LinkedInURL:     e.LinkedIn,
			Phone:           e.PhoneNumber,
			PreviousClubs:   []model.PreviousClub{},
			Source:          "hunter",
		}
		if c.LinkedInURL != "" {
			c.LinkedInMethod = "domain_search"
		}
		res.Contacts = append(res.Contacts, c)
	}
	return res
}

// FinderResult is the normalized result of email_finder.
type FinderResult struct {
	Meta
	Email      string
	Confidence int
	Status     string
}

// FindEmail guesses the email of fullName at domain.
func (d *DomainEmail) FindEmail(ctx context.Context, fullName, domain string) FinderResult {
	var res FinderResult
	if !d.Configured() {
		res.Error = notConfigured("hunter")
		return res
	}

	var resp *hunter.EmailFinderResponse
	err := d.opts.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = d.client.EmailFinder(ctx, domain, fullName)
		return err
	})
	res.charge(d.usage())
	if err != nil {
		res.Error = fail("hunter", "email_finder", err)
		return res
	}
	res.Email = strings.ToLower(strings.TrimSpace(resp.Data.Email))
	res.Confidence = resp.Data.Score
	res.Status = resp.Data.Verification.Status
	return res
}

// VerifyResult is the normalized result of email_verifier.
type VerifyResult struct {
	Meta
	Status     string
	Confidence int
}

// Valid reports whether the mailbox verified as deliverable.
func (v VerifyResult) Valid() bool { return v.Status == hunter.StatusValid }

// Invalid reports whether the mailbox verified as undeliverable.
func (v VerifyResult) Invalid() bool {
	return v.Status == hunter.StatusInvalid || v.Status == hunter.StatusDisposable
}

// VerifyEmail checks deliverability of email.
func (d *DomainEmail) VerifyEmail(ctx context.Context, email string) VerifyResult {
	var res VerifyResult
	if !d.Configured() {
		res.Error = notConfigured("hunter")
		return res
	}

	var resp *hunter.EmailVerifierResponse
	err := d.opts.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = d.client.EmailVerifier(ctx, email)
		return err
	})
	res.charge(d.usage())
	if err != nil {
		res.Error = fail("hunter", "email_verifier", err)
		return res
	}
	res.Status = resp.Data.Status
	res.Confidence = resp.Data.Score
	return res
}
