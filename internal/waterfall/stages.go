package waterfall

import (
	"context"

	"github.com/sells-group/course-intel/internal/contact"
	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/internal/provider"
)

// Providers are the adapters the built-in stages draw on. Any may be nil or
// unconfigured; the matching stage is then skipped.
type Providers struct {
	Staff       *provider.StaffPages
	B2B         *provider.B2B
	DomainEmail *provider.DomainEmail
	Research    *provider.Research
}

// BuildSteps assembles the enabled stages in config order. Every stage
// advances while the run is below the success threshold.
func BuildSteps(cfg *Config, p Providers) []Step {
	advance := BelowThreshold(cfg.SuccessThreshold, cfg.MinEmailConfidence)
	var steps []Step
	for _, sc := range cfg.Stages {
		if sc.Disabled {
			continue
		}
		var st Stage
		switch sc.Name {
		case model.SourceDirectory:
			st = &directoryStage{staff: p.Staff}
		case model.SourceB2B:
			st = &b2bStage{b2b: p.B2B}
		case model.SourceDomainEmail:
			st = &domainEmailStage{hunter: p.DomainEmail}
		case model.SourceWebSearch:
			st = &webSearchStage{
				staff:         p.Staff,
				finder:        p.DomainEmail,
				maxPromotions: sc.MaxPromotions,
				minConfidence: cfg.MinEmailConfidence,
			}
		case model.SourceLLMResearch:
			st = &llmResearchStage{research: p.Research}
		default:
			continue
		}
		steps = append(steps, Step{Stage: st, Advance: advance})
	}
	return steps
}

type directoryStage struct{ staff *provider.StaffPages }

func (s *directoryStage) Name() model.Source { return model.SourceDirectory }
func (s *directoryStage) Configured() bool   { return s.staff.Configured() }

func (s *directoryStage) Run(ctx context.Context, req Request, _ []model.Contact) provider.ContactsResult {
	return s.staff.DirectorySearch(ctx, req.CourseName, req.State)
}

type b2bStage struct{ b2b *provider.B2B }

func (s *b2bStage) Name() model.Source { return model.SourceB2B }
func (s *b2bStage) Configured() bool   { return s.b2b.Configured() }

func (s *b2bStage) Run(ctx context.Context, req Request, _ []model.Contact) provider.ContactsResult {
	return s.b2b.SearchEnrich(ctx, req.CourseName, req.Domain, req.State, req.Titles)
}

type domainEmailStage struct{ hunter *provider.DomainEmail }

func (s *domainEmailStage) Name() model.Source { return model.SourceDomainEmail }
func (s *domainEmailStage) Configured() bool   { return s.hunter.Configured() }

func (s *domainEmailStage) Run(ctx context.Context, req Request, _ []model.Contact) provider.ContactsResult {
	return s.hunter.Search(ctx, req.Domain)
}

type llmResearchStage struct{ research *provider.Research }

func (s *llmResearchStage) Name() model.Source { return model.SourceLLMResearch }
func (s *llmResearchStage) Configured() bool   { return s.research.Configured() }

func (s *llmResearchStage) Run(ctx context.Context, req Request, _ []model.Contact) provider.ContactsResult {
	return s.research.StaffContacts(ctx, req.CourseName, req.City, req.State, req.Titles)
}

// webSearchStage reads staff pages on the course site, then spends up to
// maxPromotions finder/verifier lookups turning name-only or scraped
// candidates into verified contacts.
type webSearchStage struct {
	staff         *provider.StaffPages
	finder        *provider.DomainEmail
	maxPromotions int
	minConfidence int
}

func (s *webSearchStage) Name() model.Source { return model.SourceWebSearch }
func (s *webSearchStage) Configured() bool   { return s.staff.Configured() }

func (s *webSearchStage) Run(ctx context.Context, req Request, accepted []model.Contact) provider.ContactsResult {
	res := s.staff.SiteSearch(ctx, req.CourseName, req.State, req.Domain)
	if req.Domain == "" || !s.finder.Configured() || s.maxPromotions <= 0 {
		return res
	}

	// Earlier name-only candidates are promoted too; Merge upgrades them.
	found := make(map[string]bool, len(res.Contacts))
	for _, c := range res.Contacts {
		found[contact.NameKey(c.Name)] = true
	}
	for _, c := range accepted {
		k := contact.NameKey(c.Name)
		if found[k] || c.Counts(s.minConfidence) || c.HasEmail() {
			continue
		}
		found[k] = true
		res.Contacts = append(res.Contacts, c)
	}

	promoted := 0
	out := res.Contacts[:0]
	for _, c := range res.Contacts {
		prior := c.Stage != ""
		eligible := promoted < s.maxPromotions && !c.Counts(s.minConfidence) &&
			model.TitlePriority(c.Title, req.Titles) < len(req.Titles)
		if !eligible {
			if !prior {
				out = append(out, c)
			}
			continue
		}
		promoted++
		if c, ok := s.promote(ctx, &res, c, req.Domain); ok {
			out = append(out, c)
		}
	}
	res.Contacts = out
	return res
}

// promote verifies a scraped email or finds and verifies one for a name-only
// candidate. It reports false when the candidate should be left out of this
// stage's output: an earlier-stage candidate that gained no email.
func (s *webSearchStage) promote(ctx context.Context, res *provider.ContactsResult, c model.Contact, domain string) (model.Contact, bool) {
	if c.HasEmail() {
		if !contact.DomainMatches(contact.EmailDomain(c.Email), domain) {
			return c, true
		}
		vr := s.finder.VerifyEmail(ctx, c.Email)
		res.Usage = append(res.Usage, vr.Usage...)
		switch {
		case vr.Valid():
			c.EmailConfidence = max(vr.Confidence, s.minConfidence)
		case vr.Invalid():
			c.Email, c.EmailConfidence, c.EmailMethod = "", 0, model.EmailNotFound
		}
		return c, true
	}

	fr := s.finder.FindEmail(ctx, c.Name, domain)
	res.Usage = append(res.Usage, fr.Usage...)
	if fr.Email == "" {
		return c, c.Stage == ""
	}
	vr := s.finder.VerifyEmail(ctx, fr.Email)
	res.Usage = append(res.Usage, vr.Usage...)

	switch {
	case vr.Valid():
		c.EmailConfidence = max(vr.Confidence, fr.Confidence, s.minConfidence)
	case vr.Invalid() || vr.Failed():
		return c, c.Stage == ""
	default:
		// accept_all, webmail and unknown mailboxes are carried but never counted.
		c.EmailConfidence = min(fr.Confidence, s.minConfidence-10)
	}
	c.Email = fr.Email
	c.EmailMethod = model.EmailPatternVerified
	return c, true
}
