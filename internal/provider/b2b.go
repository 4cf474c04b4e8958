package provider

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/pkg/apollo"
)

// Apollo credit prices.
const (
	apolloSearchCredits = 1
	apolloMatchCredits  = 2
)

// Email confidence assigned to Apollo email statuses. Other statuses are dropped.
var apolloStatusConfidence = map[string]int{
	apollo.EmailStatusVerified: 95,
	apollo.EmailStatusLikely:   75,
}

// B2B adapts the Apollo people search and match endpoints.
type B2B struct {
	client apollo.Client
	opts   Options
}

// NewB2B creates the B2B adapter. A nil client leaves it unconfigured.
func NewB2B(client apollo.Client, opts Options) *B2B {
	return &B2B{client: client, opts: opts.withDefaults()}
}

// Configured reports whether the adapter has a client.
func (b *B2B) Configured() bool { return b != nil && b.client != nil }

// SearchEnrich issues one filtered search per title, keyed on domain and
// falling back to the course name when the domain search returns nobody,
// then enriches the best match to unlock the email. Only people whose email
// status is verified or likely are returned.
func (b *B2B) SearchEnrich(ctx context.Context, courseName, domain, state string, titles []string) ContactsResult {
	var res ContactsResult
	if !b.Configured() {
		res.Error = notConfigured("apollo")
		return res
	}

	log := zap.L().With(zap.String("course", courseName), zap.String("provider", "apollo"))
	matched := make(map[string]bool)
	location := StateName(state)

	for _, title := range titles {
		if ctx.Err() != nil {
			break
		}

		var people []apollo.Person
		if domain != "" {
			people = b.search(ctx, &res, apollo.PeopleSearchRequest{
				OrganizationDomains: []string{domain},
				PersonTitles:        []string{title},
				PerPage:             5,
			})
		}
		if len(people) == 0 {
			people = b.search(ctx, &res, apollo.PeopleSearchRequest{
				Keywords:        courseName,
				PersonTitles:    []string{title},
				PersonLocations: []string{location + ", US"},
				PerPage:         5,
			})
		}

		best := bestMatch(people, title)
		if best == nil || matched[best.ID] {
			continue
		}
		matched[best.ID] = true

		person := b.match(ctx, &res, best.ID)
		if person == nil {
			continue
		}
		c, ok := apolloContact(person)
		if !ok {
			log.Debug("b2b: dropping person without usable email",
				zap.String("person_id", person.ID),
				zap.String("email_status", person.EmailStatus),
			)
			continue
		}
		res.Contacts = append(res.Contacts, c)
	}
	if len(res.Contacts) > 0 {
		res.Error = ""
	}
	return res
}

func (b *B2B) search(ctx context.Context, res *ContactsResult, req apollo.PeopleSearchRequest) []apollo.Person {
	var resp *apollo.PeopleSearchResponse
	err := b.opts.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = b.client.SearchPeople(ctx, req)
		return err
	})
	// A search spends its credit even when it matches nobody.
	res.charge(b.usage(apolloSearchCredits))
	if err != nil {
		res.Error = fail("apollo", "search", err)
		return nil
	}
	return resp.People
}

func (b *B2B) match(ctx context.Context, res *ContactsResult, id string) *apollo.Person {
	var resp *apollo.MatchResponse
	err := b.opts.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = b.client.MatchPerson(ctx, apollo.MatchRequest{ID: id})
		return err
	})
	res.charge(b.usage(apolloMatchCredits))
	if err != nil {
		res.Error = fail("apollo", "match", err)
		return nil
	}
	return resp.Person
}

func (b *B2B) usage(credits int) model.Usage {
	return model.Usage{
		Provider:       "apollo",
		CostUSD:        b.opts.Calc.Apollo(credits),
		Credits:        credits,
		CreditConsumed: true,
		Calls:          1,
	}
}

// bestMatch prefers the first person whose title contains the target title,
// then the first person returned.
func bestMatch(people []apollo.Person, title string) *apollo.Person {
	if len(people) == 0 {
		return nil
	}
	want := strings.ToLower(title)
	for i := range people {
		if people[i].ID != "" && strings.Contains(strings.ToLower(people[i].Title), want) {
			return &people[i]
		}
	}
	for i := range people {
		if people[i].ID != "" {
			return &people[i]
		}
	}
	return nil
}

func apolloContact(p *apollo.Person) (model.Contact, bool) {
	conf, ok := apolloStatusConfidence[p.EmailStatus]
	if !ok || strings.TrimSpace(p.Email) == "" {
		return model.Contact{}, false
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = strings.TrimSpace(p.FirstName + " " + p.LastName)
	}

	c := model.Contact{
		Name:            name,
		Title:           p.Title,
		Email:           strings.ToLower(strings.TrimSpace(p.Email)),
		EmailConfidence: conf,
		EmailMethod:     model.EmailVerifiedB2B,
		LinkedInURL:     p.LinkedInURL,
		PreviousClubs:   []model.PreviousClub{},
		Source:          "apollo",
		PersonID:        p.ID,
	}
	if c.LinkedInURL != "" {
		c.LinkedInMethod = "b2b"
	}
	if len(p.PhoneNumbers) > 0 {
		c.Phone = p.PhoneNumbers[0].SanitizedNumber
		if c.Phone == "" {
			c.Phone = p.PhoneNumbers[0].RawNumber
		}
	}

	for _, e := range p.EmploymentHistory {
		if e.Current && c.TenureStartDate == "" {
			c.TenureStartDate = e.StartDate
			if years, ok := tenureYears(e.StartDate, time.Now()); ok {
				c.TenureYears = &years
			}
			continue
		}
		if !e.Current && len(c.PreviousClubs) < 3 {
			c.PreviousClubs = append(c.PreviousClubs, model.PreviousClub{
				Name:      e.OrganizationName,
				Title:     e.Title,
				StartDate: e.StartDate,
				EndDate:   e.EndDate,
			})
		}
	}
	return c, true
}

// tenureYears returns whole-month tenure in years, rounded to one decimal.
func tenureYears(start string, now time.Time) (float64, bool) {
	if start == "" {
		return 0, false
	}
	var t time.Time
	var err error
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err = time.Parse(layout, start); err == nil {
			break
		}
	}
	if err != nil || t.After(now) {
		return 0, false
	}
	months := (now.Year()-t.Year())*12 + int(now.Month()-t.Month())
	years := float64(months) / 12
	return float64(int(years*10+0.5)) / 10, true
}
