package waterfall

import (
	"context"
	"sort"

	"github.com/sells-group/course-intel/internal/contact"
	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/internal/provider"
)

// Request identifies the course whose decision-makers are wanted.
type Request struct {
	CourseName string
	City       string
	State      string
	Domain     string
	Titles     []string
}

// Stage is one source in the cascade. Run receives the contacts accepted so
// far and returns its own contribution; it never returns a Go error.
type Stage interface {
	Name() model.Source
	Configured() bool
	Run(ctx context.Context, req Request, accepted []model.Contact) provider.ContactsResult
}

// Advance decides, after a stage, whether the cascade moves to the next
// stage given the contacts accepted so far.
type Advance func(accepted []model.Contact) bool

// Step pairs a stage with the predicate evaluated after it runs.
type Step struct {
	Stage   Stage
	Advance Advance
}

// BelowThreshold advances while fewer than threshold accepted contacts carry
// an email with at least minConfidence.
func BelowThreshold(threshold, minConfidence int) Advance {
	return func(accepted []model.Contact) bool {
		return Counted(accepted, minConfidence) < threshold
	}
}

// Counted returns how many contacts count toward a success threshold.
func Counted(contacts []model.Contact, minConfidence int) int {
	n := 0
	for _, c := range contacts {
		if c.Counts(minConfidence) {
			n++
		}
	}
	return n
}

// StageReport records what one stage did.
type StageReport struct {
	Stage    model.Source `json:"stage"`
	Skipped  string       `json:"skipped,omitempty"`
	Returned int          `json:"returned"`
	Accepted int          `json:"accepted"`
	Rejected int          `json:"rejected"`
	CostUSD  float64      `json:"cost_usd"`
	Credits  int          `json:"credits_used"`
	Error    string       `json:"error,omitempty"`
}

// Result is the outcome of one waterfall run.
type Result struct {
	Contacts    []model.Contact     `json:"contacts"`
	SourcesUsed []model.Source      `json:"sources_used"`
	Rejected    []contact.Rejection `json:"rejected,omitempty"`
	Stages      []StageReport       `json:"stages"`
	Usage       []model.Usage       `json:"usage"`
}

// CostUSD sums the cost of every provider call made by the run.
func (r *Result) CostUSD() float64 {
	var total float64
	for _, u := range r.Usage {
		total += u.CostUSD
	}
	return total
}

// CreditsUsed sums provider credits spent by the run.
func (r *Result) CreditsUsed() int {
	var n int
	for _, u := range r.Usage {
		n += u.Credits
	}
	return n
}

// CostBreakdown returns cost per provider.
func (r *Result) CostBreakdown() map[string]float64 {
	out := make(map[string]float64)
	for _, u := range r.Usage {
		out[u.Provider] += u.CostUSD
	}
	return out
}

// sourcesUsed lists, in cascade order, the stages that produced at least one
// final contact.
func sourcesUsed(contacts []model.Contact, order []model.Source) []model.Source {
	seen := make(map[model.Source]bool)
	for _, c := range contacts {
		seen[c.Stage] = true
	}
	out := make([]model.Source, 0, len(seen))
	for _, s := range order {
		if seen[s] {
			out = append(out, s)
		}
	}
	return out
}

// capContacts keeps at most max contacts. Contacts holding a target title are
// kept before the rest; the relative order of each group is preserved.
func capContacts(contacts []model.Contact, titles []string, max int) []model.Contact {
	if max <= 0 || len(contacts) <= max {
		return contacts
	}
	out := append([]model.Contact(nil), contacts...)
	sort.SliceStable(out, func(i, j int) bool {
		ti := model.TitlePriority(out[i].Title, titles) < len(titles)
		tj := model.TitlePriority(out[j].Title, titles) < len(titles)
		return ti && !tj
	})
	return out[:max]
}
