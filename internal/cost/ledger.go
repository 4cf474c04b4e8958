package cost

import (
	"sort"
	"sync"

	"github.com/sells-group/course-intel/internal/model"
)

// Ledger accumulates provider usage for a single run. It is safe for
// concurrent use, though a run normally records serially.
type Ledger struct {
	mu      sync.Mutex
	entries []model.Usage
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Record appends one usage tuple. Zero-value usage is ignored.
func (l *Ledger) Record(u model.Usage) {
	if u.Calls == 0 && u.CostUSD == 0 && u.Credits == 0 && !u.CreditConsumed {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, u)
}

// RecordAll appends every usage tuple in us.
func (l *Ledger) RecordAll(us []model.Usage) {
	for _, u := range us {
		l.Record(u)
	}
}

// TotalUSD returns the summed cost rounded to cents.
func (l *Ledger) TotalUSD() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total float64
	for _, e := range l.entries {
		total += e.CostUSD
	}
	return RoundCents(total)
}

// Credits returns the summed provider credits.
func (l *Ledger) Credits() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int
	for _, e := range l.entries {
		n += e.Credits
	}
	return n
}

// ByProvider returns usage folded per provider, sorted by provider name.
func (l *Ledger) ByProvider() []model.Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := make(map[string]int)
	var out []model.Usage
	for _, e := range l.entries {
		i, ok := idx[e.Provider]
		if !ok {
			idx[e.Provider] = len(out)
			out = append(out, model.Usage{Provider: e.Provider})
			i = len(out) - 1
		}
		out[i].Add(e)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Provider < out[b].Provider })
	return out
}
