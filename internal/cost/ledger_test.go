package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/course-intel/internal/model"
)

func TestLedgerTotals(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	l.Record(model.Usage{Provider: "apollo", CostUSD: 0.025, Credits: 1, CreditConsumed: true, Calls: 1})
	l.Record(model.Usage{Provider: "apollo", CostUSD: 0.05, Credits: 2, Calls: 1})
	l.Record(model.Usage{Provider: "hunter", CostUSD: 0.0245, Calls: 1})
	l.Record(model.Usage{}) // ignored

	assert.Equal(t, 0.1, l.TotalUSD())
	assert.Equal(t, 3, l.Credits())

	by := l.ByProvider()
	if assert.Len(t, by, 2) {
		assert.Equal(t, "apollo", by[0].Provider)
		assert.Equal(t, 2, by[0].Calls)
		assert.Equal(t, 3, by[0].Credits)
		assert.Equal(t, "hunter", by[1].Provider)
	}
}

func TestLedgerZeroResultSearchStillCounts(t *testing.T) {
	t.Parallel()
	l := NewLedger()
	l.Record(model.Usage{Provider: "apollo", Credits: 1, CreditConsumed: true})
	assert.Equal(t, 1, l.Credits())
}

func TestLedgerConcurrentRecord(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.RecordAll([]model.Usage{{Provider: "jina", CostUSD: 0.01, Calls: 1}})
		}()
	}
	wg.Wait()

	assert.Equal(t, 0.5, l.TotalUSD())
}
