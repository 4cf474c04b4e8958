// Package provider wraps the external research services behind typed
// adapters. Adapters never return Go errors: a failed call yields an empty
// normalized result carrying Error and whatever usage was spent.
package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/course-intel/internal/cost"
	"github.com/sells-group/course-intel/internal/model"
)

// DefaultTimeout bounds every outbound adapter call.
const DefaultTimeout = 30 * time.Second

// Meta is embedded in every normalized result.
type Meta struct {
	Usage []model.Usage `json:"usage,omitempty"`
	Error string        `json:"error,omitempty"`
}

// charge records u when it is non-empty.
func (m *Meta) charge(u model.Usage) {
	if u.Calls == 0 && u.CostUSD == 0 && u.Credits == 0 && !u.CreditConsumed {
		return
	}
	m.Usage = append(m.Usage, u)
}

// merge folds another result's usage into m. The first error wins.
func (m *Meta) merge(o Meta) {
	m.Usage = append(m.Usage, o.Usage...)
	if m.Error == "" {
		m.Error = o.Error
	}
}

// CostUSD sums the cost of every call behind the result.
func (m Meta) CostUSD() float64 {
	var total float64
	for _, u := range m.Usage {
		total += u.CostUSD
	}
	return total
}

// Credits sums provider credits spent behind the result.
func (m Meta) Credits() int {
	var n int
	for _, u := range m.Usage {
		n += u.Credits
	}
	return n
}

// CreditConsumed reports whether any call spent a credit, including calls
// that returned nothing.
func (m Meta) CreditConsumed() bool {
	for _, u := range m.Usage {
		if u.CreditConsumed {
			return true
		}
	}
	return false
}

// Failed reports whether the call surfaced an error.
func (m Meta) Failed() bool { return m.Error != "" }

// Options are shared by every adapter.
type Options struct {
	Timeout time.Duration
	Calc    *cost.Calculator
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Calc == nil {
		o.Calc = cost.NewCalculator(cost.DefaultRates())
	}
	return o
}

// call runs fn under the adapter timeout.
func (o Options) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()
	return fn(ctx)
}

// fail logs a provider error at the adapter boundary and returns its message.
func fail(provider, op string, err error) string {
	zap.L().Warn("provider: call failed",
		zap.String("provider", provider),
		zap.String("op", op),
		zap.Error(err),
	)
	return provider + ": " + op + ": " + err.Error()
}

// notConfigured is the Error text for adapters without credentials.
func notConfigured(provider string) string {
	return provider + ": not configured"
}
