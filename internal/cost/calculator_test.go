package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"haiku":  {Input: 0.80, Output: 4.00},
			"sonnet": {Input: 3.00, Output: 15.00},
		},
		Jina:       JinaRate{PerMTok: 0.02},
		Perplexity: PerplexityRate{PerQuery: 0.005},
		Firecrawl:  FirecrawlRate{PlanMonthly: 19.0, CreditsIncluded: 3000},
		Apollo:     ApolloRate{PerCredit: 0.025},
		Hunter:     HunterRate{PerRequest: 0.0245},
		BrightData: BrightDataRate{PerRequest: 0.0015},
	}
}

func TestClaude(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name   string
		model  string
		input  int
		output int
		want   float64
	}{
		{name: "haiku simple", model: "haiku", input: 1000000, output: 100000, want: 0.80 + 0.40},
		{name: "sonnet", model: "sonnet", input: 1000000, output: 100000, want: 3.00 + 1.50},
		{name: "unknown model returns 0", model: "unknown", input: 1000000, output: 1000000, want: 0},
		{name: "zero tokens returns 0", model: "haiku", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := calc.Claude(tt.model, tt.input, tt.output)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestJina(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name   string
		tokens int
		want   float64
	}{
		{"1M tokens", 1000000, 0.02},
		{"500K tokens", 500000, 0.01},
		{"zero tokens", 0, 0},
		{"small", 2150, 2150.0 / 1e6 * 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := calc.Jina(tt.tokens)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestPerplexityQuery(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())
	assert.InDelta(t, 0.005, calc.PerplexityQuery(), 0.0001)
}

func TestCreditProviders(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	// One search credit plus two enrichment credits.
	assert.InDelta(t, 0.075, calc.Apollo(3), 1e-9)
	assert.InDelta(t, 0.049, calc.Hunter(2), 1e-9)
	assert.InDelta(t, 0.003, calc.BrightData(2), 1e-9)
	assert.InDelta(t, 19.0/3000, calc.Firecrawl(1), 1e-9)
	assert.Zero(t, NewCalculator(Rates{}).Firecrawl(5))
}

func TestRoundCents(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.08, RoundCents(0.075))
	assert.Equal(t, 0.12, RoundCents(0.1249))
	assert.Equal(t, 0.0, RoundCents(0.004))
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	rates := DefaultRates()

	assert.Contains(t, rates.Anthropic, "claude-haiku-4-5-20251001")
	assert.Contains(t, rates.Anthropic, "claude-sonnet-4-5-20250929")
	assert.InDelta(t, 0.02, rates.Jina.PerMTok, 0.001)
	assert.InDelta(t, 0.005, rates.Perplexity.PerQuery, 0.001)
	assert.InDelta(t, 0.025, rates.Apollo.PerCredit, 0.0001)
	assert.InDelta(t, 0.0245, rates.Hunter.PerRequest, 0.0001)
}
