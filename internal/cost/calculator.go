package cost

import "math"

// Rates holds per-provider pricing configuration.
type Rates struct {
	Anthropic  map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
	Jina       JinaRate             `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityRate       `yaml:"perplexity" mapstructure:"perplexity"`
	Firecrawl  FirecrawlRate        `yaml:"firecrawl" mapstructure:"firecrawl"`
	Apollo     ApolloRate           `yaml:"apollo" mapstructure:"apollo"`
	Hunter     HunterRate           `yaml:"hunter" mapstructure:"hunter"`
	BrightData BrightDataRate       `yaml:"brightdata" mapstructure:"brightdata"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// JinaRate holds Jina Reader pricing.
type JinaRate struct {
	PerMTok float64 `yaml:"per_mtok" mapstructure:"per_mtok"`
}

// PerplexityRate holds Perplexity pricing.
type PerplexityRate struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
}

// FirecrawlRate holds Firecrawl pricing.
type FirecrawlRate struct {
	PlanMonthly     float64 `yaml:"plan_monthly" mapstructure:"plan_monthly"`
	CreditsIncluded float64 `yaml:"credits_included" mapstructure:"credits_included"`
}

// ApolloRate converts Apollo credits to dollars.
type ApolloRate struct {
	PerCredit float64 `yaml:"per_credit" mapstructure:"per_credit"`
}

// HunterRate holds Hunter per-request pricing.
type HunterRate struct {
	PerRequest float64 `yaml:"per_request" mapstructure:"per_request"`
}

// BrightDataRate holds Bright Data per-request pricing.
type BrightDataRate struct {
	PerRequest float64 `yaml:"per_request" mapstructure:"per_request"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude computes the cost for a single Claude API call.
func (c *Calculator) Claude(model string, input, output int) float64 {
	rate, ok := c.rates.Anthropic[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Jina computes the cost for Jina Reader token usage.
func (c *Calculator) Jina(tokens int) float64 {
	return (float64(tokens) / 1e6) * c.rates.Jina.PerMTok
}

// PerplexityQuery returns the flat cost per Perplexity query.
func (c *Calculator) PerplexityQuery() float64 {
	return c.rates.Perplexity.PerQuery
}

// Firecrawl computes the amortized plan cost of the given credits.
func (c *Calculator) Firecrawl(credits int) float64 {
	if c.rates.Firecrawl.CreditsIncluded <= 0 {
		return 0
	}
	return float64(credits) * c.rates.Firecrawl.PlanMonthly / c.rates.Firecrawl.CreditsIncluded
}

// Apollo converts Apollo credits to dollars.
func (c *Calculator) Apollo(credits int) float64 {
	return float64(credits) * c.rates.Apollo.PerCredit
}

// Hunter computes the cost of the given number of Hunter requests.
func (c *Calculator) Hunter(requests int) float64 {
	return float64(requests) * c.rates.Hunter.PerRequest
}

// BrightData computes the cost of the given number of Bright Data requests.
func (c *Calculator) BrightData(requests int) float64 {
	return float64(requests) * c.rates.BrightData.PerRequest
}

// RoundCents rounds a dollar amount to cent precision.
func RoundCents(usd float64) float64 {
	return math.Round(usd*100) / 100
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
		Jina:       JinaRate{PerMTok: 0.02},
		Perplexity: PerplexityRate{PerQuery: 0.005},
		Firecrawl:  FirecrawlRate{PlanMonthly: 19.00, CreditsIncluded: 3000},
		Apollo:     ApolloRate{PerCredit: 0.025},
		Hunter:     HunterRate{PerRequest: 0.0245},
		BrightData: BrightDataRate{PerRequest: 0.0015},
	}
}
