package model

// Usage is the cost accounting tuple every provider call reports.
// CreditConsumed is set when a call spent a credit, even if it returned nothing.
type Usage struct {
	Provider       string  `json:"provider"`
	CostUSD        float64 `json:"cost_usd"`
	Credits        int     `json:"credits_used,omitempty"`
	CreditConsumed bool    `json:"credit_consumed,omitempty"`
	Calls          int     `json:"calls"`
}

// Add folds o into u. The provider name of u wins when both are set.
func (u *Usage) Add(o Usage) {
	if u.Provider == "" {
		u.Provider = o.Provider
	}
	u.CostUSD += o.CostUSD
	u.Credits += o.Credits
	u.CreditConsumed = u.CreditConsumed || o.CreditConsumed
	u.Calls += o.Calls
}
