package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Tier is the pricing/positioning class of a golf course.
type Tier string

const (
	TierPremium Tier = "Premium"
	TierMid     Tier = "Mid"
	TierBudget  Tier = "Budget"
)

// Valid reports whether t is one of the three enumerated tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierPremium, TierMid, TierBudget:
		return true
	}
	return false
}

// ParseTier normalizes free-form classifier output ("premium", " MID ") to a Tier.
// Unknown values are returned unchanged so validation can reject them.
func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "premium":
		return TierPremium
	case "mid", "mid-tier", "midrange", "mid-range":
		return TierMid
	case "budget", "value":
		return TierBudget
	}
	return Tier(strings.TrimSpace(s))
}

// WaterRating is the qualitative water-hazard rating from the fee/hazard database.
type WaterRating string

const (
	WaterScarce   WaterRating = "scarce"
	WaterModerate WaterRating = "moderate"
	WaterHeavy    WaterRating = "heavy"
)

// ParseWaterRating returns the rating for s, or "" when s is not a known rating.
func ParseWaterRating(s string) WaterRating {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scarce", "minimal", "none", "low":
		return WaterScarce
	case "moderate", "some", "medium":
		return WaterModerate
	case "heavy", "lots", "extensive", "high":
		return WaterHeavy
	}
	return ""
}

// MaxHoles bounds water-hazard hole counts.
const MaxHoles = 18

// CourseIdentity is the primary key material for one enrichment run.
type CourseIdentity struct {
	Name      string `json:"course_name"`
	City      string `json:"city,omitempty"`
	StateCode string `json:"state_code"`
	CourseID  *int64 `json:"course_id,omitempty"`
	Domain    string `json:"domain,omitempty"`
}

// CourseIntel holds tier, water-hazard, volume and free-form intelligence for a course.
type CourseIntel struct {
	Tier           Tier     `json:"tier"`
	TierConfidence float64  `json:"tier_confidence"`
	TierEvidence   []string `json:"tier_evidence"`

	WaterHazardRating     WaterRating `json:"water_hazard_rating,omitempty"`
	WaterHazardCount      *int        `json:"water_hazard_count,omitempty"`
	WaterHazardSource     string      `json:"water_hazard_source,omitempty"`
	WaterHazardConfidence float64     `json:"water_hazard_confidence"`

	AnnualRoundsEstimate   *int    `json:"annual_rounds_estimate,omitempty"`
	AnnualRoundsRange      string  `json:"annual_rounds_range,omitempty"`
	AnnualRoundsConfidence float64 `json:"annual_rounds_confidence"`

	Intel Intelligence `json:"intel"`
}

// Intelligence is the free-form section of course intel.
type Intelligence struct {
	Ownership      string   `json:"ownership,omitempty"`
	RecentChanges  []string `json:"recent_changes"`
	VendorMentions []string `json:"vendor_mentions"`
	Website        string   `json:"website,omitempty"`
	Sources        []string `json:"sources,omitempty"`
}

// EnrichmentStatus values stored on the course row.
const (
	EnrichmentStatusComplete = "complete"
)

// CourseRecord is the persisted course row.
type CourseRecord struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"course_name"`
	City      string `json:"city"`
	StateCode string `json:"state_code"`
	Website   string `json:"website"`

	Tier                  string          `json:"tier"`
	TierConfidence        float64         `json:"tier_confidence"`
	WaterHazardRating     string          `json:"water_hazard_rating"`
	WaterHazardCount      *int            `json:"water_hazard_count"`
	AnnualRoundsEstimate  *int            `json:"annual_rounds_estimate"`
	AnnualRoundsRange     string          `json:"annual_rounds_range"`
	Ownership             string          `json:"ownership"`
	ResearchJSON          json.RawMessage `json:"v2_research_json"`
	ValidationFlags       []string        `json:"v2_validation_flags"`
	EnrichmentStatus      string          `json:"enrichment_status"`
	EnrichmentCompletedAt *time.Time      `json:"enrichment_completed_at"`
	EnrichmentCostUSD     float64         `json:"enrichment_cost_usd"`
	EnrichmentCreditsUsed int             `json:"enrichment_credits_used"`
	EnrichmentSources     []string        `json:"enrichment_sources"`
}
