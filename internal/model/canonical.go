package model

import "encoding/json"

// CanonicalJSON is the five-section synthesized artifact persisted verbatim
// in v2_research_json. A nil section means the section is missing.
type CanonicalJSON struct {
	Section1 *TierSection         `json:"section1"`
	Section2 *WaterHazardSection  `json:"section2"`
	Section3 *VolumeSection       `json:"section3"`
	Section4 []Contact            `json:"section4"`
	Section5 *IntelligenceSection `json:"section5"`
}

// TierSection is section1.
type TierSection struct {
	Tier           Tier     `json:"tier"`
	TierConfidence float64  `json:"tier_confidence"`
	TierEvidence   []string `json:"tier_evidence"`
	Source         string   `json:"source,omitempty"`
}

// WaterHazardSection is section2.
type WaterHazardSection struct {
	Count           *int        `json:"count,omitempty"`
	Rating          WaterRating `json:"rating,omitempty"`
	Source          string      `json:"source,omitempty"`
	Confidence      float64     `json:"confidence"`
	HasWaterHazards bool        `json:"has_water_hazards"`
}

// VolumeSection is section3.
type VolumeSection struct {
	Estimate   *int    `json:"estimate,omitempty"`
	Range      string  `json:"range,omitempty"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// IntelligenceSection is section5.
type IntelligenceSection struct {
	Ownership      string   `json:"ownership,omitempty"`
	RecentChanges  []string `json:"recent_changes"`
	VendorMentions []string `json:"vendor_mentions"`
	Website        string   `json:"website,omitempty"`
}

// MissingSections returns the names of absent sections in document order.
func (c *CanonicalJSON) MissingSections() []string {
	if c == nil {
		return []string{"section1", "section2", "section3", "section4", "section5"}
	}
	var missing []string
	if c.Section1 == nil {
		missing = append(missing, "section1")
	}
	if c.Section2 == nil {
		missing = append(missing, "section2")
	}
	if c.Section3 == nil {
		missing = append(missing, "section3")
	}
	if c.Section4 == nil {
		missing = append(missing, "section4")
	}
	if c.Section5 == nil {
		missing = append(missing, "section5")
	}
	return missing
}

// Marshal encodes the document for persistence. A nil document encodes as "{}".
func (c *CanonicalJSON) Marshal() (json.RawMessage, error) {
	if c == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(c)
}
