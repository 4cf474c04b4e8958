// Package validate checks a synthesized document before it is persisted.
// CRITICAL checks fail the run; QUALITY checks only add flags.
package validate

import (
	"fmt"
	"strings"

	"github.com/sells-group/course-intel/internal/model"
)

// Quality flags.
const (
	FlagLowTierConfidence  = "LOW_TIER_CONFIDENCE"
	FlagNoContactsFound    = "NO_CONTACTS_FOUND"
	FlagNoContactMethods   = "NO_CONTACT_METHODS"
	FlagNoVolumeData       = "NO_VOLUME_DATA"
	FlagLowEmailConfidence = "LOW_EMAIL_CONFIDENCE"
)

const (
	// MinTierConfidence is the CRITICAL floor on section1.tier_confidence.
	MinTierConfidence = 0.5
	// GoodTierConfidence is the confidence below which LOW_TIER_CONFIDENCE is raised.
	GoodTierConfidence = 0.7
)

// Report is the validation outcome.
type Report struct {
	OK    bool     `json:"ok"`
	Error string   `json:"error,omitempty"`
	Flags []string `json:"flags"`
}

// Validator holds the thresholds for the quality pass.
type Validator struct {
	minEmailConfidence int
}

// New creates a validator. Contacts carrying an email below
// minEmailConfidence raise LOW_EMAIL_CONFIDENCE.
func New(minEmailConfidence int) *Validator {
	if minEmailConfidence <= 0 {
		minEmailConfidence = model.MinCountedConfidence
	}
	return &Validator{minEmailConfidence: minEmailConfidence}
}

// Validate runs the CRITICAL checks, stopping at the first failure, then
// collects every QUALITY flag. Flags is never nil.
func (v *Validator) Validate(doc *model.CanonicalJSON) Report {
	if err := critical(doc); err != "" {
		return Report{Error: err, Flags: []string{}}
	}
	return Report{OK: true, Flags: v.quality(doc)}
}

func critical(doc *model.CanonicalJSON) string {
	if missing := doc.MissingSections(); len(missing) > 0 {
		return "missing sections: " + strings.Join(missing, ", ")
	}
	if !doc.Section1.Tier.Valid() {
		return fmt.Sprintf("invalid tier %q: must be Premium, Mid or Budget", doc.Section1.Tier)
	}
	if doc.Section1.TierConfidence < MinTierConfidence {
		return fmt.Sprintf("tier confidence %.2f below minimum %.2f", doc.Section1.TierConfidence, MinTierConfidence)
	}
	return ""
}

func (v *Validator) quality(doc *model.CanonicalJSON) []string {
	flags := []string{}

	if doc.Section1.TierConfidence < GoodTierConfidence {
		flags = append(flags, FlagLowTierConfidence)
	}

	if len(doc.Section4) == 0 {
		flags = append(flags, FlagNoContactsFound)
	} else {
		reachable, low := false, false
		for _, c := range doc.Section4 {
			reachable = reachable || c.HasContactMethod()
			low = low || c.LowConfidence(v.minEmailConfidence)
		}
		if !reachable {
			flags = append(flags, FlagNoContactMethods)
		}
		if low {
			flags = append(flags, FlagLowEmailConfidence)
		}
	}

	if doc.Section3.Estimate == nil {
		flags = append(flags, FlagNoVolumeData)
	}
	return flags
}
