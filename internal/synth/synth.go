// Package synth merges waterfall contacts and course intel into the
// five-section canonical document. It does no I/O and drops nothing.
package synth

import (
	"sort"

	"github.com/sells-group/course-intel/internal/model"
)

// Input is everything the synthesizer merges.
type Input struct {
	Intel    model.CourseIntel
	Contacts []model.Contact
	// Titles orders section4; defaults to the decision-maker titles.
	Titles []string
	// TierSource is the URL backing the tier fields, when known.
	TierSource string
}

// Synthesize builds the canonical document. Every section is present even
// when its fields are empty.
func Synthesize(in Input) *model.CanonicalJSON {
	titles := in.Titles
	if len(titles) == 0 {
		titles = model.DecisionMakerTitles
	}
	intel := in.Intel

	return &model.CanonicalJSON{
		Section1: &model.TierSection{
			Tier:           intel.Tier,
			TierConfidence: intel.TierConfidence,
			TierEvidence:   nonNil(intel.TierEvidence),
			Source:         in.TierSource,
		},
		Section2: &model.WaterHazardSection{
			Count:           intel.WaterHazardCount,
			Rating:          intel.WaterHazardRating,
			Source:          intel.WaterHazardSource,
			Confidence:      intel.WaterHazardConfidence,
			HasWaterHazards: HasWaterHazards(intel.WaterHazardCount, intel.WaterHazardRating),
		},
		Section3: &model.VolumeSection{
			Estimate:   intel.AnnualRoundsEstimate,
			Range:      intel.AnnualRoundsRange,
			Confidence: intel.AnnualRoundsConfidence,
		},
		Section4: OrderContacts(in.Contacts, titles),
		Section5: &model.IntelligenceSection{
			Ownership:      intel.Intel.Ownership,
			RecentChanges:  nonNil(intel.Intel.RecentChanges),
			VendorMentions: nonNil(intel.Intel.VendorMentions),
			Website:        intel.Intel.Website,
		},
	}
}

// HasWaterHazards is count > 0 when the count is known, otherwise whether
// the rating is moderate or heavy.
func HasWaterHazards(count *int, rating model.WaterRating) bool {
	if count != nil {
		return *count > 0
	}
	return rating == model.WaterModerate || rating == model.WaterHeavy
}

// OrderContacts sorts a copy of contacts by target-title priority, then email
// confidence descending. Ties keep provider order.
func OrderContacts(contacts []model.Contact, titles []string) []model.Contact {
	out := make([]model.Contact, len(contacts))
	copy(out, contacts)
	for i := range out {
		if out[i].PreviousClubs == nil {
			out[i].PreviousClubs = []model.PreviousClub{}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := model.TitlePriority(out[i].Title, titles), model.TitlePriority(out[j].Title, titles)
		if pi != pj {
			return pi < pj
		}
		return out[i].EmailConfidence > out[j].EmailConfidence
	})
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
