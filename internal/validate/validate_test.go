package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/course-intel/internal/model"
)

func doc(tier model.Tier, conf float64, contacts ...model.Contact) *model.CanonicalJSON {
	rounds := 30000
	if contacts == nil {
		contacts = []model.Contact{}
	}
	return &model.CanonicalJSON{
		Section1: &model.TierSection{Tier: tier, TierConfidence: conf, TierEvidence: []string{"$65 weekend"}},
		Section2: &model.WaterHazardSection{Rating: model.WaterModerate},
		Section3: &model.VolumeSection{Estimate: &rounds},
		Section4: contacts,
		Section5: &model.IntelligenceSection{},
	}
}

var verifiedContact = model.Contact{Name: "Amy", Title: "General Manager", Email: "amy@club.com", EmailConfidence: 95}

func TestValidate_Clean(t *testing.T) {
	t.Parallel()
	r := New(90).Validate(doc(model.TierMid, 0.85, verifiedContact))
	assert.True(t, r.OK)
	assert.Empty(t, r.Error)
	assert.NotNil(t, r.Flags)
	assert.Empty(t, r.Flags)
}

func TestValidate_Critical(t *testing.T) {
	t.Parallel()

	missing := doc(model.TierMid, 0.9)
	missing.Section2 = nil
	missing.Section5 = nil

	tests := []struct {
		name string
		doc  *model.CanonicalJSON
		want string
	}{
		{"nil doc", nil, "missing sections: section1, section2, section3, section4, section5"},
		{"missing sections", missing, "missing sections: section2, section5"},
		{"bad tier", doc(model.Tier("Luxury"), 0.9), `invalid tier "Luxury"`},
		{"empty tier", doc("", 0.9), `invalid tier ""`},
		{"low confidence", doc(model.TierMid, 0.4), "tier confidence 0.40 below minimum 0.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := New(90).Validate(tt.doc)
			assert.False(t, r.OK)
			assert.Contains(t, r.Error, tt.want)
			assert.NotNil(t, r.Flags)
		})
	}
}

func TestValidate_BoundaryConfidence(t *testing.T) {
	t.Parallel()
	r := New(90).Validate(doc(model.TierBudget, 0.5, verifiedContact))
	require.True(t, r.OK)
	assert.Equal(t, []string{FlagLowTierConfidence}, r.Flags)

	r = New(90).Validate(doc(model.TierBudget, 0.7, verifiedContact))
	assert.Empty(t, r.Flags)
}

func TestValidate_QualityFlags(t *testing.T) {
	t.Parallel()

	t.Run("no contacts", func(t *testing.T) {
		r := New(90).Validate(doc(model.TierPremium, 0.9))
		assert.Equal(t, []string{FlagNoContactsFound}, r.Flags)
	})

	t.Run("linkedin counts as a method", func(t *testing.T) {
		d := doc(model.TierMid, 0.6, model.Contact{Name: "Tom", LinkedInURL: "https://linkedin.com/in/tom"})
		d.Section3.Estimate = nil
		r := New(90).Validate(d)
		assert.True(t, r.OK)
		assert.Contains(t, r.Flags, FlagLowTierConfidence)
		assert.Contains(t, r.Flags, FlagNoVolumeData)
		assert.NotContains(t, r.Flags, FlagNoContactMethods)
	})

	t.Run("names only", func(t *testing.T) {
		r := New(90).Validate(doc(model.TierMid, 0.9, model.Contact{Name: "Tom", Phone: "555-0100"}))
		assert.Equal(t, []string{FlagNoContactMethods}, r.Flags)
	})

	t.Run("low email confidence", func(t *testing.T) {
		low := verifiedContact
		low.EmailConfidence = 89
		r := New(90).Validate(doc(model.TierMid, 0.9, low))
		assert.Equal(t, []string{FlagLowEmailConfidence}, r.Flags)
	})

	t.Run("missing water data and evidence raise nothing", func(t *testing.T) {
		d := doc(model.TierMid, 0.9, verifiedContact)
		d.Section2 = &model.WaterHazardSection{}
		d.Section1.TierEvidence = nil
		r := New(90).Validate(d)
		assert.True(t, r.OK)
		assert.Empty(t, r.Flags)
	})
}
