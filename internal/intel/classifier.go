package intel

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/internal/provider"
)

const classifierSystem = `You classify US golf courses for a sales team. Use only the evidence provided.
Reply with a single JSON object and nothing else.`

const classifierPrompt = `Course: %s (%s)
Website: %s

Classify the course tier from fees and positioning:
- Premium: private clubs with initiation fees, resort or destination courses, weekend green fees above $100.
- Mid: semi-private or upscale daily-fee courses, weekend green fees roughly $50-$100.
- Budget: municipal or value daily-fee courses, weekend green fees under $50.

Estimate annual rounds played when the evidence allows (typical 18-hole public course: 25,000-40,000).

Return:
{"tier":"Premium|Mid|Budget","tier_confidence":0.0,"tier_evidence":["quoted or paraphrased fact with its source"],
 "annual_rounds_estimate":null,"annual_rounds_range":"","annual_rounds_confidence":0.0,
 "water_hazard_rating":"","ownership":"","recent_changes":[],"vendor_mentions":[]}
Confidences are between 0 and 1. Every tier_evidence entry must come from the evidence below.

Evidence:
%s`

// maxEvidenceChars bounds the evidence passed to the classifier.
const maxEvidenceChars = 24000

type classification struct {
	Tier                   string   `json:"tier"`
	TierConfidence         float64  `json:"tier_confidence"`
	TierEvidence           []string `json:"tier_evidence"`
	AnnualRoundsEstimate   *int     `json:"annual_rounds_estimate"`
	AnnualRoundsRange      string   `json:"annual_rounds_range"`
	AnnualRoundsConfidence float64  `json:"annual_rounds_confidence"`
	WaterHazardRating      string   `json:"water_hazard_rating"`
	Ownership              string   `json:"ownership"`
	RecentChanges          []string `json:"recent_changes"`
	VendorMentions         []string `json:"vendor_mentions"`
}

type evidence struct {
	pageURL   string
	page      string
	feeLines  []string
	research  string
	citations []string
}

func (e evidence) empty() bool {
	return strings.TrimSpace(e.page) == "" && strings.TrimSpace(e.research) == ""
}

func (e evidence) String() string {
	var b strings.Builder
	if e.page != "" {
		fmt.Fprintf(&b, "## Course database page (%s)\n", e.pageURL)
		if len(e.feeLines) > 0 {
			b.WriteString("Fee lines:\n")
			for _, l := range e.feeLines {
				b.WriteString("- " + l + "\n")
			}
		}
		b.WriteString(e.page)
		b.WriteString("\n\n")
	}
	if e.research != "" {
		b.WriteString("## Research notes\n")
		b.WriteString(e.research)
		b.WriteString("\n")
		for i, c := range e.citations {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, c)
		}
	}
	return provider.ClipText(b.String(), maxEvidenceChars)
}

// classify runs the single-shot tier classifier. It returns false when the
// model could not be called or replied with unusable JSON.
func (c *Collector) classify(ctx context.Context, meta *provider.Meta, req Request, ev evidence) (classification, bool) {
	var out classification
	where := provider.StateName(req.State)
	if req.City != "" {
		where = req.City + ", " + where
	}
	website := req.Website
	if website == "" {
		website = "unknown"
	}

	lr := c.llm.CompleteJSON(ctx, provider.LLMRequest{
		Model:     c.model,
		System:    classifierSystem,
		Prompt:    fmt.Sprintf(classifierPrompt, req.CourseName, where, website, ev.String()),
		MaxTokens: 1024,
		Purpose:   "tier_classifier",
	}, &out)
	meta.Usage = append(meta.Usage, lr.Usage...)
	if lr.Failed() {
		if meta.Error == "" {
			meta.Error = lr.Error
		}
		return out, false
	}
	return out, true
}

// normalizeConfidence maps a 0-100 reply onto [0,1] and clamps.
func normalizeConfidence(v float64) float64 {
	if v > 1 && v <= 100 {
		v /= 100
	}
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (cl classification) apply(in *model.CourseIntel) {
	in.Tier = model.ParseTier(cl.Tier)
	in.TierConfidence = normalizeConfidence(cl.TierConfidence)
	in.TierEvidence = cleanList(cl.TierEvidence)
	if cl.AnnualRoundsEstimate != nil && *cl.AnnualRoundsEstimate > 0 {
		in.AnnualRoundsEstimate = cl.AnnualRoundsEstimate
	}
	in.AnnualRoundsRange = strings.TrimSpace(cl.AnnualRoundsRange)
	in.AnnualRoundsConfidence = normalizeConfidence(cl.AnnualRoundsConfidence)
	in.Intel.Ownership = strings.TrimSpace(cl.Ownership)
	in.Intel.RecentChanges = cleanList(cl.RecentChanges)
	in.Intel.VendorMentions = cleanList(cl.VendorMentions)
}
