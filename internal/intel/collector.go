// Package intel collects tier, water-hazard and volume intelligence for a
// course from the fee/hazard database, cited research and an LLM classifier.
package intel

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/internal/provider"
)

const (
	// pageRatingConfidence is the confidence of a rating read off the database page.
	pageRatingConfidence = 0.9
	// llmRatingConfidence is the confidence of a rating inferred by the classifier.
	llmRatingConfidence = 0.5
	// noPageTierCap bounds tier confidence when no database page was read.
	noPageTierCap = 0.8
)

// Request identifies the course.
type Request struct {
	CourseName string
	City       string
	State      string
	Website    string
}

// Result is the collected intel plus the usage behind it.
type Result struct {
	provider.Meta
	Intel      model.CourseIntel
	PageURL    string
	Research   string
	Citations  []string
	Classified bool
}

// Collector runs the fee/hazard lookup, course research and tier classifier
// in that order.
type Collector struct {
	feeHazard *provider.FeeHazard
	research  *provider.Research
	llm       *provider.LLM
	model     string
}

// NewCollector creates a collector. model is the classifier model. Any
// adapter may be nil or unconfigured.
func NewCollector(feeHazard *provider.FeeHazard, research *provider.Research, llm *provider.LLM, model string) *Collector {
	return &Collector{feeHazard: feeHazard, research: research, llm: llm, model: model}
}

// Collect never fails: missing inputs leave fields empty and the output
// validator decides whether the record is usable.
func (c *Collector) Collect(ctx context.Context, req Request) *Result {
	log := zap.L().With(zap.String("course", req.CourseName), zap.String("state", req.State))
	res := &Result{}
	res.Intel.TierEvidence = []string{}
	res.Intel.Intel = model.Intelligence{RecentChanges: []string{}, VendorMentions: []string{}, Website: req.Website}

	var ev evidence

	if c.feeHazard.Configured() {
		fh := c.feeHazard.Lookup(ctx, req.CourseName, req.State)
		res.Usage = append(res.Usage, fh.Usage...)
		if fh.Found() {
			facts := ParsePage(fh.PageMarkdown)
			res.PageURL = fh.SkyGolfURL
			res.Intel.WaterHazardRating = facts.WaterRating
			res.Intel.WaterHazardCount = facts.WaterCount
			if facts.WaterRating != "" || facts.WaterCount != nil {
				res.Intel.WaterHazardSource = fh.SkyGolfURL
				res.Intel.WaterHazardConfidence = pageRatingConfidence
			}
			ev.pageURL, ev.page, ev.feeLines = fh.SkyGolfURL, fh.PageMarkdown, facts.FeeLines
		} else if fh.Failed() {
			res.Error = fh.Error
		}
		log.Debug("intel: fee/hazard lookup", zap.Bool("found", fh.Found()), zap.String("url", fh.SkyGolfURL))
	} else {
		log.Info("intel: fee/hazard lookup skipped: no credentials")
	}

	if c.research.Configured() {
		rr := c.research.Research(ctx, req.CourseName, req.City, req.State, provider.ResearchCourse, nil)
		res.Usage = append(res.Usage, rr.Usage...)
		if rr.Failed() && res.Error == "" {
			res.Error = rr.Error
		}
		res.Research, res.Citations = rr.Answer, rr.Citations
		ev.research, ev.citations = rr.Answer, rr.Citations
	} else {
		log.Info("intel: research skipped: no credentials")
	}

	if !c.llm.Configured() {
		log.Info("intel: classifier skipped: no credentials")
		c.finish(res)
		return res
	}
	if ev.empty() {
		log.Warn("intel: classifying without page or research evidence")
	}

	cl, ok := c.classify(ctx, &res.Meta, req, ev)
	if ok {
		res.Classified = true
		cl.apply(&res.Intel)
		if res.PageURL == "" && res.Intel.TierConfidence > noPageTierCap {
			res.Intel.TierConfidence = noPageTierCap
		}
		if res.Intel.WaterHazardRating == "" {
			if r := model.ParseWaterRating(cl.WaterHazardRating); r != "" {
				res.Intel.WaterHazardRating = r
				res.Intel.WaterHazardSource = firstCitation(ev.citations)
				res.Intel.WaterHazardConfidence = llmRatingConfidence
			}
		}
	}

	c.finish(res)
	log.Info("intel: collected",
		zap.String("tier", string(res.Intel.Tier)),
		zap.Float64("tier_confidence", res.Intel.TierConfidence),
		zap.String("water_rating", string(res.Intel.WaterHazardRating)),
		zap.Bool("page", res.PageURL != ""),
		zap.Float64("cost_usd", res.CostUSD()),
	)
	return res
}

// firstCitation names the page behind an inferred value; "" when the
// classifier had no cited research to go on.
func firstCitation(citations []string) string {
	for _, u := range citations {
		if u != "" {
			return u
		}
	}
	return ""
}

func (c *Collector) finish(res *Result) {
	var sources []string
	if res.PageURL != "" {
		sources = append(sources, res.PageURL)
	}
	sources = append(sources, res.Citations...)
	res.Intel.Intel.Sources = sources
}
