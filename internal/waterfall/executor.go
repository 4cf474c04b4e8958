package waterfall

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/course-intel/internal/contact"
	"github.com/sells-group/course-intel/internal/model"
)

// Executor runs the contact cascade for one course at a time. It holds no
// per-run state and is safe to share across goroutines.
type Executor struct {
	cfg       *Config
	steps     []Step
	validator *contact.Validator
}

// NewExecutor creates an executor over steps, filtering every stage's output
// through validator.
func NewExecutor(cfg *Config, steps []Step, validator *contact.Validator) *Executor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if validator == nil {
		validator = contact.NewValidator(nil)
	}
	return &Executor{cfg: cfg, steps: steps, validator: validator}
}

// Run cascades through the stages until an advance predicate says stop or the
// stages are exhausted. It always returns whatever was accepted.
func (e *Executor) Run(ctx context.Context, req Request) *Result {
	if len(req.Titles) == 0 {
		req.Titles = e.cfg.TargetTitles
	}
	log := zap.L().With(
		zap.String("course", req.CourseName),
		zap.String("state", req.State),
		zap.String("domain", req.Domain),
	)

	result := &Result{Contacts: []model.Contact{}}
	order := make([]model.Source, 0, len(e.steps))

	for _, step := range e.steps {
		name := step.Stage.Name()
		order = append(order, name)
		report := StageReport{Stage: name}

		switch {
		case ctx.Err() != nil:
			log.Info("waterfall: cancelled", zap.String("stage", string(name)))
			result.Stages = append(result.Stages, report)
			return e.finish(result, order, req.Domain)
		case !step.Stage.Configured():
			log.Info("waterfall: stage skipped: no credentials", zap.String("stage", string(name)))
			report.Skipped = "not configured"
			result.Stages = append(result.Stages, report)
			continue
		case e.cfg.MaxCostUSD > 0 && result.CostUSD() >= e.cfg.MaxCostUSD:
			log.Info("waterfall: stage skipped: budget exhausted",
				zap.String("stage", string(name)),
				zap.Float64("spent", result.CostUSD()),
				zap.Float64("budget", e.cfg.MaxCostUSD),
			)
			report.Skipped = "budget exhausted"
			result.Stages = append(result.Stages, report)
			continue
		}

		out := step.Stage.Run(ctx, req, result.Contacts)
		result.Usage = append(result.Usage, out.Usage...)
		report.Returned = len(out.Contacts)
		report.CostUSD = out.CostUSD()
		report.Credits = out.Credits()
		report.Error = out.Error

		for i := range out.Contacts {
			out.Contacts[i].Stage = name
		}
		accepted, rejected := e.validator.Filter(out.Contacts, req.Domain)
		result.Rejected = append(result.Rejected, rejected...)
		result.Contacts = Merge(result.Contacts, accepted, e.cfg.MinEmailConfidence)
		report.Accepted = len(accepted)
		report.Rejected = len(rejected)
		result.Stages = append(result.Stages, report)

		log.Info("waterfall: stage complete",
			zap.String("stage", string(name)),
			zap.Int("returned", report.Returned),
			zap.Int("accepted", report.Accepted),
			zap.Int("rejected", report.Rejected),
			zap.Int("counted", Counted(result.Contacts, e.cfg.MinEmailConfidence)),
			zap.Float64("cost_usd", report.CostUSD),
			zap.String("error", report.Error),
		)

		if step.Advance != nil && !step.Advance(result.Contacts) {
			break
		}
	}

	return e.finish(result, order, req.Domain)
}

func (e *Executor) finish(result *Result, order []model.Source, domain string) *Result {
	// The block-list may have grown since a stage ran.
	final, rejected := e.validator.Filter(result.Contacts, domain)
	result.Rejected = append(result.Rejected, rejected...)
	result.Contacts = capContacts(final, e.cfg.TargetTitles, e.cfg.MaxContacts)
	result.SourcesUsed = sourcesUsed(result.Contacts, order)
	return result
}
