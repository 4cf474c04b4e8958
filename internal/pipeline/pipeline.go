// Package pipeline runs the per-course enrichment state machine: staging,
// website resolution, contact waterfall, course intel, synthesis, validation
// and persistence.
package pipeline

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/course-intel/internal/contact"
	"github.com/sells-group/course-intel/internal/cost"
	"github.com/sells-group/course-intel/internal/intel"
	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/internal/provider"
	"github.com/sells-group/course-intel/internal/scrape"
	"github.com/sells-group/course-intel/internal/store"
	"github.com/sells-group/course-intel/internal/synth"
	"github.com/sells-group/course-intel/internal/validate"
	"github.com/sells-group/course-intel/internal/waterfall"
)

// Deps are the collaborators a Pipeline drives. Web may be nil or
// unconfigured, in which case website resolution is skipped.
type Deps struct {
	Store     store.Store
	Web       *provider.Web
	Waterfall *waterfall.Executor
	Collector *intel.Collector
	Validator *validate.Validator
	Titles    []string
}

// Pipeline enriches one course per EnrichCourse call. It holds no per-run
// state and may be shared by concurrent callers.
type Pipeline struct {
	store     store.Store
	writer    *store.Writer
	web       *provider.Web
	waterfall *waterfall.Executor
	collector *intel.Collector
	validator *validate.Validator
	titles    []string
	now       func() time.Time
}

// New creates a Pipeline.
func New(d Deps) *Pipeline {
	titles := d.Titles
	if len(titles) == 0 {
		titles = model.DecisionMakerTitles
	}
	v := d.Validator
	if v == nil {
		v = validate.New(model.MinCountedConfidence)
	}
	wf := d.Waterfall
	if wf == nil {
		wf = waterfall.NewExecutor(nil, nil, nil)
	}
	col := d.Collector
	if col == nil {
		col = intel.NewCollector(nil, nil, nil, "")
	}
	return &Pipeline{
		store:     d.Store,
		writer:    store.NewWriter(d.Store),
		web:       d.Web,
		waterfall: wf,
		collector: col,
		validator: v,
		titles:    titles,
		now:       time.Now,
	}
}

// Input identifies the course to enrich.
type Input struct {
	CourseName string
	StateCode  string
	CourseID   *int64
	City       string
	Domain     string
}

var stateCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)

// identity validates and normalizes the input.
func (in Input) identity() (model.CourseIdentity, error) {
	id := model.CourseIdentity{
		Name:      strings.TrimSpace(in.CourseName),
		City:      strings.TrimSpace(in.City),
		StateCode: strings.ToUpper(strings.TrimSpace(in.StateCode)),
		CourseID:  in.CourseID,
		Domain:    contact.NormalizeDomain(in.Domain),
	}
	if id.Name == "" {
		return id, eris.New("pipeline: course name is required")
	}
	if !stateCodeRe.MatchString(id.StateCode) {
		return id, eris.Errorf("pipeline: state code %q must be two letters", in.StateCode)
	}
	return id, nil
}

// run carries the per-course state EnrichCourse threads through its steps.
type run struct {
	log     *zap.Logger
	id      model.CourseIdentity
	staging *model.StagingRecord
	status  model.StagingStatus
	ledger  *cost.Ledger
	started time.Time
	website string
	result  *model.Result
}

// EnrichCourse runs one course end to end. It never returns nil; Success
// and Error on the result are authoritative. Cancellation leaves the staging
// row in processing for the next run to replace. Scraper benching is scoped
// to the course, so batch runs do not share reader state.
func (p *Pipeline) EnrichCourse(ctx context.Context, in Input) *model.Result {
	ctx = scrape.WithRun(ctx)
	r := &run{
		ledger:  cost.NewLedger(),
		started: p.now(),
		result: &model.Result{
			CourseName:      strings.TrimSpace(in.CourseName),
			StateCode:       strings.ToUpper(strings.TrimSpace(in.StateCode)),
			CourseID:        in.CourseID,
			ValidationFlags: []string{},
			Summary:         model.Summary{SourcesUsed: []model.Source{}},
		},
	}

	id, err := in.identity()
	if err != nil {
		return p.fail(ctx, r, err)
	}
	r.id = id
	r.log = zap.L().With(zap.String("course", id.Name), zap.String("state", id.StateCode))
	r.log.Info("pipeline: starting enrichment", zap.String("domain", id.Domain))

	staging, err := p.store.CreateStaging(ctx, id)
	if err != nil {
		return p.fail(ctx, r, eris.Wrap(err, "pipeline: create staging"))
	}
	r.staging, r.status = staging, staging.Status
	r.result.StagingID = staging.ID

	if err := p.transition(ctx, r, model.StagingProcessing); err != nil {
		return p.fail(ctx, r, err)
	}

	p.resolveWebsite(ctx, r)
	if ctx.Err() != nil {
		return p.cancelled(r, ctx.Err())
	}

	wf := p.waterfall.Run(ctx, waterfall.Request{
		CourseName: id.Name,
		City:       id.City,
		State:      id.StateCode,
		Domain:     r.id.Domain,
		Titles:     p.titles,
	})
	r.ledger.RecordAll(wf.Usage)
	if ctx.Err() != nil {
		return p.cancelled(r, ctx.Err())
	}

	ir := p.collector.Collect(ctx, intel.Request{
		CourseName: id.Name,
		City:       id.City,
		State:      id.StateCode,
		Website:    r.website,
	})
	r.ledger.RecordAll(ir.Usage)
	if ctx.Err() != nil {
		return p.cancelled(r, ctx.Err())
	}

	doc := synth.Synthesize(synth.Input{
		Intel:      ir.Intel,
		Contacts:   wf.Contacts,
		Titles:     p.titles,
		TierSource: ir.PageURL,
	})
	r.result.CanonicalJSON = doc
	r.result.Summary.SourcesUsed = append(r.result.Summary.SourcesUsed, wf.SourcesUsed...)
	p.summarize(r)

	report := p.validator.Validate(doc)
	r.result.ValidationFlags = report.Flags
	if !report.OK {
		return p.reject(ctx, r, report)
	}
	return p.persist(ctx, r)
}

// resolveWebsite adopts the caller's domain, or searches for the course
// website when none was given.
func (p *Pipeline) resolveWebsite(ctx context.Context, r *run) {
	if r.id.Domain != "" {
		r.website = "https://" + r.id.Domain
		return
	}
	if !p.web.Configured() {
		r.log.Info("pipeline: website resolution skipped: no credentials")
		return
	}
	wr := p.web.ResolveWebsite(ctx, r.id.Name, r.id.City, r.id.StateCode)
	r.ledger.RecordAll(wr.Usage)
	if wr.Domain == "" {
		r.log.Warn("pipeline: website not resolved; domain checks disabled", zap.String("error", wr.Error))
		return
	}
	r.id.Domain = contact.NormalizeDomain(wr.Domain)
	r.website = wr.URL
	r.log.Info("pipeline: website resolved", zap.String("domain", r.id.Domain), zap.String("url", wr.URL))
}

// transition moves the staging row forward. Backward or repeated moves are
// programming errors.
func (p *Pipeline) transition(ctx context.Context, r *run, next model.StagingStatus) error {
	if !r.status.CanTransition(next) {
		return eris.Errorf("pipeline: invalid staging transition %s -> %s", r.status, next)
	}
	if err := p.store.UpdateStagingStatus(ctx, r.staging.ID, next); err != nil {
		return eris.Wrapf(err, "pipeline: set staging %s", next)
	}
	r.status = next
	return nil
}

func (p *Pipeline) summarize(r *run) {
	r.result.Summary.TotalCostUSD = r.ledger.TotalUSD()
	r.result.Summary.CreditsUsed = r.ledger.Credits()
	r.result.Summary.DurationSeconds = p.now().Sub(r.started).Seconds()
}

// reject records a CRITICAL validation failure. No course or contact rows
// are written.
func (p *Pipeline) reject(ctx context.Context, r *run, report validate.Report) *model.Result {
	r.result.Error = report.Error
	if r.status.CanTransition(model.StagingValidationFailed) {
		if err := p.writer.Reject(ctx, r.staging.ID, r.result.CanonicalJSON, report.Error, report.Flags); err != nil {
			r.log.Error("pipeline: failed to record validation failure", zap.Error(err))
		} else {
			r.status = model.StagingValidationFailed
		}
	}
	r.log.Warn("pipeline: validation failed",
		zap.String("error", report.Error),
		zap.Strings("flags", report.Flags),
		zap.Float64("cost_usd", r.result.Summary.TotalCostUSD),
	)
	return r.result
}

func (p *Pipeline) persist(ctx context.Context, r *run) *model.Result {
	res, err := p.writer.Write(ctx, store.WriteRequest{
		StagingID: r.staging.ID,
		Course:    r.id,
		Doc:       r.result.CanonicalJSON,
		Flags:     r.result.ValidationFlags,
		Summary:   r.result.Summary,
	})
	if err != nil {
		if ctx.Err() != nil {
			return p.cancelled(r, ctx.Err())
		}
		return p.fail(ctx, r, eris.Wrap(err, "pipeline: persist"))
	}

	r.status = model.StagingValidated
	r.result.Success = true
	courseID := res.CourseID
	r.result.CourseID = &courseID
	r.result.ContactsWritten = res.ContactsWritten
	p.summarize(r)

	r.log.Info("pipeline: enrichment complete",
		zap.Int64("course_id", courseID),
		zap.Int("contacts_written", res.ContactsWritten),
		zap.Strings("flags", r.result.ValidationFlags),
		zap.Float64("cost_usd", r.result.Summary.TotalCostUSD),
		zap.Int("credits_used", r.result.Summary.CreditsUsed),
		zap.Float64("duration_s", r.result.Summary.DurationSeconds),
	)
	return r.result
}

// fail records an uncaught failure. The upstream document is discarded and
// the staging row, when one exists, moves to error.
func (p *Pipeline) fail(ctx context.Context, r *run, cause error) *model.Result {
	r.result.Success = false
	r.result.Error = cause.Error()
	r.result.CanonicalJSON = nil
	p.summarize(r)

	log := r.log
	if log == nil {
		log = zap.L()
	}
	if r.staging != nil && r.status.CanTransition(model.StagingError) {
		if err := p.writer.Fail(ctx, r.staging.ID, cause); err != nil {
			log.Error("pipeline: failed to record error status", zap.Error(err))
		} else {
			r.status = model.StagingError
		}
	}
	log.Error("pipeline: enrichment failed", zap.Error(cause))
	return r.result
}

func (p *Pipeline) cancelled(r *run, cause error) *model.Result {
	r.result.Success = false
	r.result.Error = eris.Wrap(cause, "pipeline: cancelled").Error()
	p.summarize(r)
	r.log.Warn("pipeline: cancelled; staging left in processing", zap.String("staging_id", r.staging.ID))
	return r.result
}
