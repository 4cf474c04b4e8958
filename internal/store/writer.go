package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/course-intel/internal/model"
)

// Writer flattens a synthesized document into course and contact records and
// commits them through a Store.
type Writer struct {
	store Store
	now   func() time.Time
}

// NewWriter returns a Writer backed by s.
func NewWriter(s Store) *Writer {
	return &Writer{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// WriteRequest is one validated run ready for persistence.
type WriteRequest struct {
	StagingID string
	Course    model.CourseIdentity
	Doc       *model.CanonicalJSON
	Flags     []string
	Summary   model.Summary
}

// Write persists the course, its contacts and the validated staging row.
func (w *Writer) Write(ctx context.Context, req WriteRequest) (*CommitResult, error) {
	raw, err := req.Doc.Marshal()
	if err != nil {
		return nil, eris.Wrap(err, "writer: marshal document")
	}

	now := w.now()
	course := CourseRecordFrom(req.Course, req.Doc, req.Flags, req.Summary, now)
	course.ResearchJSON = raw

	contacts := make([]model.ContactRecord, 0, len(req.Doc.Section4))
	for _, c := range req.Doc.Section4 {
		rec := model.NewContactRecord(course.ID, c)
		enriched := now
		rec.EnrichedAt = &enriched
		contacts = append(contacts, rec)
	}

	res, err := w.store.CommitEnrichment(ctx, Commit{
		StagingID: req.StagingID,
		Course:    course,
		Contacts:  contacts,
		Flags:     req.Flags,
		Document:  raw,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "writer: commit %s", req.Course.Name)
	}

	zap.L().Info("writer: course committed",
		zap.String("course", req.Course.Name),
		zap.String("state", req.Course.StateCode),
		zap.Int64("course_id", res.CourseID),
		zap.Int("contacts_written", res.ContactsWritten),
	)
	return res, nil
}

// Reject records a validation failure on the staging row. No course or
// contact rows are written.
func (w *Writer) Reject(ctx context.Context, stagingID string, doc *model.CanonicalJSON, reason string, flags []string) error {
	raw, err := doc.Marshal()
	if err != nil {
		return eris.Wrap(err, "writer: marshal document")
	}
	err = w.store.FinishStaging(ctx, stagingID, StagingUpdate{
		Status:   model.StagingValidationFailed,
		Document: raw,
		Error:    reason,
		Flags:    flags,
	})
	return eris.Wrapf(err, "writer: reject staging %s", stagingID)
}

// Fail records an uncaught failure on the staging row.
func (w *Writer) Fail(ctx context.Context, stagingID string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	err := w.store.FinishStaging(ctx, stagingID, StagingUpdate{Status: model.StagingError, Error: msg})
	return eris.Wrapf(err, "writer: fail staging %s", stagingID)
}

// CourseRecordFrom flattens the document's intel sections onto a course row.
func CourseRecordFrom(id model.CourseIdentity, doc *model.CanonicalJSON, flags []string, summary model.Summary, now time.Time) model.CourseRecord {
	rec := model.CourseRecord{
		Name:                  id.Name,
		City:                  id.City,
		StateCode:             id.StateCode,
		ValidationFlags:       flags,
		EnrichmentStatus:      model.EnrichmentStatusComplete,
		EnrichmentCompletedAt: &now,
		EnrichmentCostUSD:     summary.TotalCostUSD,
		EnrichmentCreditsUsed: summary.CreditsUsed,
		EnrichmentSources:     make([]string, 0, len(summary.SourcesUsed)),
	}
	if rec.ValidationFlags == nil {
		rec.ValidationFlags = []string{}
	}
	if id.CourseID != nil {
		rec.ID = *id.CourseID
	}
	for _, s := range summary.SourcesUsed {
		rec.EnrichmentSources = append(rec.EnrichmentSources, string(s))
	}
	if doc == nil {
		return rec
	}

	if s := doc.Section1; s != nil {
		rec.Tier = string(s.Tier)
		rec.TierConfidence = s.TierConfidence
	}
	if s := doc.Section2; s != nil {
		rec.WaterHazardRating = string(s.Rating)
		rec.WaterHazardCount = s.Count
	}
	if s := doc.Section3; s != nil {
		rec.AnnualRoundsEstimate = s.Estimate
		rec.AnnualRoundsRange = s.Range
	}
	if s := doc.Section5; s != nil {
		rec.Ownership = s.Ownership
		rec.Website = s.Website
	}
	if rec.Website == "" && id.Domain != "" {
		rec.Website = id.Domain
	}
	return rec
}
