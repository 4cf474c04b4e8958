// Package store persists enrichment results: the course row, its contacts and
// the per-run staging row.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/course-intel/internal/model"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("store: not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Tables holds the resolved table names for one destination family.
type Tables struct {
	Courses  string
	Contacts string
	Staging  string
}

// TablesFor returns the *_test family when test is true, production otherwise.
func TablesFor(test bool) Tables {
	t := Tables{Courses: "courses", Contacts: "course_contacts", Staging: "research_staging"}
	if test {
		t.Courses += "_test"
		t.Contacts += "_test"
		t.Staging += "_test"
	}
	return t
}

// Commit is everything written for one successful run.
type Commit struct {
	StagingID string
	Course    model.CourseRecord
	// Contacts are upserted by (course_id, contact_name); CourseID is filled in
	// by the store once the course row is resolved.
	Contacts []model.ContactRecord
	Flags    []string
	Document json.RawMessage
}

// CommitResult reports the resolved course id and contacts written.
type CommitResult struct {
	CourseID        int64
	ContactsWritten int
}

// StagingUpdate is the terminal state recorded on a staging row.
type StagingUpdate struct {
	Status   model.StagingStatus
	Document json.RawMessage
	Error    string
	Flags    []string
}

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// Staging
	CreateStaging(ctx context.Context, course model.CourseIdentity) (*model.StagingRecord, error)
	UpdateStagingStatus(ctx context.Context, id string, status model.StagingStatus) error
	FinishStaging(ctx context.Context, id string, u StagingUpdate) error
	GetStaging(ctx context.Context, id string) (*model.StagingRecord, error)

	// Course + contacts, written course -> contacts -> staging.
	CommitEnrichment(ctx context.Context, c Commit) (*CommitResult, error)
	GetCourse(ctx context.Context, id int64) (*model.CourseRecord, error)
	FindCourse(ctx context.Context, name, stateCode string) (*model.CourseRecord, error)
	ListContacts(ctx context.Context, courseID int64) ([]model.ContactRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// courseColumns are the writable course columns, excluding id.
var courseColumns = []string{
	"course_name", "city", "state_code", "website",
	"tier", "tier_confidence",
	"water_hazard_rating", "water_hazard_count",
	"annual_rounds_estimate", "annual_rounds_range",
	"ownership",
	"v2_research_json", "v2_validation_flags",
	"enrichment_status", "enrichment_completed_at",
	"enrichment_cost_usd", "enrichment_credits_used", "enrichment_sources",
}

// contactColumns are the writable contact columns, excluding id.
var contactColumns = []string{
	"course_id", "contact_name", "contact_title", "contact_email",
	"email_confidence", "email_method", "linkedin_url", "contact_phone",
	"tenure_years", "contact_sources", "person_id",
	"employment_verified", "needs_enrichment", "enriched_at",
}

// listEncoder converts string slices to the driver's column representation.
type listEncoder func([]string) (any, error)

func courseValues(rec model.CourseRecord, list listEncoder) ([]any, error) {
	flags, err := list(rec.ValidationFlags)
	if err != nil {
		return nil, err
	}
	sources, err := list(rec.EnrichmentSources)
	if err != nil {
		return nil, err
	}
	doc := string(rec.ResearchJSON)
	if doc == "" {
		doc = "{}"
	}
	return []any{
		rec.Name, rec.City, rec.StateCode, rec.Website,
		rec.Tier, rec.TierConfidence,
		rec.WaterHazardRating, rec.WaterHazardCount,
		rec.AnnualRoundsEstimate, rec.AnnualRoundsRange,
		rec.Ownership,
		doc, flags,
		rec.EnrichmentStatus, rec.EnrichmentCompletedAt,
		rec.EnrichmentCostUSD, rec.EnrichmentCreditsUsed, sources,
	}, nil
}

func contactValues(rec model.ContactRecord, list listEncoder) ([]any, error) {
	sources, err := list(rec.ContactSources)
	if err != nil {
		return nil, err
	}
	return []any{
		rec.CourseID, rec.ContactName, rec.ContactTitle, rec.ContactEmail,
		rec.EmailConfidence, rec.EmailMethod, rec.LinkedInURL, rec.ContactPhone,
		rec.TenureYears, sources, rec.PersonID,
		rec.EmploymentVerified, rec.NeedsEnrichment, rec.EnrichedAt,
	}, nil
}

// jsonList encodes a string slice as a JSON array for TEXT columns.
func jsonList(v []string) (any, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode list")
	}
	return string(b), nil
}

// nativeList passes a string slice through for TEXT[] columns.
func nativeList(v []string) (any, error) {
	if v == nil {
		v = []string{}
	}
	return v, nil
}

// staleStatuses are replaced when a new run starts for the same identity.
var staleStatuses = []model.StagingStatus{model.StagingPending, model.StagingProcessing}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func docOrNil(doc json.RawMessage) any {
	if len(doc) == 0 {
		return nil
	}
	return string(doc)
}
