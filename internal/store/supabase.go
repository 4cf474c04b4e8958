package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/internal/resilience"
	"github.com/sells-group/course-intel/pkg/supabase"
)

// SupabaseStore implements Store over the PostgREST API. PostgREST has no
// multi-table transaction, so CommitEnrichment writes course, then contacts,
// then staging: a failure part-way leaves staging in processing and a rerun
// converges through the upserts.
type SupabaseStore struct {
	client supabase.Client
	tables Tables
	policy func(op string) resilience.Policy
}

// SupabaseOption configures a SupabaseStore.
type SupabaseOption func(*SupabaseStore)

// WithRetryPolicy overrides the transport retry policy.
func WithRetryPolicy(fn func(op string) resilience.Policy) SupabaseOption {
	return func(s *SupabaseStore) { s.policy = fn }
}

// NewSupabase creates a store writing to the given table family.
func NewSupabase(client supabase.Client, tables Tables, opts ...SupabaseOption) *SupabaseStore {
	s := &SupabaseStore{client: client, tables: tables, policy: resilience.DefaultPolicy}
	for _, o := range opts {
		o(s)
	}
	return s
}

// call runs fn under the retry policy. Retryable PostgREST statuses are
// marked transient; everything else fails on the first attempt.
func (s *SupabaseStore) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return resilience.Do(ctx, s.policy(op), func(ctx context.Context) error {
		err := fn(ctx)
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) {
			return resilience.StatusError(err, apiErr.StatusCode, apiErr.RetryAfter)
		}
		return err
	})
}

func (s *SupabaseStore) Migrate(context.Context) error {
	return eris.New("supabase: schema is managed by the Supabase project; use a postgres or sqlite driver to migrate")
}

func (s *SupabaseStore) Close() error { return nil }

func (s *SupabaseStore) CreateStaging(ctx context.Context, course model.CourseIdentity) (*model.StagingRecord, error) {
	err := s.call(ctx, "supabase: delete stale staging", func(ctx context.Context) error {
		return s.client.Delete(ctx, s.tables.Staging, []supabase.Filter{
			supabase.Eq("course_name", course.Name),
			supabase.Eq("state_code", course.StateCode),
			supabase.In("status", string(staleStatuses[0]), string(staleStatuses[1])),
		})
	})
	if err != nil {
		return nil, eris.Wrapf(err, "supabase: delete stale staging for %s", course.Name)
	}

	rec := &model.StagingRecord{
		ID:         uuid.New().String(),
		CourseName: course.Name,
		StateCode:  course.StateCode,
		Status:     model.StagingPending,
		CreatedAt:  time.Now().UTC(),
	}
	err = s.call(ctx, "supabase: insert staging", func(ctx context.Context) error {
		return s.client.Insert(ctx, s.tables.Staging, rec, nil)
	})
	if err != nil {
		return nil, eris.Wrap(err, "supabase: insert staging")
	}
	return rec, nil
}

func (s *SupabaseStore) UpdateStagingStatus(ctx context.Context, id string, status model.StagingStatus) error {
	return s.updateStaging(ctx, id, map[string]any{"status": status})
}

func (s *SupabaseStore) FinishStaging(ctx context.Context, id string, u StagingUpdate) error {
	flags := u.Flags
	if flags == nil {
		flags = []string{}
	}
	return s.updateStaging(ctx, id, map[string]any{
		"status":           u.Status,
		"v2_json":          u.Document,
		"validation_error": nullIfEmpty(u.Error),
		"validation_flags": flags,
		"processed_at":     time.Now().UTC(),
	})
}

func (s *SupabaseStore) updateStaging(ctx context.Context, id string, patch map[string]any) error {
	var updated []model.StagingRecord
	err := s.call(ctx, "supabase: update staging", func(ctx context.Context) error {
		updated = nil
		return s.client.Update(ctx, s.tables.Staging, []supabase.Filter{supabase.Eq("id", id)}, patch, &updated)
	})
	if err != nil {
		return eris.Wrapf(err, "supabase: update staging %s", id)
	}
	if len(updated) == 0 {
		return eris.Wrapf(ErrNotFound, "supabase: staging %s", id)
	}
	return nil
}

func (s *SupabaseStore) GetStaging(ctx context.Context, id string) (*model.StagingRecord, error) {
	var rows []model.StagingRecord
	err := s.call(ctx, "supabase: get staging", func(ctx context.Context) error {
		return s.client.Select(ctx, s.tables.Staging, supabase.Query{
			Filters: []supabase.Filter{supabase.Eq("id", id)},
			Limit:   1,
		}, &rows)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "supabase: get staging %s", id)
	}
	if len(rows) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "supabase: staging %s", id)
	}
	return &rows[0], nil
}

func (s *SupabaseStore) CommitEnrichment(ctx context.Context, c Commit) (*CommitResult, error) {
	courseID, err := s.writeCourse(ctx, c.Course)
	if err != nil {
		return nil, err
	}

	for _, rec := range c.Contacts {
		rec.CourseID = courseID
		if rec.ContactSources == nil {
			rec.ContactSources = []string{}
		}
		err := s.call(ctx, "supabase: upsert contact", func(ctx context.Context) error {
			return s.client.Upsert(ctx, s.tables.Contacts, rec, "course_id,contact_name", nil)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "supabase: upsert contact %q", rec.ContactName)
		}
	}

	err = s.FinishStaging(ctx, c.StagingID, StagingUpdate{
		Status:   model.StagingValidated,
		Document: c.Document,
		Flags:    c.Flags,
	})
	if err != nil {
		return nil, err
	}
	return &CommitResult{CourseID: courseID, ContactsWritten: len(c.Contacts)}, nil
}

func (s *SupabaseStore) writeCourse(ctx context.Context, rec model.CourseRecord) (int64, error) {
	if rec.ResearchJSON == nil {
		rec.ResearchJSON = []byte("{}")
	}
	if rec.ValidationFlags == nil {
		rec.ValidationFlags = []string{}
	}
	if rec.EnrichmentSources == nil {
		rec.EnrichmentSources = []string{}
	}

	if rec.ID == 0 {
		existing, err := s.FindCourse(ctx, rec.Name, rec.StateCode)
		switch {
		case err == nil:
			rec.ID = existing.ID
		case !IsNotFound(err):
			return 0, err
		}
	}

	if rec.ID != 0 {
		err := s.call(ctx, "supabase: upsert course", func(ctx context.Context) error {
			return s.client.Upsert(ctx, s.tables.Courses, rec, "id", nil)
		})
		if err != nil {
			return 0, eris.Wrapf(err, "supabase: upsert course %d", rec.ID)
		}
		return rec.ID, nil
	}

	var created []model.CourseRecord
	err := s.call(ctx, "supabase: insert course", func(ctx context.Context) error {
		created = nil
		return s.client.Insert(ctx, s.tables.Courses, rec, &created)
	})
	if err != nil {
		return 0, eris.Wrapf(err, "supabase: insert course %s", rec.Name)
	}
	if len(created) == 0 || created[0].ID == 0 {
		return 0, eris.Errorf("supabase: insert course %s: no id returned", rec.Name)
	}
	return created[0].ID, nil
}

func (s *SupabaseStore) GetCourse(ctx context.Context, id int64) (*model.CourseRecord, error) {
	return s.selectCourse(ctx, []supabase.Filter{supabase.Eq("id", id)}, "id")
}

func (s *SupabaseStore) FindCourse(ctx context.Context, name, stateCode string) (*model.CourseRecord, error) {
	return s.selectCourse(ctx, []supabase.Filter{
		supabase.Eq("course_name", name),
		supabase.Eq("state_code", stateCode),
	}, "id.asc")
}

func (s *SupabaseStore) selectCourse(ctx context.Context, filters []supabase.Filter, order string) (*model.CourseRecord, error) {
	var rows []model.CourseRecord
	err := s.call(ctx, "supabase: select course", func(ctx context.Context) error {
		return s.client.Select(ctx, s.tables.Courses, supabase.Query{Filters: filters, Order: order, Limit: 1}, &rows)
	})
	if err != nil {
		return nil, eris.Wrap(err, "supabase: select course")
	}
	if len(rows) == 0 {
		return nil, eris.Wrap(ErrNotFound, "supabase: course")
	}
	return &rows[0], nil
}

func (s *SupabaseStore) ListContacts(ctx context.Context, courseID int64) ([]model.ContactRecord, error) {
	var rows []model.ContactRecord
	err := s.call(ctx, "supabase: list contacts", func(ctx context.Context) error {
		return s.client.Select(ctx, s.tables.Contacts, supabase.Query{
			Filters: []supabase.Filter{supabase.Eq("course_id", courseID)},
			Order:   "id.asc",
		}, &rows)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "supabase: list contacts %d", courseID)
	}
	return rows, nil
}
