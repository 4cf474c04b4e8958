package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/course-intel/internal/db"
	"github.com/sells-group/course-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db     *sql.DB
	tables Tables
	stmts  statements
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, tables Tables) (*SQLiteStore, error) {
	stmts, err := buildStatements(tables, db.Question)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build statements")
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn, tables: tables, stmts: stmts}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migrationSQL(sqliteSchema))
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) CreateStaging(ctx context.Context, course model.CourseIdentity) (*model.StagingRecord, error) {
	if _, err := s.db.ExecContext(ctx, s.stmts.deleteStale, staleArgs(course)...); err != nil {
		return nil, eris.Wrapf(err, "sqlite: delete stale staging for %s", course.Name)
	}

	rec := &model.StagingRecord{
		ID:         uuid.New().String(),
		CourseName: course.Name,
		StateCode:  course.StateCode,
		Status:     model.StagingPending,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, s.stmts.insertStaging,
		rec.ID, rec.CourseName, rec.StateCode, string(rec.Status), rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert staging")
	}
	return rec, nil
}

func (s *SQLiteStore) UpdateStagingStatus(ctx context.Context, id string, status model.StagingStatus) error {
	res, err := s.db.ExecContext(ctx, s.stmts.updateStatus, string(status), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update staging status %s", id)
	}
	return checkRowsAffected(res, "staging", id)
}

func (s *SQLiteStore) FinishStaging(ctx context.Context, id string, u StagingUpdate) error {
	return s.finishStaging(ctx, s.db, id, u)
}

func (s *SQLiteStore) finishStaging(ctx context.Context, q sqlQuerier, id string, u StagingUpdate) error {
	flags, err := jsonList(u.Flags)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, s.stmts.finishStaging,
		string(u.Status), docOrNil(u.Document), nullIfEmpty(u.Error), flags, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish staging %s", id)
	}
	return checkRowsAffected(res, "staging", id)
}

func (s *SQLiteStore) GetStaging(ctx context.Context, id string) (*model.StagingRecord, error) {
	var (
		rec     model.StagingRecord
		doc     sql.NullString
		errText sql.NullString
		flags   string
		status  string
	)
	err := s.db.QueryRowContext(ctx, s.stmts.getStaging, id).Scan(
		&rec.ID, &rec.CourseName, &rec.StateCode, &doc, &status, &errText,
		&flags, &rec.ProcessedAt, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: staging %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get staging %s", id)
	}
	rec.Status = model.StagingStatus(status)
	if doc.Valid {
		rec.V2JSON = json.RawMessage(doc.String)
	}
	rec.ValidationError = errText.String
	if err := decodeList(flags, &rec.ValidationFlags); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) CommitEnrichment(ctx context.Context, c Commit) (*CommitResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: commit: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	courseID, err := s.writeCourse(ctx, tx, c.Course)
	if err != nil {
		return nil, err
	}

	for _, rec := range c.Contacts {
		rec.CourseID = courseID
		args, err := contactValues(rec, jsonList)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, s.stmts.upsertContact, args...); err != nil {
			return nil, eris.Wrapf(err, "sqlite: upsert contact %q", rec.ContactName)
		}
	}

	err = s.finishStaging(ctx, tx, c.StagingID, StagingUpdate{
		Status:   model.StagingValidated,
		Document: c.Document,
		Flags:    c.Flags,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit: commit tx")
	}
	return &CommitResult{CourseID: courseID, ContactsWritten: len(c.Contacts)}, nil
}

func (s *SQLiteStore) writeCourse(ctx context.Context, q sqlQuerier, rec model.CourseRecord) (int64, error) {
	if rec.ID == 0 {
		err := q.QueryRowContext(ctx, s.stmts.findCourse, rec.Name, rec.StateCode).Scan(&rec.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return 0, eris.Wrapf(err, "sqlite: find course %s", rec.Name)
		}
	}

	args, err := courseValues(rec, jsonList)
	if err != nil {
		return 0, err
	}

	if rec.ID == 0 {
		var id int64
		if err := q.QueryRowContext(ctx, s.stmts.insertCourse, args...).Scan(&id); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert course %s", rec.Name)
		}
		return id, nil
	}

	if _, err := q.ExecContext(ctx, s.stmts.upsertCourse, append([]any{rec.ID}, args...)...); err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert course %d", rec.ID)
	}
	return rec.ID, nil
}

func (s *SQLiteStore) GetCourse(ctx context.Context, id int64) (*model.CourseRecord, error) {
	var (
		rec            model.CourseRecord
		doc            string
		flags, sources string
	)
	err := s.db.QueryRowContext(ctx, s.stmts.getCourse, id).Scan(
		&rec.ID, &rec.Name, &rec.City, &rec.StateCode, &rec.Website,
		&rec.Tier, &rec.TierConfidence,
		&rec.WaterHazardRating, &rec.WaterHazardCount,
		&rec.AnnualRoundsEstimate, &rec.AnnualRoundsRange,
		&rec.Ownership,
		&doc, &flags,
		&rec.EnrichmentStatus, &rec.EnrichmentCompletedAt,
		&rec.EnrichmentCostUSD, &rec.EnrichmentCreditsUsed, &sources,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: course %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get course %d", id)
	}
	rec.ResearchJSON = json.RawMessage(doc)
	if err := decodeList(flags, &rec.ValidationFlags); err != nil {
		return nil, err
	}
	if err := decodeList(sources, &rec.EnrichmentSources); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) FindCourse(ctx context.Context, name, stateCode string) (*model.CourseRecord, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.stmts.findCourse, name, stateCode).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: course %s, %s", name, stateCode)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find course %s", name)
	}
	return s.GetCourse(ctx, id)
}

func (s *SQLiteStore) ListContacts(ctx context.Context, courseID int64) ([]model.ContactRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.stmts.listContacts, courseID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list contacts %d", courseID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ContactRecord
	for rows.Next() {
		var (
			rec     model.ContactRecord
			sources string
		)
		if err := rows.Scan(
			&rec.ID, &rec.CourseID, &rec.ContactName, &rec.ContactTitle, &rec.ContactEmail,
			&rec.EmailConfidence, &rec.EmailMethod, &rec.LinkedInURL, &rec.ContactPhone,
			&rec.TenureYears, &sources, &rec.PersonID,
			&rec.EmploymentVerified, &rec.NeedsEnrichment, &rec.EnrichedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		if err := decodeList(sources, &rec.ContactSources); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list contacts iterate")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: %s %s", entity, id)
	}
	return nil
}

func decodeList(raw string, out *[]string) error {
	if raw == "" {
		*out = []string{}
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return eris.Wrap(err, "sqlite: decode list")
	}
	if *out == nil {
		*out = []string{}
	}
	return nil
}
