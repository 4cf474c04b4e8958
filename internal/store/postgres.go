package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/course-intel/internal/db"
	"github.com/sells-group/course-intel/internal/model"
)

// PostgresStore implements Store using pgxpool. CommitEnrichment runs in a
// single transaction.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	tables  Tables
	stmts   statements
	syncSeq string
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool writing to the
// given table family.
func NewPostgres(ctx context.Context, connString string, tables Tables, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	s, err := newPostgresStore(pool, tables)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresStore(pool db.Pool, tables Tables) (*PostgresStore, error) {
	stmts, err := buildStatements(tables, db.Dollar)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build statements")
	}
	// Explicit-id upserts bypass the BIGSERIAL default, so the sequence is
	// moved past them before a later insert can collide.
	courses := pgx.Identifier{tables.Courses}.Sanitize()
	syncSeq := fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST((SELECT MAX(id) FROM %s), 1))`,
		courses, courses)
	return &PostgresStore{pool: pool, closeFn: pool.Close, tables: tables, stmts: stmts, syncSeq: syncSeq}, nil
}

// pgQuerier is satisfied by both the pool and a transaction.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL(postgresSchema))
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateStaging(ctx context.Context, course model.CourseIdentity) (*model.StagingRecord, error) {
	if _, err := s.pool.Exec(ctx, s.stmts.deleteStale, staleArgs(course)...); err != nil {
		return nil, eris.Wrapf(err, "postgres: delete stale staging for %s", course.Name)
	}

	rec := &model.StagingRecord{
		ID:         uuid.New().String(),
		CourseName: course.Name,
		StateCode:  course.StateCode,
		Status:     model.StagingPending,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, s.stmts.insertStaging,
		rec.ID, rec.CourseName, rec.StateCode, string(rec.Status), rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert staging")
	}
	return rec, nil
}

func (s *PostgresStore) UpdateStagingStatus(ctx context.Context, id string, status model.StagingStatus) error {
	tag, err := s.pool.Exec(ctx, s.stmts.updateStatus, string(status), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: update staging status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: staging %s", id)
	}
	return nil
}

func (s *PostgresStore) FinishStaging(ctx context.Context, id string, u StagingUpdate) error {
	return s.finishStaging(ctx, s.pool, id, u)
}

func (s *PostgresStore) finishStaging(ctx context.Context, q pgQuerier, id string, u StagingUpdate) error {
	flags, err := nativeList(u.Flags)
	if err != nil {
		return eris.Wrapf(err, "postgres: encode flags for staging %s", id)
	}
	tag, err := q.Exec(ctx, s.stmts.finishStaging,
		string(u.Status), docOrNil(u.Document), nullIfEmpty(u.Error), flags, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish staging %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: staging %s", id)
	}
	return nil
}

func (s *PostgresStore) GetStaging(ctx context.Context, id string) (*model.StagingRecord, error) {
	var (
		rec     model.StagingRecord
		doc     *string
		errText *string
		status  string
	)
	err := s.pool.QueryRow(ctx, s.stmts.getStaging, id).Scan(
		&rec.ID, &rec.CourseName, &rec.StateCode, &doc, &status, &errText,
		&rec.ValidationFlags, &rec.ProcessedAt, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: staging %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get staging %s", id)
	}
	rec.Status = model.StagingStatus(status)
	if doc != nil {
		rec.V2JSON = []byte(*doc)
	}
	if errText != nil {
		rec.ValidationError = *errText
	}
	return &rec, nil
}

func (s *PostgresStore) CommitEnrichment(ctx context.Context, c Commit) (*CommitResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: commit: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	courseID, err := s.writeCourse(ctx, tx, c.Course)
	if err != nil {
		return nil, err
	}

	for _, rec := range c.Contacts {
		rec.CourseID = courseID
		args, err := contactValues(rec, nativeList)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, s.stmts.upsertContact, args...); err != nil {
			return nil, eris.Wrapf(err, "postgres: upsert contact %q", rec.ContactName)
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

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit: commit tx")
	}
	return &CommitResult{CourseID: courseID, ContactsWritten: len(c.Contacts)}, nil
}

// writeCourse updates the course in place when its id is known (directly or
// by name and state), otherwise inserts it and returns the new id.
func (s *PostgresStore) writeCourse(ctx context.Context, q pgQuerier, rec model.CourseRecord) (int64, error) {
	if rec.ID == 0 {
		err := q.QueryRow(ctx, s.stmts.findCourse, rec.Name, rec.StateCode).Scan(&rec.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return 0, eris.Wrapf(err, "postgres: find course %s", rec.Name)
		}
	}

	args, err := courseValues(rec, nativeList)
	if err != nil {
		return 0, err
	}

	if rec.ID == 0 {
		var id int64
		if err := q.QueryRow(ctx, s.stmts.insertCourse, args...).Scan(&id); err != nil {
			return 0, eris.Wrapf(err, "postgres: insert course %s", rec.Name)
		}
		return id, nil
	}

	if _, err := q.Exec(ctx, s.stmts.upsertCourse, append([]any{rec.ID}, args...)...); err != nil {
		return 0, eris.Wrapf(err, "postgres: upsert course %d", rec.ID)
	}
	if _, err := q.Exec(ctx, s.syncSeq); err != nil {
		return 0, eris.Wrapf(err, "postgres: sync course id sequence after %d", rec.ID)
	}
	return rec.ID, nil
}

func (s *PostgresStore) GetCourse(ctx context.Context, id int64) (*model.CourseRecord, error) {
	var (
		rec model.CourseRecord
		doc string
	)
	err := s.pool.QueryRow(ctx, s.stmts.getCourse, id).Scan(
		&rec.ID, &rec.Name, &rec.City, &rec.StateCode, &rec.Website,
		&rec.Tier, &rec.TierConfidence,
		&rec.WaterHazardRating, &rec.WaterHazardCount,
		&rec.AnnualRoundsEstimate, &rec.AnnualRoundsRange,
		&rec.Ownership,
		&doc, &rec.ValidationFlags,
		&rec.EnrichmentStatus, &rec.EnrichmentCompletedAt,
		&rec.EnrichmentCostUSD, &rec.EnrichmentCreditsUsed, &rec.EnrichmentSources,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: course %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get course %d", id)
	}
	rec.ResearchJSON = []byte(doc)
	return &rec, nil
}

func (s *PostgresStore) FindCourse(ctx context.Context, name, stateCode string) (*model.CourseRecord, error) {
	var id int64
	err := s.pool.QueryRow(ctx, s.stmts.findCourse, name, stateCode).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: course %s, %s", name, stateCode)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find course %s", name)
	}
	return s.GetCourse(ctx, id)
}

func (s *PostgresStore) ListContacts(ctx context.Context, courseID int64) ([]model.ContactRecord, error) {
	rows, err := s.pool.Query(ctx, s.stmts.listContacts, courseID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list contacts %d", courseID)
	}
	defer rows.Close()

	var out []model.ContactRecord
	for rows.Next() {
		var rec model.ContactRecord
		if err := rows.Scan(
			&rec.ID, &rec.CourseID, &rec.ContactName, &rec.ContactTitle, &rec.ContactEmail,
			&rec.EmailConfidence, &rec.EmailMethod, &rec.LinkedInURL, &rec.ContactPhone,
			&rec.TenureYears, &rec.ContactSources, &rec.PersonID,
			&rec.EmploymentVerified, &rec.NeedsEnrichment, &rec.EnrichedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list contacts iterate")
}
