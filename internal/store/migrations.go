package store

import (
	"fmt"
	"strings"
)

// postgresSchema is formatted with courses, contacts, staging table names.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id                      BIGSERIAL PRIMARY KEY,
	course_name             TEXT NOT NULL,
	city                    TEXT NOT NULL DEFAULT '',
	state_code              TEXT NOT NULL,
	website                 TEXT NOT NULL DEFAULT '',
	tier                    TEXT NOT NULL DEFAULT '',
	tier_confidence         DOUBLE PRECISION NOT NULL DEFAULT 0,
	water_hazard_rating     TEXT NOT NULL DEFAULT '',
	water_hazard_count      INTEGER,
	annual_rounds_estimate  INTEGER,
	annual_rounds_range     TEXT NOT NULL DEFAULT '',
	ownership               TEXT NOT NULL DEFAULT '',
	v2_research_json        JSONB NOT NULL DEFAULT '{}',
	v2_validation_flags     TEXT[] NOT NULL DEFAULT '{}',
	enrichment_status       TEXT NOT NULL DEFAULT '',
	enrichment_completed_at TIMESTAMPTZ,
	enrichment_cost_usd     DOUBLE PRECISION NOT NULL DEFAULT 0,
	enrichment_credits_used INTEGER NOT NULL DEFAULT 0,
	enrichment_sources      TEXT[] NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_name_state ON %[1]s(course_name, state_code);

CREATE TABLE IF NOT EXISTS %[2]s (
	id                  BIGSERIAL PRIMARY KEY,
	course_id           BIGINT NOT NULL REFERENCES %[1]s(id),
	contact_name        TEXT NOT NULL,
	contact_title       TEXT NOT NULL DEFAULT '',
	contact_email       TEXT NOT NULL DEFAULT '',
	email_confidence    INTEGER NOT NULL DEFAULT 0,
	email_method        TEXT NOT NULL DEFAULT '',
	linkedin_url        TEXT NOT NULL DEFAULT '',
	contact_phone       TEXT NOT NULL DEFAULT '',
	tenure_years        DOUBLE PRECISION,
	contact_sources     TEXT[] NOT NULL DEFAULT '{}',
	person_id           TEXT NOT NULL DEFAULT '',
	employment_verified BOOLEAN NOT NULL DEFAULT false,
	needs_enrichment    BOOLEAN NOT NULL DEFAULT true,
	enriched_at         TIMESTAMPTZ,
	UNIQUE (course_id, contact_name)
);

CREATE INDEX IF NOT EXISTS idx_%[2]s_enriched_at ON %[2]s(enriched_at);

CREATE TABLE IF NOT EXISTS %[3]s (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	course_name      TEXT NOT NULL,
	state_code       TEXT NOT NULL,
	v2_json          JSONB,
	status           TEXT NOT NULL DEFAULT 'pending',
	validation_error TEXT,
	validation_flags TEXT[] NOT NULL DEFAULT '{}',
	processed_at     TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_%[3]s_identity ON %[3]s(course_name, state_code, status);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id                      INTEGER PRIMARY KEY AUTOINCREMENT,
	course_name             TEXT NOT NULL,
	city                    TEXT NOT NULL DEFAULT '',
	state_code              TEXT NOT NULL,
	website                 TEXT NOT NULL DEFAULT '',
	tier                    TEXT NOT NULL DEFAULT '',
	tier_confidence         REAL NOT NULL DEFAULT 0,
	water_hazard_rating     TEXT NOT NULL DEFAULT '',
	water_hazard_count      INTEGER,
	annual_rounds_estimate  INTEGER,
	annual_rounds_range     TEXT NOT NULL DEFAULT '',
	ownership               TEXT NOT NULL DEFAULT '',
	v2_research_json        TEXT NOT NULL DEFAULT '{}',
	v2_validation_flags     TEXT NOT NULL DEFAULT '[]',
	enrichment_status       TEXT NOT NULL DEFAULT '',
	enrichment_completed_at DATETIME,
	enrichment_cost_usd     REAL NOT NULL DEFAULT 0,
	enrichment_credits_used INTEGER NOT NULL DEFAULT 0,
	enrichment_sources      TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_name_state ON %[1]s(course_name, state_code);

CREATE TABLE IF NOT EXISTS %[2]s (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	course_id           INTEGER NOT NULL REFERENCES %[1]s(id),
	contact_name        TEXT NOT NULL,
	contact_title       TEXT NOT NULL DEFAULT '',
	contact_email       TEXT NOT NULL DEFAULT '',
	email_confidence    INTEGER NOT NULL DEFAULT 0,
	email_method        TEXT NOT NULL DEFAULT '',
	linkedin_url        TEXT NOT NULL DEFAULT '',
	contact_phone       TEXT NOT NULL DEFAULT '',
	tenure_years        REAL,
	contact_sources     TEXT NOT NULL DEFAULT '[]',
	person_id           TEXT NOT NULL DEFAULT '',
	employment_verified INTEGER NOT NULL DEFAULT 0,
	needs_enrichment    INTEGER NOT NULL DEFAULT 1,
	enriched_at         DATETIME,
	UNIQUE (course_id, contact_name)
);

CREATE TABLE IF NOT EXISTS %[3]s (
	id               TEXT PRIMARY KEY,
	course_name      TEXT NOT NULL,
	state_code       TEXT NOT NULL,
	v2_json          TEXT,
	status           TEXT NOT NULL DEFAULT 'pending',
	validation_error TEXT,
	validation_flags TEXT NOT NULL DEFAULT '[]',
	processed_at     DATETIME,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_%[3]s_identity ON %[3]s(course_name, state_code, status);
`

// migrationSQL renders schema for both the production and *_test families.
func migrationSQL(schema string) string {
	var b strings.Builder
	for _, t := range []Tables{TablesFor(false), TablesFor(true)} {
		fmt.Fprintf(&b, schema, t.Courses, t.Contacts, t.Staging)
	}
	return b.String()
}
