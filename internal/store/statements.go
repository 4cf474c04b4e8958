package store

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sells-group/course-intel/internal/db"
	"github.com/sells-group/course-intel/internal/model"
)

// statements are the SQL texts shared by the Postgres and SQLite stores,
// resolved against one table family and one placeholder style.
type statements struct {
	deleteStale   string
	insertStaging string
	updateStatus  string
	finishStaging string
	getStaging    string

	findCourse    string
	insertCourse  string
	upsertCourse  string
	upsertContact string
	getCourse     string
	listContacts  string
}

const stagingSelect = `id, course_name, state_code, v2_json, status, validation_error, validation_flags, processed_at, created_at`

func buildStatements(t Tables, ph db.Placeholder) (statements, error) {
	courses := pgx.Identifier{t.Courses}.Sanitize()
	contacts := pgx.Identifier{t.Contacts}.Sanitize()
	staging := pgx.Identifier{t.Staging}.Sanitize()

	upsertCourse, err := db.UpsertSQL(db.UpsertConfig{
		Table:        t.Courses,
		Columns:      append([]string{"id"}, courseColumns...),
		ConflictKeys: []string{"id"},
	}, ph)
	if err != nil {
		return statements{}, err
	}
	upsertContact, err := db.UpsertSQL(db.UpsertConfig{
		Table:        t.Contacts,
		Columns:      contactColumns,
		ConflictKeys: []string{"course_id", "contact_name"},
	}, ph)
	if err != nil {
		return statements{}, err
	}

	return statements{
		deleteStale: fmt.Sprintf(`DELETE FROM %s WHERE course_name = %s AND state_code = %s AND status IN (%s, %s)`,
			staging, ph(1), ph(2), ph(3), ph(4)),
		insertStaging: fmt.Sprintf(`INSERT INTO %s (id, course_name, state_code, status, created_at) VALUES (%s)`,
			staging, params(ph, 5)),
		updateStatus: fmt.Sprintf(`UPDATE %s SET status = %s WHERE id = %s`, staging, ph(1), ph(2)),
		finishStaging: fmt.Sprintf(`UPDATE %s SET status = %s, v2_json = %s, validation_error = %s, validation_flags = %s, processed_at = %s WHERE id = %s`,
			staging, ph(1), ph(2), ph(3), ph(4), ph(5), ph(6)),
		getStaging: fmt.Sprintf(`SELECT %s FROM %s WHERE id = %s`, stagingSelect, staging, ph(1)),

		findCourse: fmt.Sprintf(`SELECT id FROM %s WHERE course_name = %s AND state_code = %s ORDER BY id LIMIT 1`,
			courses, ph(1), ph(2)),
		insertCourse: fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id`,
			courses, strings.Join(courseColumns, ", "), params(ph, len(courseColumns))),
		upsertCourse:  upsertCourse,
		upsertContact: upsertContact,
		getCourse: fmt.Sprintf(`SELECT id, %s FROM %s WHERE id = %s`,
			strings.Join(courseColumns, ", "), courses, ph(1)),
		listContacts: fmt.Sprintf(`SELECT id, %s FROM %s WHERE course_id = %s ORDER BY id`,
			strings.Join(contactColumns, ", "), contacts, ph(1)),
	}, nil
}

func params(ph db.Placeholder, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = ph(i + 1)
	}
	return strings.Join(out, ", ")
}

func staleArgs(course model.CourseIdentity) []any {
	return []any{course.Name, course.StateCode, string(staleStatuses[0]), string(staleStatuses[1])}
}
