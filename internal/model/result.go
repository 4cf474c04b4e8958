package model

// Summary aggregates the cost and provenance of one run.
type Summary struct {
	TotalCostUSD    float64  `json:"total_cost_usd"`
	CreditsUsed     int      `json:"credits_used"`
	DurationSeconds float64  `json:"duration_seconds"`
	SourcesUsed     []Source `json:"sources_used"`
}

// Result is the outcome of enriching a single course.
type Result struct {
	Success         bool           `json:"success"`
	CourseName      string         `json:"course_name"`
	StateCode       string         `json:"state_code"`
	CourseID        *int64         `json:"course_id,omitempty"`
	StagingID       string         `json:"staging_id,omitempty"`
	ContactsWritten int            `json:"contacts_written"`
	Summary         Summary        `json:"summary"`
	ValidationFlags []string       `json:"validation_flags"`
	Error           string         `json:"error,omitempty"`
	CanonicalJSON   *CanonicalJSON `json:"canonical_json"`
}
