package model

import (
	"encoding/json"
	"time"
)

// StagingStatus is the per-run status of a research_staging row.
type StagingStatus string

const (
	StagingPending          StagingStatus = "pending"
	StagingProcessing       StagingStatus = "processing"
	StagingValidated        StagingStatus = "validated"
	StagingValidationFailed StagingStatus = "validation_failed"
	StagingError            StagingStatus = "error"
)

// Terminal reports whether s is a final status.
func (s StagingStatus) Terminal() bool {
	switch s {
	case StagingValidated, StagingValidationFailed, StagingError:
		return true
	}
	return false
}

// CanTransition reports whether a run may move from s to next. Status only
// moves forward: pending -> processing -> terminal. Pending may also fail
// straight to error when setup breaks before processing begins.
func (s StagingStatus) CanTransition(next StagingStatus) bool {
	switch s {
	case StagingPending:
		return next == StagingProcessing || next == StagingError
	case StagingProcessing:
		return next.Terminal()
	}
	return false
}

// StagingRecord is the transient row tracking a single run.
type StagingRecord struct {
	ID              string          `json:"id"`
	CourseName      string          `json:"course_name"`
	StateCode       string          `json:"state_code"`
	V2JSON          json.RawMessage `json:"v2_json,omitempty"`
	Status          StagingStatus   `json:"status"`
	ValidationError string          `json:"validation_error,omitempty"`
	ValidationFlags []string        `json:"validation_flags,omitempty"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
