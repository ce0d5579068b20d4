// Package audit holds the durable operational trail: per-run import
// summaries, row-level error logs, and entity change events. Records are
// written once and never updated, and their persistence is decoupled from
// the outcome of the operation that produced them.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus summarizes the outcome of a batch operation
type RunStatus string

const (
	RunStatusSuccess             RunStatus = "SUCCESS"
	RunStatusCompletedWithErrors RunStatus = "COMPLETED_WITH_ERRORS"
	RunStatusFailure             RunStatus = "FAILURE"
	RunStatusPartialSuccess      RunStatus = "PARTIAL_SUCCESS"
)

// IsValid checks if the status is one of the enumerated values
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusSuccess, RunStatusCompletedWithErrors, RunStatusFailure, RunStatusPartialSuccess:
		return true
	}
	return false
}

// StatusForCounts derives the per-entity load status from its counters
func StatusForCounts(errorCount int) RunStatus {
	if errorCount > 0 {
		return RunStatusCompletedWithErrors
	}
	return RunStatusSuccess
}

// ImportSummary is one per-run statistics record
type ImportSummary struct {
	ID          uuid.UUID
	SourceName  string
	RunTime     time.Time
	RecordCount int
	ErrorCount  int
	Status      RunStatus
	Message     string
}

// NewImportSummary creates a summary record
func NewImportSummary(sourceName string, runTime time.Time, recordCount, errorCount int, status RunStatus, message string) *ImportSummary {
	return &ImportSummary{
		ID:          uuid.New(),
		SourceName:  sourceName,
		RunTime:     runTime,
		RecordCount: recordCount,
		ErrorCount:  errorCount,
		Status:      status,
		Message:     message,
	}
}

// ErrorLog is one row-level or run-level failure record
type ErrorLog struct {
	ID            uuid.UUID
	Process       string
	AffectedTable string
	OccurredAt    time.Time
	Message       string
	RawRecord     string
	SourceFile    string
}

// NewErrorLog creates an error log record
func NewErrorLog(process, affectedTable, message string) *ErrorLog {
	return &ErrorLog{
		ID:            uuid.New(),
		Process:       process,
		AffectedTable: affectedTable,
		OccurredAt:    time.Now(),
		Message:       message,
	}
}

// WithRawRecord attaches the offending row's textual form
func (e *ErrorLog) WithRawRecord(raw string) *ErrorLog {
	e.RawRecord = raw
	return e
}

// WithSourceFile attaches the extract file name
func (e *ErrorLog) WithSourceFile(name string) *ErrorLog {
	e.SourceFile = name
	return e
}

// ChangeKind classifies an entity mutation captured during reconciliation
type ChangeKind string

const (
	ChangeKindInsert ChangeKind = "INSERT"
	ChangeKindUpdate ChangeKind = "UPDATE"
)

// EntityChange is an explicit audit event written at the point of mutation,
// carrying before/after snapshots of the affected entity.
type EntityChange struct {
	ID         uuid.UUID
	EntityType string
	EntityKey  string
	Kind       ChangeKind
	Before     string
	After      string
	OccurredAt time.Time
}

// NewEntityChange creates an entity change record. Before is empty for inserts.
func NewEntityChange(entityType, entityKey string, kind ChangeKind, before, after string) *EntityChange {
	return &EntityChange{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityKey:  entityKey,
		Kind:       kind,
		Before:     before,
		After:      after,
		OccurredAt: time.Now(),
	}
}
