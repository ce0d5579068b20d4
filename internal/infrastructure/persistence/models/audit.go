package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/telcobill/backend/internal/domain/audit"
)

// ImportSummaryModel is the persistence model for per-run import summaries.
type ImportSummaryModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	SourceName  string          `gorm:"type:varchar(255);not null;index"`
	RunTime     time.Time       `gorm:"not null;index"`
	RecordCount int             `gorm:"not null"`
	ErrorCount  int             `gorm:"not null"`
	Status      audit.RunStatus `gorm:"type:varchar(30);not null"`
	Message     string          `gorm:"type:text"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ImportSummaryModel) TableName() string {
	return "import_summaries"
}

// ToDomain converts the persistence model to a domain ImportSummary.
func (m *ImportSummaryModel) ToDomain() audit.ImportSummary {
	return audit.ImportSummary{
		ID:          m.ID,
		SourceName:  m.SourceName,
		RunTime:     m.RunTime,
		RecordCount: m.RecordCount,
		ErrorCount:  m.ErrorCount,
		Status:      m.Status,
		Message:     m.Message,
	}
}

// ImportSummaryModelFromDomain creates a persistence model from a domain summary.
func ImportSummaryModelFromDomain(s *audit.ImportSummary) *ImportSummaryModel {
	return &ImportSummaryModel{
		ID:          s.ID,
		SourceName:  s.SourceName,
		RunTime:     s.RunTime,
		RecordCount: s.RecordCount,
		ErrorCount:  s.ErrorCount,
		Status:      s.Status,
		Message:     s.Message,
		CreatedAt:   time.Now(),
	}
}

// ErrorLogModel is the persistence model for row-level failure records.
type ErrorLogModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	Process       string    `gorm:"type:varchar(100);not null;index"`
	AffectedTable string    `gorm:"type:varchar(100);not null"`
	OccurredAt    time.Time `gorm:"not null;index"`
	Message       string    `gorm:"type:text;not null"`
	RawRecord     string    `gorm:"type:text"`
	SourceFile    string    `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (ErrorLogModel) TableName() string {
	return "error_logs"
}

// ToDomain converts the persistence model to a domain ErrorLog.
func (m *ErrorLogModel) ToDomain() audit.ErrorLog {
	return audit.ErrorLog{
		ID:            m.ID,
		Process:       m.Process,
		AffectedTable: m.AffectedTable,
		OccurredAt:    m.OccurredAt,
		Message:       m.Message,
		RawRecord:     m.RawRecord,
		SourceFile:    m.SourceFile,
	}
}

// ErrorLogModelFromDomain creates a persistence model from a domain ErrorLog.
func ErrorLogModelFromDomain(e *audit.ErrorLog) *ErrorLogModel {
	return &ErrorLogModel{
		ID:            e.ID,
		Process:       e.Process,
		AffectedTable: e.AffectedTable,
		OccurredAt:    e.OccurredAt,
		Message:       e.Message,
		RawRecord:     e.RawRecord,
		SourceFile:    e.SourceFile,
	}
}

// EntityChangeModel is the persistence model for reconciliation change events.
type EntityChangeModel struct {
	ID         uuid.UUID        `gorm:"type:uuid;primary_key"`
	EntityType string           `gorm:"type:varchar(50);not null;index"`
	EntityKey  string           `gorm:"type:varchar(100);not null;index"`
	Kind       audit.ChangeKind `gorm:"type:varchar(10);not null"`
	Before     string           `gorm:"type:jsonb"`
	After      string           `gorm:"type:jsonb"`
	OccurredAt time.Time        `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (EntityChangeModel) TableName() string {
	return "entity_changes"
}

// ToDomain converts the persistence model to a domain EntityChange.
func (m *EntityChangeModel) ToDomain() audit.EntityChange {
	return audit.EntityChange{
		ID:         m.ID,
		EntityType: m.EntityType,
		EntityKey:  m.EntityKey,
		Kind:       m.Kind,
		Before:     m.Before,
		After:      m.After,
		OccurredAt: m.OccurredAt,
	}
}

// EntityChangeModelFromDomain creates a persistence model from a domain change.
func EntityChangeModelFromDomain(c *audit.EntityChange) *EntityChangeModel {
	return &EntityChangeModel{
		ID:         c.ID,
		EntityType: c.EntityType,
		EntityKey:  c.EntityKey,
		Kind:       c.Kind,
		Before:     c.Before,
		After:      c.After,
		OccurredAt: c.OccurredAt,
	}
}
