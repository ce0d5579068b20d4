package persistence

import (
	"context"
	"time"

	"github.com/telcobill/backend/internal/domain/audit"
	"github.com/telcobill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerRepository implements audit.ImportLedger, audit.ErrorReporter and
// audit.ChangeRecorder using GORM. It must be constructed with a session that
// is never enrolled in a caller's transaction (see Database.Session), so a
// rollback of the operation that produced a record does not take the record
// down with it.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// RecordSummary persists a per-run import summary
func (r *GormLedgerRepository) RecordSummary(ctx context.Context, sourceName string, runTime time.Time, recordCount, errorCount int, status audit.RunStatus, message string) error {
	summary := audit.NewImportSummary(sourceName, runTime, recordCount, errorCount, status, message)
	model := models.ImportSummaryModelFromDomain(summary)
	return r.db.WithContext(ctx).Create(model).Error
}

// ListSummaries returns recent run summaries, newest first
func (r *GormLedgerRepository) ListSummaries(ctx context.Context, limit int) ([]audit.ImportSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	var summaryModels []models.ImportSummaryModel
	if err := r.db.WithContext(ctx).
		Order("run_time desc").
		Limit(limit).
		Find(&summaryModels).Error; err != nil {
		return nil, err
	}

	summaries := make([]audit.ImportSummary, len(summaryModels))
	for i, model := range summaryModels {
		summaries[i] = model.ToDomain()
	}
	return summaries, nil
}

// RecordError persists a failure record
func (r *GormLedgerRepository) RecordError(ctx context.Context, entry *audit.ErrorLog) error {
	model := models.ErrorLogModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// ListErrors returns recent failure records, newest first
func (r *GormLedgerRepository) ListErrors(ctx context.Context, limit int) ([]audit.ErrorLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var errorModels []models.ErrorLogModel
	if err := r.db.WithContext(ctx).
		Order("occurred_at desc").
		Limit(limit).
		Find(&errorModels).Error; err != nil {
		return nil, err
	}

	entries := make([]audit.ErrorLog, len(errorModels))
	for i, model := range errorModels {
		entries[i] = model.ToDomain()
	}
	return entries, nil
}

// RecordChange persists an entity change event
func (r *GormLedgerRepository) RecordChange(ctx context.Context, change *audit.EntityChange) error {
	model := models.EntityChangeModelFromDomain(change)
	return r.db.WithContext(ctx).Create(model).Error
}
