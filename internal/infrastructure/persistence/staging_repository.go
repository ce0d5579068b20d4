package persistence

import (
	"context"

	"github.com/telcobill/backend/internal/domain/staging"
	"github.com/telcobill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// insertBatchSize bounds the per-statement row count for staging inserts
const insertBatchSize = 500

// GormStagingRepository implements staging.Repository using GORM
type GormStagingRepository struct {
	db *gorm.DB
}

// NewGormStagingRepository creates a new GormStagingRepository
func NewGormStagingRepository(db *gorm.DB) *GormStagingRepository {
	return &GormStagingRepository{db: db}
}

// InsertSubscribers appends validated subscriber rows to staging
func (r *GormStagingRepository) InsertSubscribers(ctx context.Context, rows []staging.Subscriber) error {
	if len(rows) == 0 {
		return nil
	}
	stagingModels := make([]models.StagingSubscriberModel, len(rows))
	for i, row := range rows {
		stagingModels[i] = models.StagingSubscriberModelFromDomain(row)
	}
	return r.db.WithContext(ctx).CreateInBatches(stagingModels, insertBatchSize).Error
}

// InsertPlans appends validated plan rows to staging
func (r *GormStagingRepository) InsertPlans(ctx context.Context, rows []staging.Plan) error {
	if len(rows) == 0 {
		return nil
	}
	stagingModels := make([]models.StagingPlanModel, len(rows))
	for i, row := range rows {
		stagingModels[i] = models.StagingPlanModelFromDomain(row)
	}
	return r.db.WithContext(ctx).CreateInBatches(stagingModels, insertBatchSize).Error
}

// InsertAssignments appends validated assignment rows to staging
func (r *GormStagingRepository) InsertAssignments(ctx context.Context, rows []staging.Assignment) error {
	if len(rows) == 0 {
		return nil
	}
	stagingModels := make([]models.StagingAssignmentModel, len(rows))
	for i, row := range rows {
		stagingModels[i] = models.StagingAssignmentModelFromDomain(row)
	}
	return r.db.WithContext(ctx).CreateInBatches(stagingModels, insertBatchSize).Error
}

// InsertCDRs appends validated call detail rows to staging
func (r *GormStagingRepository) InsertCDRs(ctx context.Context, rows []staging.CDR) error {
	if len(rows) == 0 {
		return nil
	}
	stagingModels := make([]models.StagingCDRModel, len(rows))
	for i, row := range rows {
		stagingModels[i] = models.StagingCDRModelFromDomain(row)
	}
	return r.db.WithContext(ctx).CreateInBatches(stagingModels, insertBatchSize).Error
}

// ListSubscribers returns all staged subscriber rows in load order
func (r *GormStagingRepository) ListSubscribers(ctx context.Context) ([]staging.Subscriber, error) {
	var stagingModels []models.StagingSubscriberModel
	if err := r.db.WithContext(ctx).Order("id asc").Find(&stagingModels).Error; err != nil {
		return nil, err
	}
	rows := make([]staging.Subscriber, len(stagingModels))
	for i, model := range stagingModels {
		rows[i] = model.ToDomain()
	}
	return rows, nil
}

// ListPlans returns all staged plan rows in load order
func (r *GormStagingRepository) ListPlans(ctx context.Context) ([]staging.Plan, error) {
	var stagingModels []models.StagingPlanModel
	if err := r.db.WithContext(ctx).Order("id asc").Find(&stagingModels).Error; err != nil {
		return nil, err
	}
	rows := make([]staging.Plan, len(stagingModels))
	for i, model := range stagingModels {
		rows[i] = model.ToDomain()
	}
	return rows, nil
}

// ListAssignments returns all staged assignment rows in load order
func (r *GormStagingRepository) ListAssignments(ctx context.Context) ([]staging.Assignment, error) {
	var stagingModels []models.StagingAssignmentModel
	if err := r.db.WithContext(ctx).Order("id asc").Find(&stagingModels).Error; err != nil {
		return nil, err
	}
	rows := make([]staging.Assignment, len(stagingModels))
	for i, model := range stagingModels {
		rows[i] = model.ToDomain()
	}
	return rows, nil
}

// ListCDRs returns all staged call detail rows in load order
func (r *GormStagingRepository) ListCDRs(ctx context.Context) ([]staging.CDR, error) {
	var stagingModels []models.StagingCDRModel
	if err := r.db.WithContext(ctx).Order("id asc").Find(&stagingModels).Error; err != nil {
		return nil, err
	}
	rows := make([]staging.CDR, len(stagingModels))
	for i, model := range stagingModels {
		rows[i] = model.ToDomain()
	}
	return rows, nil
}

// StagedSubscriberMSISDNs returns the distinct subscriber keys in staging
func (r *GormStagingRepository) StagedSubscriberMSISDNs(ctx context.Context) (map[string]bool, error) {
	var msisdns []string
	err := r.db.WithContext(ctx).
		Model(&models.StagingSubscriberModel{}).
		Distinct("msisdn").
		Pluck("msisdn", &msisdns).Error
	if err != nil {
		return nil, err
	}

	staged := make(map[string]bool, len(msisdns))
	for _, m := range msisdns {
		staged[m] = true
	}
	return staged, nil
}

// TruncateAll clears every staging table
func (r *GormStagingRepository) TruncateAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{
			models.StagingSubscriberModel{}.TableName(),
			models.StagingPlanModel{}.TableName(),
			models.StagingAssignmentModel{}.TableName(),
			models.StagingCDRModel{}.TableName(),
		} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
