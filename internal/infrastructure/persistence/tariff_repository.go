package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/telcobill/backend/internal/domain/shared"
	"github.com/telcobill/backend/internal/domain/tariff"
	"github.com/telcobill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPlanRepository implements tariff.PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// FindByID finds a plan by its ID
func (r *GormPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*tariff.Plan, error) {
	var model models.PlanModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a plan by its natural key
func (r *GormPlanRepository) FindByCode(ctx context.Context, code string) (*tariff.Plan, error) {
	var model models.PlanModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a plan
func (r *GormPlanRepository) Save(ctx context.Context, plan *tariff.Plan) error {
	model := models.PlanModelFromDomain(plan)
	return r.db.WithContext(ctx).Save(model).Error
}

// Count returns the total number of plans
func (r *GormPlanRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PlanModel{}).Count(&count).Error
	return count, err
}

// GormAssignmentRepository implements tariff.AssignmentRepository using GORM
type GormAssignmentRepository struct {
	db *gorm.DB
}

// NewGormAssignmentRepository creates a new GormAssignmentRepository
func NewGormAssignmentRepository(db *gorm.DB) *GormAssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

// FindByID finds an assignment by its ID
func (r *GormAssignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*tariff.Assignment, error) {
	var model models.AssignmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNaturalKey matches on the composite key (msisdn, plan code, start date)
func (r *GormAssignmentRepository) FindByNaturalKey(ctx context.Context, msisdn, planCode string, startDate time.Time) (*tariff.Assignment, error) {
	var model models.AssignmentModel
	if err := r.db.WithContext(ctx).
		Where("msisdn = ? AND plan_code = ? AND start_date = ?", msisdn, planCode, startDate).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySubscriber returns every assignment for the subscriber
func (r *GormAssignmentRepository) FindBySubscriber(ctx context.Context, msisdn string) ([]tariff.Assignment, error) {
	var assignmentModels []models.AssignmentModel
	if err := r.db.WithContext(ctx).
		Where("msisdn = ?", msisdn).
		Order("start_date asc").
		Find(&assignmentModels).Error; err != nil {
		return nil, err
	}

	assignments := make([]tariff.Assignment, len(assignmentModels))
	for i, model := range assignmentModels {
		assignments[i] = *model.ToDomain()
	}
	return assignments, nil
}

// Save creates or updates an assignment
func (r *GormAssignmentRepository) Save(ctx context.Context, assignment *tariff.Assignment) error {
	model := models.AssignmentModelFromDomain(assignment)
	return r.db.WithContext(ctx).Save(model).Error
}

// Count returns the total number of assignments
func (r *GormAssignmentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AssignmentModel{}).Count(&count).Error
	return count, err
}
