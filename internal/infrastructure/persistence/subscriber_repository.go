package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/telcobill/backend/internal/domain/shared"
	"github.com/telcobill/backend/internal/domain/subscriber"
	"github.com/telcobill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSubscriberRepository implements subscriber.Repository using GORM
type GormSubscriberRepository struct {
	db *gorm.DB
}

// NewGormSubscriberRepository creates a new GormSubscriberRepository
func NewGormSubscriberRepository(db *gorm.DB) *GormSubscriberRepository {
	return &GormSubscriberRepository{db: db}
}

// FindByID finds a subscriber by its ID
func (r *GormSubscriberRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscriber.Subscriber, error) {
	var model models.SubscriberModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrSubscriberNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMSISDN finds a subscriber by its natural key
func (r *GormSubscriberRepository) FindByMSISDN(ctx context.Context, msisdn string) (*subscriber.Subscriber, error) {
	var model models.SubscriberModel
	if err := r.db.WithContext(ctx).Where("msisdn = ?", msisdn).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrSubscriberNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStatus finds subscribers in the given lifecycle state
func (r *GormSubscriberRepository) FindByStatus(ctx context.Context, status subscriber.Status, filter shared.Filter) ([]subscriber.Subscriber, error) {
	var subscriberModels []models.SubscriberModel
	query := r.db.WithContext(ctx).
		Model(&models.SubscriberModel{}).
		Where("status = ?", status).
		Order("msisdn asc")

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset((filter.Page - 1) * filter.PageSize)
	}

	if err := query.Find(&subscriberModels).Error; err != nil {
		return nil, err
	}

	subscribers := make([]subscriber.Subscriber, len(subscriberModels))
	for i, model := range subscriberModels {
		subscribers[i] = *model.ToDomain()
	}
	return subscribers, nil
}

// FindActiveMSISDNs returns the natural keys of every ACTIVE subscriber,
// ordered so scope batches are deterministic across runs
func (r *GormSubscriberRepository) FindActiveMSISDNs(ctx context.Context) ([]string, error) {
	var msisdns []string
	err := r.db.WithContext(ctx).
		Model(&models.SubscriberModel{}).
		Where("status = ?", subscriber.StatusActive).
		Order("msisdn asc").
		Pluck("msisdn", &msisdns).Error
	if err != nil {
		return nil, err
	}
	return msisdns, nil
}

// ExistingMSISDNs filters the given keys down to those present in production
func (r *GormSubscriberRepository) ExistingMSISDNs(ctx context.Context, msisdns []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(msisdns))
	if len(msisdns) == 0 {
		return existing, nil
	}

	// Chunk the IN clause so arbitrarily large extracts stay under
	// parameter limits
	const chunkSize = 1000
	for start := 0; start < len(msisdns); start += chunkSize {
		end := start + chunkSize
		if end > len(msisdns) {
			end = len(msisdns)
		}

		var found []string
		err := r.db.WithContext(ctx).
			Model(&models.SubscriberModel{}).
			Where("msisdn IN ?", msisdns[start:end]).
			Pluck("msisdn", &found).Error
		if err != nil {
			return nil, err
		}
		for _, m := range found {
			existing[m] = true
		}
	}
	return existing, nil
}

// Save creates or updates a subscriber
func (r *GormSubscriberRepository) Save(ctx context.Context, sub *subscriber.Subscriber) error {
	model := models.SubscriberModelFromDomain(sub)
	return r.db.WithContext(ctx).Save(model).Error
}

// Count returns the total number of subscribers
func (r *GormSubscriberRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SubscriberModel{}).Count(&count).Error
	return count, err
}
