package tariff

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PlanRepository defines persistence operations for tariff plans
type PlanRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	FindByCode(ctx context.Context, code string) (*Plan, error)
	Save(ctx context.Context, plan *Plan) error
	Count(ctx context.Context) (int64, error)
}

// AssignmentRepository defines persistence operations for plan assignments
type AssignmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	// FindByNaturalKey matches on the composite key (msisdn, plan code,
	// start date). Returns shared.ErrNotFound when absent.
	FindByNaturalKey(ctx context.Context, msisdn, planCode string, startDate time.Time) (*Assignment, error)
	// FindBySubscriber returns every assignment for the subscriber,
	// regardless of temporal state.
	FindBySubscriber(ctx context.Context, msisdn string) ([]Assignment, error)
	Save(ctx context.Context, assignment *Assignment) error
	Count(ctx context.Context) (int64, error)
}
