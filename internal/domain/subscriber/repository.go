package subscriber

import (
	"context"

	"github.com/google/uuid"
	"github.com/telcobill/backend/internal/domain/shared"
)

// Repository defines persistence operations for subscribers
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Subscriber, error)
	FindByMSISDN(ctx context.Context, msisdn string) (*Subscriber, error)
	FindByStatus(ctx context.Context, status Status, filter shared.Filter) ([]Subscriber, error)
	// FindActiveMSISDNs returns the natural keys of every ACTIVE subscriber,
	// ordered by MSISDN. Used by the monthly billing driver.
	FindActiveMSISDNs(ctx context.Context) ([]string, error)
	// ExistingMSISDNs filters the given keys down to those present in the
	// production store. Used by the loader's referential gate.
	ExistingMSISDNs(ctx context.Context, msisdns []string) (map[string]bool, error)
	Save(ctx context.Context, sub *Subscriber) error
	Count(ctx context.Context) (int64, error)
}
