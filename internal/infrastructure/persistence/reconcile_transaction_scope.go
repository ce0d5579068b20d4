package persistence

import (
	"context"

	"github.com/telcobill/backend/internal/application/reconcile"
	"github.com/telcobill/backend/internal/domain/subscriber"
	"github.com/telcobill/backend/internal/domain/tariff"
	"github.com/telcobill/backend/internal/domain/usage"
	"gorm.io/gorm"
)

// GormTransactionScope implements reconcile.TransactionScope using GORM
// transactions. Every repository handed to the merge function shares the
// same underlying transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn inside a database transaction, rolling back on error
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos reconcile.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) SubscriberRepo() subscriber.Repository {
	return NewGormSubscriberRepository(r.tx)
}

func (r *gormTransactionalRepositories) PlanRepo() tariff.PlanRepository {
	return NewGormPlanRepository(r.tx)
}

func (r *gormTransactionalRepositories) AssignmentRepo() tariff.AssignmentRepository {
	return NewGormAssignmentRepository(r.tx)
}

func (r *gormTransactionalRepositories) UsageRepo() usage.Repository {
	return NewGormCDRRepository(r.tx)
}

var _ reconcile.TransactionScope = (*GormTransactionScope)(nil)
var _ reconcile.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
