package reconcile

import (
	"context"

	"github.com/telcobill/backend/internal/domain/subscriber"
	"github.com/telcobill/backend/internal/domain/tariff"
	"github.com/telcobill/backend/internal/domain/usage"
)

// TransactionScope provides transactional access to the production
// repositories. Each entity merge executes within one scope so that a
// failure rolls the whole entity back without touching its siblings.
type TransactionScope interface {
	// Execute runs fn within a database transaction. If fn returns an
	// error, the transaction is rolled back; otherwise it is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the production repositories bound to
// the current transaction
type TransactionalRepositories interface {
	SubscriberRepo() subscriber.Repository
	PlanRepo() tariff.PlanRepository
	AssignmentRepo() tariff.AssignmentRepository
	UsageRepo() usage.Repository
}

// NoOpTransactionScope runs merge functions without a real transaction.
// Used in tests.
type NoOpTransactionScope struct {
	subscriberRepo subscriber.Repository
	planRepo       tariff.PlanRepository
	assignmentRepo tariff.AssignmentRepository
	usageRepo      usage.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given
// repositories
func NewNoOpTransactionScope(
	subscriberRepo subscriber.Repository,
	planRepo tariff.PlanRepository,
	assignmentRepo tariff.AssignmentRepository,
	usageRepo usage.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		subscriberRepo: subscriberRepo,
		planRepo:       planRepo,
		assignmentRepo: assignmentRepo,
		usageRepo:      usageRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// SubscriberRepo returns the subscriber repository
func (s *NoOpTransactionScope) SubscriberRepo() subscriber.Repository {
	return s.subscriberRepo
}

// PlanRepo returns the tariff plan repository
func (s *NoOpTransactionScope) PlanRepo() tariff.PlanRepository {
	return s.planRepo
}

// AssignmentRepo returns the plan assignment repository
func (s *NoOpTransactionScope) AssignmentRepo() tariff.AssignmentRepository {
	return s.assignmentRepo
}

// UsageRepo returns the call detail record repository
func (s *NoOpTransactionScope) UsageRepo() usage.Repository {
	return s.usageRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
