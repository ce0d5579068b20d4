package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	stagingapp "github.com/telcobill/backend/internal/application/staging"
	"github.com/telcobill/backend/internal/domain/audit"
	"github.com/telcobill/backend/internal/domain/shared"
	"github.com/telcobill/backend/internal/domain/staging"
	"github.com/telcobill/backend/internal/domain/subscriber"
	"github.com/telcobill/backend/internal/domain/tariff"
	"github.com/telcobill/backend/internal/domain/usage"
	"go.uber.org/zap"
)

// MockStagingRepository is a mock implementation of staging.Repository
type MockStagingRepository struct {
	mock.Mock
}

func (m *MockStagingRepository) InsertSubscribers(ctx context.Context, rows []staging.Subscriber) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockStagingRepository) InsertPlans(ctx context.Context, rows []staging.Plan) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockStagingRepository) InsertAssignments(ctx context.Context, rows []staging.Assignment) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockStagingRepository) InsertCDRs(ctx context.Context, rows []staging.CDR) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockStagingRepository) ListSubscribers(ctx context.Context) ([]staging.Subscriber, error) {
	args := m.Called(ctx)
	return args.Get(0).([]staging.Subscriber), args.Error(1)
}

func (m *MockStagingRepository) ListPlans(ctx context.Context) ([]staging.Plan, error) {
	args := m.Called(ctx)
	return args.Get(0).([]staging.Plan), args.Error(1)
}

func (m *MockStagingRepository) ListAssignments(ctx context.Context) ([]staging.Assignment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]staging.Assignment), args.Error(1)
}

func (m *MockStagingRepository) ListCDRs(ctx context.Context) ([]staging.CDR, error) {
	args := m.Called(ctx)
	return args.Get(0).([]staging.CDR), args.Error(1)
}

func (m *MockStagingRepository) StagedSubscriberMSISDNs(ctx context.Context) (map[string]bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockStagingRepository) TruncateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSubscriberRepository is a mock implementation of subscriber.Repository
type MockSubscriberRepository struct {
	mock.Mock
}

func (m *MockSubscriberRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscriber.Subscriber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriber.Subscriber), args.Error(1)
}

func (m *MockSubscriberRepository) FindByMSISDN(ctx context.Context, msisdn string) (*subscriber.Subscriber, error) {
	args := m.Called(ctx, msisdn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriber.Subscriber), args.Error(1)
}

func (m *MockSubscriberRepository) FindByStatus(ctx context.Context, status subscriber.Status, filter shared.Filter) ([]subscriber.Subscriber, error) {
	args := m.Called(ctx, status, filter)
	return args.Get(0).([]subscriber.Subscriber), args.Error(1)
}

func (m *MockSubscriberRepository) FindActiveMSISDNs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSubscriberRepository) ExistingMSISDNs(ctx context.Context, msisdns []string) (map[string]bool, error) {
	args := m.Called(ctx, msisdns)
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockSubscriberRepository) Save(ctx context.Context, sub *subscriber.Subscriber) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriberRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockPlanRepository is a mock implementation of tariff.PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*tariff.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tariff.Plan), args.Error(1)
}

func (m *MockPlanRepository) FindByCode(ctx context.Context, code string) (*tariff.Plan, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tariff.Plan), args.Error(1)
}

func (m *MockPlanRepository) Save(ctx context.Context, plan *tariff.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockAssignmentRepository is a mock implementation of tariff.AssignmentRepository
type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*tariff.Assignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tariff.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) FindByNaturalKey(ctx context.Context, msisdn, planCode string, startDate time.Time) (*tariff.Assignment, error) {
	args := m.Called(ctx, msisdn, planCode, startDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tariff.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) FindBySubscriber(ctx context.Context, msisdn string) ([]tariff.Assignment, error) {
	args := m.Called(ctx, msisdn)
	return args.Get(0).([]tariff.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) Save(ctx context.Context, assignment *tariff.Assignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockUsageRepository is a mock implementation of usage.Repository
type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Exists(ctx context.Context, msisdn string, callType usage.CallType, start, end time.Time) (bool, error) {
	args := m.Called(ctx, msisdn, callType, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsageRepository) Insert(ctx context.Context, cdr *usage.CallDetailRecord) error {
	args := m.Called(ctx, cdr)
	return args.Error(0)
}

func (m *MockUsageRepository) AggregateForPeriod(ctx context.Context, msisdn string, start, end time.Time) (*usage.UsageTotals, error) {
	args := m.Called(ctx, msisdn, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usage.UsageTotals), args.Error(1)
}

func (m *MockUsageRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockImportLedger is a mock implementation of audit.ImportLedger
type MockImportLedger struct {
	mock.Mock
}

func (m *MockImportLedger) RecordSummary(ctx context.Context, sourceName string, runTime time.Time, recordCount, errorCount int, status audit.RunStatus, message string) error {
	args := m.Called(ctx, sourceName, runTime, recordCount, errorCount, status, message)
	return args.Error(0)
}

func (m *MockImportLedger) ListSummaries(ctx context.Context, limit int) ([]audit.ImportSummary, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]audit.ImportSummary), args.Error(1)
}

// MockErrorReporter is a mock implementation of audit.ErrorReporter
type MockErrorReporter struct {
	mock.Mock
}

func (m *MockErrorReporter) RecordError(ctx context.Context, entry *audit.ErrorLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockErrorReporter) ListErrors(ctx context.Context, limit int) ([]audit.ErrorLog, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]audit.ErrorLog), args.Error(1)
}

// MockChangeRecorder is a mock implementation of audit.ChangeRecorder
type MockChangeRecorder struct {
	mock.Mock
}

func (m *MockChangeRecorder) RecordChange(ctx context.Context, change *audit.EntityChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

type fixtures struct {
	stagingRepo    *MockStagingRepository
	subscriberRepo *MockSubscriberRepository
	planRepo       *MockPlanRepository
	assignmentRepo *MockAssignmentRepository
	usageRepo      *MockUsageRepository
	ledger         *MockImportLedger
	reporter       *MockErrorReporter
	changes        *MockChangeRecorder
	svc            *Service
}

func newFixtures() *fixtures {
	f := &fixtures{
		stagingRepo:    new(MockStagingRepository),
		subscriberRepo: new(MockSubscriberRepository),
		planRepo:       new(MockPlanRepository),
		assignmentRepo: new(MockAssignmentRepository),
		usageRepo:      new(MockUsageRepository),
		ledger:         new(MockImportLedger),
		reporter:       new(MockErrorReporter),
		changes:        new(MockChangeRecorder),
	}
	scope := NewNoOpTransactionScope(f.subscriberRepo, f.planRepo, f.assignmentRepo, f.usageRepo)
	f.svc = NewService(scope, f.stagingRepo, f.ledger, f.reporter, f.changes, zap.NewNop())
	return f
}

func stagedSubscriber(msisdn, firstName, status string) staging.Subscriber {
	return staging.Subscriber{
		MSISDN:       msisdn,
		FirstName:    firstName,
		LastName:     "Nkosi",
		RegisteredAt: time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC),
		Status:       status,
	}
}

func TestReconcileEntity_SubscriberInsert(t *testing.T) {
	f := newFixtures()
	f.stagingRepo.On("ListSubscribers", mock.Anything).Return([]staging.Subscriber{
		stagedSubscriber("+27821234567", "Thandi", "ACTIVE"),
	}, nil)
	f.subscriberRepo.On("FindByMSISDN", mock.Anything, "+27821234567").Return(nil, shared.ErrSubscriberNotFound)
	f.subscriberRepo.On("Save", mock.Anything, mock.MatchedBy(func(s *subscriber.Subscriber) bool {
		return s.MSISDN.String() == "+27821234567" && s.FirstName == "Thandi"
	})).Return(nil)
	f.changes.On("RecordChange", mock.Anything, mock.MatchedBy(func(c *audit.EntityChange) bool {
		return c.Kind == audit.ChangeKindInsert && c.EntityKey == "+27821234567" && c.Before == ""
	})).Return(nil)
	f.ledger.On("RecordSummary", mock.Anything, "reconcile_subscribers", mock.Anything, 1, 0, audit.RunStatusSuccess, mock.Anything).Return(nil)

	result, err := f.svc.ReconcileEntity(context.Background(), stagingapp.EntitySubscribers)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Zero(t, result.Updated)
	f.subscriberRepo.AssertExpectations(t)
	f.changes.AssertExpectations(t)
}

func TestReconcileEntity_SubscriberOverwrite(t *testing.T) {
	f := newFixtures()
	f.stagingRepo.On("ListSubscribers", mock.Anything).Return([]staging.Subscriber{
		stagedSubscriber("+27821234567", "Thandiwe", "SUSPENDED"),
	}, nil)

	existing, _ := subscriber.NewSubscriber("+27821234567", "Thandi", "Nkosi", subscriber.StatusActive)
	existing.SetRegisteredAt(time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC))
	f.subscriberRepo.On("FindByMSISDN", mock.Anything, "+27821234567").Return(existing, nil)
	f.subscriberRepo.On("Save", mock.Anything, mock.MatchedBy(func(s *subscriber.Subscriber) bool {
		return s.FirstName == "Thandiwe" && s.Status == subscriber.StatusSuspended
	})).Return(nil)
	f.changes.On("RecordChange", mock.Anything, mock.MatchedBy(func(c *audit.EntityChange) bool {
		return c.Kind == audit.ChangeKindUpdate && c.Before != "" && c.Before != c.After
	})).Return(nil)
	f.ledger.On("RecordSummary", mock.Anything, "reconcile_subscribers", mock.Anything, 1, 0, audit.RunStatusSuccess, mock.Anything).Return(nil)

	result, err := f.svc.ReconcileEntity(context.Background(), stagingapp.EntitySubscribers)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	f.subscriberRepo.AssertExpectations(t)
	f.changes.AssertExpectations(t)
}

func TestReconcileEntity_SubscriberUnchangedSkipsSave(t *testing.T) {
	f := newFixtures()
	f.stagingRepo.On("ListSubscribers", mock.Anything).Return([]staging.Subscriber{
		stagedSubscriber("+27821234567", "Thandi", "ACTIVE"),
	}, nil)

	existing, _ := subscriber.NewSubscriber("+27821234567", "Thandi", "Nkosi", subscriber.StatusActive)
	existing.SetRegisteredAt(time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC))
	f.subscriberRepo.On("FindByMSISDN", mock.Anything, "+27821234567").Return(existing, nil)
	f.ledger.On("RecordSummary", mock.Anything, "reconcile_subscribers", mock.Anything, 1, 0, audit.RunStatusSuccess, mock.Anything).Return(nil)

	result, err := f.svc.ReconcileEntity(context.Background(), stagingapp.EntitySubscribers)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Unchanged)
	f.subscriberRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.changes.AssertNotCalled(t, "RecordChange", mock.Anything, mock.Anything)
}

func TestReconcileEntity_AssignmentEndDateOnlyUpdate(t *testing.T) {
	f := newFixtures()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	f.stagingRepo.On("ListAssignments", mock.Anything).Return([]staging.Assignment{
		{MSISDN: "+27821234567", PlanCode: "GOLD-50", StartDate: start, EndDate: &end},
	}, nil)

	existing, _ := tariff.NewAssignment("+27821234567", "GOLD-50", start)
	f.assignmentRepo.On("FindByNaturalKey", mock.Anything, "+27821234567", "GOLD-50", start).Return(existing, nil)
	f.assignmentRepo.On("Save", mock.Anything, mock.MatchedBy(func(a *tariff.Assignment) bool {
		return a.EndDate != nil && a.EndDate.Equal(end)
	})).Return(nil)
	f.changes.On("RecordChange", mock.Anything, mock.MatchedBy(func(c *audit.EntityChange) bool {
		return c.Kind == audit.ChangeKindUpdate && c.EntityType == "plan_assignment"
	})).Return(nil)
	f.ledger.On("RecordSummary", mock.Anything, "reconcile_assignments", mock.Anything, 1, 0, audit.RunStatusSuccess, mock.Anything).Return(nil)

	result, err := f.svc.ReconcileEntity(context.Background(), stagingapp.EntityAssignments)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	f.assignmentRepo.AssertExpectations(t)
}

func TestReconcileEntity_AssignmentSameEndDateUnchanged(t *testing.T) {
	f := newFixtures()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.stagingRepo.On("ListAssignments", mock.Anything).Return([]staging.Assignment{
		{MSISDN: "+27821234567", PlanCode: "GOLD-50", StartDate: start},
	}, nil)

	existing, _ := tariff.NewAssignment("+27821234567", "GOLD-50", start)
	f.assignmentRepo.On("FindByNaturalKey", mock.Anything, "+27821234567", "GOLD-50", start).Return(existing, nil)
	f.ledger.On("RecordSummary", mock.Anything, "reconcile_assignments", mock.Anything, 1, 0, audit.RunStatusSuccess, mock.Anything).Return(nil)

	result, err := f.svc.ReconcileEntity(context.Background(), stagingapp.EntityAssignments)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Unchanged)
	f.assignmentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestReconcileEntity_CDRInsertOnlyIdempotent(t *testing.T) {
	f := newFixtures()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(125 * time.Second)
	rows := []staging.CDR{
		{MSISDN: "+27821234567", CallType: "VOICE", StartTime: start, EndTime: end, DurationSeconds: 125, Direction: "OUTBOUND", Cost: decimal.Zero},
		{MSISDN: "+27821234567", CallType: "SMS", StartTime: start, EndTime: start.Add(time.Second), DurationSeconds: 1, Direction: "OUTBOUND", Cost: decimal.Zero},
	}
	f.stagingRepo.On("ListCDRs", mock.Anything).Return(rows, nil)
	f.usageRepo.On("Exists", mock.Anything, "+27821234567", usage.CallTypeVoice, start, end).Return(true, nil)
	f.usageRepo.On("Exists", mock.Anything, "+27821234567", usage.CallTypeSMS, start, start.Add(time.Second)).Return(false, nil)
	f.usageRepo.On("Insert", mock.Anything, mock.MatchedBy(func(c *usage.CallDetailRecord) bool {
		return c.CallType == usage.CallTypeSMS
	})).Return(nil)
	f.ledger.On("RecordSummary", mock.Anything, "reconcile_cdrs", mock.Anything, 2, 0, audit.RunStatusSuccess, mock.Anything).Return(nil)

	result, err := f.svc.ReconcileEntity(context.Background(), stagingapp.EntityCDRs)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Unchanged)
	f.usageRepo.AssertExpectations(t)
}

func TestReconcileEntity_FailureRecordedAndRaised(t *testing.T) {
	f := newFixtures()
	f.stagingRepo.On("ListPlans", mock.Anything).Return([]staging.Plan{}, errors.New("staging unavailable"))
	f.reporter.On("RecordError", mock.Anything, mock.MatchedBy(func(e *audit.ErrorLog) bool {
		return e.Process == "reconciliation" && e.AffectedTable == "plans"
	})).Return(nil)
	f.ledger.On("RecordSummary", mock.Anything, "reconcile_plans", mock.Anything, 0, 1, audit.RunStatusFailure, mock.Anything).Return(nil)

	result, err := f.svc.ReconcileEntity(context.Background(), stagingapp.EntityPlans)

	assert.Error(t, err)
	assert.Nil(t, result)
	f.reporter.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
}

func TestReconcileAll_CleanRunClearsStaging(t *testing.T) {
	f := newFixtures()
	f.stagingRepo.On("ListSubscribers", mock.Anything).Return([]staging.Subscriber{}, nil)
	f.stagingRepo.On("ListPlans", mock.Anything).Return([]staging.Plan{}, nil)
	f.stagingRepo.On("ListAssignments", mock.Anything).Return([]staging.Assignment{}, nil)
	f.stagingRepo.On("ListCDRs", mock.Anything).Return([]staging.CDR{}, nil)
	f.stagingRepo.On("TruncateAll", mock.Anything).Return(nil)
	f.ledger.On("RecordSummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything, 0, audit.RunStatusSuccess, mock.Anything).Return(nil)

	run, err := f.svc.ReconcileAll(context.Background())

	assert.NoError(t, err)
	assert.True(t, run.StagingCleared)
	assert.Equal(t, audit.RunStatusSuccess, run.Status)
	f.stagingRepo.AssertCalled(t, "TruncateAll", mock.Anything)
}

func TestReconcileAll_EntityFailureKeepsStaging(t *testing.T) {
	f := newFixtures()
	f.stagingRepo.On("ListSubscribers", mock.Anything).Return([]staging.Subscriber{}, nil)
	f.stagingRepo.On("ListPlans", mock.Anything).Return([]staging.Plan{}, errors.New("staging unavailable"))
	f.stagingRepo.On("ListAssignments", mock.Anything).Return([]staging.Assignment{}, nil)
	f.stagingRepo.On("ListCDRs", mock.Anything).Return([]staging.CDR{}, nil)
	f.reporter.On("RecordError", mock.Anything, mock.Anything).Return(nil)
	f.ledger.On("RecordSummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	run, err := f.svc.ReconcileAll(context.Background())

	assert.NoError(t, err)
	assert.False(t, run.StagingCleared)
	assert.Equal(t, 1, run.FailedEntities)
	assert.Equal(t, audit.RunStatusPartialSuccess, run.Status)
	f.stagingRepo.AssertNotCalled(t, "TruncateAll", mock.Anything)
}
