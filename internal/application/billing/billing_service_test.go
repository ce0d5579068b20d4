package billingapp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/telcobill/backend/internal/domain/audit"
	"github.com/telcobill/backend/internal/domain/billing"
	"github.com/telcobill/backend/internal/domain/shared"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
	"github.com/telcobill/backend/internal/domain/subscriber"
	"github.com/telcobill/backend/internal/domain/tariff"
	"github.com/telcobill/backend/internal/domain/usage"
	"go.uber.org/zap"
)

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

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsForPeriod(ctx context.Context, msisdn string, periodStart, periodEnd time.Time) (bool, error) {
	args := m.Called(ctx, msisdn, periodStart, periodEnd)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) FindBySubscriber(ctx context.Context, msisdn string) ([]billing.Invoice, error) {
	args := m.Called(ctx, msisdn)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of billing.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Insert(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]billing.Payment, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).([]billing.Payment), args.Error(1)
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

type billingFixtures struct {
	subscriberRepo *MockSubscriberRepository
	planRepo       *MockPlanRepository
	assignmentRepo *MockAssignmentRepository
	usageRepo      *MockUsageRepository
	invoiceRepo    *MockInvoiceRepository
	ledger         *MockImportLedger
	reporter       *MockErrorReporter
	svc            *BillingService
}

func newBillingFixtures() *billingFixtures {
	f := &billingFixtures{
		subscriberRepo: new(MockSubscriberRepository),
		planRepo:       new(MockPlanRepository),
		assignmentRepo: new(MockAssignmentRepository),
		usageRepo:      new(MockUsageRepository),
		invoiceRepo:    new(MockInvoiceRepository),
		ledger:         new(MockImportLedger),
		reporter:       new(MockErrorReporter),
	}
	f.svc = NewBillingService(
		f.subscriberRepo, f.planRepo, f.assignmentRepo, f.usageRepo, f.invoiceRepo,
		f.ledger, f.reporter, nil, zap.NewNop(), 100)
	return f
}

func goldPlan(t *testing.T) *tariff.Plan {
	t.Helper()
	plan, err := tariff.NewPlan("GOLD-50", "Gold 50", decimal.NewFromInt(149))
	assert.NoError(t, err)
	err = plan.SetRates(
		decimal.RequireFromString("1.00"),
		decimal.RequireFromString("0.50"),
		decimal.RequireFromString("0.10"))
	assert.NoError(t, err)
	return plan
}

func marchPeriod() valueobject.BillingPeriod {
	return valueobject.CalendarMonth(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
}

func expectSubscriber(f *billingFixtures, msisdn string) {
	sub, _ := subscriber.NewSubscriber(msisdn, "Thandi", "Nkosi", subscriber.StatusActive)
	f.subscriberRepo.On("FindByMSISDN", mock.Anything, msisdn).Return(sub, nil)
}

func expectCurrentPlan(t *testing.T, f *billingFixtures, msisdn string) {
	assignment, err := tariff.NewAssignment(msisdn, "GOLD-50", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	f.assignmentRepo.On("FindBySubscriber", mock.Anything, msisdn).Return([]tariff.Assignment{*assignment}, nil)
	f.planRepo.On("FindByCode", mock.Anything, "GOLD-50").Return(goldPlan(t), nil)
}

func TestCalculateCharges_VoiceRoundsUpToWholeMinutes(t *testing.T) {
	f := newBillingFixtures()
	period := marchPeriod()
	expectSubscriber(f, "+27821234567")
	f.invoiceRepo.On("ExistsForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(false, nil)
	expectCurrentPlan(t, f, "+27821234567")
	f.usageRepo.On("AggregateForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(&usage.UsageTotals{
		VoiceSeconds: 125,
		DataUsage:    decimal.Zero,
	}, nil)
	f.invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	invoice, err := f.svc.CalculateCharges(context.Background(), "+27821234567", period)

	assert.NoError(t, err)
	// 125 seconds bills as 3 minutes at 1.00 per minute
	assert.Equal(t, "3.00", invoice.TotalAmount.StringFixed(2))
	assert.Equal(t, billing.InvoiceStatusUnpaid, invoice.Status)
}

func TestCalculateCharges_ZeroUsageStillInvoices(t *testing.T) {
	f := newBillingFixtures()
	period := marchPeriod()
	expectSubscriber(f, "+27821234567")
	f.invoiceRepo.On("ExistsForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(false, nil)
	expectCurrentPlan(t, f, "+27821234567")
	f.usageRepo.On("AggregateForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(&usage.UsageTotals{
		DataUsage: decimal.Zero,
	}, nil)
	f.invoiceRepo.On("Save", mock.Anything, mock.MatchedBy(func(i *billing.Invoice) bool {
		return i.TotalAmount.IsZero()
	})).Return(nil)

	invoice, err := f.svc.CalculateCharges(context.Background(), "+27821234567", period)

	assert.NoError(t, err)
	assert.Equal(t, "0.00", invoice.TotalAmount.StringFixed(2))
	assert.Equal(t, period.End().AddDate(0, 0, 14), invoice.DueDate)
	f.invoiceRepo.AssertExpectations(t)
}

func TestCalculateCharges_MixedUsage(t *testing.T) {
	f := newBillingFixtures()
	period := marchPeriod()
	expectSubscriber(f, "+27821234567")
	f.invoiceRepo.On("ExistsForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(false, nil)
	expectCurrentPlan(t, f, "+27821234567")
	f.usageRepo.On("AggregateForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(&usage.UsageTotals{
		VoiceSeconds: 61,
		DataUsage:    decimal.RequireFromString("10.5"),
		SMSCount:     3,
	}, nil)
	f.invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	invoice, err := f.svc.CalculateCharges(context.Background(), "+27821234567", period)

	assert.NoError(t, err)
	// 2 minutes voice + 10.5 MB at 0.10 + 3 SMS at 0.50 = 2.00 + 1.05 + 1.50
	assert.Equal(t, "4.55", invoice.TotalAmount.StringFixed(2))
}

func TestCalculateCharges_NoAssignmentFails(t *testing.T) {
	f := newBillingFixtures()
	period := marchPeriod()
	expectSubscriber(f, "+27821234567")
	f.invoiceRepo.On("ExistsForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(false, nil)
	f.assignmentRepo.On("FindBySubscriber", mock.Anything, "+27821234567").Return([]tariff.Assignment{}, nil)

	_, err := f.svc.CalculateCharges(context.Background(), "+27821234567", period)

	assert.ErrorIs(t, err, shared.ErrNoActivePlan)
	f.invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCalculateCharges_OverlappingAssignmentsLatestStartWins(t *testing.T) {
	f := newBillingFixtures()
	period := marchPeriod()
	expectSubscriber(f, "+27821234567")
	f.invoiceRepo.On("ExistsForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(false, nil)

	older, _ := tariff.NewAssignment("+27821234567", "GOLD-50", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	newer, _ := tariff.NewAssignment("+27821234567", "PLATINUM-100", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	f.assignmentRepo.On("FindBySubscriber", mock.Anything, "+27821234567").Return([]tariff.Assignment{*older, *newer}, nil)

	platinum, _ := tariff.NewPlan("PLATINUM-100", "Platinum 100", decimal.NewFromInt(299))
	_ = platinum.SetRates(decimal.RequireFromString("0.75"), decimal.RequireFromString("0.40"), decimal.RequireFromString("0.05"))
	f.planRepo.On("FindByCode", mock.Anything, "PLATINUM-100").Return(platinum, nil)

	f.usageRepo.On("AggregateForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(&usage.UsageTotals{
		VoiceSeconds: 60,
		DataUsage:    decimal.Zero,
	}, nil)
	f.invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	invoice, err := f.svc.CalculateCharges(context.Background(), "+27821234567", period)

	assert.NoError(t, err)
	assert.Equal(t, "0.75", invoice.TotalAmount.StringFixed(2))
	f.planRepo.AssertNotCalled(t, "FindByCode", mock.Anything, "GOLD-50")
}

func TestCalculateCharges_ExistingInvoiceRefused(t *testing.T) {
	f := newBillingFixtures()
	period := marchPeriod()
	expectSubscriber(f, "+27821234567")
	f.invoiceRepo.On("ExistsForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(true, nil)

	_, err := f.svc.CalculateCharges(context.Background(), "+27821234567", period)

	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGenerateMonthlyBills_IsolatesSubscriberFailures(t *testing.T) {
	f := newBillingFixtures()
	period := marchPeriod()
	f.subscriberRepo.On("FindActiveMSISDNs", mock.Anything).Return([]string{"+27821111111", "+27822222222", "+27823333333"}, nil)

	for _, msisdn := range []string{"+27821111111", "+27823333333"} {
		expectSubscriber(f, msisdn)
		f.invoiceRepo.On("ExistsForPeriod", mock.Anything, msisdn, period.Start(), period.End()).Return(false, nil)
		expectCurrentPlan(t, f, msisdn)
		f.usageRepo.On("AggregateForPeriod", mock.Anything, msisdn, period.Start(), period.End()).Return(&usage.UsageTotals{
			VoiceSeconds: 60,
			DataUsage:    decimal.Zero,
		}, nil)
	}
	f.invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	// Middle subscriber holds no assignment
	expectSubscriber(f, "+27822222222")
	f.invoiceRepo.On("ExistsForPeriod", mock.Anything, "+27822222222", period.Start(), period.End()).Return(false, nil)
	f.assignmentRepo.On("FindBySubscriber", mock.Anything, "+27822222222").Return([]tariff.Assignment{}, nil)
	f.reporter.On("RecordError", mock.Anything, mock.MatchedBy(func(e *audit.ErrorLog) bool {
		return e.Process == "billing_run" && e.AffectedTable == "+27822222222"
	})).Return(nil)

	f.ledger.On("RecordSummary", mock.Anything, "billing_run", mock.Anything, 3, 1, audit.RunStatusPartialSuccess, mock.Anything).Return(nil)

	result, err := f.svc.GenerateMonthlyBills(context.Background(), time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Invoiced)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, audit.RunStatusPartialSuccess, result.Status)
	assert.Equal(t, "2.00", result.TotalBilled.StringFixed(2))
	f.reporter.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
}

func TestGenerateMonthlyBills_SkipsAlreadyInvoiced(t *testing.T) {
	f := newBillingFixtures()
	period := marchPeriod()
	f.subscriberRepo.On("FindActiveMSISDNs", mock.Anything).Return([]string{"+27821111111"}, nil)
	expectSubscriber(f, "+27821111111")
	f.invoiceRepo.On("ExistsForPeriod", mock.Anything, "+27821111111", period.Start(), period.End()).Return(true, nil)
	f.ledger.On("RecordSummary", mock.Anything, "billing_run", mock.Anything, 1, 0, audit.RunStatusSuccess, mock.Anything).Return(nil)

	result, err := f.svc.GenerateMonthlyBills(context.Background(), time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Invoiced)
	assert.Equal(t, audit.RunStatusSuccess, result.Status)
	f.invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRateUsage_RoundsToCents(t *testing.T) {
	plan := goldPlan(t)
	totals := &usage.UsageTotals{
		DataUsage: decimal.RequireFromString("3.333"),
	}
	// 3.333 MB at 0.10 = 0.3333, rounds to 0.33
	assert.Equal(t, "0.33", RateUsage(plan, totals).StringFixed(2))
}

type spyNotifier struct {
	msisdns    []string
	categories []string
	channels   []string
	messages   []string
	err        error
}

func (n *spyNotifier) Notify(ctx context.Context, msisdn, category, channel, message string) error {
	n.msisdns = append(n.msisdns, msisdn)
	n.categories = append(n.categories, category)
	n.channels = append(n.channels, channel)
	n.messages = append(n.messages, message)
	return n.err
}

func TestCalculateCharges_NotifiesSubscriber(t *testing.T) {
	f := newBillingFixtures()
	notifier := &spyNotifier{}
	f.svc = NewBillingService(
		f.subscriberRepo, f.planRepo, f.assignmentRepo, f.usageRepo, f.invoiceRepo,
		f.ledger, f.reporter, notifier, zap.NewNop(), 100)

	period := marchPeriod()
	expectSubscriber(f, "+27821234567")
	f.invoiceRepo.On("ExistsForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(false, nil)
	expectCurrentPlan(t, f, "+27821234567")
	f.usageRepo.On("AggregateForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(&usage.UsageTotals{
		VoiceSeconds: 60,
	}, nil)
	f.invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.CalculateCharges(context.Background(), "+27821234567", period)

	assert.NoError(t, err)
	assert.Equal(t, []string{"+27821234567"}, notifier.msisdns)
	assert.Equal(t, []string{NotifyCategoryBilling}, notifier.categories)
	assert.Equal(t, []string{NotifyChannelSMS}, notifier.channels)
	assert.Contains(t, notifier.messages[0], "1.00 ZAR")
}

func TestCalculateCharges_NotificationFailureDoesNotFailBilling(t *testing.T) {
	f := newBillingFixtures()
	notifier := &spyNotifier{err: errors.New("gateway unreachable")}
	f.svc = NewBillingService(
		f.subscriberRepo, f.planRepo, f.assignmentRepo, f.usageRepo, f.invoiceRepo,
		f.ledger, f.reporter, notifier, zap.NewNop(), 100)

	period := marchPeriod()
	expectSubscriber(f, "+27821234567")
	f.invoiceRepo.On("ExistsForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(false, nil)
	expectCurrentPlan(t, f, "+27821234567")
	f.usageRepo.On("AggregateForPeriod", mock.Anything, "+27821234567", period.Start(), period.End()).Return(&usage.UsageTotals{}, nil)
	f.invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	invoice, err := f.svc.CalculateCharges(context.Background(), "+27821234567", period)

	assert.NoError(t, err)
	assert.NotNil(t, invoice)
}
