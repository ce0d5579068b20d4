package billingapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/telcobill/backend/internal/domain/audit"
	"github.com/telcobill/backend/internal/domain/billing"
	"github.com/telcobill/backend/internal/domain/shared"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
	"github.com/telcobill/backend/internal/domain/subscriber"
	"github.com/telcobill/backend/internal/domain/tariff"
	"github.com/telcobill/backend/internal/domain/usage"
	"go.uber.org/zap"
)

const billingProcess = "billing_run"

// Notification categories and channels
const (
	NotifyCategoryBilling = "BILLING"
	NotifyCategoryPayment = "PAYMENT"
	NotifyChannelSMS      = "SMS"
)

// Notifier announces billing events to a subscriber. Delivery is fire and
// forget; notification failures never fail the operation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, msisdn, category, channel, message string) error
}

// RunResult is the outcome of a monthly billing run
type RunResult struct {
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Subscribers int             `json:"subscribers"`
	Invoiced    int             `json:"invoiced"`
	Skipped     int             `json:"skipped"`
	Failed      int             `json:"failed"`
	TotalBilled decimal.Decimal `json:"total_billed"`
	Status      audit.RunStatus `json:"status"`
}

// BillingService rates a subscriber's usage against their current plan and
// issues invoices
type BillingService struct {
	subscriberRepo subscriber.Repository
	planRepo       tariff.PlanRepository
	assignmentRepo tariff.AssignmentRepository
	usageRepo      usage.Repository
	invoiceRepo    billing.InvoiceRepository
	ledger         audit.ImportLedger
	reporter       audit.ErrorReporter
	notifier       Notifier
	logger         *zap.Logger
	checkpointSize int
}

// NewBillingService creates a BillingService. notifier may be nil.
func NewBillingService(
	subscriberRepo subscriber.Repository,
	planRepo tariff.PlanRepository,
	assignmentRepo tariff.AssignmentRepository,
	usageRepo usage.Repository,
	invoiceRepo billing.InvoiceRepository,
	ledger audit.ImportLedger,
	reporter audit.ErrorReporter,
	notifier Notifier,
	logger *zap.Logger,
	checkpointSize int,
) *BillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkpointSize <= 0 {
		checkpointSize = 100
	}
	return &BillingService{
		subscriberRepo: subscriberRepo,
		planRepo:       planRepo,
		assignmentRepo: assignmentRepo,
		usageRepo:      usageRepo,
		invoiceRepo:    invoiceRepo,
		ledger:         ledger,
		reporter:       reporter,
		notifier:       notifier,
		logger:         logger,
		checkpointSize: checkpointSize,
	}
}

// CalculateCharges rates one subscriber's usage over the period and issues
// the invoice. A subscriber with no usage still gets a zero invoice; a
// subscriber already invoiced for the period gets shared.ErrAlreadyExists.
func (s *BillingService) CalculateCharges(ctx context.Context, msisdn string, period valueobject.BillingPeriod) (*billing.Invoice, error) {
	if _, err := s.subscriberRepo.FindByMSISDN(ctx, msisdn); err != nil {
		return nil, err
	}

	exists, err := s.invoiceRepo.ExistsForPeriod(ctx, msisdn, period.Start(), period.End())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrAlreadyExists
	}

	assignments, err := s.assignmentRepo.FindBySubscriber(ctx, msisdn)
	if err != nil {
		return nil, err
	}
	current := tariff.ResolveCurrent(assignments)
	if current == nil {
		return nil, shared.ErrNoActivePlan
	}

	plan, err := s.planRepo.FindByCode(ctx, current.PlanCode)
	if err != nil {
		return nil, err
	}

	totals, err := s.usageRepo.AggregateForPeriod(ctx, msisdn, period.Start(), period.End())
	if err != nil {
		return nil, err
	}

	amount := RateUsage(plan, totals)
	invoice, err := billing.NewInvoice(msisdn, period, amount)
	if err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		message := fmt.Sprintf("Your invoice for %s is ready: %s due by %s.",
			invoice.PeriodLabel(),
			valueobject.NewMoneyZAR(invoice.TotalAmount).String(),
			invoice.DueDate.Format("2006-01-02"))
		if err := s.notifier.Notify(ctx, msisdn, NotifyCategoryBilling, NotifyChannelSMS, message); err != nil {
			s.logger.Warn("Invoice notification failed",
				zap.String("msisdn", msisdn), zap.Error(err))
		}
	}

	s.logger.Info("Invoice generated",
		zap.String("msisdn", msisdn),
		zap.String("period", period.String()),
		zap.String("plan", plan.Code),
		zap.String("amount", amount.StringFixed(2)))
	return invoice, nil
}

// GenerateMonthlyBills invoices every active subscriber for the calendar
// month containing date. Per-subscriber failures are recorded and do not
// stop the run; subscribers already invoiced for the period are skipped, so
// a rerun after a partial failure only picks up the remainder.
func (s *BillingService) GenerateMonthlyBills(ctx context.Context, date time.Time) (*RunResult, error) {
	period := valueobject.CalendarMonth(date)
	runTime := time.Now()
	result := &RunResult{
		PeriodStart: period.Start(),
		PeriodEnd:   period.End(),
		TotalBilled: decimal.Zero,
	}

	msisdns, err := s.subscriberRepo.FindActiveMSISDNs(ctx)
	if err != nil {
		s.reportFailure(ctx, "subscribers", err)
		s.recordSummary(ctx, billingProcess, runTime, 0, 1, audit.RunStatusFailure, err.Error())
		return nil, err
	}
	result.Subscribers = len(msisdns)

	processed := 0
	for _, msisdn := range msisdns {
		if err := ctx.Err(); err != nil {
			s.recordSummary(ctx, billingProcess, runTime, processed, result.Failed, audit.RunStatusFailure, err.Error())
			return nil, err
		}

		invoice, err := s.CalculateCharges(ctx, msisdn, period)
		switch {
		case errors.Is(err, shared.ErrAlreadyExists):
			result.Skipped++
		case err != nil:
			result.Failed++
			s.reportFailure(ctx, msisdn, err)
			s.logger.Warn("Subscriber billing failed",
				zap.String("msisdn", msisdn), zap.Error(err))
		default:
			result.Invoiced++
			result.TotalBilled = result.TotalBilled.Add(invoice.TotalAmount)
		}

		processed++
		if processed%s.checkpointSize == 0 {
			s.recordSummary(ctx, billingProcess, runTime, processed, result.Failed, audit.RunStatusPartialSuccess,
				fmt.Sprintf("checkpoint: %d of %d subscribers processed", processed, result.Subscribers))
		}
	}

	switch {
	case result.Failed == 0:
		result.Status = audit.RunStatusSuccess
	case result.Failed == result.Subscribers && result.Subscribers > 0:
		result.Status = audit.RunStatusFailure
	default:
		result.Status = audit.RunStatusPartialSuccess
	}

	s.recordSummary(ctx, billingProcess, runTime, processed, result.Failed, result.Status,
		fmt.Sprintf("%d invoiced, %d skipped, %d failed, %s billed for %s",
			result.Invoiced, result.Skipped, result.Failed, result.TotalBilled.StringFixed(2), period.String()))

	s.logger.Info("Billing run complete",
		zap.String("period", period.String()),
		zap.Int("subscribers", result.Subscribers),
		zap.Int("invoiced", result.Invoiced),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.String("status", string(result.Status)))
	return result, nil
}

// RateUsage prices a period's usage totals against a plan. Voice seconds
// round up to whole minutes before rating; the final charge rounds to cents.
func RateUsage(plan *tariff.Plan, totals *usage.UsageTotals) decimal.Decimal {
	minutes := (totals.VoiceSeconds + 59) / 60
	voice := plan.VoiceRatePerMin.Mul(decimal.NewFromInt(minutes))
	data := plan.DataRatePerMB.Mul(totals.DataUsage)
	sms := plan.SMSRate.Mul(decimal.NewFromInt(totals.SMSCount))
	return voice.Add(data).Add(sms).Round(2)
}

func (s *BillingService) reportFailure(ctx context.Context, target string, cause error) {
	entry := audit.NewErrorLog(billingProcess, target, cause.Error())
	if err := s.reporter.RecordError(ctx, entry); err != nil {
		s.logger.Error("Failed to record billing failure", zap.Error(err))
	}
}

func (s *BillingService) recordSummary(ctx context.Context, source string, runTime time.Time, records, errors int, status audit.RunStatus, message string) {
	if err := s.ledger.RecordSummary(ctx, source, runTime, records, errors, status, message); err != nil {
		s.logger.Error("Failed to record import summary",
			zap.String("source", source), zap.Error(err))
	}
}
