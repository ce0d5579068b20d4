package billingapp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/telcobill/backend/internal/domain/audit"
	"github.com/telcobill/backend/internal/domain/billing"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

const paymentProcess = "payment"

// PaymentReceipt is returned after a payment is applied, carrying the
// invoice state the payment left behind
type PaymentReceipt struct {
	Payment   *billing.Payment      `json:"payment"`
	InvoiceID uuid.UUID             `json:"invoice_id"`
	Status    billing.InvoiceStatus `json:"status"`
	AmountDue decimal.Decimal       `json:"amount_due"`
}

// PaymentService applies payments to invoices
type PaymentService struct {
	invoiceRepo billing.InvoiceRepository
	paymentRepo billing.PaymentRepository
	reporter    audit.ErrorReporter
	notifier    Notifier
	logger      *zap.Logger
}

// NewPaymentService creates a PaymentService. notifier may be nil.
func NewPaymentService(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	reporter audit.ErrorReporter,
	notifier Notifier,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		reporter:    reporter,
		notifier:    notifier,
		logger:      logger,
	}
}

// RecordPayment applies amount against the invoice's remaining balance.
// A payment against an already settled invoice fails without recording
// anything; the failure is still written to the error trail.
func (s *PaymentService) RecordPayment(ctx context.Context, invoiceID uuid.UUID, paidAt time.Time, amount decimal.Decimal, method billing.PaymentMethod) (*PaymentReceipt, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := invoice.ApplyPayment(amount); err != nil {
		s.reportFailure(ctx, invoiceID, err)
		return nil, err
	}

	payment, err := billing.NewPayment(invoiceID, paidAt, amount, method)
	if err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Insert(ctx, payment); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		message := fmt.Sprintf("Payment %s of %s received. Balance: %s (%s).",
			payment.Reference,
			valueobject.NewMoneyZAR(payment.Amount).String(),
			valueobject.NewMoneyZAR(invoice.AmountDue).String(),
			invoice.Status)
		if err := s.notifier.Notify(ctx, invoice.MSISDN.String(), NotifyCategoryPayment, NotifyChannelSMS, message); err != nil {
			s.logger.Warn("Payment notification failed",
				zap.String("invoice_id", invoiceID.String()), zap.Error(err))
		}
	}

	s.logger.Info("Payment recorded",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("reference", payment.Reference),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("status", invoice.Status.String()))

	return &PaymentReceipt{
		Payment:   payment,
		InvoiceID: invoiceID,
		Status:    invoice.Status,
		AmountDue: invoice.AmountDue,
	}, nil
}

// ListPayments returns the payments applied to an invoice, oldest first
func (s *PaymentService) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]billing.Payment, error) {
	return s.paymentRepo.FindByInvoice(ctx, invoiceID)
}

func (s *PaymentService) reportFailure(ctx context.Context, invoiceID uuid.UUID, cause error) {
	entry := audit.NewErrorLog(paymentProcess, invoiceID.String(), cause.Error())
	if err := s.reporter.RecordError(ctx, entry); err != nil {
		s.logger.Error("Failed to record payment failure", zap.Error(err))
	}
}
