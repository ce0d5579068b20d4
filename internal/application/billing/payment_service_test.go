package billingapp

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/telcobill/backend/internal/domain/billing"
	"github.com/telcobill/backend/internal/domain/shared"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

func newPaymentService(invoiceRepo *MockInvoiceRepository, paymentRepo *MockPaymentRepository, reporter *MockErrorReporter) *PaymentService {
	return NewPaymentService(invoiceRepo, paymentRepo, reporter, nil, zap.NewNop())
}

func unpaidInvoice(t *testing.T, amount string) *billing.Invoice {
	t.Helper()
	invoice, err := billing.NewInvoice("+27821234567", marchPeriod(), decimal.RequireFromString(amount))
	assert.NoError(t, err)
	return invoice
}

func TestRecordPayment_FullAmountSettlesInvoice(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	reporter := new(MockErrorReporter)
	svc := newPaymentService(invoiceRepo, paymentRepo, reporter)

	invoice := unpaidInvoice(t, "4.60")
	invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	paymentRepo.On("Insert", mock.Anything, mock.MatchedBy(func(p *billing.Payment) bool {
		return p.InvoiceID == invoice.ID && p.Amount.Equal(decimal.RequireFromString("4.60"))
	})).Return(nil)
	invoiceRepo.On("Save", mock.Anything, mock.MatchedBy(func(i *billing.Invoice) bool {
		return i.Status == billing.InvoiceStatusPaid && i.AmountDue.IsZero()
	})).Return(nil)

	receipt, err := svc.RecordPayment(context.Background(), invoice.ID, time.Now(), decimal.RequireFromString("4.60"), billing.PaymentMethodEFT)

	assert.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, receipt.Status)
	assert.Equal(t, "0.00", receipt.AmountDue.StringFixed(2))
	invoiceRepo.AssertExpectations(t)
	paymentRepo.AssertExpectations(t)
}

func TestRecordPayment_PartialAmountLeavesBalance(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	reporter := new(MockErrorReporter)
	svc := newPaymentService(invoiceRepo, paymentRepo, reporter)

	invoice := unpaidInvoice(t, "4.60")
	invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	paymentRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	receipt, err := svc.RecordPayment(context.Background(), invoice.ID, time.Now(), decimal.RequireFromString("2.00"), billing.PaymentMethodCard)

	assert.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPartiallyPaid, receipt.Status)
	assert.Equal(t, "2.60", receipt.AmountDue.StringFixed(2))
}

func TestRecordPayment_CumulativePartialsSettle(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	reporter := new(MockErrorReporter)
	svc := newPaymentService(invoiceRepo, paymentRepo, reporter)

	invoice := unpaidInvoice(t, "4.60")
	invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	paymentRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.RecordPayment(context.Background(), invoice.ID, time.Now(), decimal.RequireFromString("2.00"), billing.PaymentMethodCash)
	assert.NoError(t, err)

	// The second payment matches the remaining balance, not the original total
	receipt, err := svc.RecordPayment(context.Background(), invoice.ID, time.Now(), decimal.RequireFromString("2.60"), billing.PaymentMethodCash)

	assert.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, receipt.Status)
	assert.Equal(t, "0.00", receipt.AmountDue.StringFixed(2))
}

func TestRecordPayment_PaidInvoiceRefusedUnchanged(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	reporter := new(MockErrorReporter)
	svc := newPaymentService(invoiceRepo, paymentRepo, reporter)

	invoice := unpaidInvoice(t, "4.60")
	assert.NoError(t, invoice.ApplyPayment(decimal.RequireFromString("4.60")))
	invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	reporter.On("RecordError", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.RecordPayment(context.Background(), invoice.ID, time.Now(), decimal.RequireFromString("1.00"), billing.PaymentMethodEFT)

	assert.ErrorIs(t, err, shared.ErrInvoiceAlreadyPaid)
	assert.Equal(t, billing.InvoiceStatusPaid, invoice.Status)
	assert.Equal(t, "0.00", invoice.AmountDue.StringFixed(2))
	paymentRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	reporter.AssertExpectations(t)
}

func TestRecordPayment_OverpaymentCapsAtZero(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	reporter := new(MockErrorReporter)
	svc := newPaymentService(invoiceRepo, paymentRepo, reporter)

	invoice := unpaidInvoice(t, "4.60")
	invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	paymentRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	receipt, err := svc.RecordPayment(context.Background(), invoice.ID, time.Now(), decimal.RequireFromString("10.00"), billing.PaymentMethodEFT)

	assert.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, receipt.Status)
	assert.Equal(t, "0.00", receipt.AmountDue.StringFixed(2))
}

func TestInvoiceDueDate(t *testing.T) {
	period := valueobject.CalendarMonth(time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC))
	invoice, err := billing.NewInvoice("+27821234567", period, decimal.Zero)

	assert.NoError(t, err)
	assert.Equal(t, period.End().AddDate(0, 0, 14), invoice.DueDate)
}
