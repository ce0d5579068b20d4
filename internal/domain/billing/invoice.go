package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/telcobill/backend/internal/domain/shared"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the payment state of an invoice.
// UNPAID → PARTIALLY_PAID → PAID; PAID is terminal and transitions happen
// only through payment application.
type InvoiceStatus string

const (
	InvoiceStatusUnpaid        InvoiceStatus = "UNPAID"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
)

// IsValid checks if the status is one of the enumerated values
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusUnpaid, InvoiceStatusPartiallyPaid, InvoiceStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// DueDateGraceDays is how long after the period end an invoice falls due
const DueDateGraceDays = 14

// Invoice bills one subscriber for one billing period. AmountDue decreases
// as payments are applied and never increases again.
type Invoice struct {
	shared.BaseAggregateRoot
	MSISDN      valueobject.MSISDN
	PeriodStart time.Time
	PeriodEnd   time.Time
	AmountDue   decimal.Decimal
	TotalAmount decimal.Decimal
	GeneratedAt time.Time
	DueDate     time.Time
	Status      InvoiceStatus
}

// NewInvoice issues an invoice for a period. A zero charge still yields an
// invoice; the due date is the period end plus the grace window.
func NewInvoice(msisdn string, period valueobject.BillingPeriod, amount decimal.Decimal) (*Invoice, error) {
	key, err := valueobject.NewMSISDN(msisdn)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_MSISDN", err.Error())
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice amount cannot be negative")
	}

	now := time.Now()
	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MSISDN:            key,
		PeriodStart:       period.Start(),
		PeriodEnd:         period.End(),
		AmountDue:         amount,
		TotalAmount:       amount,
		GeneratedAt:       now,
		DueDate:           period.DueDate(DueDateGraceDays),
		Status:            InvoiceStatusUnpaid,
	}, nil
}

// ApplyPayment reduces the remaining balance. PAID is evaluated against the
// current remaining balance, not the original total, so cumulative partial
// payments settle the invoice. Fails without mutating state when the invoice
// is already PAID.
func (i *Invoice) ApplyPayment(amount decimal.Decimal) error {
	if i.Status == InvoiceStatusPaid {
		return shared.ErrInvoiceAlreadyPaid
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	if amount.GreaterThanOrEqual(i.AmountDue) {
		i.AmountDue = decimal.Zero
		i.Status = InvoiceStatusPaid
	} else {
		i.AmountDue = i.AmountDue.Sub(amount)
		i.Status = InvoiceStatusPartiallyPaid
	}

	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// IsPaid returns true once the invoice is fully settled
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// IsOverdue reports whether the invoice is unsettled past its due date
func (i *Invoice) IsOverdue() bool {
	return !i.IsPaid() && time.Now().After(i.DueDate)
}

// PeriodLabel renders the billing period for notifications
func (i *Invoice) PeriodLabel() string {
	return fmt.Sprintf("%s to %s", i.PeriodStart.Format("2006-01-02"), i.PeriodEnd.Format("2006-01-02"))
}
