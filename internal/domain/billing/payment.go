package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/telcobill/backend/internal/domain/shared"
)

// PaymentMethod identifies how a payment was made
type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "CARD"
	PaymentMethodEFT        PaymentMethod = "EFT"
	PaymentMethodCash       PaymentMethod = "CASH"
	PaymentMethodDebitOrder PaymentMethod = "DEBIT_ORDER"
)

// IsValid checks if the payment method is one of the enumerated values
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodEFT, PaymentMethodCash, PaymentMethodDebitOrder:
		return true
	}
	return false
}

// Payment records money applied against an invoice. Append-only.
type Payment struct {
	shared.BaseAggregateRoot
	InvoiceID uuid.UUID
	PaidAt    time.Time
	Amount    decimal.Decimal
	Method    PaymentMethod
	Reference string
}

// NewPayment creates a payment with a generated reference code
func NewPayment(invoiceID uuid.UUID, paidAt time.Time, amount decimal.Decimal, method PaymentMethod) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", fmt.Sprintf("Invalid payment method: %s", method))
	}

	base := shared.NewBaseAggregateRoot()
	return &Payment{
		BaseAggregateRoot: base,
		InvoiceID:         invoiceID,
		PaidAt:            paidAt,
		Amount:            amount,
		Method:            method,
		Reference:         generateReference(base.ID, paidAt),
	}, nil
}

// generateReference builds a PAY-YYYYMMDD-NNNNNN code stable for the payment.
// The numeric suffix derives from the payment id so retried inserts of the
// same aggregate keep the same reference.
func generateReference(id uuid.UUID, paidAt time.Time) string {
	suffix := uint32(id.ID()) % 1000000
	return fmt.Sprintf("PAY-%s-%06d", paidAt.Format("20060102"), suffix)
}
