package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceRepository defines persistence operations for invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// ExistsForPeriod reports whether the subscriber already holds an
	// invoice for the exact billing period. The monthly driver uses this to
	// make manual re-runs idempotent.
	ExistsForPeriod(ctx context.Context, msisdn string, periodStart, periodEnd time.Time) (bool, error)
	FindBySubscriber(ctx context.Context, msisdn string) ([]Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
}

// PaymentRepository defines persistence operations for payments.
// Payments are append-only.
type PaymentRepository interface {
	Insert(ctx context.Context, payment *Payment) error
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)
}
