package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/telcobill/backend/internal/domain/billing"
	"github.com/telcobill/backend/internal/domain/shared"
	"github.com/telcobill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsForPeriod reports whether the subscriber already holds an invoice
// for the exact billing period
func (r *GormInvoiceRepository) ExistsForPeriod(ctx context.Context, msisdn string, periodStart, periodEnd time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("msisdn = ? AND period_start = ? AND period_end = ?", msisdn, periodStart, periodEnd).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindBySubscriber returns the subscriber's invoices, newest period first
func (r *GormInvoiceRepository) FindBySubscriber(ctx context.Context, msisdn string) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("msisdn = ?", msisdn).
		Order("period_start desc").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]billing.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Save(model).Error
}

// GormPaymentRepository implements billing.PaymentRepository using GORM.
// Payments are append-only.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Insert appends a payment record
func (r *GormPaymentRepository) Insert(ctx context.Context, payment *billing.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByInvoice returns every payment applied against an invoice
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]billing.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at asc").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]billing.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}
