package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/telcobill/backend/internal/domain/billing"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
)

// InvoiceModel is the persistence model for the Invoice aggregate.
type InvoiceModel struct {
	AggregateModel
	MSISDN      string                `gorm:"type:varchar(12);not null;uniqueIndex:idx_invoice_period,priority:1;index"`
	PeriodStart time.Time             `gorm:"type:date;not null;uniqueIndex:idx_invoice_period,priority:2"`
	PeriodEnd   time.Time             `gorm:"not null;uniqueIndex:idx_invoice_period,priority:3"`
	AmountDue   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	TotalAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	GeneratedAt time.Time             `gorm:"not null"`
	DueDate     time.Time             `gorm:"not null;index"`
	Status      billing.InvoiceStatus `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	key, _ := valueobject.NewMSISDN(m.MSISDN)
	return &billing.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		MSISDN:            key,
		PeriodStart:       m.PeriodStart,
		PeriodEnd:         m.PeriodEnd,
		AmountDue:         m.AmountDue,
		TotalAmount:       m.TotalAmount,
		GeneratedAt:       m.GeneratedAt,
		DueDate:           m.DueDate,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(i *billing.Invoice) {
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.MSISDN = i.MSISDN.String()
	m.PeriodStart = i.PeriodStart
	m.PeriodEnd = i.PeriodEnd
	m.AmountDue = i.AmountDue
	m.TotalAmount = i.TotalAmount
	m.GeneratedAt = i.GeneratedAt
	m.DueDate = i.DueDate
	m.Status = i.Status
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(i *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(i)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate.
type PaymentModel struct {
	AggregateModel
	InvoiceID uuid.UUID             `gorm:"type:uuid;not null;index"`
	PaidAt    time.Time             `gorm:"not null"`
	Amount    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Method    billing.PaymentMethod `gorm:"type:varchar(20);not null"`
	Reference string                `gorm:"type:varchar(50);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceID:         m.InvoiceID,
		PaidAt:            m.PaidAt,
		Amount:            m.Amount,
		Method:            m.Method,
		Reference:         m.Reference,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.InvoiceID = p.InvoiceID
	m.PaidAt = p.PaidAt
	m.Amount = p.Amount
	m.Method = p.Method
	m.Reference = p.Reference
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
