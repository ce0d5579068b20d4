package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
	"github.com/telcobill/backend/internal/domain/usage"
)

// CallDetailRecordModel is the persistence model for the CDR aggregate.
// The unique index on the natural identity backs insert-only idempotence.
type CallDetailRecordModel struct {
	AggregateModel
	MSISDN          string          `gorm:"type:varchar(12);not null;uniqueIndex:idx_cdr_identity,priority:1;index"`
	CallType        usage.CallType  `gorm:"type:varchar(10);not null;uniqueIndex:idx_cdr_identity,priority:2"`
	StartTime       time.Time       `gorm:"not null;uniqueIndex:idx_cdr_identity,priority:3"`
	EndTime         time.Time       `gorm:"not null;uniqueIndex:idx_cdr_identity,priority:4"`
	DurationSeconds int             `gorm:"not null"`
	Destination     string          `gorm:"type:varchar(50)"`
	Cost            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Direction       usage.Direction `gorm:"type:varchar(10);not null"`
	SourceFile      string          `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (CallDetailRecordModel) TableName() string {
	return "call_detail_records"
}

// ToDomain converts the persistence model to a domain CallDetailRecord.
func (m *CallDetailRecordModel) ToDomain() *usage.CallDetailRecord {
	key, _ := valueobject.NewMSISDN(m.MSISDN)
	return &usage.CallDetailRecord{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		MSISDN:            key,
		CallType:          m.CallType,
		StartTime:         m.StartTime,
		EndTime:           m.EndTime,
		DurationSeconds:   m.DurationSeconds,
		Destination:       m.Destination,
		Cost:              m.Cost,
		Direction:         m.Direction,
		SourceFile:        m.SourceFile,
	}
}

// FromDomain populates the persistence model from a domain CallDetailRecord.
func (m *CallDetailRecordModel) FromDomain(c *usage.CallDetailRecord) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.MSISDN = c.MSISDN.String()
	m.CallType = c.CallType
	m.StartTime = c.StartTime
	m.EndTime = c.EndTime
	m.DurationSeconds = c.DurationSeconds
	m.Destination = c.Destination
	m.Cost = c.Cost
	m.Direction = c.Direction
	m.SourceFile = c.SourceFile
}

// CallDetailRecordModelFromDomain creates a new persistence model from a domain CallDetailRecord.
func CallDetailRecordModelFromDomain(c *usage.CallDetailRecord) *CallDetailRecordModel {
	m := &CallDetailRecordModel{}
	m.FromDomain(c)
	return m
}
