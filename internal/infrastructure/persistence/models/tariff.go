package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
	"github.com/telcobill/backend/internal/domain/tariff"
)

// PlanModel is the persistence model for the tariff Plan aggregate.
type PlanModel struct {
	AggregateModel
	Code            string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name            string          `gorm:"type:varchar(200);not null"`
	Description     string          `gorm:"type:text"`
	MonthlyFee      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	VoiceRatePerMin decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SMSRate         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DataRatePerMB   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	VoiceMinutesInc int             `gorm:"not null;default:0"`
	SMSInc          int             `gorm:"not null;default:0"`
	DataMBInc       int             `gorm:"not null;default:0"`
	ValidFrom       *time.Time      `gorm:"type:date"`
	ValidTo         *time.Time      `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (PlanModel) TableName() string {
	return "plans"
}

// ToDomain converts the persistence model to a domain Plan.
func (m *PlanModel) ToDomain() *tariff.Plan {
	return &tariff.Plan{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Description:       m.Description,
		MonthlyFee:        m.MonthlyFee,
		VoiceRatePerMin:   m.VoiceRatePerMin,
		SMSRate:           m.SMSRate,
		DataRatePerMB:     m.DataRatePerMB,
		VoiceMinutesInc:   m.VoiceMinutesInc,
		SMSInc:            m.SMSInc,
		DataMBInc:         m.DataMBInc,
		ValidFrom:         m.ValidFrom,
		ValidTo:           m.ValidTo,
	}
}

// FromDomain populates the persistence model from a domain Plan.
func (m *PlanModel) FromDomain(p *tariff.Plan) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.Description = p.Description
	m.MonthlyFee = p.MonthlyFee
	m.VoiceRatePerMin = p.VoiceRatePerMin
	m.SMSRate = p.SMSRate
	m.DataRatePerMB = p.DataRatePerMB
	m.VoiceMinutesInc = p.VoiceMinutesInc
	m.SMSInc = p.SMSInc
	m.DataMBInc = p.DataMBInc
	m.ValidFrom = p.ValidFrom
	m.ValidTo = p.ValidTo
}

// PlanModelFromDomain creates a new persistence model from a domain Plan.
func PlanModelFromDomain(p *tariff.Plan) *PlanModel {
	m := &PlanModel{}
	m.FromDomain(p)
	return m
}

// AssignmentModel is the persistence model for the plan Assignment aggregate.
// The composite natural key is enforced with a unique index.
type AssignmentModel struct {
	AggregateModel
	MSISDN    string     `gorm:"type:varchar(12);not null;uniqueIndex:idx_assignment_key,priority:1;index"`
	PlanCode  string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_assignment_key,priority:2"`
	StartDate time.Time  `gorm:"type:date;not null;uniqueIndex:idx_assignment_key,priority:3"`
	EndDate   *time.Time `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (AssignmentModel) TableName() string {
	return "plan_assignments"
}

// ToDomain converts the persistence model to a domain Assignment.
func (m *AssignmentModel) ToDomain() *tariff.Assignment {
	key, _ := valueobject.NewMSISDN(m.MSISDN)
	return &tariff.Assignment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		MSISDN:            key,
		PlanCode:          m.PlanCode,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
	}
}

// FromDomain populates the persistence model from a domain Assignment.
func (m *AssignmentModel) FromDomain(a *tariff.Assignment) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.MSISDN = a.MSISDN.String()
	m.PlanCode = a.PlanCode
	m.StartDate = a.StartDate
	m.EndDate = a.EndDate
}

// AssignmentModelFromDomain creates a new persistence model from a domain Assignment.
func AssignmentModelFromDomain(a *tariff.Assignment) *AssignmentModel {
	m := &AssignmentModel{}
	m.FromDomain(a)
	return m
}
