package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/telcobill/backend/internal/domain/staging"
)

// Staging models use surrogate bigint keys, not aggregate ids: staged rows
// are transient carriers, truncated after each clean reconciliation.

// StagingSubscriberModel is the staging table for subscriber rows.
type StagingSubscriberModel struct {
	ID           int64      `gorm:"primaryKey;autoIncrement"`
	MSISDN       string     `gorm:"type:varchar(12);not null;index"`
	FirstName    string     `gorm:"type:varchar(100);not null"`
	LastName     string     `gorm:"type:varchar(100);not null"`
	DateOfBirth  *time.Time `gorm:"type:date"`
	Email        string     `gorm:"type:varchar(200)"`
	RegisteredAt time.Time  `gorm:"not null"`
	Status       string     `gorm:"type:varchar(20);not null"`
	SourceFile   string     `gorm:"type:varchar(255);not null"`
	LoadedAt     time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StagingSubscriberModel) TableName() string {
	return "staging_subscribers"
}

// ToDomain converts the staging model to a staged subscriber row.
func (m *StagingSubscriberModel) ToDomain() staging.Subscriber {
	return staging.Subscriber{
		ID:           m.ID,
		MSISDN:       m.MSISDN,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		DateOfBirth:  m.DateOfBirth,
		Email:        m.Email,
		RegisteredAt: m.RegisteredAt,
		Status:       m.Status,
		Provenance:   staging.Provenance{SourceFile: m.SourceFile, LoadedAt: m.LoadedAt},
	}
}

// StagingSubscriberModelFromDomain creates a staging model from a staged row.
func StagingSubscriberModelFromDomain(s staging.Subscriber) StagingSubscriberModel {
	return StagingSubscriberModel{
		MSISDN:       s.MSISDN,
		FirstName:    s.FirstName,
		LastName:     s.LastName,
		DateOfBirth:  s.DateOfBirth,
		Email:        s.Email,
		RegisteredAt: s.RegisteredAt,
		Status:       s.Status,
		SourceFile:   s.SourceFile,
		LoadedAt:     s.LoadedAt,
	}
}

// StagingPlanModel is the staging table for tariff plan rows.
type StagingPlanModel struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	Code            string          `gorm:"type:varchar(50);not null;index"`
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
	SourceFile      string          `gorm:"type:varchar(255);not null"`
	LoadedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StagingPlanModel) TableName() string {
	return "staging_plans"
}

// ToDomain converts the staging model to a staged plan row.
func (m *StagingPlanModel) ToDomain() staging.Plan {
	return staging.Plan{
		ID:              m.ID,
		Code:            m.Code,
		Name:            m.Name,
		Description:     m.Description,
		MonthlyFee:      m.MonthlyFee,
		VoiceRatePerMin: m.VoiceRatePerMin,
		SMSRate:         m.SMSRate,
		DataRatePerMB:   m.DataRatePerMB,
		VoiceMinutesInc: m.VoiceMinutesInc,
		SMSInc:          m.SMSInc,
		DataMBInc:       m.DataMBInc,
		ValidFrom:       m.ValidFrom,
		ValidTo:         m.ValidTo,
		Provenance:      staging.Provenance{SourceFile: m.SourceFile, LoadedAt: m.LoadedAt},
	}
}

// StagingPlanModelFromDomain creates a staging model from a staged row.
func StagingPlanModelFromDomain(p staging.Plan) StagingPlanModel {
	return StagingPlanModel{
		Code:            p.Code,
		Name:            p.Name,
		Description:     p.Description,
		MonthlyFee:      p.MonthlyFee,
		VoiceRatePerMin: p.VoiceRatePerMin,
		SMSRate:         p.SMSRate,
		DataRatePerMB:   p.DataRatePerMB,
		VoiceMinutesInc: p.VoiceMinutesInc,
		SMSInc:          p.SMSInc,
		DataMBInc:       p.DataMBInc,
		ValidFrom:       p.ValidFrom,
		ValidTo:         p.ValidTo,
		SourceFile:      p.SourceFile,
		LoadedAt:        p.LoadedAt,
	}
}

// StagingAssignmentModel is the staging table for plan assignment rows.
type StagingAssignmentModel struct {
	ID         int64      `gorm:"primaryKey;autoIncrement"`
	MSISDN     string     `gorm:"type:varchar(12);not null;index"`
	PlanCode   string     `gorm:"type:varchar(50);not null"`
	StartDate  time.Time  `gorm:"type:date;not null"`
	EndDate    *time.Time `gorm:"type:date"`
	SourceFile string     `gorm:"type:varchar(255);not null"`
	LoadedAt   time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StagingAssignmentModel) TableName() string {
	return "staging_plan_assignments"
}

// ToDomain converts the staging model to a staged assignment row.
func (m *StagingAssignmentModel) ToDomain() staging.Assignment {
	return staging.Assignment{
		ID:         m.ID,
		MSISDN:     m.MSISDN,
		PlanCode:   m.PlanCode,
		StartDate:  m.StartDate,
		EndDate:    m.EndDate,
		Provenance: staging.Provenance{SourceFile: m.SourceFile, LoadedAt: m.LoadedAt},
	}
}

// StagingAssignmentModelFromDomain creates a staging model from a staged row.
func StagingAssignmentModelFromDomain(a staging.Assignment) StagingAssignmentModel {
	return StagingAssignmentModel{
		MSISDN:     a.MSISDN,
		PlanCode:   a.PlanCode,
		StartDate:  a.StartDate,
		EndDate:    a.EndDate,
		SourceFile: a.SourceFile,
		LoadedAt:   a.LoadedAt,
	}
}

// StagingCDRModel is the staging table for call detail rows.
type StagingCDRModel struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	MSISDN          string          `gorm:"type:varchar(12);not null;index"`
	CallType        string          `gorm:"type:varchar(10);not null"`
	StartTime       time.Time       `gorm:"not null"`
	EndTime         time.Time       `gorm:"not null"`
	DurationSeconds int             `gorm:"not null"`
	Destination     string          `gorm:"type:varchar(50)"`
	Cost            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Direction       string          `gorm:"type:varchar(10);not null"`
	SourceFile      string          `gorm:"type:varchar(255);not null"`
	LoadedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StagingCDRModel) TableName() string {
	return "staging_call_detail_records"
}

// ToDomain converts the staging model to a staged CDR row.
func (m *StagingCDRModel) ToDomain() staging.CDR {
	return staging.CDR{
		ID:              m.ID,
		MSISDN:          m.MSISDN,
		CallType:        m.CallType,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		DurationSeconds: m.DurationSeconds,
		Destination:     m.Destination,
		Cost:            m.Cost,
		Direction:       m.Direction,
		Provenance:      staging.Provenance{SourceFile: m.SourceFile, LoadedAt: m.LoadedAt},
	}
}

// StagingCDRModelFromDomain creates a staging model from a staged row.
func StagingCDRModelFromDomain(c staging.CDR) StagingCDRModel {
	return StagingCDRModel{
		MSISDN:          c.MSISDN,
		CallType:        c.CallType,
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		DurationSeconds: c.DurationSeconds,
		Destination:     c.Destination,
		Cost:            c.Cost,
		Direction:       c.Direction,
		SourceFile:      c.SourceFile,
		LoadedAt:        c.LoadedAt,
	}
}
