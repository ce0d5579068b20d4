// Package staging holds the transient row shapes that sit between a raw
// extract and the production store. Staged rows mirror their production
// entities plus load provenance, and never outlive a clean reconciliation.
package staging

import (
	"time"

	"github.com/shopspring/decimal"
)

// Provenance is carried by every staged row
type Provenance struct {
	SourceFile string
	LoadedAt   time.Time
}

// Subscriber is a validated subscriber row awaiting reconciliation
type Subscriber struct {
	ID           int64
	MSISDN       string
	FirstName    string
	LastName     string
	DateOfBirth  *time.Time
	Email        string
	RegisteredAt time.Time
	Status       string
	Provenance
}

// Plan is a validated tariff plan row awaiting reconciliation
type Plan struct {
	ID              int64
	Code            string
	Name            string
	Description     string
	MonthlyFee      decimal.Decimal
	VoiceRatePerMin decimal.Decimal
	SMSRate         decimal.Decimal
	DataRatePerMB   decimal.Decimal
	VoiceMinutesInc int
	SMSInc          int
	DataMBInc       int
	ValidFrom       *time.Time
	ValidTo         *time.Time
	Provenance
}

// Assignment is a validated plan assignment row awaiting reconciliation
type Assignment struct {
	ID        int64
	MSISDN    string
	PlanCode  string
	StartDate time.Time
	EndDate   *time.Time
	Provenance
}

// CDR is a validated call detail row awaiting reconciliation
type CDR struct {
	ID              int64
	MSISDN          string
	CallType        string
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int
	Destination     string
	Cost            decimal.Decimal
	Direction       string
	Provenance
}
