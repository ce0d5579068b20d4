package tariff

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/telcobill/backend/internal/domain/shared"
)

// Plan is a priced service bundle, keyed naturally by its plan code.
// Mutable; reconciled by upsert.
type Plan struct {
	shared.BaseAggregateRoot
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
}

// NewPlan creates a tariff plan. The monthly fee must be positive and the
// validity window, when both bounds are present, must not be inverted.
func NewPlan(code, name string, monthlyFee decimal.Decimal) (*Plan, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_PLAN_CODE", "Plan code cannot be empty")
	}
	if monthlyFee.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_MONTHLY_FEE", "Monthly fee must be positive")
	}

	return &Plan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		MonthlyFee:        monthlyFee,
	}, nil
}

// SetRates sets the per-unit usage rates
func (p *Plan) SetRates(voicePerMin, smsPerMsg, dataPerMB decimal.Decimal) error {
	if voicePerMin.IsNegative() || smsPerMsg.IsNegative() || dataPerMB.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Usage rates cannot be negative")
	}
	p.VoiceRatePerMin = voicePerMin
	p.SMSRate = smsPerMsg
	p.DataRatePerMB = dataPerMB
	p.touch()
	return nil
}

// SetAllowances sets the bundled usage allowances
func (p *Plan) SetAllowances(voiceMinutes, smsCount, dataMB int) error {
	if voiceMinutes < 0 || smsCount < 0 || dataMB < 0 {
		return shared.NewDomainError("INVALID_ALLOWANCE", "Allowances cannot be negative")
	}
	p.VoiceMinutesInc = voiceMinutes
	p.SMSInc = smsCount
	p.DataMBInc = dataMB
	p.touch()
	return nil
}

// SetValidity sets the validity window. A nil bound is open-ended.
func (p *Plan) SetValidity(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return shared.NewDomainError("INVALID_VALIDITY",
			fmt.Sprintf("Validity start %s exceeds end %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
	}
	p.ValidFrom = from
	p.ValidTo = to
	p.touch()
	return nil
}

// Overwrite replaces all mutable attributes from another plan with the same
// code. The upsert path of reconciliation.
func (p *Plan) Overwrite(src *Plan) error {
	if p.Code != src.Code {
		return shared.NewDomainError("KEY_MISMATCH", "Cannot overwrite plan with a different code")
	}
	p.Name = src.Name
	p.Description = src.Description
	p.MonthlyFee = src.MonthlyFee
	p.VoiceRatePerMin = src.VoiceRatePerMin
	p.SMSRate = src.SMSRate
	p.DataRatePerMB = src.DataRatePerMB
	p.VoiceMinutesInc = src.VoiceMinutesInc
	p.SMSInc = src.SMSInc
	p.DataMBInc = src.DataMBInc
	p.ValidFrom = src.ValidFrom
	p.ValidTo = src.ValidTo
	p.touch()
	return nil
}

// IsValidAt reports whether the plan's validity window covers t
func (p *Plan) IsValidAt(t time.Time) bool {
	if p.ValidFrom != nil && t.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidTo != nil && t.After(*p.ValidTo) {
		return false
	}
	return true
}

func (p *Plan) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
