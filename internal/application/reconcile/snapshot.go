package reconcile

import (
	"encoding/json"
	"time"

	"github.com/telcobill/backend/internal/domain/subscriber"
	"github.com/telcobill/backend/internal/domain/tariff"
)

// Snapshot shapes serialize only the reconciled attributes, so that two
// snapshots compare equal exactly when a merge would be a no-op.

type subscriberState struct {
	MSISDN       string     `json:"msisdn"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Email        string     `json:"email,omitempty"`
	RegisteredAt time.Time  `json:"registered_at"`
	Status       string     `json:"status"`
}

func subscriberSnapshot(s *subscriber.Subscriber) string {
	return mustJSON(subscriberState{
		MSISDN:       s.MSISDN.String(),
		FirstName:    s.FirstName,
		LastName:     s.LastName,
		DateOfBirth:  s.DateOfBirth,
		Email:        s.Email,
		RegisteredAt: s.RegisteredAt,
		Status:       s.Status.String(),
	})
}

type planState struct {
	Code            string     `json:"plan_code"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	MonthlyFee      string     `json:"monthly_fee"`
	VoiceRatePerMin string     `json:"voice_rate_per_min"`
	SMSRate         string     `json:"sms_rate"`
	DataRatePerMB   string     `json:"data_rate_per_mb"`
	VoiceMinutesInc int        `json:"voice_minutes_inc"`
	SMSInc          int        `json:"sms_inc"`
	DataMBInc       int        `json:"data_mb_inc"`
	ValidFrom       *time.Time `json:"valid_from,omitempty"`
	ValidTo         *time.Time `json:"valid_to,omitempty"`
}

func planSnapshot(p *tariff.Plan) string {
	return mustJSON(planState{
		Code:            p.Code,
		Name:            p.Name,
		Description:     p.Description,
		MonthlyFee:      p.MonthlyFee.String(),
		VoiceRatePerMin: p.VoiceRatePerMin.String(),
		SMSRate:         p.SMSRate.String(),
		DataRatePerMB:   p.DataRatePerMB.String(),
		VoiceMinutesInc: p.VoiceMinutesInc,
		SMSInc:          p.SMSInc,
		DataMBInc:       p.DataMBInc,
		ValidFrom:       p.ValidFrom,
		ValidTo:         p.ValidTo,
	})
}

type assignmentState struct {
	MSISDN    string     `json:"msisdn"`
	PlanCode  string     `json:"plan_code"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

func assignmentSnapshot(a *tariff.Assignment) string {
	return mustJSON(assignmentState{
		MSISDN:    a.MSISDN.String(),
		PlanCode:  a.PlanCode,
		StartDate: a.StartDate,
		EndDate:   a.EndDate,
	})
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
