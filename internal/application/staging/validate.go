// Package stagingapp implements the extract load pipeline: per-entity row
// validation, subscriber deduplication, and batched staging writes with a
// durable audit trail.
package stagingapp

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
	"github.com/telcobill/backend/internal/domain/staging"
	"github.com/telcobill/backend/internal/domain/subscriber"
	"github.com/telcobill/backend/internal/domain/usage"
	"github.com/telcobill/backend/internal/infrastructure/extract"
)

// Rejection is one row that failed validation. Validation never raises; it
// classifies each row as accepted or rejected and the caller decides what to
// do with the rejects.
type Rejection struct {
	LineNumber int
	Column     string
	Message    string
	Raw        string
}

func (r Rejection) Error() string {
	if r.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", r.LineNumber, r.Column, r.Message)
	}
	return fmt.Sprintf("row %d: %s", r.LineNumber, r.Message)
}

func reject(row *extract.Row, column, message string) *Rejection {
	return &Rejection{
		LineNumber: row.LineNumber,
		Column:     column,
		Message:    message,
		Raw:        row.Raw(),
	}
}

// Column layouts of the four extract entities
var (
	SubscriberColumns = []string{"msisdn", "first_name", "last_name", "date_of_birth", "email", "registered_at", "status"}
	PlanColumns       = []string{"plan_code", "name", "description", "monthly_fee", "voice_rate_per_min", "sms_rate", "data_rate_per_mb", "voice_minutes_inc", "sms_inc", "data_mb_inc", "valid_from", "valid_to"}
	AssignmentColumns = []string{"msisdn", "plan_code", "start_date", "end_date"}
	CDRColumns        = []string{"msisdn", "call_type", "start_time", "end_time", "duration_seconds", "destination", "cost", "direction"}
)

const dateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	dateLayout,
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// ValidateSubscriberRow classifies one subscriber extract row
func ValidateSubscriberRow(row *extract.Row, prov staging.Provenance) (staging.Subscriber, *Rejection) {
	var rec staging.Subscriber

	msisdn := row.Get("msisdn")
	if !valueobject.IsValidMSISDN(msisdn) {
		return rec, reject(row, "msisdn", fmt.Sprintf("invalid MSISDN %q: must be +27 followed by 9 digits", msisdn))
	}

	status := subscriber.Status(row.Get("status"))
	if !status.IsValid() {
		return rec, reject(row, "status", fmt.Sprintf("invalid status %q: must be ACTIVE, SUSPENDED or INACTIVE", row.Get("status")))
	}

	email := row.Get("email")
	if !subscriber.IsValidEmail(email) {
		return rec, reject(row, "email", fmt.Sprintf("invalid email address %q", email))
	}

	var dob *time.Time
	if v := row.Get("date_of_birth"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return rec, reject(row, "date_of_birth", fmt.Sprintf("invalid date %q", v))
		}
		dob = &d
	}

	registeredAt := prov.LoadedAt
	if v := row.Get("registered_at"); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return rec, reject(row, "registered_at", err.Error())
		}
		registeredAt = t
	}

	rec = staging.Subscriber{
		MSISDN:       msisdn,
		FirstName:    row.Get("first_name"),
		LastName:     row.Get("last_name"),
		DateOfBirth:  dob,
		Email:        email,
		RegisteredAt: registeredAt,
		Status:       status.String(),
		Provenance:   prov,
	}
	return rec, nil
}

// ValidatePlanRow classifies one tariff plan extract row
func ValidatePlanRow(row *extract.Row, prov staging.Provenance) (staging.Plan, *Rejection) {
	var rec staging.Plan

	code := row.Get("plan_code")
	if code == "" {
		return rec, reject(row, "plan_code", "plan code is required")
	}

	feeStr := row.Get("monthly_fee")
	if feeStr == "" {
		return rec, reject(row, "monthly_fee", "monthly fee is required")
	}
	fee, err := decimal.NewFromString(feeStr)
	if err != nil {
		return rec, reject(row, "monthly_fee", fmt.Sprintf("invalid decimal %q", feeStr))
	}
	if fee.LessThanOrEqual(decimal.Zero) {
		return rec, reject(row, "monthly_fee", "monthly fee must be positive")
	}

	rates := make(map[string]decimal.Decimal, 3)
	for _, col := range []string{"voice_rate_per_min", "sms_rate", "data_rate_per_mb"} {
		rates[col] = decimal.Zero
		if v := row.Get(col); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return rec, reject(row, col, fmt.Sprintf("invalid decimal %q", v))
			}
			if d.IsNegative() {
				return rec, reject(row, col, "rate cannot be negative")
			}
			rates[col] = d
		}
	}

	allowances := make(map[string]int, 3)
	for _, col := range []string{"voice_minutes_inc", "sms_inc", "data_mb_inc"} {
		allowances[col] = 0
		if v := row.Get(col); v != "" {
			var n int
			if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n < 0 {
				return rec, reject(row, col, fmt.Sprintf("invalid allowance %q", v))
			}
			allowances[col] = n
		}
	}

	var validFrom, validTo *time.Time
	if v := row.Get("valid_from"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return rec, reject(row, "valid_from", fmt.Sprintf("invalid date %q", v))
		}
		validFrom = &d
	}
	if v := row.Get("valid_to"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return rec, reject(row, "valid_to", fmt.Sprintf("invalid date %q", v))
		}
		validTo = &d
	}
	if validFrom != nil && validTo != nil && validTo.Before(*validFrom) {
		return rec, reject(row, "valid_to", "validity start exceeds end")
	}

	rec = staging.Plan{
		Code:            code,
		Name:            row.Get("name"),
		Description:     row.Get("description"),
		MonthlyFee:      fee,
		VoiceRatePerMin: rates["voice_rate_per_min"],
		SMSRate:         rates["sms_rate"],
		DataRatePerMB:   rates["data_rate_per_mb"],
		VoiceMinutesInc: allowances["voice_minutes_inc"],
		SMSInc:          allowances["sms_inc"],
		DataMBInc:       allowances["data_mb_inc"],
		ValidFrom:       validFrom,
		ValidTo:         validTo,
		Provenance:      prov,
	}
	return rec, nil
}

// ValidateAssignmentRow classifies one plan assignment extract row
func ValidateAssignmentRow(row *extract.Row, prov staging.Provenance) (staging.Assignment, *Rejection) {
	var rec staging.Assignment

	msisdn := row.Get("msisdn")
	if !valueobject.IsValidMSISDN(msisdn) {
		return rec, reject(row, "msisdn", fmt.Sprintf("invalid MSISDN %q", msisdn))
	}
	if row.Get("plan_code") == "" {
		return rec, reject(row, "plan_code", "plan code is required")
	}

	startStr := row.Get("start_date")
	if startStr == "" {
		return rec, reject(row, "start_date", "start date is required")
	}
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return rec, reject(row, "start_date", fmt.Sprintf("invalid date %q", startStr))
	}

	var end *time.Time
	if v := row.Get("end_date"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return rec, reject(row, "end_date", fmt.Sprintf("invalid date %q", v))
		}
		if !d.After(start) {
			return rec, reject(row, "end_date", "end date must be strictly after start date")
		}
		end = &d
	}

	rec = staging.Assignment{
		MSISDN:     msisdn,
		PlanCode:   row.Get("plan_code"),
		StartDate:  start,
		EndDate:    end,
		Provenance: prov,
	}
	return rec, nil
}

// ValidateCDRRow classifies one call detail extract row
func ValidateCDRRow(row *extract.Row, prov staging.Provenance) (staging.CDR, *Rejection) {
	var rec staging.CDR

	msisdn := row.Get("msisdn")
	if !valueobject.IsValidMSISDN(msisdn) {
		return rec, reject(row, "msisdn", fmt.Sprintf("invalid MSISDN %q", msisdn))
	}

	callType := usage.CallType(row.Get("call_type"))
	if !callType.IsValid() {
		return rec, reject(row, "call_type", fmt.Sprintf("invalid call type %q: must be VOICE, SMS or DATA", row.Get("call_type")))
	}

	startStr := row.Get("start_time")
	if startStr == "" {
		return rec, reject(row, "start_time", "start time is required")
	}
	start, err := parseTimestamp(startStr)
	if err != nil {
		return rec, reject(row, "start_time", err.Error())
	}

	end, err := parseTimestamp(row.Get("end_time"))
	if err != nil {
		return rec, reject(row, "end_time", err.Error())
	}
	if !end.After(start) {
		return rec, reject(row, "end_time", "end time must be strictly after start time")
	}

	var duration int
	if v := row.Get("duration_seconds"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &duration); err != nil {
			return rec, reject(row, "duration_seconds", fmt.Sprintf("invalid duration %q", v))
		}
	}
	if duration < 0 {
		return rec, reject(row, "duration_seconds", "duration cannot be negative")
	}

	direction := usage.Direction(row.Get("direction"))
	if !direction.IsValid() {
		return rec, reject(row, "direction", fmt.Sprintf("invalid direction %q: must be INBOUND or OUTBOUND", row.Get("direction")))
	}

	cost := decimal.Zero
	if v := row.Get("cost"); v != "" {
		cost, err = decimal.NewFromString(v)
		if err != nil {
			return rec, reject(row, "cost", fmt.Sprintf("invalid decimal %q", v))
		}
	}

	rec = staging.CDR{
		MSISDN:          msisdn,
		CallType:        string(callType),
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: duration,
		Destination:     row.Get("destination"),
		Cost:            cost,
		Direction:       string(direction),
		Provenance:      prov,
	}
	return rec, nil
}
