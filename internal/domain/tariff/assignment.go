package tariff

import (
	"time"

	"github.com/telcobill/backend/internal/domain/shared"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
)

// Assignment binds a subscriber to a plan over a temporal interval.
// Composite natural key: (subscriber MSISDN, plan code, start date).
// The start date and plan binding are immutable once created; only the
// end date may change. A nil end date means the assignment is open.
type Assignment struct {
	shared.BaseAggregateRoot
	MSISDN    valueobject.MSISDN
	PlanCode  string
	StartDate time.Time
	EndDate   *time.Time
}

// NewAssignment creates a plan assignment
func NewAssignment(msisdn string, planCode string, startDate time.Time) (*Assignment, error) {
	key, err := valueobject.NewMSISDN(msisdn)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_MSISDN", err.Error())
	}
	if planCode == "" {
		return nil, shared.NewDomainError("INVALID_PLAN_CODE", "Plan code cannot be empty")
	}
	if startDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_START_DATE", "Start date is required")
	}

	return &Assignment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MSISDN:            key,
		PlanCode:          planCode,
		StartDate:         startDate,
	}, nil
}

// SetEndDate closes the assignment. The end date must be strictly after the
// start date and, once set, is never moved before it.
func (a *Assignment) SetEndDate(end time.Time) error {
	if !end.After(a.StartDate) {
		return shared.NewDomainError("INVALID_END_DATE", "End date must be strictly after start date")
	}
	a.EndDate = &end
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// ClearEndDate reopens the assignment
func (a *Assignment) ClearEndDate() {
	a.EndDate = nil
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// IsOpen reports whether the assignment has no end date
func (a *Assignment) IsOpen() bool {
	return a.EndDate == nil
}

// Covers reports whether the assignment interval contains t
func (a *Assignment) Covers(t time.Time) bool {
	if t.Before(a.StartDate) {
		return false
	}
	if a.EndDate != nil && t.After(*a.EndDate) {
		return false
	}
	return true
}
