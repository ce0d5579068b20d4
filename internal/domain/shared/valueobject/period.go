package valueobject

import (
	"fmt"
	"time"
)

// BillingPeriod is a closed date interval over which usage is aggregated
// into one invoice. Both bounds are inclusive.
type BillingPeriod struct {
	start time.Time
	end   time.Time
}

// NewBillingPeriod constructs a billing period, rejecting inverted bounds
func NewBillingPeriod(start, end time.Time) (BillingPeriod, error) {
	if end.Before(start) {
		return BillingPeriod{}, fmt.Errorf("billing period end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return BillingPeriod{start: start, end: end}, nil
}

// CalendarMonth returns the billing period covering the calendar month
// that contains the given date, in the date's location.
func CalendarMonth(date time.Time) BillingPeriod {
	start := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return BillingPeriod{start: start, end: end}
}

// Start returns the period start
func (p BillingPeriod) Start() time.Time {
	return p.start
}

// End returns the period end
func (p BillingPeriod) End() time.Time {
	return p.end
}

// Contains reports whether t falls within the period
func (p BillingPeriod) Contains(t time.Time) bool {
	return !t.Before(p.start) && !t.After(p.end)
}

// DueDate returns the payment due date: period end plus the grace days
func (p BillingPeriod) DueDate(graceDays int) time.Time {
	return p.end.AddDate(0, 0, graceDays)
}

// String renders the period as start..end dates
func (p BillingPeriod) String() string {
	return fmt.Sprintf("%s..%s", p.start.Format("2006-01-02"), p.end.Format("2006-01-02"))
}
