package usage

import (
	"context"
	"time"
)

// Repository defines persistence operations for call detail records.
// CDRs are insert-only: there is intentionally no update or delete.
type Repository interface {
	// Exists matches on the natural identity (msisdn, call type, start, end)
	Exists(ctx context.Context, msisdn string, callType CallType, start, end time.Time) (bool, error)
	Insert(ctx context.Context, cdr *CallDetailRecord) error
	// AggregateForPeriod sums VOICE seconds, DATA usage quantity and SMS
	// record count for one subscriber over [start, end].
	AggregateForPeriod(ctx context.Context, msisdn string, start, end time.Time) (*UsageTotals, error)
	Count(ctx context.Context) (int64, error)
}
