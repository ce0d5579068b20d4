package audit

import (
	"context"
	"time"
)

// ImportLedger records run summaries. Implementations must persist on a
// commit boundary independent of the caller's transaction.
type ImportLedger interface {
	RecordSummary(ctx context.Context, sourceName string, runTime time.Time, recordCount, errorCount int, status RunStatus, message string) error
	ListSummaries(ctx context.Context, limit int) ([]ImportSummary, error)
}

// ErrorReporter records row-level and run-level failures. It must be
// callable even when the invoking operation is about to roll back; its
// records survive that rollback.
type ErrorReporter interface {
	RecordError(ctx context.Context, entry *ErrorLog) error
	ListErrors(ctx context.Context, limit int) ([]ErrorLog, error)
}

// ChangeRecorder persists entity change events emitted at merge mutations
type ChangeRecorder interface {
	RecordChange(ctx context.Context, change *EntityChange) error
}
