package staging

import "context"

// Repository is the staging area contract. The loader writes, the
// reconciler reads and truncates; nothing else touches staging.
type Repository interface {
	InsertSubscribers(ctx context.Context, rows []Subscriber) error
	InsertPlans(ctx context.Context, rows []Plan) error
	InsertAssignments(ctx context.Context, rows []Assignment) error
	InsertCDRs(ctx context.Context, rows []CDR) error

	ListSubscribers(ctx context.Context) ([]Subscriber, error)
	ListPlans(ctx context.Context) ([]Plan, error)
	ListAssignments(ctx context.Context) ([]Assignment, error)
	ListCDRs(ctx context.Context) ([]CDR, error)

	// StagedSubscriberMSISDNs returns the distinct subscriber keys currently
	// staged. Combined with production keys it forms the loader's
	// referential gate for assignment and CDR rows.
	StagedSubscriberMSISDNs(ctx context.Context) (map[string]bool, error)

	// TruncateAll clears every staging table. Called only after a fully
	// error-free reconciliation run.
	TruncateAll(ctx context.Context) error
}
