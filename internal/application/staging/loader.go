package stagingapp

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/telcobill/backend/internal/domain/audit"
	"github.com/telcobill/backend/internal/domain/staging"
	"github.com/telcobill/backend/internal/domain/subscriber"
	"github.com/telcobill/backend/internal/infrastructure/extract"
	"go.uber.org/zap"
)

const loadProcess = "staging_load"

// LoadResult is the outcome of loading one entity's extract
type LoadResult struct {
	Entity       Entity          `json:"entity"`
	SourceName   string          `json:"source_name"`
	TotalRows    int             `json:"total_rows"`
	AcceptedRows int             `json:"accepted_rows"`
	ErrorRows    int             `json:"error_rows"`
	SkippedRows  int             `json:"skipped_rows"`
	Status       audit.RunStatus `json:"status"`
}

// RunResult is the outcome of a full load across all entities
type RunResult struct {
	Results      []LoadResult    `json:"results"`
	TotalRows    int             `json:"total_rows"`
	AcceptedRows int             `json:"accepted_rows"`
	ErrorRows    int             `json:"error_rows"`
	SkippedRows  int             `json:"skipped_rows"`
	Status       audit.RunStatus `json:"status"`
}

// LoaderService streams extract sources through the per-entity validators
// into the staging area. Row failures are recorded and skipped; only
// source-level failures abort a load.
type LoaderService struct {
	sources        SourceProvider
	stagingRepo    staging.Repository
	subscriberRepo subscriber.Repository
	ledger         audit.ImportLedger
	reporter       audit.ErrorReporter
	archiver       Archiver
	logger         *zap.Logger
	batchSize      int
}

// NewLoaderService creates a LoaderService. archiver may be nil when no
// archiving backend is configured.
func NewLoaderService(
	sources SourceProvider,
	stagingRepo staging.Repository,
	subscriberRepo subscriber.Repository,
	ledger audit.ImportLedger,
	reporter audit.ErrorReporter,
	archiver Archiver,
	logger *zap.Logger,
	batchSize int,
) *LoaderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 10000
	}
	return &LoaderService{
		sources:        sources,
		stagingRepo:    stagingRepo,
		subscriberRepo: subscriberRepo,
		ledger:         ledger,
		reporter:       reporter,
		archiver:       archiver,
		logger:         logger,
		batchSize:      batchSize,
	}
}

// LoadEntity loads one entity's extract for the given date into staging
func (s *LoaderService) LoadEntity(ctx context.Context, entity Entity, date time.Time) (*LoadResult, error) {
	src, err := s.sources.Open(entity, date)
	if err != nil {
		s.reportRunFailure(ctx, string(entity), err)
		return nil, err
	}
	defer func() { _ = src.Close() }()

	if missing := src.MissingHeaders(requiredColumns(entity)); len(missing) > 0 {
		err := fmt.Errorf("extract %s: missing required columns %v", src.Name(), missing)
		s.reportRunFailure(ctx, string(entity), err)
		return nil, err
	}

	result := &LoadResult{Entity: entity, SourceName: src.Name()}
	runTime := time.Now()
	prov := staging.Provenance{SourceFile: src.Name(), LoadedAt: runTime}

	// State shared across batches: first-seen-wins dedupe for subscribers,
	// the referential gate set for assignments and CDRs
	var seen map[string]bool
	var known map[string]bool
	if entity == EntitySubscribers {
		seen = make(map[string]bool)
	}
	if entity == EntityAssignments || entity == EntityCDRs {
		known, err = s.stagingRepo.StagedSubscriberMSISDNs(ctx)
		if err != nil {
			s.reportRunFailure(ctx, string(entity), err)
			return nil, err
		}
	}

	for {
		batch, readErr := src.ReadBatch(ctx, s.batchSize)
		if readErr != nil && readErr != io.EOF {
			s.reportRunFailure(ctx, string(entity), readErr)
			s.recordSummary(ctx, src.Name(), runTime, result.TotalRows, result.ErrorRows+1, audit.RunStatusFailure, readErr.Error())
			return nil, readErr
		}

		result.TotalRows += len(batch)
		if err := s.loadBatch(ctx, entity, batch, prov, seen, known, result); err != nil {
			s.reportRunFailure(ctx, string(entity), err)
			s.recordSummary(ctx, src.Name(), runTime, result.TotalRows, result.ErrorRows+1, audit.RunStatusFailure, err.Error())
			return nil, err
		}

		if readErr == io.EOF {
			break
		}
	}

	result.Status = audit.StatusForCounts(result.ErrorRows)
	s.recordSummary(ctx, src.Name(), runTime, result.TotalRows, result.ErrorRows, result.Status,
		fmt.Sprintf("%d accepted, %d rejected, %d skipped", result.AcceptedRows, result.ErrorRows, result.SkippedRows))

	if result.ErrorRows == 0 && s.archiver != nil {
		if err := s.archiver.Archive(ctx, src.Name()); err != nil {
			// Archiving is housekeeping; a failure does not taint the load
			s.logger.Warn("Failed to archive extract",
				zap.String("source", src.Name()), zap.Error(err))
		}
	}

	s.logger.Info("Extract loaded",
		zap.String("entity", string(entity)),
		zap.String("source", src.Name()),
		zap.Int("total", result.TotalRows),
		zap.Int("accepted", result.AcceptedRows),
		zap.Int("rejected", result.ErrorRows),
		zap.Int("skipped", result.SkippedRows),
		zap.String("status", string(result.Status)))
	return result, nil
}

// LoadAll loads all four entities in referential dependency order.
// A fatal failure on any entity aborts the remaining loads and is re-raised
// after a run-level FAILURE summary.
func (s *LoaderService) LoadAll(ctx context.Context, date time.Time, clearStaging bool) (*RunResult, error) {
	runTime := time.Now()

	if clearStaging {
		if err := s.stagingRepo.TruncateAll(ctx); err != nil {
			s.reportRunFailure(ctx, "load_all", err)
			s.recordSummary(ctx, "load_all", runTime, 0, 1, audit.RunStatusFailure, err.Error())
			return nil, err
		}
	}

	run := &RunResult{}
	for _, entity := range LoadOrder {
		result, err := s.LoadEntity(ctx, entity, date)
		if err != nil {
			run.Status = audit.RunStatusFailure
			s.recordSummary(ctx, "load_all", runTime, run.TotalRows, run.ErrorRows+1, audit.RunStatusFailure,
				fmt.Sprintf("aborted on %s: %v", entity, err))
			return run, err
		}
		run.Results = append(run.Results, *result)
		run.TotalRows += result.TotalRows
		run.AcceptedRows += result.AcceptedRows
		run.ErrorRows += result.ErrorRows
		run.SkippedRows += result.SkippedRows
	}

	run.Status = audit.StatusForCounts(run.ErrorRows)
	s.recordSummary(ctx, "load_all", runTime, run.TotalRows, run.ErrorRows, run.Status,
		fmt.Sprintf("%d accepted, %d rejected, %d skipped", run.AcceptedRows, run.ErrorRows, run.SkippedRows))
	return run, nil
}

// loadBatch folds one batch through the entity's validator and persists the
// accepted rows. Returns an error only for persistence failures, which are
// fatal for the load.
func (s *LoaderService) loadBatch(
	ctx context.Context,
	entity Entity,
	batch []*extract.Row,
	prov staging.Provenance,
	seen map[string]bool,
	known map[string]bool,
	result *LoadResult,
) error {
	switch entity {
	case EntitySubscribers:
		accepted := make([]staging.Subscriber, 0, len(batch))
		for _, row := range batch {
			// Dedupe by identifier before validation, first seen wins
			key := row.Get("msisdn")
			if key != "" && seen[key] {
				result.SkippedRows++
				continue
			}
			rec, rej := ValidateSubscriberRow(row, prov)
			if rej != nil {
				s.reportRejection(ctx, "staging_subscribers", prov.SourceFile, rej, result)
				continue
			}
			seen[key] = true
			accepted = append(accepted, rec)
		}
		if err := s.stagingRepo.InsertSubscribers(ctx, accepted); err != nil {
			return err
		}
		result.AcceptedRows += len(accepted)
		// Newly staged subscribers extend the gate for the loads that follow
		for _, rec := range accepted {
			if known != nil {
				known[rec.MSISDN] = true
			}
		}

	case EntityPlans:
		accepted := make([]staging.Plan, 0, len(batch))
		for _, row := range batch {
			rec, rej := ValidatePlanRow(row, prov)
			if rej != nil {
				s.reportRejection(ctx, "staging_plans", prov.SourceFile, rej, result)
				continue
			}
			accepted = append(accepted, rec)
		}
		if err := s.stagingRepo.InsertPlans(ctx, accepted); err != nil {
			return err
		}
		result.AcceptedRows += len(accepted)

	case EntityAssignments:
		candidates := make([]staging.Assignment, 0, len(batch))
		lines := make([]int, 0, len(batch))
		for _, row := range batch {
			rec, rej := ValidateAssignmentRow(row, prov)
			if rej != nil {
				s.reportRejection(ctx, "staging_plan_assignments", prov.SourceFile, rej, result)
				continue
			}
			candidates = append(candidates, rec)
			lines = append(lines, row.LineNumber)
		}
		keys := make([]string, len(candidates))
		for i, rec := range candidates {
			keys[i] = rec.MSISDN
		}
		if err := s.resolveKnown(ctx, known, keys); err != nil {
			return err
		}
		accepted := candidates[:0]
		for i, rec := range candidates {
			if !known[rec.MSISDN] {
				// Referential gap: excluded from the candidate set, counted
				// but not reported as an error
				result.SkippedRows++
				s.logger.Debug("Assignment row references unknown subscriber",
					zap.String("msisdn", rec.MSISDN), zap.Int("line", lines[i]))
				continue
			}
			accepted = append(accepted, rec)
		}
		if err := s.stagingRepo.InsertAssignments(ctx, accepted); err != nil {
			return err
		}
		result.AcceptedRows += len(accepted)

	case EntityCDRs:
		candidates := make([]staging.CDR, 0, len(batch))
		lines := make([]int, 0, len(batch))
		for _, row := range batch {
			rec, rej := ValidateCDRRow(row, prov)
			if rej != nil {
				s.reportRejection(ctx, "staging_call_detail_records", prov.SourceFile, rej, result)
				continue
			}
			candidates = append(candidates, rec)
			lines = append(lines, row.LineNumber)
		}
		keys := make([]string, len(candidates))
		for i, rec := range candidates {
			keys[i] = rec.MSISDN
		}
		if err := s.resolveKnown(ctx, known, keys); err != nil {
			return err
		}
		accepted := candidates[:0]
		for i, rec := range candidates {
			if !known[rec.MSISDN] {
				result.SkippedRows++
				s.logger.Debug("CDR row references unknown subscriber",
					zap.String("msisdn", rec.MSISDN), zap.Int("line", lines[i]))
				continue
			}
			accepted = append(accepted, rec)
		}
		if err := s.stagingRepo.InsertCDRs(ctx, accepted); err != nil {
			return err
		}
		result.AcceptedRows += len(accepted)

	default:
		return fmt.Errorf("unknown entity %q", entity)
	}

	return nil
}

// resolveKnown extends the referential gate set with any of the given keys
// found in the production store. An extract can legitimately ship rows for
// subscribers loaded on an earlier day, so staged keys alone are not enough.
func (s *LoaderService) resolveKnown(ctx context.Context, known map[string]bool, keys []string) error {
	var unresolved []string
	seen := make(map[string]bool)
	for _, k := range keys {
		if known[k] || seen[k] {
			continue
		}
		seen[k] = true
		unresolved = append(unresolved, k)
	}
	if len(unresolved) == 0 {
		return nil
	}
	existing, err := s.subscriberRepo.ExistingMSISDNs(ctx, unresolved)
	if err != nil {
		return err
	}
	for k := range existing {
		known[k] = true
	}
	return nil
}

// reportRejection records a row rejection in the durable error trail
func (s *LoaderService) reportRejection(ctx context.Context, table, sourceFile string, rej *Rejection, result *LoadResult) {
	result.ErrorRows++
	entry := audit.NewErrorLog(loadProcess, table, rej.Error()).
		WithRawRecord(rej.Raw).
		WithSourceFile(sourceFile)
	if err := s.reporter.RecordError(ctx, entry); err != nil {
		s.logger.Error("Failed to record row rejection",
			zap.String("table", table), zap.Error(err))
	}
}

// reportRunFailure records a run-level failure before it is re-raised
func (s *LoaderService) reportRunFailure(ctx context.Context, process string, cause error) {
	entry := audit.NewErrorLog(loadProcess, process, cause.Error())
	if err := s.reporter.RecordError(ctx, entry); err != nil {
		s.logger.Error("Failed to record run failure", zap.Error(err))
	}
}

func (s *LoaderService) recordSummary(ctx context.Context, source string, runTime time.Time, records, errors int, status audit.RunStatus, message string) {
	if err := s.ledger.RecordSummary(ctx, source, runTime, records, errors, status, message); err != nil {
		s.logger.Error("Failed to record import summary",
			zap.String("source", source), zap.Error(err))
	}
}
