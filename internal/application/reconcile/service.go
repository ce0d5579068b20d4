package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	stagingapp "github.com/telcobill/backend/internal/application/staging"
	"github.com/telcobill/backend/internal/domain/audit"
	"github.com/telcobill/backend/internal/domain/shared"
	"github.com/telcobill/backend/internal/domain/staging"
	"github.com/telcobill/backend/internal/domain/subscriber"
	"github.com/telcobill/backend/internal/domain/tariff"
	"github.com/telcobill/backend/internal/domain/usage"
	"go.uber.org/zap"
)

const reconcileProcess = "reconciliation"

// EntityResult is the outcome of merging one entity's staged rows
type EntityResult struct {
	Entity    stagingapp.Entity `json:"entity"`
	Staged    int               `json:"staged"`
	Inserted  int               `json:"inserted"`
	Updated   int               `json:"updated"`
	Unchanged int               `json:"unchanged"`
	Status    audit.RunStatus   `json:"status"`
}

// RunResult is the outcome of a full reconciliation run
type RunResult struct {
	Results        []EntityResult  `json:"results"`
	Inserted       int             `json:"inserted"`
	Updated        int             `json:"updated"`
	Unchanged      int             `json:"unchanged"`
	FailedEntities int             `json:"failed_entities"`
	StagingCleared bool            `json:"staging_cleared"`
	Status         audit.RunStatus `json:"status"`
}

// Service merges staged rows into the production store. Each entity's merge
// runs in its own transaction: a failure rolls that entity back in full and
// the remaining entities still run.
type Service struct {
	scope       TransactionScope
	stagingRepo staging.Repository
	ledger      audit.ImportLedger
	reporter    audit.ErrorReporter
	changes     audit.ChangeRecorder
	logger      *zap.Logger
}

// NewService creates a reconciliation Service
func NewService(
	scope TransactionScope,
	stagingRepo staging.Repository,
	ledger audit.ImportLedger,
	reporter audit.ErrorReporter,
	changes audit.ChangeRecorder,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		scope:       scope,
		stagingRepo: stagingRepo,
		ledger:      ledger,
		reporter:    reporter,
		changes:     changes,
		logger:      logger,
	}
}

// ReconcileAll merges every entity in referential dependency order. The
// staging area is cleared only when all four merges committed cleanly.
func (s *Service) ReconcileAll(ctx context.Context) (*RunResult, error) {
	runTime := time.Now()
	run := &RunResult{}

	for _, entity := range stagingapp.LoadOrder {
		result, err := s.ReconcileEntity(ctx, entity)
		if err != nil {
			run.FailedEntities++
			run.Results = append(run.Results, EntityResult{Entity: entity, Status: audit.RunStatusFailure})
			continue
		}
		run.Results = append(run.Results, *result)
		run.Inserted += result.Inserted
		run.Updated += result.Updated
		run.Unchanged += result.Unchanged
	}

	switch run.FailedEntities {
	case 0:
		run.Status = audit.RunStatusSuccess
	case len(stagingapp.LoadOrder):
		run.Status = audit.RunStatusFailure
	default:
		run.Status = audit.RunStatusPartialSuccess
	}

	if run.FailedEntities == 0 {
		if err := s.stagingRepo.TruncateAll(ctx); err != nil {
			s.reportFailure(ctx, "staging_cleanup", err)
			run.Status = audit.RunStatusPartialSuccess
		} else {
			run.StagingCleared = true
		}
	}

	s.recordSummary(ctx, "reconcile_all", runTime, run.Inserted+run.Updated+run.Unchanged, run.FailedEntities, run.Status,
		fmt.Sprintf("%d inserted, %d updated, %d unchanged, %d entities failed", run.Inserted, run.Updated, run.Unchanged, run.FailedEntities))
	return run, nil
}

// ReconcileEntity merges one entity's staged rows inside a single
// transaction. On error the transaction is rolled back, the failure is
// recorded durably and the error returned.
func (s *Service) ReconcileEntity(ctx context.Context, entity stagingapp.Entity) (*EntityResult, error) {
	runTime := time.Now()
	result := &EntityResult{Entity: entity}

	var merge func(repos TransactionalRepositories) error
	switch entity {
	case stagingapp.EntitySubscribers:
		merge = func(repos TransactionalRepositories) error { return s.mergeSubscribers(ctx, repos, result) }
	case stagingapp.EntityPlans:
		merge = func(repos TransactionalRepositories) error { return s.mergePlans(ctx, repos, result) }
	case stagingapp.EntityAssignments:
		merge = func(repos TransactionalRepositories) error { return s.mergeAssignments(ctx, repos, result) }
	case stagingapp.EntityCDRs:
		merge = func(repos TransactionalRepositories) error { return s.mergeCDRs(ctx, repos, result) }
	default:
		return nil, fmt.Errorf("unknown entity %q", entity)
	}

	if err := s.scope.Execute(ctx, merge); err != nil {
		s.reportFailure(ctx, string(entity), err)
		s.recordSummary(ctx, "reconcile_"+string(entity), runTime, result.Staged, 1, audit.RunStatusFailure, err.Error())
		s.logger.Error("Entity reconciliation failed",
			zap.String("entity", string(entity)), zap.Error(err))
		return nil, err
	}

	result.Status = audit.RunStatusSuccess
	s.recordSummary(ctx, "reconcile_"+string(entity), runTime, result.Staged, 0, audit.RunStatusSuccess,
		fmt.Sprintf("%d inserted, %d updated, %d unchanged", result.Inserted, result.Updated, result.Unchanged))

	s.logger.Info("Entity reconciled",
		zap.String("entity", string(entity)),
		zap.Int("staged", result.Staged),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("unchanged", result.Unchanged))
	return result, nil
}

func (s *Service) mergeSubscribers(ctx context.Context, repos TransactionalRepositories, result *EntityResult) error {
	rows, err := s.stagingRepo.ListSubscribers(ctx)
	if err != nil {
		return err
	}
	result.Staged = len(rows)
	repo := repos.SubscriberRepo()

	for _, row := range rows {
		existing, err := repo.FindByMSISDN(ctx, row.MSISDN)
		switch {
		case errors.Is(err, shared.ErrSubscriberNotFound):
			sub, err := subscriberFromStaged(row)
			if err != nil {
				return fmt.Errorf("subscriber %s: %w", row.MSISDN, err)
			}
			if err := repo.Save(ctx, sub); err != nil {
				return fmt.Errorf("subscriber %s: %w", row.MSISDN, err)
			}
			result.Inserted++
			s.recordChange(ctx, "subscriber", row.MSISDN, audit.ChangeKindInsert, "", subscriberSnapshot(sub))

		case err != nil:
			return fmt.Errorf("subscriber %s: %w", row.MSISDN, err)

		default:
			before := subscriberSnapshot(existing)
			incoming, err := subscriberFromStaged(row)
			if err != nil {
				return fmt.Errorf("subscriber %s: %w", row.MSISDN, err)
			}
			if err := existing.Overwrite(incoming); err != nil {
				return fmt.Errorf("subscriber %s: %w", row.MSISDN, err)
			}
			after := subscriberSnapshot(existing)
			if before == after {
				result.Unchanged++
				continue
			}
			if err := repo.Save(ctx, existing); err != nil {
				return fmt.Errorf("subscriber %s: %w", row.MSISDN, err)
			}
			result.Updated++
			s.recordChange(ctx, "subscriber", row.MSISDN, audit.ChangeKindUpdate, before, after)
		}
	}
	return nil
}

func (s *Service) mergePlans(ctx context.Context, repos TransactionalRepositories, result *EntityResult) error {
	rows, err := s.stagingRepo.ListPlans(ctx)
	if err != nil {
		return err
	}
	result.Staged = len(rows)
	repo := repos.PlanRepo()

	for _, row := range rows {
		existing, err := repo.FindByCode(ctx, row.Code)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			plan, err := planFromStaged(row)
			if err != nil {
				return fmt.Errorf("plan %s: %w", row.Code, err)
			}
			if err := repo.Save(ctx, plan); err != nil {
				return fmt.Errorf("plan %s: %w", row.Code, err)
			}
			result.Inserted++
			s.recordChange(ctx, "plan", row.Code, audit.ChangeKindInsert, "", planSnapshot(plan))

		case err != nil:
			return fmt.Errorf("plan %s: %w", row.Code, err)

		default:
			before := planSnapshot(existing)
			incoming, err := planFromStaged(row)
			if err != nil {
				return fmt.Errorf("plan %s: %w", row.Code, err)
			}
			if err := existing.Overwrite(incoming); err != nil {
				return fmt.Errorf("plan %s: %w", row.Code, err)
			}
			after := planSnapshot(existing)
			if before == after {
				result.Unchanged++
				continue
			}
			if err := repo.Save(ctx, existing); err != nil {
				return fmt.Errorf("plan %s: %w", row.Code, err)
			}
			result.Updated++
			s.recordChange(ctx, "plan", row.Code, audit.ChangeKindUpdate, before, after)
		}
	}
	return nil
}

func (s *Service) mergeAssignments(ctx context.Context, repos TransactionalRepositories, result *EntityResult) error {
	rows, err := s.stagingRepo.ListAssignments(ctx)
	if err != nil {
		return err
	}
	result.Staged = len(rows)
	repo := repos.AssignmentRepo()

	for _, row := range rows {
		key := fmt.Sprintf("%s/%s/%s", row.MSISDN, row.PlanCode, row.StartDate.Format("2006-01-02"))
		existing, err := repo.FindByNaturalKey(ctx, row.MSISDN, row.PlanCode, row.StartDate)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			assignment, err := assignmentFromStaged(row)
			if err != nil {
				return fmt.Errorf("assignment %s: %w", key, err)
			}
			if err := repo.Save(ctx, assignment); err != nil {
				return fmt.Errorf("assignment %s: %w", key, err)
			}
			result.Inserted++
			s.recordChange(ctx, "plan_assignment", key, audit.ChangeKindInsert, "", assignmentSnapshot(assignment))

		case err != nil:
			return fmt.Errorf("assignment %s: %w", key, err)

		default:
			// Plan binding and start date are immutable; only the end
			// date follows the staged row
			if sameEndDate(existing.EndDate, row.EndDate) {
				result.Unchanged++
				continue
			}
			before := assignmentSnapshot(existing)
			if row.EndDate == nil {
				existing.ClearEndDate()
			} else if err := existing.SetEndDate(*row.EndDate); err != nil {
				return fmt.Errorf("assignment %s: %w", key, err)
			}
			if err := repo.Save(ctx, existing); err != nil {
				return fmt.Errorf("assignment %s: %w", key, err)
			}
			result.Updated++
			s.recordChange(ctx, "plan_assignment", key, audit.ChangeKindUpdate, before, assignmentSnapshot(existing))
		}
	}
	return nil
}

// mergeCDRs inserts staged call records absent from production. CDRs are
// immutable facts: a record whose natural identity already exists is left
// untouched, which makes re-running a load harmless.
func (s *Service) mergeCDRs(ctx context.Context, repos TransactionalRepositories, result *EntityResult) error {
	rows, err := s.stagingRepo.ListCDRs(ctx)
	if err != nil {
		return err
	}
	result.Staged = len(rows)
	repo := repos.UsageRepo()

	for _, row := range rows {
		key := fmt.Sprintf("%s/%s/%s", row.MSISDN, row.CallType, row.StartTime.Format(time.RFC3339))
		exists, err := repo.Exists(ctx, row.MSISDN, usage.CallType(row.CallType), row.StartTime, row.EndTime)
		if err != nil {
			return fmt.Errorf("cdr %s: %w", key, err)
		}
		if exists {
			result.Unchanged++
			continue
		}
		cdr, err := cdrFromStaged(row)
		if err != nil {
			return fmt.Errorf("cdr %s: %w", key, err)
		}
		if err := repo.Insert(ctx, cdr); err != nil {
			return fmt.Errorf("cdr %s: %w", key, err)
		}
		result.Inserted++
	}
	return nil
}

func subscriberFromStaged(row staging.Subscriber) (*subscriber.Subscriber, error) {
	sub, err := subscriber.NewSubscriber(row.MSISDN, row.FirstName, row.LastName, subscriber.Status(row.Status))
	if err != nil {
		return nil, err
	}
	if err := sub.SetEmail(row.Email); err != nil {
		return nil, err
	}
	if row.DateOfBirth != nil {
		sub.SetDateOfBirth(*row.DateOfBirth)
	}
	sub.SetRegisteredAt(row.RegisteredAt)
	return sub, nil
}

func planFromStaged(row staging.Plan) (*tariff.Plan, error) {
	plan, err := tariff.NewPlan(row.Code, row.Name, row.MonthlyFee)
	if err != nil {
		return nil, err
	}
	plan.Description = row.Description
	if err := plan.SetRates(row.VoiceRatePerMin, row.SMSRate, row.DataRatePerMB); err != nil {
		return nil, err
	}
	if err := plan.SetAllowances(row.VoiceMinutesInc, row.SMSInc, row.DataMBInc); err != nil {
		return nil, err
	}
	if err := plan.SetValidity(row.ValidFrom, row.ValidTo); err != nil {
		return nil, err
	}
	return plan, nil
}

func assignmentFromStaged(row staging.Assignment) (*tariff.Assignment, error) {
	assignment, err := tariff.NewAssignment(row.MSISDN, row.PlanCode, row.StartDate)
	if err != nil {
		return nil, err
	}
	if row.EndDate != nil {
		if err := assignment.SetEndDate(*row.EndDate); err != nil {
			return nil, err
		}
	}
	return assignment, nil
}

func cdrFromStaged(row staging.CDR) (*usage.CallDetailRecord, error) {
	cdr, err := usage.NewCallDetailRecord(
		row.MSISDN,
		usage.CallType(row.CallType),
		row.StartTime,
		row.EndTime,
		row.DurationSeconds,
		usage.Direction(row.Direction),
	)
	if err != nil {
		return nil, err
	}
	cdr.SetDestination(row.Destination)
	cdr.SetCost(row.Cost)
	cdr.SetSourceFile(row.SourceFile)
	return cdr, nil
}

func sameEndDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (s *Service) recordChange(ctx context.Context, entityType, entityKey string, kind audit.ChangeKind, before, after string) {
	change := audit.NewEntityChange(entityType, entityKey, kind, before, after)
	if err := s.changes.RecordChange(ctx, change); err != nil {
		s.logger.Error("Failed to record entity change",
			zap.String("entity_type", entityType),
			zap.String("entity_key", entityKey),
			zap.Error(err))
	}
}

func (s *Service) reportFailure(ctx context.Context, target string, cause error) {
	entry := audit.NewErrorLog(reconcileProcess, target, cause.Error())
	if err := s.reporter.RecordError(ctx, entry); err != nil {
		s.logger.Error("Failed to record reconciliation failure", zap.Error(err))
	}
}

func (s *Service) recordSummary(ctx context.Context, source string, runTime time.Time, records, errors int, status audit.RunStatus, message string) {
	if err := s.ledger.RecordSummary(ctx, source, runTime, records, errors, status, message); err != nil {
		s.logger.Error("Failed to record import summary",
			zap.String("source", source), zap.Error(err))
	}
}
