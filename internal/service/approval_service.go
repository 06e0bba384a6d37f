package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/domain/approval"
	"github.com/byggkontor/timesheet/internal/domain/engine"
	"github.com/byggkontor/timesheet/internal/domain/entity"
	"github.com/byggkontor/timesheet/internal/domain/premium"
)

// CreateEntryRequest is the submission-path input. It deliberately has no
// approval or billing fields; whatever a client sends beyond this shape is
// dropped before it reaches the engine.
type CreateEntryRequest struct {
	EmployeeID   int64
	ProjectID    int64
	WorkDate     time.Time
	StartTime    *time.Time
	EndTime      *time.Time
	BreakMinutes int
	Hours        *decimal.Decimal // supplied total; derived from the span when nil
	Note         string
}

// BulkApprovalResult reports what a bulk approval actually transitioned.
// Zero transitioned entries is a valid, non-error outcome.
type BulkApprovalResult struct {
	Count    int     `json:"count"`
	EntryIDs []int64 `json:"entry_ids"`
}

// ApprovalService owns the pending -> approved lifecycle of time entries.
type ApprovalService interface {
	CreateEntry(ctx context.Context, tenantID int64, req CreateEntryRequest) (*entity.TimeEntry, error)
	ApproveOne(ctx context.Context, tenantID, entryID, actorID int64) error
	ApproveAll(ctx context.Context, tenantID, actorID int64, rng *entity.DateRange) (*BulkApprovalResult, error)
}

type approvalServiceImpl struct {
	entryRepo    TimeEntryRepository
	employeeRepo EmployeeRepository
	projectRepo  ProjectRepository
	logger       *zap.Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	entryRepo TimeEntryRepository,
	employeeRepo EmployeeRepository,
	projectRepo ProjectRepository,
	logger *zap.Logger,
) ApprovalService {
	return &approvalServiceImpl{
		entryRepo:    entryRepo,
		employeeRepo: employeeRepo,
		projectRepo:  projectRepo,
		logger:       logger,
	}
}

// CreateEntry records a submitted time entry. The entry is classified into
// its premium category and always starts pending; approval is a privileged
// side channel that the submission path cannot reach.
func (s *approvalServiceImpl) CreateEntry(ctx context.Context, tenantID int64, req CreateEntryRequest) (*entity.TimeEntry, error) {
	employee, err := s.employeeRepo.GetByID(ctx, tenantID, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.GetByID(ctx, tenantID, req.ProjectID); err != nil {
		return nil, err
	}

	hours, err := entryHours(req)
	if err != nil {
		return nil, err
	}

	category := premium.Classify(req.WorkDate, req.StartTime, req.EndTime)

	entry := &entity.TimeEntry{
		TenantID:        tenantID,
		EmployeeID:      req.EmployeeID,
		ProjectID:       req.ProjectID,
		WorkDate:        req.WorkDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		BreakMinutes:    req.BreakMinutes,
		PremiumCategory: category,
		HoursTotal:      hours,
		Amount:          hours.Mul(employee.HourlyRate).Mul(premium.Multiplier(category)),
		Note:            req.Note,
	}
	approval.SanitizeNew(entry)

	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Time entry created",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("entry_id", entry.ID),
		zap.String("category", category.String()))
	return entry, nil
}

// ApproveOne approves a single entry. Idempotent: approving an approved
// entry succeeds without transitioning anything.
func (s *approvalServiceImpl) ApproveOne(ctx context.Context, tenantID, entryID, actorID int64) error {
	if err := s.requireAdmin(ctx, tenantID, actorID); err != nil {
		return err
	}

	entry, err := s.entryRepo.GetByID(ctx, tenantID, entryID)
	if err != nil {
		return err
	}

	_, outcome, err := approval.Approve(entry.ApprovalStatus)
	if err != nil {
		return fmt.Errorf("entry %d: %w", entryID, err)
	}
	if outcome == approval.AlreadyApproved {
		s.logger.Info("Entry already approved",
			zap.Int64("tenant_id", tenantID), zap.Int64("entry_id", entryID))
		return nil
	}

	changed, err := s.entryRepo.ApproveOne(ctx, tenantID, entryID, actorID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !changed {
		// A concurrent approval won the conditional update. Same outcome.
		s.logger.Info("Entry approved concurrently",
			zap.Int64("tenant_id", tenantID), zap.Int64("entry_id", entryID))
		return nil
	}

	s.logger.Info("Entry approved",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("entry_id", entryID),
		zap.Int64("approved_by", actorID))
	return nil
}

// ApproveAll transitions every pending entry for the tenant, optionally
// restricted to a date range, in one conditional update. Safe to repeat:
// the second call transitions zero entries and still succeeds. A transient
// persistence failure is retried once over the identical predicate.
func (s *approvalServiceImpl) ApproveAll(ctx context.Context, tenantID, actorID int64, rng *entity.DateRange) (*BulkApprovalResult, error) {
	if err := s.requireAdmin(ctx, tenantID, actorID); err != nil {
		return nil, err
	}
	if rng != nil && !rng.Valid() {
		return nil, fmt.Errorf("%w: date range end %s before start %s",
			engine.ErrValidation, rng.To.Format("2006-01-02"), rng.From.Format("2006-01-02"))
	}

	now := time.Now().UTC()
	ids, err := s.entryRepo.ApproveAllPending(ctx, tenantID, actorID, rng, now)
	if err != nil {
		s.logger.Warn("Bulk approval failed, retrying once",
			zap.Int64("tenant_id", tenantID), zap.Error(err))
		ids, err = s.entryRepo.ApproveAllPending(ctx, tenantID, actorID, rng, now)
		if err != nil {
			s.logger.Error("Bulk approval failed after retry",
				zap.Int64("tenant_id", tenantID), zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("Bulk approval completed",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("approved_by", actorID),
		zap.Int("count", len(ids)))
	return &BulkApprovalResult{Count: len(ids), EntryIDs: ids}, nil
}

// requireAdmin is the tenant-scope guard: it runs before any business
// computation in every privileged operation.
func (s *approvalServiceImpl) requireAdmin(ctx context.Context, tenantID, actorID int64) error {
	actor, err := s.employeeRepo.GetByID(ctx, tenantID, actorID)
	if err != nil {
		// An actor outside the tenant is indistinguishable from one
		// without the capability.
		return fmt.Errorf("actor %d in tenant %d: %w", actorID, tenantID, engine.ErrForbidden)
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("actor %d lacks administrator capability for tenant %d: %w",
			actorID, tenantID, engine.ErrForbidden)
	}
	return nil
}

func entryHours(req CreateEntryRequest) (decimal.Decimal, error) {
	if req.Hours != nil {
		if req.Hours.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: negative hours", engine.ErrValidation)
		}
		return *req.Hours, nil
	}
	if req.StartTime == nil || req.EndTime == nil {
		return decimal.Zero, fmt.Errorf("%w: hours or start/end time required", engine.ErrValidation)
	}

	span := req.EndTime.Sub(*req.StartTime)
	if span <= 0 {
		// Overnight span logged on the start date.
		span += 24 * time.Hour
	}
	worked := span - time.Duration(req.BreakMinutes)*time.Minute
	if worked < 0 {
		return decimal.Zero, fmt.Errorf("%w: break exceeds worked span", engine.ErrValidation)
	}
	return decimal.NewFromFloat(worked.Minutes()).Div(decimal.NewFromInt(60)), nil
}
