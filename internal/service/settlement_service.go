package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/domain/engine"
	"github.com/byggkontor/timesheet/internal/domain/entity"
)

// SettlementResult reports a completed settlement. TotalAmount is the
// invoice's stored total after the run, covering lines from earlier runs
// into the same invoice. SkippedBilled counts entries that lost the
// conditional claim to a concurrent settlement; they are a no-op warning,
// not a failure.
type SettlementResult struct {
	InvoiceID     int64                 `json:"invoice_id"`
	Lines         []*entity.InvoiceLine `json:"lines"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	Claimed       int                   `json:"claimed"`
	SkippedBilled int                   `json:"skipped_billed"`
}

// SettlementService converts approved, unbilled time entries into invoice
// lines, claiming each entry exactly once.
type SettlementService interface {
	CreateInvoice(ctx context.Context, tenantID, projectID, actorID int64) (*entity.Invoice, error)
	Settle(ctx context.Context, tenantID, projectID, invoiceID, actorID int64) (*SettlementResult, error)
}

type settlementServiceImpl struct {
	entryRepo    TimeEntryRepository
	projectRepo  ProjectRepository
	invoiceRepo  InvoiceRepository
	employeeRepo EmployeeRepository
	txRunner     TxRunner
	defaultRate  decimal.Decimal
	logger       *zap.Logger
}

// NewSettlementService creates a new SettlementService. defaultRate applies
// to projects without a configured hourly rate.
func NewSettlementService(
	entryRepo TimeEntryRepository,
	projectRepo ProjectRepository,
	invoiceRepo InvoiceRepository,
	employeeRepo EmployeeRepository,
	txRunner TxRunner,
	defaultRate decimal.Decimal,
	logger *zap.Logger,
) SettlementService {
	return &settlementServiceImpl{
		entryRepo:    entryRepo,
		projectRepo:  projectRepo,
		invoiceRepo:  invoiceRepo,
		employeeRepo: employeeRepo,
		txRunner:     txRunner,
		defaultRate:  defaultRate,
		logger:       logger,
	}
}

// CreateInvoice opens a draft invoice for a project, ready to settle into.
func (s *settlementServiceImpl) CreateInvoice(ctx context.Context, tenantID, projectID, actorID int64) (*entity.Invoice, error) {
	if err := s.requireAdmin(ctx, tenantID, actorID); err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.GetByID(ctx, tenantID, projectID); err != nil {
		return nil, err
	}

	inv := &entity.Invoice{
		TenantID:    tenantID,
		ProjectID:   projectID,
		ExternalRef: uuid.NewString(),
		Status:      entity.InvoiceDraft,
		TotalAmount: decimal.Zero,
	}
	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("Invoice created",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("project_id", projectID),
		zap.Int64("invoice_id", inv.ID))
	return inv, nil
}

// Settle selects the project's approved, unbilled entries and converts them
// into invoice lines, one per entry, ordered by (date, start time).
//
// Line inserts and billed-flag claims run in one transaction: a failure
// rolls both back, leaving the invoice lineless and every entry unclaimed,
// and surfaces as PartialSettlementError carrying the invoice ID. Retrying
// consumes exactly the still-unbilled set.
func (s *settlementServiceImpl) Settle(ctx context.Context, tenantID, projectID, invoiceID, actorID int64) (*SettlementResult, error) {
	if err := s.requireAdmin(ctx, tenantID, actorID); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	invoice, err := s.invoiceRepo.GetByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.ProjectID != projectID {
		return nil, fmt.Errorf("%w: invoice %d does not belong to project %d",
			engine.ErrValidation, invoiceID, projectID)
	}

	rate := s.defaultRate
	if project.HourlyRate != nil && !project.HourlyRate.IsZero() {
		rate = *project.HourlyRate
	}

	entries, err := s.entryRepo.ListApprovedUnbilled(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}

	result := &SettlementResult{
		InvoiceID:   invoiceID,
		TotalAmount: decimal.Zero,
	}
	if len(entries) == 0 {
		// Nothing left to do is a valid outcome.
		s.logger.Info("No settleable entries",
			zap.Int64("tenant_id", tenantID), zap.Int64("project_id", projectID))
		return result, nil
	}

	// New lines continue the 0..n-1 numbering after any lines a previous
	// run already settled into this invoice.
	existing, err := s.invoiceRepo.ListLines(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	sortBase := len(existing)

	err = s.txRunner.WithTransaction(func(tx *sql.Tx) error {
		for _, entry := range entries {
			// Re-check billed = 0 at write time; a concurrent settlement
			// may have claimed the entry after our read.
			claimed, err := s.entryRepo.MarkBilled(ctx, tx, entry.ID, invoiceID)
			if err != nil {
				return err
			}
			if !claimed {
				s.logger.Warn("Entry claimed by another settlement",
					zap.Int64("entry_id", entry.ID),
					zap.Error(engine.ErrAlreadySettled))
				result.SkippedBilled++
				continue
			}

			line := buildLine(invoiceID, entry, rate, sortBase+len(result.Lines))
			if err := s.invoiceRepo.CreateLine(ctx, tx, line); err != nil {
				return err
			}

			result.Lines = append(result.Lines, line)
			result.Claimed++
		}

		// The stored total covers every line of the invoice, including
		// lines from earlier settlement runs; the computed value is
		// authoritative over any caller estimate.
		total, err := s.invoiceRepo.SumLineAmounts(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		result.TotalAmount = total
		return s.invoiceRepo.UpdateTotal(ctx, tx, invoiceID, total)
	})
	if err != nil {
		s.logger.Error("Settlement failed, no entries claimed",
			zap.Int64("tenant_id", tenantID),
			zap.Int64("invoice_id", invoiceID),
			zap.Error(err))
		return nil, &engine.PartialSettlementError{InvoiceID: invoiceID, Inserted: 0, Err: err}
	}

	s.logger.Info("Settlement completed",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("invoice_id", invoiceID),
		zap.Int("claimed", result.Claimed),
		zap.Int("skipped_billed", result.SkippedBilled),
		zap.String("total", result.TotalAmount.String()))
	return result, nil
}

func (s *settlementServiceImpl) requireAdmin(ctx context.Context, tenantID, actorID int64) error {
	actor, err := s.employeeRepo.GetByID(ctx, tenantID, actorID)
	if err != nil {
		return fmt.Errorf("actor %d in tenant %d: %w", actorID, tenantID, engine.ErrForbidden)
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("actor %d lacks administrator capability for tenant %d: %w",
			actorID, tenantID, engine.ErrForbidden)
	}
	return nil
}

// buildLine prices one entry and composes the customer-facing description:
// date, time span when present, premium category when not regular, and the
// free-text note when present.
func buildLine(invoiceID int64, entry *entity.TimeEntry, rate decimal.Decimal, sortOrder int) *entity.InvoiceLine {
	var b strings.Builder
	b.WriteString(entry.WorkDate.Format("2006-01-02"))
	if start, end, ok := entry.Span(); ok {
		fmt.Fprintf(&b, " %s-%s", start.Format("15:04"), end.Format("15:04"))
	}
	if entry.PremiumCategory != entity.CategoryWork {
		fmt.Fprintf(&b, " (%s)", entry.PremiumCategory)
	}
	if entry.Note != "" {
		b.WriteString(": ")
		b.WriteString(entry.Note)
	}

	entryID := entry.ID
	return &entity.InvoiceLine{
		InvoiceID:   invoiceID,
		TimeEntryID: &entryID,
		Description: b.String(),
		Quantity:    entry.HoursTotal,
		UnitRate:    rate,
		Amount:      entry.HoursTotal.Mul(rate),
		SortOrder:   sortOrder,
	}
}
