package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/domain/engine"
	"github.com/byggkontor/timesheet/internal/domain/entity"
)

// TimeEntryRepository handles time entry database operations.
//
// Status and billed transitions are conditional updates guarded in the
// WHERE clause, never read-then-write pairs, so concurrent approvals and
// settlements linearize on the row.
type TimeEntryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTimeEntryRepository creates a new time entry repository
func NewTimeEntryRepository(db *sql.DB, logger *zap.Logger) *TimeEntryRepository {
	return &TimeEntryRepository{
		db:     db,
		logger: logger,
	}
}

const timeEntryColumns = `id, tenant_id, employee_id, project_id, work_date,
	start_time, end_time, break_minutes, premium_category, hours_total,
	amount, note, approval_status, approved_by, approved_at, billed,
	invoice_id, created_at`

// Create inserts a new time entry. The caller is expected to have run the
// submission sanitizer; approval and billing fields are not written here.
func (r *TimeEntryRepository) Create(ctx context.Context, e *entity.TimeEntry) error {
	query := `
		INSERT INTO time_entries (
			tenant_id, employee_id, project_id, work_date, start_time,
			end_time, break_minutes, premium_category, hours_total, amount, note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		e.TenantID,
		e.EmployeeID,
		e.ProjectID,
		e.WorkDate,
		e.StartTime,
		e.EndTime,
		e.BreakMinutes,
		string(e.PremiumCategory),
		e.HoursTotal.String(),
		e.Amount.String(),
		e.Note,
	)
	if err != nil {
		r.logger.Error("Failed to create time entry", zap.Error(err))
		return fmt.Errorf("failed to create time entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	e.ID = id
	return nil
}

// GetByID retrieves a time entry within the tenant scope.
func (r *TimeEntryRepository) GetByID(ctx context.Context, tenantID, id int64) (*entity.TimeEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM time_entries WHERE id = ? AND tenant_id = ?`, timeEntryColumns)

	entry, err := scanTimeEntry(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, &engine.NotFoundError{Kind: "time entry", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get time entry", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get time entry: %w", err)
	}
	return entry, nil
}

// ListApprovedUnbilled returns the settleable entries for a project,
// ordered by (work_date, start_time) ascending. The ordering is a
// user-facing contract: it decides how invoice lines read to the customer.
func (r *TimeEntryRepository) ListApprovedUnbilled(ctx context.Context, tenantID, projectID int64) ([]*entity.TimeEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM time_entries
		WHERE tenant_id = ? AND project_id = ?
		  AND approval_status = 'approved' AND billed = 0
		ORDER BY work_date ASC, start_time ASC
	`, timeEntryColumns)

	return r.queryEntries(ctx, query, tenantID, projectID)
}

// ListApprovedInRange returns approved entries for a set of employees over
// an inclusive date range, for payroll aggregation.
func (r *TimeEntryRepository) ListApprovedInRange(ctx context.Context, tenantID int64, employeeIDs []int64, rng entity.DateRange) ([]*entity.TimeEntry, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM time_entries
		WHERE tenant_id = ? AND approval_status = 'approved'
		  AND work_date >= ? AND work_date <= ?
		  AND employee_id IN (%s)
		ORDER BY employee_id, work_date ASC
	`, timeEntryColumns, placeholders(len(employeeIDs)))

	args := []any{tenantID, rng.From, rng.To}
	for _, id := range employeeIDs {
		args = append(args, id)
	}

	return r.queryEntries(ctx, query, args...)
}

// ApproveOne transitions a single entry to approved. Returns false when the
// entry was already approved (idempotent no-op). The guard lives in the
// WHERE clause.
func (r *TimeEntryRepository) ApproveOne(ctx context.Context, tenantID, entryID, approverID int64, at time.Time) (bool, error) {
	query := `
		UPDATE time_entries
		SET approval_status = 'approved', approved_by = ?, approved_at = ?
		WHERE id = ? AND tenant_id = ? AND approval_status <> 'approved'
	`

	result, err := r.db.ExecContext(ctx, query, approverID, at, entryID, tenantID)
	if err != nil {
		r.logger.Error("Failed to approve time entry", zap.Int64("id", entryID), zap.Error(err))
		return false, fmt.Errorf("failed to approve time entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// ApproveAllPending transitions every pending entry for the tenant,
// optionally restricted to a date range, in one conditional update. It
// returns the IDs actually transitioned; a repeat call returns none.
func (r *TimeEntryRepository) ApproveAllPending(ctx context.Context, tenantID, approverID int64, rng *entity.DateRange, at time.Time) ([]int64, error) {
	query := `
		UPDATE time_entries
		SET approval_status = 'approved', approved_by = ?, approved_at = ?
		WHERE tenant_id = ? AND approval_status <> 'approved'
	`
	args := []any{approverID, at, tenantID}

	if rng != nil {
		query += ` AND work_date >= ? AND work_date <= ?`
		args = append(args, rng.From, rng.To)
	}
	query += ` RETURNING id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to bulk approve time entries",
			zap.Int64("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("failed to bulk approve time entries: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan approved id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkBilled claims an entry for an invoice inside the settlement
// transaction. The billed = 0 re-check at write time is what makes two
// concurrent settlements unable to claim the same entry; false means
// another settlement got there first.
func (r *TimeEntryRepository) MarkBilled(ctx context.Context, tx *sql.Tx, entryID, invoiceID int64) (bool, error) {
	query := `
		UPDATE time_entries
		SET billed = 1, invoice_id = ?
		WHERE id = ? AND billed = 0 AND approval_status = 'approved'
	`

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, invoiceID, entryID)
	} else {
		result, err = r.db.ExecContext(ctx, query, invoiceID, entryID)
	}
	if err != nil {
		r.logger.Error("Failed to mark time entry billed", zap.Int64("id", entryID), zap.Error(err))
		return false, fmt.Errorf("failed to mark time entry billed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *TimeEntryRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*entity.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query time entries", zap.Error(err))
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.TimeEntry
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanTimeEntry(row rowScanner) (*entity.TimeEntry, error) {
	var (
		e             entity.TimeEntry
		start, end    sql.NullTime
		approvedAt    sql.NullTime
		approvedBy    sql.NullInt64
		invoiceID     sql.NullInt64
		hours, amount string
	)
	err := row.Scan(
		&e.ID,
		&e.TenantID,
		&e.EmployeeID,
		&e.ProjectID,
		&e.WorkDate,
		&start,
		&end,
		&e.BreakMinutes,
		&e.PremiumCategory,
		&hours,
		&amount,
		&e.Note,
		&e.ApprovalStatus,
		&approvedBy,
		&approvedAt,
		&e.Billed,
		&invoiceID,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if start.Valid {
		e.StartTime = &start.Time
	}
	if end.Valid {
		e.EndTime = &end.Time
	}
	if approvedAt.Valid {
		e.ApprovedAt = &approvedAt.Time
	}
	e.ApprovedBy = nullInt64(approvedBy)
	e.InvoiceID = nullInt64(invoiceID)

	if e.HoursTotal, err = parseDecimal(hours); err != nil {
		return nil, fmt.Errorf("invalid hours_total for entry %d: %w", e.ID, err)
	}
	if e.Amount, err = parseDecimal(amount); err != nil {
		return nil, fmt.Errorf("invalid amount for entry %d: %w", e.ID, err)
	}
	return &e, nil
}
