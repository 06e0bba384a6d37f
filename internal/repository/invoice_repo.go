package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/domain/engine"
	"github.com/byggkontor/timesheet/internal/domain/entity"
)

// InvoiceRepository handles invoice and invoice line database operations.
// Lines are append-only: there is no update or delete path.
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new draft invoice for a project.
func (r *InvoiceRepository) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoices (tenant_id, project_id, external_ref, status, total_amount)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		inv.TenantID,
		inv.ProjectID,
		inv.ExternalRef,
		string(inv.Status),
		inv.TotalAmount.String(),
	)
	if err != nil {
		r.logger.Error("Failed to create invoice", zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	inv.ID = id
	return nil
}

// GetByID retrieves an invoice within the tenant scope.
func (r *InvoiceRepository) GetByID(ctx context.Context, tenantID, id int64) (*entity.Invoice, error) {
	query := `
		SELECT id, tenant_id, project_id, external_ref, status, total_amount, created_at
		FROM invoices
		WHERE id = ? AND tenant_id = ?
	`

	var (
		inv   entity.Invoice
		total string
	)
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&inv.ID,
		&inv.TenantID,
		&inv.ProjectID,
		&inv.ExternalRef,
		&inv.Status,
		&total,
		&inv.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &engine.NotFoundError{Kind: "invoice", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get invoice", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	inv.TotalAmount, err = parseDecimal(total)
	if err != nil {
		return nil, fmt.Errorf("invalid total_amount for invoice %d: %w", inv.ID, err)
	}
	return &inv, nil
}

// CreateLine inserts one invoice line, inside the settlement transaction
// when tx is non-nil. The UNIQUE constraint on time_entry_id rejects a
// second line for the same entry.
func (r *InvoiceRepository) CreateLine(ctx context.Context, tx *sql.Tx, line *entity.InvoiceLine) error {
	query := `
		INSERT INTO invoice_lines (invoice_id, time_entry_id, description, quantity, unit_rate, amount, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	args := []any{
		line.InvoiceID,
		line.TimeEntryID,
		line.Description,
		line.Quantity.String(),
		line.UnitRate.String(),
		line.Amount.String(),
		line.SortOrder,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, args...)
	} else {
		result, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to create invoice line",
			zap.Int64("invoice_id", line.InvoiceID), zap.Error(err))
		return fmt.Errorf("failed to create invoice line: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	line.ID = id
	return nil
}

// ListLines returns an invoice's lines in sort order.
func (r *InvoiceRepository) ListLines(ctx context.Context, invoiceID int64) ([]*entity.InvoiceLine, error) {
	query := `
		SELECT id, invoice_id, time_entry_id, description, quantity, unit_rate, amount, sort_order, created_at
		FROM invoice_lines
		WHERE invoice_id = ?
		ORDER BY sort_order ASC
	`

	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to list invoice lines", zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to list invoice lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.InvoiceLine
	for rows.Next() {
		var (
			line              entity.InvoiceLine
			timeEntryID       sql.NullInt64
			qty, rate, amount string
		)
		err := rows.Scan(
			&line.ID,
			&line.InvoiceID,
			&timeEntryID,
			&line.Description,
			&qty,
			&rate,
			&amount,
			&line.SortOrder,
			&line.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}

		line.TimeEntryID = nullInt64(timeEntryID)
		if line.Quantity, err = parseDecimal(qty); err != nil {
			return nil, fmt.Errorf("invalid quantity for line %d: %w", line.ID, err)
		}
		if line.UnitRate, err = parseDecimal(rate); err != nil {
			return nil, fmt.Errorf("invalid unit_rate for line %d: %w", line.ID, err)
		}
		if line.Amount, err = parseDecimal(amount); err != nil {
			return nil, fmt.Errorf("invalid amount for line %d: %w", line.ID, err)
		}
		lines = append(lines, &line)
	}
	return lines, rows.Err()
}

// SumLineAmounts sums every line amount for an invoice, inside the
// settlement transaction when tx is non-nil so freshly inserted lines are
// counted. Summation happens in decimal; sqlite would coerce the TEXT
// amounts to floats.
func (r *InvoiceRepository) SumLineAmounts(ctx context.Context, tx *sql.Tx, invoiceID int64) (decimal.Decimal, error) {
	query := `SELECT amount FROM invoice_lines WHERE invoice_id = ?`

	var rows *sql.Rows
	var err error
	if tx != nil {
		rows, err = tx.QueryContext(ctx, query, invoiceID)
	} else {
		rows, err = r.db.QueryContext(ctx, query, invoiceID)
	}
	if err != nil {
		r.logger.Error("Failed to sum invoice lines", zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to sum invoice lines: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan line amount: %w", err)
		}
		d, err := parseDecimal(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid line amount for invoice %d: %w", invoiceID, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

// UpdateTotal sets the invoice total to the computed sum of its lines. The
// computed value is authoritative over any caller-supplied estimate.
func (r *InvoiceRepository) UpdateTotal(ctx context.Context, tx *sql.Tx, invoiceID int64, total decimal.Decimal) error {
	query := `UPDATE invoices SET total_amount = ? WHERE id = ?`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, total.String(), invoiceID)
	} else {
		_, err = r.db.ExecContext(ctx, query, total.String(), invoiceID)
	}
	if err != nil {
		r.logger.Error("Failed to update invoice total",
			zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return fmt.Errorf("failed to update invoice total: %w", err)
	}
	return nil
}
