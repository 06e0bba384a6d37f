package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/domain/engine"
	"github.com/byggkontor/timesheet/internal/domain/entity"
)

// EmployeeRepository handles employee database operations
type EmployeeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sql.DB, logger *zap.Logger) *EmployeeRepository {
	return &EmployeeRepository{
		db:     db,
		logger: logger,
	}
}

const employeeColumns = `id, tenant_id, name, COALESCE(personal_number, ''),
	hourly_rate, classification, role, created_at`

// GetByID retrieves an employee within the tenant scope.
func (r *EmployeeRepository) GetByID(ctx context.Context, tenantID, id int64) (*entity.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE id = ? AND tenant_id = ?`, employeeColumns)

	emp, err := r.scanEmployee(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, &engine.NotFoundError{Kind: "employee", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get employee", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// ListByTenant retrieves employees for a tenant, optionally restricted to a
// set of IDs and to employment classifications. The classification filter
// runs in the query so excluded employees never reach aggregation.
func (r *EmployeeRepository) ListByTenant(ctx context.Context, tenantID int64, ids []int64, classifications []entity.Classification) ([]*entity.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE tenant_id = ?`, employeeColumns)
	args := []any{tenantID}

	if len(ids) > 0 {
		query += ` AND id IN (` + placeholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	if len(classifications) > 0 {
		query += ` AND classification IN (` + placeholders(len(classifications)) + `)`
		for _, c := range classifications {
			args = append(args, string(c))
		}
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list employees", zap.Int64("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []*entity.Employee
	for rows.Next() {
		emp, err := r.scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *EmployeeRepository) scanEmployee(row rowScanner) (*entity.Employee, error) {
	var (
		emp  entity.Employee
		rate string
	)
	err := row.Scan(
		&emp.ID,
		&emp.TenantID,
		&emp.Name,
		&emp.PersonalNumber,
		&rate,
		&emp.Classification,
		&emp.Role,
		&emp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	emp.HourlyRate, err = parseDecimal(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid hourly_rate for employee %d: %w", emp.ID, err)
	}
	return &emp, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
