package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/byggkontor/timesheet/internal/domain/entity"
)

// Repository ports. The sqlite implementations live in
// internal/repository; tests substitute hand-written mocks.

// TimeEntryRepository is the persistence port for time entries.
type TimeEntryRepository interface {
	Create(ctx context.Context, e *entity.TimeEntry) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.TimeEntry, error)
	ListApprovedUnbilled(ctx context.Context, tenantID, projectID int64) ([]*entity.TimeEntry, error)
	ListApprovedInRange(ctx context.Context, tenantID int64, employeeIDs []int64, rng entity.DateRange) ([]*entity.TimeEntry, error)
	ApproveOne(ctx context.Context, tenantID, entryID, approverID int64, at time.Time) (bool, error)
	ApproveAllPending(ctx context.Context, tenantID, approverID int64, rng *entity.DateRange, at time.Time) ([]int64, error)
	MarkBilled(ctx context.Context, tx *sql.Tx, entryID, invoiceID int64) (bool, error)
}

// EmployeeRepository is the persistence port for employees.
type EmployeeRepository interface {
	GetByID(ctx context.Context, tenantID, id int64) (*entity.Employee, error)
	ListByTenant(ctx context.Context, tenantID int64, ids []int64, classifications []entity.Classification) ([]*entity.Employee, error)
}

// ProjectRepository is the persistence port for projects.
type ProjectRepository interface {
	GetByID(ctx context.Context, tenantID, id int64) (*entity.Project, error)
}

// InvoiceRepository is the persistence port for invoices and lines.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.Invoice, error)
	CreateLine(ctx context.Context, tx *sql.Tx, line *entity.InvoiceLine) error
	ListLines(ctx context.Context, invoiceID int64) ([]*entity.InvoiceLine, error)
	SumLineAmounts(ctx context.Context, tx *sql.Tx, invoiceID int64) (decimal.Decimal, error)
	UpdateTotal(ctx context.Context, tx *sql.Tx, invoiceID int64, total decimal.Decimal) error
}

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	WithTransaction(fn func(*sql.Tx) error) error
}
