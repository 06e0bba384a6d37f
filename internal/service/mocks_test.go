package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/byggkontor/timesheet/internal/domain/engine"
	"github.com/byggkontor/timesheet/internal/domain/entity"
)

// Stateful in-memory mocks. Function fields override individual behaviors
// to inject failures.

type mockEntryRepo struct {
	entries map[int64]*entity.TimeEntry
	nextID  int64

	createFunc            func(ctx context.Context, e *entity.TimeEntry) error
	approveAllPendingFunc func(ctx context.Context, tenantID, approverID int64, rng *entity.DateRange, at time.Time) ([]int64, error)
	markBilledFunc        func(ctx context.Context, tx *sql.Tx, entryID, invoiceID int64) (bool, error)
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{entries: make(map[int64]*entity.TimeEntry), nextID: 1}
}

func (m *mockEntryRepo) add(e *entity.TimeEntry) *entity.TimeEntry {
	if e.ID == 0 {
		e.ID = m.nextID
	}
	if e.ID >= m.nextID {
		m.nextID = e.ID + 1
	}
	m.entries[e.ID] = e
	return e
}

func (m *mockEntryRepo) Create(ctx context.Context, e *entity.TimeEntry) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, e)
	}
	m.add(e)
	return nil
}

func (m *mockEntryRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.TimeEntry, error) {
	e, ok := m.entries[id]
	if !ok || e.TenantID != tenantID {
		return nil, &engine.NotFoundError{Kind: "time entry", ID: id}
	}
	return e, nil
}

func (m *mockEntryRepo) ListApprovedUnbilled(ctx context.Context, tenantID, projectID int64) ([]*entity.TimeEntry, error) {
	var out []*entity.TimeEntry
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.ProjectID == projectID &&
			e.ApprovalStatus == entity.StatusApproved && !e.Billed {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WorkDate.Equal(out[j].WorkDate) {
			return out[i].WorkDate.Before(out[j].WorkDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *mockEntryRepo) ListApprovedInRange(ctx context.Context, tenantID int64, employeeIDs []int64, rng entity.DateRange) ([]*entity.TimeEntry, error) {
	wanted := make(map[int64]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		wanted[id] = true
	}
	var out []*entity.TimeEntry
	for _, e := range m.entries {
		if e.TenantID == tenantID && wanted[e.EmployeeID] &&
			e.ApprovalStatus == entity.StatusApproved && rng.Contains(e.WorkDate) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockEntryRepo) ApproveOne(ctx context.Context, tenantID, entryID, approverID int64, at time.Time) (bool, error) {
	e, ok := m.entries[entryID]
	if !ok || e.TenantID != tenantID || e.ApprovalStatus == entity.StatusApproved {
		return false, nil
	}
	e.ApprovalStatus = entity.StatusApproved
	e.ApprovedBy = &approverID
	e.ApprovedAt = &at
	return true, nil
}

func (m *mockEntryRepo) ApproveAllPending(ctx context.Context, tenantID, approverID int64, rng *entity.DateRange, at time.Time) ([]int64, error) {
	if m.approveAllPendingFunc != nil {
		return m.approveAllPendingFunc(ctx, tenantID, approverID, rng, at)
	}
	var ids []int64
	for _, e := range m.entries {
		if e.TenantID != tenantID || e.ApprovalStatus == entity.StatusApproved {
			continue
		}
		if rng != nil && !rng.Contains(e.WorkDate) {
			continue
		}
		e.ApprovalStatus = entity.StatusApproved
		e.ApprovedBy = &approverID
		e.ApprovedAt = &at
		ids = append(ids, e.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *mockEntryRepo) MarkBilled(ctx context.Context, tx *sql.Tx, entryID, invoiceID int64) (bool, error) {
	if m.markBilledFunc != nil {
		return m.markBilledFunc(ctx, tx, entryID, invoiceID)
	}
	e, ok := m.entries[entryID]
	if !ok || e.Billed || e.ApprovalStatus != entity.StatusApproved {
		return false, nil
	}
	e.Billed = true
	e.InvoiceID = &invoiceID
	return true, nil
}

type mockEmployeeRepo struct {
	employees map[int64]*entity.Employee
}

func newMockEmployeeRepo(employees ...*entity.Employee) *mockEmployeeRepo {
	m := &mockEmployeeRepo{employees: make(map[int64]*entity.Employee)}
	for _, e := range employees {
		m.employees[e.ID] = e
	}
	return m
}

func (m *mockEmployeeRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.Employee, error) {
	e, ok := m.employees[id]
	if !ok || e.TenantID != tenantID {
		return nil, &engine.NotFoundError{Kind: "employee", ID: id}
	}
	return e, nil
}

func (m *mockEmployeeRepo) ListByTenant(ctx context.Context, tenantID int64, ids []int64, classifications []entity.Classification) ([]*entity.Employee, error) {
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	allowed := make(map[entity.Classification]bool, len(classifications))
	for _, c := range classifications {
		allowed[c] = true
	}

	var out []*entity.Employee
	for _, e := range m.employees {
		if e.TenantID != tenantID {
			continue
		}
		if len(ids) > 0 && !wanted[e.ID] {
			continue
		}
		if len(classifications) > 0 && !allowed[e.Classification] {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockProjectRepo struct {
	projects map[int64]*entity.Project
}

func newMockProjectRepo(projects ...*entity.Project) *mockProjectRepo {
	m := &mockProjectRepo{projects: make(map[int64]*entity.Project)}
	for _, p := range projects {
		m.projects[p.ID] = p
	}
	return m
}

func (m *mockProjectRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.Project, error) {
	p, ok := m.projects[id]
	if !ok || p.TenantID != tenantID {
		return nil, &engine.NotFoundError{Kind: "project", ID: id}
	}
	return p, nil
}

type mockInvoiceRepo struct {
	invoices map[int64]*entity.Invoice
	lines    []*entity.InvoiceLine
	nextID   int64

	createLineFunc func(ctx context.Context, tx *sql.Tx, line *entity.InvoiceLine) error
}

func newMockInvoiceRepo(invoices ...*entity.Invoice) *mockInvoiceRepo {
	m := &mockInvoiceRepo{invoices: make(map[int64]*entity.Invoice), nextID: 1}
	for _, inv := range invoices {
		m.invoices[inv.ID] = inv
		if inv.ID >= m.nextID {
			m.nextID = inv.ID + 1
		}
	}
	return m
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	inv.ID = m.nextID
	m.nextID++
	m.invoices[inv.ID] = inv
	return nil
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return nil, &engine.NotFoundError{Kind: "invoice", ID: id}
	}
	return inv, nil
}

func (m *mockInvoiceRepo) CreateLine(ctx context.Context, tx *sql.Tx, line *entity.InvoiceLine) error {
	if m.createLineFunc != nil {
		return m.createLineFunc(ctx, tx, line)
	}
	line.ID = int64(len(m.lines) + 1)
	m.lines = append(m.lines, line)
	return nil
}

func (m *mockInvoiceRepo) ListLines(ctx context.Context, invoiceID int64) ([]*entity.InvoiceLine, error) {
	var out []*entity.InvoiceLine
	for _, l := range m.lines {
		if l.InvoiceID == invoiceID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockInvoiceRepo) SumLineAmounts(ctx context.Context, tx *sql.Tx, invoiceID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, l := range m.lines {
		if l.InvoiceID == invoiceID {
			total = total.Add(l.Amount)
		}
	}
	return total, nil
}

func (m *mockInvoiceRepo) UpdateTotal(ctx context.Context, tx *sql.Tx, invoiceID int64, total decimal.Decimal) error {
	if inv, ok := m.invoices[invoiceID]; ok {
		inv.TotalAmount = total
	}
	return nil
}

// fakeTxRunner runs the function directly; the mocks have no transactional
// state to roll back.
type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(fn func(*sql.Tx) error) error {
	return fn(nil)
}
