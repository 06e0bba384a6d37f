package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/domain/engine"
	"github.com/byggkontor/timesheet/internal/domain/entity"
)

const (
	testProject = int64(1)
	testInvoice = int64(1)
)

func approvedEntry(id int64, workDate time.Time, hours string) *entity.TimeEntry {
	h, _ := decimal.NewFromString(hours)
	by := adminID
	at := workDate
	return &entity.TimeEntry{
		ID:              id,
		TenantID:        testTenant,
		EmployeeID:      workerID,
		ProjectID:       testProject,
		WorkDate:        workDate,
		PremiumCategory: entity.CategoryWork,
		HoursTotal:      h,
		ApprovalStatus:  entity.StatusApproved,
		ApprovedBy:      &by,
		ApprovedAt:      &at,
	}
}

func projectRate(rate string) *entity.Project {
	r, _ := decimal.NewFromString(rate)
	return &entity.Project{ID: testProject, TenantID: testTenant, Name: "Kv. Eken", HourlyRate: &r}
}

func newSettlementFixture(project *entity.Project) (*mockEntryRepo, *mockInvoiceRepo, SettlementService) {
	entries := newMockEntryRepo()
	invoices := newMockInvoiceRepo(&entity.Invoice{
		ID: testInvoice, TenantID: testTenant, ProjectID: testProject,
		ExternalRef: "inv-ref", Status: entity.InvoiceDraft,
	})
	svc := NewSettlementService(
		entries,
		newMockProjectRepo(project),
		invoices,
		testEmployees(),
		fakeTxRunner{},
		decimal.NewFromInt(500),
		zap.NewNop(),
	)
	return entries, invoices, svc
}

// Three unbilled approved entries (2h, 3h, 1.5h) at project rate 420 become
// three lines of 840/1260/630 and a total of 2730; an already-billed entry
// in the same project stays out of the line set.
func TestSettle(t *testing.T) {
	entries, invoices, svc := newSettlementFixture(projectRate("420"))
	entries.add(approvedEntry(1, date(2025, 1, 13), "2"))
	entries.add(approvedEntry(2, date(2025, 1, 14), "3"))
	entries.add(approvedEntry(3, date(2025, 1, 15), "1.5"))

	billed := approvedEntry(4, date(2025, 1, 10), "8")
	billed.Billed = true
	prior := int64(99)
	billed.InvoiceID = &prior
	entries.add(billed)

	result, err := svc.Settle(context.Background(), testTenant, testProject, testInvoice, adminID)
	require.NoError(t, err)

	require.Len(t, result.Lines, 3)
	assert.Equal(t, 3, result.Claimed)
	assert.Equal(t, "840", result.Lines[0].Amount.String())
	assert.Equal(t, "1260", result.Lines[1].Amount.String())
	assert.Equal(t, "630", result.Lines[2].Amount.String())
	assert.Equal(t, "2730", result.TotalAmount.String())

	for _, id := range []int64{1, 2, 3} {
		entry := entries.entries[id]
		assert.True(t, entry.Billed, "entry %d should be billed", id)
		require.NotNil(t, entry.InvoiceID)
		assert.Equal(t, testInvoice, *entry.InvoiceID)
	}

	// The already-billed entry keeps its original claim.
	assert.Equal(t, prior, *entries.entries[4].InvoiceID)
	assert.Equal(t, "2730", invoices.invoices[testInvoice].TotalAmount.String())
}

func TestSettle_LinesOrderedByDate(t *testing.T) {
	entries, _, svc := newSettlementFixture(projectRate("420"))
	entries.add(approvedEntry(1, date(2025, 1, 20), "2"))
	entries.add(approvedEntry(2, date(2025, 1, 5), "3"))

	result, err := svc.Settle(context.Background(), testTenant, testProject, testInvoice, adminID)
	require.NoError(t, err)

	require.Len(t, result.Lines, 2)
	assert.Equal(t, int64(2), *result.Lines[0].TimeEntryID)
	assert.Equal(t, int64(1), *result.Lines[1].TimeEntryID)
	assert.Equal(t, 0, result.Lines[0].SortOrder)
	assert.Equal(t, 1, result.Lines[1].SortOrder)
}

func TestSettle_DefaultRateWhenProjectHasNone(t *testing.T) {
	project := &entity.Project{ID: testProject, TenantID: testTenant, Name: "Kv. Eken"}
	entries, _, svc := newSettlementFixture(project)
	entries.add(approvedEntry(1, date(2025, 1, 13), "2"))

	result, err := svc.Settle(context.Background(), testTenant, testProject, testInvoice, adminID)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, "500", result.Lines[0].UnitRate.String())
	assert.Equal(t, "1000", result.Lines[0].Amount.String())
}

func TestSettle_PendingEntriesExcluded(t *testing.T) {
	entries, _, svc := newSettlementFixture(projectRate("420"))
	entries.add(pendingEntry(1, workerID, date(2025, 1, 13)))

	result, err := svc.Settle(context.Background(), testTenant, testProject, testInvoice, adminID)
	require.NoError(t, err)
	assert.Empty(t, result.Lines)
	assert.Equal(t, "0", result.TotalAmount.String())
	assert.False(t, entries.entries[1].Billed)
}

// Zero eligible entries is a valid outcome, not an error.
func TestSettle_NothingToDo(t *testing.T) {
	_, _, svc := newSettlementFixture(projectRate("420"))

	result, err := svc.Settle(context.Background(), testTenant, testProject, testInvoice, adminID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Claimed)
	assert.Empty(t, result.Lines)
}

func TestSettle_Forbidden(t *testing.T) {
	_, _, svc := newSettlementFixture(projectRate("420"))

	_, err := svc.Settle(context.Background(), testTenant, testProject, testInvoice, workerID)
	assert.ErrorIs(t, err, engine.ErrForbidden)
}

func TestSettle_InvoiceMustBelongToProject(t *testing.T) {
	entries := newMockEntryRepo()
	invoices := newMockInvoiceRepo(&entity.Invoice{
		ID: testInvoice, TenantID: testTenant, ProjectID: 2, ExternalRef: "other",
	})
	svc := NewSettlementService(
		entries,
		newMockProjectRepo(projectRate("420")),
		invoices,
		testEmployees(),
		fakeTxRunner{},
		decimal.NewFromInt(500),
		zap.NewNop(),
	)

	_, err := svc.Settle(context.Background(), testTenant, testProject, testInvoice, adminID)
	assert.ErrorIs(t, err, engine.ErrValidation)
}

// Settling the same invoice again after more entries were approved must
// keep the stored total equal to the sum of all the invoice's lines, not
// just the latest run's.
func TestSettle_SecondRunAddsToTotal(t *testing.T) {
	entries, invoices, svc := newSettlementFixture(projectRate("420"))
	entries.add(approvedEntry(1, date(2025, 1, 13), "2"))
	entries.add(approvedEntry(2, date(2025, 1, 14), "3"))

	first, err := svc.Settle(context.Background(), testTenant, testProject, testInvoice, adminID)
	require.NoError(t, err)
	assert.Equal(t, "2100", first.TotalAmount.String())

	entries.add(approvedEntry(3, date(2025, 1, 15), "1.5"))

	second, err := svc.Settle(context.Background(), testTenant, testProject, testInvoice, adminID)
	require.NoError(t, err)

	require.Len(t, second.Lines, 1)
	assert.Equal(t, "630", second.Lines[0].Amount.String())
	// Numbering continues after the first run's two lines.
	assert.Equal(t, 2, second.Lines[0].SortOrder)
	assert.Equal(t, "2730", second.TotalAmount.String())
	assert.Equal(t, "2730", invoices.invoices[testInvoice].TotalAmount.String())
}

// An entry whose conditional claim loses to a concurrent settlement is
// skipped with a warning; the rest of the run proceeds.
func TestSettle_SkipsConcurrentlyClaimedEntry(t *testing.T) {
	entries, _, svc := newSettlementFixture(projectRate("420"))
	entries.add(approvedEntry(1, date(2025, 1, 13), "2"))
	entries.add(approvedEntry(2, date(2025, 1, 14), "3"))

	entries.markBilledFunc = func(ctx context.Context, tx *sql.Tx, entryID, invoiceID int64) (bool, error) {
		if entryID == 1 {
			return false, nil
		}
		return true, nil
	}

	result, err := svc.Settle(context.Background(), testTenant, testProject, testInvoice, adminID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Claimed)
	assert.Equal(t, 1, result.SkippedBilled)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, int64(2), *result.Lines[0].TimeEntryID)
	// Line numbering counts emitted lines, not scanned entries; the
	// skipped entry leaves no gap.
	assert.Equal(t, 0, result.Lines[0].SortOrder)
	assert.Equal(t, "1260", result.TotalAmount.String())
}

// A line-insert failure surfaces as PartialSettlementError carrying the
// invoice ID so the caller can resume.
func TestSettle_LineInsertFailure(t *testing.T) {
	entries, invoices, svc := newSettlementFixture(projectRate("420"))
	entries.add(approvedEntry(1, date(2025, 1, 13), "2"))

	invoices.createLineFunc = func(ctx context.Context, tx *sql.Tx, line *entity.InvoiceLine) error {
		return errors.New("disk I/O error")
	}

	_, err := svc.Settle(context.Background(), testTenant, testProject, testInvoice, adminID)

	var partial *engine.PartialSettlementError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, testInvoice, partial.InvoiceID)
}

// After a failed attempt left some entries billed, a retry consumes exactly
// the remaining unbilled set.
func TestSettle_RetryConsumesOnlyUnbilled(t *testing.T) {
	entries, _, svc := newSettlementFixture(projectRate("420"))

	priorInvoice := testInvoice
	claimed := approvedEntry(1, date(2025, 1, 13), "2")
	claimed.Billed = true
	claimed.InvoiceID = &priorInvoice
	entries.add(claimed)
	entries.add(approvedEntry(2, date(2025, 1, 14), "3"))
	entries.add(approvedEntry(3, date(2025, 1, 15), "1.5"))

	result, err := svc.Settle(context.Background(), testTenant, testProject, testInvoice, adminID)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Claimed)
	require.Len(t, result.Lines, 2)
	assert.Equal(t, int64(2), *result.Lines[0].TimeEntryID)
	assert.Equal(t, int64(3), *result.Lines[1].TimeEntryID)
}

func TestSettle_LineDescriptions(t *testing.T) {
	entries, _, svc := newSettlementFixture(projectRate("420"))

	entry := approvedEntry(1, date(2025, 1, 13), "2")
	start := time.Date(2025, 1, 13, 19, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 13, 21, 0, 0, 0, time.UTC)
	entry.StartTime = &start
	entry.EndTime = &end
	entry.PremiumCategory = entity.CategoryEvening
	entry.Note = "Form stripping, hall B"
	entries.add(entry)

	result, err := svc.Settle(context.Background(), testTenant, testProject, testInvoice, adminID)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, "2025-01-13 19:00-21:00 (evening): Form stripping, hall B", result.Lines[0].Description)
}

func TestCreateInvoice(t *testing.T) {
	_, invoices, svc := newSettlementFixture(projectRate("420"))

	inv, err := svc.CreateInvoice(context.Background(), testTenant, testProject, adminID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceDraft, inv.Status)
	assert.NotEmpty(t, inv.ExternalRef)
	assert.Contains(t, invoices.invoices, inv.ID)
}

func TestCreateInvoice_Forbidden(t *testing.T) {
	_, _, svc := newSettlementFixture(projectRate("420"))

	_, err := svc.CreateInvoice(context.Background(), testTenant, testProject, workerID)
	assert.ErrorIs(t, err, engine.ErrForbidden)
}
