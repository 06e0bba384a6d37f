// Package export renders payroll periods and invoice lines into the
// external formats the accounting and bank integrations consume.
package export

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/domain/entity"
)

// ExcelExporter writes payroll and invoice workbooks for the accounting
// system import.
type ExcelExporter struct {
	outputDir string
	logger    *zap.Logger
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(outputDir string, logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{
		outputDir: outputDir,
		logger:    logger,
	}
}

var payrollHeader = []string{
	"Employee", "Personal number", "Total hours", "Regular hours",
	"Overtime hours", "Evening hours", "Night hours", "Weekend hours",
	"Base rate", "Gross pay", "Net pay",
}

// WritePayroll renders one row per employee, sorted by employee ID. Returns
// the path of the written file.
func (e *ExcelExporter) WritePayroll(periods map[int64]*entity.PayrollPeriod) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for col, title := range payrollHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		e.setCell(f, sheet, cell, title)
	}

	ids := make([]int64, 0, len(periods))
	for id := range periods {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for row, id := range ids {
		p := periods[id]
		values := []string{
			p.EmployeeName,
			p.PersonalNumber,
			p.TotalHours.String(),
			p.RegularHours.String(),
			p.OvertimeHours.String(),
			p.EveningHours.String(),
			p.NightHours.String(),
			p.WeekendHours.String(),
			p.BaseRate.String(),
			p.GrossPay.String(),
			p.NetPay.String(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			e.setCell(f, sheet, cell, v)
		}
	}

	path := filepath.Join(e.outputDir,
		fmt.Sprintf("payroll_%s_%s.xlsx", time.Now().Format("20060102"), uuid.NewString()[:8]))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save payroll workbook: %w", err)
	}

	e.logger.Info("Payroll workbook written",
		zap.String("path", path), zap.Int("employees", len(ids)))
	return path, nil
}

var invoiceHeader = []string{"Description", "Quantity", "Unit rate", "Amount"}

// WriteInvoice renders an invoice's lines in sort order with a trailing
// total row. Returns the path of the written file.
func (e *ExcelExporter) WriteInvoice(invoice *entity.Invoice, lines []*entity.InvoiceLine) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for col, title := range invoiceHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		e.setCell(f, sheet, cell, title)
	}

	for row, line := range lines {
		values := []string{
			line.Description,
			line.Quantity.String(),
			line.UnitRate.String(),
			line.Amount.String(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			e.setCell(f, sheet, cell, v)
		}
	}

	totalRow := len(lines) + 2
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	e.setCell(f, sheet, cell, "Total")
	cell, _ = excelize.CoordinatesToCellName(4, totalRow)
	e.setCell(f, sheet, cell, invoice.TotalAmount.String())

	path := filepath.Join(e.outputDir, fmt.Sprintf("invoice_%s.xlsx", invoice.ExternalRef))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save invoice workbook: %w", err)
	}

	e.logger.Info("Invoice workbook written",
		zap.String("path", path), zap.Int("lines", len(lines)))
	return path, nil
}

func (e *ExcelExporter) setCell(f *excelize.File, sheet, cell, value string) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}
