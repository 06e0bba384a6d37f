package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/domain/entity"
)

// BankFileWriter renders net-pay amounts as the line-oriented CSV payment
// file the bank upload expects. Amounts here are the display-only estimate;
// the actual filing happens in the payroll system.
type BankFileWriter struct {
	logger *zap.Logger
}

// NewBankFileWriter creates a new bank file writer
func NewBankFileWriter(logger *zap.Logger) *BankFileWriter {
	return &BankFileWriter{logger: logger}
}

// Write streams one payment row per employee, sorted by employee ID.
func (w *BankFileWriter) Write(out io.Writer, periods map[int64]*entity.PayrollPeriod) error {
	cw := csv.NewWriter(out)

	if err := cw.Write([]string{"employee", "personal_number", "net_amount", "period_from", "period_to"}); err != nil {
		return fmt.Errorf("failed to write bank file header: %w", err)
	}

	ids := make([]int64, 0, len(periods))
	for id := range periods {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		p := periods[id]
		record := []string{
			p.EmployeeName,
			p.PersonalNumber,
			p.NetPay.StringFixed(2),
			p.Range.From.Format("2006-01-02"),
			p.Range.To.Format("2006-01-02"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write bank file row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush bank file: %w", err)
	}

	w.logger.Info("Bank file written", zap.Int("rows", len(ids)))
	return nil
}
