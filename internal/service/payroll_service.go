package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/byggkontor/timesheet/internal/domain/engine"
	"github.com/byggkontor/timesheet/internal/domain/entity"
	"github.com/byggkontor/timesheet/internal/domain/premium"
)

// PayrollRates holds the estimate rates and the overtime threshold. The
// premium multipliers are not here: those are labor-agreement constants in
// the premium package.
type PayrollRates struct {
	OvertimeThresholdHours decimal.Decimal
	VacationPayRate        decimal.Decimal
	SickPayRate            decimal.Decimal
	TaxRate                decimal.Decimal
	UnionFeeRate           decimal.Decimal
}

// PayrollService aggregates approved time entries into per-employee pay
// periods. The result is a display-only view, never authoritative for
// actual payroll filing.
type PayrollService interface {
	Aggregate(ctx context.Context, tenantID int64, employeeIDs []int64, rng entity.DateRange, opts entity.PayrollOptions) (map[int64]*entity.PayrollPeriod, error)
}

type payrollServiceImpl struct {
	entryRepo    TimeEntryRepository
	employeeRepo EmployeeRepository
	rates        PayrollRates
	logger       *zap.Logger
}

// NewPayrollService creates a new PayrollService
func NewPayrollService(
	entryRepo TimeEntryRepository,
	employeeRepo EmployeeRepository,
	rates PayrollRates,
	logger *zap.Logger,
) PayrollService {
	return &payrollServiceImpl{
		entryRepo:    entryRepo,
		employeeRepo: employeeRepo,
		rates:        rates,
		logger:       logger,
	}
}

// Aggregate sums approved hours per employee over the range, partitioned by
// premium category. Gross pay applies the category multipliers to the
// employee's snapshot base rate. Hours beyond the monthly threshold are
// reported as overtime without any extra multiplier.
//
// The classification filter restricts the employee set before aggregation;
// an excluded employee contributes nothing anywhere, and an empty
// employeeIDs slice means every (matching) employee in the tenant.
func (s *payrollServiceImpl) Aggregate(ctx context.Context, tenantID int64, employeeIDs []int64, rng entity.DateRange, opts entity.PayrollOptions) (map[int64]*entity.PayrollPeriod, error) {
	if !rng.Valid() {
		return nil, fmt.Errorf("%w: date range end %s before start %s",
			engine.ErrValidation, rng.To.Format("2006-01-02"), rng.From.Format("2006-01-02"))
	}

	employees, err := s.employeeRepo.ListByTenant(ctx, tenantID, employeeIDs, opts.Classifications)
	if err != nil {
		return nil, err
	}

	periods := make(map[int64]*entity.PayrollPeriod, len(employees))
	ids := make([]int64, 0, len(employees))
	for _, emp := range employees {
		ids = append(ids, emp.ID)
		periods[emp.ID] = &entity.PayrollPeriod{
			EmployeeID:     emp.ID,
			EmployeeName:   emp.Name,
			PersonalNumber: emp.PersonalNumber,
			Range:          rng,
			BaseRate:       emp.HourlyRate,
		}
	}
	if len(ids) == 0 {
		return periods, nil
	}

	entries, err := s.entryRepo.ListApprovedInRange(ctx, tenantID, ids, rng)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		period, ok := periods[entry.EmployeeID]
		if !ok {
			continue
		}
		switch entry.PremiumCategory {
		case entity.CategoryEvening:
			period.EveningHours = period.EveningHours.Add(entry.HoursTotal)
		case entity.CategoryNight:
			period.NightHours = period.NightHours.Add(entry.HoursTotal)
		case entity.CategoryWeekend:
			period.WeekendHours = period.WeekendHours.Add(entry.HoursTotal)
		default:
			period.RegularHours = period.RegularHours.Add(entry.HoursTotal)
		}
	}

	for _, period := range periods {
		s.finalize(period, opts)
	}

	s.logger.Info("Payroll aggregated",
		zap.Int64("tenant_id", tenantID),
		zap.Int("employees", len(periods)),
		zap.Int("entries", len(entries)))
	return periods, nil
}

func (s *payrollServiceImpl) finalize(p *entity.PayrollPeriod, opts entity.PayrollOptions) {
	p.TotalHours = p.RegularHours.
		Add(p.EveningHours).
		Add(p.NightHours).
		Add(p.WeekendHours)

	overtime := p.TotalHours.Sub(s.rates.OvertimeThresholdHours)
	if overtime.IsPositive() {
		p.OvertimeHours = overtime
	} else {
		p.OvertimeHours = decimal.Zero
	}

	p.GrossPay = decimal.Zero
	for _, part := range []struct {
		hours      decimal.Decimal
		multiplier decimal.Decimal
	}{
		{p.RegularHours, premium.MultiplierWork},
		{p.EveningHours, premium.MultiplierEvening},
		{p.NightHours, premium.MultiplierNight},
		{p.WeekendHours, premium.MultiplierWeekend},
	} {
		p.GrossPay = p.GrossPay.Add(part.hours.Mul(p.BaseRate).Mul(part.multiplier))
	}

	// Each component is a term that exists only while its toggle is on;
	// a disabled toggle removes the term rather than zeroing its rate.
	net := p.GrossPay
	if opts.IncludeVacationPay {
		p.Deductions.VacationPay = p.GrossPay.Mul(s.rates.VacationPayRate)
		net = net.Add(p.Deductions.VacationPay)
	}
	if opts.IncludeSickPay {
		p.Deductions.SickPay = p.GrossPay.Mul(s.rates.SickPayRate)
		net = net.Add(p.Deductions.SickPay)
	}
	if opts.IncludeBonus {
		p.Deductions.Bonus = opts.BonusAmount
		net = net.Add(p.Deductions.Bonus)
	}
	if opts.IncludeTaxDeduction {
		p.Deductions.Tax = p.GrossPay.Mul(s.rates.TaxRate).Neg()
		net = net.Add(p.Deductions.Tax)
	}
	if opts.IncludeUnionFee {
		p.Deductions.UnionFee = p.GrossPay.Mul(s.rates.UnionFeeRate).Neg()
		net = net.Add(p.Deductions.UnionFee)
	}
	p.NetPay = net
}
