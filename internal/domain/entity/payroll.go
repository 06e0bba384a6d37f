package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateRange is an inclusive date interval.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Valid returns true when the range is well-formed (end not before start).
func (r DateRange) Valid() bool {
	return !r.To.Before(r.From)
}

// Contains reports whether d falls inside the range, comparing dates only.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// PayrollOptions toggles the individual components of the net-pay estimate.
// A disabled toggle removes the term entirely rather than zeroing its rate.
type PayrollOptions struct {
	IncludeVacationPay  bool `json:"include_vacation_pay"`
	IncludeSickPay      bool `json:"include_sick_pay"`
	IncludeTaxDeduction bool `json:"include_tax_deduction"`
	IncludeUnionFee     bool `json:"include_union_fee"`
	IncludeBonus        bool `json:"include_bonus"`

	// BonusAmount is a flat per-employee addition applied only when
	// IncludeBonus is set.
	BonusAmount decimal.Decimal `json:"bonus_amount"`

	// Classifications restricts which employment forms participate in the
	// aggregation. Empty means all.
	Classifications []Classification `json:"classifications,omitempty"`
}

// PayrollPeriod is the computed pay summary for one employee over a date
// range. It is a view over approved time entries, built on demand for
// reporting and export, and is never a source of truth.
//
// OvertimeHours counts hours above the monthly threshold and is
// informational only: no overtime multiplier is applied, only the premium
// category multipliers enter the gross computation.
type PayrollPeriod struct {
	EmployeeID     int64           `json:"employee_id"`
	EmployeeName   string          `json:"employee_name"`
	PersonalNumber string          `json:"personal_number,omitempty"`
	Range          DateRange       `json:"range"`
	BaseRate       decimal.Decimal `json:"base_rate"`

	RegularHours  decimal.Decimal `json:"regular_hours"`
	EveningHours  decimal.Decimal `json:"evening_hours"`
	NightHours    decimal.Decimal `json:"night_hours"`
	WeekendHours  decimal.Decimal `json:"weekend_hours"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`

	GrossPay   decimal.Decimal  `json:"gross_pay"`
	Deductions PayrollBreakdown `json:"deductions"`
	NetPay     decimal.Decimal  `json:"net_pay"`
}

// PayrollBreakdown itemizes the estimate components that were enabled.
// Additions carry a positive sign, deductions a negative one.
type PayrollBreakdown struct {
	VacationPay decimal.Decimal `json:"vacation_pay"`
	SickPay     decimal.Decimal `json:"sick_pay"`
	Bonus       decimal.Decimal `json:"bonus"`
	Tax         decimal.Decimal `json:"tax"`
	UnionFee    decimal.Decimal `json:"union_fee"`
}

// HoursFor returns the hour total recorded for the given premium category.
func (p *PayrollPeriod) HoursFor(c PremiumCategory) decimal.Decimal {
	switch c {
	case CategoryEvening:
		return p.EveningHours
	case CategoryNight:
		return p.NightHours
	case CategoryWeekend:
		return p.WeekendHours
	default:
		return p.RegularHours
	}
}
