// Package premium classifies worked time spans into labor-agreement pay
// categories and carries the multiplier table those categories map to.
package premium

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/byggkontor/timesheet/internal/domain/entity"
)

// Multiplier table for the premium categories. These encode a labor
// agreement rate structure and are deliberately constants, not
// configuration; a negotiated rate change is a one-line diff here.
var (
	MultiplierWork    = decimal.NewFromFloat(1.00)
	MultiplierEvening = decimal.NewFromFloat(1.50)
	MultiplierNight   = decimal.NewFromFloat(1.50)
	MultiplierWeekend = decimal.NewFromFloat(2.00)
)

// Category windows in minutes from midnight.
const (
	eveningStart  = 18 * 60 // 18:00
	nightStart    = 22 * 60 // 22:00
	nightEnd      = 6 * 60  // 06:00
	minutesPerDay = 24 * 60
)

// Multiplier returns the pay multiplier for a premium category.
func Multiplier(c entity.PremiumCategory) decimal.Decimal {
	switch c {
	case entity.CategoryEvening:
		return MultiplierEvening
	case entity.CategoryNight:
		return MultiplierNight
	case entity.CategoryWeekend:
		return MultiplierWeekend
	default:
		return MultiplierWork
	}
}

// Classify returns the premium category for a worked span.
//
// Priority order is weekend > night > evening > work, first match wins,
// where night and evening match on any overlap between the span and their
// window. A span straddling 22:00 on a weekday is therefore night, not
// evening. This tie-break is a policy decision pending confirmation with
// the wage administrators.
//
// Rules:
//   - Saturday or Sunday work date: weekend, regardless of time of day.
//   - Any portion between 22:00 and 06:00: night.
//   - Any portion between 18:00 and 22:00: evening.
//   - Otherwise (including entries logged without clock times): work.
func Classify(workDate time.Time, start, end *time.Time) entity.PremiumCategory {
	switch workDate.Weekday() {
	case time.Saturday, time.Sunday:
		return entity.CategoryWeekend
	}

	if start == nil || end == nil {
		return entity.CategoryWork
	}

	s := start.Hour()*60 + start.Minute()
	e := end.Hour()*60 + end.Minute()
	if e <= s {
		// Span crosses midnight.
		e += minutesPerDay
	}

	if overlapsNight(s, e) {
		return entity.CategoryNight
	}
	if overlaps(s, e, eveningStart, nightStart) {
		return entity.CategoryEvening
	}
	return entity.CategoryWork
}

// overlapsNight checks the 22:00-06:00 window, which wraps past midnight.
// The span may itself extend into the next day, so the window is checked
// over two calendar days.
func overlapsNight(s, e int) bool {
	windows := [][2]int{
		{0, nightEnd},
		{nightStart, minutesPerDay + nightEnd},
		{minutesPerDay + nightStart, 2 * minutesPerDay},
	}
	for _, w := range windows {
		if overlaps(s, e, w[0], w[1]) {
			return true
		}
	}
	return false
}

// overlaps reports whether half-open intervals [as, ae) and [bs, be)
// intersect.
func overlaps(as, ae, bs, be int) bool {
	return as < be && bs < ae
}
