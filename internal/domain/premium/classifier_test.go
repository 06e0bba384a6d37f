package premium

import (
	"testing"
	"time"

	"github.com/byggkontor/timesheet/internal/domain/entity"
)

// 2025-01-13 is a Monday.
var monday = time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, minute int) *time.Time {
	t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
	return &t
}

func TestClassify(t *testing.T) {
	saturday := time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		date     time.Time
		start    *time.Time
		end      *time.Time
		expected entity.PremiumCategory
	}{
		{"weekday daytime", monday, at(monday, 7, 0), at(monday, 15, 0), entity.CategoryWork},
		{"weekday ending at evening boundary", monday, at(monday, 10, 0), at(monday, 18, 0), entity.CategoryWork},
		{"weekday into evening", monday, at(monday, 12, 0), at(monday, 19, 0), entity.CategoryEvening},
		{"evening only", monday, at(monday, 18, 0), at(monday, 21, 30), entity.CategoryEvening},
		{"evening ending at night boundary", monday, at(monday, 19, 0), at(monday, 22, 0), entity.CategoryEvening},
		{"night shift", monday, at(monday, 22, 0), at(monday, 23, 59), entity.CategoryNight},
		{"early morning", monday, at(monday, 4, 0), at(monday, 5, 30), entity.CategoryNight},
		{"morning starting at night end", monday, at(monday, 6, 0), at(monday, 14, 0), entity.CategoryWork},
		{"overnight span", monday, at(monday, 20, 0), at(monday, 4, 0), entity.CategoryNight},
		{"saturday daytime", saturday, at(saturday, 9, 0), at(saturday, 12, 0), entity.CategoryWeekend},
		{"sunday night still weekend", sunday, at(sunday, 22, 30), at(sunday, 23, 30), entity.CategoryWeekend},
		{"weekend without times", saturday, nil, nil, entity.CategoryWeekend},
		{"weekday without times", monday, nil, nil, entity.CategoryWork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.date, tt.start, tt.end); got != tt.expected {
				t.Errorf("Classify() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// A span straddling the 22:00 boundary resolves to night: the priority
// order is weekend > night > evening > work, first overlap wins.
func TestClassify_BoundaryStraddle(t *testing.T) {
	got := Classify(monday, at(monday, 21, 59), at(monday, 22, 1))
	if got != entity.CategoryNight {
		t.Errorf("Classify(21:59-22:01) = %v, want %v", got, entity.CategoryNight)
	}
}

func TestMultiplier(t *testing.T) {
	tests := []struct {
		category entity.PremiumCategory
		expected string
	}{
		{entity.CategoryWork, "1"},
		{entity.CategoryEvening, "1.5"},
		{entity.CategoryNight, "1.5"},
		{entity.CategoryWeekend, "2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			if got := Multiplier(tt.category); got.String() != tt.expected {
				t.Errorf("Multiplier(%s) = %s, want %s", tt.category, got, tt.expected)
			}
		})
	}
}
