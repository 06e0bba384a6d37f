package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApprovalStatus is the authorization lifecycle of a time entry.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
)

// IsValid returns true if the status is a known approval status.
func (s ApprovalStatus) IsValid() bool {
	return s == StatusPending || s == StatusApproved
}

// String returns the string representation of the status.
func (s ApprovalStatus) String() string {
	return string(s)
}

// PremiumCategory classifies when the work was performed, which decides
// the pay multiplier under the labor agreement.
type PremiumCategory string

const (
	CategoryWork    PremiumCategory = "work"
	CategoryEvening PremiumCategory = "evening"
	CategoryNight   PremiumCategory = "night"
	CategoryWeekend PremiumCategory = "weekend"
)

var validCategories = map[PremiumCategory]bool{
	CategoryWork:    true,
	CategoryEvening: true,
	CategoryNight:   true,
	CategoryWeekend: true,
}

// IsValid returns true if the category is a known premium category.
func (c PremiumCategory) IsValid() bool {
	return validCategories[c]
}

// String returns the string representation of the category.
func (c PremiumCategory) String() string {
	return string(c)
}

// TimeEntry is one employee-submitted unit of worked time.
//
// Approval fields are owned by the approval service and the billed flag by
// the settlement service; the submission path never touches either after
// creation, so a late edit cannot overwrite an approval.
type TimeEntry struct {
	ID              int64           `json:"id"`
	TenantID        int64           `json:"tenant_id"`
	EmployeeID      int64           `json:"employee_id"`
	ProjectID       int64           `json:"project_id"`
	WorkDate        time.Time       `json:"work_date"`
	StartTime       *time.Time      `json:"start_time,omitempty"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	BreakMinutes    int             `json:"break_minutes"`
	PremiumCategory PremiumCategory `json:"premium_category"`
	HoursTotal      decimal.Decimal `json:"hours_total"`
	Amount          decimal.Decimal `json:"amount"`
	Note            string          `json:"note,omitempty"`
	ApprovalStatus  ApprovalStatus  `json:"approval_status"`
	ApprovedBy      *int64          `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	Billed          bool            `json:"billed"`
	InvoiceID       *int64          `json:"invoice_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Span returns the start and end time of the entry, or false when the entry
// was logged without clock times.
func (e *TimeEntry) Span() (start, end time.Time, ok bool) {
	if e.StartTime == nil || e.EndTime == nil {
		return time.Time{}, time.Time{}, false
	}
	return *e.StartTime, *e.EndTime, true
}
