package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Classification is the employment form of an employee.
type Classification string

const (
	ClassificationFullTime  Classification = "full_time"
	ClassificationPartTime  Classification = "part_time"
	ClassificationTemporary Classification = "temporary"
)

var validClassifications = map[Classification]bool{
	ClassificationFullTime:  true,
	ClassificationPartTime:  true,
	ClassificationTemporary: true,
}

// IsValid returns true if the classification is a known employment form.
func (c Classification) IsValid() bool {
	return validClassifications[c]
}

// Role is the capability level of an employee within its tenant.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Employee is a worker within a tenant. The hourly rate is read once at the
// start of a settlement or pay computation and treated as a snapshot.
type Employee struct {
	ID             int64           `json:"id"`
	TenantID       int64           `json:"tenant_id"`
	Name           string          `json:"name"`
	PersonalNumber string          `json:"personal_number,omitempty"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	Classification Classification  `json:"classification"`
	Role           Role            `json:"role"`
	CreatedAt      time.Time       `json:"created_at"`
}

// IsAdmin reports whether the employee holds the administrator capability
// for its tenant.
func (e *Employee) IsAdmin() bool {
	return e.Role == RoleAdmin
}
