package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project is a billing target. HourlyRate is the customer-facing rate used
// when settling time entries; a nil rate means the configured default
// billing rate applies.
type Project struct {
	ID         int64            `json:"id"`
	TenantID   int64            `json:"tenant_id"`
	Name       string           `json:"name"`
	HourlyRate *decimal.Decimal `json:"hourly_rate,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Tenant is one customer organization. Every engine operation is scoped to
// exactly one tenant.
type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
