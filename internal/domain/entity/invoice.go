package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle of an invoice as the engine sees it.
type InvoiceStatus string

const (
	InvoiceDraft  InvoiceStatus = "draft"
	InvoiceOpen   InvoiceStatus = "open"
	InvoiceVoided InvoiceStatus = "voided"
)

// Invoice is a customer invoice for one project. The engine only creates
// lines on it and keeps the total in sync; sending and payment are handled
// elsewhere.
type Invoice struct {
	ID          int64           `json:"id"`
	TenantID    int64           `json:"tenant_id"`
	ProjectID   int64           `json:"project_id"`
	ExternalRef string          `json:"external_ref"`
	Status      InvoiceStatus   `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// InvoiceLine is one append-only billing line. A line backed by a time
// entry references it 1:1; TimeEntryID is nil for non-time lines. SortOrder
// follows (work date, start time) ascending so the invoice reads
// chronologically to the customer.
type InvoiceLine struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	TimeEntryID *int64          `json:"time_entry_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitRate    decimal.Decimal `json:"unit_rate"`
	Amount      decimal.Decimal `json:"amount"`
	SortOrder   int             `json:"sort_order"`
	CreatedAt   time.Time       `json:"created_at"`
}
