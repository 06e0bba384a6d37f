// Package engine holds the error taxonomy shared by the settlement and
// payroll services.
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden is returned when the actor lacks the administrator
	// capability for the tenant. Never retried.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a referenced tenant, project, employee
	// or entry does not exist within the tenant scope.
	ErrNotFound = errors.New("not found")

	// ErrAlreadySettled marks an entry that is already billed. During a
	// settlement re-run this is a no-op warning, not a hard failure.
	ErrAlreadySettled = errors.New("entry already settled")

	// ErrValidation is returned for malformed requests, e.g. a bulk
	// approval whose end date precedes its start date.
	ErrValidation = errors.New("validation failed")
)

// PartialSettlementError reports a settlement where the invoice exists but
// line persistence failed before any entry was claimed. The invoice is left
// in a "no lines yet" state for manual reconciliation; the ID is carried so
// the caller can resume. Retrying picks up exactly the still-unbilled set.
type PartialSettlementError struct {
	InvoiceID int64
	Inserted  int
	Err       error
}

func (e *PartialSettlementError) Error() string {
	return fmt.Sprintf("partial settlement of invoice %d: %d lines persisted: %v",
		e.InvoiceID, e.Inserted, e.Err)
}

func (e *PartialSettlementError) Unwrap() error {
	return e.Err
}

// NotFoundError wraps ErrNotFound with the entity kind and ID that missed.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
