// Package approval owns the authorization lifecycle of a time entry:
// pending at creation, approved as the terminal state. Rejection or
// un-approval does not exist in this engine.
package approval

import (
	"errors"

	"github.com/byggkontor/timesheet/internal/domain/entity"
)

// ErrUnknownStatus is returned when an entry carries a status outside the
// lifecycle, which indicates corrupted data rather than a caller mistake.
var ErrUnknownStatus = errors.New("unknown approval status")

// Outcome describes what an approval attempt did.
type Outcome int

const (
	// Transitioned means the entry moved pending -> approved.
	Transitioned Outcome = iota

	// AlreadyApproved means the entry was approved before the call;
	// approval is idempotent and this is a success no-op.
	AlreadyApproved
)

// Approve evaluates the transition from the current status. It never
// mutates anything; the caller performs the matching conditional write.
func Approve(current entity.ApprovalStatus) (entity.ApprovalStatus, Outcome, error) {
	switch current {
	case entity.StatusPending:
		return entity.StatusApproved, Transitioned, nil
	case entity.StatusApproved:
		return entity.StatusApproved, AlreadyApproved, nil
	default:
		return current, AlreadyApproved, ErrUnknownStatus
	}
}

// SanitizeNew forces a freshly submitted entry into the initial state.
// Approval is a privileged side channel: any approval or billing fields a
// creation request carries are stripped so the submission path cannot forge
// them.
func SanitizeNew(e *entity.TimeEntry) {
	e.ApprovalStatus = entity.StatusPending
	e.ApprovedBy = nil
	e.ApprovedAt = nil
	e.Billed = false
	e.InvoiceID = nil
}
