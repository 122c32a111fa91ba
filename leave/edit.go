/*
edit.go - Edit-eligibility rules for leave requests

PURPOSE:
  Decides whether the owning employee may still edit a request. Only
  pending requests whose first day has not yet arrived are editable.

RULES:
  - Status must be pending. Approved/rejected/cancelled requests are
    immutable from the employee's side.
  - StartDate must be strictly after today, compared date-only (time of
    day zeroed on both sides).

  The check is a pure predicate and must be re-evaluated against the
  current date at the moment of the edit attempt - never cached.

REASONS:
  When ineligible, EditRestrictionReason returns the advisory string shown
  to the user; it is not an error.
*/
package leave

import (
	"fmt"
	"time"
)

// CanEdit reports whether the request may still be edited as of today.
func CanEdit(req *Request, today time.Time) bool {
	return EditRestrictionReason(req, today) == ""
}

// EditRestrictionReason returns the human-readable reason a request cannot
// be edited, or "" when editing is allowed.
func EditRestrictionReason(req *Request, today time.Time) string {
	if req == nil {
		return "Cannot edit a missing request"
	}
	if req.Status != StatusPending {
		return fmt.Sprintf("Cannot edit %s requests", req.Status)
	}
	if !dateOnly(req.StartDate).After(dateOnly(today)) {
		return "Cannot edit requests where the first day has passed"
	}
	return ""
}

// dateOnly zeroes the time-of-day component for date comparisons.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
