/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error types in one place. The calculators are fail-soft by design -
  bad data degrades to a zero balance rather than an error - so the errors
  here mark programming misuse (nil record) and collaborator failures
  (missing records, insufficient balance at submission).

USAGE:
  if errors.Is(err, leave.ErrRecordNotFound) { ... }

  var insErr *leave.InsufficientBalanceError
  if errors.As(err, &insErr) {
      fmt.Println(insErr.Shortfall)
  }
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNilRecord is returned when a calculator is handed a nil balance
	// record. This is programming misuse, not a data-quality problem, and
	// fails fast at the call boundary.
	ErrNilRecord = errors.New("leave: nil balance record")

	// ErrRecordNotFound is returned when no balance record exists for an
	// employee in the requested cycle.
	ErrRecordNotFound = errors.New("balance record not found")

	// ErrRequestNotFound is returned when a referenced leave request
	// doesn't exist.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrInsufficientBalance is returned when a request's working days
	// exceed the available balance for its category.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrInvalidStatus is returned on a lifecycle transition that the
	// request's current status doesn't allow.
	ErrInvalidStatus = errors.New("invalid request status for operation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports how far a request overdraws the balance.
type InsufficientBalanceError struct {
	EmployeeEmail string
	Type          Type
	Available     decimal.Decimal
	Requested     decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: available %s, requested %s",
		e.Type, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// Shortfall returns the amount by which the request overdraws.
func (e *InsufficientBalanceError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// IsClientError reports whether the error is due to invalid client input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidStatus)
}

// IsNotFound reports whether the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrRequestNotFound)
}
