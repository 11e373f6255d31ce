/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error types in one place for consistency and discoverability. The HTTP
  connector maps these onto status codes via the classification helpers.

ERROR CATEGORIES:
  1. Validation errors - rejected before any persistent mutation
  2. Not-found errors  - missing request or balance, no mutation performed
  3. Idempotency guard - AlreadyDecided, a benign no-op for duplicate events
  4. Reconciliation    - the one failure that cannot be locally resolved

USAGE:
  Callers match with errors.Is():

    if errors.Is(err, leave.ErrAlreadyDecided) {
        // duplicate button press, safe to ignore
    }

SEE ALSO:
  - engine.go: Produces these errors
  - store/sqlite: Maps database failures onto them
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
	// ErrInvalidRange is returned when a date range ends before it starts.
	ErrInvalidRange = errors.New("invalid date range: end before start")

	// ErrUnknownCategory is returned for categories outside the fixed set.
	ErrUnknownCategory = errors.New("unknown leave category")

	// ErrInsufficientBalance is returned when a debit would drive a
	// category balance negative.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrBalanceNotFound is returned when no ledger row exists for an employee.
	ErrBalanceNotFound = errors.New("leave balance not found")

	// ErrRequestNotFound is returned when a request id does not exist.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrAlreadyDecided is returned when a decision targets a request that is
	// no longer pending. This is the idempotency guard against duplicate
	// button presses, not a failure.
	ErrAlreadyDecided = errors.New("leave request already decided")

	// ErrLedgerOutOfSync indicates a request was durably approved but the
	// ledger debit failed. Manual correction is required.
	ErrLedgerOutOfSync = errors.New("ledger out of sync with approved request")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError reports a date range that ends before it starts.
type InvalidRangeError struct {
	Start Date
	End   Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: end %s before start %s", e.End, e.Start)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// UnknownCategoryError reports a category outside {annual, sick, personal}.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown leave category %q", e.Category)
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	EmployeeID string
	Category   Category
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: %s has %s days of %s, requested %s",
		e.EmployeeID, e.Available, e.Category, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// Shortfall returns how many days short the balance is.
func (e *InsufficientBalanceError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// ReconciliationError records a ledger debit that failed after the request
// status was already flipped to approved. Approval is the durable source of
// truth, so this is surfaced loudly instead of rolled back.
type ReconciliationError struct {
	RequestID  int64
	EmployeeID string
	Category   Category
	Days       int
	Cause      error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("ledger reconciliation required: request %d approved but debit of %d %s days for %s failed: %v",
		e.RequestID, e.Days, e.Category, e.EmployeeID, e.Cause)
}

func (e *ReconciliationError) Unwrap() error { return ErrLedgerOutOfSync }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrAlreadyDecided)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrBalanceNotFound)
}
