/*
store.go - Persistence contracts for the two leave stores

PURPOSE:
  Defines the interface between the state machine and the database. All
  mutation goes through these two contracts, never through ad hoc writes.
  Implementations: store/sqlite (production) and store/memory (tests/dev).

CONCURRENCY CONTRACT:
  SetDecision is a compare-and-swap on status: under concurrent duplicate
  decisions for the same request id, exactly one caller observes
  pending -> decided and all others get ErrAlreadyDecided.

  Adjust is an atomic read-check-write: two approvals for the same employee
  can never both debit from a stale "sufficient" balance.

SEE ALSO:
  - engine.go: The only caller that mutates through these interfaces
  - store/sqlite/sqlite.go: Production implementation
  - store/memory/memory.go: In-memory implementation
*/
package leave

import (
	"context"

	"github.com/shopspring/decimal"
)

// Direction selects whether Adjust debits or credits a balance.
type Direction string

const (
	DirectionSubtract Direction = "subtract"
	DirectionAdd      Direction = "add"
)

// =============================================================================
// BALANCE STORE - Per-employee leave ledger
// =============================================================================

// BalanceStore persists per-employee, per-category remaining balances.
// Balances are created lazily and never deleted.
type BalanceStore interface {
	// GetBalance returns the ledger row for an employee.
	// Returns ErrBalanceNotFound if none exists.
	GetBalance(ctx context.Context, employeeID string) (*LeaveBalance, error)

	// EnsureBalance returns the existing balance or creates one with default
	// allotments. Idempotent: a second call never re-initializes.
	EnsureBalance(ctx context.Context, employeeID, displayName string) (*LeaveBalance, error)

	// Adjust applies a debit or credit to one category as a single atomic
	// read-check-write. Subtracting below zero fails with
	// InsufficientBalanceError; callers pre-check availability before
	// committing an approval, since this call is meant to be unconditional
	// once invoked. Updates the last-updated timestamp.
	Adjust(ctx context.Context, employeeID string, category Category, days decimal.Decimal, direction Direction) error
}

// =============================================================================
// REQUEST STORE - Lifecycle table, never deleted
// =============================================================================

// RequestStore persists leave requests and their lifecycle status.
type RequestStore interface {
	// Create inserts a request with status pending, assigns a monotonically
	// increasing id, and stamps the creation time.
	Create(ctx context.Context, req NewLeaveRequest) (*LeaveRequest, error)

	// Get returns a request by id. Returns ErrRequestNotFound if absent.
	Get(ctx context.Context, id int64) (*LeaveRequest, error)

	// SetDecision flips a pending request to approved or declined as an
	// atomic compare-and-swap on status. Returns ErrAlreadyDecided when the
	// request is no longer pending; this is the idempotency guard and is
	// checked before any ledger mutation happens.
	SetDecision(ctx context.Context, id int64, decision Status, note string) (*LeaveRequest, error)

	// ListRecent returns up to limit requests, newest requested-at first.
	ListRecent(ctx context.Context, limit int) ([]LeaveRequest, error)
}
