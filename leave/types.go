/*
Package leave implements the leave request lifecycle and balance ledger.

PURPOSE:
  This package contains the core state machine for employee leave requests:
  what state transition is legal for an incoming event, what ledger mutation
  must accompany it, and what messages must be produced as a result. The chat
  connector and persistence engines are external collaborators behind the
  interfaces in store.go.

KEY CONCEPTS:
  - Category: fixed set of leave types (annual, sick, personal), each with
    an independent per-employee balance.
  - LeaveBalance: the per-employee, per-category remaining-balance ledger row.
  - LeaveRequest: a request with a pending -> {approved, declined} lifecycle.
  - Outcome: a tagged result value produced by an Engine operation, consumed
    by the rendering layer (compose.go).

DESIGN PRINCIPLES:
  1. Precision: balances use decimal.Decimal, so ledger arithmetic is exact.
  2. Exhaustiveness: categories are a closed enum; unknown categories are
     rejected at submit time, never silently defaulted.
  3. Auditability: requests are never deleted; they are the audit trail.

SEE ALSO:
  - engine.go: The state machine applying lifecycle transitions
  - store.go: Persistence contracts for both stores
  - errors.go: Error taxonomy
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEAVE CATEGORY - Closed enum, one ledger column per category
// =============================================================================

type Category string

const (
	CategoryAnnual   Category = "annual"
	CategorySick     Category = "sick"
	CategoryPersonal Category = "personal"
)

// Categories lists every valid category, in ledger column order.
var Categories = []Category{CategoryAnnual, CategorySick, CategoryPersonal}

// ParseCategory validates an inbound category string against the fixed set.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryAnnual, CategorySick, CategoryPersonal:
		return c, nil
	default:
		return "", &UnknownCategoryError{Category: s}
	}
}

// Valid reports whether c is a member of the fixed category set.
func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

// DisplayName returns the human-readable label used in messages.
func (c Category) DisplayName() string {
	switch c {
	case CategoryAnnual:
		return "Annual Leave"
	case CategorySick:
		return "Sick Leave"
	case CategoryPersonal:
		return "Personal Leave"
	default:
		return string(c)
	}
}

// Default yearly allotments, granted lazily on first interaction.
var defaultAllotments = map[Category]int64{
	CategoryAnnual:   20,
	CategorySick:     10,
	CategoryPersonal: 5,
}

// DefaultAllotment returns the initial balance for a category.
func DefaultAllotment(c Category) decimal.Decimal {
	return decimal.NewFromInt(defaultAllotments[c])
}

// =============================================================================
// LEAVE BALANCE - Per-employee ledger row
// =============================================================================

// LeaveBalance holds the remaining days per category for one employee.
// Invariant: no category may go negative as a result of an approval.
type LeaveBalance struct {
	EmployeeID  string
	DisplayName string
	Annual      decimal.Decimal
	Sick        decimal.Decimal
	Personal    decimal.Decimal
	UpdatedAt   time.Time
}

// NewLeaveBalance creates a balance with default allotments.
func NewLeaveBalance(employeeID, displayName string, now time.Time) *LeaveBalance {
	return &LeaveBalance{
		EmployeeID:  employeeID,
		DisplayName: displayName,
		Annual:      DefaultAllotment(CategoryAnnual),
		Sick:        DefaultAllotment(CategorySick),
		Personal:    DefaultAllotment(CategoryPersonal),
		UpdatedAt:   now,
	}
}

// Available returns the remaining days for a category.
// Unknown categories report zero; callers validate membership first.
func (b *LeaveBalance) Available(c Category) decimal.Decimal {
	switch c {
	case CategoryAnnual:
		return b.Annual
	case CategorySick:
		return b.Sick
	case CategoryPersonal:
		return b.Personal
	default:
		return decimal.Zero
	}
}

// Apply adds delta to the category balance. The caller enforces the
// non-negativity invariant before applying a debit.
func (b *LeaveBalance) Apply(c Category, delta decimal.Decimal) {
	switch c {
	case CategoryAnnual:
		b.Annual = b.Annual.Add(delta)
	case CategorySick:
		b.Sick = b.Sick.Add(delta)
	case CategoryPersonal:
		b.Personal = b.Personal.Add(delta)
	}
}

// Clone returns a copy, so stores can hand out snapshots safely.
func (b *LeaveBalance) Clone() *LeaveBalance {
	dup := *b
	return &dup
}

// =============================================================================
// LEAVE REQUEST - Lifecycle entity
// =============================================================================

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDeclined Status = "declined"
)

// IsTerminal reports whether no further transition is legal from s.
func (s Status) IsTerminal() bool { return s == StatusApproved || s == StatusDeclined }

// LeaveRequest is a single leave request. Status transitions only
// pending -> approved or pending -> declined, each exactly once. Duration is
// computed at creation time and immutable thereafter. Requests are never
// deleted; they serve as the audit trail for reporting.
type LeaveRequest struct {
	ID           int64
	EmployeeID   string
	DisplayName  string
	Category     Category
	StartDate    Date
	EndDate      Date
	Days         int
	Reason       string
	Status       Status
	ApproverID   string
	ApproverName string
	RequestedAt  time.Time
	RespondedAt  *time.Time
	ResponseNote string
}

// Clone returns a copy, so stores can hand out snapshots safely.
func (r *LeaveRequest) Clone() *LeaveRequest {
	dup := *r
	if r.RespondedAt != nil {
		at := *r.RespondedAt
		dup.RespondedAt = &at
	}
	return &dup
}

// NewLeaveRequest is the payload for RequestStore.Create. The store assigns
// the id and the requested-at timestamp.
type NewLeaveRequest struct {
	EmployeeID   string
	DisplayName  string
	Category     Category
	StartDate    Date
	EndDate      Date
	Days         int
	Reason       string
	ApproverID   string
	ApproverName string
}

// =============================================================================
// NORMALIZED EVENTS - Connector to core
// =============================================================================

// SubmitLeaveEvent is a normalized "new request" event. Category arrives as a
// raw string and is validated by the engine; dates are already parsed by the
// connector.
type SubmitLeaveEvent struct {
	EmployeeID   string
	DisplayName  string
	Category     string
	StartDate    Date
	EndDate      Date
	Reason       string
	ApproverID   string
	ApproverName string
}

// DecisionEvent is a normalized approve/decline event. The connector routes
// it to Engine.Approve or Engine.Decline.
type DecisionEvent struct {
	RequestID int64
	ActorID   string
	ActorName string
	Note      string
}

// BalanceQueryEvent asks for an employee's current balance snapshot.
type BalanceQueryEvent struct {
	EmployeeID  string
	DisplayName string
}

// ReportQueryEvent asks for the most recent requests. Limit <= 0 means the
// default report size.
type ReportQueryEvent struct {
	Limit int
}

// DefaultReportLimit is the report size when the event does not specify one.
const DefaultReportLimit = 20
