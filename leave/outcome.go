package leave

import "github.com/shopspring/decimal"

// =============================================================================
// OUTCOMES - Tagged results of engine operations
// =============================================================================

// Outcome is the tagged result of an Engine operation. The connector renders
// outcomes into platform-specific messages via Compose and never interprets
// them beyond the variant.
type Outcome interface {
	// Kind returns the outcome tag, used by renderers and API responses.
	Kind() string
}

// Submitted carries a newly created pending request.
type Submitted struct {
	Request *LeaveRequest
}

// InsufficientBalance is a pre-flight rejection: no request record was
// created and the ledger was not touched. A business outcome, not an error.
type InsufficientBalance struct {
	EmployeeID  string
	DisplayName string
	Category    Category
	Available   decimal.Decimal
	Requested   int
}

// Approved carries the decided request. Reconciliation is non-nil in the one
// case where the ledger debit failed after the status flip; the request stays
// approved and the ledger requires manual correction.
type Approved struct {
	Request        *LeaveRequest
	Reconciliation *ReconciliationError
}

// Declined carries the decided request. Declining never touches the ledger.
type Declined struct {
	Request *LeaveRequest
}

// AlreadyDecided is the benign no-op outcome for a duplicate decision event.
// Request reflects the decision that won.
type AlreadyDecided struct {
	Request *LeaveRequest
}

// BalanceSnapshot carries the current balance for a balance query.
type BalanceSnapshot struct {
	Balance *LeaveBalance
}

// Report carries the most recent requests, newest first. An empty Requests
// slice is a distinct renderable state, not an error.
type Report struct {
	Requests []LeaveRequest
}

func (Submitted) Kind() string           { return "submitted" }
func (InsufficientBalance) Kind() string { return "insufficient_balance" }
func (Approved) Kind() string            { return "approved" }
func (Declined) Kind() string            { return "declined" }
func (AlreadyDecided) Kind() string      { return "already_decided" }
func (BalanceSnapshot) Kind() string     { return "balance" }
func (Report) Kind() string              { return "report" }
