/*
engine.go - Leave request state machine

PURPOSE:
  Validates and applies lifecycle transitions (submit, approve, decline),
  enforcing the balance and idempotency invariants. The engine is the only
  component that mutates the stores.

STATE MACHINE:
  pending -> approved   (terminal)
  pending -> declined   (terminal)

  No transition out of approved/declined. Duplicate decisions observe the
  AlreadyDecided outcome via the request store's compare-and-swap.

ORDERING ON APPROVAL:
  The status flip commits BEFORE the ledger debit, making "approved" the
  durable source of truth. If the debit then fails (e.g. balance changed
  concurrently), the request stays approved and a ReconciliationError is
  surfaced loudly instead of inventing a rollback.

VALIDATION:
  All validation errors (range, category) are detected before any persistent
  mutation. An insufficient balance at submit time is a pre-flight rejection:
  no request record is created.

SEE ALSO:
  - store.go: The two store contracts the engine drives
  - compose.go: Renders the outcomes this engine returns
*/
package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine applies lifecycle transitions against the two stores. Construct one
// at startup and inject it wherever events arrive.
type Engine struct {
	balances BalanceStore
	requests RequestStore
	logger   *zap.Logger
}

// NewEngine creates an engine over the given stores. A nil logger disables
// logging.
func NewEngine(balances BalanceStore, requests RequestStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{balances: balances, requests: requests, logger: logger}
}

// Submit validates a new leave request and creates it in pending status.
// Returns InsufficientBalance (no record created) when the employee cannot
// cover the requested duration.
func (e *Engine) Submit(ctx context.Context, ev SubmitLeaveEvent) (Outcome, error) {
	// Validation happens before any store write.
	category, err := ParseCategory(ev.Category)
	if err != nil {
		return nil, err
	}

	days, err := BusinessDays(ev.StartDate, ev.EndDate)
	if err != nil {
		return nil, err
	}

	balance, err := e.balances.EnsureBalance(ctx, ev.EmployeeID, ev.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("ensure balance: %w", err)
	}

	available := balance.Available(category)
	requested := decimal.NewFromInt(int64(days))
	if available.LessThan(requested) {
		// Pre-flight rejection: no pending-then-declined transition.
		return InsufficientBalance{
			EmployeeID:  ev.EmployeeID,
			DisplayName: ev.DisplayName,
			Category:    category,
			Available:   available,
			Requested:   days,
		}, nil
	}

	request, err := e.requests.Create(ctx, NewLeaveRequest{
		EmployeeID:   ev.EmployeeID,
		DisplayName:  ev.DisplayName,
		Category:     category,
		StartDate:    ev.StartDate,
		EndDate:      ev.EndDate,
		Days:         days,
		Reason:       ev.Reason,
		ApproverID:   ev.ApproverID,
		ApproverName: ev.ApproverName,
	})
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	e.logger.Info("leave request submitted",
		zap.Int64("request_id", request.ID),
		zap.String("employee_id", request.EmployeeID),
		zap.String("category", string(request.Category)),
		zap.Int("days", request.Days))

	return Submitted{Request: request}, nil
}

// Approve flips a pending request to approved and debits the ledger exactly
// once. A duplicate approve observes AlreadyDecided and never double-debits.
func (e *Engine) Approve(ctx context.Context, ev DecisionEvent) (Outcome, error) {
	if _, err := e.requests.Get(ctx, ev.RequestID); err != nil {
		return nil, err
	}

	request, err := e.requests.SetDecision(ctx, ev.RequestID, StatusApproved, ev.Note)
	if errors.Is(err, ErrAlreadyDecided) {
		return e.alreadyDecided(ctx, ev.RequestID)
	}
	if err != nil {
		return nil, fmt.Errorf("set decision: %w", err)
	}

	// Debit only after the status flip is durable. Failure here is not
	// rolled back: approval decisions are not reversible by this path.
	days := decimal.NewFromInt(int64(request.Days))
	if err := e.balances.Adjust(ctx, request.EmployeeID, request.Category, days, DirectionSubtract); err != nil {
		recon := &ReconciliationError{
			RequestID:  request.ID,
			EmployeeID: request.EmployeeID,
			Category:   request.Category,
			Days:       request.Days,
			Cause:      err,
		}
		e.logger.Error("ledger debit failed after approval, manual correction required",
			zap.Int64("request_id", request.ID),
			zap.String("employee_id", request.EmployeeID),
			zap.String("category", string(request.Category)),
			zap.Int("days", request.Days),
			zap.Error(err))
		return Approved{Request: request, Reconciliation: recon}, nil
	}

	e.logger.Info("leave request approved",
		zap.Int64("request_id", request.ID),
		zap.String("actor_id", ev.ActorID),
		zap.Int("days", request.Days))

	return Approved{Request: request}, nil
}

// Decline flips a pending request to declined. Performs no ledger mutation
// regardless of balance state; idempotent via the same AlreadyDecided guard.
func (e *Engine) Decline(ctx context.Context, ev DecisionEvent) (Outcome, error) {
	if _, err := e.requests.Get(ctx, ev.RequestID); err != nil {
		return nil, err
	}

	request, err := e.requests.SetDecision(ctx, ev.RequestID, StatusDeclined, ev.Note)
	if errors.Is(err, ErrAlreadyDecided) {
		return e.alreadyDecided(ctx, ev.RequestID)
	}
	if err != nil {
		return nil, fmt.Errorf("set decision: %w", err)
	}

	e.logger.Info("leave request declined",
		zap.Int64("request_id", request.ID),
		zap.String("actor_id", ev.ActorID))

	return Declined{Request: request}, nil
}

// QueryBalance returns the employee's current balance, creating the ledger
// row with defaults on first interaction.
func (e *Engine) QueryBalance(ctx context.Context, ev BalanceQueryEvent) (Outcome, error) {
	balance, err := e.balances.EnsureBalance(ctx, ev.EmployeeID, ev.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("ensure balance: %w", err)
	}
	return BalanceSnapshot{Balance: balance}, nil
}

// Report returns the most recent requests, newest first. An empty report is
// a distinct outcome state, not an error.
func (e *Engine) Report(ctx context.Context, ev ReportQueryEvent) (Outcome, error) {
	limit := ev.Limit
	if limit <= 0 {
		limit = DefaultReportLimit
	}

	requests, err := e.requests.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	return Report{Requests: requests}, nil
}

// alreadyDecided re-reads the request so the outcome carries the decision
// that won, even when the duplicate lost a race by microseconds.
func (e *Engine) alreadyDecided(ctx context.Context, id int64) (Outcome, error) {
	request, err := e.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return AlreadyDecided{Request: request}, nil
}
