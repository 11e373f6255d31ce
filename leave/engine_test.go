package leave_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine(t *testing.T) (*leave.Engine, *memory.Store) {
	t.Helper()
	store := memory.New()
	engine := leave.NewEngine(store, store, nil)
	return engine, store
}

// monFri is a Monday-to-Friday week: 5 business days.
func monFri() (leave.Date, leave.Date) {
	return leave.NewDate(2024, time.January, 1), leave.NewDate(2024, time.January, 5)
}

func submitEvent(category string) leave.SubmitLeaveEvent {
	start, end := monFri()
	return leave.SubmitLeaveEvent{
		EmployeeID:   "U100",
		DisplayName:  "Erin Employee",
		Category:     category,
		StartDate:    start,
		EndDate:      end,
		Reason:       "family trip",
		ApproverID:   "U200",
		ApproverName: "Alex Approver",
	}
}

func mustSubmit(t *testing.T, engine *leave.Engine, ev leave.SubmitLeaveEvent) *leave.LeaveRequest {
	t.Helper()
	outcome, err := engine.Submit(context.Background(), ev)
	require.NoError(t, err)
	submitted, ok := outcome.(leave.Submitted)
	require.True(t, ok, "expected Submitted, got %s", outcome.Kind())
	return submitted.Request
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_CreatesPendingRequest(t *testing.T) {
	// GIVEN: a new employee with default balances
	// WHEN: submitting 5 business days of annual leave
	// THEN: a pending request with days=5 is created, the ledger is untouched

	engine, store := newTestEngine(t)
	ctx := context.Background()

	request := mustSubmit(t, engine, submitEvent("annual"))

	assert.Equal(t, leave.StatusPending, request.Status)
	assert.Equal(t, 5, request.Days)
	assert.Equal(t, leave.CategoryAnnual, request.Category)
	assert.Equal(t, "U200", request.ApproverID)
	assert.NotZero(t, request.ID)
	assert.Nil(t, request.RespondedAt)

	// Submit holds the balance only via the pre-flight check; no debit yet.
	balance, err := store.GetBalance(ctx, "U100")
	require.NoError(t, err)
	assert.True(t, balance.Annual.Equal(decimal.NewFromInt(20)))
}

func TestSubmit_UnknownCategory_RejectedBeforeAnyWrite(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Submit(ctx, submitEvent("sabbatical"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, leave.ErrUnknownCategory))

	// No balance row, no request record.
	_, err = store.GetBalance(ctx, "U100")
	assert.True(t, errors.Is(err, leave.ErrBalanceNotFound))
	requests, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestSubmit_InvalidRange_Rejected(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	ev := submitEvent("annual")
	ev.StartDate, ev.EndDate = ev.EndDate, ev.StartDate

	_, err := engine.Submit(ctx, ev)
	require.Error(t, err)
	assert.True(t, errors.Is(err, leave.ErrInvalidRange))

	requests, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestSubmit_InsufficientBalance_NoRecordCreated(t *testing.T) {
	// GIVEN: an employee with only 3 sick days left
	// WHEN: submitting a 5-weekday sick request
	// THEN: InsufficientBalance(available=3, requested=5); nothing persisted

	engine, store := newTestEngine(t)
	ctx := context.Background()

	_, err := store.EnsureBalance(ctx, "U100", "Erin Employee")
	require.NoError(t, err)
	err = store.Adjust(ctx, "U100", leave.CategorySick, decimal.NewFromInt(7), leave.DirectionSubtract)
	require.NoError(t, err)

	outcome, err := engine.Submit(ctx, submitEvent("sick"))
	require.NoError(t, err)

	insufficient, ok := outcome.(leave.InsufficientBalance)
	require.True(t, ok, "expected InsufficientBalance, got %s", outcome.Kind())
	assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, leave.CategorySick, insufficient.Category)

	// Pre-flight rejection: no request record, balance stays 3.
	requests, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, requests)

	balance, err := store.GetBalance(ctx, "U100")
	require.NoError(t, err)
	assert.True(t, balance.Sick.Equal(decimal.NewFromInt(3)))
}

func TestSubmit_ZeroDayWeekendRequest_IsLegal(t *testing.T) {
	// A same-day weekend request computes to 0 chargeable days but is still
	// accepted; approving it is a degenerate no-cost case.

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	ev := submitEvent("annual")
	ev.StartDate = leave.NewDate(2024, time.January, 6) // Saturday
	ev.EndDate = leave.NewDate(2024, time.January, 6)

	outcome, err := engine.Submit(ctx, ev)
	require.NoError(t, err)

	submitted, ok := outcome.(leave.Submitted)
	require.True(t, ok)
	assert.Equal(t, 0, submitted.Request.Days)
}

// =============================================================================
// APPROVE / DECLINE
// =============================================================================

func TestApprove_DebitsExactlyOnce(t *testing.T) {
	// GIVEN: employee E with annual=20 and a pending 5-day request
	// WHEN: approver A approves, then double-clicks
	// THEN: first call debits to 15, second observes AlreadyDecided and the
	//       balance stays 15

	engine, store := newTestEngine(t)
	ctx := context.Background()

	request := mustSubmit(t, engine, submitEvent("annual"))
	decision := leave.DecisionEvent{RequestID: request.ID, ActorID: "U200", ActorName: "Alex Approver"}

	outcome, err := engine.Approve(ctx, decision)
	require.NoError(t, err)
	approved, ok := outcome.(leave.Approved)
	require.True(t, ok, "expected Approved, got %s", outcome.Kind())
	assert.Equal(t, leave.StatusApproved, approved.Request.Status)
	assert.NotNil(t, approved.Request.RespondedAt)
	assert.Nil(t, approved.Reconciliation)

	balance, err := store.GetBalance(ctx, "U100")
	require.NoError(t, err)
	assert.True(t, balance.Annual.Equal(decimal.NewFromInt(15)), "annual should be 15, got %s", balance.Annual)

	// Duplicate approve: benign no-op, no double debit.
	outcome, err = engine.Approve(ctx, decision)
	require.NoError(t, err)
	already, ok := outcome.(leave.AlreadyDecided)
	require.True(t, ok, "expected AlreadyDecided, got %s", outcome.Kind())
	assert.Equal(t, leave.StatusApproved, already.Request.Status)

	balance, err = store.GetBalance(ctx, "U100")
	require.NoError(t, err)
	assert.True(t, balance.Annual.Equal(decimal.NewFromInt(15)))
}

func TestDecline_NeverTouchesLedger(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	request := mustSubmit(t, engine, submitEvent("personal"))
	decision := leave.DecisionEvent{
		RequestID: request.ID,
		ActorID:   "U200",
		ActorName: "Alex Approver",
		Note:      "coverage needed that week",
	}

	outcome, err := engine.Decline(ctx, decision)
	require.NoError(t, err)
	declined, ok := outcome.(leave.Declined)
	require.True(t, ok)
	assert.Equal(t, leave.StatusDeclined, declined.Request.Status)
	assert.Equal(t, "coverage needed that week", declined.Request.ResponseNote)

	balance, err := store.GetBalance(ctx, "U100")
	require.NoError(t, err)
	assert.True(t, balance.Personal.Equal(decimal.NewFromInt(5)))

	// Approve after decline is also AlreadyDecided; still no debit.
	outcome, err = engine.Approve(ctx, decision)
	require.NoError(t, err)
	_, ok = outcome.(leave.AlreadyDecided)
	require.True(t, ok)

	balance, err = store.GetBalance(ctx, "U100")
	require.NoError(t, err)
	assert.True(t, balance.Personal.Equal(decimal.NewFromInt(5)))
}

func TestDecision_UnknownRequest_NotFound(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	decision := leave.DecisionEvent{RequestID: 999, ActorID: "U200", ActorName: "Alex Approver"}

	_, err := engine.Approve(ctx, decision)
	assert.True(t, errors.Is(err, leave.ErrRequestNotFound))

	_, err = engine.Decline(ctx, decision)
	assert.True(t, errors.Is(err, leave.ErrRequestNotFound))
}

// =============================================================================
// RECONCILIATION - Debit failure after the status flip
// =============================================================================

// failingLedger wraps a BalanceStore and fails every Adjust, simulating a
// balance that changed concurrently between submit and approve.
type failingLedger struct {
	leave.BalanceStore
	err error
}

func (f *failingLedger) Adjust(context.Context, string, leave.Category, decimal.Decimal, leave.Direction) error {
	return f.err
}

func TestApprove_DebitFailure_SurfacesReconciliation(t *testing.T) {
	// GIVEN: a pending request whose ledger debit will fail
	// WHEN: approving
	// THEN: the request stays approved and the outcome carries a
	//       ReconciliationError; no rollback is attempted

	store := memory.New()
	ledger := &failingLedger{
		BalanceStore: store,
		err: &leave.InsufficientBalanceError{
			EmployeeID: "U100",
			Category:   leave.CategoryAnnual,
			Available:  decimal.NewFromInt(2),
			Requested:  decimal.NewFromInt(5),
		},
	}
	// Submit against the healthy store so the pre-flight check passes.
	submitEngine := leave.NewEngine(store, store, nil)
	request := mustSubmit(t, submitEngine, submitEvent("annual"))

	engine := leave.NewEngine(ledger, store, nil)
	outcome, err := engine.Approve(context.Background(), leave.DecisionEvent{
		RequestID: request.ID,
		ActorID:   "U200",
		ActorName: "Alex Approver",
	})
	require.NoError(t, err)

	approved, ok := outcome.(leave.Approved)
	require.True(t, ok, "expected Approved, got %s", outcome.Kind())
	require.NotNil(t, approved.Reconciliation)
	assert.Equal(t, request.ID, approved.Reconciliation.RequestID)
	assert.True(t, errors.Is(approved.Reconciliation, leave.ErrLedgerOutOfSync))

	// The approved status is the durable source of truth.
	current, err := store.Get(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, current.Status)
}

// =============================================================================
// BALANCE QUERY
// =============================================================================

func TestQueryBalance_CreatesDefaultsOnce(t *testing.T) {
	// GIVEN: a brand-new employee
	// WHEN: querying the balance twice
	// THEN: defaults are granted once; the second call re-initializes nothing

	engine, store := newTestEngine(t)
	ctx := context.Background()

	query := leave.BalanceQueryEvent{EmployeeID: "U300", DisplayName: "Noor New"}

	outcome, err := engine.QueryBalance(ctx, query)
	require.NoError(t, err)
	snapshot, ok := outcome.(leave.BalanceSnapshot)
	require.True(t, ok)
	assert.True(t, snapshot.Balance.Annual.Equal(decimal.NewFromInt(20)))
	assert.True(t, snapshot.Balance.Sick.Equal(decimal.NewFromInt(10)))
	assert.True(t, snapshot.Balance.Personal.Equal(decimal.NewFromInt(5)))

	// Spend some days, then query again.
	err = store.Adjust(ctx, "U300", leave.CategoryAnnual, decimal.NewFromInt(4), leave.DirectionSubtract)
	require.NoError(t, err)

	outcome, err = engine.QueryBalance(ctx, query)
	require.NoError(t, err)
	snapshot = outcome.(leave.BalanceSnapshot)
	assert.True(t, snapshot.Balance.Annual.Equal(decimal.NewFromInt(16)), "second ensure must not reset the balance")
}

// =============================================================================
// REPORT
// =============================================================================

func TestReport_EmptyIsDistinctFromPopulated(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	outcome, err := engine.Report(ctx, leave.ReportQueryEvent{})
	require.NoError(t, err)
	report, ok := outcome.(leave.Report)
	require.True(t, ok)
	assert.Empty(t, report.Requests)

	mustSubmit(t, engine, submitEvent("annual"))

	outcome, err = engine.Report(ctx, leave.ReportQueryEvent{})
	require.NoError(t, err)
	report = outcome.(leave.Report)
	assert.Len(t, report.Requests, 1)
}

func TestReport_HonorsLimit_NewestFirst(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ev := submitEvent("annual")
		ev.StartDate = leave.NewDate(2024, time.March, 4+i) // Mon..Fri
		ev.EndDate = ev.StartDate
		mustSubmit(t, engine, ev)
	}

	outcome, err := engine.Report(ctx, leave.ReportQueryEvent{Limit: 3})
	require.NoError(t, err)
	report := outcome.(leave.Report)
	require.Len(t, report.Requests, 3)

	// Newest first: ids descend.
	assert.Greater(t, report.Requests[0].ID, report.Requests[1].ID)
	assert.Greater(t, report.Requests[1].ID, report.Requests[2].ID)
}

// =============================================================================
// END-TO-END SCENARIO
// =============================================================================

func TestScenario_SubmitApproveDoubleApprove(t *testing.T) {
	// Employee E with annual=20 submits 5 business days (Mon-Fri) of annual
	// leave to approver A. A approves, then clicks approve again.

	engine, store := newTestEngine(t)
	ctx := context.Background()

	outcome, err := engine.Submit(ctx, submitEvent("annual"))
	require.NoError(t, err)
	submitted := outcome.(leave.Submitted)
	assert.Equal(t, 5, submitted.Request.Days)
	assert.Equal(t, leave.StatusPending, submitted.Request.Status)

	decision := leave.DecisionEvent{RequestID: submitted.Request.ID, ActorID: "U200", ActorName: "Alex Approver"}

	outcome, err = engine.Approve(ctx, decision)
	require.NoError(t, err)
	require.IsType(t, leave.Approved{}, outcome)

	balance, err := store.GetBalance(ctx, "U100")
	require.NoError(t, err)
	assert.True(t, balance.Annual.Equal(decimal.NewFromInt(15)))

	outcome, err = engine.Approve(ctx, decision)
	require.NoError(t, err)
	require.IsType(t, leave.AlreadyDecided{}, outcome)

	balance, err = store.GetBalance(ctx, "U100")
	require.NoError(t, err)
	assert.True(t, balance.Annual.Equal(decimal.NewFromInt(15)))
}
