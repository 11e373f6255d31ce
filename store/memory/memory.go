// Package memory provides in-memory implementations of the leave stores,
// for testing and development. The same compare-and-swap semantics as the
// SQLite store apply, enforced under a single mutex.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store implements both leave store interfaces in memory.
type Store struct {
	mu       sync.RWMutex
	balances map[string]*leave.LeaveBalance
	requests map[int64]*leave.LeaveRequest
	nextID   int64
}

var (
	_ leave.BalanceStore = (*Store)(nil)
	_ leave.RequestStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		balances: make(map[string]*leave.LeaveBalance),
		requests: make(map[int64]*leave.LeaveRequest),
	}
}

// =============================================================================
// BALANCE STORE
// =============================================================================

func (s *Store) GetBalance(_ context.Context, employeeID string) (*leave.LeaveBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.balances[employeeID]
	if !ok {
		return nil, leave.ErrBalanceNotFound
	}
	return b.Clone(), nil
}

func (s *Store) EnsureBalance(_ context.Context, employeeID, displayName string) (*leave.LeaveBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.balances[employeeID]; ok {
		return b.Clone(), nil
	}

	b := leave.NewLeaveBalance(employeeID, displayName, time.Now().UTC())
	s.balances[employeeID] = b
	return b.Clone(), nil
}

func (s *Store) Adjust(_ context.Context, employeeID string, category leave.Category, days decimal.Decimal, direction leave.Direction) error {
	if !category.Valid() {
		return &leave.UnknownCategoryError{Category: string(category)}
	}

	delta := days
	if direction == leave.DirectionSubtract {
		delta = days.Neg()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[employeeID]
	if !ok {
		return leave.ErrBalanceNotFound
	}

	next := b.Available(category).Add(delta)
	if direction == leave.DirectionSubtract && next.IsNegative() {
		return &leave.InsufficientBalanceError{
			EmployeeID: employeeID,
			Category:   category,
			Available:  b.Available(category),
			Requested:  days,
		}
	}

	b.Apply(category, delta)
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// =============================================================================
// REQUEST STORE
// =============================================================================

func (s *Store) Create(_ context.Context, req leave.NewLeaveRequest) (*leave.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	r := &leave.LeaveRequest{
		ID:           s.nextID,
		EmployeeID:   req.EmployeeID,
		DisplayName:  req.DisplayName,
		Category:     req.Category,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Days:         req.Days,
		Reason:       req.Reason,
		Status:       leave.StatusPending,
		ApproverID:   req.ApproverID,
		ApproverName: req.ApproverName,
		RequestedAt:  time.Now().UTC(),
	}
	s.requests[r.ID] = r
	return r.Clone(), nil
}

func (s *Store) Get(_ context.Context, id int64) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, leave.ErrRequestNotFound
	}
	return r.Clone(), nil
}

// SetDecision checks and flips the status under one lock acquisition, which
// gives the same exactly-one-winner semantics as the SQL compare-and-swap.
func (s *Store) SetDecision(_ context.Context, id int64, decision leave.Status, note string) (*leave.LeaveRequest, error) {
	if !decision.IsTerminal() {
		return nil, fmt.Errorf("invalid decision %q: must be approved or declined", decision)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, leave.ErrRequestNotFound
	}
	if r.Status != leave.StatusPending {
		return nil, leave.ErrAlreadyDecided
	}

	now := time.Now().UTC()
	r.Status = decision
	r.RespondedAt = &now
	r.ResponseNote = note
	return r.Clone(), nil
}

func (s *Store) ListRecent(_ context.Context, limit int) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]leave.LeaveRequest, 0, len(s.requests))
	for _, r := range s.requests {
		all = append(all, *r.Clone())
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].RequestedAt.Equal(all[j].RequestedAt) {
			return all[i].RequestedAt.After(all[j].RequestedAt)
		}
		return all[i].ID > all[j].ID
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
