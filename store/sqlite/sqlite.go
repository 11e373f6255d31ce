/*
Package sqlite provides the SQLite-backed implementation of the leave stores.

PURPOSE:
  Implements leave.BalanceStore and leave.RequestStore on a single SQLite
  database. In production, the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

KEY TABLES:
  leave_balances: one row per employee, one column per category
  leave_requests: lifecycle table, rows are never deleted (audit trail)

CONCURRENCY:
  A process-level sync.RWMutex serializes writers on top of SQLite's own
  locking. The two invariant-bearing operations are atomic:
  - SetDecision: a conditional UPDATE ... WHERE status='pending' acting as a
    compare-and-swap; exactly one concurrent decision wins, the rest observe
    leave.ErrAlreadyDecided.
  - Adjust: read-check-write inside a single SQL transaction, so two
    approvals can never both debit from a stale balance.

COLUMN SELECTION:
  Category balances live in fixed columns selected through balanceColumns, a
  compile-time map. No column name is ever interpolated from user input.

WAL MODE:
  The database is opened with WAL (Write-Ahead Logging): multiple readers
  don't block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := leave.NewEngine(store, store, logger)

SEE ALSO:
  - leave/store.go: Interface definitions and concurrency contract
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
)

// Store implements both leave store interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time checks that Store satisfies both contracts.
var (
	_ leave.BalanceStore = (*Store)(nil)
	_ leave.RequestStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Per-employee leave ledger. Balances are stored as decimal strings to
	-- keep day arithmetic exact; rows are created lazily and never deleted.
	CREATE TABLE IF NOT EXISTS leave_balances (
		employee_id  TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		annual       TEXT NOT NULL,
		sick         TEXT NOT NULL,
		personal     TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);

	-- Leave requests. Rows are never deleted; they are the audit trail.
	CREATE TABLE IF NOT EXISTS leave_requests (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id   TEXT NOT NULL,
		display_name  TEXT NOT NULL,
		category      TEXT NOT NULL,
		start_date    TEXT NOT NULL,
		end_date      TEXT NOT NULL,
		days          INTEGER NOT NULL,
		reason        TEXT,
		status        TEXT NOT NULL DEFAULT 'pending',
		approver_id   TEXT NOT NULL,
		approver_name TEXT NOT NULL,
		requested_at  TEXT NOT NULL,
		responded_at  TEXT,
		response_note TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_leave_requests_employee
		ON leave_requests(employee_id);
	CREATE INDEX IF NOT EXISTS idx_leave_requests_status
		ON leave_requests(status);

	-- Hot path for the report query (newest requested-at first).
	CREATE INDEX IF NOT EXISTS idx_leave_requests_requested_at
		ON leave_requests(requested_at DESC, id DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// balanceColumns maps each category onto its fixed ledger column. Adjust
// goes through this map only; user input never reaches a column name.
var balanceColumns = map[leave.Category]string{
	leave.CategoryAnnual:   "annual",
	leave.CategorySick:     "sick",
	leave.CategoryPersonal: "personal",
}

// =============================================================================
// BALANCE STORE (leave.BalanceStore interface)
// =============================================================================

// GetBalance returns the ledger row for an employee.
func (s *Store) GetBalance(ctx context.Context, employeeID string) (*leave.LeaveBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getBalance(ctx, employeeID)
}

func (s *Store) getBalance(ctx context.Context, employeeID string) (*leave.LeaveBalance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT employee_id, display_name, annual, sick, personal, updated_at
		FROM leave_balances
		WHERE employee_id = ?
	`, employeeID)

	var (
		b                  leave.LeaveBalance
		annual, sick, pers string
		updatedAt          string
	)
	err := row.Scan(&b.EmployeeID, &b.DisplayName, &annual, &sick, &pers, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leave.ErrBalanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan balance: %w", err)
	}

	if b.Annual, err = decimal.NewFromString(annual); err != nil {
		return nil, fmt.Errorf("corrupt annual balance for %s: %w", employeeID, err)
	}
	if b.Sick, err = decimal.NewFromString(sick); err != nil {
		return nil, fmt.Errorf("corrupt sick balance for %s: %w", employeeID, err)
	}
	if b.Personal, err = decimal.NewFromString(pers); err != nil {
		return nil, fmt.Errorf("corrupt personal balance for %s: %w", employeeID, err)
	}
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &b, nil
}

// EnsureBalance returns the existing balance or creates one with default
// allotments. INSERT OR IGNORE keeps the create idempotent under races.
func (s *Store) EnsureBalance(ctx context.Context, employeeID, displayName string) (*leave.LeaveBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := leave.NewLeaveBalance(employeeID, displayName, time.Now().UTC())
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO leave_balances
		(employee_id, display_name, annual, sick, personal, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		fresh.EmployeeID,
		fresh.DisplayName,
		fresh.Annual.String(),
		fresh.Sick.String(),
		fresh.Personal.String(),
		fresh.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure balance: %w", err)
	}

	return s.getBalance(ctx, employeeID)
}

// Adjust applies a debit or credit to one category as a single atomic
// read-check-write transaction.
func (s *Store) Adjust(ctx context.Context, employeeID string, category leave.Category, days decimal.Decimal, direction leave.Direction) error {
	column, ok := balanceColumns[category]
	if !ok {
		return &leave.UnknownCategoryError{Category: string(category)}
	}

	delta := days
	switch direction {
	case leave.DirectionSubtract:
		delta = days.Neg()
	case leave.DirectionAdd:
	default:
		return fmt.Errorf("unknown adjust direction %q", direction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Column name comes from the fixed map above, never from input.
	var current string
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM leave_balances WHERE employee_id = ?", column),
		employeeID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.ErrBalanceNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}

	available, err := decimal.NewFromString(current)
	if err != nil {
		return fmt.Errorf("corrupt %s balance for %s: %w", category, employeeID, err)
	}

	next := available.Add(delta)
	if direction == leave.DirectionSubtract && next.IsNegative() {
		return &leave.InsufficientBalanceError{
			EmployeeID: employeeID,
			Category:   category,
			Available:  available,
			Requested:  days,
		}
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE leave_balances SET %s = ?, updated_at = ? WHERE employee_id = ?", column),
		next.String(),
		time.Now().UTC().Format(time.RFC3339),
		employeeID,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}

	return tx.Commit()
}

// =============================================================================
// REQUEST STORE (leave.RequestStore interface)
// =============================================================================

// Create inserts a pending request and returns it with the assigned id.
func (s *Store) Create(ctx context.Context, req leave.NewLeaveRequest) (*leave.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requestedAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_requests
		(employee_id, display_name, category, start_date, end_date, days,
		 reason, status, approver_id, approver_name, requested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		req.EmployeeID,
		req.DisplayName,
		string(req.Category),
		req.StartDate.String(),
		req.EndDate.String(),
		req.Days,
		nullString(req.Reason),
		string(leave.StatusPending),
		req.ApproverID,
		req.ApproverName,
		requestedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read request id: %w", err)
	}

	return s.get(ctx, id)
}

// Get returns a request by id.
func (s *Store) Get(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.get(ctx, id)
}

// SetDecision flips a pending request to a terminal status. The conditional
// UPDATE is the compare-and-swap: zero rows affected means the request either
// does not exist or was already decided.
func (s *Store) SetDecision(ctx context.Context, id int64, decision leave.Status, note string) (*leave.LeaveRequest, error) {
	if !decision.IsTerminal() {
		return nil, fmt.Errorf("invalid decision %q: must be approved or declined", decision)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_requests
		SET status = ?, responded_at = ?, response_note = ?
		WHERE id = ? AND status = ?
	`,
		string(decision),
		time.Now().UTC().Format(time.RFC3339),
		nullString(note),
		id,
		string(leave.StatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set decision: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.get(ctx, id); err != nil {
			return nil, err // leave.ErrRequestNotFound
		}
		return nil, leave.ErrAlreadyDecided
	}

	return s.get(ctx, id)
}

// ListRecent returns up to limit requests, newest requested-at first. The id
// tiebreak keeps same-second submissions in creation order.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRequests(ctx, `
		SELECT id, employee_id, display_name, category, start_date, end_date,
		       days, reason, status, approver_id, approver_name,
		       requested_at, responded_at, response_note
		FROM leave_requests
		ORDER BY requested_at DESC, id DESC
		LIMIT ?
	`, limit)
}

// get loads one request. Callers hold the mutex.
func (s *Store) get(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
	requests, err := s.queryRequests(ctx, `
		SELECT id, employee_id, display_name, category, start_date, end_date,
		       days, reason, status, approver_id, approver_name,
		       requested_at, responded_at, response_note
		FROM leave_requests
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, leave.ErrRequestNotFound
	}
	return &requests[0], nil
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]leave.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func scanRequest(rows *sql.Rows) (leave.LeaveRequest, error) {
	var (
		req          leave.LeaveRequest
		category     string
		startDate    string
		endDate      string
		reason       sql.NullString
		status       string
		requestedAt  string
		respondedAt  sql.NullString
		responseNote sql.NullString
	)

	err := rows.Scan(
		&req.ID, &req.EmployeeID, &req.DisplayName, &category,
		&startDate, &endDate, &req.Days, &reason, &status,
		&req.ApproverID, &req.ApproverName,
		&requestedAt, &respondedAt, &responseNote,
	)
	if err != nil {
		return req, fmt.Errorf("failed to scan request: %w", err)
	}

	req.Category = leave.Category(category)
	req.Status = leave.Status(status)
	req.Reason = reason.String
	req.ResponseNote = responseNote.String

	if req.StartDate, err = leave.ParseDate(startDate); err != nil {
		return req, fmt.Errorf("corrupt start date on request %d: %w", req.ID, err)
	}
	if req.EndDate, err = leave.ParseDate(endDate); err != nil {
		return req, fmt.Errorf("corrupt end date on request %d: %w", req.ID, err)
	}

	req.RequestedAt, _ = time.Parse(time.RFC3339, requestedAt)
	if respondedAt.Valid {
		if t, perr := time.Parse(time.RFC3339, respondedAt.String); perr == nil {
			req.RespondedAt = &t
		}
	}

	return req, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
