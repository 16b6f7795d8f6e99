/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.EntryStore, ledger.SummaryStore, ledger.UserStore and
  ledger.TxStore using SQLite. In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  entries:        Dated movements (one row per materialized occurrence)
  day_summaries:  One derived row per (user, calendar day)
  users:          Opening balances

DATA ENCODING:
  Dates are stored as 2006-01-02 TEXT so lexical order is date order and
  range scans use the indexes. Amounts are stored as decimal strings, never
  floats, so money survives round-trips exactly.

TRANSACTION BOUNDARY:
  WithTx runs a whole write (ledger mutation plus every month recompute)
  inside one database transaction, serialized by a store-level mutex. This
  is what keeps two concurrent recomputes for the same (user, month) from
  interleaving their cascades and losing updates. With PostgreSQL, use a
  transaction at repeatable-read isolation (or an advisory lock per user)
  instead of the mutex.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block,
  a single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/savings.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := ledger.NewService(store)

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/savings-engine/ledger"
)

// Store implements all ledger storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

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

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		opening_balance TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		group_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		category TEXT,
		amount TEXT NOT NULL,
		kind TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		recurrence TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Day aggregation and range scans (hot path of the recompute)
	CREATE INDEX IF NOT EXISTS idx_entries_user_date
		ON entries(user_id, start_date);

	-- Family deletion by group
	CREATE INDEX IF NOT EXISTS idx_entries_user_group_date
		ON entries(user_id, group_id, start_date);

	-- Duplicate check on save
	CREATE INDEX IF NOT EXISTS idx_entries_user_name_kind
		ON entries(user_id, name, kind);

	CREATE TABLE IF NOT EXISTS day_summaries (
		user_id TEXT NOT NULL REFERENCES users(id),
		date TEXT NOT NULL,
		income TEXT NOT NULL,
		expenses TEXT NOT NULL,
		savings TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, date)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTION BOUNDARY (ledger.TxStore)
// =============================================================================

// WithTx executes fn within a single database transaction, serialized per
// store so concurrent recomputes cannot interleave.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	st := &stores{q: sqlTx}
	if err := fn(ledger.Stores{Entries: st, Summaries: st, Users: st}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type stores struct {
	q querier
}

// =============================================================================
// USER STORE
// =============================================================================

// SaveUser upserts a user's opening balance. Users are an external concern;
// this exists so the HTTP layer and tests can register them.
func (s *Store) SaveUser(ctx context.Context, u ledger.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, opening_balance, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET opening_balance = excluded.opening_balance`,
		u.ID, u.OpeningBalance.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// ListUserIDs returns every registered user. The rollover sweeper walks
// this to refresh each user's current month.
func (s *Store) ListUserIDs(ctx context.Context) ([]ledger.UserID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []ledger.UserID
	for rows.Next() {
		var id ledger.UserID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (st *stores) FindUser(ctx context.Context, id ledger.UserID) (ledger.User, error) {
	var balance string
	err := st.q.QueryRowContext(ctx,
		`SELECT opening_balance FROM users WHERE id = ?`, id).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.User{}, fmt.Errorf("%w: %s", ledger.ErrUserNotFound, id)
	}
	if err != nil {
		return ledger.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	opening, err := decimal.NewFromString(balance)
	if err != nil {
		return ledger.User{}, fmt.Errorf("corrupt opening balance for %s: %w", id, err)
	}
	return ledger.User{ID: id, OpeningBalance: opening}, nil
}

// =============================================================================
// ENTRY STORE
// =============================================================================

var entrySeq atomic.Uint64

func newEntryID() ledger.EntryID {
	return ledger.EntryID(fmt.Sprintf("ent-%d-%d", time.Now().UnixNano(), entrySeq.Add(1)))
}

const entryColumns = `id, user_id, group_id, name, description, category,
	amount, kind, start_date, end_date, recurrence, created_at`

func (st *stores) SaveEntry(ctx context.Context, e ledger.Entry) (ledger.Entry, error) {
	if e.ID == "" {
		e.ID = newEntryID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := st.q.ExecContext(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.GroupID, e.Name,
		nullString(e.Description), nullString(e.Category),
		e.Amount.String(), e.Kind, e.StartDate.String(), nullDate(e.EndDate),
		e.Recurrence, e.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return ledger.Entry{}, fmt.Errorf("failed to save entry: %w", err)
	}
	return e, nil
}

func (st *stores) FindEntry(ctx context.Context, id ledger.EntryID, userID ledger.UserID) (ledger.Entry, error) {
	rows, err := st.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return ledger.Entry{}, err
	}
	if len(rows) == 0 {
		return ledger.Entry{}, &ledger.NotFoundError{ID: id, UserID: userID}
	}
	return rows[0], nil
}

func (st *stores) FindEntriesByDate(ctx context.Context, userID ledger.UserID, date ledger.Date) ([]ledger.Entry, error) {
	return st.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE user_id = ? AND start_date = ?
		ORDER BY start_date, id`, userID, date.String())
}

func (st *stores) FindEntriesInRange(ctx context.Context, userID ledger.UserID, from, to ledger.Date) ([]ledger.Entry, error) {
	return st.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE user_id = ? AND start_date >= ? AND start_date <= ?
		ORDER BY start_date, id`, userID, from.String(), to.String())
}

func (st *stores) ListEntries(ctx context.Context, userID ledger.UserID, kind ledger.EntryKind, limit, offset int) ([]ledger.Entry, error) {
	if kind != "" {
		return st.queryEntries(ctx, `
			SELECT `+entryColumns+` FROM entries
			WHERE user_id = ? AND kind = ?
			ORDER BY start_date, id
			LIMIT ? OFFSET ?`, userID, kind, limit, offset)
	}
	return st.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE user_id = ?
		ORDER BY start_date, id
		LIMIT ? OFFSET ?`, userID, limit, offset)
}

func (st *stores) EntryExists(ctx context.Context, userID ledger.UserID, name string, kind ledger.EntryKind) (bool, error) {
	var n int
	err := st.q.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM entries
		WHERE user_id = ? AND name = ? AND kind = ?`, userID, name, kind).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check entry existence: %w", err)
	}
	return n > 0, nil
}

func (st *stores) UpdateEntry(ctx context.Context, e ledger.Entry) (ledger.Entry, error) {
	res, err := st.q.ExecContext(ctx, `
		UPDATE entries
		SET name = ?, description = ?, category = ?, amount = ?, kind = ?,
		    start_date = ?, end_date = ?, recurrence = ?
		WHERE id = ? AND user_id = ?`,
		e.Name, nullString(e.Description), nullString(e.Category),
		e.Amount.String(), e.Kind, e.StartDate.String(), nullDate(e.EndDate),
		e.Recurrence, e.ID, e.UserID)
	if err != nil {
		return ledger.Entry{}, fmt.Errorf("failed to update entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.Entry{}, &ledger.NotFoundError{ID: e.ID, UserID: e.UserID}
	}
	return e, nil
}

func (st *stores) DeleteEntry(ctx context.Context, id ledger.EntryID, userID ledger.UserID) error {
	res, err := st.q.ExecContext(ctx,
		`DELETE FROM entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{ID: id, UserID: userID}
	}
	return nil
}

func (st *stores) DeleteGroupOnOrAfter(ctx context.Context, userID ledger.UserID, groupID ledger.GroupID, onOrAfter ledger.Date) ([]ledger.Entry, error) {
	removed, err := st.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE user_id = ? AND group_id = ? AND start_date >= ?
		ORDER BY start_date, id`, userID, groupID, onOrAfter.String())
	if err != nil {
		return nil, err
	}

	_, err = st.q.ExecContext(ctx, `
		DELETE FROM entries
		WHERE user_id = ? AND group_id = ? AND start_date >= ?`,
		userID, groupID, onOrAfter.String())
	if err != nil {
		return nil, fmt.Errorf("failed to delete group: %w", err)
	}
	return removed, nil
}

func (st *stores) queryEntries(ctx context.Context, query string, args ...any) ([]ledger.Entry, error) {
	rows, err := st.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (ledger.Entry, error) {
	var (
		e                     ledger.Entry
		description, category sql.NullString
		amount, start         string
		end                   sql.NullString
		createdAt             string
	)
	if err := rows.Scan(&e.ID, &e.UserID, &e.GroupID, &e.Name,
		&description, &category, &amount, &e.Kind, &start, &end,
		&e.Recurrence, &createdAt); err != nil {
		return ledger.Entry{}, fmt.Errorf("failed to scan entry: %w", err)
	}

	e.Description = description.String
	e.Category = category.String

	var err error
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return ledger.Entry{}, fmt.Errorf("corrupt amount for entry %s: %w", e.ID, err)
	}
	if e.StartDate, err = ledger.ParseDate(start); err != nil {
		return ledger.Entry{}, fmt.Errorf("corrupt start date for entry %s: %w", e.ID, err)
	}
	if end.Valid {
		d, err := ledger.ParseDate(end.String)
		if err != nil {
			return ledger.Entry{}, fmt.Errorf("corrupt end date for entry %s: %w", e.ID, err)
		}
		e.EndDate = &d
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		e.CreatedAt = t
	}
	return e, nil
}

// =============================================================================
// SUMMARY STORE
// =============================================================================

func (st *stores) FindSummary(ctx context.Context, userID ledger.UserID, date ledger.Date) (ledger.DaySummary, error) {
	rows, err := st.querySummaries(ctx, `
		SELECT user_id, date, income, expenses, savings, created_at, updated_at
		FROM day_summaries
		WHERE user_id = ? AND date = ?`, userID, date.String())
	if err != nil {
		return ledger.DaySummary{}, err
	}
	if len(rows) == 0 {
		return ledger.DaySummary{}, ledger.ErrSummaryNotFound
	}
	return rows[0], nil
}

func (st *stores) FindSummariesInRange(ctx context.Context, userID ledger.UserID, from, to ledger.Date) ([]ledger.DaySummary, error) {
	return st.querySummaries(ctx, `
		SELECT user_id, date, income, expenses, savings, created_at, updated_at
		FROM day_summaries
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date`, userID, from.String(), to.String())
}

func (st *stores) FindLatestSummaryOnOrBefore(ctx context.Context, userID ledger.UserID, date ledger.Date) (ledger.DaySummary, error) {
	rows, err := st.querySummaries(ctx, `
		SELECT user_id, date, income, expenses, savings, created_at, updated_at
		FROM day_summaries
		WHERE user_id = ? AND date <= ?
		ORDER BY date DESC
		LIMIT 1`, userID, date.String())
	if err != nil {
		return ledger.DaySummary{}, err
	}
	if len(rows) == 0 {
		return ledger.DaySummary{}, ledger.ErrSummaryNotFound
	}
	return rows[0], nil
}

func (st *stores) SaveSummary(ctx context.Context, s ledger.DaySummary) (ledger.DaySummary, error) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}

	// An upsert keeps the stored created_at; the returned struct must carry
	// that same value, not the caller's.
	var existingCreated string
	err := st.q.QueryRowContext(ctx, `
		SELECT created_at FROM day_summaries WHERE user_id = ? AND date = ?`,
		s.UserID, s.Date.String()).Scan(&existingCreated)
	switch {
	case err == nil:
		if t, perr := time.Parse(time.RFC3339, existingCreated); perr == nil {
			s.CreatedAt = t
		}
	case errors.Is(err, sql.ErrNoRows):
		// First write for this day.
	default:
		return ledger.DaySummary{}, fmt.Errorf("failed to save summary: %w", err)
	}

	_, err = st.q.ExecContext(ctx, `
		INSERT INTO day_summaries (user_id, date, income, expenses, savings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			income = excluded.income,
			expenses = excluded.expenses,
			savings = excluded.savings,
			updated_at = excluded.updated_at`,
		s.UserID, s.Date.String(), s.Income.String(), s.Expenses.String(),
		s.Savings.String(), s.CreatedAt.Format(time.RFC3339), s.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return ledger.DaySummary{}, fmt.Errorf("failed to save summary: %w", err)
	}
	return s, nil
}

func (st *stores) querySummaries(ctx context.Context, query string, args ...any) ([]ledger.DaySummary, error) {
	rows, err := st.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var out []ledger.DaySummary
	for rows.Next() {
		var (
			s                         ledger.DaySummary
			date                      string
			income, expenses, savings string
			createdAt, updatedAt      string
		)
		if err := rows.Scan(&s.UserID, &date, &income, &expenses, &savings,
			&createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}

		if s.Date, err = ledger.ParseDate(date); err != nil {
			return nil, fmt.Errorf("corrupt summary date: %w", err)
		}
		if s.Income, err = decimal.NewFromString(income); err != nil {
			return nil, fmt.Errorf("corrupt income for %s: %w", date, err)
		}
		if s.Expenses, err = decimal.NewFromString(expenses); err != nil {
			return nil, fmt.Errorf("corrupt expenses for %s: %w", date, err)
		}
		if s.Savings, err = decimal.NewFromString(savings); err != nil {
			return nil, fmt.Errorf("corrupt savings for %s: %w", date, err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			s.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			s.UpdatedAt = t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(d *ledger.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// Reset drops all rows. Dev and test use only.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"day_summaries", "entries", "users"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}
