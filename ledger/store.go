/*
store.go - Persistence interfaces for entries, summaries and users

PURPOSE:
  Defines the contract between the engine and its storage. The engine is
  callable against any keyed store; implementations back it with SQLite
  (store/sqlite) or memory (ledger/store, for tests and dev).

KEY INTERFACES:
  EntryStore:   Ledger entry persistence and range queries
  SummaryStore: One summary row per (user, calendar day), upsert semantics
  UserStore:    Opening-balance lookup
  TxStore:      Transaction boundary for the write path
  SummaryCache: Optional month-summary cache in front of SummaryStore reads

ORDERING CONTRACT:
  Range queries return rows in ascending date order. The recalculator's
  cascade depends on this: each day's savings is derived from the previous
  day's, so handing it days out of order corrupts the chain.

CONCURRENCY:
  The engine performs no locking of its own. Two concurrent recomputes for
  the same (user, month) would interleave their cascades and lose updates;
  the store's transaction boundary (TxStore) is responsible for serializing
  them or running each at repeatable-read isolation.

SEE ALSO:
  - store/memory.go: In-memory implementation for testing
  - ../store/sqlite/sqlite.go: Durable implementation
*/
package ledger

import "context"

// =============================================================================
// ENTRY STORE
// =============================================================================

// EntryStore persists ledger entries. All lookups are scoped to a user;
// an entry is never visible to anyone but its owner.
type EntryStore interface {
	// SaveEntry persists a new entry and returns it with its assigned ID.
	SaveEntry(ctx context.Context, e Entry) (Entry, error)

	// FindEntry returns the entry, or a NotFoundError if it is absent or
	// owned by a different user.
	FindEntry(ctx context.Context, id EntryID, userID UserID) (Entry, error)

	// FindEntriesByDate returns all entries for the user dated exactly on
	// the given day.
	FindEntriesByDate(ctx context.Context, userID UserID, date Date) ([]Entry, error)

	// FindEntriesInRange returns entries with StartDate in [from, to],
	// ascending by date.
	FindEntriesInRange(ctx context.Context, userID UserID, from, to Date) ([]Entry, error)

	// ListEntries returns a page of the user's entries, ascending by date
	// then ID. kind filters when non-empty.
	ListEntries(ctx context.Context, userID UserID, kind EntryKind, limit, offset int) ([]Entry, error)

	// EntryExists reports whether the user already has an entry with the
	// given name and kind.
	EntryExists(ctx context.Context, userID UserID, name string, kind EntryKind) (bool, error)

	// UpdateEntry overwrites a single existing row in place. Returns a
	// NotFoundError if the row is absent or owned by a different user.
	UpdateEntry(ctx context.Context, e Entry) (Entry, error)

	// DeleteEntry removes a single row.
	DeleteEntry(ctx context.Context, id EntryID, userID UserID) error

	// DeleteGroupOnOrAfter removes every entry of the group with StartDate
	// on or after the given date and returns the removed rows, ascending.
	DeleteGroupOnOrAfter(ctx context.Context, userID UserID, groupID GroupID, onOrAfter Date) ([]Entry, error)
}

// =============================================================================
// SUMMARY STORE
// =============================================================================

// SummaryStore persists one DaySummary per (user, calendar day).
type SummaryStore interface {
	// FindSummary returns the row for the day, or ErrSummaryNotFound.
	FindSummary(ctx context.Context, userID UserID, date Date) (DaySummary, error)

	// FindSummariesInRange returns rows with Date in [from, to], ascending.
	FindSummariesInRange(ctx context.Context, userID UserID, from, to Date) ([]DaySummary, error)

	// FindLatestSummaryOnOrBefore returns the newest row with Date <= date,
	// or ErrSummaryNotFound when the user has no row that old or older.
	FindLatestSummaryOnOrBefore(ctx context.Context, userID UserID, date Date) (DaySummary, error)

	// SaveSummary upserts the row keyed by (UserID, Date).
	SaveSummary(ctx context.Context, s DaySummary) (DaySummary, error)
}

// =============================================================================
// USER STORE
// =============================================================================

// UserStore resolves the opening balance used to seed the very first month
// of a user's data. Everything else about users lives outside this engine.
type UserStore interface {
	FindUser(ctx context.Context, id UserID) (User, error)
}

// =============================================================================
// TRANSACTION BOUNDARY
// =============================================================================

// Stores bundles the three stores a unit of work operates on.
type Stores struct {
	Entries   EntryStore
	Summaries SummaryStore
	Users     UserStore
}

// TxStore supplies the transaction boundary for the write path. A write
// (save/update/delete plus its recomputes) runs entirely inside one fn;
// if fn returns an error nothing it did is visible afterwards.
type TxStore interface {
	WithTx(ctx context.Context, fn func(Stores) error) error
}

// =============================================================================
// SUMMARY CACHE
// =============================================================================

// SummaryCache sits in front of month-summary reads. Implementations are
// best-effort; a miss or a cache failure must never fail the request.
type SummaryCache interface {
	GetMonth(ctx context.Context, userID UserID, ym YearMonth) ([]DaySummary, bool)
	SetMonth(ctx context.Context, userID UserID, ym YearMonth, rows []DaySummary)
	Invalidate(ctx context.Context, userID UserID, ym YearMonth)
}

// NopCache disables caching. It is the default when no Redis is configured.
type NopCache struct{}

func (NopCache) GetMonth(context.Context, UserID, YearMonth) ([]DaySummary, bool) { return nil, false }
func (NopCache) SetMonth(context.Context, UserID, YearMonth, []DaySummary)        {}
func (NopCache) Invalidate(context.Context, UserID, YearMonth)                    {}
