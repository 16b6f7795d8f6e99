/*
service.go - Operation facade for the savings engine

PURPOSE:
  Exposes the engine's operations (save, get, update, delete, month and day
  summaries, savings) over the store interfaces. This is where validation,
  duplicate checks, expansion, materialization, affected-date resolution
  and recomputation are sequenced.

WRITE FLOW:
  Every write runs inside TxStore.WithTx:
    1. Validate the request (reject before any write).
    2. Mutate the ledger (materialize / update / delete).
    3. Resolve affected dates for the pre- and/or post-change state.
    4. Recompute each distinct affected month, ascending.
  The boundary makes the ledger write and its recomputes atomic: callers
  see either the fully recomputed months or the pre-write state.

EDITS DO NOT RE-EXPAND:
  Updating an entry mutates that one row only. Siblings materialized from
  the same recurring save are untouched; deleting with wholeFamily removes
  the row's group members from its date onward.

SEE ALSO:
  - recalc.go: The recompute pipeline
  - ../api/handlers.go: The HTTP surface over this facade
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REQUESTS
// =============================================================================

// EntryRequest carries the caller-supplied fields of a save or update.
type EntryRequest struct {
	Name        string
	Description string
	Category    string
	Amount      decimal.Decimal
	Kind        EntryKind
	StartDate   Date
	EndDate     *Date
	Recurrence  Recurrence
}

// =============================================================================
// SERVICE
// =============================================================================

// Service is the engine facade. NewService wires the default collaborators.
type Service struct {
	tx    TxStore
	cache SummaryCache
	clock Clock
	newID func() GroupID
}

// Option customizes a Service.
type Option func(*Service)

// WithCache installs a summary cache in front of month reads.
func WithCache(c SummaryCache) Option { return func(s *Service) { s.cache = c } }

// WithClock pins the clock, for deterministic tests.
func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

// WithIDGenerator overrides group ID generation, for deterministic tests.
func WithIDGenerator(fn func() GroupID) Option { return func(s *Service) { s.newID = fn } }

func NewService(tx TxStore, opts ...Option) *Service {
	s := &Service{
		tx:    tx,
		cache: NopCache{},
		clock: SystemClock{},
		newID: newGroupID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// SAVE
// =============================================================================

// SaveEntry validates the request, materializes one row per occurrence and
// recomputes every affected month. It returns the first materialized row
// (the one dated at the request's start date).
func (s *Service) SaveEntry(ctx context.Context, userID UserID, req EntryRequest) (Entry, error) {
	if err := validateRequest(req); err != nil {
		return Entry{}, err
	}

	var created Entry
	err := s.tx.WithTx(ctx, func(st Stores) error {
		user, err := st.Users.FindUser(ctx, userID)
		if err != nil {
			return err
		}

		exists, err := st.Entries.EntryExists(ctx, userID, req.Name, req.Kind)
		if err != nil {
			return err
		}
		if exists {
			return &DuplicateEntryError{UserID: userID, Name: req.Name, Kind: req.Kind}
		}

		dates, err := Expand(req.StartDate, req.EndDate, req.Recurrence)
		if err != nil {
			return err
		}

		template := Entry{
			UserID:      userID,
			GroupID:     s.newID(),
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Amount:      req.Amount,
			Kind:        req.Kind,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			Recurrence:  req.Recurrence,
			CreatedAt:   s.clock.Now(),
		}

		rows, err := Materialize(ctx, st.Entries, template, dates)
		if err != nil {
			return err
		}
		created = rows[0]

		return s.recomputeMonths(ctx, st, user, AffectedMonths(dates))
	})
	return created, err
}

// =============================================================================
// READ
// =============================================================================

// GetEntry returns one entry owned by the user.
func (s *Service) GetEntry(ctx context.Context, userID UserID, id EntryID) (Entry, error) {
	var e Entry
	err := s.tx.WithTx(ctx, func(st Stores) error {
		var err error
		e, err = st.Entries.FindEntry(ctx, id, userID)
		return err
	})
	return e, err
}

// ListEntries returns a page of the user's entries, ascending by date.
// kind filters when non-empty; limit <= 0 falls back to a default page.
func (s *Service) ListEntries(ctx context.Context, userID UserID, kind EntryKind, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	var out []Entry
	err := s.tx.WithTx(ctx, func(st Stores) error {
		var err error
		out, err = st.Entries.ListEntries(ctx, userID, kind, limit, offset)
		return err
	})
	return out, err
}

const defaultPageSize = 50

// ListEntriesForMonth returns every entry dated within the month,
// ascending. This is what a calendar client fetches per rendered month.
func (s *Service) ListEntriesForMonth(ctx context.Context, userID UserID, ym YearMonth) ([]Entry, error) {
	var out []Entry
	err := s.tx.WithTx(ctx, func(st Stores) error {
		var err error
		out, err = st.Entries.FindEntriesInRange(ctx, userID, ym.FirstDay(), ym.LastDay())
		return err
	})
	return out, err
}

// ListEntriesForDay returns every entry dated exactly on the given day.
func (s *Service) ListEntriesForDay(ctx context.Context, userID UserID, date Date) ([]Entry, error) {
	var out []Entry
	err := s.tx.WithTx(ctx, func(st Stores) error {
		var err error
		out, err = st.Entries.FindEntriesByDate(ctx, userID, date)
		return err
	})
	return out, err
}

// =============================================================================
// UPDATE
// =============================================================================

// UpdateEntry edits a single row in place. Editing never re-expands the
// recurrence; it repairs the summaries of both the pre-edit and post-edit
// spans, so moving an entry's date zeroes out the stale day.
func (s *Service) UpdateEntry(ctx context.Context, userID UserID, id EntryID, req EntryRequest) (Entry, error) {
	if err := validateRequest(req); err != nil {
		return Entry{}, err
	}

	var updated Entry
	err := s.tx.WithTx(ctx, func(st Stores) error {
		user, err := st.Users.FindUser(ctx, userID)
		if err != nil {
			return err
		}

		before, err := st.Entries.FindEntry(ctx, id, userID)
		if err != nil {
			return err
		}

		after := before
		after.Name = req.Name
		after.Description = req.Description
		after.Category = req.Category
		after.Amount = req.Amount
		after.Kind = req.Kind
		after.StartDate = req.StartDate
		after.EndDate = req.EndDate
		after.Recurrence = req.Recurrence

		updated, err = st.Entries.UpdateEntry(ctx, after)
		if err != nil {
			return err
		}

		oldDates, err := AffectedDates(before)
		if err != nil {
			return err
		}
		newDates, err := AffectedDates(after)
		if err != nil {
			return err
		}
		return s.recomputeMonths(ctx, st, user, AffectedMonths(append(oldDates, newDates...)))
	})
	return updated, err
}

// =============================================================================
// DELETE
// =============================================================================

// DeleteEntry removes a single row, or, for a recurring entry when
// wholeFamily is set, every sibling of its group dated on or after it.
// Summaries of every removed row's span are recomputed.
func (s *Service) DeleteEntry(ctx context.Context, userID UserID, id EntryID, wholeFamily bool) error {
	return s.tx.WithTx(ctx, func(st Stores) error {
		user, err := st.Users.FindUser(ctx, userID)
		if err != nil {
			return err
		}

		target, err := st.Entries.FindEntry(ctx, id, userID)
		if err != nil {
			return err
		}

		removed := []Entry{target}
		if wholeFamily && target.Recurrence.IsRecurring() {
			removed, err = st.Entries.DeleteGroupOnOrAfter(ctx, userID, target.GroupID, target.StartDate)
			if err != nil {
				return err
			}
		} else if err := st.Entries.DeleteEntry(ctx, id, userID); err != nil {
			return err
		}

		var dates []Date
		for _, e := range removed {
			// A deleted row's stale contribution sits only on its own
			// start date; recomputing the wider span is harmless but the
			// row dates are what must be repaired.
			dates = append(dates, e.StartDate)
		}
		return s.recomputeMonths(ctx, st, user, AffectedMonths(dates))
	})
}

// =============================================================================
// SUMMARIES
// =============================================================================

// GetMonthSummary returns one row per day of the month, recomputing the
// month first so callers always observe a consistent chain. Cached months
// are served as-is; every write invalidates the months it touches.
func (s *Service) GetMonthSummary(ctx context.Context, userID UserID, ym YearMonth) ([]DaySummary, error) {
	if rows, ok := s.cache.GetMonth(ctx, userID, ym); ok {
		return rows, nil
	}

	var rows []DaySummary
	err := s.tx.WithTx(ctx, func(st Stores) error {
		user, err := st.Users.FindUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.recalculator(st).Recompute(ctx, userID, ym.FirstDay(), user.OpeningBalance); err != nil {
			return err
		}
		rows, err = st.Summaries.FindSummariesInRange(ctx, userID, ym.FirstDay(), ym.LastDay())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.SetMonth(ctx, userID, ym, rows)
	return rows, nil
}

// RefreshMonth rebuilds one month's chain and drops it from the cache.
// The rollover sweeper uses this to keep the current month's rows present
// as days pass without writes.
func (s *Service) RefreshMonth(ctx context.Context, userID UserID, ym YearMonth) error {
	return s.tx.WithTx(ctx, func(st Stores) error {
		user, err := st.Users.FindUser(ctx, userID)
		if err != nil {
			return err
		}
		return s.recomputeMonths(ctx, st, user, []YearMonth{ym})
	})
}

// GetDaySummary returns the summary row for one day, or ErrSummaryNotFound
// if the day's month has never been touched by a recompute.
func (s *Service) GetDaySummary(ctx context.Context, userID UserID, date Date) (DaySummary, error) {
	var row DaySummary
	err := s.tx.WithTx(ctx, func(st Stores) error {
		var err error
		row, err = st.Summaries.FindSummary(ctx, userID, date)
		return err
	})
	return row, err
}

// GetSavings returns the running savings as of today: the summary row for
// the most recent day on or before today, or the opening balance when the
// user has no summarized data yet.
func (s *Service) GetSavings(ctx context.Context, userID UserID) (decimal.Decimal, error) {
	var savings decimal.Decimal
	err := s.tx.WithTx(ctx, func(st Stores) error {
		user, err := st.Users.FindUser(ctx, userID)
		if err != nil {
			return err
		}

		// The newest row on or before today, however old. A user who stopped
		// recording years ago still resumes from their last known savings.
		row, err := st.Summaries.FindLatestSummaryOnOrBefore(ctx, userID, s.clock.Today())
		if err == nil {
			savings = row.Savings
			return nil
		}
		if !IsNotFound(err) {
			return err
		}
		savings = user.OpeningBalance
		return nil
	})
	return savings, err
}

// =============================================================================
// INTERNALS
// =============================================================================

func (s *Service) recalculator(st Stores) *Recalculator {
	return &Recalculator{Entries: st.Entries, Summaries: st.Summaries, Clock: s.clock}
}

// recomputeMonths rebuilds each affected month in ascending order, so a
// later month's seed reads the earlier month's fresh last day, then drops
// the months from the cache.
func (s *Service) recomputeMonths(ctx context.Context, st Stores, user User, months []YearMonth) error {
	recalc := s.recalculator(st)
	for _, ym := range months {
		if err := recalc.Recompute(ctx, user.ID, ym.FirstDay(), user.OpeningBalance); err != nil {
			return err
		}
	}
	for _, ym := range months {
		s.cache.Invalidate(ctx, user.ID, ym)
	}
	return nil
}

func newGroupID() GroupID {
	return GroupID(fmt.Sprintf("grp-%d", time.Now().UnixNano()))
}

// validateRequest rejects malformed input before any write.
func validateRequest(req EntryRequest) error {
	if req.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if !req.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "amount must be greater than zero"}
	}
	if req.StartDate.IsZero() {
		return &ValidationError{Field: "startDate", Message: "start date is required"}
	}
	if req.Recurrence == "" {
		return &ValidationError{Field: "recurrence", Message: "recurrence is required"}
	}
	if req.Kind != KindExpense && req.Kind != KindIncome {
		return &ValidationError{Field: "kind", Message: "kind must be EXPENSE or INCOME"}
	}

	if req.Recurrence == RecurSingle {
		if req.EndDate != nil && !req.EndDate.Equal(req.StartDate) {
			return &ValidationError{Field: "endDate", Message: "for single entries, end date must equal start date"}
		}
	} else {
		if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
			return &ValidationError{Field: "endDate", Message: "end date must not be before start date for recurring entries"}
		}
	}
	return nil
}
