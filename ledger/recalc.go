/*
recalc.go - Daily summary recomputation

PURPOSE:
  Given a user and an as-of date, guarantees every day of that date's
  calendar month has a summary row and that the running savings chain is
  correct from day 1 through month end, re-deriving income and expenses
  from the entry store.

PIPELINE:
  SEED        Resolve the month and the savings value carried into day 1:
              the stored summary of the last day of the previous month, or
              the caller-supplied opening value if none exists.
  ENSURE_ROWS Upsert a zero row for every day of the month that has none.
              Idempotent; existing rows are never touched in this step.
  AGGREGATE   Per day ascending, read the day's entries and sum amounts by
              kind into income and expenses.
  CASCADE     Walking the same ascending order from day 1, set
              savings(d) = savings(d-1) + income(d) - expenses(d) and
              persist. The cascade always starts at day 1 even when the
              as-of date is mid-month: every later day's savings depends
              transitively on every earlier day's.

ORDERING IS LOAD-BEARING:
  Processing days out of order breaks the chain invariant. The summary
  store's range query contract (ascending) plus the single walk here are
  what guarantee it.

FAILURE SEMANTICS:
  Any store error abandons the invocation with no compensation logic of
  its own; the caller's transaction boundary discards the partial month.

SEE ALSO:
  - affected.go: Decides which months to recompute
  - store.go: Store contracts this component relies on
*/
package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Recalculator rebuilds one calendar month of DaySummary rows.
type Recalculator struct {
	Entries   EntryStore
	Summaries SummaryStore
	Clock     Clock
}

// Recompute rebuilds the summary rows for the month containing asOf.
// opening seeds the chain only when no summary exists for the last day of
// the previous month; passing the user's opening balance makes the very
// first month of data start from it instead of zero.
func (r *Recalculator) Recompute(ctx context.Context, userID UserID, asOf Date, opening decimal.Decimal) error {
	first := asOf.StartOfMonth()
	last := asOf.EndOfMonth()

	// SEED
	carry := opening
	if prev, err := r.Summaries.FindSummary(ctx, userID, first.AddDays(-1)); err == nil {
		carry = prev.Savings
	} else if !IsNotFound(err) {
		return fmt.Errorf("seed lookup: %w", err)
	}

	// ENSURE_ROWS
	existing, err := r.Summaries.FindSummariesInRange(ctx, userID, first, last)
	if err != nil {
		return fmt.Errorf("load month: %w", err)
	}
	byDate := make(map[Date]DaySummary, len(existing))
	for _, s := range existing {
		byDate[s.Date] = s
	}
	now := r.Clock.Now()
	for day := first; day.BeforeOrEqual(last); day = day.AddDays(1) {
		if _, ok := byDate[day]; ok {
			continue
		}
		saved, err := r.Summaries.SaveSummary(ctx, NewZeroSummary(userID, day, now))
		if err != nil {
			return fmt.Errorf("ensure row %s: %w", day, err)
		}
		byDate[day] = saved
	}

	// AGGREGATE + CASCADE, one ascending walk
	for day := first; day.BeforeOrEqual(last); day = day.AddDays(1) {
		entries, err := r.Entries.FindEntriesByDate(ctx, userID, day)
		if err != nil {
			return fmt.Errorf("aggregate %s: %w", day, err)
		}

		income, expenses := sumByKind(entries)

		row := byDate[day]
		row.Income = income
		row.Expenses = expenses
		row.Savings = carry.Add(income).Sub(expenses)
		row.UpdatedAt = now
		if _, err := r.Summaries.SaveSummary(ctx, row); err != nil {
			return fmt.Errorf("cascade %s: %w", day, err)
		}
		carry = row.Savings
	}

	return nil
}

func sumByKind(entries []Entry) (income, expenses decimal.Decimal) {
	income, expenses = decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Kind {
		case KindIncome:
			income = income.Add(e.Amount)
		case KindExpense:
			expenses = expenses.Add(e.Amount)
		}
	}
	return income, expenses
}
