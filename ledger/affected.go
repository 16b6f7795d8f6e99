/*
affected.go - Resolving which calendar days a ledger write touches

PURPOSE:
  Given a ledger entry, computes the set of calendar days whose summaries
  must be recomputed when that entry is created, edited, or deleted. The
  service resolves affected dates on the pre-change state, the post-change
  state, or both (edits), then recomputes once per distinct month.

SEE ALSO:
  - recalc.go: Consumes the affected months
  - service.go: Invokes resolution around every write
*/
package ledger

import "sort"

// AffectedDates returns the calendar days whose summaries depend on the
// entry. A SINGLE entry affects exactly its start date. A recurring row
// affects the expansion of its own span, which covers the days its stale
// contribution may sit on after an edit or delete of that one row.
func AffectedDates(e Entry) ([]Date, error) {
	if e.Recurrence == RecurSingle {
		return []Date{e.StartDate}, nil
	}
	return Expand(e.StartDate, e.EndDate, e.Recurrence)
}

// AffectedMonths collapses dates to their distinct calendar months in
// ascending order. Recompute is invoked once per month, never per day.
func AffectedMonths(dates []Date) []YearMonth {
	seen := make(map[YearMonth]bool, len(dates))
	var months []YearMonth
	for _, d := range dates {
		ym := MonthOf(d)
		if !seen[ym] {
			seen[ym] = true
			months = append(months, ym)
		}
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].FirstDay().Before(months[j].FirstDay())
	})
	return months
}
