/*
materialize.go - Turning occurrence dates into persisted entries

PURPOSE:
  Consumes an expanded occurrence sequence and writes one ledger entry per
  occurrence, copying the shared logical attributes (name, description,
  category, amount, kind, recurrence) from the template. All siblings of
  one batch share a GroupID so the family can later be deleted as a unit
  without matching on name.

ATOMICITY:
  Each entry is persisted individually. The materializer does not roll back
  earlier siblings when a later one fails; it assumes it runs inside the
  transaction boundary supplied by the caller (Service runs every write
  under TxStore.WithTx), which makes the whole batch all-or-nothing.

SEE ALSO:
  - expand.go: Produces the occurrence dates
  - service.go: Wraps materialization in the transaction boundary
*/
package ledger

import "context"

// Materialize persists one entry per occurrence date, copying all template
// fields, and returns the persisted rows in date order.
//
// End-date policy: a SINGLE entry's end date equals its start date; each
// recurring sibling carries the family's overall end date, which is
// bookkeeping for display and family deletion, never input to re-expansion.
func Materialize(ctx context.Context, entries EntryStore, template Entry, dates []Date) ([]Entry, error) {
	out := make([]Entry, 0, len(dates))
	for _, date := range dates {
		sibling := template
		sibling.ID = ""
		sibling.StartDate = date
		if template.Recurrence == RecurSingle {
			end := date
			sibling.EndDate = &end
		}

		saved, err := entries.SaveEntry(ctx, sibling)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}
