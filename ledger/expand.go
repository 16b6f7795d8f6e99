/*
expand.go - Recurrence expansion

PURPOSE:
  Turns a (start date, end date, recurrence) triple into the ordered,
  bounded sequence of occurrence dates that materialization and
  affected-date resolution both consume.

BOUNDS:
  - At most MaxOccurrences (12) dates are ever produced.
  - No date on or past the effective end is produced. A missing end date
    defaults to one year after the start.
  - The window is a pure function of (start, end, recurrence). It does not
    look at the wall clock, so expanding the same rule twice always yields
    the same dates.

CALENDAR CORRECTNESS:
  Month and year steps preserve the day-of-month, clamping at month end:
  Jan 31 stepped monthly lands on Feb 28 (or 29), not Mar 2.

SEE ALSO:
  - date.go: The clamping arithmetic
  - materialize.go: Turns occurrence dates into persisted entries
*/
package ledger

import "fmt"

// MaxOccurrences bounds how many entries one recurring save materializes.
const MaxOccurrences = 12

// Expand returns the ordered occurrence dates for a recurrence rule.
//
// SINGLE yields exactly [start]. Any other recurrence yields start followed
// by calendar steps of its frequency, stopping before the effective end
// (end if given, otherwise start plus one year) or at MaxOccurrences,
// whichever comes first. The effective end is exclusive: a MONTHLY rule
// from 2025-01-01 to 2025-04-01 yields January through March only.
func Expand(start Date, end *Date, recurrence Recurrence) ([]Date, error) {
	if recurrence == RecurSingle {
		return []Date{start}, nil
	}

	effectiveEnd := start.AddYears(1)
	if end != nil {
		effectiveEnd = *end
	}

	// The start date itself is always an occurrence, even when the end
	// date leaves no room for further steps.
	dates := []Date{start}
	for len(dates) < MaxOccurrences {
		next, err := nextOccurrence(dates[len(dates)-1], recurrence)
		if err != nil {
			return nil, err
		}
		if !next.Before(effectiveEnd) {
			break
		}
		dates = append(dates, next)
	}
	return dates, nil
}

// nextOccurrence advances one step of the recurrence.
func nextOccurrence(d Date, recurrence Recurrence) (Date, error) {
	switch recurrence {
	case RecurDaily:
		return d.AddDays(1), nil
	case RecurWeekly:
		return d.AddWeeks(1), nil
	case RecurMonthly:
		return d.AddMonths(1), nil
	case RecurYearly:
		return d.AddYears(1), nil
	default:
		return Date{}, fmt.Errorf("%w: %q", ErrUnknownRecurrence, recurrence)
	}
}
