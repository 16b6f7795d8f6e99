package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date
// =============================================================================

// Date is a calendar day. The zero value is the zero date. All dates are
// normalized to UTC midnight so two Dates for the same day always compare
// equal regardless of how they were constructed.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a date in 2006-01-02 form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustDate is ParseDate for literals in tests and fixtures; it panics on
// malformed input.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }
func (d Date) IsZero() bool                  { return d.t.IsZero() }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) Time() time.Time   { return d.t }

func (d Date) String() string { return d.t.Format(dateLayout) }

// Arithmetic. Day and week steps are exact; month and year steps clamp to
// the last valid day of the target month (Jan 31 + 1 month = Feb 28/29),
// unlike time.AddDate which would normalize Feb 31 into March.
func (d Date) AddDays(n int) Date  { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddWeeks(n int) Date { return d.AddDays(7 * n) }

func (d Date) AddMonths(n int) Date {
	y, m := d.Year(), int(d.Month())+n
	// time.Date normalizes out-of-range months, so month 13 of 2025 is
	// January 2026 and month 0 is December of the previous year.
	first := time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
	day := d.Day()
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return NewDate(first.Year(), first.Month(), day)
}

func (d Date) AddYears(n int) Date { return d.AddMonths(12 * n) }

// Month boundaries
func (d Date) StartOfMonth() Date { return NewDate(d.Year(), d.Month(), 1) }
func (d Date) EndOfMonth() Date   { return NewDate(d.Year(), d.Month(), daysIn(d.Year(), d.Month())) }

func daysIn(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// =============================================================================
// YEAR MONTH - One calendar month
// =============================================================================

type YearMonth struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing the date.
func MonthOf(d Date) YearMonth { return YearMonth{Year: d.Year(), Month: d.Month()} }

// ParseYearMonth parses a month in 2006-01 form.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (ym YearMonth) FirstDay() Date { return NewDate(ym.Year, ym.Month, 1) }
func (ym YearMonth) LastDay() Date  { return ym.FirstDay().EndOfMonth() }

func (ym YearMonth) String() string { return ym.FirstDay().t.Format("2006-01") }

// =============================================================================
// CLOCK - Injected "today" for deterministic tests
// =============================================================================

// Clock supplies the current day. Production code uses SystemClock; tests
// pin a FixedClock so expansion defaults and timestamps are reproducible.
type Clock interface {
	Today() Date
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Today() Date    { return DateOf(time.Now().UTC()) }
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always reports the same day.
type FixedClock struct {
	Day Date
}

func (c FixedClock) Today() Date    { return c.Day }
func (c FixedClock) Now() time.Time { return c.Day.Time() }
