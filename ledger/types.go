/*
Package ledger provides the core savings engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking dated
  financial movements (expenses and income), expanding recurrence rules into
  concrete dated entries, and maintaining the per-day derived summary
  (income, expenses, running savings) that stays consistent as entries are
  added, edited, or removed.

KEY CONCEPTS IN THIS FILE (types.go):
  - Entry: A dated financial movement (one expense or income occurrence)
  - DaySummary: The derived per-day aggregate with the running savings chain
  - EntryKind: Whether a movement is an expense or an income
  - Recurrence: How an entry repeats (single, daily, weekly, monthly, yearly)
  - User: The owning user, reduced to the opening balance the engine consumes

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors on money
  2. Derivation: Summaries are always recomputed from entries, never patched
  3. Type Safety: Strong typing for IDs prevents mixing entry/user/group IDs
  4. Determinism: Date arithmetic is calendar-correct and clock-independent

THE CHAIN INVARIANT:
  For every day d: savings(d) = savings(d-1) + income(d) - expenses(d),
  where savings(d-1) at a month boundary is the last stored summary of the
  preceding month, or the user's opening balance if no prior data exists.

SEE ALSO:
  - expand.go: Recurrence expansion
  - recalc.go: Daily summary recomputation
  - service.go: The operation facade tying the engine together
*/
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntryID string
type UserID string

// GroupID ties together all sibling entries materialized from one recurring
// save. Single entries carry a group too (with themselves as only member),
// which keeps family deletion uniform.
type GroupID string

// =============================================================================
// ENTRY KIND - Expense or income
// =============================================================================

type EntryKind string

const (
	KindExpense EntryKind = "EXPENSE"
	KindIncome  EntryKind = "INCOME"
)

// ParseEntryKind converts a string to an EntryKind, case-insensitively.
func ParseEntryKind(s string) (EntryKind, error) {
	switch normalize(s) {
	case string(KindExpense):
		return KindExpense, nil
	case string(KindIncome):
		return KindIncome, nil
	default:
		return "", &ValidationError{Field: "kind", Message: "unknown entry kind: " + s}
	}
}

// =============================================================================
// RECURRENCE - How an entry repeats
// =============================================================================

type Recurrence string

const (
	RecurSingle  Recurrence = "SINGLE"
	RecurDaily   Recurrence = "DAILY"
	RecurWeekly  Recurrence = "WEEKLY"
	RecurMonthly Recurrence = "MONTHLY"
	RecurYearly  Recurrence = "YEARLY"
)

// ParseRecurrence converts a string to a Recurrence, case-insensitively.
func ParseRecurrence(s string) (Recurrence, error) {
	switch normalize(s) {
	case string(RecurSingle):
		return RecurSingle, nil
	case string(RecurDaily):
		return RecurDaily, nil
	case string(RecurWeekly):
		return RecurWeekly, nil
	case string(RecurMonthly):
		return RecurMonthly, nil
	case string(RecurYearly):
		return RecurYearly, nil
	default:
		return "", &ValidationError{Field: "recurrence", Message: "unknown recurrence: " + s}
	}
}

// IsRecurring reports whether the recurrence produces more than one
// occurrence family.
func (r Recurrence) IsRecurring() bool { return r != RecurSingle }

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// =============================================================================
// ENTRY - One dated financial movement
// =============================================================================

// Entry is a single dated expense or income row. A recurring save produces
// a family of sibling entries sharing GroupID, Name, Category, Amount, Kind
// and Recurrence, each with its own StartDate produced by expansion.
type Entry struct {
	ID          EntryID
	UserID      UserID
	GroupID     GroupID
	Name        string
	Description string
	Category    string
	Amount      decimal.Decimal
	Kind        EntryKind
	StartDate   Date
	EndDate     *Date // nil for open-ended; equals StartDate for SINGLE
	Recurrence  Recurrence
	CreatedAt   time.Time
}

// =============================================================================
// DAY SUMMARY - Derived per-day aggregate
// =============================================================================

// DaySummary holds the derived totals for one (user, calendar day). Rows
// are created lazily by the recalculator and overwritten wholesale on every
// recompute pass; they are never incrementally patched.
type DaySummary struct {
	UserID    UserID
	Date      Date
	Income    decimal.Decimal
	Expenses  decimal.Decimal
	Savings   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewZeroSummary returns a summary row with all amounts at zero.
func NewZeroSummary(userID UserID, date Date, now time.Time) DaySummary {
	return DaySummary{
		UserID:    userID,
		Date:      date,
		Income:    decimal.Zero,
		Expenses:  decimal.Zero,
		Savings:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// USER - External collaborator, reduced to what the engine reads
// =============================================================================

// User is owned elsewhere; the engine only consumes the opening balance as
// the seed for the very first day of data.
type User struct {
	ID             UserID
	OpeningBalance decimal.Decimal
}
