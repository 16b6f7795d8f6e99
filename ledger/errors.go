/*
errors.go - Centralized error types for the savings engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Outer layers (HTTP handlers, stores) wrap or classify these errors.

ERROR CATEGORIES:
  1. Validation errors - Rejected before any write, never retried
  2. Not-found errors  - Entry/summary/user absent or not owned by caller
  3. Duplicate errors  - Same name+kind already exists for the user
  4. Programming errors - Unknown recurrence reaching the expander

PROPAGATION POLICY:
  The engine does not catch or swallow store errors. I/O failures propagate
  unchanged to the caller's transaction boundary, which decides rollback.
  No retries exist anywhere in the engine.

USAGE:
  if ledger.IsNotFound(err) {
      // map to 404
  }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEntryNotFound is returned when an entry is absent or not owned by
	// the requesting user. The two cases are deliberately indistinguishable.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrSummaryNotFound is returned when no summary row exists for a day.
	ErrSummaryNotFound = errors.New("summary not found")

	// ErrUserNotFound is returned when a referenced user doesn't exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEntry is returned when an entry with the same name and
	// kind already exists for the user.
	ErrDuplicateEntry = errors.New("entry already exists")

	// ErrUnknownRecurrence is a defensive condition for an unrecognized
	// recurrence reaching the expander. Treated as a programming error,
	// not a user-facing validation failure.
	ErrUnknownRecurrence = errors.New("unknown recurrence")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports invalid caller input. It is rejected before any
// write reaches a store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError wraps ErrEntryNotFound with the looked-up identity.
type NotFoundError struct {
	ID     EntryID
	UserID UserID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entry %s not found for user %s", e.ID, e.UserID)
}

func (e *NotFoundError) Unwrap() error { return ErrEntryNotFound }

// DuplicateEntryError wraps ErrDuplicateEntry with the colliding identity.
type DuplicateEntryError struct {
	UserID UserID
	Name   string
	Kind   EntryKind
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("%s %q already exists for user %s", e.Kind, e.Name, e.UserID)
}

func (e *DuplicateEntryError) Unwrap() error { return ErrDuplicateEntry }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid caller input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrSummaryNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsDuplicate returns true if the error indicates a name+kind collision.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}
