/*
errors.go - Centralized error types for time tracking

PURPOSE:
  All error types in one place for consistency and discoverability.
  Calculation packages wrap these with context; the API layer maps them
  to HTTP status codes.

ERROR CATEGORIES:
  1. Validation errors - caller's fault (bad ranges, bad times, bad settings)
  2. Not-found errors  - referenced entry/settings absent
  3. Conflict errors   - soft duplicate checks on entries
  Store errors (I/O, driver) are never converted: they propagate unchanged.

USAGE:
  if errors.Is(err, timesheet.ErrValidation) {
      // 400
  }

  var vErr *timesheet.ValidationError
  if errors.As(err, &vErr) {
      fmt.Println(vErr.Field)
  }

SEE ALSO:
  - overtime/bulkfill.go: range and time validation
  - api/handlers.go: status mapping
*/
package timesheet

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the parent of every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is the parent of every NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrEntryNotFound is returned when an entry id does not exist.
	ErrEntryNotFound = fmt.Errorf("entry %w", ErrNotFound)

	// ErrSettingsNotFound is returned by explicit settings lookups that
	// bypass the default-schedule fallback.
	ErrSettingsNotFound = fmt.Errorf("settings %w", ErrNotFound)

	// ErrDuplicateEntry is returned when an entry with the same user, date
	// and start time already exists.
	ErrDuplicateEntry = errors.New("duplicate time entry")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes invalid caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for building a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the kind and id of the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	switch e.Kind {
	case "entry":
		return ErrEntryNotFound
	case "settings":
		return ErrSettingsNotFound
	default:
		return ErrNotFound
	}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true for duplicate-entry errors.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}
