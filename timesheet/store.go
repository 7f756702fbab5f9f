/*
store.go - Persistence interfaces consumed by the overtime engine

PURPOSE:
  Defines the boundary between calculation and storage. The engine never
  talks to a database directly: it reads entries, settings and reviewed
  days through these interfaces, and writes batches through TxStore.

KEY INTERFACES:
  EntryStore:       Time entries, including the adjustment lookup
  SettingsStore:    Per-user schedule configuration
  ReviewedDayStore: Days dismissed from problem detection
  HolidayOracle:    Ground truth for "is this date a holiday?"
  TxStore:          All of the above plus atomic multi-write

ATOMIC BATCHES:
  CreateManyEntries() inserts all rows or none, except rows that collide
  with an existing entry on (user, date, start time): those are skipped
  and excluded from the returned count. Bulk-fill relies on this to report
  late-discovered duplicates as "existing" instead of failing the batch.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite with embedded migrations
  - timesheet/store/memory.go: In-memory for tests and development

SEE ALSO:
  - overtime/service.go: the only writer
*/
package timesheet

import "context"

// =============================================================================
// ENTRY STORE
// =============================================================================

// EntryStore persists time entries.
type EntryStore interface {
	// FindEntries returns the user's entries dated within r, ordered by date
	// then start time. With types given, only those types are returned.
	FindEntries(ctx context.Context, userID UserID, r Range, types ...EntryType) ([]TimeEntry, error)

	// GetEntry returns ErrEntryNotFound (as *NotFoundError) when absent.
	GetEntry(ctx context.Context, id EntryID) (*TimeEntry, error)

	// CreateEntry inserts one entry. No uniqueness is enforced here; callers
	// run their own duplicate check (see overtime.Service.CreateEntry).
	CreateEntry(ctx context.Context, e TimeEntry) (TimeEntry, error)

	// CreateManyEntries inserts a batch atomically, skipping collisions.
	// Returns the number of rows actually inserted.
	CreateManyEntries(ctx context.Context, entries []TimeEntry) (int, error)

	UpdateEntry(ctx context.Context, e TimeEntry) (TimeEntry, error)
	DeleteEntry(ctx context.Context, id EntryID) error

	// DeleteEntries removes the listed entries owned by userID and returns
	// how many were removed. Ids owned by other users are ignored.
	DeleteEntries(ctx context.Context, userID UserID, ids []EntryID) (int, error)

	// FindAdjustmentEntry returns the earliest-dated entry carrying the
	// AdjustmentMarker, or nil.
	FindAdjustmentEntry(ctx context.Context, userID UserID) (*TimeEntry, error)
}

// =============================================================================
// SETTINGS STORE
// =============================================================================

// SettingsStore persists user settings.
type SettingsStore interface {
	// GetSettings returns (nil, nil) when the user has no stored settings.
	GetSettings(ctx context.Context, userID UserID) (*UserSettings, error)

	// SaveSettings inserts or fully replaces the user's settings.
	SaveSettings(ctx context.Context, s UserSettings) error
}

// =============================================================================
// REVIEWED DAY STORE
// =============================================================================

// ReviewedDayStore persists reviewed days.
type ReviewedDayStore interface {
	ListReviewed(ctx context.Context, userID UserID, r Range) ([]ReviewedDay, error)

	// MarkReviewed is a no-op if the day is already reviewed.
	MarkReviewed(ctx context.Context, userID UserID, date Date, reason string) error

	// MarkManyReviewed skips days already reviewed and returns how many
	// were newly marked.
	MarkManyReviewed(ctx context.Context, userID UserID, dates []Date, reason string) (int, error)

	UnreviewDay(ctx context.Context, userID UserID, date Date) error
}

// =============================================================================
// HOLIDAY ORACLE
// =============================================================================

// HolidayOracle answers holiday membership. Holidays are looked up, never
// computed, by the engine.
type HolidayOracle interface {
	IsHoliday(ctx context.Context, userID UserID, date Date) (bool, error)
}

// =============================================================================
// COMBINED + TRANSACTIONAL STORE
// =============================================================================

// Store is everything the engine reads and writes.
type Store interface {
	EntryStore
	SettingsStore
	ReviewedDayStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
