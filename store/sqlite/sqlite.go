/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements timesheet.TxStore (entries, settings, reviewed days) on SQLite.
  The overtime engine only sees the interfaces; swapping this for another
  database means re-implementing this file, nothing else.

INTERFACES IMPLEMENTED:
  timesheet.EntryStore:       Time entries + adjustment lookup
  timesheet.SettingsStore:    Per-user schedule configuration
  timesheet.ReviewedDayStore: Days dismissed from problem detection
  timesheet.TxStore:          WithTx for atomic batches

KEY TABLES:
  time_entries:  One row per time block. No unique index on
                 (user_id, date, start_time): duplicates are a soft rule.
  user_settings: One row per user, work_days as a JSON array
  reviewed_days: UNIQUE (user_id, date), bulk inserts use INSERT OR IGNORE

STORAGE FORMATS:
  date        TEXT 'YYYY-MM-DD' (sorts lexically)
  timestamps  TEXT RFC3339, UTC
  decimals    TEXT (shopspring/decimal String()), never REAL

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Inside WithTx the lock is held for
  the whole callback and the tx-scoped store does not lock again.

MIGRATION:
  Schema is versioned under migrations/ and embedded into the binary.
  New() runs pending migrations through golang-migrate.

USAGE:
  store, err := sqlite.New("./data/worktime.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - timesheet/store.go: Interface definitions
  - timesheet/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/worktime-engine/timesheet"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements all storage interfaces using SQLite.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	base conn
}

var _ timesheet.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would get its own empty database otherwise.
		db.SetMaxOpenConns(1)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db, base: conn{q: db, now: time.Now}}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetClock replaces the clock used for created/updated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base.now = now
}

// =============================================================================
// MIGRATIONS
// =============================================================================

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", source, "sqlite3", driver)
}

// runMigrations applies every pending migration. The migrator is not closed:
// closing it would close db as well.
func runMigrations(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// MigrationVersion reports the applied schema version.
func (s *Store) MigrationVersion() (version uint, dirty bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := newMigrator(s.db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func (s *Store) FindEntries(ctx context.Context, userID timesheet.UserID, r timesheet.Range, types ...timesheet.EntryType) ([]timesheet.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base.FindEntries(ctx, userID, r, types...)
}

func (s *Store) GetEntry(ctx context.Context, id timesheet.EntryID) (*timesheet.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base.GetEntry(ctx, id)
}

func (s *Store) CreateEntry(ctx context.Context, e timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base.CreateEntry(ctx, e)
}

// CreateManyEntries inserts the batch in one transaction.
func (s *Store) CreateManyEntries(ctx context.Context, entries []timesheet.TimeEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	n, err := conn{q: sqlTx, now: s.base.now}.CreateManyEntries(ctx, entries)
	if err != nil {
		return 0, err
	}
	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return n, nil
}

func (s *Store) UpdateEntry(ctx context.Context, e timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base.UpdateEntry(ctx, e)
}

func (s *Store) DeleteEntry(ctx context.Context, id timesheet.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base.DeleteEntry(ctx, id)
}

func (s *Store) DeleteEntries(ctx context.Context, userID timesheet.UserID, ids []timesheet.EntryID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base.DeleteEntries(ctx, userID, ids)
}

func (s *Store) FindAdjustmentEntry(ctx context.Context, userID timesheet.UserID) (*timesheet.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base.FindAdjustmentEntry(ctx, userID)
}

// =============================================================================
// SETTINGS STORE
// =============================================================================

func (s *Store) GetSettings(ctx context.Context, userID timesheet.UserID) (*timesheet.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base.GetSettings(ctx, userID)
}

func (s *Store) SaveSettings(ctx context.Context, settings timesheet.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base.SaveSettings(ctx, settings)
}

// =============================================================================
// REVIEWED DAY STORE
// =============================================================================

func (s *Store) ListReviewed(ctx context.Context, userID timesheet.UserID, r timesheet.Range) ([]timesheet.ReviewedDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base.ListReviewed(ctx, userID, r)
}

func (s *Store) MarkReviewed(ctx context.Context, userID timesheet.UserID, date timesheet.Date, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base.MarkReviewed(ctx, userID, date, reason)
}

func (s *Store) MarkManyReviewed(ctx context.Context, userID timesheet.UserID, dates []timesheet.Date, reason string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base.MarkManyReviewed(ctx, userID, dates, reason)
}

func (s *Store) UnreviewDay(ctx context.Context, userID timesheet.UserID, date timesheet.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base.UnreviewDay(ctx, userID, date)
}

// =============================================================================
// TRANSACTIONAL STORE (timesheet.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store timesheet.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(conn{q: sqlTx, now: s.base.now}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// Reset deletes all rows. Used by demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"time_entries", "user_settings", "reviewed_days"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// CONN - unlocked queries shared by Store and its transactions
// =============================================================================

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type conn struct {
	q   querier
	now func() time.Time
}

const entryColumns = `id, user_id, date, start_time, end_time, duration, type,
	description, import_batch_id, created_at, updated_at`

func (c conn) FindEntries(ctx context.Context, userID timesheet.UserID, r timesheet.Range, types ...timesheet.EntryType) ([]timesheet.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries
		WHERE user_id = ? AND date >= ? AND date <= ?`
	args := []any{userID, r.Start.String(), r.End.String()}

	if len(types) > 0 {
		query += ` AND type IN (?` + strings.Repeat(", ?", len(types)-1) + `)`
		for _, t := range types {
			args = append(args, string(t))
		}
	}
	query += ` ORDER BY date ASC, start_time ASC, id ASC`

	return c.queryEntries(ctx, query, args...)
}

func (c conn) GetEntry(ctx context.Context, id timesheet.EntryID) (*timesheet.TimeEntry, error) {
	entries, err := c.queryEntries(ctx, `SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, &timesheet.NotFoundError{Kind: "entry", ID: string(id)}
	}
	return &entries[0], nil
}

func (c conn) CreateEntry(ctx context.Context, e timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	if e.ID == "" {
		e.ID = timesheet.EntryID(uuid.NewString())
	}
	now := c.now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	_, err := c.q.ExecContext(ctx, `
		INSERT INTO time_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Date.String(),
		formatTime(e.StartTime), formatTime(e.EndTime),
		e.Duration.String(), string(e.Type),
		nullString(e.Description), nullString(e.ImportBatchID),
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return timesheet.TimeEntry{}, fmt.Errorf("entry %s: %w", e.ID, timesheet.ErrDuplicateEntry)
		}
		return timesheet.TimeEntry{}, fmt.Errorf("failed to insert entry: %w", err)
	}
	return e, nil
}

// CreateManyEntries skips rows colliding on (user, date, start time),
// including collisions within the batch itself.
func (c conn) CreateManyEntries(ctx context.Context, entries []timesheet.TimeEntry) (int, error) {
	inserted := 0
	for _, e := range entries {
		var exists int
		err := c.q.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM time_entries
			WHERE user_id = ? AND date = ? AND start_time = ?`,
			e.UserID, e.Date.String(), formatTime(e.StartTime),
		).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("failed to check collision: %w", err)
		}
		if exists > 0 {
			continue
		}
		if _, err := c.CreateEntry(ctx, e); err != nil {
			if errors.Is(err, timesheet.ErrDuplicateEntry) {
				continue
			}
			return 0, err
		}
		inserted++
	}
	return inserted, nil
}

func (c conn) UpdateEntry(ctx context.Context, e timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	e.UpdatedAt = c.now().UTC()

	res, err := c.q.ExecContext(ctx, `
		UPDATE time_entries
		SET date = ?, start_time = ?, end_time = ?, duration = ?, type = ?,
		    description = ?, import_batch_id = ?, updated_at = ?
		WHERE id = ?`,
		e.Date.String(), formatTime(e.StartTime), formatTime(e.EndTime),
		e.Duration.String(), string(e.Type),
		nullString(e.Description), nullString(e.ImportBatchID),
		formatTime(e.UpdatedAt), e.ID,
	)
	if err != nil {
		return timesheet.TimeEntry{}, fmt.Errorf("failed to update entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return timesheet.TimeEntry{}, &timesheet.NotFoundError{Kind: "entry", ID: string(e.ID)}
	}

	updated, err := c.GetEntry(ctx, e.ID)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}
	return *updated, nil
}

func (c conn) DeleteEntry(ctx context.Context, id timesheet.EntryID) error {
	res, err := c.q.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &timesheet.NotFoundError{Kind: "entry", ID: string(id)}
	}
	return nil
}

func (c conn) DeleteEntries(ctx context.Context, userID timesheet.UserID, ids []timesheet.EntryID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := []any{userID}
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := c.q.ExecContext(ctx,
		`DELETE FROM time_entries WHERE user_id = ? AND id IN (?`+strings.Repeat(", ?", len(ids)-1)+`)`,
		args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete entries: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// FindAdjustmentEntry uses instr() rather than LIKE: LIKE is
// case-insensitive in SQLite and the marker match is not.
func (c conn) FindAdjustmentEntry(ctx context.Context, userID timesheet.UserID) (*timesheet.TimeEntry, error) {
	entries, err := c.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM time_entries
		WHERE user_id = ? AND instr(description, ?) > 0
		ORDER BY date ASC, start_time ASC, id ASC
		LIMIT 1`,
		userID, timesheet.AdjustmentMarker)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (c conn) queryEntries(ctx context.Context, query string, args ...any) ([]timesheet.TimeEntry, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []timesheet.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (timesheet.TimeEntry, error) {
	var (
		e             timesheet.TimeEntry
		date          string
		startTime     string
		endTime       string
		duration      string
		entryType     string
		description   sql.NullString
		importBatchID sql.NullString
		createdAt     string
		updatedAt     string
	)

	err := rows.Scan(
		&e.ID, &e.UserID, &date, &startTime, &endTime, &duration, &entryType,
		&description, &importBatchID, &createdAt, &updatedAt,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}

	e.Date, err = timesheet.ParseDate(date)
	if err != nil {
		return e, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	if e.Duration, err = parseDecimal("duration", duration); err != nil {
		return e, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	for _, col := range []struct {
		name string
		raw  string
		dst  *time.Time
	}{
		{"start_time", startTime, &e.StartTime},
		{"end_time", endTime, &e.EndTime},
		{"created_at", createdAt, &e.CreatedAt},
		{"updated_at", updatedAt, &e.UpdatedAt},
	} {
		if *col.dst, err = parseTime(col.name, col.raw); err != nil {
			return e, fmt.Errorf("entry %s: %w", e.ID, err)
		}
	}
	e.Type = timesheet.EntryType(entryType)
	e.Description = description.String
	e.ImportBatchID = importBatchID.String

	return e, nil
}

func (c conn) GetSettings(ctx context.Context, userID timesheet.UserID) (*timesheet.UserSettings, error) {
	var (
		s            timesheet.UserSettings
		weeklyHours  string
		workDaysJSON string
		startTime    string
		endTime      string
		breakHours   string
		createdAt    string
		updatedAt    string
	)

	err := c.q.QueryRowContext(ctx, `
		SELECT user_id, weekly_hours, work_days, default_start_time, default_end_time,
		       break_duration, timezone, overtime_notification, language, theme,
		       created_at, updated_at
		FROM user_settings WHERE user_id = ?`, userID,
	).Scan(
		&s.UserID, &weeklyHours, &workDaysJSON, &startTime, &endTime,
		&breakHours, &s.Timezone, &s.OvertimeNotification, &s.Language, &s.Theme,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	if err := json.Unmarshal([]byte(workDaysJSON), &s.WorkDays); err != nil {
		return nil, fmt.Errorf("settings %s: bad work_days: %w", userID, err)
	}
	if s.DefaultStartTime, err = timesheet.ParseTimeOfDay(startTime); err != nil {
		return nil, fmt.Errorf("settings %s: %w", userID, err)
	}
	if s.DefaultEndTime, err = timesheet.ParseTimeOfDay(endTime); err != nil {
		return nil, fmt.Errorf("settings %s: %w", userID, err)
	}
	if s.WeeklyHours, err = parseDecimal("weekly_hours", weeklyHours); err != nil {
		return nil, fmt.Errorf("settings %s: %w", userID, err)
	}
	if s.BreakDuration, err = parseDecimal("break_duration", breakHours); err != nil {
		return nil, fmt.Errorf("settings %s: %w", userID, err)
	}
	if s.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, fmt.Errorf("settings %s: %w", userID, err)
	}
	if s.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, fmt.Errorf("settings %s: %w", userID, err)
	}

	return &s, nil
}

func (c conn) SaveSettings(ctx context.Context, s timesheet.UserSettings) error {
	workDays, err := json.Marshal(s.WorkDays)
	if err != nil {
		return fmt.Errorf("failed to encode work days: %w", err)
	}
	now := c.now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}

	_, err = c.q.ExecContext(ctx, `
		INSERT INTO user_settings
		(user_id, weekly_hours, work_days, default_start_time, default_end_time,
		 break_duration, timezone, overtime_notification, language, theme,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			weekly_hours = excluded.weekly_hours,
			work_days = excluded.work_days,
			default_start_time = excluded.default_start_time,
			default_end_time = excluded.default_end_time,
			break_duration = excluded.break_duration,
			timezone = excluded.timezone,
			overtime_notification = excluded.overtime_notification,
			language = excluded.language,
			theme = excluded.theme,
			updated_at = excluded.updated_at`,
		s.UserID, s.WeeklyHours.String(), string(workDays),
		s.DefaultStartTime.String(), s.DefaultEndTime.String(),
		s.BreakDuration.String(), s.Timezone, s.OvertimeNotification,
		s.Language, s.Theme, formatTime(s.CreatedAt), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (c conn) ListReviewed(ctx context.Context, userID timesheet.UserID, r timesheet.Range) ([]timesheet.ReviewedDay, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT id, user_id, date, reason, reviewed_at
		FROM reviewed_days
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date DESC`,
		userID, r.Start.String(), r.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query reviewed days: %w", err)
	}
	defer rows.Close()

	var result []timesheet.ReviewedDay
	for rows.Next() {
		var (
			rd         timesheet.ReviewedDay
			date       string
			reason     sql.NullString
			reviewedAt string
		)
		if err := rows.Scan(&rd.ID, &rd.UserID, &date, &reason, &reviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reviewed day: %w", err)
		}
		if rd.Date, err = timesheet.ParseDate(date); err != nil {
			return nil, err
		}
		rd.Reason = reason.String
		if rd.ReviewedAt, err = parseTime("reviewed_at", reviewedAt); err != nil {
			return nil, fmt.Errorf("reviewed day %s: %w", date, err)
		}
		result = append(result, rd)
	}
	return result, rows.Err()
}

func (c conn) MarkReviewed(ctx context.Context, userID timesheet.UserID, date timesheet.Date, reason string) error {
	_, err := c.MarkManyReviewed(ctx, userID, []timesheet.Date{date}, reason)
	return err
}

func (c conn) MarkManyReviewed(ctx context.Context, userID timesheet.UserID, dates []timesheet.Date, reason string) (int, error) {
	marked := 0
	reviewedAt := formatTime(c.now().UTC())
	for _, d := range dates {
		res, err := c.q.ExecContext(ctx, `
			INSERT OR IGNORE INTO reviewed_days (id, user_id, date, reason, reviewed_at)
			VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), userID, d.String(), nullString(reason), reviewedAt)
		if err != nil {
			return marked, fmt.Errorf("failed to mark %s reviewed: %w", d, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			marked++
		}
	}
	return marked, nil
}

func (c conn) UnreviewDay(ctx context.Context, userID timesheet.UserID, date timesheet.Date) error {
	_, err := c.q.ExecContext(ctx,
		`DELETE FROM reviewed_days WHERE user_id = ? AND date = ?`, userID, date.String())
	if err != nil {
		return fmt.Errorf("failed to unreview %s: %w", date, err)
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime reads an RFC 3339 column. Empty is the zero time.
func parseTime(column, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad %s %q: %w", column, s, err)
	}
	return t, nil
}

func parseDecimal(column, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad %s %q: %w", column, s, err)
	}
	return d, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
