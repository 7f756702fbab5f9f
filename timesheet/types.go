/*
Package timesheet holds the data model of the time tracker.

PURPOSE:
  Entries, user settings and reviewed days, the calendar primitives the
  overtime engine iterates over, and the storage contracts the engine
  consumes. Nothing in here computes balances: see package overtime.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: decimal hour values and the quarter-hour rounding policy
  - TimeEntry: one block of time on one calendar day
  - UserSettings: the stored work schedule of a user
  - ReviewedDay: a day the user dismissed from problem detection

DESIGN PRINCIPLES:
  1. Precision: durations and balances are decimal.Decimal, never float64
  2. Rounding is an explicit final step (RoundToQuarterHour)
  3. Duration is stored independently of StartTime/EndTime

SEE ALSO:
  - date.go: Date, Range, TimeOfDay
  - store.go: storage interfaces
  - errors.go: error taxonomy
*/
package timesheet

import (
	"slices"
	"strings"
	"time"
	_ "time/tzdata" // settings validation loads zones by name

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - Decimal hour arithmetic
// =============================================================================

var quarter = decimal.NewFromInt(4)

// Hours converts a float literal to a decimal hour value.
func Hours(h float64) decimal.Decimal {
	return decimal.NewFromFloat(h)
}

// RoundToQuarterHour rounds to the nearest 0.25h, half away from zero.
// Quarter-hour granularity is the billing policy, not a display concern.
func RoundToQuarterHour(h decimal.Decimal) decimal.Decimal {
	return h.Mul(quarter).Round(0).Div(quarter)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type EntryID string

// =============================================================================
// TIME ENTRY
// =============================================================================

type EntryType string

const (
	EntryWork     EntryType = "WORK"
	EntryOvertime EntryType = "OVERTIME"
	EntryVacation EntryType = "VACATION"
	EntrySick     EntryType = "SICK"
	EntryHoliday  EntryType = "HOLIDAY"
)

// Valid reports whether t is one of the known entry types.
func (t EntryType) Valid() bool {
	switch t {
	case EntryWork, EntryOvertime, EntryVacation, EntrySick, EntryHoliday:
		return true
	}
	return false
}

// AdjustmentMarker identifies the initial-balance pseudo-entry by its
// description. At most one such entry should exist per user.
const AdjustmentMarker = "initial overtime balance"

// TimeEntry is one block of time on one calendar day.
type TimeEntry struct {
	ID            EntryID
	UserID        UserID
	Date          Date
	StartTime     time.Time
	EndTime       time.Time
	Duration      decimal.Decimal // hours; not derived from StartTime/EndTime
	Type          EntryType
	Description   string
	ImportBatchID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAdjustment reports whether the entry is the initial-balance pseudo-entry.
// Its Duration is a signed starting balance, not worked time.
//
// NOTE: any entry whose description contains the marker matches, including a
// user's own WORK entry. Kept as-is so existing data classifies identically.
func (e TimeEntry) IsAdjustment() bool {
	return strings.Contains(e.Description, AdjustmentMarker)
}

// Validate checks the fields a caller controls.
func (e TimeEntry) Validate() error {
	if e.UserID == "" {
		return Invalid("user_id", "is required")
	}
	if e.Date.IsZero() {
		return Invalid("date", "is required")
	}
	if !e.Type.Valid() {
		return Invalid("type", "unknown entry type %q", e.Type)
	}
	if e.Duration.IsNegative() && !e.IsAdjustment() {
		return Invalid("duration", "must not be negative")
	}
	if !e.StartTime.IsZero() && !e.EndTime.IsZero() && e.EndTime.Before(e.StartTime) {
		return Invalid("end_time", "must not be before start_time")
	}
	return nil
}

// =============================================================================
// USER SETTINGS
// =============================================================================

// UserSettings is the stored schedule configuration of one user.
type UserSettings struct {
	UserID               UserID
	WeeklyHours          decimal.Decimal
	WorkDays             []time.Weekday
	DefaultStartTime     TimeOfDay
	DefaultEndTime       TimeOfDay
	BreakDuration        decimal.Decimal
	Timezone             string
	OvertimeNotification bool
	Language             string
	Theme                string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DefaultWorkDays is Monday through Friday.
var DefaultWorkDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// DefaultSettings returns the settings a new user starts with.
func DefaultSettings(userID UserID) UserSettings {
	return UserSettings{
		UserID:               userID,
		WeeklyHours:          decimal.NewFromInt(40),
		WorkDays:             slices.Clone(DefaultWorkDays),
		DefaultStartTime:     TimeOfDay{Hour: 9},
		DefaultEndTime:       TimeOfDay{Hour: 17},
		BreakDuration:        Hours(0.5),
		Timezone:             "Europe/Berlin",
		OvertimeNotification: true,
		Language:             "de",
		Theme:                "system",
	}
}

// Validate applies the settings form rules.
func (s UserSettings) Validate() error {
	if s.WeeklyHours.LessThan(decimal.NewFromInt(1)) || s.WeeklyHours.GreaterThan(decimal.NewFromInt(168)) {
		return Invalid("weekly_hours", "must be between 1 and 168")
	}
	if len(s.WorkDays) < 1 || len(s.WorkDays) > 7 {
		return Invalid("work_days", "must contain 1 to 7 days")
	}
	seen := make(map[time.Weekday]bool, len(s.WorkDays))
	for _, wd := range s.WorkDays {
		if wd < time.Sunday || wd > time.Saturday {
			return Invalid("work_days", "day index %d out of range 0-6", wd)
		}
		if seen[wd] {
			return Invalid("work_days", "day %s listed twice", wd)
		}
		seen[wd] = true
	}
	if !s.DefaultStartTime.Before(s.DefaultEndTime) {
		return Invalid("default_end_time", "start time must be before end time")
	}
	if s.BreakDuration.IsNegative() || s.BreakDuration.GreaterThan(decimal.NewFromInt(8)) {
		return Invalid("break_duration", "must be between 0 and 8 hours")
	}
	if s.Timezone == "" {
		return Invalid("timezone", "is required")
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return Invalid("timezone", "unknown time zone %q", s.Timezone)
	}
	switch s.Theme {
	case "", "light", "dark", "system":
	default:
		return Invalid("theme", "must be light, dark or system")
	}
	return nil
}

// =============================================================================
// REVIEWED DAY
// =============================================================================

// ReviewedDay marks a day as manually dismissed from problem detection.
type ReviewedDay struct {
	ID         string
	UserID     UserID
	Date       Date
	Reason     string
	ReviewedAt time.Time
}

// Holiday is one public holiday from an external calendar.
type Holiday struct {
	Date Date   `json:"date"`
	Name string `json:"name"`
}
