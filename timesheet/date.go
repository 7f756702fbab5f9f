package timesheet

import (
	"fmt"
	"iter"
	"time"
)

// =============================================================================
// DATE - Calendar day, time-zone naive
// =============================================================================

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar day. It is always normalized to midnight UTC so two
// dates compare equal exactly when year, month and day match.
type Date struct {
	Time time.Time
}

// NewDate returns the date for year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day in the local time zone.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.Time.AddDate(0, 0, n)) }

// Properties
func (d Date) Year() int                 { return d.Time.Year() }
func (d Date) Month() time.Month         { return d.Time.Month() }
func (d Date) Day() int                  { return d.Time.Day() }
func (d Date) Weekday() time.Weekday     { return d.Time.Weekday() }
func (d Date) IsZero() bool              { return d.Time.IsZero() }
func (d Date) ISOWeek() (year, week int) { return d.Time.ISOWeek() }

// IsWeekend reports Saturday or Sunday, independent of any work schedule.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// At combines the date with a time of day.
func (d Date) At(tod TimeOfDay) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), tod.Hour, tod.Minute, 0, 0, time.UTC)
}

func (d Date) String() string { return d.Time.Format(DateLayout) }

// MarshalText encodes the date as YYYY-MM-DD, so it works as a JSON value
// and as a map key.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the number of days from 'from' to 'to' (negative if to is earlier).
func DaysBetween(from, to Date) int {
	return int(to.Time.Sub(from.Time).Hours() / 24)
}

func StartOfYear(year int) Date { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date   { return NewDate(year, time.December, 31) }

func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }
func EndOfMonth(year int, month time.Month) Date {
	return NewDate(year, month+1, 1).AddDays(-1)
}

// =============================================================================
// RANGE - Inclusive span of days
// =============================================================================

// Range is the inclusive day span [Start, End]. A range whose start lies after
// its end is empty: it contains no days and iterates nothing.
type Range struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// NewRange builds a Range without validating order.
func NewRange(start, end Date) Range {
	return Range{Start: start, End: end}
}

// IsEmpty reports whether the range contains no days.
func (r Range) IsEmpty() bool { return r.Start.After(r.End) }

// Contains returns true if d lies within [Start, End].
func (r Range) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Len returns the number of days in the range.
func (r Range) Len() int {
	if r.IsEmpty() {
		return 0
	}
	return DaysBetween(r.Start, r.End) + 1
}

// Days yields every day from Start to End in ascending order.
func (r Range) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Reverse yields every day from End down to Start.
func (r Range) Reverse() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := r.End; d.AfterOrEqual(r.Start); d = d.AddDays(-1) {
			if !yield(d) {
				return
			}
		}
	}
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// =============================================================================
// TIME OF DAY
// =============================================================================

// TimeOfDay is a wall-clock time without a date, e.g. 09:00.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, &ValidationError{Field: "time", Message: fmt.Sprintf("%q must be in HH:MM format", s)}
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MustParseTimeOfDay is ParseTimeOfDay for constants.
func MustParseTimeOfDay(s string) TimeOfDay {
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return tod
}

func (t TimeOfDay) Minutes() int                { return t.Hour*60 + t.Minute }
func (t TimeOfDay) Before(other TimeOfDay) bool { return t.Minutes() < other.Minutes() }
func (t TimeOfDay) String() string              { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
