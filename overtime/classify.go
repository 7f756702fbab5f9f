package overtime

import (
	"context"
	"slices"

	"github.com/warp/worktime-engine/timesheet"
)

// IsWorkDay reports whether d's weekday is one of the schedule's work days.
func (s Schedule) IsWorkDay(d timesheet.Date) bool {
	return slices.Contains(s.WorkDays, d.Weekday())
}

// =============================================================================
// HOLIDAY ORACLES
// =============================================================================

// RangeOracle is an optional fast path for oracles that can list every
// holiday in a range with one lookup.
type RangeOracle interface {
	timesheet.HolidayOracle
	HolidaysIn(ctx context.Context, userID timesheet.UserID, r timesheet.Range) ([]timesheet.Date, error)
}

// HolidaySet collects the holidays in r, using RangeOracle when available.
func HolidaySet(ctx context.Context, oracle timesheet.HolidayOracle, userID timesheet.UserID, r timesheet.Range) (map[timesheet.Date]bool, error) {
	set := make(map[timesheet.Date]bool)
	if oracle == nil || r.IsEmpty() {
		return set, nil
	}

	if ro, ok := oracle.(RangeOracle); ok {
		dates, err := ro.HolidaysIn(ctx, userID, r)
		if err != nil {
			return nil, err
		}
		for _, d := range dates {
			if r.Contains(d) {
				set[d] = true
			}
		}
		return set, nil
	}

	for d := range r.Days() {
		ok, err := oracle.IsHoliday(ctx, userID, d)
		if err != nil {
			return nil, err
		}
		if ok {
			set[d] = true
		}
	}
	return set, nil
}

// EntryHolidays treats every date carrying a HOLIDAY entry as a holiday.
type EntryHolidays struct {
	Entries timesheet.EntryStore
}

func (h EntryHolidays) IsHoliday(ctx context.Context, userID timesheet.UserID, d timesheet.Date) (bool, error) {
	entries, err := h.Entries.FindEntries(ctx, userID, timesheet.NewRange(d, d), timesheet.EntryHoliday)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

func (h EntryHolidays) HolidaysIn(ctx context.Context, userID timesheet.UserID, r timesheet.Range) ([]timesheet.Date, error) {
	entries, err := h.Entries.FindEntries(ctx, userID, r, timesheet.EntryHoliday)
	if err != nil {
		return nil, err
	}
	dates := make([]timesheet.Date, 0, len(entries))
	for _, e := range entries {
		dates = append(dates, e.Date)
	}
	return dates, nil
}

// AnyHoliday is the union of several oracles.
type AnyHoliday []timesheet.HolidayOracle

func (a AnyHoliday) IsHoliday(ctx context.Context, userID timesheet.UserID, d timesheet.Date) (bool, error) {
	for _, o := range a {
		ok, err := o.IsHoliday(ctx, userID, d)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (a AnyHoliday) HolidaysIn(ctx context.Context, userID timesheet.UserID, r timesheet.Range) ([]timesheet.Date, error) {
	var all []timesheet.Date
	for _, o := range a {
		set, err := HolidaySet(ctx, o, userID, r)
		if err != nil {
			return nil, err
		}
		for d := range set {
			all = append(all, d)
		}
	}
	return all, nil
}
