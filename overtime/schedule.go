/*
Package overtime computes overtime balances, statistics, problem days and
bulk-fill batches from a user's time entries and work schedule.

PURPOSE:
  Everything in here is read-compute over timesheet.Store, except bulk-fill
  which writes one atomic batch. Service composes the pieces with the
  result cache and owns cache invalidation.

COMPONENTS:
  schedule.go:   Resolver, Schedule (weekly/daily hours, work days)
  classify.go:   Work-day and holiday classification
  balance.go:    Calculator (actual vs target, adjustment, rounding)
  statistics.go: Weekly and monthly breakdowns
  problems.go:   Detector (missing / zero_hours / incomplete days)
  bulkfill.go:   Generator (WORK entries across a range)
  service.go:    Service (caching + invalidation on mutation)

ROUNDING:
  Entry durations are rounded to the quarter hour as they are summed, and
  every reported total is rounded once more at the end. Problem detection is
  the exception: it compares raw sums.
*/
package overtime

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/worktime-engine/timesheet"
)

// =============================================================================
// SCHEDULE
// =============================================================================

// Schedule is a user's effective work schedule.
type Schedule struct {
	WeeklyHours decimal.Decimal `json:"weekly_hours"`
	DailyHours  decimal.Decimal `json:"daily_hours"`
	WorkDays    []time.Weekday  `json:"work_days"`
}

// DefaultSchedule is 40h over Monday to Friday.
func DefaultSchedule() Schedule {
	return NewSchedule(decimal.NewFromInt(40), timesheet.DefaultWorkDays)
}

// NewSchedule derives DailyHours = weekly / max(1, len(workDays)).
func NewSchedule(weekly decimal.Decimal, workDays []time.Weekday) Schedule {
	n := int64(max(1, len(workDays)))
	return Schedule{
		WeeklyHours: weekly,
		DailyHours:  weekly.Div(decimal.NewFromInt(n)),
		WorkDays:    slices.Clone(workDays),
	}
}

// ScheduleFromSettings maps stored settings to a schedule. Settings without
// any work day fall back to the default schedule.
func ScheduleFromSettings(s timesheet.UserSettings) Schedule {
	if len(s.WorkDays) == 0 {
		return DefaultSchedule()
	}
	return NewSchedule(s.WeeklyHours, s.WorkDays)
}

// ExpectedHours is DailyHours on a work day, zero otherwise.
func (s Schedule) ExpectedHours(d timesheet.Date) decimal.Decimal {
	if s.IsWorkDay(d) {
		return s.DailyHours
	}
	return decimal.Zero
}

// TotalExpectedHours sums ExpectedHours over r, ignoring holidays.
func (s Schedule) TotalExpectedHours(r timesheet.Range) decimal.Decimal {
	total := decimal.Zero
	for d := range r.Days() {
		total = total.Add(s.ExpectedHours(d))
	}
	return total
}

// ShouldNotifyOvertime reports whether actual hours logged on date exceed
// the schedule and the user opted into notifications.
func ShouldNotifyOvertime(settings timesheet.UserSettings, actual decimal.Decimal, date timesheet.Date) bool {
	if !settings.OvertimeNotification {
		return false
	}
	return actual.GreaterThan(ScheduleFromSettings(settings).ExpectedHours(date))
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver loads a user's schedule from the settings store.
type Resolver struct {
	Settings timesheet.SettingsStore
}

// Resolve returns the stored schedule, or DefaultSchedule when the user has
// no settings. Nothing is persisted. Lookup errors are returned as-is and
// never replaced by the default.
func (r Resolver) Resolve(ctx context.Context, userID timesheet.UserID) (Schedule, error) {
	settings, err := r.Settings.GetSettings(ctx, userID)
	if err != nil {
		return Schedule{}, fmt.Errorf("resolve schedule for %s: %w", userID, err)
	}
	if settings == nil {
		return DefaultSchedule(), nil
	}
	return ScheduleFromSettings(*settings), nil
}
