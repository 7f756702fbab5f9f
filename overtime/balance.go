/*
balance.go - Overtime balance: actual hours minus target hours

PURPOSE:
  Computes a user's overtime balance over a date window, honoring the
  initial-balance adjustment entry and holiday target suppression.

WINDOW:
  With an adjustment entry dated A:
    start = max(requested start, A+1)   target accrues from the day AFTER A
    entries are read from A onwards     (entries dated A still count)
    initial balance = adjustment duration (signed, added once)
  Without one:
    start = requested start, or Jan 1 of the current year
  end = requested end, or today.
  start > end is an empty window: target and actual are both zero.

TARGET:
  DailyHours for every work day in the window, minus DailyHours once per
  distinct work-day date in the window carrying a HOLIDAY entry.

ACTUAL:
  WORK, OVERTIME, unknown  -> quarter-hour-rounded duration
  VACATION, SICK           -> DailyHours if dated on a work day, else 0
  HOLIDAY                  -> 0
  The adjustment entry itself is never summed.

RESULT:
  overtime = round(initial + actual - target)
  details  = round(actual + initial), round(target), overtime

SEE ALSO:
  - schedule.go: DailyHours derivation
  - statistics.go: per-day variant of the same weighting
*/
package overtime

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/worktime-engine/timesheet"
)

// BalanceParams selects the window. Nil dates use the defaults above.
type BalanceParams struct {
	UserID         timesheet.UserID `json:"-"`
	StartDate      *timesheet.Date  `json:"start_date"`
	EndDate        *timesheet.Date  `json:"end_date"`
	IncludeDetails bool             `json:"include_details"`
}

// BalanceDetails breaks the balance down. All values are rounded.
type BalanceDetails struct {
	ActualHours   decimal.Decimal `json:"actual_hours"`
	TargetHours   decimal.Decimal `json:"target_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
}

// OvertimeBalance is the computed result.
type OvertimeBalance struct {
	UserID      timesheet.UserID `json:"user_id"`
	Balance     decimal.Decimal  `json:"balance"`
	Details     *BalanceDetails  `json:"details,omitempty"`
	Period      *timesheet.Range `json:"period,omitempty"`
	LastUpdated time.Time        `json:"last_updated"`
}

// Calculator computes balances. Now defaults to time.Now.
type Calculator struct {
	Store    timesheet.EntryStore
	Resolver Resolver
	Now      func() time.Time
}

func (c Calculator) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Calculate runs the balance algorithm. Any store error aborts it.
func (c Calculator) Calculate(ctx context.Context, p BalanceParams) (OvertimeBalance, error) {
	schedule, err := c.Resolver.Resolve(ctx, p.UserID)
	if err != nil {
		return OvertimeBalance{}, err
	}

	adjustment, err := c.Store.FindAdjustmentEntry(ctx, p.UserID)
	if err != nil {
		return OvertimeBalance{}, fmt.Errorf("find adjustment for %s: %w", p.UserID, err)
	}

	now := c.now()
	window, fetchFrom, initial := c.window(p, adjustment, timesheet.DateOf(now))

	target, actual := decimal.Zero, decimal.Zero
	if !window.IsEmpty() {
		entries, err := c.Store.FindEntries(ctx, p.UserID, timesheet.NewRange(fetchFrom, window.End))
		if err != nil {
			return OvertimeBalance{}, fmt.Errorf("load entries for %s: %w", p.UserID, err)
		}
		target = targetHours(schedule, window, entries)
		actual = actualHours(schedule, entries)
	}

	overtime := timesheet.RoundToQuarterHour(initial.Add(actual).Sub(target))

	result := OvertimeBalance{
		UserID:      p.UserID,
		Balance:     overtime,
		LastUpdated: now,
	}
	if p.IncludeDetails {
		result.Details = &BalanceDetails{
			ActualHours:   timesheet.RoundToQuarterHour(actual.Add(initial)),
			TargetHours:   timesheet.RoundToQuarterHour(target),
			OvertimeHours: overtime,
		}
	}
	if p.StartDate != nil && p.EndDate != nil {
		period := timesheet.NewRange(*p.StartDate, *p.EndDate)
		result.Period = &period
	}
	return result, nil
}

// window returns the target window, the first date entries are read from,
// and the initial balance.
func (c Calculator) window(p BalanceParams, adjustment *timesheet.TimeEntry, today timesheet.Date) (timesheet.Range, timesheet.Date, decimal.Decimal) {
	end := today
	if p.EndDate != nil {
		end = *p.EndDate
	}

	if adjustment != nil {
		start := adjustment.Date.AddDays(1)
		if p.StartDate != nil && p.StartDate.After(start) {
			start = *p.StartDate
		}
		return timesheet.NewRange(start, end), adjustment.Date, adjustment.Duration
	}

	start := timesheet.StartOfYear(today.Year())
	if p.StartDate != nil {
		start = *p.StartDate
	}
	return timesheet.NewRange(start, end), start, decimal.Zero
}

// targetHours sums DailyHours over the window's work days, then removes one
// day per distinct holiday-entry date that is a work day inside the window.
func targetHours(s Schedule, window timesheet.Range, entries []timesheet.TimeEntry) decimal.Decimal {
	target := s.TotalExpectedHours(window)

	suppressed := make(map[timesheet.Date]bool)
	for _, e := range entries {
		if e.Type != timesheet.EntryHoliday || e.IsAdjustment() {
			continue
		}
		if !window.Contains(e.Date) || !s.IsWorkDay(e.Date) || suppressed[e.Date] {
			continue
		}
		suppressed[e.Date] = true
		target = target.Sub(s.DailyHours)
	}
	return target
}

func actualHours(s Schedule, entries []timesheet.TimeEntry) decimal.Decimal {
	actual := decimal.Zero
	for _, e := range entries {
		actual = actual.Add(creditedHours(s, e))
	}
	return actual
}

// creditedHours is the type weighting shared by balances and statistics.
func creditedHours(s Schedule, e timesheet.TimeEntry) decimal.Decimal {
	if e.IsAdjustment() {
		return decimal.Zero
	}
	switch e.Type {
	case timesheet.EntryVacation, timesheet.EntrySick:
		return s.ExpectedHours(e.Date)
	case timesheet.EntryHoliday:
		return decimal.Zero
	default:
		// WORK, OVERTIME and anything unrecognized
		return timesheet.RoundToQuarterHour(e.Duration)
	}
}
