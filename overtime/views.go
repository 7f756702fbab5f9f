/*
views.go - Read models composed from weekly, monthly and balance results

PURPOSE:
  The week view, the yearly overview and quarter statistics add no new
  rules. They stitch Weekly, Monthly and Calculate results together so
  a client gets one screen worth of data per request.

SEE ALSO:
  - statistics.go: Weekly and Monthly
  - balance.go: cumulative balance of the week view
*/
package overtime

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/worktime-engine/timesheet"
)

// MaxBulkWeeks caps the weeks fetched in one bulk request.
const MaxBulkWeeks = 53

// =============================================================================
// WEEK VIEW
// =============================================================================

// WeekDay is one day of the week view with its entries.
type WeekDay struct {
	Date        timesheet.Date        `json:"date"`
	Weekday     time.Weekday          `json:"weekday"`
	Entries     []timesheet.TimeEntry `json:"entries"`
	TotalHours  decimal.Decimal       `json:"total_hours"`
	TargetHours decimal.Decimal       `json:"target_hours"`
	Difference  decimal.Decimal       `json:"difference"`
	EntryType   timesheet.EntryType   `json:"entry_type"`
	IsWeekend   bool                  `json:"is_weekend"`
}

// WeekSummary totals the week. CumulativeBalance is the balance from the
// start of the year through the last day of the week.
type WeekSummary struct {
	TotalHours        decimal.Decimal `json:"total_hours"`
	TargetHours       decimal.Decimal `json:"target_hours"`
	WeekBalance       decimal.Decimal `json:"week_balance"`
	CumulativeBalance decimal.Decimal `json:"cumulative_balance"`
}

type WeekView struct {
	UserID  timesheet.UserID `json:"user_id"`
	Year    int              `json:"year"`
	Week    int              `json:"week"`
	Range   timesheet.Range  `json:"range"`
	Days    []WeekDay        `json:"days"`
	Summary WeekSummary      `json:"summary"`
}

// WeekView returns ISO week (year, week) with per-day entries and the
// cumulative balance up to Sunday. The cumulative window starts on
// January 1st of year, clamped forward by an adjustment entry.
func (s *Service) WeekView(ctx context.Context, userID timesheet.UserID, year, week int) (WeekView, error) {
	stats, err := s.WeeklyStatistics(ctx, userID, year, week)
	if err != nil {
		return WeekView{}, err
	}
	entries, err := s.store.FindEntries(ctx, userID, stats.Range)
	if err != nil {
		return WeekView{}, fmt.Errorf("load week %d/%d for %s: %w", year, week, userID, err)
	}

	start := timesheet.StartOfYear(year)
	end := stats.Range.End
	balance, err := s.CalculateBalance(ctx, BalanceParams{UserID: userID, StartDate: &start, EndDate: &end})
	if err != nil {
		return WeekView{}, err
	}

	byDay := groupByDate(entries)
	view := WeekView{
		UserID: userID,
		Year:   year,
		Week:   week,
		Range:  stats.Range,
		Days:   make([]WeekDay, 0, len(stats.DailyBreakdown)),
		Summary: WeekSummary{
			TotalHours:        stats.TotalHours,
			TargetHours:       stats.TargetHours,
			WeekBalance:       stats.OvertimeHours,
			CumulativeBalance: balance.Balance,
		},
	}
	for _, day := range stats.DailyBreakdown {
		dayEntries := byDay[day.Date]
		if dayEntries == nil {
			dayEntries = []timesheet.TimeEntry{}
		}
		view.Days = append(view.Days, WeekDay{
			Date:        day.Date,
			Weekday:     day.Date.Weekday(),
			Entries:     dayEntries,
			TotalHours:  day.ActualHours,
			TargetHours: day.TargetHours,
			Difference:  day.OvertimeHours,
			EntryType:   day.EntryType,
			IsWeekend:   day.Date.IsWeekend(),
		})
	}
	return view, nil
}

// WeeklyStatisticsBulk returns the statistics of several weeks of one
// year, in request order. Any invalid week fails the whole request.
func (s *Service) WeeklyStatisticsBulk(ctx context.Context, userID timesheet.UserID, year int, weeks []int) ([]WeeklyStatistics, error) {
	if len(weeks) == 0 {
		return nil, timesheet.Invalid("weeks", "at least one week is required")
	}
	if len(weeks) > MaxBulkWeeks {
		return nil, timesheet.Invalid("weeks", "at most %d weeks per request, got %d", MaxBulkWeeks, len(weeks))
	}
	for _, w := range weeks {
		if w < 1 || w > ISOWeeksInYear(year) {
			return nil, timesheet.Invalid("weeks", "week %d out of range 1-%d for %d", w, ISOWeeksInYear(year), year)
		}
	}

	out := make([]WeeklyStatistics, 0, len(weeks))
	for _, w := range weeks {
		stats, err := s.WeeklyStatistics(ctx, userID, year, w)
		if err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, nil
}

// =============================================================================
// YEAR AND QUARTER
// =============================================================================

// PeriodTotals sums monthly statistics.
type PeriodTotals struct {
	TotalHours       decimal.Decimal `json:"total_hours"`
	TargetHours      decimal.Decimal `json:"target_hours"`
	OvertimeHours    decimal.Decimal `json:"overtime_hours"`
	BillableHours    decimal.Decimal `json:"billable_hours"`
	NonBillableHours decimal.Decimal `json:"non_billable_hours"`
}

func (t *PeriodTotals) add(m MonthlyStatistics) {
	t.TotalHours = t.TotalHours.Add(m.TotalHours)
	t.TargetHours = t.TargetHours.Add(m.TargetHours)
	t.OvertimeHours = t.OvertimeHours.Add(m.OvertimeHours)
	t.BillableHours = t.BillableHours.Add(m.BillableHours)
	t.NonBillableHours = t.NonBillableHours.Add(m.NonBillableHours)
}

type YearlyOverview struct {
	UserID timesheet.UserID    `json:"user_id"`
	Year   int                 `json:"year"`
	Months []MonthlyStatistics `json:"months"`
	Totals PeriodTotals        `json:"totals"`
}

type QuarterStatistics struct {
	UserID  timesheet.UserID    `json:"user_id"`
	Year    int                 `json:"year"`
	Quarter int                 `json:"quarter"`
	Months  []MonthlyStatistics `json:"months"`
	Totals  PeriodTotals        `json:"totals"`
}

func (s *Service) months(ctx context.Context, userID timesheet.UserID, year, first, last int) ([]MonthlyStatistics, PeriodTotals, error) {
	months := make([]MonthlyStatistics, 0, last-first+1)
	var totals PeriodTotals
	for m := first; m <= last; m++ {
		stats, err := s.MonthlyStatistics(ctx, userID, year, m)
		if err != nil {
			return nil, PeriodTotals{}, err
		}
		months = append(months, stats)
		totals.add(stats)
	}
	return months, totals, nil
}

// YearlyOverview returns all twelve months of year and their sums.
func (s *Service) YearlyOverview(ctx context.Context, userID timesheet.UserID, year int) (YearlyOverview, error) {
	months, totals, err := s.months(ctx, userID, year, 1, 12)
	if err != nil {
		return YearlyOverview{}, err
	}
	return YearlyOverview{UserID: userID, Year: year, Months: months, Totals: totals}, nil
}

// QuarterStatistics returns the three months of quarter (1-4).
func (s *Service) QuarterStatistics(ctx context.Context, userID timesheet.UserID, year, quarter int) (QuarterStatistics, error) {
	if quarter < 1 || quarter > 4 {
		return QuarterStatistics{}, timesheet.Invalid("quarter", "quarter %d out of range 1-4", quarter)
	}
	first := (quarter-1)*3 + 1
	months, totals, err := s.months(ctx, userID, year, first, first+2)
	if err != nil {
		return QuarterStatistics{}, err
	}
	return QuarterStatistics{UserID: userID, Year: year, Quarter: quarter, Months: months, Totals: totals}, nil
}
