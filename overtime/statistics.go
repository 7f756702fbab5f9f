package overtime

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/worktime-engine/timesheet"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// DailyStatistics is one day of a weekly breakdown.
type DailyStatistics struct {
	Date          timesheet.Date      `json:"date"`
	ActualHours   decimal.Decimal     `json:"actual_hours"`
	TargetHours   decimal.Decimal     `json:"target_hours"`
	OvertimeHours decimal.Decimal     `json:"overtime_hours"`
	EntryType     timesheet.EntryType `json:"entry_type"`
}

// EntryTypeHours sums credited hours per entry type.
type EntryTypeHours struct {
	Work     decimal.Decimal `json:"work"`
	Overtime decimal.Decimal `json:"overtime"`
	Vacation decimal.Decimal `json:"vacation"`
	Sick     decimal.Decimal `json:"sick"`
	Holiday  decimal.Decimal `json:"holiday"`
}

type WeeklyStatistics struct {
	UserID         timesheet.UserID  `json:"user_id"`
	Year           int               `json:"year"`
	Week           int               `json:"week"`
	Range          timesheet.Range   `json:"range"`
	TotalHours     decimal.Decimal   `json:"total_hours"`
	TargetHours    decimal.Decimal   `json:"target_hours"`
	OvertimeHours  decimal.Decimal   `json:"overtime_hours"`
	DailyBreakdown []DailyStatistics `json:"daily_breakdown"`
	EntryTypes     EntryTypeHours    `json:"entry_types"`
}

type MonthlyStatistics struct {
	UserID           timesheet.UserID   `json:"user_id"`
	Year             int                `json:"year"`
	Month            int                `json:"month"`
	TotalHours       decimal.Decimal    `json:"total_hours"`
	TargetHours      decimal.Decimal    `json:"target_hours"`
	OvertimeHours    decimal.Decimal    `json:"overtime_hours"`
	WeeklyBreakdown  []WeeklyStatistics `json:"weekly_breakdown"`
	BillableHours    decimal.Decimal    `json:"billable_hours"`
	NonBillableHours decimal.Decimal    `json:"non_billable_hours"`
}

// =============================================================================
// ISO WEEKS
// =============================================================================

// ISOWeeksInYear returns 52 or 53.
func ISOWeeksInYear(year int) int {
	_, w := timesheet.NewDate(year, time.December, 28).ISOWeek()
	return w
}

// ISOWeekRange returns Monday..Sunday of ISO week (year, week). Week 1 is
// the week containing January 4th.
func ISOWeekRange(year, week int) (timesheet.Range, error) {
	if week < 1 || week > ISOWeeksInYear(year) {
		return timesheet.Range{}, timesheet.Invalid("week", "week %d out of range 1-%d for %d", week, ISOWeeksInYear(year), year)
	}
	jan4 := timesheet.NewDate(year, time.January, 4)
	offset := (int(jan4.Weekday()) + 6) % 7 // days since Monday
	monday := jan4.AddDays(-offset + (week-1)*7)
	return timesheet.NewRange(monday, monday.AddDays(6)), nil
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator computes weekly and monthly statistics.
type Aggregator struct {
	Store    timesheet.EntryStore
	Resolver Resolver
}

// Weekly builds the per-day breakdown of one ISO week.
//
// Per day: WORK and OVERTIME add their rounded duration. VACATION or SICK
// replace the day's actual with the schedule's expected hours. HOLIDAY sets
// the day's target to zero.
func (a Aggregator) Weekly(ctx context.Context, userID timesheet.UserID, year, week int) (WeeklyStatistics, error) {
	r, err := ISOWeekRange(year, week)
	if err != nil {
		return WeeklyStatistics{}, err
	}
	schedule, err := a.Resolver.Resolve(ctx, userID)
	if err != nil {
		return WeeklyStatistics{}, err
	}
	entries, err := a.Store.FindEntries(ctx, userID, r)
	if err != nil {
		return WeeklyStatistics{}, fmt.Errorf("load week %d/%d for %s: %w", year, week, userID, err)
	}
	return weeklyFrom(userID, year, week, r, schedule, entries), nil
}

func weeklyFrom(userID timesheet.UserID, year, week int, r timesheet.Range, s Schedule, entries []timesheet.TimeEntry) WeeklyStatistics {
	byDay := groupByDate(entries)

	stats := WeeklyStatistics{
		UserID:         userID,
		Year:           year,
		Week:           week,
		Range:          r,
		DailyBreakdown: make([]DailyStatistics, 0, 7),
	}
	total, target := decimal.Zero, decimal.Zero

	for d := range r.Days() {
		day := dailyFrom(d, s, byDay[d], &stats.EntryTypes)
		total = total.Add(day.actual)
		target = target.Add(day.target)
		stats.DailyBreakdown = append(stats.DailyBreakdown, DailyStatistics{
			Date:          d,
			ActualHours:   timesheet.RoundToQuarterHour(day.actual),
			TargetHours:   day.target,
			OvertimeHours: timesheet.RoundToQuarterHour(day.actual.Sub(day.target)),
			EntryType:     day.primary,
		})
	}

	stats.TotalHours = timesheet.RoundToQuarterHour(total)
	stats.TargetHours = timesheet.RoundToQuarterHour(target)
	stats.OvertimeHours = timesheet.RoundToQuarterHour(total.Sub(target))
	return stats
}

type dayTotals struct {
	actual  decimal.Decimal
	target  decimal.Decimal
	primary timesheet.EntryType
}

// typePrecedence orders the entry type reported for a mixed day.
var typePrecedence = map[timesheet.EntryType]int{
	timesheet.EntryWork:     0,
	timesheet.EntryOvertime: 1,
	timesheet.EntryVacation: 2,
	timesheet.EntrySick:     3,
	timesheet.EntryHoliday:  4,
}

func dailyFrom(d timesheet.Date, s Schedule, entries []timesheet.TimeEntry, types *EntryTypeHours) dayTotals {
	out := dayTotals{target: s.ExpectedHours(d), primary: timesheet.EntryWork}
	worked := decimal.Zero
	var absence, holiday bool

	for _, e := range entries {
		if e.IsAdjustment() {
			continue
		}
		if typePrecedence[e.Type] > typePrecedence[out.primary] {
			out.primary = e.Type
		}
		switch e.Type {
		case timesheet.EntryVacation, timesheet.EntrySick:
			if !absence {
				absence = true
				credit := s.ExpectedHours(d)
				if e.Type == timesheet.EntryVacation {
					types.Vacation = types.Vacation.Add(credit)
				} else {
					types.Sick = types.Sick.Add(credit)
				}
			}
		case timesheet.EntryHoliday:
			if !holiday {
				holiday = true
				types.Holiday = types.Holiday.Add(s.DailyHours)
			}
		case timesheet.EntryOvertime:
			h := timesheet.RoundToQuarterHour(e.Duration)
			worked = worked.Add(h)
			types.Overtime = types.Overtime.Add(h)
		default:
			h := timesheet.RoundToQuarterHour(e.Duration)
			worked = worked.Add(h)
			types.Work = types.Work.Add(h)
		}
	}

	out.actual = worked
	if absence {
		out.actual = s.ExpectedHours(d)
	}
	if holiday {
		out.target = decimal.Zero
	}
	return out
}

// Monthly composes Weekly over every ISO week overlapping the month. The
// weekly breakdown is returned whole; the monthly totals only count days
// inside the month.
func (a Aggregator) Monthly(ctx context.Context, userID timesheet.UserID, year, month int) (MonthlyStatistics, error) {
	if month < 1 || month > 12 {
		return MonthlyStatistics{}, timesheet.Invalid("month", "month %d out of range 1-12", month)
	}
	monthRange := timesheet.NewRange(
		timesheet.StartOfMonth(year, time.Month(month)),
		timesheet.EndOfMonth(year, time.Month(month)),
	)

	schedule, err := a.Resolver.Resolve(ctx, userID)
	if err != nil {
		return MonthlyStatistics{}, err
	}

	// One read covering every overlapping week
	first, err := isoWeekOf(monthRange.Start)
	if err != nil {
		return MonthlyStatistics{}, err
	}
	last, err := isoWeekOf(monthRange.End)
	if err != nil {
		return MonthlyStatistics{}, err
	}
	entries, err := a.Store.FindEntries(ctx, userID, timesheet.NewRange(first.Start, last.End))
	if err != nil {
		return MonthlyStatistics{}, fmt.Errorf("load month %d/%d for %s: %w", year, month, userID, err)
	}

	stats := MonthlyStatistics{UserID: userID, Year: year, Month: month}
	total, target := decimal.Zero, decimal.Zero

	for monday := first.Start; monday.BeforeOrEqual(monthRange.End); monday = monday.AddDays(7) {
		isoYear, isoWeek := monday.ISOWeek()
		r := timesheet.NewRange(monday, monday.AddDays(6))
		weekly := weeklyFrom(userID, isoYear, isoWeek, r, schedule, entriesIn(entries, r))
		stats.WeeklyBreakdown = append(stats.WeeklyBreakdown, weekly)

		for _, day := range weekly.DailyBreakdown {
			if monthRange.Contains(day.Date) {
				total = total.Add(day.ActualHours)
				target = target.Add(day.TargetHours)
			}
		}
	}

	billable, nonBillable := decimal.Zero, decimal.Zero
	for _, e := range entriesIn(entries, monthRange) {
		if e.IsAdjustment() {
			continue
		}
		h := timesheet.RoundToQuarterHour(e.Duration)
		if e.Type == timesheet.EntryWork {
			billable = billable.Add(h)
		} else {
			nonBillable = nonBillable.Add(h)
		}
	}

	stats.TotalHours = timesheet.RoundToQuarterHour(total)
	stats.TargetHours = timesheet.RoundToQuarterHour(target)
	stats.OvertimeHours = timesheet.RoundToQuarterHour(total.Sub(target))
	stats.BillableHours = timesheet.RoundToQuarterHour(billable)
	stats.NonBillableHours = timesheet.RoundToQuarterHour(nonBillable)
	return stats, nil
}

func isoWeekOf(d timesheet.Date) (timesheet.Range, error) {
	y, w := d.ISOWeek()
	return ISOWeekRange(y, w)
}

func groupByDate(entries []timesheet.TimeEntry) map[timesheet.Date][]timesheet.TimeEntry {
	byDay := make(map[timesheet.Date][]timesheet.TimeEntry)
	for _, e := range entries {
		byDay[e.Date] = append(byDay[e.Date], e)
	}
	return byDay
}

func entriesIn(entries []timesheet.TimeEntry, r timesheet.Range) []timesheet.TimeEntry {
	var out []timesheet.TimeEntry
	for _, e := range entries {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}
