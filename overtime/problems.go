package overtime

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/worktime-engine/timesheet"
)

// =============================================================================
// PROBLEM TYPES
// =============================================================================

type ProblemType string

const (
	ProblemMissing    ProblemType = "missing"
	ProblemZeroHours  ProblemType = "zero_hours"
	ProblemIncomplete ProblemType = "incomplete"
)

type Suggestion string

const (
	SuggestReview   Suggestion = "review"
	SuggestAddEntry Suggestion = "add_entry"
	SuggestBulkFill Suggestion = "bulk_fill"
)

// Review status filters.
const (
	ReviewAll        = "all"
	ReviewReviewed   = "reviewed"
	ReviewUnreviewed = "unreviewed"
)

// Sort orders.
const (
	SortDateAsc  = "date_asc"
	SortDateDesc = "date_desc"
	SortType     = "type"
)

// DefaultProblemWindow is how far back detection looks without a range.
const DefaultProblemWindow = 30

// ProblemFilters narrow and order the result. Zero values mean:
// trailing 30 days, every problem type, reviewed days included, walk order.
type ProblemFilters struct {
	Range        *timesheet.Range
	ProblemType  string // missing | zero_hours | incomplete | all
	ReviewStatus string // reviewed | unreviewed | all
	SortBy       string // date_asc | date_desc | type
}

// Validate rejects unknown filter values.
func (f ProblemFilters) Validate() error {
	switch f.ProblemType {
	case "", "all", string(ProblemMissing), string(ProblemZeroHours), string(ProblemIncomplete):
	default:
		return timesheet.Invalid("problem_type", "unknown problem type %q", f.ProblemType)
	}
	switch f.ReviewStatus {
	case "", ReviewAll, ReviewReviewed, ReviewUnreviewed:
	default:
		return timesheet.Invalid("review_status", "unknown review status %q", f.ReviewStatus)
	}
	switch f.SortBy {
	case "", SortDateAsc, SortDateDesc, SortType:
	default:
		return timesheet.Invalid("sort_by", "unknown sort order %q", f.SortBy)
	}
	if f.Range != nil && f.Range.IsEmpty() {
		return timesheet.Invalid("range", "start %s is after end %s", f.Range.Start, f.Range.End)
	}
	return nil
}

// ProblemDay is one flagged day.
type ProblemDay struct {
	Date          timesheet.Date
	Type          ProblemType
	CurrentHours  decimal.Decimal // raw sum of durations
	ExpectedHours decimal.Decimal
	Entries       []timesheet.TimeEntry
	IsWeekend     bool
	IsHoliday     bool
	IsReviewed    bool
	Suggestion    Suggestion
}

// ProblemStats counts classifications over the walked days. The per-type
// counters ignore the problem-type filter; TotalProblems counts what was
// returned.
type ProblemStats struct {
	TotalProblems  int `json:"total_problems"`
	MissingDays    int `json:"missing_days"`
	ZeroHoursDays  int `json:"zero_hours_days"`
	IncompleteDays int `json:"incomplete_days"`
}

type ProblemReport struct {
	Problems []ProblemDay
	Stats    ProblemStats
}

// =============================================================================
// DETECTOR
// =============================================================================

// Detector walks a range day by day and flags days whose logged hours do
// not cover the schedule.
type Detector struct {
	Store    timesheet.Store
	Resolver Resolver
	Holidays timesheet.HolidayOracle
	Now      func() time.Time
}

func (d Detector) defaultRange() timesheet.Range {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	today := timesheet.DateOf(now())
	return timesheet.NewRange(today.AddDays(-DefaultProblemWindow), today)
}

// Find classifies every day in the filtered range.
//
// A day is skipped when it is reviewed and only unreviewed days were asked
// for, when it is not reviewed and only reviewed days were asked for, or
// when it is a rest day (weekend, holiday, or not a work day) without
// entries, unless ReviewStatus is "all".
func (d Detector) Find(ctx context.Context, userID timesheet.UserID, f ProblemFilters) (ProblemReport, error) {
	if err := f.Validate(); err != nil {
		return ProblemReport{}, err
	}
	r := d.defaultRange()
	if f.Range != nil {
		r = *f.Range
	}

	schedule, err := d.Resolver.Resolve(ctx, userID)
	if err != nil {
		return ProblemReport{}, err
	}
	entries, err := d.Store.FindEntries(ctx, userID, r)
	if err != nil {
		return ProblemReport{}, fmt.Errorf("load entries for %s: %w", userID, err)
	}
	reviewedDays, err := d.Store.ListReviewed(ctx, userID, r)
	if err != nil {
		return ProblemReport{}, fmt.Errorf("load reviewed days for %s: %w", userID, err)
	}
	holidays, err := HolidaySet(ctx, d.Holidays, userID, r)
	if err != nil {
		return ProblemReport{}, fmt.Errorf("load holidays for %s: %w", userID, err)
	}

	reviewed := make(map[timesheet.Date]bool, len(reviewedDays))
	for _, rd := range reviewedDays {
		reviewed[rd.Date] = true
	}
	byDay := groupByDate(entries)

	days := r.Days()
	if f.SortBy == SortDateDesc {
		days = r.Reverse()
	}

	report := ProblemReport{Problems: []ProblemDay{}}
	for day := range days {
		isReviewed := reviewed[day]
		if isReviewed && f.ReviewStatus == ReviewUnreviewed {
			continue
		}
		if !isReviewed && f.ReviewStatus == ReviewReviewed {
			continue
		}

		dayEntries := byDay[day]
		weekend := day.IsWeekend()
		holiday := holidays[day]
		// Weekdays outside the user's WorkDays rest like weekends
		rest := weekend || holiday || !schedule.IsWorkDay(day)
		if rest && len(dayEntries) == 0 && f.ReviewStatus != ReviewAll {
			continue
		}

		total := decimal.Zero
		for _, e := range dayEntries {
			total = total.Add(e.Duration)
		}

		var kind ProblemType
		switch {
		case len(dayEntries) == 0:
			kind = ProblemMissing
			report.Stats.MissingDays++
		case total.IsZero():
			kind = ProblemZeroHours
			report.Stats.ZeroHoursDays++
		case total.LessThan(schedule.DailyHours) && !rest:
			kind = ProblemIncomplete
			report.Stats.IncompleteDays++
		default:
			continue
		}

		if f.ProblemType != "" && f.ProblemType != "all" && f.ProblemType != string(kind) {
			continue
		}

		expected := schedule.DailyHours
		if rest {
			expected = decimal.Zero
		}
		report.Problems = append(report.Problems, ProblemDay{
			Date:          day,
			Type:          kind,
			CurrentHours:  total,
			ExpectedHours: expected,
			Entries:       dayEntries,
			IsWeekend:     weekend,
			IsHoliday:     holiday,
			IsReviewed:    isReviewed,
			Suggestion:    suggest(kind, len(dayEntries), rest),
		})
		report.Stats.TotalProblems++
	}

	sortProblems(report.Problems, f.SortBy)
	return report, nil
}

func suggest(kind ProblemType, entryCount int, rest bool) Suggestion {
	switch {
	case kind == ProblemMissing && rest:
		return SuggestReview
	case kind == ProblemMissing && entryCount == 0:
		return SuggestAddEntry
	case kind == ProblemIncomplete:
		return SuggestAddEntry
	default:
		return SuggestBulkFill
	}
}

func sortProblems(problems []ProblemDay, sortBy string) {
	switch sortBy {
	case SortDateAsc:
		slices.SortStableFunc(problems, func(a, b ProblemDay) int { return a.Date.Time.Compare(b.Date.Time) })
	case SortDateDesc:
		slices.SortStableFunc(problems, func(a, b ProblemDay) int { return b.Date.Time.Compare(a.Date.Time) })
	case SortType:
		slices.SortStableFunc(problems, func(a, b ProblemDay) int { return cmp.Compare(a.Type, b.Type) })
	}
}
