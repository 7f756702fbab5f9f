package overtime

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/worktime-engine/timesheet"
)

// DefaultBulkFillDescription is used when a request has no description.
const DefaultBulkFillDescription = "Bulk-fill work time"

// MaxBulkFillDays bounds a request (one leap year, inclusive).
const MaxBulkFillDays = 366

// BulkFillRequest describes the WORK entries to generate.
type BulkFillRequest struct {
	UserID       timesheet.UserID
	StartDate    timesheet.Date
	EndDate      timesheet.Date
	DailyHours   decimal.Decimal
	StartTime    timesheet.TimeOfDay
	EndTime      timesheet.TimeOfDay
	Description  string
	SkipExisting bool
}

// Validate fails instead of clamping.
func (r BulkFillRequest) Validate() error {
	if r.UserID == "" {
		return timesheet.Invalid("user_id", "is required")
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return timesheet.Invalid("start_date", "start and end date are required")
	}
	if r.StartDate.After(r.EndDate) {
		return timesheet.Invalid("start_date", "start date %s is after end date %s", r.StartDate, r.EndDate)
	}
	if n := timesheet.NewRange(r.StartDate, r.EndDate).Len(); n > MaxBulkFillDays {
		return timesheet.Invalid("end_date", "range spans %d days, maximum is %d", n, MaxBulkFillDays)
	}
	if !r.StartTime.Before(r.EndTime) {
		return timesheet.Invalid("start_time", "start time %s must be before end time %s", r.StartTime, r.EndTime)
	}
	if r.DailyHours.IsNegative() || r.DailyHours.GreaterThan(decimal.NewFromInt(24)) {
		return timesheet.Invalid("daily_hours", "must be between 0 and 24")
	}
	return nil
}

// SkipReasons breaks Skipped down. Skipped == Weekend + Holiday + Existing.
type SkipReasons struct {
	Weekend  int `json:"weekend"`
	Holiday  int `json:"holiday"`
	Existing int `json:"existing"`
}

// BulkFillResult always satisfies Created + Skipped == days in range.
type BulkFillResult struct {
	Created     int         `json:"created"`
	Skipped     int         `json:"skipped"`
	SkipReasons SkipReasons `json:"skip_reasons"`
}

func (r *BulkFillResult) skip(reason *int, n int) {
	*reason += n
	r.Skipped += n
}

// Generator creates standard WORK entries across a range.
type Generator struct {
	Store timesheet.TxStore
}

// Preview classifies the range without writing.
func (g Generator) Preview(ctx context.Context, req BulkFillRequest) (BulkFillResult, error) {
	res, planned, err := g.plan(ctx, req)
	if err != nil {
		return BulkFillResult{}, err
	}
	res.Created = len(planned)
	return res, nil
}

// Fill inserts the planned entries in one transaction. Rows the store
// rejects as collisions are reported under SkipReasons.Existing.
func (g Generator) Fill(ctx context.Context, req BulkFillRequest) (BulkFillResult, error) {
	res, planned, err := g.plan(ctx, req)
	if err != nil {
		return BulkFillResult{}, err
	}
	if len(planned) == 0 {
		return res, nil
	}

	var inserted int
	err = g.Store.WithTx(ctx, func(tx timesheet.Store) error {
		n, err := tx.CreateManyEntries(ctx, planned)
		inserted = n
		return err
	})
	if err != nil {
		return BulkFillResult{}, fmt.Errorf("bulk-fill insert for %s: %w", req.UserID, err)
	}

	res.Created = inserted
	res.skip(&res.SkipReasons.Existing, len(planned)-inserted)
	return res, nil
}

// plan classifies each day: weekend, then holiday, then existing, else a
// new entry.
func (g Generator) plan(ctx context.Context, req BulkFillRequest) (BulkFillResult, []timesheet.TimeEntry, error) {
	if err := req.Validate(); err != nil {
		return BulkFillResult{}, nil, err
	}
	r := timesheet.NewRange(req.StartDate, req.EndDate)

	holidayEntries, err := g.Store.FindEntries(ctx, req.UserID, r, timesheet.EntryHoliday)
	if err != nil {
		return BulkFillResult{}, nil, fmt.Errorf("load holidays for %s: %w", req.UserID, err)
	}
	holidays := make(map[timesheet.Date]bool, len(holidayEntries))
	for _, e := range holidayEntries {
		holidays[e.Date] = true
	}

	existing := make(map[timesheet.Date]bool)
	if req.SkipExisting {
		entries, err := g.Store.FindEntries(ctx, req.UserID, r)
		if err != nil {
			return BulkFillResult{}, nil, fmt.Errorf("load entries for %s: %w", req.UserID, err)
		}
		for _, e := range entries {
			existing[e.Date] = true
		}
	}

	description := req.Description
	if description == "" {
		description = DefaultBulkFillDescription
	}

	var res BulkFillResult
	var planned []timesheet.TimeEntry
	for d := range r.Days() {
		switch {
		case d.IsWeekend():
			res.skip(&res.SkipReasons.Weekend, 1)
		case holidays[d]:
			res.skip(&res.SkipReasons.Holiday, 1)
		case existing[d]:
			res.skip(&res.SkipReasons.Existing, 1)
		default:
			planned = append(planned, timesheet.TimeEntry{
				UserID:      req.UserID,
				Date:        d,
				StartTime:   d.At(req.StartTime),
				EndTime:     d.At(req.EndTime),
				Duration:    req.DailyHours,
				Type:        timesheet.EntryWork,
				Description: description,
			})
		}
	}
	return res, planned, nil
}
