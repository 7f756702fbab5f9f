package overtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/worktime-engine/cache"
	"github.com/warp/worktime-engine/timesheet"
)

func TestWeekView_DaysEntriesAndCumulativeBalance(t *testing.T) {
	// GIVEN: 8h in week 2, then Monday 9h and a vacation Tuesday in week 11
	ctx := context.Background()
	m := newMemory()
	addEntry(t, m, timesheet.EntryWork, "2025-01-06", "8")
	addEntry(t, m, timesheet.EntryWork, "2025-03-10", "9")
	addEntry(t, m, timesheet.EntryVacation, "2025-03-11", "8")
	svc := newService(m, cache.NewMemory())

	// WHEN: Viewing week 11
	view, err := svc.WeekView(ctx, alice, 2025, 11)
	require.NoError(t, err)

	// THEN: Seven days Monday to Sunday with their entries
	require.Len(t, view.Days, 7)
	assert.True(t, view.Range.Start.Equal(date("2025-03-10")))
	assert.Equal(t, time.Monday, view.Days[0].Weekday)
	require.Len(t, view.Days[0].Entries, 1)
	requireHours(t, "9", view.Days[0].TotalHours)
	requireHours(t, "1", view.Days[0].Difference)
	assert.Equal(t, timesheet.EntryVacation, view.Days[1].EntryType)
	requireHours(t, "8", view.Days[1].TotalHours)
	assert.Empty(t, view.Days[2].Entries)
	assert.True(t, view.Days[6].IsWeekend)
	requireHours(t, "0", view.Days[6].TargetHours)

	// AND: The week sums and the balance since January 1st
	requireHours(t, "17", view.Summary.TotalHours)
	requireHours(t, "40", view.Summary.TargetHours)
	requireHours(t, "-23", view.Summary.WeekBalance)
	// 53 work days through March 16th: 25 - 424
	requireHours(t, "-399", view.Summary.CumulativeBalance)
}

func TestWeekView_CumulativeIncludesAdjustment(t *testing.T) {
	ctx := context.Background()
	m := newMemory()
	addAdjustment(t, m, "2024-12-31", "10")
	addEntry(t, m, timesheet.EntryWork, "2025-01-02", "8")
	svc := newService(m, cache.NewMemory())

	view, err := svc.WeekView(ctx, alice, 2025, 1)
	require.NoError(t, err)

	// Week 1 of 2025 starts on Monday 2024-12-30. The cumulative window
	// runs January 1st to 5th: 10 + 8 - 24.
	assert.True(t, view.Range.Start.Equal(date("2024-12-30")))
	requireHours(t, "-6", view.Summary.CumulativeBalance)
	assert.Len(t, view.Days[1].Entries, 1, "the adjustment is listed on its day")
}

func TestWeekView_InvalidWeek(t *testing.T) {
	svc := newService(newMemory(), cache.NewMemory())
	_, err := svc.WeekView(context.Background(), alice, 2025, 54)
	assert.ErrorIs(t, err, timesheet.ErrValidation)
}

func TestWeeklyStatisticsBulk(t *testing.T) {
	ctx := context.Background()
	m := newMemory()
	addEntry(t, m, timesheet.EntryWork, "2025-03-10", "8")
	svc := newService(m, cache.NewMemory())

	// GIVEN: Weeks requested out of order
	stats, err := svc.WeeklyStatisticsBulk(ctx, alice, 2025, []int{11, 2})

	// THEN: Results follow the request order
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 11, stats[0].Week)
	requireHours(t, "8", stats[0].TotalHours)
	assert.Equal(t, 2, stats[1].Week)
	requireHours(t, "0", stats[1].TotalHours)

	tests := map[string][]int{
		"no weeks": nil,
		"week 0":   {1, 0},
		"week 53":  {53},
		"too many": make([]int, MaxBulkWeeks+1),
	}
	for name, weeks := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.WeeklyStatisticsBulk(ctx, alice, 2025, weeks)
			assert.ErrorIs(t, err, timesheet.ErrValidation)
		})
	}
}

func TestYearlyOverview_SumsMonths(t *testing.T) {
	ctx := context.Background()
	m := newMemory()
	addEntry(t, m, timesheet.EntryWork, "2025-01-06", "8")
	addEntry(t, m, timesheet.EntryOvertime, "2025-02-03", "2")
	addEntry(t, m, timesheet.EntryWork, "2025-11-03", "6")
	svc := newService(m, cache.NewMemory())

	overview, err := svc.YearlyOverview(ctx, alice, 2025)
	require.NoError(t, err)

	require.Len(t, overview.Months, 12)
	assert.Equal(t, 1, overview.Months[0].Month)
	assert.Equal(t, 12, overview.Months[11].Month)
	requireHours(t, "16", overview.Totals.TotalHours)
	requireHours(t, "14", overview.Totals.BillableHours)
	requireHours(t, "2", overview.Totals.NonBillableHours)

	// 2025 has 261 weekdays
	requireHours(t, "2088", overview.Totals.TargetHours)
	requireHours(t, "-2072", overview.Totals.OvertimeHours)
}

func TestQuarterStatistics(t *testing.T) {
	ctx := context.Background()
	m := newMemory()
	addEntry(t, m, timesheet.EntryWork, "2025-05-05", "8")
	addEntry(t, m, timesheet.EntryWork, "2025-07-07", "8")
	svc := newService(m, cache.NewMemory())

	q, err := svc.QuarterStatistics(ctx, alice, 2025, 2)
	require.NoError(t, err)
	require.Len(t, q.Months, 3)
	assert.Equal(t, []int{4, 5, 6}, []int{q.Months[0].Month, q.Months[1].Month, q.Months[2].Month})
	requireHours(t, "8", q.Totals.TotalHours)

	for _, quarter := range []int{0, 5} {
		_, err := svc.QuarterStatistics(ctx, alice, 2025, quarter)
		assert.ErrorIs(t, err, timesheet.ErrValidation, "quarter %d", quarter)
	}
}
