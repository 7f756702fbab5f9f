/*
handlers_test.go - HTTP tests for the API handlers

Each test drives the full router against an in-memory SQLite store and a
fixed clock (Wednesday 2025-06-18), so cache invalidation, error mapping
and JSON shapes are exercised end to end.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/worktime-engine/holiday"
	"github.com/warp/worktime-engine/logger"
	"github.com/warp/worktime-engine/overtime"
	"github.com/warp/worktime-engine/store/sqlite"
	"github.com/warp/worktime-engine/timesheet"
)

var fixedNow = time.Date(2025, time.June, 18, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func setupTestHandler(t *testing.T, holidays holiday.Fetcher) *Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	store.SetClock(clock)

	svc := overtime.NewService(overtime.Config{Store: store, Now: clock})
	h := NewHandler(svc, store, holidays, nil)
	h.Now = clock
	return h
}

func serve(t *testing.T, h *Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	NewRouter(h, nil).ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireStatus(t *testing.T, want int, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	h := setupTestHandler(t, nil)

	rec := serve(t, h, http.MethodGet, "/api/health", nil)

	requireStatus(t, http.StatusOK, rec)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

// =============================================================================
// ENTRIES
// =============================================================================

func TestEntries_CreateListUpdateDelete(t *testing.T) {
	// GIVEN: An empty store
	h := setupTestHandler(t, nil)

	// WHEN: Creating an entry with times but no duration
	rec := serve(t, h, http.MethodPost, "/api/users/alice/entries", CreateEntryRequest{
		Date: "2025-06-16", StartTime: "09:00", EndTime: "17:30", Type: "WORK",
	})

	// THEN: The duration is derived from the times
	requireStatus(t, http.StatusCreated, rec)
	created := decode[EntryDTO](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 8.5, created.Duration)
	assert.Equal(t, "09:00", created.StartTime)
	assert.Equal(t, "2025-06-16", created.Date)

	// AND: A second entry with the same start is a conflict
	rec = serve(t, h, http.MethodPost, "/api/users/alice/entries", CreateEntryRequest{
		Date: "2025-06-16", StartTime: "09:00", EndTime: "10:00", Type: "WORK",
	})
	requireStatus(t, http.StatusConflict, rec)

	rec = serve(t, h, http.MethodGet, "/api/users/alice/entries?start_date=2025-06-01&end_date=2025-06-30", nil)
	requireStatus(t, http.StatusOK, rec)
	assert.Len(t, decode[[]EntryDTO](t, rec), 1)

	// WHEN: Replacing the entry
	dur := 8.0
	rec = serve(t, h, http.MethodPut, "/api/users/alice/entries/"+created.ID, UpdateEntryRequest{
		Date: "2025-06-16", StartTime: "08:00", Duration: &dur, Type: "WORK", Description: "moved",
	})
	requireStatus(t, http.StatusOK, rec)
	updated := decode[EntryDTO](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 8.0, updated.Duration)
	assert.Equal(t, "moved", updated.Description)

	// AND: Another user cannot touch it
	rec = serve(t, h, http.MethodDelete, "/api/users/bob/entries/"+created.ID, nil)
	requireStatus(t, http.StatusNotFound, rec)

	rec = serve(t, h, http.MethodDelete, "/api/users/alice/entries/"+created.ID, nil)
	requireStatus(t, http.StatusNoContent, rec)

	rec = serve(t, h, http.MethodDelete, "/api/users/alice/entries/"+created.ID, nil)
	requireStatus(t, http.StatusNotFound, rec)
}

func TestEntries_InvalidInput(t *testing.T) {
	h := setupTestHandler(t, nil)
	dur := 8.0
	neg := -1.0

	tests := []struct {
		name string
		body any
	}{
		{"malformed json", `{"date":`},
		{"bad date", CreateEntryRequest{Date: "16.06.2025", Duration: &dur}},
		{"bad time", CreateEntryRequest{Date: "2025-06-16", StartTime: "9am", Duration: &dur}},
		{"unknown type", CreateEntryRequest{Date: "2025-06-16", Duration: &dur, Type: "NAP"}},
		{"negative duration", CreateEntryRequest{Date: "2025-06-16", Duration: &neg}},
		{"no duration", CreateEntryRequest{Date: "2025-06-16"}},
		{"end before start", CreateEntryRequest{Date: "2025-06-16", StartTime: "17:00", EndTime: "09:00", Duration: &dur}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h, http.MethodPost, "/api/users/alice/entries", tt.body)
			requireStatus(t, http.StatusBadRequest, rec)
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}

	rec := serve(t, h, http.MethodGet, "/api/users/alice/entries?type=WORK,NAP", nil)
	requireStatus(t, http.StatusBadRequest, rec)

	rec = serve(t, h, http.MethodGet, "/api/users/alice/entries?start_date=2025-06-30&end_date=2025-06-01", nil)
	requireStatus(t, http.StatusBadRequest, rec)
}

func TestEntries_TypeFilterAndDefaultMonth(t *testing.T) {
	h := setupTestHandler(t, nil)
	dur := 8.0
	for _, req := range []CreateEntryRequest{
		{Date: "2025-06-02", Duration: &dur, Type: "WORK"},
		{Date: "2025-06-03", Duration: &dur, Type: "VACATION"},
		{Date: "2025-05-30", Duration: &dur, Type: "WORK"},
	} {
		requireStatus(t, http.StatusCreated, serve(t, h, http.MethodPost, "/api/users/alice/entries", req))
	}

	// Without dates the current month (June) is listed.
	rec := serve(t, h, http.MethodGet, "/api/users/alice/entries", nil)
	requireStatus(t, http.StatusOK, rec)
	assert.Len(t, decode[[]EntryDTO](t, rec), 2)

	rec = serve(t, h, http.MethodGet, "/api/users/alice/entries?type=vacation", nil)
	requireStatus(t, http.StatusOK, rec)
	entries := decode[[]EntryDTO](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "VACATION", entries[0].Type)
}

func TestEntries_BulkDelete(t *testing.T) {
	h := setupTestHandler(t, nil)
	dur := 8.0

	var ids []string
	for _, day := range []string{"2025-06-02", "2025-06-03"} {
		rec := serve(t, h, http.MethodPost, "/api/users/alice/entries", CreateEntryRequest{Date: day, Duration: &dur})
		requireStatus(t, http.StatusCreated, rec)
		ids = append(ids, decode[EntryDTO](t, rec).ID)
	}

	rec := serve(t, h, http.MethodPost, "/api/users/bob/entries/bulk-delete", BulkDeleteRequest{IDs: ids})
	requireStatus(t, http.StatusOK, rec)
	assert.Equal(t, 0, decode[map[string]int](t, rec)["deleted"])

	rec = serve(t, h, http.MethodPost, "/api/users/alice/entries/bulk-delete", BulkDeleteRequest{IDs: append(ids, "missing")})
	requireStatus(t, http.StatusOK, rec)
	got := decode[map[string]int](t, rec)
	assert.Equal(t, 2, got["deleted"])
	assert.Equal(t, 3, got["requested"])

	rec = serve(t, h, http.MethodPost, "/api/users/alice/entries/bulk-delete", BulkDeleteRequest{})
	requireStatus(t, http.StatusBadRequest, rec)
}

// =============================================================================
// OVERTIME
// =============================================================================

func TestOvertime_BalanceFollowsWrites(t *testing.T) {
	// GIVEN: A 10h Monday
	h := setupTestHandler(t, nil)
	ten := 10.0
	requireStatus(t, http.StatusCreated, serve(t, h, http.MethodPost, "/api/users/alice/entries",
		CreateEntryRequest{Date: "2025-06-16", StartTime: "08:00", Duration: &ten}))

	path := "/api/users/alice/overtime?start_date=2025-06-16&end_date=2025-06-16&include_details=true"

	// WHEN: Asking for that day's balance
	rec := serve(t, h, http.MethodGet, path, nil)

	// THEN: Two hours over the 8h target
	requireStatus(t, http.StatusOK, rec)
	balance := decode[BalanceDTO](t, rec)
	assert.Equal(t, "alice", balance.UserID)
	assert.Equal(t, 2.0, balance.Balance)
	require.NotNil(t, balance.Details)
	assert.Equal(t, 10.0, balance.Details.ActualHours)
	assert.Equal(t, 8.0, balance.Details.TargetHours)
	require.NotNil(t, balance.Period)
	assert.Equal(t, "2025-06-16", balance.Period.Start)

	// AND: A later write shows up immediately
	one := 1.0
	requireStatus(t, http.StatusCreated, serve(t, h, http.MethodPost, "/api/users/alice/entries",
		CreateEntryRequest{Date: "2025-06-16", StartTime: "19:00", Duration: &one, Type: "OVERTIME"}))

	rec = serve(t, h, http.MethodGet, path, nil)
	requireStatus(t, http.StatusOK, rec)
	assert.Equal(t, 3.0, decode[BalanceDTO](t, rec).Balance)

	// AND: Details are omitted unless asked for
	rec = serve(t, h, http.MethodGet, "/api/users/alice/overtime?start_date=2025-06-16&end_date=2025-06-16", nil)
	requireStatus(t, http.StatusOK, rec)
	assert.Nil(t, decode[BalanceDTO](t, rec).Details)
}

func TestOvertime_BadParams(t *testing.T) {
	h := setupTestHandler(t, nil)

	requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodGet, "/api/users/alice/overtime?start_date=yesterday", nil))
	requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodGet, "/api/users/alice/overtime?include_details=maybe", nil))
}

func TestOvertime_RecalculateAndInvalidate(t *testing.T) {
	h := setupTestHandler(t, nil)
	six := 6.0
	requireStatus(t, http.StatusCreated, serve(t, h, http.MethodPost, "/api/users/alice/entries",
		CreateEntryRequest{Date: "2025-06-16", Duration: &six}))

	rec := serve(t, h, http.MethodPost, "/api/users/alice/overtime/recalculate",
		RecalculateRequest{StartDate: "2025-06-16", EndDate: "2025-06-17"})
	requireStatus(t, http.StatusOK, rec)
	balance := decode[BalanceDTO](t, rec)
	assert.Equal(t, -10.0, balance.Balance)
	require.NotNil(t, balance.Details)
	assert.Equal(t, 16.0, balance.Details.TargetHours)

	// An empty body recalculates January 1st through today.
	rec = serve(t, h, http.MethodPost, "/api/users/alice/overtime/recalculate", nil)
	requireStatus(t, http.StatusOK, rec)
	assert.Equal(t, "2025-01-01", decode[BalanceDTO](t, rec).Period.Start)

	rec = serve(t, h, http.MethodPost, "/api/users/alice/overtime/recalculate",
		RecalculateRequest{StartDate: "2025-06-17", EndDate: "2025-06-16"})
	requireStatus(t, http.StatusBadRequest, rec)

	requireStatus(t, http.StatusOK, serve(t, h, http.MethodPost, "/api/users/alice/overtime/invalidate", nil))
	requireStatus(t, http.StatusOK, serve(t, h, http.MethodPost, "/api/cache/invalidate", nil))
}

// =============================================================================
// STATISTICS
// =============================================================================

func TestStatistics_WeeklyAndMonthly(t *testing.T) {
	// GIVEN: The standard week (2025-06-09 to 06-15, ISO week 24)
	h := setupTestHandler(t, nil)
	require.NoError(t, h.LoadScenarioByID(context.Background(), "standard-week"))

	// WHEN: Asking for that week
	rec := serve(t, h, http.MethodGet, "/api/users/demo/statistics/weekly?year=2025&week=24", nil)

	// THEN: 5 x 8h plus 1.5h overtime against 40h
	requireStatus(t, http.StatusOK, rec)
	week := decode[WeeklyStatisticsDTO](t, rec)
	assert.Equal(t, "2025-06-09", week.Period.Start)
	assert.Equal(t, 41.5, week.TotalHours)
	assert.Equal(t, 40.0, week.TargetHours)
	assert.Equal(t, 1.5, week.OvertimeHours)
	assert.Len(t, week.DailyBreakdown, 7)
	assert.Equal(t, 1.5, week.EntryTypes.Overtime)

	rec = serve(t, h, http.MethodGet, "/api/users/demo/statistics/monthly?year=2025&month=6", nil)
	requireStatus(t, http.StatusOK, rec)
	month := decode[MonthlyStatisticsDTO](t, rec)
	assert.Equal(t, 6, month.Month)
	assert.Equal(t, 41.5, month.TotalHours)
	assert.NotEmpty(t, month.WeeklyBreakdown)

	// Defaults to the current ISO week.
	rec = serve(t, h, http.MethodGet, "/api/users/demo/statistics/weekly", nil)
	requireStatus(t, http.StatusOK, rec)
	assert.Equal(t, 25, decode[WeeklyStatisticsDTO](t, rec).Week)
}

func TestStatistics_InvalidParams(t *testing.T) {
	h := setupTestHandler(t, nil)

	requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodGet, "/api/users/alice/statistics/weekly?year=2025&week=60", nil))
	requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodGet, "/api/users/alice/statistics/weekly?week=x", nil))
	requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodGet, "/api/users/alice/statistics/monthly?year=2025&month=13", nil))
	requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodGet, "/api/users/alice/statistics/quarterly?quarter=5", nil))
	requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodGet, "/api/users/alice/statistics/yearly?year=soon", nil))
	requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodGet, "/api/users/alice/entries/week/2025/60", nil))
	requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodPost, "/api/users/alice/statistics/weekly/bulk", BulkWeeksRequest{Year: 2025}))
}

func TestWeekView(t *testing.T) {
	// GIVEN: The standard week (ISO week 24)
	h := setupTestHandler(t, nil)
	require.NoError(t, h.LoadScenarioByID(context.Background(), "standard-week"))

	// WHEN: Opening the week view
	rec := serve(t, h, http.MethodGet, "/api/users/demo/entries/week/2025/24", nil)

	// THEN: Wednesday lists its work and overtime entries
	requireStatus(t, http.StatusOK, rec)
	view := decode[WeekViewDTO](t, rec)
	assert.Equal(t, "2025-06-09", view.Period.Start)
	require.Len(t, view.Days, 7)
	assert.Equal(t, "Wednesday", view.Days[2].Weekday)
	assert.Len(t, view.Days[2].Entries, 2)
	assert.Equal(t, 9.5, view.Days[2].TotalHours)
	assert.Equal(t, 1.5, view.Days[2].Difference)
	assert.NotNil(t, view.Days[6].Entries)
	assert.True(t, view.Days[6].IsWeekend)

	// AND: The summary carries the week and the year-to-date balance
	assert.Equal(t, 41.5, view.Summary.TotalHours)
	assert.Equal(t, 1.5, view.Summary.WeekBalance)
	assert.Less(t, view.Summary.CumulativeBalance, 0.0, "earlier weeks are empty")

	// Without a path the current week is shown.
	rec = serve(t, h, http.MethodGet, "/api/users/demo/entries/week", nil)
	requireStatus(t, http.StatusOK, rec)
	assert.Equal(t, 25, decode[WeekViewDTO](t, rec).Week)
}

func TestStatistics_BulkYearlyQuarterly(t *testing.T) {
	h := setupTestHandler(t, nil)
	require.NoError(t, h.LoadScenarioByID(context.Background(), "standard-week"))

	rec := serve(t, h, http.MethodPost, "/api/users/demo/statistics/weekly/bulk", BulkWeeksRequest{Year: 2025, Weeks: []int{24, 23}})
	requireStatus(t, http.StatusOK, rec)
	weeks := decode[[]WeeklyStatisticsDTO](t, rec)
	require.Len(t, weeks, 2)
	assert.Equal(t, 24, weeks[0].Week)
	assert.Equal(t, 41.5, weeks[0].TotalHours)
	assert.Equal(t, 23, weeks[1].Week)
	assert.Equal(t, 0.0, weeks[1].TotalHours)

	rec = serve(t, h, http.MethodGet, "/api/users/demo/statistics/yearly?year=2025", nil)
	requireStatus(t, http.StatusOK, rec)
	year := decode[YearlyOverviewDTO](t, rec)
	assert.Len(t, year.Months, 12)
	assert.Equal(t, 41.5, year.Totals.TotalHours)
	assert.Equal(t, 40.0, year.Totals.BillableHours)
	assert.Equal(t, 1.5, year.Totals.NonBillableHours)

	// 2025-06-18 falls in the second quarter.
	rec = serve(t, h, http.MethodGet, "/api/users/demo/statistics/quarterly", nil)
	requireStatus(t, http.StatusOK, rec)
	quarter := decode[QuarterStatisticsDTO](t, rec)
	assert.Equal(t, 2, quarter.Quarter)
	require.Len(t, quarter.Months, 3)
	assert.Equal(t, 4, quarter.Months[0].Month)
	assert.Equal(t, 41.5, quarter.Totals.TotalHours)
}

// =============================================================================
// BULK FILL
// =============================================================================

func TestBulkFill_PreviewThenFill(t *testing.T) {
	h := setupTestHandler(t, nil)
	body := BulkFillRequestDTO{StartDate: "2025-06-02", EndDate: "2025-06-08"}

	// WHEN: Previewing a Monday to Sunday week with settings defaults
	rec := serve(t, h, http.MethodPost, "/api/users/alice/entries/bulk-fill/preview", body)

	// THEN: Five days would be created and nothing is written
	requireStatus(t, http.StatusOK, rec)
	preview := decode[overtime.BulkFillResult](t, rec)
	assert.Equal(t, 5, preview.Created)
	assert.Equal(t, 2, preview.SkipReasons.Weekend)

	rec = serve(t, h, http.MethodGet, "/api/users/alice/entries?start_date=2025-06-02&end_date=2025-06-08", nil)
	assert.Empty(t, decode[[]EntryDTO](t, rec))

	// WHEN: Filling for real
	rec = serve(t, h, http.MethodPost, "/api/users/alice/entries/bulk-fill", body)
	requireStatus(t, http.StatusOK, rec)
	assert.Equal(t, 5, decode[overtime.BulkFillResult](t, rec).Created)

	rec = serve(t, h, http.MethodGet, "/api/users/alice/entries?start_date=2025-06-02&end_date=2025-06-08", nil)
	entries := decode[[]EntryDTO](t, rec)
	require.Len(t, entries, 5)
	assert.Equal(t, "09:00", entries[0].StartTime)
	assert.Equal(t, "17:00", entries[0].EndTime)
	assert.Equal(t, 8.0, entries[0].Duration)

	// AND: A second run finds every day filled
	rec = serve(t, h, http.MethodPost, "/api/users/alice/entries/bulk-fill", body)
	requireStatus(t, http.StatusOK, rec)
	again := decode[overtime.BulkFillResult](t, rec)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 5, again.SkipReasons.Existing)
}

func TestBulkFill_Rejects(t *testing.T) {
	h := setupTestHandler(t, nil)
	tooMany := 25.0

	tests := map[string]BulkFillRequestDTO{
		"reversed range": {StartDate: "2025-06-08", EndDate: "2025-06-02"},
		"range too long": {StartDate: "2024-01-01", EndDate: "2025-06-02"},
		"bad date":       {StartDate: "2025/06/02", EndDate: "2025-06-08"},
		"times reversed": {StartDate: "2025-06-02", EndDate: "2025-06-08", StartTime: "17:00", EndTime: "09:00"},
		"too many hours": {StartDate: "2025-06-02", EndDate: "2025-06-08", DailyHours: &tooMany},
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := serve(t, h, http.MethodPost, "/api/users/alice/entries/bulk-fill", body)
			requireStatus(t, http.StatusBadRequest, rec)
		})
	}
}

// =============================================================================
// ADJUSTMENT AND SETTINGS
// =============================================================================

func TestAdjustment_Upsert(t *testing.T) {
	h := setupTestHandler(t, nil)

	requireStatus(t, http.StatusNotFound, serve(t, h, http.MethodGet, "/api/users/alice/adjustment", nil))

	rec := serve(t, h, http.MethodPut, "/api/users/alice/adjustment",
		AdjustmentRequest{Date: "2024-12-31", Hours: 12.5, Description: "from the old tracker"})
	requireStatus(t, http.StatusOK, rec)
	first := decode[EntryDTO](t, rec)
	assert.True(t, first.IsAdjustment)
	assert.Equal(t, "OVERTIME", first.Type)
	assert.Contains(t, first.Description, timesheet.AdjustmentMarker)

	rec = serve(t, h, http.MethodPut, "/api/users/alice/adjustment", AdjustmentRequest{Date: "2025-01-31", Hours: -3})
	requireStatus(t, http.StatusOK, rec)
	second := decode[EntryDTO](t, rec)
	assert.Equal(t, first.ID, second.ID)

	rec = serve(t, h, http.MethodGet, "/api/users/alice/adjustment", nil)
	requireStatus(t, http.StatusOK, rec)
	got := decode[EntryDTO](t, rec)
	assert.Equal(t, -3.0, got.Duration)
	assert.Equal(t, "2025-01-31", got.Date)

	requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodPut, "/api/users/alice/adjustment", AdjustmentRequest{Hours: 1}))
}

func TestSettings_GetUpdateReset(t *testing.T) {
	h := setupTestHandler(t, nil)

	rec := serve(t, h, http.MethodGet, "/api/users/alice/settings", nil)
	requireStatus(t, http.StatusOK, rec)
	defaults := decode[SettingsDTO](t, rec)
	assert.Equal(t, 40.0, defaults.WeeklyHours)
	assert.Equal(t, 8.0, defaults.DailyHours)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, defaults.WorkDays)
	assert.Equal(t, "09:00", defaults.DefaultStartTime)

	weekly := 30.0
	rec = serve(t, h, http.MethodPut, "/api/users/alice/settings", SettingsRequest{WeeklyHours: &weekly, WorkDays: []int{1, 2, 3, 4}})
	requireStatus(t, http.StatusOK, rec)
	updated := decode[SettingsDTO](t, rec)
	assert.Equal(t, 7.5, updated.DailyHours)
	assert.Equal(t, "Europe/Berlin", updated.Timezone, "omitted fields keep their value")

	huge := 500.0
	tests := map[string]SettingsRequest{
		"weekly hours": {WeeklyHours: &huge},
		"work day":     {WorkDays: []int{1, 9}},
		"timezone":     {Timezone: "Mars/Olympus"},
		"time":         {DefaultStartTime: "nine"},
		"theme":        {Theme: "neon"},
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodPut, "/api/users/alice/settings", body))
		})
	}

	rec = serve(t, h, http.MethodDelete, "/api/users/alice/settings", nil)
	requireStatus(t, http.StatusOK, rec)
	assert.Equal(t, 40.0, decode[SettingsDTO](t, rec).WeeklyHours)
}

// =============================================================================
// PROBLEMS
// =============================================================================

func TestProblems_AndReviews(t *testing.T) {
	// GIVEN: Mon 8h, Tue nothing, Wed 5h, Thu 0h, Fri reviewed
	h := setupTestHandler(t, nil)
	require.NoError(t, h.LoadScenarioByID(context.Background(), "problem-days"))
	base := "/api/users/demo/problems?start_date=2025-06-09&end_date=2025-06-13"

	// WHEN: Listing unreviewed problems
	rec := serve(t, h, http.MethodGet, base+"&review_status=unreviewed&sort_by=date_asc", nil)

	// THEN: Tuesday, Wednesday and Thursday are flagged
	requireStatus(t, http.StatusOK, rec)
	resp := decode[ProblemsResponse](t, rec)
	require.Len(t, resp.Problems, 3)
	assert.Equal(t, "2025-06-10", resp.Problems[0].Date)
	assert.Equal(t, "missing", resp.Problems[0].Type)
	assert.Equal(t, "incomplete", resp.Problems[1].Type)
	assert.Equal(t, 5.0, resp.Problems[1].CurrentHours)
	assert.Len(t, resp.Problems[1].Entries, 1)
	assert.Equal(t, "zero_hours", resp.Problems[2].Type)
	assert.Equal(t, 3, resp.Stats.TotalProblems)

	// AND: The reviewed Friday is listed
	rec = serve(t, h, http.MethodGet, "/api/users/demo/problems/review?start_date=2025-06-01&end_date=2025-06-30", nil)
	requireStatus(t, http.StatusOK, rec)
	reviewed := decode[[]ReviewedDayDTO](t, rec)
	require.Len(t, reviewed, 1)
	assert.Equal(t, "2025-06-13", reviewed[0].Date)
	assert.Equal(t, "Conference travel", reviewed[0].Reason)

	// WHEN: Unreviewing Friday
	requireStatus(t, http.StatusNoContent, serve(t, h, http.MethodDelete, "/api/users/demo/problems/review/2025-06-13", nil))

	rec = serve(t, h, http.MethodGet, base+"&review_status=unreviewed&sort_by=date_desc", nil)
	resp = decode[ProblemsResponse](t, rec)
	require.Len(t, resp.Problems, 4)
	assert.Equal(t, "2025-06-13", resp.Problems[0].Date)

	// WHEN: Reviewing Tuesday and Wednesday in bulk, Tuesday twice
	rec = serve(t, h, http.MethodPut, "/api/users/demo/problems/review",
		BulkReviewRequest{Dates: []string{"2025-06-10", "2025-06-11", "2025-06-10"}, Reason: "accepted"})
	requireStatus(t, http.StatusOK, rec)
	assert.Equal(t, 2, decode[map[string]int](t, rec)["marked"])

	rec = serve(t, h, http.MethodPost, "/api/users/demo/problems/review", ReviewRequest{Date: "2025-06-12"})
	requireStatus(t, http.StatusCreated, rec)

	rec = serve(t, h, http.MethodGet, base+"&review_status=unreviewed", nil)
	assert.Len(t, decode[ProblemsResponse](t, rec).Problems, 1)
}

func TestProblems_DefaultsToUnreviewedNewestFirst(t *testing.T) {
	// GIVEN: The problem-days scenario with Friday 2025-06-13 reviewed
	h := setupTestHandler(t, nil)
	require.NoError(t, h.LoadScenarioByID(context.Background(), "problem-days"))

	// WHEN: Listing problems without any query parameter
	rec := serve(t, h, http.MethodGet, "/api/users/demo/problems", nil)

	// THEN: The reviewed day is hidden
	requireStatus(t, http.StatusOK, rec)
	resp := decode[ProblemsResponse](t, rec)
	require.NotEmpty(t, resp.Problems)
	dates := make([]string, len(resp.Problems))
	for i, p := range resp.Problems {
		dates[i] = p.Date
		assert.False(t, p.IsReviewed, p.Date)
	}
	assert.NotContains(t, dates, "2025-06-13")
	assert.Contains(t, dates, "2025-06-10")

	// AND: Newest days come first
	for i := 1; i < len(dates); i++ {
		assert.Greater(t, dates[i-1], dates[i], "position %d", i)
	}
}

func TestProblems_Rejects(t *testing.T) {
	h := setupTestHandler(t, nil)

	tests := map[string]string{
		"one bound":   "/api/users/alice/problems?start_date=2025-06-01",
		"bad type":    "/api/users/alice/problems?problem_type=late",
		"bad status":  "/api/users/alice/problems?review_status=maybe",
		"bad sort":    "/api/users/alice/problems?sort_by=random",
		"empty range": "/api/users/alice/problems?start_date=2025-06-10&end_date=2025-06-01",
		"bad date":    "/api/users/alice/problems?start_date=june",
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodGet, path, nil))
		})
	}

	requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodPut, "/api/users/alice/problems/review", BulkReviewRequest{}))
	requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodDelete, "/api/users/alice/problems/review/friday", nil))
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type fakeFetcher struct {
	holidays []timesheet.Holiday
	err      error
	calls    int
}

func (f *fakeFetcher) Year(_ context.Context, year int) ([]timesheet.Holiday, error) {
	f.calls++
	return f.holidays, f.err
}

func (f *fakeFetcher) State() string { return "ni" }

func TestHolidays_ImportAndSummary(t *testing.T) {
	// GIVEN: A holiday source with two weekday holidays
	fetcher := &fakeFetcher{holidays: []timesheet.Holiday{
		{Date: timesheet.NewDate(2025, time.May, 1), Name: "Tag der Arbeit"},
		{Date: timesheet.NewDate(2025, time.October, 3), Name: "Tag der Deutschen Einheit"},
	}}
	h := setupTestHandler(t, fetcher)

	rec := serve(t, h, http.MethodGet, "/api/users/alice/holidays?year=2025", nil)
	requireStatus(t, http.StatusOK, rec)
	assert.False(t, decode[HolidaySummaryDTO](t, rec).Exists)

	// WHEN: Importing 2025
	rec = serve(t, h, http.MethodPost, "/api/users/alice/holidays", HolidayImportRequest{Year: 2025})

	// THEN: Both become HOLIDAY entries
	requireStatus(t, http.StatusOK, rec)
	imported := decode[HolidayImportResponse](t, rec)
	assert.Equal(t, 2, imported.Imported)
	assert.Equal(t, "ni", imported.State)

	rec = serve(t, h, http.MethodGet, "/api/users/alice/holidays?year=2025", nil)
	summary := decode[HolidaySummaryDTO](t, rec)
	assert.True(t, summary.Exists)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, "HOLIDAY", summary.Holidays[0].Type)
	assert.Equal(t, "Tag der Arbeit", summary.Holidays[0].Description)

	// AND: A repeated import skips both
	rec = serve(t, h, http.MethodPost, "/api/users/alice/holidays", nil)
	requireStatus(t, http.StatusOK, rec)
	again := decode[HolidayImportResponse](t, rec)
	assert.Equal(t, 0, again.Imported)
	assert.Equal(t, 2, again.Skipped)
}

func TestHolidays_ImportErrors(t *testing.T) {
	requireStatus(t, http.StatusServiceUnavailable,
		serve(t, setupTestHandler(t, nil), http.MethodPost, "/api/users/alice/holidays", HolidayImportRequest{Year: 2025}))

	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	h := setupTestHandler(t, fetcher)

	requireStatus(t, http.StatusBadRequest, serve(t, h, http.MethodPost, "/api/users/alice/holidays", HolidayImportRequest{Year: 2019}))
	assert.Zero(t, fetcher.calls)

	rec := serve(t, h, http.MethodPost, "/api/users/alice/holidays", HolidayImportRequest{Year: 2025})
	requireStatus(t, http.StatusBadGateway, rec)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "connection refused")
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestRequestLogger_LevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	h := setupTestHandler(t, nil)
	h.Logger = logger.NewWithWriter(&buf, log.WarnLevel)

	requireStatus(t, http.StatusOK, serve(t, h, http.MethodGet, "/api/health", nil))
	assert.NotContains(t, buf.String(), "request completed", "info lines are below warn")

	requireStatus(t, http.StatusNotFound, serve(t, h, http.MethodGet, "/api/users/alice/adjustment", nil))
	out := buf.String()
	assert.Contains(t, out, "client error")
	assert.Contains(t, out, "status=404")
	assert.Contains(t, out, "path=/api/users/alice/adjustment")
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	h := setupTestHandler(t, nil)
	router := NewRouter(h, []string{"http://example.test"})

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "http://example.test")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://example.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(rec.Header().Get("Access-Control-Allow-Credentials"), "true"))
}
