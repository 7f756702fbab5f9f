package holiday

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/worktime-engine/timesheet"
)

const feiertage2025 = `{
  "status": "success",
  "feiertage": [
    {"date": "2025-05-01", "fname": "Tag der Arbeit", "all_states": "1", "ni": "1"},
    {"date": "2025-01-01", "fname": "Neujahrstag", "all_states": "1", "ni": "1"},
    {"date": "2025-01-06", "fname": "Heilige Drei Könige", "all_states": "0", "ni": "0", "by": "1"},
    {"date": "2025-10-31", "fname": "Reformationstag", "all_states": "0", "ni": "1"},
    {"date": "2025-04-20", "fname": "Ostersonntag", "all_states": "0", "ni": "1"},
    {"date": "2025-11-19", "fname": "Buß- und Bettag", "all_states": "0", "ni": "0", "comment": null}
  ]
}`

func newTestServer(t *testing.T, body string, status int, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		assert.Equal(t, "2025", r.URL.Query().Get("years"))
		assert.Equal(t, "ni", r.URL.Query().Get("states"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func date(s string) timesheet.Date {
	d, err := timesheet.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestClient_YearFiltersStateAndWeekends(t *testing.T) {
	srv := newTestServer(t, feiertage2025, http.StatusOK, nil)

	holidays, err := NewClient(srv.URL, "").Year(context.Background(), 2025)
	require.NoError(t, err)

	want := []timesheet.Holiday{
		{Date: date("2025-01-01"), Name: "Neujahrstag"},
		{Date: date("2025-05-01"), Name: "Tag der Arbeit"},
		{Date: date("2025-10-31"), Name: "Reformationstag"},
	}
	assert.Equal(t, want, holidays)
}

func TestClient_NonSuccessStatusIsEmpty(t *testing.T) {
	srv := newTestServer(t, `{"status":"error","feiertage":null}`, http.StatusOK, nil)

	holidays, err := NewClient(srv.URL, DefaultState).Year(context.Background(), 2025)
	require.NoError(t, err)
	assert.Empty(t, holidays)
}

func TestClient_HTTPError(t *testing.T) {
	srv := newTestServer(t, "upstream down", http.StatusBadGateway, nil)

	_, err := NewClient(srv.URL, DefaultState).Year(context.Background(), 2025)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_RejectsYearBeforeRequest(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, feiertage2025, http.StatusOK, &hits)

	_, err := NewClient(srv.URL, DefaultState).Year(context.Background(), 2019)
	assert.ErrorIs(t, err, timesheet.ErrValidation)
	assert.Zero(t, hits.Load())
}

func TestCalendar_LoadsYearOnce(t *testing.T) {
	ctx := context.Background()
	var hits atomic.Int32
	srv := newTestServer(t, feiertage2025, http.StatusOK, &hits)
	cal := NewCalendar(NewClient(srv.URL, DefaultState))

	ok, err := cal.IsHoliday(ctx, "alice", date("2025-10-31"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cal.IsHoliday(ctx, "bob", date("2025-10-30"))
	require.NoError(t, err)
	assert.False(t, ok)

	name, err := cal.Name(ctx, date("2025-05-01"))
	require.NoError(t, err)
	assert.Equal(t, "Tag der Arbeit", name)

	in, err := cal.HolidaysIn(ctx, "alice", timesheet.NewRange(date("2025-04-01"), date("2025-06-30")))
	require.NoError(t, err)
	assert.Equal(t, []timesheet.Date{date("2025-05-01")}, in)

	assert.Equal(t, int32(1), hits.Load())
}

func TestCalendar_RetriesAfterNonSuccessStatus(t *testing.T) {
	ctx := context.Background()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The first answer is an upstream failure, later ones succeed
		if hits.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"status":"error","feiertage":null}`))
			return
		}
		_, _ = w.Write([]byte(feiertage2025))
	}))
	t.Cleanup(srv.Close)
	cal := NewCalendar(NewClient(srv.URL, DefaultState))

	// WHEN: The first lookup hits the failed status
	ok, err := cal.IsHoliday(ctx, "alice", date("2025-05-01"))

	// THEN: Nothing is known yet
	require.NoError(t, err)
	assert.False(t, ok)

	// AND: The next lookup fetches again and sees the holiday
	ok, err = cal.IsHoliday(ctx, "alice", date("2025-05-01"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(2), hits.Load())

	// The successful year is kept.
	_, err = cal.Name(ctx, date("2025-01-01"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

type failingFetcher struct{ err error }

func (f failingFetcher) Year(context.Context, int) ([]timesheet.Holiday, error) { return nil, f.err }

func TestCalendar_FetchErrorPropagates(t *testing.T) {
	boom := errors.New("dns failure")
	_, err := NewCalendar(failingFetcher{err: boom}).IsHoliday(context.Background(), "alice", date("2025-01-01"))
	assert.ErrorIs(t, err, boom)
}

func TestStaticCalendar(t *testing.T) {
	ctx := context.Background()
	cal := StaticCalendar([]timesheet.Holiday{
		{Date: date("2024-12-25"), Name: "1. Weihnachtstag"},
		{Date: date("2025-01-01"), Name: "Neujahrstag"},
	})

	in, err := cal.HolidaysIn(ctx, "alice", timesheet.NewRange(date("2024-12-01"), date("2025-01-31")))
	require.NoError(t, err)
	assert.ElementsMatch(t, []timesheet.Date{date("2024-12-25"), date("2025-01-01")}, in)

	ok, err := cal.IsHoliday(ctx, "alice", date("2026-01-01"))
	require.NoError(t, err)
	assert.False(t, ok)
}
