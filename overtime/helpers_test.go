package overtime

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/warp/worktime-engine/timesheet"
	"github.com/warp/worktime-engine/timesheet/store"
)

const alice timesheet.UserID = "alice"

// fixedNow is a Wednesday.
var fixedNow = time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func date(s string) timesheet.Date {
	d, err := timesheet.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtr(s string) *timesheet.Date {
	d := date(s)
	return &d
}

func hours(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireHours(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, hours(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func addEntry(t *testing.T, s timesheet.Store, typ timesheet.EntryType, day string, h string) timesheet.TimeEntry {
	t.Helper()
	e, err := s.CreateEntry(context.Background(), timesheet.TimeEntry{
		UserID:   alice,
		Date:     date(day),
		Duration: hours(h),
		Type:     typ,
	})
	require.NoError(t, err)
	return e
}

func addAdjustment(t *testing.T, s timesheet.Store, day string, h string) {
	t.Helper()
	_, err := s.CreateEntry(context.Background(), timesheet.TimeEntry{
		UserID:      alice,
		Date:        date(day),
		Duration:    hours(h),
		Type:        timesheet.EntryOvertime,
		Description: timesheet.AdjustmentMarker,
	})
	require.NoError(t, err)
}

func newMemory() *store.Memory {
	m := store.NewMemory()
	m.Now = clock
	return m
}

func newCalculator(s timesheet.Store) Calculator {
	return Calculator{Store: s, Resolver: Resolver{Settings: s}, Now: clock}
}
