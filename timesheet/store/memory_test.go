package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/worktime-engine/timesheet"
)

func entry(user timesheet.UserID, date timesheet.Date, start string, hours float64) timesheet.TimeEntry {
	return timesheet.TimeEntry{
		UserID:    user,
		Date:      date,
		StartTime: date.At(timesheet.MustParseTimeOfDay(start)),
		Duration:  timesheet.Hours(hours),
		Type:      timesheet.EntryWork,
	}
}

func TestMemory_FindEntriesOrdered(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	day := timesheet.NewDate(2025, time.March, 10)

	for _, e := range []timesheet.TimeEntry{
		entry("alice", day.AddDays(2), "09:00", 8),
		entry("alice", day, "13:00", 4),
		entry("alice", day, "08:00", 4),
	} {
		_, err := m.CreateEntry(ctx, e)
		require.NoError(t, err)
	}

	got, err := m.FindEntries(ctx, "alice", timesheet.NewRange(day, day.AddDays(6)))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 8, got[0].StartTime.Hour())
	assert.Equal(t, 13, got[1].StartTime.Hour())
	assert.True(t, got[2].Date.Equal(day.AddDays(2)))
}

func TestMemory_CreateManyEntries_SkipsCollisions(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	day := timesheet.NewDate(2025, time.March, 10)

	_, err := m.CreateEntry(ctx, entry("alice", day, "09:00", 8))
	require.NoError(t, err)

	n, err := m.CreateManyEntries(ctx, []timesheet.TimeEntry{
		entry("alice", day, "09:00", 8),
		entry("alice", day.AddDays(1), "09:00", 8),
		entry("alice", day.AddDays(1), "09:00", 8),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemory_WithTx_RollsBack(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	day := timesheet.NewDate(2025, time.March, 10)
	boom := errors.New("boom")

	err := m.WithTx(ctx, func(tx timesheet.Store) error {
		_, err := tx.CreateManyEntries(ctx, []timesheet.TimeEntry{entry("alice", day, "09:00", 8)})
		require.NoError(t, err)
		require.NoError(t, tx.MarkReviewed(ctx, "alice", day, ""))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := m.FindEntries(ctx, "alice", timesheet.NewRange(day, day))
	require.NoError(t, err)
	assert.Empty(t, got)
	reviewed, err := m.ListReviewed(ctx, "alice", timesheet.NewRange(day, day))
	require.NoError(t, err)
	assert.Empty(t, reviewed)
}

func TestMemory_WithTx_Commits(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	day := timesheet.NewDate(2025, time.March, 10)

	err := m.WithTx(ctx, func(tx timesheet.Store) error {
		_, err := tx.CreateManyEntries(ctx, []timesheet.TimeEntry{entry("alice", day, "09:00", 8)})
		return err
	})
	require.NoError(t, err)

	got, err := m.FindEntries(ctx, "alice", timesheet.NewRange(day, day))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemory_UpdateMovesEntry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	day := timesheet.NewDate(2025, time.March, 10)

	created, err := m.CreateEntry(ctx, entry("alice", day, "09:00", 8))
	require.NoError(t, err)

	created.Date = day.AddDays(3)
	_, err = m.UpdateEntry(ctx, created)
	require.NoError(t, err)

	got, err := m.FindEntries(ctx, "alice", timesheet.NewRange(day, day))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = m.FindEntries(ctx, "alice", timesheet.NewRange(day, day.AddDays(3)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created.ID, got[0].ID)

	_, err = m.UpdateEntry(ctx, timesheet.TimeEntry{ID: "missing"})
	assert.ErrorIs(t, err, timesheet.ErrEntryNotFound)
}

func TestMemory_FindAdjustmentEntry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	adj, err := m.FindAdjustmentEntry(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, adj)

	_, err = m.CreateEntry(ctx, timesheet.TimeEntry{
		UserID: "alice", Date: timesheet.NewDate(2025, time.February, 1),
		Type: timesheet.EntryOvertime, Description: timesheet.AdjustmentMarker, Duration: timesheet.Hours(2),
	})
	require.NoError(t, err)
	_, err = m.CreateEntry(ctx, timesheet.TimeEntry{
		UserID: "alice", Date: timesheet.NewDate(2025, time.January, 1),
		Type: timesheet.EntryOvertime, Description: timesheet.AdjustmentMarker, Duration: timesheet.Hours(5),
	})
	require.NoError(t, err)

	adj, err = m.FindAdjustmentEntry(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, adj)
	assert.Equal(t, "2025-01-01", adj.Date.String())
}

func TestMemory_SettingsAreCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	s := timesheet.DefaultSettings("alice")
	require.NoError(t, m.SaveSettings(ctx, s))

	got, err := m.GetSettings(ctx, "alice")
	require.NoError(t, err)
	got.WorkDays[0] = time.Sunday

	again, err := m.GetSettings(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, again.WorkDays[0])
}
