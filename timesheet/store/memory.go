// Package store provides in-memory timesheet.Store implementations.
package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/worktime-engine/timesheet"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	entries  map[timesheet.UserID][]timesheet.TimeEntry
	settings map[timesheet.UserID]timesheet.UserSettings
	reviewed map[reviewKey]timesheet.ReviewedDay

	// Now stamps CreatedAt/UpdatedAt. Defaults to time.Now.
	Now func() time.Time
}

type reviewKey struct {
	UserID timesheet.UserID
	Date   string
}

func NewMemory() *Memory {
	return &Memory{
		entries:  make(map[timesheet.UserID][]timesheet.TimeEntry),
		settings: make(map[timesheet.UserID]timesheet.UserSettings),
		reviewed: make(map[reviewKey]timesheet.ReviewedDay),
		Now:      time.Now,
	}
}

var _ timesheet.TxStore = (*Memory)(nil)

// =============================================================================
// ENTRIES
// =============================================================================

func (m *Memory) FindEntries(_ context.Context, userID timesheet.UserID, r timesheet.Range, types ...timesheet.EntryType) ([]timesheet.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLocked(userID, r, types), nil
}

func (m *Memory) findLocked(userID timesheet.UserID, r timesheet.Range, types []timesheet.EntryType) []timesheet.TimeEntry {
	var result []timesheet.TimeEntry
	for _, e := range m.entries[userID] {
		if !r.Contains(e.Date) {
			continue
		}
		if len(types) > 0 && !slices.Contains(types, e.Type) {
			continue
		}
		result = append(result, e)
	}
	return result
}

func (m *Memory) GetEntry(_ context.Context, id timesheet.EntryID) (*timesheet.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(id)
}

func (m *Memory) getLocked(id timesheet.EntryID) (*timesheet.TimeEntry, error) {
	for _, entries := range m.entries {
		for _, e := range entries {
			if e.ID == id {
				return &e, nil
			}
		}
	}
	return nil, &timesheet.NotFoundError{Kind: "entry", ID: string(id)}
}

func (m *Memory) CreateEntry(_ context.Context, e timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(e), nil
}

// insertLocked keeps each user's slice ordered by date, then start time.
func (m *Memory) insertLocked(e timesheet.TimeEntry) timesheet.TimeEntry {
	if e.ID == "" {
		e.ID = timesheet.EntryID(uuid.NewString())
	}
	now := m.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	entries := m.entries[e.UserID]
	i, _ := slices.BinarySearchFunc(entries, e, compareEntries)
	m.entries[e.UserID] = slices.Insert(entries, i, e)
	return e
}

func compareEntries(a, b timesheet.TimeEntry) int {
	if c := a.Date.Time.Compare(b.Date.Time); c != 0 {
		return c
	}
	if c := a.StartTime.Compare(b.StartTime); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func (m *Memory) CreateManyEntries(_ context.Context, entries []timesheet.TimeEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createManyLocked(entries), nil
}

func (m *Memory) createManyLocked(entries []timesheet.TimeEntry) int {
	inserted := 0
	for _, e := range entries {
		if m.collidesLocked(e) {
			continue
		}
		m.insertLocked(e)
		inserted++
	}
	return inserted
}

func (m *Memory) collidesLocked(e timesheet.TimeEntry) bool {
	for _, existing := range m.entries[e.UserID] {
		if existing.Date.Equal(e.Date) && existing.StartTime.Equal(e.StartTime) {
			return true
		}
	}
	return false
}

func (m *Memory) UpdateEntry(_ context.Context, e timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, err := m.getLocked(e.ID)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}
	m.removeLocked(old.UserID, e.ID)
	e.CreatedAt = old.CreatedAt
	return m.insertLocked(e), nil
}

func (m *Memory) DeleteEntry(_ context.Context, id timesheet.EntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, err := m.getLocked(id)
	if err != nil {
		return err
	}
	m.removeLocked(old.UserID, id)
	return nil
}

func (m *Memory) DeleteEntries(_ context.Context, userID timesheet.UserID, ids []timesheet.EntryID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if m.removeLocked(userID, id) {
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) removeLocked(userID timesheet.UserID, id timesheet.EntryID) bool {
	entries := m.entries[userID]
	i := slices.IndexFunc(entries, func(e timesheet.TimeEntry) bool { return e.ID == id })
	if i < 0 {
		return false
	}
	m.entries[userID] = slices.Delete(entries, i, i+1)
	return true
}

func (m *Memory) FindAdjustmentEntry(_ context.Context, userID timesheet.UserID) (*timesheet.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Entries are date-ordered, so the first match is the earliest.
	for _, e := range m.entries[userID] {
		if e.IsAdjustment() {
			return &e, nil
		}
	}
	return nil, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func (m *Memory) GetSettings(_ context.Context, userID timesheet.UserID) (*timesheet.UserSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[userID]
	if !ok {
		return nil, nil
	}
	s.WorkDays = slices.Clone(s.WorkDays)
	return &s, nil
}

func (m *Memory) SaveSettings(_ context.Context, s timesheet.UserSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now().UTC()
	if old, ok := m.settings[s.UserID]; ok {
		s.CreatedAt = old.CreatedAt
	} else if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	s.WorkDays = slices.Clone(s.WorkDays)
	m.settings[s.UserID] = s
	return nil
}

// =============================================================================
// REVIEWED DAYS
// =============================================================================

func (m *Memory) ListReviewed(_ context.Context, userID timesheet.UserID, r timesheet.Range) ([]timesheet.ReviewedDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []timesheet.ReviewedDay
	for k, rd := range m.reviewed {
		if k.UserID == userID && r.Contains(rd.Date) {
			result = append(result, rd)
		}
	}
	// Newest first
	slices.SortFunc(result, func(a, b timesheet.ReviewedDay) int {
		return b.Date.Time.Compare(a.Date.Time)
	})
	return result, nil
}

func (m *Memory) MarkReviewed(ctx context.Context, userID timesheet.UserID, date timesheet.Date, reason string) error {
	_, err := m.MarkManyReviewed(ctx, userID, []timesheet.Date{date}, reason)
	return err
}

func (m *Memory) MarkManyReviewed(_ context.Context, userID timesheet.UserID, dates []timesheet.Date, reason string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	marked := 0
	for _, d := range dates {
		k := reviewKey{UserID: userID, Date: d.String()}
		if _, ok := m.reviewed[k]; ok {
			continue
		}
		m.reviewed[k] = timesheet.ReviewedDay{
			ID:         uuid.NewString(),
			UserID:     userID,
			Date:       d,
			Reason:     reason,
			ReviewedAt: m.Now().UTC(),
		}
		marked++
	}
	return marked, nil
}

func (m *Memory) UnreviewDay(_ context.Context, userID timesheet.UserID, date timesheet.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reviewed, reviewKey{UserID: userID, Date: date.String()})
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(timesheet.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	entries  map[timesheet.UserID][]timesheet.TimeEntry
	settings map[timesheet.UserID]timesheet.UserSettings
	reviewed map[reviewKey]timesheet.ReviewedDay
}

func (m *Memory) snapshot() memorySnapshot {
	entries := make(map[timesheet.UserID][]timesheet.TimeEntry, len(m.entries))
	for k, v := range m.entries {
		entries[k] = slices.Clone(v)
	}
	return memorySnapshot{
		entries:  entries,
		settings: maps.Clone(m.settings),
		reviewed: maps.Clone(m.reviewed),
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.entries = s.entries
	m.settings = s.settings
	m.reviewed = s.reviewed
}

// txView runs against the parent while the parent's write lock is held.
type txView struct {
	parent *Memory
}

func (tv *txView) FindEntries(_ context.Context, userID timesheet.UserID, r timesheet.Range, types ...timesheet.EntryType) ([]timesheet.TimeEntry, error) {
	return tv.parent.findLocked(userID, r, types), nil
}

func (tv *txView) GetEntry(_ context.Context, id timesheet.EntryID) (*timesheet.TimeEntry, error) {
	return tv.parent.getLocked(id)
}

func (tv *txView) CreateEntry(_ context.Context, e timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	return tv.parent.insertLocked(e), nil
}

func (tv *txView) CreateManyEntries(_ context.Context, entries []timesheet.TimeEntry) (int, error) {
	return tv.parent.createManyLocked(entries), nil
}

func (tv *txView) UpdateEntry(_ context.Context, e timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	old, err := tv.parent.getLocked(e.ID)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}
	tv.parent.removeLocked(old.UserID, e.ID)
	e.CreatedAt = old.CreatedAt
	return tv.parent.insertLocked(e), nil
}

func (tv *txView) DeleteEntry(_ context.Context, id timesheet.EntryID) error {
	old, err := tv.parent.getLocked(id)
	if err != nil {
		return err
	}
	tv.parent.removeLocked(old.UserID, id)
	return nil
}

func (tv *txView) DeleteEntries(_ context.Context, userID timesheet.UserID, ids []timesheet.EntryID) (int, error) {
	removed := 0
	for _, id := range ids {
		if tv.parent.removeLocked(userID, id) {
			removed++
		}
	}
	return removed, nil
}

func (tv *txView) FindAdjustmentEntry(_ context.Context, userID timesheet.UserID) (*timesheet.TimeEntry, error) {
	for _, e := range tv.parent.entries[userID] {
		if e.IsAdjustment() {
			return &e, nil
		}
	}
	return nil, nil
}

func (tv *txView) GetSettings(_ context.Context, userID timesheet.UserID) (*timesheet.UserSettings, error) {
	s, ok := tv.parent.settings[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (tv *txView) SaveSettings(_ context.Context, s timesheet.UserSettings) error {
	s.UpdatedAt = tv.parent.Now().UTC()
	tv.parent.settings[s.UserID] = s
	return nil
}

func (tv *txView) ListReviewed(_ context.Context, userID timesheet.UserID, r timesheet.Range) ([]timesheet.ReviewedDay, error) {
	var result []timesheet.ReviewedDay
	for k, rd := range tv.parent.reviewed {
		if k.UserID == userID && r.Contains(rd.Date) {
			result = append(result, rd)
		}
	}
	return result, nil
}

func (tv *txView) MarkReviewed(ctx context.Context, userID timesheet.UserID, date timesheet.Date, reason string) error {
	_, err := tv.MarkManyReviewed(ctx, userID, []timesheet.Date{date}, reason)
	return err
}

func (tv *txView) MarkManyReviewed(_ context.Context, userID timesheet.UserID, dates []timesheet.Date, reason string) (int, error) {
	marked := 0
	for _, d := range dates {
		k := reviewKey{UserID: userID, Date: d.String()}
		if _, ok := tv.parent.reviewed[k]; ok {
			continue
		}
		tv.parent.reviewed[k] = timesheet.ReviewedDay{ID: uuid.NewString(), UserID: userID, Date: d, Reason: reason, ReviewedAt: tv.parent.Now().UTC()}
		marked++
	}
	return marked, nil
}

func (tv *txView) UnreviewDay(_ context.Context, userID timesheet.UserID, date timesheet.Date) error {
	delete(tv.parent.reviewed, reviewKey{UserID: userID, Date: date.String()})
	return nil
}

// Reset drops all data. Used by demo scenarios.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restore(memorySnapshot{
		entries:  make(map[timesheet.UserID][]timesheet.TimeEntry),
		settings: make(map[timesheet.UserID]timesheet.UserSettings),
		reviewed: make(map[reviewKey]timesheet.ReviewedDay),
	})
	return nil
}
