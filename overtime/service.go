/*
service.go - The overtime service: one instance per process

PURPOSE:
  Composes resolver, calculator, aggregator, detector and generator over a
  single store, and puts balances and statistics behind the result cache.
  Every mutation goes through Service so the cache is invalidated for the
  affected user before the call returns.

CACHE CORRECTNESS:
  A computation started before a mutation must never be stored after that
  mutation's invalidation. Each user has a generation counter:
    read:   token := generation(user); compute; store only if unchanged
    write:  mutate; bump generation(user); cache.Invalidate(user)
  The bump and the conditional store share one mutex, so a stale value is
  either refused or written before the invalidation that removes it.

  Cache failures on the read path are logged and ignored (recompute).
  A failed invalidation is returned to the caller: the mutation itself is
  persisted, but a stale balance may be served until the TTL expires.

SEE ALSO:
  - cache/cache.go: Cache interface, keys
  - api/handlers.go: HTTP surface over this service
*/
package overtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/warp/worktime-engine/cache"
	"github.com/warp/worktime-engine/logger"
	"github.com/warp/worktime-engine/timesheet"
)

// Config wires a Service. Store is required; everything else defaults.
type Config struct {
	Store timesheet.TxStore
	Cache cache.Cache
	// Holidays adds an external holiday source on top of HOLIDAY entries.
	Holidays timesheet.HolidayOracle
	TTL      time.Duration
	Now      func() time.Time
	Logger   *log.Logger
}

// Service is the entry point for every overtime computation and mutation.
type Service struct {
	store  timesheet.TxStore
	cache  cache.Cache
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger

	resolver  Resolver
	calc      Calculator
	stats     Aggregator
	detector  Detector
	generator Generator

	genMu sync.Mutex
	epoch uint64
	gens  map[timesheet.UserID]uint64
}

func NewService(cfg Config) *Service {
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemory(cache.WithTTL(cfg.TTL))
	}
	if cfg.TTL <= 0 {
		cfg.TTL = cache.DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}

	holidays := AnyHoliday{EntryHolidays{Entries: cfg.Store}}
	if cfg.Holidays != nil {
		holidays = append(holidays, cfg.Holidays)
	}

	resolver := Resolver{Settings: cfg.Store}
	return &Service{
		store:     cfg.Store,
		cache:     cfg.Cache,
		ttl:       cfg.TTL,
		now:       cfg.Now,
		logger:    cfg.Logger,
		resolver:  resolver,
		calc:      Calculator{Store: cfg.Store, Resolver: resolver, Now: cfg.Now},
		stats:     Aggregator{Store: cfg.Store, Resolver: resolver},
		detector:  Detector{Store: cfg.Store, Resolver: resolver, Holidays: holidays, Now: cfg.Now},
		generator: Generator{Store: cfg.Store},
		gens:      make(map[timesheet.UserID]uint64),
	}
}

// =============================================================================
// CACHE PLUMBING
// =============================================================================

type generation struct {
	epoch uint64
	gen   uint64
}

func (s *Service) generation(userID timesheet.UserID) generation {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return generation{epoch: s.epoch, gen: s.gens[userID]}
}

// cached serves kind/params from the cache or computes and stores it.
func cached[T any](ctx context.Context, s *Service, userID timesheet.UserID, kind string, params any, compute func() (T, error)) (T, error) {
	key := cache.Key(string(userID), kind, params)

	raw, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.logger.Warn("cache read failed", "key", key, "err", err)
	case ok:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		s.logger.Warn("cache entry undecodable", "key", key)
	}

	token := s.generation(userID)
	v, err := compute()
	if err != nil {
		return v, err
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("cache encode failed", "kind", kind, "err", err)
		return v, nil
	}

	s.genMu.Lock()
	defer s.genMu.Unlock()
	if (generation{epoch: s.epoch, gen: s.gens[userID]}) != token {
		s.logger.Debug("discarding stale result", "user", userID, "kind", kind)
		return v, nil
	}
	if err := s.cache.Set(ctx, key, encoded, s.ttl); err != nil {
		s.logger.Warn("cache write failed", "key", key, "err", err)
	}
	return v, nil
}

// InvalidateCache drops cached results for userID, or for everyone when
// userID is empty. Safe to call redundantly.
func (s *Service) InvalidateCache(ctx context.Context, userID timesheet.UserID) error {
	s.genMu.Lock()
	if userID == "" {
		s.epoch++
	} else {
		s.gens[userID]++
	}
	s.genMu.Unlock()

	var err error
	if userID == "" {
		err = s.cache.InvalidateAll(ctx)
	} else {
		err = s.cache.Invalidate(ctx, string(userID))
	}
	if err != nil {
		s.logger.Error("cache invalidation failed", "user", userID, "err", err)
		return fmt.Errorf("invalidate cache: %w", err)
	}
	s.logger.Debug("cache invalidated", "user", userID)
	return nil
}

// =============================================================================
// COMPUTATIONS
// =============================================================================

// Schedule resolves the user's effective schedule.
func (s *Service) Schedule(ctx context.Context, userID timesheet.UserID) (Schedule, error) {
	return s.resolver.Resolve(ctx, userID)
}

// CalculateBalance is cached per distinct params. Note that omitted dates
// resolve against the clock at compute time, so a cached default-window
// balance may lag by up to one TTL across midnight.
func (s *Service) CalculateBalance(ctx context.Context, p BalanceParams) (OvertimeBalance, error) {
	return cached(ctx, s, p.UserID, "balance", p, func() (OvertimeBalance, error) {
		return s.calc.Calculate(ctx, p)
	})
}

func (s *Service) WeeklyStatistics(ctx context.Context, userID timesheet.UserID, year, week int) (WeeklyStatistics, error) {
	return cached(ctx, s, userID, "weekly", [2]int{year, week}, func() (WeeklyStatistics, error) {
		return s.stats.Weekly(ctx, userID, year, week)
	})
}

func (s *Service) MonthlyStatistics(ctx context.Context, userID timesheet.UserID, year, month int) (MonthlyStatistics, error) {
	return cached(ctx, s, userID, "monthly", [2]int{year, month}, func() (MonthlyStatistics, error) {
		return s.stats.Monthly(ctx, userID, year, month)
	})
}

// FindProblematicDays is never cached: review actions must show at once.
func (s *Service) FindProblematicDays(ctx context.Context, userID timesheet.UserID, f ProblemFilters) (ProblemReport, error) {
	return s.detector.Find(ctx, userID, f)
}

func (s *Service) PreviewBulkFill(ctx context.Context, req BulkFillRequest) (BulkFillResult, error) {
	return s.generator.Preview(ctx, req)
}

func (s *Service) FillWorkdays(ctx context.Context, req BulkFillRequest) (BulkFillResult, error) {
	res, err := s.generator.Fill(ctx, req)
	if err != nil {
		return res, err
	}
	s.logger.Info("bulk-fill complete",
		"user", req.UserID,
		"range", timesheet.NewRange(req.StartDate, req.EndDate),
		"created", res.Created,
		"skipped", res.Skipped)
	if res.Created == 0 {
		return res, nil
	}
	return res, s.InvalidateCache(ctx, req.UserID)
}

// RecalculateHistoricalData drops the user's cache and recomputes the
// balance for r with details.
func (s *Service) RecalculateHistoricalData(ctx context.Context, userID timesheet.UserID, r timesheet.Range) (OvertimeBalance, error) {
	if err := s.InvalidateCache(ctx, userID); err != nil {
		return OvertimeBalance{}, err
	}
	return s.CalculateBalance(ctx, BalanceParams{
		UserID:         userID,
		StartDate:      &r.Start,
		EndDate:        &r.End,
		IncludeDetails: true,
	})
}

// =============================================================================
// ENTRIES
// =============================================================================

func (s *Service) ListEntries(ctx context.Context, userID timesheet.UserID, r timesheet.Range, types ...timesheet.EntryType) ([]timesheet.TimeEntry, error) {
	if r.IsEmpty() {
		return nil, timesheet.Invalid("range", "start %s is after end %s", r.Start, r.End)
	}
	return s.store.FindEntries(ctx, userID, r, types...)
}

// GetEntry returns the entry only if userID owns it.
func (s *Service) GetEntry(ctx context.Context, userID timesheet.UserID, id timesheet.EntryID) (*timesheet.TimeEntry, error) {
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID != userID {
		return nil, &timesheet.NotFoundError{Kind: "entry", ID: string(id)}
	}
	return e, nil
}

// CreateEntry applies the soft duplicate rule: an entry with a start time
// may not share (date, start time) with another entry of the same user.
func (s *Service) CreateEntry(ctx context.Context, e timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	if err := e.Validate(); err != nil {
		return timesheet.TimeEntry{}, err
	}
	if !e.StartTime.IsZero() {
		sameDay, err := s.store.FindEntries(ctx, e.UserID, timesheet.NewRange(e.Date, e.Date))
		if err != nil {
			return timesheet.TimeEntry{}, err
		}
		for _, other := range sameDay {
			if other.StartTime.Equal(e.StartTime) {
				return timesheet.TimeEntry{}, fmt.Errorf("%s at %s: %w", e.Date, e.StartTime.Format("15:04"), timesheet.ErrDuplicateEntry)
			}
		}
	}

	created, err := s.store.CreateEntry(ctx, e)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}
	return created, s.InvalidateCache(ctx, e.UserID)
}

// ImportEntries inserts a batch atomically, skipping collisions.
func (s *Service) ImportEntries(ctx context.Context, userID timesheet.UserID, entries []timesheet.TimeEntry) (int, error) {
	for i := range entries {
		entries[i].UserID = userID
		if err := entries[i].Validate(); err != nil {
			return 0, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	var inserted int
	err := s.store.WithTx(ctx, func(tx timesheet.Store) error {
		n, err := tx.CreateManyEntries(ctx, entries)
		inserted = n
		return err
	})
	if err != nil {
		return 0, err
	}
	if inserted > 0 {
		return inserted, s.InvalidateCache(ctx, userID)
	}
	return 0, nil
}

func (s *Service) UpdateEntry(ctx context.Context, e timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	existing, err := s.GetEntry(ctx, e.UserID, e.ID)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}
	if err := e.Validate(); err != nil {
		return timesheet.TimeEntry{}, err
	}
	e.CreatedAt = existing.CreatedAt

	updated, err := s.store.UpdateEntry(ctx, e)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}
	return updated, s.InvalidateCache(ctx, e.UserID)
}

func (s *Service) DeleteEntry(ctx context.Context, userID timesheet.UserID, id timesheet.EntryID) error {
	if _, err := s.GetEntry(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return err
	}
	return s.InvalidateCache(ctx, userID)
}

func (s *Service) DeleteEntries(ctx context.Context, userID timesheet.UserID, ids []timesheet.EntryID) (int, error) {
	n, err := s.store.DeleteEntries(ctx, userID, ids)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return n, s.InvalidateCache(ctx, userID)
	}
	return 0, nil
}

// HolidayImport reports how many holidays became entries.
type HolidayImport struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportHolidays stores public holidays as HOLIDAY entries. Dates that
// already carry a HOLIDAY entry are skipped. Each entry starts at the
// user's default start time and lasts one schedule day.
func (s *Service) ImportHolidays(ctx context.Context, userID timesheet.UserID, holidays []timesheet.Holiday) (HolidayImport, error) {
	if len(holidays) == 0 {
		return HolidayImport{}, nil
	}

	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return HolidayImport{}, err
	}
	schedule := ScheduleFromSettings(settings)

	span := timesheet.NewRange(holidays[0].Date, holidays[0].Date)
	for _, h := range holidays[1:] {
		if h.Date.Before(span.Start) {
			span.Start = h.Date
		}
		if h.Date.After(span.End) {
			span.End = h.Date
		}
	}
	existing, err := HolidaySet(ctx, EntryHolidays{Entries: s.store}, userID, span)
	if err != nil {
		return HolidayImport{}, fmt.Errorf("load holidays for %s: %w", userID, err)
	}

	batch := fmt.Sprintf("holidays-%s", s.now().UTC().Format("20060102T150405"))
	minutes := schedule.DailyHours.Mul(decimal.NewFromInt(60)).IntPart()

	var result HolidayImport
	var entries []timesheet.TimeEntry
	for _, h := range holidays {
		if h.Date.IsZero() || existing[h.Date] {
			result.Skipped++
			continue
		}
		existing[h.Date] = true

		start := h.Date.At(settings.DefaultStartTime)
		entries = append(entries, timesheet.TimeEntry{
			Date:          h.Date,
			StartTime:     start,
			EndTime:       start.Add(time.Duration(minutes) * time.Minute),
			Duration:      schedule.DailyHours,
			Type:          timesheet.EntryHoliday,
			Description:   h.Name,
			ImportBatchID: batch,
		})
	}
	if len(entries) == 0 {
		return result, nil
	}

	n, err := s.ImportEntries(ctx, userID, entries)
	if err != nil {
		return HolidayImport{}, err
	}
	result.Imported = n
	result.Skipped += len(entries) - n
	s.logger.Info("holidays imported", "user", userID, "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

// =============================================================================
// ADJUSTMENT
// =============================================================================

func (s *Service) GetAdjustment(ctx context.Context, userID timesheet.UserID) (*timesheet.TimeEntry, error) {
	return s.store.FindAdjustmentEntry(ctx, userID)
}

// SetAdjustment creates or moves the user's initial-balance entry. The
// description always carries the adjustment marker.
func (s *Service) SetAdjustment(ctx context.Context, userID timesheet.UserID, date timesheet.Date, hours decimal.Decimal, description string) (timesheet.TimeEntry, error) {
	if date.IsZero() {
		return timesheet.TimeEntry{}, timesheet.Invalid("date", "is required")
	}
	switch {
	case description == "":
		description = timesheet.AdjustmentMarker
	case !strings.Contains(description, timesheet.AdjustmentMarker):
		description = timesheet.AdjustmentMarker + ": " + description
	}

	existing, err := s.store.FindAdjustmentEntry(ctx, userID)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}

	midnight := date.At(timesheet.TimeOfDay{})
	var saved timesheet.TimeEntry
	if existing != nil {
		e := *existing
		e.Date = date
		e.StartTime = midnight
		e.EndTime = midnight
		e.Duration = hours
		e.Description = description
		saved, err = s.store.UpdateEntry(ctx, e)
	} else {
		saved, err = s.store.CreateEntry(ctx, timesheet.TimeEntry{
			UserID:      userID,
			Date:        date,
			StartTime:   midnight,
			EndTime:     midnight,
			Duration:    hours,
			Type:        timesheet.EntryOvertime,
			Description: description,
		})
	}
	if err != nil {
		return timesheet.TimeEntry{}, err
	}
	s.logger.Info("adjustment saved", "user", userID, "date", date, "hours", hours)
	return saved, s.InvalidateCache(ctx, userID)
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetSettings returns the stored settings, persisting the defaults on the
// first read so later reads return identical values.
func (s *Service) GetSettings(ctx context.Context, userID timesheet.UserID) (timesheet.UserSettings, error) {
	stored, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return timesheet.UserSettings{}, err
	}
	if stored != nil {
		return *stored, nil
	}

	defaults := timesheet.DefaultSettings(userID)
	if err := s.store.SaveSettings(ctx, defaults); err != nil {
		return timesheet.UserSettings{}, err
	}
	saved, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return timesheet.UserSettings{}, err
	}
	if saved == nil {
		return timesheet.UserSettings{}, &timesheet.NotFoundError{Kind: "settings", ID: string(userID)}
	}
	return *saved, nil
}

func (s *Service) UpdateSettings(ctx context.Context, settings timesheet.UserSettings) (timesheet.UserSettings, error) {
	if err := settings.Validate(); err != nil {
		return timesheet.UserSettings{}, err
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return timesheet.UserSettings{}, err
	}
	if err := s.InvalidateCache(ctx, settings.UserID); err != nil {
		return timesheet.UserSettings{}, err
	}
	return s.GetSettings(ctx, settings.UserID)
}

func (s *Service) ResetSettings(ctx context.Context, userID timesheet.UserID) (timesheet.UserSettings, error) {
	return s.UpdateSettings(ctx, timesheet.DefaultSettings(userID))
}

// =============================================================================
// REVIEWED DAYS
// =============================================================================

// Reviews only affect problem detection, which is not cached.

func (s *Service) ListReviewed(ctx context.Context, userID timesheet.UserID, r timesheet.Range) ([]timesheet.ReviewedDay, error) {
	return s.store.ListReviewed(ctx, userID, r)
}

func (s *Service) MarkReviewed(ctx context.Context, userID timesheet.UserID, date timesheet.Date, reason string) error {
	if date.IsZero() {
		return timesheet.Invalid("date", "is required")
	}
	return s.store.MarkReviewed(ctx, userID, date, reason)
}

func (s *Service) MarkManyReviewed(ctx context.Context, userID timesheet.UserID, dates []timesheet.Date, reason string) (int, error) {
	if len(dates) == 0 {
		return 0, timesheet.Invalid("dates", "at least one date is required")
	}
	return s.store.MarkManyReviewed(ctx, userID, dates, reason)
}

func (s *Service) UnreviewDay(ctx context.Context, userID timesheet.UserID, date timesheet.Date) error {
	return s.store.UnreviewDay(ctx, userID, date)
}
