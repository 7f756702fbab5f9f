/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	time entries for demos. Each scenario seeds one user ("demo") through
	overtime.Service, so the same validation and cache invalidation apply
	as for API writes.

AVAILABLE SCENARIOS:

	standard-week:   Full-time week with one overtime block
	initial-balance: Carried-over balance plus a year of regular work
	part-time:       30h over Monday to Thursday with a sick day
	problem-days:    Missing, incomplete and zero-hour days, one reviewed
	holiday-week:    Fixed public holidays imported, holiday week filled

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Drop every cached result
 3. Seed settings, entries and reviews relative to today

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "problem-days"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, today)
 3. Add case to LoadScenarioByID

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - cmd/server/main.go: seed command
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/worktime-engine/overtime"
	"github.com/warp/worktime-engine/timesheet"
)

// ScenarioUser owns all scenario data.
const ScenarioUser timesheet.UserID = "demo"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "standard-week",
		Name:        "Standard Week",
		Description: "Last week filled with 8h days plus 1.5h overtime on Wednesday",
		Category:    "basics",
	},
	{
		ID:          "initial-balance",
		Name:        "Initial Balance",
		Description: "12.5h carried over from last year, regular work since January, one vacation day",
		Category:    "balance",
	},
	{
		ID:          "part-time",
		Name:        "Part-Time",
		Description: "30h/week over Monday to Thursday for four weeks, one sick day",
		Category:    "schedule",
	},
	{
		ID:          "problem-days",
		Name:        "Problem Days",
		Description: "Last week with missing, incomplete and zero-hour days; Friday reviewed",
		Category:    "problems",
	},
	{
		ID:          "holiday-week",
		Name:        "Holiday Week",
		Description: "Fixed-date public holidays imported, the week of May 1st filled",
		Category:    "holidays",
	},
}

// Scenarios returns the available scenarios.
func Scenarios() []ScenarioDTO {
	out := make([]ScenarioDTO, len(scenarios))
	copy(out, scenarios)
	return out
}

func (h *Handler) scenario() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentScenario
}

func (h *Handler) setScenario(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentScenario = id
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.scenario()
	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          current,
		Name:        current,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		h.writeServiceError(w, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
		"user_id":  string(ScenarioUser),
	})
}

// LoadScenarioByID resets the store and seeds scenario id. Unknown ids
// are validation errors and leave the store untouched.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	var load func(context.Context, timesheet.Date) error
	switch id {
	case "standard-week":
		load = h.loadStandardWeekScenario
	case "initial-balance":
		load = h.loadInitialBalanceScenario
	case "part-time":
		load = h.loadPartTimeScenario
	case "problem-days":
		load = h.loadProblemDaysScenario
	case "holiday-week":
		load = h.loadHolidayWeekScenario
	default:
		return timesheet.Invalid("scenario_id", "unknown scenario %q", id)
	}

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	h.setScenario("")
	if err := h.Service.InvalidateCache(ctx, ""); err != nil {
		return err
	}

	if err := load(ctx, h.today()); err != nil {
		return fmt.Errorf("scenario %s: %w", id, err)
	}

	h.setScenario(id)
	h.Logger.Info("scenario loaded", "scenario", id, "user", ScenarioUser)
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

var (
	nine          = timesheet.TimeOfDay{Hour: 9}
	five          = timesheet.TimeOfDay{Hour: 17}
	eight         = timesheet.TimeOfDay{Hour: 8}
	halfPastThree = timesheet.TimeOfDay{Hour: 15, Minute: 30}
)

// previousWeek is the Monday to Sunday week before the one containing d.
func previousWeek(d timesheet.Date) timesheet.Range {
	monday := d.AddDays(-((int(d.Weekday()) + 6) % 7))
	return timesheet.NewRange(monday.AddDays(-7), monday.AddDays(-1))
}

func (h *Handler) fill(ctx context.Context, r timesheet.Range, hours float64, start, end timesheet.TimeOfDay, description string) error {
	_, err := h.Service.FillWorkdays(ctx, overtime.BulkFillRequest{
		UserID:       ScenarioUser,
		StartDate:    r.Start,
		EndDate:      r.End,
		DailyHours:   timesheet.Hours(hours),
		StartTime:    start,
		EndTime:      end,
		Description:  description,
		SkipExisting: true,
	})
	return err
}

func (h *Handler) entry(ctx context.Context, d timesheet.Date, t timesheet.EntryType, start timesheet.TimeOfDay, hours float64, description string) error {
	begin := d.At(start)
	_, err := h.Service.CreateEntry(ctx, timesheet.TimeEntry{
		UserID:      ScenarioUser,
		Date:        d,
		StartTime:   begin,
		EndTime:     begin.Add(time.Duration(hours * float64(time.Hour))),
		Duration:    timesheet.Hours(hours),
		Type:        t,
		Description: description,
	})
	return err
}

func (h *Handler) loadStandardWeekScenario(ctx context.Context, today timesheet.Date) error {
	week := previousWeek(today)
	if err := h.fill(ctx, week, 8, nine, five, "Regular work"); err != nil {
		return err
	}

	wednesday := week.Start.AddDays(2)
	return h.entry(ctx, wednesday, timesheet.EntryOvertime, five, 1.5, "Release support")
}

func (h *Handler) loadInitialBalanceScenario(ctx context.Context, today timesheet.Date) error {
	year := today.Year()
	carried := fmt.Sprintf("carried over from %d", year-1)
	if _, err := h.Service.SetAdjustment(ctx, ScenarioUser, timesheet.EndOfYear(year-1), timesheet.Hours(12.5), carried); err != nil {
		return err
	}

	r := timesheet.NewRange(timesheet.StartOfYear(year), today.AddDays(-1))
	if r.IsEmpty() {
		return nil
	}

	// The vacation goes in first so bulk-fill skips that day as existing.
	for d := range r.Days() {
		if d.Weekday() == time.Monday {
			if err := h.entry(ctx, d, timesheet.EntryVacation, nine, 8, "Ski trip"); err != nil {
				return err
			}
			break
		}
	}
	return h.fill(ctx, r, 8, nine, five, "Regular work")
}

func (h *Handler) loadPartTimeScenario(ctx context.Context, today timesheet.Date) error {
	settings := timesheet.DefaultSettings(ScenarioUser)
	settings.WeeklyHours = timesheet.Hours(30)
	settings.WorkDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday}
	settings.DefaultStartTime = eight
	settings.DefaultEndTime = halfPastThree
	if _, err := h.Service.UpdateSettings(ctx, settings); err != nil {
		return err
	}

	last := previousWeek(today)
	first := last.Start.AddDays(-21)
	if err := h.entry(ctx, first.AddDays(1), timesheet.EntrySick, eight, 7.5, "Flu"); err != nil {
		return err
	}

	// Bulk-fill only skips weekends, so fill Monday to Thursday week by week.
	for monday := first; monday.BeforeOrEqual(last.Start); monday = monday.AddDays(7) {
		if err := h.fill(ctx, timesheet.NewRange(monday, monday.AddDays(3)), 7.5, eight, halfPastThree, "Regular work"); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadProblemDaysScenario(ctx context.Context, today timesheet.Date) error {
	week := previousWeek(today)
	monday := week.Start

	// Tuesday stays empty (missing).
	if err := h.entry(ctx, monday, timesheet.EntryWork, nine, 8, "Regular work"); err != nil {
		return err
	}
	if err := h.entry(ctx, monday.AddDays(2), timesheet.EntryWork, nine, 5, "Left early"); err != nil {
		return err
	}
	if err := h.entry(ctx, monday.AddDays(3), timesheet.EntryWork, nine, 0, "Timer never stopped"); err != nil {
		return err
	}
	return h.Service.MarkReviewed(ctx, ScenarioUser, monday.AddDays(4), "Conference travel")
}

// fixedHolidays are the German nationwide holidays with a fixed date,
// minus those falling on a weekend.
func fixedHolidays(year int) []timesheet.Holiday {
	all := []timesheet.Holiday{
		{Date: timesheet.NewDate(year, time.January, 1), Name: "Neujahrstag"},
		{Date: timesheet.NewDate(year, time.May, 1), Name: "Tag der Arbeit"},
		{Date: timesheet.NewDate(year, time.October, 3), Name: "Tag der Deutschen Einheit"},
		{Date: timesheet.NewDate(year, time.December, 25), Name: "1. Weihnachtstag"},
		{Date: timesheet.NewDate(year, time.December, 26), Name: "2. Weihnachtstag"},
	}
	var out []timesheet.Holiday
	for _, h := range all {
		if !h.Date.IsWeekend() {
			out = append(out, h)
		}
	}
	return out
}

func (h *Handler) loadHolidayWeekScenario(ctx context.Context, today timesheet.Date) error {
	year := today.Year()
	if _, err := h.Service.ImportHolidays(ctx, ScenarioUser, fixedHolidays(year)); err != nil {
		return err
	}

	mayDay := timesheet.NewDate(year, time.May, 1)
	week := previousWeek(mayDay.AddDays(7))
	return h.fill(ctx, timesheet.NewRange(week.Start, week.Start.AddDays(4)), 8, nine, five, "Regular work")
}
