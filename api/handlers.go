/*
handlers.go - HTTP API handlers for the overtime engine

PURPOSE:
  Exposes overtime.Service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every computation and mutation to the
  service so cache invalidation stays in one place.

ENDPOINTS:
  Overtime:
    GET    /api/users/{userID}/overtime                    Balance (?start_date&end_date&include_details)
    POST   /api/users/{userID}/overtime/recalculate        Invalidate and recompute with details
    POST   /api/users/{userID}/overtime/invalidate         Drop the user's cached results
    POST   /api/cache/invalidate                           Drop every cached result

  Statistics:
    GET    /api/users/{userID}/statistics/weekly           ?year&week (ISO)
    GET    /api/users/{userID}/statistics/monthly          ?year&month
    POST   /api/users/{userID}/statistics/weekly/bulk      Several weeks of one year
    GET    /api/users/{userID}/statistics/yearly           ?year, 12 months and totals
    GET    /api/users/{userID}/statistics/quarterly        ?year&quarter

  Entries:
    GET    /api/users/{userID}/entries                     ?start_date&end_date&type
    GET    /api/users/{userID}/entries/week                Current week view
    GET    /api/users/{userID}/entries/week/{year}/{week}  Entries per day and cumulative balance
    POST   /api/users/{userID}/entries                     Create entry
    PUT    /api/users/{userID}/entries/{entryID}           Replace entry
    DELETE /api/users/{userID}/entries/{entryID}           Delete entry
    POST   /api/users/{userID}/entries/bulk-delete         Delete several entries
    POST   /api/users/{userID}/entries/bulk-fill           Generate WORK entries
    POST   /api/users/{userID}/entries/bulk-fill/preview   Same, without writing

  Adjustment:
    GET    /api/users/{userID}/adjustment                  Initial balance entry
    PUT    /api/users/{userID}/adjustment                  Create or move it

  Settings:
    GET    /api/users/{userID}/settings                    Defaults on first read
    PUT    /api/users/{userID}/settings                    Partial update
    DELETE /api/users/{userID}/settings                    Reset to defaults

  Problems:
    GET    /api/users/{userID}/problems                    ?start_date&end_date&problem_type&review_status&sort_by
                                                           (defaults: unreviewed, date_desc)
    GET    /api/users/{userID}/problems/review             Reviewed days
    POST   /api/users/{userID}/problems/review             Mark one day
    PUT    /api/users/{userID}/problems/review             Mark several days
    DELETE /api/users/{userID}/problems/review/{date}      Unmark a day

  Holidays:
    GET    /api/users/{userID}/holidays                    ?year summary of HOLIDAY entries
    POST   /api/users/{userID}/holidays                    Import a year from the holiday API

  Scenarios:
    GET    /api/scenarios                                  List demo scenarios
    GET    /api/scenarios/current                          Loaded scenario
    POST   /api/scenarios/load                             Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Entry (or adjustment) not found
  - 409: Duplicate entry (same date and start time)
  - 502: Holiday API unreachable
  - 500: Internal errors

SECURITY NOTE:
  There is no authentication. The user id in the path is trusted.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/worktime-engine/holiday"
	"github.com/warp/worktime-engine/logger"
	"github.com/warp/worktime-engine/overtime"
	"github.com/warp/worktime-engine/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter wipes all stored data. Both stores implement it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *overtime.Service
	Store   Resetter

	// Holidays is nil when the import endpoint is disabled.
	Holidays holiday.Fetcher

	Logger *log.Logger
	Now    func() time.Time

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over svc. store is only used to reset
// data before a scenario loads.
func NewHandler(svc *overtime.Service, store Resetter, holidays holiday.Fetcher, l *log.Logger) *Handler {
	if l == nil {
		l = logger.Discard()
	}
	return &Handler{
		Service:  svc,
		Store:    store,
		Holidays: holidays,
		Logger:   l,
		Now:      time.Now,
	}
}

func (h *Handler) today() timesheet.Date {
	return timesheet.DateOf(h.Now())
}

// Health reports liveness and the loaded scenario.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"scenario": h.scenario(),
	})
}

// =============================================================================
// OVERTIME HANDLERS
// =============================================================================

// GetOvertime returns the user's balance.
func (h *Handler) GetOvertime(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	includeDetails, err := boolParam(r, "include_details")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid include_details", err)
		return
	}

	balance, err := h.Service.CalculateBalance(r.Context(), overtime.BalanceParams{
		UserID:         userIDParam(r),
		StartDate:      start,
		EndDate:        end,
		IncludeDetails: includeDetails,
	})
	if err != nil {
		h.writeServiceError(w, "Failed to calculate overtime", err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceDTO(balance))
}

// RecalculateOvertime drops the user's cache and recomputes. Without dates
// the range is January 1st of the current year through today.
func (h *Handler) RecalculateOvertime(w http.ResponseWriter, r *http.Request) {
	var req RecalculateRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	today := h.today()
	rng := timesheet.NewRange(timesheet.StartOfYear(today.Year()), today)
	if req.StartDate != "" {
		d, err := timesheet.ParseDate(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
			return
		}
		rng.Start = d
	}
	if req.EndDate != "" {
		d, err := timesheet.ParseDate(req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
			return
		}
		rng.End = d
	}
	if rng.IsEmpty() {
		writeError(w, http.StatusBadRequest, "start_date must not be after end_date", nil)
		return
	}

	balance, err := h.Service.RecalculateHistoricalData(r.Context(), userIDParam(r), rng)
	if err != nil {
		h.writeServiceError(w, "Failed to recalculate overtime", err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceDTO(balance))
}

// InvalidateOvertime drops the user's cached results.
func (h *Handler) InvalidateOvertime(w http.ResponseWriter, r *http.Request) {
	userID := userIDParam(r)
	if err := h.Service.InvalidateCache(r.Context(), userID); err != nil {
		h.writeServiceError(w, "Failed to invalidate cache", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated", "user_id": string(userID)})
}

// InvalidateAll drops every cached result.
func (h *Handler) InvalidateAll(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.InvalidateCache(r.Context(), ""); err != nil {
		h.writeServiceError(w, "Failed to invalidate cache", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// =============================================================================
// STATISTICS HANDLERS
// =============================================================================

// GetWeeklyStatistics defaults to the current ISO week.
func (h *Handler) GetWeeklyStatistics(w http.ResponseWriter, r *http.Request) {
	isoYear, isoWeek := h.today().ISOWeek()
	year, err := intParam(r, "year", isoYear)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	week, err := intParam(r, "week", isoWeek)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week", err)
		return
	}

	stats, err := h.Service.WeeklyStatistics(r.Context(), userIDParam(r), year, week)
	if err != nil {
		h.writeServiceError(w, "Failed to calculate weekly statistics", err)
		return
	}

	writeJSON(w, http.StatusOK, toWeeklyDTO(stats))
}

// GetMonthlyStatistics defaults to the current month.
func (h *Handler) GetMonthlyStatistics(w http.ResponseWriter, r *http.Request) {
	today := h.today()
	year, err := intParam(r, "year", today.Year())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	month, err := intParam(r, "month", int(today.Month()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	stats, err := h.Service.MonthlyStatistics(r.Context(), userIDParam(r), year, month)
	if err != nil {
		h.writeServiceError(w, "Failed to calculate monthly statistics", err)
		return
	}

	writeJSON(w, http.StatusOK, toMonthlyDTO(stats))
}

// BulkWeeklyStatistics returns several weeks in request order.
func (h *Handler) BulkWeeklyStatistics(w http.ResponseWriter, r *http.Request) {
	var req BulkWeeksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Year == 0 {
		req.Year, _ = h.today().ISOWeek()
	}

	weeks, err := h.Service.WeeklyStatisticsBulk(r.Context(), userIDParam(r), req.Year, req.Weeks)
	if err != nil {
		h.writeServiceError(w, "Failed to calculate weekly statistics", err)
		return
	}

	out := make([]WeeklyStatisticsDTO, len(weeks))
	for i, s := range weeks {
		out[i] = toWeeklyDTO(s)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetYearlyOverview defaults to the current year.
func (h *Handler) GetYearlyOverview(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", h.today().Year())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	overview, err := h.Service.YearlyOverview(r.Context(), userIDParam(r), year)
	if err != nil {
		h.writeServiceError(w, "Failed to calculate yearly overview", err)
		return
	}

	writeJSON(w, http.StatusOK, toYearlyDTO(overview))
}

// GetQuarterStatistics defaults to the current quarter.
func (h *Handler) GetQuarterStatistics(w http.ResponseWriter, r *http.Request) {
	today := h.today()
	year, err := intParam(r, "year", today.Year())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	quarter, err := intParam(r, "quarter", (int(today.Month())-1)/3+1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quarter", err)
		return
	}

	stats, err := h.Service.QuarterStatistics(r.Context(), userIDParam(r), year, quarter)
	if err != nil {
		h.writeServiceError(w, "Failed to calculate quarter statistics", err)
		return
	}

	writeJSON(w, http.StatusOK, toQuarterDTO(stats))
}

// GetWeekView serves /entries/week/{year}/{week}, or the current ISO week
// when the path has neither.
func (h *Handler) GetWeekView(w http.ResponseWriter, r *http.Request) {
	year, week := h.today().ISOWeek()
	if s := chi.URLParam(r, "year"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = v
	}
	if s := chi.URLParam(r, "week"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid week", err)
			return
		}
		week = v
	}

	view, err := h.Service.WeekView(r.Context(), userIDParam(r), year, week)
	if err != nil {
		h.writeServiceError(w, "Failed to build week view", err)
		return
	}

	writeJSON(w, http.StatusOK, toWeekViewDTO(view))
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// ListEntries defaults to the current month. type accepts a comma list.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	today := h.today()
	rng := timesheet.NewRange(
		timesheet.StartOfMonth(today.Year(), today.Month()),
		timesheet.EndOfMonth(today.Year(), today.Month()),
	)
	if start != nil {
		rng.Start = *start
	}
	if end != nil {
		rng.End = *end
	}

	var types []timesheet.EntryType
	if raw := r.URL.Query().Get("type"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			et := timesheet.EntryType(strings.ToUpper(strings.TrimSpace(t)))
			if !et.Valid() {
				writeError(w, http.StatusBadRequest, "Unknown entry type", errors.New(t))
				return
			}
			types = append(types, et)
		}
	}

	entries, err := h.Service.ListEntries(r.Context(), userIDParam(r), rng, types...)
	if err != nil {
		h.writeServiceError(w, "Failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// CreateEntry creates one entry.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := req.toEntry(userIDParam(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry", err)
		return
	}

	created, err := h.Service.CreateEntry(r.Context(), entry)
	if err != nil {
		h.writeServiceError(w, "Failed to create entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEntryDTO(created))
}

// UpdateEntry replaces an entry the user owns.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := req.toEntry(userIDParam(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry", err)
		return
	}
	entry.ID = timesheet.EntryID(chi.URLParam(r, "entryID"))

	updated, err := h.Service.UpdateEntry(r.Context(), entry)
	if err != nil {
		h.writeServiceError(w, "Failed to update entry", err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryDTO(updated))
}

// DeleteEntry removes an entry the user owns.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := timesheet.EntryID(chi.URLParam(r, "entryID"))
	if err := h.Service.DeleteEntry(r.Context(), userIDParam(r), id); err != nil {
		h.writeServiceError(w, "Failed to delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteEntries removes the listed entries; foreign ids are ignored.
func (h *Handler) BulkDeleteEntries(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids must not be empty", nil)
		return
	}

	ids := make([]timesheet.EntryID, len(req.IDs))
	for i, id := range req.IDs {
		ids[i] = timesheet.EntryID(id)
	}

	n, err := h.Service.DeleteEntries(r.Context(), userIDParam(r), ids)
	if err != nil {
		h.writeServiceError(w, "Failed to delete entries", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"deleted": n, "requested": len(ids)})
}

// BulkFill generates WORK entries for the range.
func (h *Handler) BulkFill(w http.ResponseWriter, r *http.Request) {
	h.bulkFill(w, r, false)
}

// PreviewBulkFill reports what BulkFill would do without writing.
func (h *Handler) PreviewBulkFill(w http.ResponseWriter, r *http.Request) {
	h.bulkFill(w, r, true)
}

func (h *Handler) bulkFill(w http.ResponseWriter, r *http.Request, preview bool) {
	var body BulkFillRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	userID := userIDParam(r)
	settings, err := h.Service.GetSettings(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, "Failed to load settings", err)
		return
	}
	req, err := body.toRequest(userID, settings)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid bulk-fill request", err)
		return
	}

	var result overtime.BulkFillResult
	if preview {
		result, err = h.Service.PreviewBulkFill(r.Context(), req)
	} else {
		result, err = h.Service.FillWorkdays(r.Context(), req)
	}
	if err != nil {
		h.writeServiceError(w, "Failed to bulk-fill", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// ADJUSTMENT HANDLERS
// =============================================================================

// GetAdjustment returns the initial-balance entry, or 404 when none is set.
func (h *Handler) GetAdjustment(w http.ResponseWriter, r *http.Request) {
	adj, err := h.Service.GetAdjustment(r.Context(), userIDParam(r))
	if err != nil {
		h.writeServiceError(w, "Failed to get adjustment", err)
		return
	}
	if adj == nil {
		writeError(w, http.StatusNotFound, "No adjustment set", nil)
		return
	}

	writeJSON(w, http.StatusOK, toEntryDTO(*adj))
}

// SetAdjustment creates or moves the initial-balance entry.
func (h *Handler) SetAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := timesheet.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	saved, err := h.Service.SetAdjustment(r.Context(), userIDParam(r), date, decimal.NewFromFloat(req.Hours), req.Description)
	if err != nil {
		h.writeServiceError(w, "Failed to save adjustment", err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryDTO(saved))
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns stored settings, creating defaults on first read.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.GetSettings(r.Context(), userIDParam(r))
	if err != nil {
		h.writeServiceError(w, "Failed to get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

// UpdateSettings overlays the request on the stored settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	current, err := h.Service.GetSettings(r.Context(), userIDParam(r))
	if err != nil {
		h.writeServiceError(w, "Failed to get settings", err)
		return
	}
	next, err := req.apply(current)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings", err)
		return
	}

	saved, err := h.Service.UpdateSettings(r.Context(), next)
	if err != nil {
		h.writeServiceError(w, "Failed to update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(saved))
}

// ResetSettings restores the defaults.
func (h *Handler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	saved, err := h.Service.ResetSettings(r.Context(), userIDParam(r))
	if err != nil {
		h.writeServiceError(w, "Failed to reset settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(saved))
}

// =============================================================================
// PROBLEM HANDLERS
// =============================================================================

// GetProblems lists days whose logged hours do not cover the schedule.
func (h *Handler) GetProblems(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	q := r.URL.Query()
	filters := overtime.ProblemFilters{
		ProblemType:  q.Get("problem_type"),
		ReviewStatus: cmp.Or(q.Get("review_status"), overtime.ReviewUnreviewed),
		SortBy:       cmp.Or(q.Get("sort_by"), overtime.SortDateDesc),
	}
	switch {
	case start != nil && end != nil:
		rng := timesheet.NewRange(*start, *end)
		filters.Range = &rng
	case start != nil || end != nil:
		writeError(w, http.StatusBadRequest, "start_date and end_date must be given together", nil)
		return
	}

	report, err := h.Service.FindProblematicDays(r.Context(), userIDParam(r), filters)
	if err != nil {
		h.writeServiceError(w, "Failed to find problems", err)
		return
	}

	writeJSON(w, http.StatusOK, toProblemsResponse(report))
}

// ListReviewedDays defaults to the current calendar year.
func (h *Handler) ListReviewedDays(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	year := h.today().Year()
	rng := timesheet.NewRange(timesheet.StartOfYear(year), timesheet.EndOfYear(year))
	if start != nil {
		rng.Start = *start
	}
	if end != nil {
		rng.End = *end
	}

	days, err := h.Service.ListReviewed(r.Context(), userIDParam(r), rng)
	if err != nil {
		h.writeServiceError(w, "Failed to list reviewed days", err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewedDTOs(days))
}

// MarkDayReviewed dismisses one day from problem detection.
func (h *Handler) MarkDayReviewed(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := timesheet.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Service.MarkReviewed(r.Context(), userIDParam(r), date, req.Reason); err != nil {
		h.writeServiceError(w, "Failed to mark day reviewed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"date": date.String(), "reviewed": true})
}

// MarkDaysReviewed dismisses several days. Days already reviewed are skipped.
func (h *Handler) MarkDaysReviewed(w http.ResponseWriter, r *http.Request) {
	var req BulkReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	dates := make([]timesheet.Date, 0, len(req.Dates))
	for _, s := range req.Dates {
		d, err := timesheet.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		dates = append(dates, d)
	}

	n, err := h.Service.MarkManyReviewed(r.Context(), userIDParam(r), dates, req.Reason)
	if err != nil {
		h.writeServiceError(w, "Failed to mark days reviewed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": n, "requested": len(dates)})
}

// UnreviewDay puts a day back into problem detection.
func (h *Handler) UnreviewDay(w http.ResponseWriter, r *http.Request) {
	date, err := timesheet.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if err := h.Service.UnreviewDay(r.Context(), userIDParam(r), date); err != nil {
		h.writeServiceError(w, "Failed to unreview day", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// GetHolidays summarises the user's HOLIDAY entries of one year.
func (h *Handler) GetHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", h.today().Year())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	rng := timesheet.NewRange(timesheet.StartOfYear(year), timesheet.EndOfYear(year))
	entries, err := h.Service.ListEntries(r.Context(), userIDParam(r), rng, timesheet.EntryHoliday)
	if err != nil {
		h.writeServiceError(w, "Failed to list holidays", err)
		return
	}

	writeJSON(w, http.StatusOK, HolidaySummaryDTO{
		Year:     year,
		Exists:   len(entries) > 0,
		Count:    len(entries),
		Holidays: toEntryDTOs(entries),
	})
}

// ImportHolidays fetches a year from the holiday API and stores the
// holidays as HOLIDAY entries.
func (h *Handler) ImportHolidays(w http.ResponseWriter, r *http.Request) {
	if h.Holidays == nil {
		writeError(w, http.StatusServiceUnavailable, "Holiday import is not configured", nil)
		return
	}

	var req HolidayImportRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Year == 0 {
		req.Year = h.today().Year()
	}
	if err := holiday.ValidateYear(req.Year); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	holidays, err := h.Holidays.Year(r.Context(), req.Year)
	if err != nil {
		h.Logger.Error("holiday fetch failed", "year", req.Year, "err", err)
		writeError(w, http.StatusBadGateway, "Failed to fetch holidays", err)
		return
	}

	result, err := h.Service.ImportHolidays(r.Context(), userIDParam(r), holidays)
	if err != nil {
		h.writeServiceError(w, "Failed to import holidays", err)
		return
	}

	resp := HolidayImportResponse{Year: req.Year, HolidayImport: result}
	if c, ok := h.Holidays.(interface{ State() string }); ok {
		resp.State = c.State()
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func userIDParam(r *http.Request) timesheet.UserID {
	return timesheet.UserID(chi.URLParam(r, "userID"))
}

// dateRangeParams reads the optional start_date and end_date query values.
func dateRangeParams(r *http.Request) (start, end *timesheet.Date, err error) {
	q := r.URL.Query()
	if s := q.Get("start_date"); s != "" {
		d, err := timesheet.ParseDate(s)
		if err != nil {
			return nil, nil, err
		}
		start = &d
	}
	if s := q.Get("end_date"); s != "" {
		d, err := timesheet.ParseDate(s)
		if err != nil {
			return nil, nil, err
		}
		end = &d
	}
	return start, end, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func boolParam(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// decodeOptional decodes a JSON body that may be empty.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case timesheet.IsClientError(err):
		return http.StatusBadRequest
	case timesheet.IsNotFound(err):
		return http.StatusNotFound
	case timesheet.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with the status its kind maps to. Server
// errors are logged; client errors are the caller's business.
func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(message, "err", err)
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
