/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The engine works in
  decimal hours and typed dates; clients see plain numbers and
  "YYYY-MM-DD" / "HH:MM" strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Entries:
    EntryDTO, CreateEntryRequest, UpdateEntryRequest, BulkDeleteRequest

  Overtime:
    BalanceDTO, RecalculateRequest, AdjustmentRequest

  Statistics:
    WeeklyStatisticsDTO, MonthlyStatisticsDTO, DailyStatisticsDTO

  Bulk fill:
    BulkFillRequestDTO (results use overtime.BulkFillResult directly)

  Settings:
    SettingsDTO

  Problems:
    ProblemDayDTO, ProblemsResponse, ReviewRequest, BulkReviewRequest,
    ReviewedDayDTO

  Holidays:
    HolidaySummaryDTO, HolidayImportRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  DTOs only parse. Range and value checks live in the engine, which
  reports them as validation errors (400).

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/worktime-engine/overtime"
	"github.com/warp/worktime-engine/timesheet"
)

const timeOfDayLayout = "15:04"

// hoursValue converts decimal hours for JSON output.
func hoursValue(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// =============================================================================
// ENTRIES
// =============================================================================

// EntryDTO represents a time entry in API responses.
type EntryDTO struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time,omitempty"`
	EndTime       string  `json:"end_time,omitempty"`
	Duration      float64 `json:"duration"`
	Type          string  `json:"type"`
	Description   string  `json:"description,omitempty"`
	ImportBatchID string  `json:"import_batch_id,omitempty"`
	IsAdjustment  bool    `json:"is_adjustment,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
}

func toEntryDTO(e timesheet.TimeEntry) EntryDTO {
	dto := EntryDTO{
		ID:            string(e.ID),
		UserID:        string(e.UserID),
		Date:          e.Date.String(),
		Duration:      hoursValue(e.Duration),
		Type:          string(e.Type),
		Description:   e.Description,
		ImportBatchID: e.ImportBatchID,
		IsAdjustment:  e.IsAdjustment(),
	}
	if !e.StartTime.IsZero() {
		dto.StartTime = e.StartTime.Format(timeOfDayLayout)
	}
	if !e.EndTime.IsZero() {
		dto.EndTime = e.EndTime.Format(timeOfDayLayout)
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	if !e.UpdatedAt.IsZero() {
		dto.UpdatedAt = e.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

func toEntryDTOs(entries []timesheet.TimeEntry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

// CreateEntryRequest is the body for creating an entry. Duration may be
// omitted when both times are given; it is then end minus start.
type CreateEntryRequest struct {
	Date        string   `json:"date"`
	StartTime   string   `json:"start_time,omitempty"`
	EndTime     string   `json:"end_time,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
}

// UpdateEntryRequest replaces every caller-controlled field of an entry.
type UpdateEntryRequest = CreateEntryRequest

// toEntry parses the request into an entry for userID.
func (req CreateEntryRequest) toEntry(userID timesheet.UserID) (timesheet.TimeEntry, error) {
	date, err := timesheet.ParseDate(req.Date)
	if err != nil {
		return timesheet.TimeEntry{}, timesheet.Invalid("date", "invalid date %q (use YYYY-MM-DD)", req.Date)
	}

	e := timesheet.TimeEntry{
		UserID:      userID,
		Date:        date,
		Type:        timesheet.EntryType(req.Type),
		Description: req.Description,
	}
	if e.Type == "" {
		e.Type = timesheet.EntryWork
	}
	if req.StartTime != "" {
		tod, err := timesheet.ParseTimeOfDay(req.StartTime)
		if err != nil {
			return timesheet.TimeEntry{}, timesheet.Invalid("start_time", "invalid time %q (use HH:MM)", req.StartTime)
		}
		e.StartTime = date.At(tod)
	}
	if req.EndTime != "" {
		tod, err := timesheet.ParseTimeOfDay(req.EndTime)
		if err != nil {
			return timesheet.TimeEntry{}, timesheet.Invalid("end_time", "invalid time %q (use HH:MM)", req.EndTime)
		}
		e.EndTime = date.At(tod)
	}

	switch {
	case req.Duration != nil:
		e.Duration = decimal.NewFromFloat(*req.Duration)
	case !e.StartTime.IsZero() && !e.EndTime.IsZero():
		minutes := int64(e.EndTime.Sub(e.StartTime) / time.Minute)
		e.Duration = decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60))
	default:
		return timesheet.TimeEntry{}, timesheet.Invalid("duration", "duration or start and end time required")
	}
	return e, nil
}

// BulkDeleteRequest lists entry ids to delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// =============================================================================
// OVERTIME
// =============================================================================

// BalanceDetailsDTO breaks the balance down.
type BalanceDetailsDTO struct {
	ActualHours   float64 `json:"actual_hours"`
	TargetHours   float64 `json:"target_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
}

// PeriodDTO is an inclusive date range.
type PeriodDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BalanceDTO is the overtime balance of a user.
type BalanceDTO struct {
	UserID      string             `json:"user_id"`
	Balance     float64            `json:"balance"`
	Details     *BalanceDetailsDTO `json:"details,omitempty"`
	Period      *PeriodDTO         `json:"period,omitempty"`
	LastUpdated string             `json:"last_updated"`
}

func toPeriodDTO(r timesheet.Range) PeriodDTO {
	return PeriodDTO{Start: r.Start.String(), End: r.End.String()}
}

func toBalanceDTO(b overtime.OvertimeBalance) BalanceDTO {
	dto := BalanceDTO{
		UserID:      string(b.UserID),
		Balance:     hoursValue(b.Balance),
		LastUpdated: b.LastUpdated.Format(time.RFC3339),
	}
	if b.Details != nil {
		dto.Details = &BalanceDetailsDTO{
			ActualHours:   hoursValue(b.Details.ActualHours),
			TargetHours:   hoursValue(b.Details.TargetHours),
			OvertimeHours: hoursValue(b.Details.OvertimeHours),
		}
	}
	if b.Period != nil {
		p := toPeriodDTO(*b.Period)
		dto.Period = &p
	}
	return dto
}

// RecalculateRequest bounds a recalculation. Both dates are optional.
type RecalculateRequest struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// AdjustmentRequest sets the initial overtime balance.
type AdjustmentRequest struct {
	Date        string  `json:"date"`
	Hours       float64 `json:"hours"`
	Description string  `json:"description,omitempty"`
}

// =============================================================================
// STATISTICS
// =============================================================================

// EntryTypeHoursDTO sums hours per entry type.
type EntryTypeHoursDTO struct {
	Work     float64 `json:"work"`
	Overtime float64 `json:"overtime"`
	Vacation float64 `json:"vacation"`
	Sick     float64 `json:"sick"`
	Holiday  float64 `json:"holiday"`
}

// DailyStatisticsDTO is one day of a week.
type DailyStatisticsDTO struct {
	Date          string  `json:"date"`
	ActualHours   float64 `json:"actual_hours"`
	TargetHours   float64 `json:"target_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
	EntryType     string  `json:"entry_type,omitempty"`
}

// WeeklyStatisticsDTO summarises one ISO week.
type WeeklyStatisticsDTO struct {
	UserID         string               `json:"user_id"`
	Year           int                  `json:"year"`
	Week           int                  `json:"week"`
	Period         PeriodDTO            `json:"period"`
	TotalHours     float64              `json:"total_hours"`
	TargetHours    float64              `json:"target_hours"`
	OvertimeHours  float64              `json:"overtime_hours"`
	DailyBreakdown []DailyStatisticsDTO `json:"daily_breakdown"`
	EntryTypes     EntryTypeHoursDTO    `json:"entry_types"`
}

// MonthlyStatisticsDTO summarises one calendar month.
type MonthlyStatisticsDTO struct {
	UserID           string                `json:"user_id"`
	Year             int                   `json:"year"`
	Month            int                   `json:"month"`
	TotalHours       float64               `json:"total_hours"`
	TargetHours      float64               `json:"target_hours"`
	OvertimeHours    float64               `json:"overtime_hours"`
	BillableHours    float64               `json:"billable_hours"`
	NonBillableHours float64               `json:"non_billable_hours"`
	WeeklyBreakdown  []WeeklyStatisticsDTO `json:"weekly_breakdown"`
}

func toWeeklyDTO(s overtime.WeeklyStatistics) WeeklyStatisticsDTO {
	days := make([]DailyStatisticsDTO, len(s.DailyBreakdown))
	for i, d := range s.DailyBreakdown {
		days[i] = DailyStatisticsDTO{
			Date:          d.Date.String(),
			ActualHours:   hoursValue(d.ActualHours),
			TargetHours:   hoursValue(d.TargetHours),
			OvertimeHours: hoursValue(d.OvertimeHours),
			EntryType:     string(d.EntryType),
		}
	}
	return WeeklyStatisticsDTO{
		UserID:         string(s.UserID),
		Year:           s.Year,
		Week:           s.Week,
		Period:         toPeriodDTO(s.Range),
		TotalHours:     hoursValue(s.TotalHours),
		TargetHours:    hoursValue(s.TargetHours),
		OvertimeHours:  hoursValue(s.OvertimeHours),
		DailyBreakdown: days,
		EntryTypes: EntryTypeHoursDTO{
			Work:     hoursValue(s.EntryTypes.Work),
			Overtime: hoursValue(s.EntryTypes.Overtime),
			Vacation: hoursValue(s.EntryTypes.Vacation),
			Sick:     hoursValue(s.EntryTypes.Sick),
			Holiday:  hoursValue(s.EntryTypes.Holiday),
		},
	}
}

func toMonthlyDTO(s overtime.MonthlyStatistics) MonthlyStatisticsDTO {
	weeks := make([]WeeklyStatisticsDTO, len(s.WeeklyBreakdown))
	for i, w := range s.WeeklyBreakdown {
		weeks[i] = toWeeklyDTO(w)
	}
	return MonthlyStatisticsDTO{
		UserID:           string(s.UserID),
		Year:             s.Year,
		Month:            s.Month,
		TotalHours:       hoursValue(s.TotalHours),
		TargetHours:      hoursValue(s.TargetHours),
		OvertimeHours:    hoursValue(s.OvertimeHours),
		BillableHours:    hoursValue(s.BillableHours),
		NonBillableHours: hoursValue(s.NonBillableHours),
		WeeklyBreakdown:  weeks,
	}
}

// BulkWeeksRequest asks for several ISO weeks of one year.
type BulkWeeksRequest struct {
	Year  int   `json:"year"`
	Weeks []int `json:"weeks"`
}

// PeriodTotalsDTO sums the months of a year or quarter.
type PeriodTotalsDTO struct {
	TotalHours       float64 `json:"total_hours"`
	TargetHours      float64 `json:"target_hours"`
	OvertimeHours    float64 `json:"overtime_hours"`
	BillableHours    float64 `json:"billable_hours"`
	NonBillableHours float64 `json:"non_billable_hours"`
}

type YearlyOverviewDTO struct {
	UserID string                 `json:"user_id"`
	Year   int                    `json:"year"`
	Months []MonthlyStatisticsDTO `json:"months"`
	Totals PeriodTotalsDTO        `json:"totals"`
}

type QuarterStatisticsDTO struct {
	UserID  string                 `json:"user_id"`
	Year    int                    `json:"year"`
	Quarter int                    `json:"quarter"`
	Months  []MonthlyStatisticsDTO `json:"months"`
	Totals  PeriodTotalsDTO        `json:"totals"`
}

func toTotalsDTO(t overtime.PeriodTotals) PeriodTotalsDTO {
	return PeriodTotalsDTO{
		TotalHours:       hoursValue(t.TotalHours),
		TargetHours:      hoursValue(t.TargetHours),
		OvertimeHours:    hoursValue(t.OvertimeHours),
		BillableHours:    hoursValue(t.BillableHours),
		NonBillableHours: hoursValue(t.NonBillableHours),
	}
}

func toMonthlyDTOs(months []overtime.MonthlyStatistics) []MonthlyStatisticsDTO {
	out := make([]MonthlyStatisticsDTO, len(months))
	for i, m := range months {
		out[i] = toMonthlyDTO(m)
	}
	return out
}

func toYearlyDTO(o overtime.YearlyOverview) YearlyOverviewDTO {
	return YearlyOverviewDTO{
		UserID: string(o.UserID),
		Year:   o.Year,
		Months: toMonthlyDTOs(o.Months),
		Totals: toTotalsDTO(o.Totals),
	}
}

func toQuarterDTO(q overtime.QuarterStatistics) QuarterStatisticsDTO {
	return QuarterStatisticsDTO{
		UserID:  string(q.UserID),
		Year:    q.Year,
		Quarter: q.Quarter,
		Months:  toMonthlyDTOs(q.Months),
		Totals:  toTotalsDTO(q.Totals),
	}
}

// =============================================================================
// WEEK VIEW
// =============================================================================

// WeekDayDTO is one day of the week view.
type WeekDayDTO struct {
	Date        string     `json:"date"`
	Weekday     string     `json:"weekday"`
	Entries     []EntryDTO `json:"entries"`
	TotalHours  float64    `json:"total_hours"`
	TargetHours float64    `json:"target_hours"`
	Difference  float64    `json:"difference"`
	EntryType   string     `json:"entry_type,omitempty"`
	IsWeekend   bool       `json:"is_weekend"`
}

type WeekSummaryDTO struct {
	TotalHours        float64 `json:"total_hours"`
	TargetHours       float64 `json:"target_hours"`
	WeekBalance       float64 `json:"week_balance"`
	CumulativeBalance float64 `json:"cumulative_balance"`
}

type WeekViewDTO struct {
	UserID  string         `json:"user_id"`
	Year    int            `json:"year"`
	Week    int            `json:"week"`
	Period  PeriodDTO      `json:"period"`
	Days    []WeekDayDTO   `json:"days"`
	Summary WeekSummaryDTO `json:"summary"`
}

func toWeekViewDTO(v overtime.WeekView) WeekViewDTO {
	days := make([]WeekDayDTO, len(v.Days))
	for i, d := range v.Days {
		days[i] = WeekDayDTO{
			Date:        d.Date.String(),
			Weekday:     d.Weekday.String(),
			Entries:     toEntryDTOs(d.Entries),
			TotalHours:  hoursValue(d.TotalHours),
			TargetHours: hoursValue(d.TargetHours),
			Difference:  hoursValue(d.Difference),
			EntryType:   string(d.EntryType),
			IsWeekend:   d.IsWeekend,
		}
	}
	return WeekViewDTO{
		UserID: string(v.UserID),
		Year:   v.Year,
		Week:   v.Week,
		Period: toPeriodDTO(v.Range),
		Days:   days,
		Summary: WeekSummaryDTO{
			TotalHours:        hoursValue(v.Summary.TotalHours),
			TargetHours:       hoursValue(v.Summary.TargetHours),
			WeekBalance:       hoursValue(v.Summary.WeekBalance),
			CumulativeBalance: hoursValue(v.Summary.CumulativeBalance),
		},
	}
}

// =============================================================================
// BULK FILL
// =============================================================================

// BulkFillRequestDTO is the body of bulk-fill and its preview.
type BulkFillRequestDTO struct {
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	DailyHours   *float64 `json:"daily_hours,omitempty"`
	StartTime    string   `json:"start_time,omitempty"`
	EndTime      string   `json:"end_time,omitempty"`
	Description  string   `json:"description,omitempty"`
	SkipExisting *bool    `json:"skip_existing,omitempty"`
}

// toRequest fills omitted fields from the user's settings and schedule.
func (req BulkFillRequestDTO) toRequest(userID timesheet.UserID, settings timesheet.UserSettings) (overtime.BulkFillRequest, error) {
	start, err := timesheet.ParseDate(req.StartDate)
	if err != nil {
		return overtime.BulkFillRequest{}, timesheet.Invalid("start_date", "invalid date %q (use YYYY-MM-DD)", req.StartDate)
	}
	end, err := timesheet.ParseDate(req.EndDate)
	if err != nil {
		return overtime.BulkFillRequest{}, timesheet.Invalid("end_date", "invalid date %q (use YYYY-MM-DD)", req.EndDate)
	}

	out := overtime.BulkFillRequest{
		UserID:       userID,
		StartDate:    start,
		EndDate:      end,
		DailyHours:   overtime.ScheduleFromSettings(settings).DailyHours,
		StartTime:    settings.DefaultStartTime,
		EndTime:      settings.DefaultEndTime,
		Description:  req.Description,
		SkipExisting: true,
	}
	if req.DailyHours != nil {
		out.DailyHours = decimal.NewFromFloat(*req.DailyHours)
	}
	if req.StartTime != "" {
		if out.StartTime, err = timesheet.ParseTimeOfDay(req.StartTime); err != nil {
			return overtime.BulkFillRequest{}, timesheet.Invalid("start_time", "invalid time %q (use HH:MM)", req.StartTime)
		}
	}
	if req.EndTime != "" {
		if out.EndTime, err = timesheet.ParseTimeOfDay(req.EndTime); err != nil {
			return overtime.BulkFillRequest{}, timesheet.Invalid("end_time", "invalid time %q (use HH:MM)", req.EndTime)
		}
	}
	if req.SkipExisting != nil {
		out.SkipExisting = *req.SkipExisting
	}
	return out, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// SettingsDTO is the user's schedule configuration. Work days use
// 0 = Sunday through 6 = Saturday.
type SettingsDTO struct {
	UserID               string  `json:"user_id"`
	WeeklyHours          float64 `json:"weekly_hours"`
	DailyHours           float64 `json:"daily_hours"`
	WorkDays             []int   `json:"work_days"`
	DefaultStartTime     string  `json:"default_start_time"`
	DefaultEndTime       string  `json:"default_end_time"`
	BreakDuration        float64 `json:"break_duration"`
	Timezone             string  `json:"timezone"`
	OvertimeNotification bool    `json:"overtime_notification"`
	Language             string  `json:"language"`
	Theme                string  `json:"theme"`
	UpdatedAt            string  `json:"updated_at,omitempty"`
}

func toSettingsDTO(s timesheet.UserSettings) SettingsDTO {
	days := make([]int, len(s.WorkDays))
	for i, wd := range s.WorkDays {
		days[i] = int(wd)
	}
	dto := SettingsDTO{
		UserID:               string(s.UserID),
		WeeklyHours:          hoursValue(s.WeeklyHours),
		DailyHours:           hoursValue(overtime.ScheduleFromSettings(s).DailyHours),
		WorkDays:             days,
		DefaultStartTime:     s.DefaultStartTime.String(),
		DefaultEndTime:       s.DefaultEndTime.String(),
		BreakDuration:        hoursValue(s.BreakDuration),
		Timezone:             s.Timezone,
		OvertimeNotification: s.OvertimeNotification,
		Language:             s.Language,
		Theme:                s.Theme,
	}
	if !s.UpdatedAt.IsZero() {
		dto.UpdatedAt = s.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

// SettingsRequest updates settings. Omitted fields keep their stored value.
type SettingsRequest struct {
	WeeklyHours          *float64 `json:"weekly_hours,omitempty"`
	WorkDays             []int    `json:"work_days,omitempty"`
	DefaultStartTime     string   `json:"default_start_time,omitempty"`
	DefaultEndTime       string   `json:"default_end_time,omitempty"`
	BreakDuration        *float64 `json:"break_duration,omitempty"`
	Timezone             string   `json:"timezone,omitempty"`
	OvertimeNotification *bool    `json:"overtime_notification,omitempty"`
	Language             string   `json:"language,omitempty"`
	Theme                string   `json:"theme,omitempty"`
}

// apply overlays the request on current.
func (req SettingsRequest) apply(current timesheet.UserSettings) (timesheet.UserSettings, error) {
	s := current
	if req.WeeklyHours != nil {
		s.WeeklyHours = decimal.NewFromFloat(*req.WeeklyHours)
	}
	if req.WorkDays != nil {
		s.WorkDays = make([]time.Weekday, len(req.WorkDays))
		for i, d := range req.WorkDays {
			s.WorkDays[i] = time.Weekday(d)
		}
	}
	var err error
	if req.DefaultStartTime != "" {
		if s.DefaultStartTime, err = timesheet.ParseTimeOfDay(req.DefaultStartTime); err != nil {
			return s, timesheet.Invalid("default_start_time", "invalid time %q (use HH:MM)", req.DefaultStartTime)
		}
	}
	if req.DefaultEndTime != "" {
		if s.DefaultEndTime, err = timesheet.ParseTimeOfDay(req.DefaultEndTime); err != nil {
			return s, timesheet.Invalid("default_end_time", "invalid time %q (use HH:MM)", req.DefaultEndTime)
		}
	}
	if req.BreakDuration != nil {
		s.BreakDuration = decimal.NewFromFloat(*req.BreakDuration)
	}
	if req.Timezone != "" {
		s.Timezone = req.Timezone
	}
	if req.OvertimeNotification != nil {
		s.OvertimeNotification = *req.OvertimeNotification
	}
	if req.Language != "" {
		s.Language = req.Language
	}
	if req.Theme != "" {
		s.Theme = req.Theme
	}
	return s, nil
}

// =============================================================================
// PROBLEMS AND REVIEWS
// =============================================================================

// ProblemDayDTO is one flagged day.
type ProblemDayDTO struct {
	Date          string     `json:"date"`
	Type          string     `json:"type"`
	CurrentHours  float64    `json:"current_hours"`
	ExpectedHours float64    `json:"expected_hours"`
	Entries       []EntryDTO `json:"entries"`
	IsWeekend     bool       `json:"is_weekend"`
	IsHoliday     bool       `json:"is_holiday"`
	IsReviewed    bool       `json:"is_reviewed"`
	Suggestion    string     `json:"suggestion"`
}

// ProblemsResponse wraps the problem list with its counters.
type ProblemsResponse struct {
	Problems []ProblemDayDTO       `json:"problems"`
	Stats    overtime.ProblemStats `json:"stats"`
}

func toProblemsResponse(report overtime.ProblemReport) ProblemsResponse {
	problems := make([]ProblemDayDTO, len(report.Problems))
	for i, p := range report.Problems {
		problems[i] = ProblemDayDTO{
			Date:          p.Date.String(),
			Type:          string(p.Type),
			CurrentHours:  hoursValue(p.CurrentHours),
			ExpectedHours: hoursValue(p.ExpectedHours),
			Entries:       toEntryDTOs(p.Entries),
			IsWeekend:     p.IsWeekend,
			IsHoliday:     p.IsHoliday,
			IsReviewed:    p.IsReviewed,
			Suggestion:    string(p.Suggestion),
		}
	}
	return ProblemsResponse{Problems: problems, Stats: report.Stats}
}

// ReviewedDayDTO is a day dismissed from problem detection.
type ReviewedDayDTO struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	Reason     string `json:"reason,omitempty"`
	ReviewedAt string `json:"reviewed_at"`
}

func toReviewedDTOs(days []timesheet.ReviewedDay) []ReviewedDayDTO {
	dtos := make([]ReviewedDayDTO, len(days))
	for i, d := range days {
		dtos[i] = ReviewedDayDTO{
			ID:         d.ID,
			Date:       d.Date.String(),
			Reason:     d.Reason,
			ReviewedAt: d.ReviewedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

// ReviewRequest marks one day as reviewed.
type ReviewRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

// BulkReviewRequest marks several days as reviewed with one reason.
type BulkReviewRequest struct {
	Dates  []string `json:"dates"`
	Reason string   `json:"reason,omitempty"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidaySummaryDTO describes the HOLIDAY entries of one year.
type HolidaySummaryDTO struct {
	Year     int        `json:"year"`
	Exists   bool       `json:"exists"`
	Count    int        `json:"count"`
	Holidays []EntryDTO `json:"holidays"`
}

// HolidayImportRequest selects the year to import.
type HolidayImportRequest struct {
	Year int `json:"year"`
}

// HolidayImportResponse reports an import.
type HolidayImportResponse struct {
	Year  int    `json:"year"`
	State string `json:"state"`
	overtime.HolidayImport
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest is the request body for loading a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
