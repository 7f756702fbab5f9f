package holiday

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/worktime-engine/timesheet"
)

// Fetcher loads the holidays of one year. *Client is a Fetcher.
type Fetcher interface {
	Year(ctx context.Context, year int) ([]timesheet.Holiday, error)
}

// Calendar answers holiday lookups from fetched years, loading each
// non-empty year at most once. The same holidays apply to every user.
type Calendar struct {
	fetch Fetcher

	mu    sync.Mutex
	years map[int]map[timesheet.Date]string
}

// NewCalendar loads years lazily from f.
func NewCalendar(f Fetcher) *Calendar {
	return &Calendar{fetch: f, years: make(map[int]map[timesheet.Date]string)}
}

// StaticCalendar serves a fixed list. Years without holidays in the list
// are empty, never fetched.
func StaticCalendar(holidays []timesheet.Holiday) *Calendar {
	c := &Calendar{years: make(map[int]map[timesheet.Date]string)}
	for _, h := range holidays {
		c.yearLocked(h.Date.Year())[h.Date] = h.Name
	}
	return c
}

func (c *Calendar) yearLocked(year int) map[timesheet.Date]string {
	days, ok := c.years[year]
	if !ok {
		days = make(map[timesheet.Date]string)
		c.years[year] = days
	}
	return days
}

func (c *Calendar) load(ctx context.Context, year int) (map[timesheet.Date]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if days, ok := c.years[year]; ok || c.fetch == nil {
		return days, nil
	}
	if ValidateYear(year) != nil {
		// Outside the supported window there is nothing to fetch.
		return c.yearLocked(year), nil
	}

	holidays, err := c.fetch.Year(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("load holidays %d: %w", year, err)
	}
	// An empty year means the upstream had no data (a non-success status).
	// It is not kept so the next lookup asks again.
	if len(holidays) == 0 {
		return nil, nil
	}
	days := c.yearLocked(year)
	for _, h := range holidays {
		days[h.Date] = h.Name
	}
	return days, nil
}

// IsHoliday implements timesheet.HolidayOracle.
func (c *Calendar) IsHoliday(ctx context.Context, _ timesheet.UserID, d timesheet.Date) (bool, error) {
	days, err := c.load(ctx, d.Year())
	if err != nil {
		return false, err
	}
	_, ok := days[d]
	return ok, nil
}

// HolidaysIn lists the holidays inside r, loading each year r touches.
func (c *Calendar) HolidaysIn(ctx context.Context, _ timesheet.UserID, r timesheet.Range) ([]timesheet.Date, error) {
	if r.IsEmpty() {
		return nil, nil
	}
	var out []timesheet.Date
	for year := r.Start.Year(); year <= r.End.Year(); year++ {
		days, err := c.load(ctx, year)
		if err != nil {
			return nil, err
		}
		for d := range days {
			if r.Contains(d) {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

// Name returns the holiday's name, or "" when d is not a holiday.
func (c *Calendar) Name(ctx context.Context, d timesheet.Date) (string, error) {
	days, err := c.load(ctx, d.Year())
	if err != nil {
		return "", err
	}
	return days[d], nil
}
