/*
client.go - Public holiday lookup against the api-feiertage.de service

PURPOSE:
  Fetches the German public holidays of one year and keeps those that
  apply to the configured federal state and fall on a weekday. Weekend
  holidays never change a target, so they are dropped at the source.

RESPONSE SHAPE:
  {"status": "success", "feiertage": [
    {"date": "2025-04-18", "fname": "Karfreitag", "all_states": "1", "ni": "1", ...}
  ]}
  A holiday applies when its state column or all_states is "1".

SEE ALSO:
  - calendar.go: HolidayOracle over fetched years
  - overtime/service.go: ImportHolidays turns holidays into entries
*/
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/warp/worktime-engine/timesheet"
)

const (
	DefaultBaseURL = "https://get.api-feiertage.de"
	DefaultState   = "ni" // Niedersachsen
)

// Years outside this window are rejected before any request is made.
const (
	MinYear = 2020
	MaxYear = 2030
)

// ValidateYear rejects years the import does not support.
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return timesheet.Invalid("year", "year %d out of range %d-%d", year, MinYear, MaxYear)
	}
	return nil
}

// Client fetches holidays over HTTP.
type Client struct {
	baseURL    string
	state      string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a client. Empty baseURL or state use the defaults.
func NewClient(baseURL, state string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if state == "" {
		state = DefaultState
	}
	c := &Client{
		baseURL:    baseURL,
		state:      state,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State is the federal state column the client filters on.
func (c *Client) State() string { return c.state }

type apiResponse struct {
	Status    string           `json:"status"`
	Feiertage []map[string]any `json:"feiertage"`
}

// Year returns the weekday holidays of year valid in the client's state,
// sorted by date. A response without status "success" yields no holidays.
func (c *Client) Year(ctx context.Context, year int) ([]timesheet.Holiday, error) {
	if err := ValidateYear(year); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("years", strconv.Itoa(year))
	q.Set("states", c.state)
	endpoint := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holiday API request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday API error %d: %s", resp.StatusCode, string(body))
	}

	var page apiResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decoding holiday response: %w", err)
	}
	if page.Status != "success" {
		return nil, nil
	}

	var holidays []timesheet.Holiday
	for _, raw := range page.Feiertage {
		if field(raw, c.state) != "1" && field(raw, "all_states") != "1" {
			continue
		}
		d, err := timesheet.ParseDate(field(raw, "date"))
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", field(raw, "fname"), err)
		}
		if d.IsWeekend() {
			continue
		}
		holidays = append(holidays, timesheet.Holiday{Date: d, Name: field(raw, "fname")})
	}
	slices.SortFunc(holidays, func(a, b timesheet.Holiday) int { return a.Date.Time.Compare(b.Date.Time) })
	return holidays, nil
}

func field(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
