/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request log (level by status class)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/health                 Liveness
  /api/users/{userID}/*       Per-user overtime, entries, settings, problems
  /api/cache/*                Cache administration
  /api/scenarios/*            Demo scenarios

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultCORSOrigins are the dev frontends allowed when none are configured.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	if len(corsOrigins) == 0 {
		corsOrigins = DefaultCORSOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/users/{userID}", func(r chi.Router) {
			// Overtime routes
			r.Route("/overtime", func(r chi.Router) {
				r.Get("/", h.GetOvertime)
				r.Post("/recalculate", h.RecalculateOvertime)
				r.Post("/invalidate", h.InvalidateOvertime)
			})

			// Statistics routes
			r.Get("/statistics/weekly", h.GetWeeklyStatistics)
			r.Get("/statistics/monthly", h.GetMonthlyStatistics)
			r.Post("/statistics/weekly/bulk", h.BulkWeeklyStatistics)
			r.Get("/statistics/yearly", h.GetYearlyOverview)
			r.Get("/statistics/quarterly", h.GetQuarterStatistics)

			// Entry routes
			r.Route("/entries", func(r chi.Router) {
				r.Get("/", h.ListEntries)
				r.Post("/", h.CreateEntry)
				r.Post("/bulk-delete", h.BulkDeleteEntries)
				r.Post("/bulk-fill", h.BulkFill)
				r.Post("/bulk-fill/preview", h.PreviewBulkFill)
				r.Get("/week", h.GetWeekView)
				r.Get("/week/{year}/{week}", h.GetWeekView)
				r.Put("/{entryID}", h.UpdateEntry)
				r.Delete("/{entryID}", h.DeleteEntry)
			})

			r.Get("/adjustment", h.GetAdjustment)
			r.Put("/adjustment", h.SetAdjustment)

			// Settings routes
			r.Route("/settings", func(r chi.Router) {
				r.Get("/", h.GetSettings)
				r.Put("/", h.UpdateSettings)
				r.Delete("/", h.ResetSettings)
			})

			// Problem routes
			r.Route("/problems", func(r chi.Router) {
				r.Get("/", h.GetProblems)
				r.Get("/review", h.ListReviewedDays)
				r.Post("/review", h.MarkDayReviewed)
				r.Put("/review", h.MarkDaysReviewed)
				r.Delete("/review/{date}", h.UnreviewDay)
			})

			// Holiday routes
			r.Get("/holidays", h.GetHolidays)
			r.Post("/holidays", h.ImportHolidays)
		})

		r.Post("/cache/invalidate", h.InvalidateAll)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

// RequestLogger logs one line per request: 5xx at error, 4xx at warn,
// everything else at info.
func RequestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []any{
				"status", status,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"latency", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			}

			switch {
			case status >= 500:
				l.Error("request failed", fields...)
			case status >= 400:
				l.Warn("client error", fields...)
			default:
				l.Info("request completed", fields...)
			}
		})
	}
}
