/*
main.go - Application entry point

PURPOSE:
  Command-line front end of the Worktime Overtime Engine. The default
  command serves the HTTP API; the others run one-off operations against
  the same database.

COMMANDS:
  serve       Start the HTTP server (default)
  migrate     Apply migrations and print the schema version
  balance     Print a user's overtime balance
  problems    List problem days of a user
  holidays    Import a year of public holidays for a user
  seed        Load a demo scenario

GLOBAL FLAGS:
  --config   TOML config file (default: worktime.toml, optional)
  --db       SQLite database path, overrides [database] path
             Use ":memory:" for in-memory database
  --port     HTTP server port, overrides [server] port

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete ([server] shutdown_timeout)
  3. Stop the cache sweeper, close cache and database
  4. Exit

EXAMPLES:
  ./server serve --db="./data/worktime.db"
  ./server seed --scenario=problem-days
  ./server balance --user=demo --from=2025-01-01 --to=2025-06-30

SEE ALSO:
  - app.go: Dependency wiring
  - api/server.go: Router configuration
  - config/config.go: File format
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/worktime-engine/api"
	"github.com/warp/worktime-engine/overtime"
	"github.com/warp/worktime-engine/timesheet"
)

var (
	configPath string
	dbPath     string
	port       int
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Overtime engine for personal time tracking",
	Long:          `Tracks logged work hours against a weekly schedule and reports overtime balances, statistics and problem days.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		cfg := app.Config.Server
		router := api.NewRouter(api.NewHandler(app.Service, app.Store, app.Holidays, app.Logger), cfg.CORSOrigins)

		server := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout.Duration,
			WriteTimeout: cfg.WriteTimeout.Duration,
			IdleTimeout:  cfg.IdleTimeout.Duration,
		}

		errCh := make(chan error, 1)
		go func() {
			app.Logger.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d", cfg.Port), "db", app.Config.Database.Path, "cache", app.Config.Cache.Backend)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		// Wait for interrupt signal
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-quit:
		}

		app.Logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		app.Logger.Info("server stopped")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and print the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		version, dirty, err := app.Store.MigrationVersion()
		if err != nil {
			return err
		}
		fmt.Printf("Schema version %d", version)
		if dirty {
			fmt.Print(" (dirty)")
		}
		fmt.Println()
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print a user's overtime balance",
	Long: `Print the overtime balance of a user.

Without --from the window starts the day after the carry-over adjustment,
or on January 1st of the current year. Without --to it ends today.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		params := overtime.BalanceParams{UserID: timesheet.UserID(user), IncludeDetails: true}

		var err error
		if params.StartDate, err = dateFlag(cmd, "from"); err != nil {
			return err
		}
		if params.EndDate, err = dateFlag(cmd, "to"); err != nil {
			return err
		}

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		balance, err := app.Service.CalculateBalance(cmd.Context(), params)
		if err != nil {
			return err
		}

		fmt.Printf("User:     %s\n", balance.UserID)
		fmt.Printf("Balance:  %sh\n", balance.Balance.StringFixed(2))
		if d := balance.Details; d != nil {
			fmt.Printf("Actual:   %sh\n", d.ActualHours.StringFixed(2))
			fmt.Printf("Target:   %sh\n", d.TargetHours.StringFixed(2))
		}
		return nil
	},
}

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "List days with missing or incomplete hours",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		filters := overtime.ProblemFilters{}
		filters.ProblemType, _ = cmd.Flags().GetString("type")
		filters.ReviewStatus, _ = cmd.Flags().GetString("review-status")
		filters.SortBy, _ = cmd.Flags().GetString("sort")

		from, err := dateFlag(cmd, "from")
		if err != nil {
			return err
		}
		to, err := dateFlag(cmd, "to")
		if err != nil {
			return err
		}
		switch {
		case from != nil && to != nil:
			r := timesheet.NewRange(*from, *to)
			filters.Range = &r
		case from != nil || to != nil:
			return errors.New("--from and --to must be given together")
		}

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		report, err := app.Service.FindProblematicDays(cmd.Context(), timesheet.UserID(user), filters)
		if err != nil {
			return err
		}

		for _, p := range report.Problems {
			reviewed := ""
			if p.IsReviewed {
				reviewed = " [reviewed]"
			}
			fmt.Printf("%s  %-10s %5sh of %sh  %s%s\n",
				p.Date, p.Type, p.CurrentHours.StringFixed(2), p.ExpectedHours.StringFixed(2), p.Suggestion, reviewed)
		}
		s := report.Stats
		fmt.Printf("\n%d problems (%d missing, %d zero hours, %d incomplete)\n",
			s.TotalProblems, s.MissingDays, s.ZeroHoursDays, s.IncompleteDays)
		return nil
	},
}

var holidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "Import a year of public holidays as HOLIDAY entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		year, _ := cmd.Flags().GetInt("year")
		if year == 0 {
			year = time.Now().Year()
		}

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		holidays, err := app.Holidays.Year(cmd.Context(), year)
		if err != nil {
			return err
		}
		result, err := app.Service.ImportHolidays(cmd.Context(), timesheet.UserID(user), holidays)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d holidays for %d (%d already present)\n", result.Imported, year, result.Skipped)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset the database and load a demo scenario",
	Long: `Reset the database and load a demo scenario for user "demo".

All existing data is deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("scenario")
		if id == "" {
			fmt.Println("Available scenarios:")
			for _, s := range api.Scenarios() {
				fmt.Printf("  %-16s %s\n", s.ID, s.Description)
			}
			return nil
		}

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		h := api.NewHandler(app.Service, app.Store, app.Holidays, app.Logger)
		if err := h.LoadScenarioByID(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Loaded scenario %s for user %s\n", id, api.ScenarioUser)
		return nil
	},
}

func dateFlag(cmd *cobra.Command, name string) (*timesheet.Date, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, nil
	}
	d, err := timesheet.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &d, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "worktime.toml", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "HTTP server port (overrides config)")

	balanceCmd.Flags().String("user", "", "User ID")
	balanceCmd.Flags().String("from", "", "First day (YYYY-MM-DD)")
	balanceCmd.Flags().String("to", "", "Last day (YYYY-MM-DD)")
	_ = balanceCmd.MarkFlagRequired("user")

	problemsCmd.Flags().String("user", "", "User ID")
	problemsCmd.Flags().String("from", "", "First day (YYYY-MM-DD)")
	problemsCmd.Flags().String("to", "", "Last day (YYYY-MM-DD)")
	problemsCmd.Flags().String("type", "all", "missing | zero_hours | incomplete | all")
	problemsCmd.Flags().String("review-status", overtime.ReviewUnreviewed, "reviewed | unreviewed | all")
	problemsCmd.Flags().String("sort", overtime.SortDateDesc, "date_asc | date_desc | type")
	_ = problemsCmd.MarkFlagRequired("user")

	holidaysCmd.Flags().String("user", "", "User ID")
	holidaysCmd.Flags().Int("year", 0, "Year to import (default: current year)")
	_ = holidaysCmd.MarkFlagRequired("user")

	seedCmd.Flags().String("scenario", "", "Scenario ID (empty lists scenarios)")

	rootCmd.AddCommand(serveCmd, migrateCmd, balanceCmd, problemsCmd, holidaysCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
