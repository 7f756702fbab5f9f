package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/warp/worktime-engine/api"
	"github.com/warp/worktime-engine/cache"
	"github.com/warp/worktime-engine/cache/redis"
	"github.com/warp/worktime-engine/config"
	"github.com/warp/worktime-engine/holiday"
	"github.com/warp/worktime-engine/logger"
	"github.com/warp/worktime-engine/overtime"
	"github.com/warp/worktime-engine/store/sqlite"
)

// app holds the dependencies shared by every command.
type app struct {
	Config   *config.Config
	Logger   *log.Logger
	Store    *sqlite.Store
	Service  *overtime.Service
	Holidays *holiday.Client

	closers []io.Closer
	sweeper *api.CacheSweeper
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database.Path = dbPath
	}
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	l, logCloser, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	a := &app{Config: cfg, Logger: l, closers: []io.Closer{logCloser}}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, store)

	var c cache.Cache
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		rc, err := redis.New(cmd.Context(), redis.Config{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			Namespace: cfg.Cache.Redis.Namespace,
			TTL:       cfg.Cache.TTL.Duration,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rc)
		c = rc
	default:
		mem := cache.NewMemory(cache.WithTTL(cfg.Cache.TTL.Duration))
		if cfg.Cache.SweepInterval.Duration > 0 {
			a.sweeper = api.NewCacheSweeper(mem, l)
			a.sweeper.Interval = cfg.Cache.SweepInterval.Duration
			a.sweeper.Start()
		}
		c = mem
	}

	a.Holidays = holiday.NewClient(cfg.Holidays.BaseURL, cfg.Holidays.State)

	svcCfg := overtime.Config{
		Store:  store,
		Cache:  c,
		TTL:    cfg.Cache.TTL.Duration,
		Logger: l,
	}
	if cfg.Holidays.Oracle {
		svcCfg.Holidays = holiday.NewCalendar(a.Holidays)
	}
	a.Service = overtime.NewService(svcCfg)

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && a.Logger != nil {
			a.Logger.Warn("close failed", "err", err)
		}
	}
}
