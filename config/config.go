/*
config.go - Server configuration loaded from TOML

PURPOSE:
  One Config for the whole process. Values start from Default() and are
  overlaid by the TOML file, then by command-line flags.

FILE FORMAT:
  [server]
  port = 8080
  read_timeout = "15s"
  cors_origins = ["http://localhost:5173"]

  [database]
  path = "worktime.db"

  [cache]
  backend = "memory"        # memory | redis
  ttl = "5m"
  sweep_interval = "1m"
  [cache.redis]
  addr = "localhost:6379"

  [log]
  level = "info"
  file = ""

  [holidays]
  base_url = "https://get.api-feiertage.de"
  state = "ni"
  oracle = false            # also treat fetched holidays as rest days

SEE ALSO:
  - cmd/server/main.go: flag overrides
  - logger/logger.go: [log] section
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/warp/worktime-engine/logger"
)

// Duration is a time.Duration written as "15s", "5m" in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}

type ServerConfig struct {
	Port            int      `toml:"port"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	IdleTimeout     Duration `toml:"idle_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	CORSOrigins     []string `toml:"cors_origins"`
}

type DatabaseConfig struct {
	// Path of the SQLite file; ":memory:" keeps everything in memory.
	Path string `toml:"path"`
}

type RedisConfig struct {
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	Namespace string `toml:"namespace"`
}

type CacheConfig struct {
	Backend       string      `toml:"backend"`
	TTL           Duration    `toml:"ttl"`
	SweepInterval Duration    `toml:"sweep_interval"`
	Redis         RedisConfig `toml:"redis"`
}

type HolidayConfig struct {
	BaseURL string `toml:"base_url"`
	State   string `toml:"state"`
	Oracle  bool   `toml:"oracle"`
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Cache    CacheConfig    `toml:"cache"`
	Log      logger.Config  `toml:"log"`
	Holidays HolidayConfig  `toml:"holidays"`
}

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{15 * time.Second},
			IdleTimeout:     Duration{60 * time.Second},
			ShutdownTimeout: Duration{30 * time.Second},
			CORSOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Database: DatabaseConfig{Path: "worktime.db"},
		Cache: CacheConfig{
			Backend:       BackendMemory,
			TTL:           Duration{5 * time.Minute},
			SweepInterval: Duration{time.Minute},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				Namespace: "worktime",
			},
		},
		Log: logger.DefaultConfig(),
		Holidays: HolidayConfig{
			BaseURL: "https://get.api-feiertage.de",
			State:   "ni",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
	}

	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as TOML, creating the parent directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks values flags and files can get wrong.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	switch c.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return errors.New("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend %q must be %s or %s", c.Cache.Backend, BackendMemory, BackendRedis)
	}
	if c.Cache.TTL.Duration <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	return nil
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
