package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worktime.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9090
read_timeout = "5s"

[cache]
backend = "redis"
ttl = "90s"

[cache.redis]
addr = "cache:6379"
db = 2

[log]
level = "debug"

[holidays]
state = "by"
oracle = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Duration)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout.Duration, "unset keys keep defaults")
	assert.Equal(t, BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL.Duration)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)
	assert.Equal(t, "worktime", cfg.Cache.Redis.Namespace)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.Equal(t, "by", cfg.Holidays.State)
	assert.True(t, cfg.Holidays.Oracle)
}

func TestLoad_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":      "[server]\nprot = 1\n",
		"bad duration":     "[cache]\nttl = \"soon\"\n",
		"bad backend":      "[cache]\nbackend = \"memcached\"\n",
		"port range":       "[server]\nport = 70000\n",
		"zero ttl":         "[cache]\nttl = \"0s\"\n",
		"malformed toml":   "[server\n",
		"empty redis addr": "[cache]\nbackend = \"redis\"\n[cache.redis]\naddr = \"\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "worktime.toml")
	cfg := Default()
	cfg.Server.Port = 8181
	cfg.Cache.TTL = Duration{2 * time.Minute}

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
