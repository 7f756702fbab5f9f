package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worktime.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath, dbPath, port = "worktime.toml", "", 0
	})
	return rootCmd.Execute()
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	// GIVEN: A config file with its own port and database
	path := writeConfig(t, `
[server]
port = 9000

[database]
path = "from-file.db"

[cache]
backend = "memory"
ttl = "1m"
`)

	// WHEN: Only --db is given on the command line
	require.NoError(t, rootCmd.ParseFlags([]string{"--config", path, "--db", ":memory:"}))
	t.Cleanup(func() {
		configPath, dbPath, port = "worktime.toml", "", 0
		rootCmd.Flags().Lookup("db").Changed = false
	})
	cfg, err := loadConfig(rootCmd)

	// THEN: The flag wins for the database, the file for the port
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "1m0s", cfg.Cache.TTL.String())
}

func TestSeed_LoadsScenario(t *testing.T) {
	path := writeConfig(t, "[log]\nlevel = \"error\"\n")
	err := execute(t, "seed", "--config", path, "--db", ":memory:", "--scenario", "standard-week")
	assert.NoError(t, err)
}

func TestSeed_UnknownScenario(t *testing.T) {
	path := writeConfig(t, "[log]\nlevel = \"error\"\n")
	err := execute(t, "seed", "--config", path, "--db", ":memory:", "--scenario", "nope")
	assert.ErrorContains(t, err, "unknown scenario")
}

func TestBalance_RejectsBadDate(t *testing.T) {
	err := execute(t, "balance", "--user", "alice", "--from", "June 1st")
	assert.ErrorContains(t, err, "--from")
}

func TestMigrate_ReportsVersion(t *testing.T) {
	path := writeConfig(t, "[log]\nlevel = \"error\"\n")
	assert.NoError(t, execute(t, "migrate", "--config", path, "--db", ":memory:"))
}
