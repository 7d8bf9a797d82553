package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint64(1800), cfg.AutosaveFrames())
	l, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, l)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atomsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9000\"\nfps: 30\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, 30, cfg.AutosaveSeconds, "unset keys keep defaults")
	l, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atomsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: from-file.db\nseed: 5\n"), 0o644))
	t.Setenv("ATOMSIM_CONFIG", path)
	t.Setenv("ATOMSIM_ADDR", ":7000")
	t.Setenv("ATOMSIM_SEED", "99")
	t.Setenv("ATOMSIM_CLICK_RATE", "2.5")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "from-file.db", cfg.DBPath)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, 2.5, cfg.ClickRate)
}

func TestFromEnv_BadValues(t *testing.T) {
	t.Setenv("ATOMSIM_FPS", "fast")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "ATOMSIM_FPS")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"zero fps":        func(c *Config) { c.FPS = 0 },
		"zero autosave":   func(c *Config) { c.AutosaveSeconds = 0 },
		"negative speed":  func(c *Config) { c.Speed = -1 },
		"negative clicks": func(c *Config) { c.ClickRate = -1 },
		"no db":           func(c *Config) { c.DBPath = "" },
		"bad level":       func(c *Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
