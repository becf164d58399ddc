package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forest-guardian/index-series/internal/series"
)

// unsetEnv clears key for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	unsetEnv(t, "INDEX_SERIES_ROOT")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, series.DefaultConfig(), cfg.Engine)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, filepath.Join("data", "cache"), cfg.Cache.Dir)
	assert.Equal(t, 3, cfg.Workers)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := isolate(t)

	yaml := `
engine:
  cloud_cover_threshold: 20
  max_gap_days: 10
  robust_iterations: 2
log:
  level: debug
  format: console
workers: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 20, cfg.Engine.CloudCoverThreshold, 1e-9)
	assert.Equal(t, 10, cfg.Engine.MaxGapDays)
	assert.Equal(t, 2, cfg.Engine.RobustIterations)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Workers)
	// Defaults still apply for unset values
	assert.InDelta(t, 100, cfg.Engine.Lambda, 1e-9)
	assert.Equal(t, 2, cfg.Engine.Order)
}

func TestLoadFromRootPath(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	t.Setenv("INDEX_SERIES_ROOT", root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.yaml"), []byte("output:\n  dir: results\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "results", cfg.Output.Dir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("engine:\n  max_gap_days: 10\n"), 0644))
	t.Setenv("INDEX_SERIES_ENGINE_MAX_GAP_DAYS", "45")
	t.Setenv("INDEX_SERIES_CACHE_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.Engine.MaxGapDays)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	unsetEnv(t, "INDEX_SERIES_WORKERS")
	unsetEnv(t, "DISCORD_ERROR_NOTIFICATION_URL")
	unsetEnv(t, "INDEX_SERIES_NOTIFICATION_DISCORD_ERROR_URL")
	env := "INDEX_SERIES_WORKERS=7\nDISCORD_ERROR_NOTIFICATION_URL=https://discord.example/hook\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "https://discord.example/hook", cfg.Notification.DiscordErrorURL)
	assert.Empty(t, cfg.Notification.DiscordSuccessURL)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("engine: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Engine:  series.DefaultConfig(),
			Log:     LogConfig{Level: "info", Format: "json"},
			Output:  OutputConfig{Dir: "output"},
			Cache:   CacheConfig{Enabled: true, Dir: "cache"},
			Workers: 1,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"no output dir", func(c *Config) { c.Output.Dir = "" }, "output.dir"},
		{"cache without dir", func(c *Config) { c.Cache.Dir = "" }, "cache.dir"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad engine", func(c *Config) { c.Engine.Order = 9 }, "order"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	c := valid()
	c.Cache = CacheConfig{Enabled: false}
	assert.NoError(t, c.Validate())
}

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
