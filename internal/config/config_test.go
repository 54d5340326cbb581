package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://www.instagram.com", cfg.Instagram.BaseURL)
	assert.Equal(t, "936619743392459", cfg.Instagram.AppID)
	assert.Empty(t, cfg.Instagram.SessionCookie)
	assert.False(t, cfg.Instagram.AllowAnonymous)
	assert.Equal(t, 10, cfg.Fetch.Concurrency)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.InDelta(t, 2.0, cfg.Fetch.BackoffBaseSecs, 0.001)
	assert.InDelta(t, 60.0, cfg.Fetch.BackoffMaxSecs, 0.001)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "gramscope.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
instagram:
  session_cookie: "sessionid=abc123"
fetch:
  concurrency: 4
  max_attempts: 5
store:
  driver: "off"
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sessionid=abc123", cfg.Instagram.SessionCookie)
	assert.Equal(t, 4, cfg.Fetch.Concurrency)
	assert.Equal(t, 5, cfg.Fetch.MaxAttempts)
	assert.Equal(t, "off", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.InDelta(t, 2.0, cfg.Fetch.BackoffBaseSecs, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
fetch:
  concurrency: 4
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("GRAMSCOPE_FETCH_CONCURRENCY", "8")
	t.Setenv("GRAMSCOPE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, 8, cfg.Fetch.Concurrency)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("GRAMSCOPE_INSTAGRAM_SESSION_COOKIE", "sessionid=fromenv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sessionid=fromenv", cfg.Instagram.SessionCookie)
}

func validDefaults() *Config {
	return &Config{
		Instagram: InstagramConfig{SessionCookie: "sessionid=abc"},
		Fetch: FetchConfig{
			Concurrency:     10,
			MaxAttempts:     3,
			BackoffBaseSecs: 2.0,
			BackoffMaxSecs:  60.0,
		},
	}
}

func TestValidate_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_MissingCredential(t *testing.T) {
	cfg := validDefaults()
	cfg.Instagram.SessionCookie = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "session_cookie is required")
}

func TestValidate_AnonymousAllowed(t *testing.T) {
	cfg := validDefaults()
	cfg.Instagram.SessionCookie = ""
	cfg.Instagram.AllowAnonymous = true

	assert.NoError(t, cfg.Validate())
}

func TestValidate_Bounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Fetch.Concurrency = 0
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")

	cfg = validDefaults()
	cfg.Fetch.MaxAttempts = 0
	err = cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_attempts")

	cfg = validDefaults()
	cfg.Fetch.BackoffBaseSecs = 0
	err = cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "backoff_base_secs")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
