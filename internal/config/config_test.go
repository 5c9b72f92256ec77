package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[development]
port = 8080
log_level = "debug"
db_path = "dev.db"
session_idle_timeout = "30s"

[development.recognizer]
confidence_threshold = 0.6
min_frames = 8

[development.fatigue]
window = 20
dynamic = false

[production]
host = "0.0.0.0"
port = 80
log_json = true
fatigue_warning = 0.4
`

func TestToml_Get(t *testing.T) {
	tm := &Toml{Development: &Config{Port: 1}, Production: &Config{Port: 2}}

	cfg, err := tm.Get("dev")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Port)

	cfg, err = tm.Get("Production")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Port)

	_, err = tm.Get("staging")
	require.EqualError(t, err, "unknown env: staging")
}

func TestParse_Development(t *testing.T) {
	cfg, err := Parse(testConfig, "development")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "dev.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.SessionIdleTimeout.Duration)

	rc := cfg.Recognizer()
	assert.Equal(t, 0.6, rc.ConfidenceThreshold)
	assert.Equal(t, 8, rc.MinFrames)
	assert.Equal(t, 5, rc.SmoothWindow)
	assert.True(t, rc.QuickDetect)

	fc := cfg.Fatigue()
	assert.Equal(t, 20, fc.Window)
	assert.Equal(t, 0.15, fc.Threshold)
	assert.False(t, fc.Dynamic)
}

func TestParse_Production(t *testing.T) {
	cfg, err := Parse(testConfig, "prod")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:80", cfg.Addr())
	assert.True(t, cfg.LogFormatJSON)
	assert.Equal(t, 0.4, cfg.FatigueWarning)
	assert.Equal(t, 10*time.Minute, cfg.SessionIdleTimeout.Duration)
	assert.Equal(t, 5*time.Second, cfg.PluginTimeout())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("port = [", "dev")
	require.ErrorContains(t, err, "decode config")

	_, err = Parse(testConfig, "qa")
	require.ErrorContains(t, err, "unknown env")

	_, err = Parse("[development]\nport = 0\nfatigue_warning = 2.0", "dev")
	require.ErrorContains(t, err, "invalid port")
	require.ErrorContains(t, err, "fatigue_warning out of range")

	_, err = Parse("[development]\nsession_idle_timeout = \"soon\"", "dev")
	require.ErrorContains(t, err, "parse duration")
}

func TestLoad(t *testing.T) {
	cfg, err := Load("dev", "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	cfg, err = Load("development", path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)

	_, err = Load("dev", filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorContains(t, err, "read config")
}
