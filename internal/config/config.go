// Package config loads the TOML service configuration for one environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ayusman/formcheck/internal/fatigue"
	"github.com/ayusman/formcheck/internal/recognize"
)

type Config struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	StaticDir string `toml:"static_dir"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	SentryDSN     string `toml:"sentry_dsn"`
	// storage
	DBPath string `toml:"db_path"`
	// plugins
	PluginDir       string `toml:"plugin_dir"`
	PluginTimeoutMs int    `toml:"plugin_timeout_ms"`
	// analysis
	RecognizerCfg      recognize.Config `toml:"recognizer"`
	FatigueCfg         fatigue.Config   `toml:"fatigue"`
	FatigueWarning     float64          `toml:"fatigue_warning"`
	SessionIdleTimeout Duration         `toml:"session_idle_timeout"`
}

// Duration is a time.Duration read from a TOML string such as "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a configuration with every field set.
func Default() *Config {
	return &Config{
		Host:               "localhost",
		Port:               9090,
		LogLevel:           "info",
		LogToStdout:        true,
		DBPath:             "formcheck.db",
		PluginDir:          "plugins",
		PluginTimeoutMs:    5000,
		RecognizerCfg:      recognize.DefaultConfig(),
		FatigueCfg:         fatigue.DefaultConfig(),
		FatigueWarning:     0.3,
		SessionIdleTimeout: Duration{10 * time.Minute},
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) PluginTimeout() time.Duration {
	return time.Duration(c.PluginTimeoutMs) * time.Millisecond
}

// Recognizer returns the recognizer configuration with zero fields defaulted.
func (c *Config) Recognizer() recognize.Config {
	def := recognize.DefaultConfig()
	cfg := c.RecognizerCfg
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if cfg.MinFrames <= 0 {
		cfg.MinFrames = def.MinFrames
	}
	if cfg.SmoothWindow <= 0 {
		cfg.SmoothWindow = def.SmoothWindow
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = def.HistorySize
	}
	return cfg
}

// Fatigue returns the fatigue configuration with zero fields defaulted.
func (c *Config) Fatigue() fatigue.Config {
	def := fatigue.DefaultConfig()
	cfg := c.FatigueCfg
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	return cfg
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.PluginTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("invalid plugin_timeout_ms: %d", c.PluginTimeoutMs))
	}
	if c.FatigueWarning < 0 || c.FatigueWarning > 1 {
		errs = append(errs, fmt.Errorf("fatigue_warning out of range: %v", c.FatigueWarning))
	}
	if c.SentryEnabled && c.SentryDSN == "" {
		errs = append(errs, errors.New("sentry_dsn is required when sentry is enabled"))
	}
	return errors.Join(errs...)
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Parse decodes a TOML document and returns the configuration for env.
// Fields absent from the document keep their Default values.
func Parse(data string, env string) (*Config, error) {
	t := Toml{Development: Default(), Production: Default()}
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", env, err)
	}
	return cfg, nil
}

// Load reads the config file at path. An empty path yields Default.
func Load(env, path string) (*Config, error) {
	if path == "" {
		return Parse("", env)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(string(data), env)
}
