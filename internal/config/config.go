package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/vango-dev/metalens/internal/errors"
)

const (
	// ConfigFileName is the default configuration file name.
	ConfigFileName = "metalens.yaml"

	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "METALENS_"

	// DefaultAddress is the default listen address.
	DefaultAddress = ":8080"

	// DefaultUserAgent is sent with every page fetch.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultStorePath is the default SQLite database path.
	DefaultStorePath = "metalens.db"
)

// Config is the complete metalens configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" koanf:"server"`
	Analyzer AnalyzerConfig `yaml:"analyzer" koanf:"analyzer"`
	Feedback FeedbackConfig `yaml:"feedback" koanf:"feedback"`
	Store    StoreConfig    `yaml:"store" koanf:"store"`
	Export   ExportConfig   `yaml:"export" koanf:"export"`
	Metrics  MetricsConfig  `yaml:"metrics" koanf:"metrics"`
	Log      LogConfig      `yaml:"log" koanf:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Address is the listen address.
	Address string `yaml:"address" koanf:"address"`

	// AllowAllOrigins relaxes CORS on the JSON API (development only).
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`

	ReadTimeout     time.Duration `yaml:"read_timeout" koanf:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" koanf:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" koanf:"shutdown_timeout"`

	// MaxEventQueue is the per-session event loop queue size.
	MaxEventQueue int `yaml:"max_event_queue" koanf:"max_event_queue"`

	// MaxSessions caps concurrent live sessions (0 = unlimited).
	MaxSessions int `yaml:"max_sessions" koanf:"max_sessions"`

	// MaxMessageSize caps a client WebSocket message in bytes.
	MaxMessageSize int64 `yaml:"max_message_size" koanf:"max_message_size"`
}

// AnalyzerConfig contains page fetch and scoring settings.
type AnalyzerConfig struct {
	UserAgent    string        `yaml:"user_agent" koanf:"user_agent"`
	Timeout      time.Duration `yaml:"timeout" koanf:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" koanf:"max_body_bytes"`

	TitleMin       int `yaml:"title_min" koanf:"title_min"`
	TitleMax       int `yaml:"title_max" koanf:"title_max"`
	DescriptionMin int `yaml:"description_min" koanf:"description_min"`
	DescriptionMax int `yaml:"description_max" koanf:"description_max"`
}

// FeedbackConfig contains notification and busy-state timing.
type FeedbackConfig struct {
	InfoDelay    time.Duration `yaml:"info_delay" koanf:"info_delay"`
	SuccessDelay time.Duration `yaml:"success_delay" koanf:"success_delay"`
	WarningDelay time.Duration `yaml:"warning_delay" koanf:"warning_delay"`
	ErrorDelay   time.Duration `yaml:"error_delay" koanf:"error_delay"`
	BusyCeiling  time.Duration `yaml:"busy_ceiling" koanf:"busy_ceiling"`
}

// StoreConfig contains database settings.
type StoreConfig struct {
	Path string `yaml:"path" koanf:"path"`
}

// ExportConfig contains S3 report export settings. An empty Bucket
// disables export.
type ExportConfig struct {
	Bucket    string `yaml:"bucket" koanf:"bucket"`
	Prefix    string `yaml:"prefix" koanf:"prefix"`
	Region    string `yaml:"region" koanf:"region"`
	Endpoint  string `yaml:"endpoint" koanf:"endpoint"`
	PathStyle bool   `yaml:"path_style" koanf:"path_style"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" koanf:"enabled"`
	Namespace string `yaml:"namespace" koanf:"namespace"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         DefaultAddress,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxEventQueue:   256,
			MaxMessageSize:  64 << 10,
		},
		Analyzer: AnalyzerConfig{
			UserAgent:      DefaultUserAgent,
			Timeout:        10 * time.Second,
			MaxBodyBytes:   5 << 20,
			TitleMin:       30,
			TitleMax:       60,
			DescriptionMin: 120,
			DescriptionMax: 160,
		},
		Feedback: FeedbackConfig{
			InfoDelay:    3 * time.Second,
			SuccessDelay: 3 * time.Second,
			WarningDelay: 5 * time.Second,
			ErrorDelay:   5 * time.Second,
			BusyCeiling:  30 * time.Second,
		},
		Store: StoreConfig{
			Path: DefaultStorePath,
		},
		Export: ExportConfig{
			Prefix: "reports/",
			Region: "us-east-1",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "metalens",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from path, then overlays METALENS_* environment
// variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := New()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errors.New(errors.CodeConfigLoad).
					WithDetail("Failed to parse " + path + ": " + err.Error()).
					Wrap(err)
			}
			cfg.configPath = path
		} else if !os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigLoad).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.New(errors.CodeConfigLoad).
			WithDetail("Failed to read environment overrides").
			Wrap(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.New(errors.CodeConfigLoad).
			WithDetail("Failed to decode configuration: " + err.Error()).
			Wrap(err)
	}

	return cfg, nil
}

// envKey maps METALENS_SECTION_SOME_KEY to section.some_key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return errors.New(errors.CodeConfigLoad).Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New(errors.CodeConfigLoad).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from, if any.
func (c *Config) Path() string {
	return c.configPath
}

var validLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(msg string) error {
		return errors.New(errors.CodeConfigInvalid).Args(msg)
	}

	if c.Server.Address == "" {
		return invalid("server.address is required")
	}
	if c.Server.MaxEventQueue < 0 || c.Server.MaxSessions < 0 {
		return invalid("server limits must be non-negative")
	}
	if c.Server.MaxMessageSize <= 0 {
		return invalid("server.max_message_size must be positive")
	}
	if c.Analyzer.Timeout <= 0 {
		return invalid("analyzer.timeout must be positive")
	}
	if c.Analyzer.TitleMin > c.Analyzer.TitleMax {
		return invalid("analyzer.title_min must not exceed analyzer.title_max")
	}
	if c.Analyzer.DescriptionMin > c.Analyzer.DescriptionMax {
		return invalid("analyzer.description_min must not exceed analyzer.description_max")
	}
	for name, d := range map[string]time.Duration{
		"feedback.info_delay":    c.Feedback.InfoDelay,
		"feedback.success_delay": c.Feedback.SuccessDelay,
		"feedback.warning_delay": c.Feedback.WarningDelay,
		"feedback.error_delay":   c.Feedback.ErrorDelay,
		"feedback.busy_ceiling":  c.Feedback.BusyCeiling,
	} {
		if d < 0 {
			return invalid(name + " must not be negative")
		}
	}
	if c.Store.Path == "" {
		return invalid("store.path is required")
	}
	if _, ok := validLevels[strings.ToLower(c.Log.Level)]; !ok {
		return invalid("log.level must be one of debug, info, warn, error")
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return invalid("log.format must be text or json")
	}
	return nil
}

// SlogLevel returns the configured log level.
func (l LogConfig) SlogLevel() slog.Level {
	if lvl, ok := validLevels[strings.ToLower(l.Level)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// NewLogger builds a logger writing to w in the configured format.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.ToLower(l.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
