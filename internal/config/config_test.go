package config

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/metalens/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Address != DefaultAddress {
		t.Errorf("Server.Address: got %q", cfg.Server.Address)
	}
	if cfg.Feedback.WarningDelay != 5*time.Second || cfg.Feedback.InfoDelay != 3*time.Second {
		t.Errorf("feedback delays: got %+v", cfg.Feedback)
	}
	if cfg.Server.MaxMessageSize != 64<<10 {
		t.Errorf("MaxMessageSize: got %d", cfg.Server.MaxMessageSize)
	}
	if cfg.Feedback.BusyCeiling != 30*time.Second {
		t.Errorf("BusyCeiling: got %v", cfg.Feedback.BusyCeiling)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analyzer.Timeout != 10*time.Second {
		t.Errorf("Analyzer.Timeout: got %v", cfg.Analyzer.Timeout)
	}
	if cfg.Path() != "" {
		t.Errorf("Path should be empty for a missing file, got %q", cfg.Path())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `
server:
  address: ":9000"
analyzer:
  timeout: 4s
  title_max: 70
feedback:
  warning_delay: 3s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("METALENS_STORE_PATH", "/tmp/override.db")
	t.Setenv("METALENS_SERVER_ALLOW_ALL_ORIGINS", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Address != ":9000" {
		t.Errorf("Server.Address: got %q", cfg.Server.Address)
	}
	if cfg.Analyzer.Timeout != 4*time.Second {
		t.Errorf("Analyzer.Timeout: got %v", cfg.Analyzer.Timeout)
	}
	if cfg.Analyzer.TitleMax != 70 || cfg.Analyzer.TitleMin != 30 {
		t.Errorf("title bounds: got %d-%d", cfg.Analyzer.TitleMin, cfg.Analyzer.TitleMax)
	}
	if cfg.Feedback.WarningDelay != 3*time.Second {
		t.Errorf("WarningDelay: got %v", cfg.Feedback.WarningDelay)
	}
	if cfg.Store.Path != "/tmp/override.db" {
		t.Errorf("Store.Path: got %q", cfg.Store.Path)
	}
	if !cfg.Server.AllowAllOrigins {
		t.Error("AllowAllOrigins should come from the environment")
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel: got %v", cfg.Log.SlogLevel())
	}
	if cfg.Path() != path {
		t.Errorf("Path: got %q", cfg.Path())
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !stderrors.Is(err, errors.New(errors.CodeConfigLoad)) {
		t.Errorf("expected config load error, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := New()
	cfg.Export.Bucket = "reports"
	cfg.Feedback.BusyCeiling = 45 * time.Second

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Export.Bucket != "reports" {
		t.Errorf("Export.Bucket: got %q", loaded.Export.Bucket)
	}
	if loaded.Feedback.BusyCeiling != 45*time.Second {
		t.Errorf("BusyCeiling: got %v", loaded.Feedback.BusyCeiling)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty address", func(c *Config) { c.Server.Address = "" }, "server.address"},
		{"zero message size", func(c *Config) { c.Server.MaxMessageSize = 0 }, "server.max_message_size"},
		{"zero timeout", func(c *Config) { c.Analyzer.Timeout = 0 }, "analyzer.timeout"},
		{"title bounds", func(c *Config) { c.Analyzer.TitleMin = 90 }, "title_min"},
		{"negative delay", func(c *Config) { c.Feedback.ErrorDelay = -time.Second }, "feedback.error_delay"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"empty store", func(c *Config) { c.Store.Path = "" }, "store.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if errors.CodeOf(err) != errors.CodeConfigInvalid {
				t.Errorf("code: got %q", errors.CodeOf(err))
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	cases := map[string]string{
		"METALENS_SERVER_ADDRESS":           "server.address",
		"METALENS_SERVER_ALLOW_ALL_ORIGINS": "server.allow_all_origins",
		"METALENS_LOG_LEVEL":                "log.level",
	}
	for in, want := range cases {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var b strings.Builder
	LogConfig{Level: "info", Format: "json"}.NewLogger(&b).Info("hello", "k", "v")
	if !strings.HasPrefix(b.String(), "{") {
		t.Errorf("json logger produced %q", b.String())
	}

	b.Reset()
	LogConfig{Level: "warn", Format: "text"}.NewLogger(&b).Info("hidden")
	if b.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", b.String())
	}
}
