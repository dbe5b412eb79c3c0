package config

import (
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/rs/zerolog"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config must validate, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.History.MaxEntries != 50 {
		t.Errorf("expected 50 history entries, got %d", cfg.History.MaxEntries)
	}
	if cfg.History.Debounce() != 300*time.Millisecond {
		t.Errorf("expected 300ms debounce, got %v", cfg.History.Debounce())
	}
	if !cfg.Paste.AutoConvert {
		t.Error("expected paste auto-convert on by default")
	}
	if cfg.Paste.ProduceTimeout() != 3*time.Second {
		t.Errorf("expected 3s produce timeout, got %v", cfg.Paste.ProduceTimeout())
	}
	if cfg.Document.FormatVersion != "1.0" {
		t.Errorf("expected format version 1.0, got %q", cfg.Document.FormatVersion)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(fstest.MapFS{}, "blockpress.toml")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.History.MaxEntries != Default().History.MaxEntries {
		t.Errorf("expected defaults for a missing file, got %+v", cfg)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	fsys := fstest.MapFS{
		"blockpress.toml": &fstest.MapFile{Data: []byte(`
[history]
maxEntries = 10
debounceMs = 50

[paste]
autoConvert = false

[document]
kinds = ["paragraph", "code"]
`)},
	}

	cfg, err := Load(fsys, "blockpress.toml")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.History.MaxEntries != 10 {
		t.Errorf("expected maxEntries 10, got %d", cfg.History.MaxEntries)
	}
	if cfg.History.Debounce() != 50*time.Millisecond {
		t.Errorf("expected 50ms debounce, got %v", cfg.History.Debounce())
	}
	if cfg.Paste.AutoConvert {
		t.Error("expected autoConvert off")
	}
	if len(cfg.Document.Kinds) != 2 {
		t.Errorf("expected 2 kinds, got %v", cfg.Document.Kinds)
	}
	// Untouched sections keep their defaults.
	if cfg.Paste.ProduceTimeoutMs != 3000 {
		t.Errorf("expected default produce timeout, got %d", cfg.Paste.ProduceTimeoutMs)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level, got %q", cfg.Logging.Level)
	}
}

func TestLoadEmptyPathSkipsFile(t *testing.T) {
	cfg, err := Load(fstest.MapFS{}, "")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.History.MaxEntries != 50 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	fsys := fstest.MapFS{
		"blockpress.toml": &fstest.MapFile{Data: []byte("[history\nmaxEntries = ")},
	}
	if _, err := Load(fsys, "blockpress.toml"); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	fsys := fstest.MapFS{
		"blockpress.toml": &fstest.MapFile{Data: []byte("[history]\nmaxEntries = 0\n")},
	}
	if _, err := Load(fsys, "blockpress.toml"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	fsys := fstest.MapFS{
		"blockpress.toml": &fstest.MapFile{Data: []byte("[history]\nmaxEntries = 10\n")},
	}
	t.Setenv("BLOCKPRESS_HISTORY_MAX_ENTRIES", "25")
	t.Setenv("BLOCKPRESS_LOG_LEVEL", "debug")

	cfg, err := Load(fsys, "blockpress.toml")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.History.MaxEntries != 25 {
		t.Errorf("expected env to win with 25, got %d", cfg.History.MaxEntries)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"BLOCKPRESS_PASTE_AUTO_CONVERT":      "false",
		"BLOCKPRESS_PASTE_PATTERN_FILES":     "a.lua, b.lua,,c.lua",
		"BLOCKPRESS_DOCUMENT_FORMAT_VERSION": "2.1",
		"BLOCKPRESS_DOCUMENT_KINDS":          "paragraph,code",
	}
	cfg := Default()
	if err := applyEnv(&cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if cfg.Paste.AutoConvert {
		t.Error("expected autoConvert off")
	}
	if len(cfg.Paste.PatternFiles) != 3 || cfg.Paste.PatternFiles[2] != "c.lua" {
		t.Errorf("unexpected pattern files %v", cfg.Paste.PatternFiles)
	}
	if cfg.Document.FormatVersion != "2.1" {
		t.Errorf("expected format version 2.1, got %q", cfg.Document.FormatVersion)
	}
	if len(cfg.Document.Kinds) != 2 {
		t.Errorf("unexpected kinds %v", cfg.Document.Kinds)
	}
}

func TestApplyEnvBadValues(t *testing.T) {
	tests := []struct {
		key string
		val string
	}{
		{"BLOCKPRESS_HISTORY_MAX_ENTRIES", "many"},
		{"BLOCKPRESS_PASTE_AUTO_CONVERT", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := Default()
			err := applyEnv(&cfg, func(k string) (string, bool) {
				if k == tt.key {
					return tt.val, true
				}
				return "", false
			})
			if !errors.Is(err, ErrInvalidValue) {
				t.Errorf("expected ErrInvalidValue, got %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero history", func(c *Config) { c.History.MaxEntries = 0 }},
		{"negative debounce", func(c *Config) { c.History.DebounceMs = -1 }},
		{"zero produce timeout", func(c *Config) { c.Paste.ProduceTimeoutMs = 0 }},
		{"empty format version", func(c *Config) { c.Document.FormatVersion = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidValue) {
				t.Errorf("expected ErrInvalidValue, got %v", err)
			}
		})
	}
}

func TestZerologLevel(t *testing.T) {
	lvl, err := LoggingConfig{Level: "warn"}.ZerologLevel()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if lvl != zerolog.WarnLevel {
		t.Errorf("expected warn level, got %v", lvl)
	}
}
