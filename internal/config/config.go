package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Errors returned by Validate.
var (
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Config is the full editor configuration.
type Config struct {
	History  HistoryConfig  `toml:"history"`
	Paste    PasteConfig    `toml:"paste"`
	Document DocumentConfig `toml:"document"`
	Logging  LoggingConfig  `toml:"logging"`
}

// HistoryConfig controls the undo/redo stack.
type HistoryConfig struct {
	// MaxEntries bounds the stack; the oldest entry is evicted beyond it.
	MaxEntries int `toml:"maxEntries"`

	// DebounceMs is the quiet period after a change before a snapshot is
	// captured. Zero captures on the next timer tick with no coalescing
	// window.
	DebounceMs int `toml:"debounceMs"`
}

// Debounce returns the capture debounce as a duration.
func (h HistoryConfig) Debounce() time.Duration {
	return time.Duration(h.DebounceMs) * time.Millisecond
}

// PasteConfig controls paste classification.
type PasteConfig struct {
	// AutoConvert enables pattern classification on paste. When false,
	// pasted text is inserted as a default-kind block untouched.
	AutoConvert bool `toml:"autoConvert"`

	// ProduceTimeoutMs bounds a single pattern producer, including any
	// network enrichment.
	ProduceTimeoutMs int `toml:"produceTimeoutMs"`

	// FetchTitles enables remote title enrichment for bare URLs.
	FetchTitles bool `toml:"fetchTitles"`

	// PatternFiles lists Lua pattern scripts loaded at startup, in order.
	PatternFiles []string `toml:"patternFiles"`
}

// ProduceTimeout returns the producer bound as a duration.
func (p PasteConfig) ProduceTimeout() time.Duration {
	return time.Duration(p.ProduceTimeoutMs) * time.Millisecond
}

// DocumentConfig controls the document model.
type DocumentConfig struct {
	// FormatVersion is stamped on serialized documents.
	FormatVersion string `toml:"formatVersion"`

	// Kinds lists the enabled block kinds. The default kind is always
	// enabled regardless of this list.
	Kinds []string `toml:"kinds"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is a zerolog level name: trace, debug, info, warn, error.
	Level string `toml:"level"`
}

// ZerologLevel parses the configured level.
func (l LoggingConfig) ZerologLevel() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("logging.level %q: %w", l.Level, ErrInvalidValue)
	}
	return lvl, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History: HistoryConfig{
			MaxEntries: 50,
			DebounceMs: 300,
		},
		Paste: PasteConfig{
			AutoConvert:      true,
			ProduceTimeoutMs: 3000,
			FetchTitles:      true,
		},
		Document: DocumentConfig{
			FormatVersion: "1.0",
			Kinds: []string{
				"paragraph", "heading", "list", "quote", "code",
				"image", "embed", "link", "delimiter", "table",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for values no component can honor.
func (c Config) Validate() error {
	if c.History.MaxEntries < 1 {
		return fmt.Errorf("history.maxEntries %d: %w: must be at least 1", c.History.MaxEntries, ErrInvalidValue)
	}
	if c.History.DebounceMs < 0 {
		return fmt.Errorf("history.debounceMs %d: %w: must not be negative", c.History.DebounceMs, ErrInvalidValue)
	}
	if c.Paste.ProduceTimeoutMs <= 0 {
		return fmt.Errorf("paste.produceTimeoutMs %d: %w: must be positive", c.Paste.ProduceTimeoutMs, ErrInvalidValue)
	}
	if c.Document.FormatVersion == "" {
		return fmt.Errorf("document.formatVersion: %w: must not be empty", ErrInvalidValue)
	}
	if _, err := c.Logging.ZerologLevel(); err != nil {
		return err
	}
	return nil
}
