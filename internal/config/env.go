package config

import (
	"fmt"
	"strconv"
	"strings"
)

// lookupFunc matches os.LookupEnv, injected for tests.
type lookupFunc func(key string) (string, bool)

// envOverrides maps environment variables to the fields they set.
var envOverrides = map[string]func(*Config, string) error{
	"BLOCKPRESS_HISTORY_MAX_ENTRIES": func(c *Config, v string) error {
		return setInt(&c.History.MaxEntries, v)
	},
	"BLOCKPRESS_HISTORY_DEBOUNCE_MS": func(c *Config, v string) error {
		return setInt(&c.History.DebounceMs, v)
	},
	"BLOCKPRESS_PASTE_AUTO_CONVERT": func(c *Config, v string) error {
		return setBool(&c.Paste.AutoConvert, v)
	},
	"BLOCKPRESS_PASTE_PRODUCE_TIMEOUT_MS": func(c *Config, v string) error {
		return setInt(&c.Paste.ProduceTimeoutMs, v)
	},
	"BLOCKPRESS_PASTE_FETCH_TITLES": func(c *Config, v string) error {
		return setBool(&c.Paste.FetchTitles, v)
	},
	"BLOCKPRESS_PASTE_PATTERN_FILES": func(c *Config, v string) error {
		c.Paste.PatternFiles = splitList(v)
		return nil
	},
	"BLOCKPRESS_DOCUMENT_FORMAT_VERSION": func(c *Config, v string) error {
		c.Document.FormatVersion = v
		return nil
	},
	"BLOCKPRESS_DOCUMENT_KINDS": func(c *Config, v string) error {
		c.Document.Kinds = splitList(v)
		return nil
	},
	"BLOCKPRESS_LOG_LEVEL": func(c *Config, v string) error {
		c.Logging.Level = v
		return nil
	},
}

// applyEnv applies environment overrides in place.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	for key, apply := range envOverrides {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		if err := apply(cfg, v); err != nil {
			return fmt.Errorf("%s=%q: %w", key, v, err)
		}
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: not an integer", ErrInvalidValue)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: not a boolean", ErrInvalidValue)
	}
	*dst = b
	return nil
}

// splitList parses a comma-separated list, dropping empty elements.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
