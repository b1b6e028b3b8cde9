package calc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"go.alis.build/alog"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLocale   = "en-US"
	DefaultLogLevel = "info"
)

// Config is the runtime configuration, usually read from a YAML file:
//
//	locale: de-DE
//	date1904: false
//	log_level: debug
//	functions: [SUM, IF, DATE]
type Config struct {
	// Locale is a BCP 47 tag used for separators, currency and descriptors
	Locale string `yaml:"locale"`
	// Date1904 selects the 1904 serial date system
	Date1904 bool `yaml:"date1904"`
	// LogLevel is one of debug, info, notice, warning, error
	LogLevel string `yaml:"log_level"`
	// Functions restricts the built-in functions that get registered. all
	// of them are registered when empty.
	Functions []string `yaml:"functions,omitempty"`
}

var logLevels = map[string]alog.LogLevel{
	"debug":   alog.LevelDebug,
	"info":    alog.LevelInfo,
	"notice":  alog.LevelNotice,
	"warning": alog.LevelWarning,
	"error":   alog.LevelError,
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a YAML configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, wrapApplicationError(NotFound, err, "config %s not found", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses YAML configuration. path is only used in messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, wrapApplicationError(InvalidArgument, err, "parsing %s", path)
	}
	cfg.setDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
}

// validate checks the configuration for semantic errors
func (c *Config) validate(path string) error {
	if _, err := language.Parse(c.Locale); err != nil {
		return wrapApplicationError(InvalidArgument, err, "%s: invalid locale %q", path, c.Locale)
	}
	if _, ok := logLevels[c.LogLevel]; !ok {
		return NewApplicationError(InvalidArgument, fmt.Sprintf("%s: unknown log_level %q", path, c.LogLevel))
	}
	seen := make(map[string]struct{}, len(c.Functions))
	for i, name := range c.Functions {
		if !validFunctionName(name) {
			return NewApplicationError(InvalidArgument, fmt.Sprintf("%s: functions[%d]: invalid name %q", path, i, name))
		}
		key := strings.ToUpper(name)
		if _, dup := seen[key]; dup {
			return NewApplicationError(InvalidArgument, fmt.Sprintf("%s: functions[%d]: %s listed twice", path, i, name))
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Level returns the configured alog level. alog keeps a single global
// level, so binaries apply it once at start-up with alog.SetLevel.
func (c *Config) Level() alog.LogLevel {
	return logLevels[strings.ToLower(c.LogLevel)]
}

// enabled reports whether a built-in function should be registered
func (c *Config) enabled(name string) bool {
	if len(c.Functions) == 0 {
		return true
	}
	for _, fn := range c.Functions {
		if strings.EqualFold(fn, name) {
			return true
		}
	}
	return false
}
