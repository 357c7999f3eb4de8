// Package config provides configuration types and defaults for chlorophyll.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jbdoderlein/chlorophyll/internal/log"
	"github.com/jbdoderlein/chlorophyll/theme"
)

// Config holds all configuration options for chlorophyll.
type Config struct {
	// Debounce is the quiet period after an edit before re-highlighting.
	Debounce time.Duration `mapstructure:"debounce"`

	// MaxBacktrack bounds how many lines the damage walk may step back
	// looking for a known lexer state. 0 means no limit.
	MaxBacktrack int `mapstructure:"max_backtrack"`

	Theme    ThemeConfig    `mapstructure:"theme"`
	LexCache LexCacheConfig `mapstructure:"lex_cache"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`

	// Grammars maps file extensions, without the dot ("pyx"), to grammar
	// names, overriding the built-in table.
	Grammars map[string]string `mapstructure:"grammars"`
}

// ThemeConfig selects the color theme.
type ThemeConfig struct {
	// Preset names a built-in theme: "edwood" or any chroma style.
	Preset string `mapstructure:"preset"`

	// File is a theme file (yaml, toml or json). It wins over Preset.
	File string `mapstructure:"file"`
}

// LexCacheConfig controls memoisation of lexed lines.
type LexCacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	File  string `mapstructure:"file"` // empty disables logging
	Level string `mapstructure:"level"`
}

// TracingConfig controls OpenTelemetry export of highlight passes.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"` // "none", "file", "stdout" or "otlp"
	FilePath     string  `mapstructure:"file_path"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	ServiceName  string  `mapstructure:"service_name"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Debounce:     30 * time.Millisecond,
		MaxBacktrack: 2000,
		Theme: ThemeConfig{
			Preset: theme.DefaultPreset,
		},
		LexCache: LexCacheConfig{
			Enabled: false,
			TTL:     time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     DefaultTracesFilePath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
			ServiceName:  "chlorophyll",
		},
	}
}

// DefaultPath returns ~/.config/chlorophyll/config.yaml, or an empty
// string if the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "chlorophyll", "config.yaml")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "chlorophyll", "traces", "traces.jsonl")
}

// SetDefaults registers every default with v so that keys missing from
// the config file still unmarshal to their default.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("debounce", d.Debounce)
	v.SetDefault("max_backtrack", d.MaxBacktrack)
	v.SetDefault("theme.preset", d.Theme.Preset)
	v.SetDefault("theme.file", d.Theme.File)
	v.SetDefault("lex_cache.enabled", d.LexCache.Enabled)
	v.SetDefault("lex_cache.ttl", d.LexCache.TTL)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// Load reads the config file at path into a Config. A missing file is
// not an error: the defaults are returned. An empty path reads nothing.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
			log.Debug(log.CatConfig, "no config file, using defaults", "path", path)
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %v", c.Debounce)
	}
	if c.MaxBacktrack < 0 {
		return fmt.Errorf("max_backtrack must not be negative, got %d", c.MaxBacktrack)
	}
	if c.LexCache.Enabled && c.LexCache.TTL <= 0 {
		return fmt.Errorf("lex_cache.ttl must be positive when the cache is enabled, got %v", c.LexCache.TTL)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	for ext := range c.Grammars {
		if strings.HasPrefix(ext, ".") {
			return fmt.Errorf("grammars: write extension %q without the leading dot", ext)
		}
	}
	return ValidateTracing(c.Tracing)
}

// ValidateTracing checks tracing configuration for errors. Empty values
// fall back to defaults.
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// LoadTheme returns the configured theme: the theme file if one is
// set, otherwise the preset.
func (c Config) LoadTheme() (*theme.Theme, error) {
	if c.Theme.File != "" {
		return theme.Load(c.Theme.File)
	}
	name := c.Theme.Preset
	if name == "" {
		name = theme.DefaultPreset
	}
	return theme.Preset(name)
}
