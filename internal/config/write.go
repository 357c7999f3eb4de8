package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/jbdoderlein/chlorophyll/internal/log"
)

// Template renders the default configuration as commented YAML.
func Template() ([]byte, error) {
	d := Defaults()
	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: "chlorophyll configuration",
		Content: []*yaml.Node{mapping(
			entry("debounce", d.Debounce.String(), "Quiet period after an edit before re-highlighting"),
			entry("max_backtrack", strconv.Itoa(d.MaxBacktrack), "Lines to step back looking for a known lexer state (0 = no limit)"),
			section("theme", "Built-in preset, or a theme file (yaml, toml or json) that wins over it",
				entry("preset", d.Theme.Preset, ""),
				entry("file", d.Theme.File, ""),
			),
			section("lex_cache", "Memoise lexed lines",
				entry("enabled", strconv.FormatBool(d.LexCache.Enabled), ""),
				entry("ttl", d.LexCache.TTL.String(), ""),
			),
			section("log", "Debug log; an empty file disables logging",
				entry("file", d.Log.File, ""),
				entry("level", d.Log.Level, "debug, info, warn or error"),
			),
			section("tracing", "OpenTelemetry export of highlight passes",
				entry("enabled", strconv.FormatBool(d.Tracing.Enabled), ""),
				entry("exporter", d.Tracing.Exporter, "none, file, stdout or otlp"),
				entry("file_path", d.Tracing.FilePath, ""),
				entry("otlp_endpoint", d.Tracing.OTLPEndpoint, ""),
				entry("sample_rate", strconv.FormatFloat(d.Tracing.SampleRate, 'f', -1, 64), ""),
				entry("service_name", d.Tracing.ServiceName, ""),
			),
		)},
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("rendering default config: %w", err)
	}
	return out, nil
}

// WriteDefault creates a config file at path holding the defaults.
// Creates the parent directory if it doesn't exist.
func WriteDefault(path string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", path)

	data, err := Template()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", path)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", path)
	return nil
}

type pair [2]*yaml.Node

func entry(key, value, comment string) pair {
	k := &yaml.Node{Kind: yaml.ScalarNode, Value: key, HeadComment: comment}
	v := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
	if value == "" {
		v.Style = yaml.DoubleQuotedStyle
	}
	return pair{k, v}
}

func section(key, comment string, entries ...pair) pair {
	return pair{
		{Kind: yaml.ScalarNode, Value: key, HeadComment: comment},
		mapping(entries...),
	}
}

func mapping(entries ...pair) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range entries {
		m.Content = append(m.Content, e[0], e[1])
	}
	return m
}
