package theme

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/jbdoderlein/chlorophyll/internal/log"
	"github.com/jbdoderlein/chlorophyll/lex"
)

// styleSpec is the table form of a style descriptor.
type styleSpec struct {
	Fg        string `mapstructure:"fg"`
	Bg        string `mapstructure:"bg"`
	Bold      bool   `mapstructure:"bold"`
	Italic    bool   `mapstructure:"italic"`
	Underline bool   `mapstructure:"underline"`
}

var specFields = map[string]bool{
	"fg": true, "bg": true, "bold": true, "italic": true, "underline": true,
}

// Load reads a theme file. The format (yaml, toml or json) follows the
// file extension.
//
//	name: solarized
//	default: "#657b83"
//	syntax:
//	  keyword: "#859900 bold"
//	  string: { fg: "#2aa198" }
//	  Token:
//	    Comment: "#93a1a1 italic"
//
// Nested tables flatten to dotted kind names, so pygments-style keys
// work. When two keys name the same kind the more specific one wins.
func Load(path string) (*Theme, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading theme %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fromViper(v, name)
}

// LoadReader reads a theme in the given format ("yaml", "toml" or "json").
func LoadReader(r io.Reader, format string) (*Theme, error) {
	v := newViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("reading theme: %w", err)
	}
	return fromViper(v, "custom")
}

// Kind names such as "literal.string" contain dots, so the key
// delimiter has to be something else.
func newViper() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter("::"))
}

func fromViper(v *viper.Viper, fallbackName string) (*Theme, error) {
	name := v.GetString("name")
	if name == "" {
		name = fallbackName
	}

	def, err := decodeStyle(v.Get("default"))
	if err != nil {
		return nil, fmt.Errorf("theme %s: default: %w", name, err)
	}

	flat := make(map[string]any)
	if raw := v.Get("syntax"); raw != nil {
		m, ok := asMap(raw)
		if !ok {
			return nil, fmt.Errorf("theme %s: syntax must be a table", name)
		}
		flatten("", m, flat)
	}

	styles := make(map[lex.Kind]Style)
	specific := make(map[lex.Kind]int)
	for key, raw := range flat {
		kind, ok := lex.ParseKind(key)
		if !ok {
			log.Warn(log.CatTheme, "unknown token kind in theme", "theme", name, "key", key)
			continue
		}
		if kind == lex.Text {
			continue
		}
		if len(key) < specific[kind] {
			continue
		}
		s, err := decodeStyle(raw)
		if err != nil {
			return nil, fmt.Errorf("theme %s: %s: %w", name, key, err)
		}
		if len(key) == specific[kind] && styles[kind].String() < s.String() {
			// Same specificity: keep the result independent of map order.
			continue
		}
		styles[kind] = s
		specific[kind] = len(key)
	}
	log.Debug(log.CatTheme, "theme loaded", "theme", name, "kinds", len(styles))
	return New(name, def, styles), nil
}

// flatten walks nested tables, joining keys with dots. A table whose
// keys are all style fields is a descriptor, not a level.
func flatten(prefix string, m map[string]any, out map[string]any) {
	for k, raw := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := asMap(raw); ok && !isSpec(sub) {
			flatten(key, sub, out)
			continue
		}
		out[key] = raw
	}
}

func isSpec(m map[string]any) bool {
	for k := range m {
		if !specFields[strings.ToLower(k)] {
			return false
		}
	}
	return len(m) > 0
}

func asMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	return nil, false
}

func decodeStyle(raw any) (Style, error) {
	switch v := raw.(type) {
	case nil:
		return Style{}, nil
	case string:
		return ParseStyle(v)
	}
	m, ok := asMap(raw)
	if !ok {
		return Style{}, fmt.Errorf("bad style value %v", raw)
	}
	var spec styleSpec
	if err := mapstructure.Decode(m, &spec); err != nil {
		return Style{}, fmt.Errorf("bad style table: %w", err)
	}
	s := Style{Bold: spec.Bold, Italic: spec.Italic, Underline: spec.Underline}
	var err error
	if spec.Fg != "" {
		if s.Fg, err = ParseColor(spec.Fg); err != nil {
			return Style{}, err
		}
	}
	if spec.Bg != "" {
		if s.Bg, err = ParseColor(spec.Bg); err != nil {
			return Style{}, err
		}
	}
	return s, nil
}
