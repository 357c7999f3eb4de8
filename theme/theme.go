package theme

import (
	"slices"

	"github.com/jbdoderlein/chlorophyll/lex"
)

// Theme maps token kinds to styles. Kinds without an entry resolve to
// the default style. A Theme is immutable once built.
type Theme struct {
	name   string
	def    Style
	styles map[lex.Kind]Style
}

// New returns a theme. The styles map is copied.
func New(name string, def Style, styles map[lex.Kind]Style) *Theme {
	t := &Theme{name: name, def: def, styles: make(map[lex.Kind]Style, len(styles))}
	for k, s := range styles {
		if k == lex.Text {
			continue
		}
		t.styles[k] = s
	}
	return t
}

// Name returns the theme's name.
func (t *Theme) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Default returns the style used for kinds the theme does not name.
func (t *Theme) Default() Style {
	if t == nil {
		return Style{}
	}
	return t.def
}

// Resolve returns the style for k, falling back to the default style.
// A nil theme resolves everything to the zero style.
func (t *Theme) Resolve(k lex.Kind) Style {
	if s, ok := t.Lookup(k); ok {
		return s
	}
	return t.Default()
}

// Lookup returns the style configured for k, if any.
func (t *Theme) Lookup(k lex.Kind) (Style, bool) {
	if t == nil {
		return Style{}, false
	}
	s, ok := t.styles[k]
	return s, ok
}

// Kinds returns the kinds with an explicit style, in Kind order.
func (t *Theme) Kinds() []lex.Kind {
	if t == nil {
		return nil
	}
	kinds := make([]lex.Kind, 0, len(t.styles))
	for k := range t.styles {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
