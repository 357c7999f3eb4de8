package theme

import (
	"fmt"
	"image/color"
	"slices"
	"strings"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/jbdoderlein/chlorophyll/lex"
)

// DefaultPreset names the preset used when nothing is configured.
const DefaultPreset = "dracula"

// edwood is the palette edcolor has always painted acme windows with.
// It leaves the default colors to the host.
func edwood() *Theme {
	rgb := func(v uint32) color.Color {
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
	}
	return New("edwood", Style{}, map[lex.Kind]Style{
		lex.Keyword: {Fg: rgb(0x0000cc), Bold: true},
		lex.String:  {Fg: rgb(0x008000)},
		lex.Comment: {Fg: rgb(0x808080)},
		lex.Number:  {Fg: rgb(0xcc6600)},
		lex.Builtin: {Fg: rgb(0x008080)},
		lex.Error:   {Fg: rgb(0xcc0000), Underline: true},
	})
}

// chromaTypes is the chroma token type each kind takes its style from.
var chromaTypes = map[lex.Kind]chroma.TokenType{
	lex.Keyword:     chroma.Keyword,
	lex.Builtin:     chroma.NameBuiltin,
	lex.Identifier:  chroma.Name,
	lex.String:      chroma.LiteralString,
	lex.Number:      chroma.LiteralNumber,
	lex.Literal:     chroma.Literal,
	lex.Operator:    chroma.Operator,
	lex.Punctuation: chroma.Punctuation,
	lex.Comment:     chroma.Comment,
	lex.Error:       chroma.Error,
}

// Preset returns a built-in theme by name: "edwood" or any chroma style.
func Preset(name string) (*Theme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "edwood" {
		return edwood(), nil
	}
	cs, ok := styles.Registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown theme preset %q", name)
	}
	return fromChroma(name, cs), nil
}

// Presets lists the built-in theme names, sorted.
func Presets() []string {
	names := append([]string{"edwood"}, styles.Names()...)
	slices.Sort(names)
	return slices.Compact(names)
}

func fromChroma(name string, cs *chroma.Style) *Theme {
	bg := cs.Get(chroma.Background)
	def := Style{Fg: chromaColor(bg.Colour), Bg: chromaColor(bg.Background)}

	m := make(map[lex.Kind]Style, len(chromaTypes))
	for kind, tt := range chromaTypes {
		e := cs.Get(tt)
		s := Style{
			Fg:        chromaColor(e.Colour),
			Bold:      e.Bold == chroma.Yes,
			Italic:    e.Italic == chroma.Yes,
			Underline: e.Underline == chroma.Yes,
		}
		// Entries inherit the background; only keep one that differs.
		if b := chromaColor(e.Background); !colorEqual(b, def.Bg) {
			s.Bg = b
		}
		if s.Fg == nil {
			s.Fg = def.Fg
		}
		m[kind] = s
	}
	return New(name, def, m)
}

func chromaColor(c chroma.Colour) color.Color {
	if !c.IsSet() {
		return nil
	}
	return color.RGBA{R: c.Red(), G: c.Green(), B: c.Blue(), A: 0xff}
}
