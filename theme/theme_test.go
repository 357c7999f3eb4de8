package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jbdoderlein/chlorophyll/lex"
)

var (
	red  = color.RGBA{R: 0xff, A: 0xff}
	blue = color.RGBA{B: 0xff, A: 0xff}
	gray = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
)

func TestTheme_ResolveFallsBackToDefault(t *testing.T) {
	th := New("t", Style{Fg: gray}, map[lex.Kind]Style{
		lex.Keyword: {Fg: blue, Bold: true},
		lex.Text:    {Fg: red},
	})

	require.True(t, th.Resolve(lex.Keyword).Equal(Style{Fg: blue, Bold: true}))
	require.True(t, th.Resolve(lex.Comment).Equal(Style{Fg: gray}), "missing kind uses default")
	require.True(t, th.Resolve(lex.Kind(99)).Equal(Style{Fg: gray}), "unknown kind uses default")
	require.Equal(t, []lex.Kind{lex.Keyword}, th.Kinds(), "text is never styled")

	_, ok := th.Lookup(lex.String)
	require.False(t, ok)
}

func TestTheme_Nil(t *testing.T) {
	var th *Theme
	require.True(t, th.Resolve(lex.Keyword).IsZero())
	require.Empty(t, th.Name())
	require.Nil(t, th.Kinds())
}

func TestLoadReader_YAML(t *testing.T) {
	src := `
name: sample
default: "#808080"
syntax:
  keyword: "#0000ff bold"
  string:
    fg: "#ff0000"
    italic: true
  Token:
    Comment: "#808080 italic"
    Literal:
      Number: "red"
`
	th, err := LoadReader(strings.NewReader(src), "yaml")
	require.NoError(t, err)
	require.Equal(t, "sample", th.Name())
	require.True(t, th.Default().Equal(Style{Fg: gray}))
	require.True(t, th.Resolve(lex.Keyword).Equal(Style{Fg: blue, Bold: true}))
	require.True(t, th.Resolve(lex.String).Equal(Style{Fg: red, Italic: true}))
	require.True(t, th.Resolve(lex.Comment).Equal(Style{Fg: gray, Italic: true}))
	require.True(t, th.Resolve(lex.Number).Equal(Style{Fg: red}))
	require.True(t, th.Resolve(lex.Operator).Equal(Style{Fg: gray}))
}

func TestLoadReader_MoreSpecificKeyWins(t *testing.T) {
	src := `
syntax:
  string: "#0000ff"
  literal.string: "#ff0000"
`
	th, err := LoadReader(strings.NewReader(src), "yaml")
	require.NoError(t, err)
	require.True(t, th.Resolve(lex.String).Equal(Style{Fg: red}))
}

func TestLoadReader_UnknownKindIgnored(t *testing.T) {
	th, err := LoadReader(strings.NewReader("syntax:\n  sparkle: \"#ff0000\"\n  keyword: \"#0000ff\"\n"), "yaml")
	require.NoError(t, err)
	require.Equal(t, []lex.Kind{lex.Keyword}, th.Kinds())
}

func TestLoadReader_Errors(t *testing.T) {
	for name, src := range map[string]string{
		"bad color":     "syntax:\n  keyword: \"#zzzzzz\"\n",
		"bad default":   "default: \"nope nope nope\"\n",
		"bad table":     "syntax:\n  keyword:\n    fg: \"#12\"\n",
		"syntax scalar": "syntax: 3\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadReader(strings.NewReader(src), "yaml")
			require.Error(t, err)
		})
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "night.toml")
	src := `
default = "#ffffff bg:#000000"

[syntax]
keyword = "#0000ff bold"
comment = { fg = "#808080", italic = true }
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	th, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "night", th.Name(), "name falls back to file name")
	require.True(t, th.Resolve(lex.Comment).Equal(Style{Fg: gray, Italic: true}))
	require.NotNil(t, th.Default().Bg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestPreset(t *testing.T) {
	th, err := Preset("edwood")
	require.NoError(t, err)
	require.True(t, th.Resolve(lex.Keyword).Equal(Style{Fg: color.RGBA{B: 0xcc, A: 0xff}, Bold: true}))
	require.True(t, th.Default().IsZero())

	th, err = Preset(DefaultPreset)
	require.NoError(t, err)
	require.Equal(t, DefaultPreset, th.Name())
	require.NotNil(t, th.Resolve(lex.Keyword).Fg)
	require.NotNil(t, th.Default().Fg)

	_, err = Preset("no-such-theme")
	require.Error(t, err)
}

func TestPresets(t *testing.T) {
	names := Presets()
	require.Contains(t, names, "edwood")
	require.Contains(t, names, "monokai")
	require.IsNonDecreasing(t, names)
}
