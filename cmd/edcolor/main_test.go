package main

import (
	"bytes"
	"errors"
	"image/color"
	"reflect"
	"strings"
	"testing"

	"9fans.net/go/acme"

	"github.com/jbdoderlein/chlorophyll"
	"github.com/jbdoderlein/chlorophyll/internal/log"
	"github.com/jbdoderlein/chlorophyll/internal/spanfmt"
	"github.com/jbdoderlein/chlorophyll/lex"
	"github.com/jbdoderlein/chlorophyll/theme"
)

func TestByteOffset(t *testing.T) {
	text := "aé😀b"
	tests := []struct {
		q    int
		want int
		ok   bool
	}{
		{0, 0, true},
		{1, 1, true},
		{2, 3, true},
		{3, 7, true},
		{4, 8, true},
		{5, 0, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		got, ok := byteOffset(text, tt.q)
		if got != tt.want || ok != tt.ok {
			t.Errorf("byteOffset(%d) = %d, %v; want %d, %v", tt.q, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEditOf(t *testing.T) {
	// The body already holds the edit; the engine text does not.
	text := "x = 'é'\ny = 2\n"
	tests := []struct {
		name     string
		event    acme.Event
		wantSpan chlorophyll.Span
		wantText string
		ok       bool
	}{
		{
			name:     "insert",
			event:    acme.Event{C1: 'K', C2: 'I', Q0: 4, Q1: 5, Nr: 1, Text: []byte("!")},
			wantSpan: chlorophyll.Span{Start: 4, End: 4},
			wantText: "!",
			ok:       true,
		},
		{
			name:     "insert after multibyte rune",
			event:    acme.Event{C1: 'K', C2: 'I', Q0: 6, Q1: 8, Nr: 2, Text: []byte("ü!")},
			wantSpan: chlorophyll.Span{Start: 7, End: 7},
			wantText: "ü!",
			ok:       true,
		},
		{
			name:     "delete multibyte rune",
			event:    acme.Event{C1: 'K', C2: 'D', Q0: 5, Q1: 6},
			wantSpan: chlorophyll.Span{Start: 5, End: 7},
			ok:       true,
		},
		{
			name:  "truncated insert",
			event: acme.Event{C1: 'E', C2: 'I', Q0: 0, Q1: 300, Nr: 300},
		},
		{
			name:  "outside text",
			event: acme.Event{C1: 'K', C2: 'D', Q0: 10, Q1: 40},
		},
		{
			name:  "selection",
			event: acme.Event{C1: 'M', C2: 'S', Q0: 0, Q1: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, ins, ok := editOf(text, &tt.event)
			if ok != tt.ok {
				t.Fatalf("editOf() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if span != tt.wantSpan || ins != tt.wantText {
				t.Errorf("editOf() = %v, %q; want %v, %q", span, ins, tt.wantSpan, tt.wantText)
			}
		})
	}
}

func TestFindMatches(t *testing.T) {
	body := "foo bar foo baz foo"
	got := findMatches(body, "foo", 8, 11)
	want := [][2]int{{0, 3}, {16, 19}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("findMatches() = %v, want %v", got, want)
	}

	if got := findMatches("é é", "é", 0, 1); !reflect.DeepEqual(got, [][2]int{{2, 3}}) {
		t.Errorf("findMatches() counts bytes, got %v", got)
	}
}

func TestApplyHighlights(t *testing.T) {
	kw := theme.Style{Fg: color.RGBA{B: 0xcc, A: 0xff}, Bold: true}
	r := spanfmt.Region{Start: 10, Runs: []spanfmt.Run{
		{Len: 3, Style: kw},
		{Len: 5},
	}}

	got := applyHighlights(r, [][2]int{{9, 11}, {14, 16}})
	lit := kw
	lit.Bg = highlightBg
	want := spanfmt.Region{Start: 10, Runs: []spanfmt.Run{
		{Len: 1, Style: lit},
		{Len: 2, Style: kw},
		{Len: 1},
		{Len: 2, Style: theme.Style{Bg: highlightBg}},
		{Len: 2},
	}}
	if len(got.Runs) != len(want.Runs) || got.Start != want.Start {
		t.Fatalf("applyHighlights() = %+v, want %+v", got, want)
	}
	for i := range want.Runs {
		if got.Runs[i].Len != want.Runs[i].Len || !got.Runs[i].Style.Equal(want.Runs[i].Style) {
			t.Errorf("run %d = %+v, want %+v", i, got.Runs[i], want.Runs[i])
		}
	}
	if got.Len() != r.Len() {
		t.Errorf("highlighting changed the region length: %d, want %d", got.Len(), r.Len())
	}

	if got := applyHighlights(r, nil); !reflect.DeepEqual(got, r) {
		t.Errorf("applyHighlights(nil) changed the region")
	}
}

func TestGrammarFor(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
		want      lex.Grammar
	}{
		{"/src/main.go", nil, lex.Go},
		{"/src/setup.py", nil, lex.Python},
		{"/src/paper.tex", nil, lex.LaTeX},
		{"/src/notes.zzz", nil, nil},
		{"/src/mod.pyx", map[string]string{"pyx": "python"}, lex.Python},
		{"/src/mod.zzz", map[string]string{"zzz": "no-such-grammar"}, nil},
	}
	for _, tt := range tests {
		got := grammarFor(tt.name, tt.overrides)
		if got != tt.want {
			t.Errorf("grammarFor(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// scriptedFiles answers body reads from a script, then fails.
type scriptedFiles struct {
	bodies []string
}

func (f *scriptedFiles) ReadAll(file string) ([]byte, error) {
	if file != "body" || len(f.bodies) == 0 {
		return nil, errors.New("window gone")
	}
	b := f.bodies[0]
	f.bodies = f.bodies[1:]
	return []byte(b), nil
}

func TestRejectedEditLogsFailedResync(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(nil) })

	tests := []struct {
		name   string
		bodies []string
		apply  func(w *window)
	}{
		{
			name:   "diffed body",
			bodies: []string{"x = 2\n"},
			apply:  func(w *window) { w.catchUp() },
		},
		{
			name: "insert event",
			apply: func(w *window) {
				w.edit(&acme.Event{C1: 'K', C2: 'I', Q0: 0, Q1: 1, Nr: 1, Text: []byte("x")})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			e := chlorophyll.New()
			// A closed engine refuses every edit.
			if err := e.Close(); err != nil {
				t.Fatal(err)
			}
			w := &window{files: &scriptedFiles{bodies: tt.bodies}, engine: e}

			tt.apply(w)

			out := buf.String()
			if !strings.Contains(out, "edit rejected") {
				t.Errorf("rejected edit not logged:\n%s", out)
			}
			if !strings.Contains(out, "resync failed") || !strings.Contains(out, "window gone") {
				t.Errorf("failed resync not logged:\n%s", out)
			}
		})
	}
}
