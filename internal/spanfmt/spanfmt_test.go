package spanfmt

import (
	"image/color"
	"strings"
	"testing"

	"github.com/jbdoderlein/chlorophyll"
	"github.com/jbdoderlein/chlorophyll/lex"
	"github.com/jbdoderlein/chlorophyll/theme"
)

var (
	red   = color.RGBA{R: 0xff, A: 0xff}
	green = color.RGBA{G: 0xff, A: 0xff}
	blue  = color.RGBA{B: 0xff, A: 0xff}
)

func TestLine(t *testing.T) {
	tests := []struct {
		name string
		off  int
		run  Run
		want string
	}{
		{"default", 0, Run{Len: 5}, "0 5 -"},
		{"fg", 3, Run{Len: 2, Style: theme.Style{Fg: red}}, "3 2 #ff0000"},
		{"fg bg", 3, Run{Len: 2, Style: theme.Style{Fg: red, Bg: green}}, "3 2 #ff0000 #00ff00"},
		{"default fg with bg", 0, Run{Len: 1, Style: theme.Style{Bg: green}}, "0 1 - #00ff00"},
		{"flags", 7, Run{Len: 4, Style: theme.Style{Fg: blue, Bold: true, Italic: true}}, "7 4 #0000ff bold italic"},
		{"underline dropped", 0, Run{Len: 1, Style: theme.Style{Underline: true}}, "0 1 -"},
		{"hidden", 0, Run{Len: 1, Hidden: true}, "0 1 - hidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Line(tt.off, tt.run); got != tt.want {
				t.Errorf("Line() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestParse_SingleSpan(t *testing.T) {
	r, err := Parse("0 10 #ff0000", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start != 0 {
		t.Errorf("Start = %d; want 0", r.Start)
	}
	if len(r.Runs) != 1 {
		t.Fatalf("got %d runs; want 1", len(r.Runs))
	}
	if r.Runs[0].Len != 10 {
		t.Errorf("run[0].Len = %d; want 10", r.Runs[0].Len)
	}
	if !r.Runs[0].Style.Equal(theme.Style{Fg: red}) {
		t.Errorf("run[0].Style = %s; want #ff0000", r.Runs[0].Style)
	}
}

func TestParse_BgAndFlags(t *testing.T) {
	r, err := Parse("2 3 #ff0000 #00ff00 bold italic hidden\n5 1 - -\n", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start != 2 || r.Len() != 4 {
		t.Fatalf("region = start %d len %d; want start 2 len 4", r.Start, r.Len())
	}
	want := theme.Style{Fg: red, Bg: green, Bold: true, Italic: true}
	if !r.Runs[0].Style.Equal(want) || !r.Runs[0].Hidden {
		t.Errorf("run[0] = %+v; want %s hidden", r.Runs[0], want)
	}
	if !r.Runs[1].Style.IsZero() {
		t.Errorf("run[1].Style = %s; want default", r.Runs[1].Style)
	}
}

func TestParse_Empty(t *testing.T) {
	r, err := Parse("\n\n", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Runs) != 0 {
		t.Errorf("got %d runs; want 0", len(r.Runs))
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"too few fields", "0 5", "need at least"},
		{"bad offset", "x 5 -", "bad span offset"},
		{"bad length", "0 y -", "bad span length"},
		{"negative offset", "-1 5 -", "negative"},
		{"negative length", "0 -5 -", "negative"},
		{"bad color", "0 5 #zzzzzz", "bad color"},
		{"bad bg color", "0 5 - #12", "bad color"},
		{"unknown flag", "0 5 - blink", "unknown span flag"},
		{"gap", "0 2 -\n3 2 -", "contiguous"},
		{"overlap", "0 3 -\n2 2 -", "contiguous"},
		{"exceeds buffer", "0 20 -", "exceeds buffer"},
		{"beyond buffer", "15 1 -", "beyond buffer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data, 10)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded; want error", tt.data)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q; want to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestEncode_ChunksParseOnTheirOwn(t *testing.T) {
	r := Region{Start: 100}
	for i := 0; i < 50; i++ {
		r.Runs = append(r.Runs, Run{Len: 3, Style: theme.Style{Fg: red, Bold: i%2 == 0}})
	}
	chunks := Encode(r, 120)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks; want several", len(chunks))
	}

	next, total := r.Start, 0
	for i, c := range chunks {
		if len(c) > 120 {
			t.Errorf("chunk %d is %d bytes; want at most 120", i, len(c))
		}
		if !strings.HasSuffix(c, "\n") {
			t.Errorf("chunk %d does not end in a newline", i)
		}
		got, err := Parse(c, 1000)
		if err != nil {
			t.Fatalf("chunk %d: %v", i, err)
		}
		if got.Start != next {
			t.Errorf("chunk %d starts at %d; want %d", i, got.Start, next)
		}
		next += got.Len()
		total += len(got.Runs)
	}
	if total != len(r.Runs) {
		t.Errorf("chunks hold %d runs; want %d", total, len(r.Runs))
	}
}

func TestEncode_Empty(t *testing.T) {
	if got := Encode(Region{}, 0); got != nil {
		t.Errorf("Encode(empty) = %q; want nil", got)
	}
}

func TestFromAnnotations(t *testing.T) {
	text := "é = 1  # x\n"
	// Byte offsets: é is two bytes, so "1" is at byte 5 and rune 4.
	anns := []chlorophyll.Annotation{
		{Span: chlorophyll.Span{Start: 5, End: 6}, Kind: lex.Number, Style: theme.Style{Fg: red}},
		{Span: chlorophyll.Span{Start: 8, End: 11}, Kind: lex.Comment, Style: theme.Style{Fg: blue}},
	}

	r := FromAnnotations(text, 0, len(text), anns)
	want := "0 4 -\n4 1 #ff0000\n5 2 -\n7 3 #0000ff\n10 1 -\n"
	if got := strings.Join(Encode(r, 0), ""); got != want {
		t.Errorf("encoded =\n%s\nwant\n%s", got, want)
	}

	// A partial range clips the annotations it cuts.
	r = FromAnnotations(text, 9, 11, anns)
	if r.Start != 8 {
		t.Errorf("Start = %d; want 8", r.Start)
	}
	if len(r.Runs) != 1 || r.Runs[0].Len != 2 || !r.Runs[0].Style.Equal(theme.Style{Fg: blue}) {
		t.Errorf("runs = %+v; want one 2-rune comment run", r.Runs)
	}
}

func TestDeltaRange(t *testing.T) {
	tests := []struct {
		name       string
		d          chlorophyll.Delta
		start, end int
		ok         bool
	}{
		{"empty", chlorophyll.Delta{}, 0, 0, false},
		{"reset", chlorophyll.Delta{Reset: true}, 0, 40, true},
		{
			name:  "removed and added",
			d:     chlorophyll.Delta{Removed: []chlorophyll.Span{{Start: 10, End: 12}}, Added: []chlorophyll.Annotation{{Span: chlorophyll.Span{Start: 4, End: 5}}}},
			start: 4, end: 12, ok: true,
		},
		{
			name:  "clipped to buffer",
			d:     chlorophyll.Delta{Removed: []chlorophyll.Span{{Start: 30, End: 50}}},
			start: 30, end: 40, ok: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := DeltaRange(tt.d, 40)
			if start != tt.start || end != tt.end || ok != tt.ok {
				t.Errorf("DeltaRange() = %d, %d, %v; want %d, %d, %v", start, end, ok, tt.start, tt.end, tt.ok)
			}
		})
	}
}
