package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jbdoderlein/chlorophyll"
	"github.com/jbdoderlein/chlorophyll/theme"
)

// newRenderer returns a lipgloss renderer for w honoring the --color
// mode: "auto" asks the terminal, "always" forces true color and
// "never" prints plain text.
func newRenderer(w io.Writer, mode string) (*lipgloss.Renderer, error) {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case "", "auto":
	case "always":
		r.SetColorProfile(termenv.TrueColor)
	case "never":
		r.SetColorProfile(termenv.Ascii)
	default:
		return nil, fmt.Errorf("--color must be auto, always or never, got %q", mode)
	}
	return r, nil
}

func lipglossStyle(r *lipgloss.Renderer, s theme.Style) lipgloss.Style {
	st := r.NewStyle().
		TabWidth(lipgloss.NoTabConversion).
		Bold(s.Bold).
		Italic(s.Italic).
		Underline(s.Underline)
	if s.Fg != nil {
		st = st.Foreground(lipgloss.Color(theme.FormatColor(s.Fg)))
	}
	if s.Bg != nil {
		st = st.Background(lipgloss.Color(theme.FormatColor(s.Bg)))
	}
	return st
}

// render writes text styled by anns. Bytes no annotation covers get
// the default style.
func render(w io.Writer, r *lipgloss.Renderer, text string, anns []chlorophyll.Annotation, def theme.Style) error {
	var b strings.Builder
	pos := 0
	for _, a := range anns {
		if a.Start > pos {
			renderSpan(&b, r, text[pos:a.Start], def)
		}
		renderSpan(&b, r, text[a.Start:a.End], a.Style)
		pos = a.End
	}
	if pos < len(text) {
		renderSpan(&b, r, text[pos:], def)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// renderSpan styles each line of s on its own: lipgloss pads the lines
// of a multi-line block to a common width.
func renderSpan(b *strings.Builder, r *lipgloss.Renderer, s string, style theme.Style) {
	if style.IsZero() {
		b.WriteString(s)
		return
	}
	st := lipglossStyle(r, style)
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		if line != "" {
			b.WriteString(st.Render(line))
		}
	}
}
