// Package theme maps token kinds to display styles.
package theme

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Style holds the display attributes of an annotation. A nil color
// means the host's default.
type Style struct {
	Fg        color.Color
	Bg        color.Color
	Bold      bool
	Italic    bool
	Underline bool
}

// Equal reports whether two styles render identically.
func (s Style) Equal(o Style) bool {
	return colorEqual(s.Fg, o.Fg) && colorEqual(s.Bg, o.Bg) &&
		s.Bold == o.Bold && s.Italic == o.Italic && s.Underline == o.Underline
}

// IsZero reports whether s carries no attributes at all.
func (s Style) IsZero() bool {
	return s.Equal(Style{})
}

// String formats s as a descriptor accepted by ParseStyle.
func (s Style) String() string {
	var b strings.Builder
	b.WriteString(FormatColor(s.Fg))
	if s.Bg != nil {
		b.WriteString(" bg:")
		b.WriteString(FormatColor(s.Bg))
	}
	if s.Bold {
		b.WriteString(" bold")
	}
	if s.Italic {
		b.WriteString(" italic")
	}
	if s.Underline {
		b.WriteString(" underline")
	}
	return b.String()
}

// ParseStyle parses a style descriptor: an optional foreground color,
// an optional background color and any of the flags bold, italic and
// underline, separated by spaces. A background may also be written
// "bg:<color>". "-" stands for the default color.
func ParseStyle(desc string) (Style, error) {
	var s Style
	colors := 0
	for _, f := range strings.Fields(desc) {
		switch strings.ToLower(f) {
		case "bold":
			s.Bold = true
			continue
		case "italic":
			s.Italic = true
			continue
		case "underline":
			s.Underline = true
			continue
		}
		if bg, ok := strings.CutPrefix(f, "bg:"); ok {
			c, err := ParseColor(bg)
			if err != nil {
				return Style{}, err
			}
			s.Bg = c
			colors = 2
			continue
		}
		c, err := ParseColor(f)
		if err != nil {
			return Style{}, err
		}
		switch colors {
		case 0:
			s.Fg = c
		case 1:
			s.Bg = c
		default:
			return Style{}, fmt.Errorf("bad style %q: too many colors", desc)
		}
		colors++
	}
	return s, nil
}

// ParseColor parses a color string: "-" for default (nil), "#rgb" or
// "#rrggbb" for an explicit color, or a CSS color name.
func ParseColor(s string) (color.Color, error) {
	if s == "-" {
		return nil, nil
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s)
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("bad color value: %q", s)
}

func parseHex(s string) (color.Color, error) {
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, fmt.Errorf("bad color value: %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("bad color value: %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// FormatColor formats c as "#rrggbb", or "-" for the default color.
func FormatColor(c color.Color) string {
	if c == nil {
		return "-"
	}
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

func colorEqual(a, b color.Color) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}
