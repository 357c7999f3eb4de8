// Package spanfmt reads and writes the span definitions edwood accepts
// on a window's spans file.
//
// Each line defines one span:
//
//	offset length fg-color [bg-color] [flags...]
//
// Offsets and lengths count runes. Colors are "#rrggbb" or "-" for the
// default; the flags are bold, italic and hidden. The spans of one write
// must be contiguous: together they replace the styling of the region
// they cover.
package spanfmt

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jbdoderlein/chlorophyll"
	"github.com/jbdoderlein/chlorophyll/theme"
)

// DefaultChunk keeps each write well under the usual 9P message size.
const DefaultChunk = 4000

// Run is a styled stretch of Len runes.
type Run struct {
	Len    int
	Style  theme.Style
	Hidden bool
}

// Region is a contiguous sequence of runs starting at rune Start.
type Region struct {
	Start int
	Runs  []Run
}

// Len returns the number of runes r covers.
func (r Region) Len() int {
	n := 0
	for _, run := range r.Runs {
		n += run.Len
	}
	return n
}

// Line formats the definition of run at rune offset off, without the
// trailing newline. Underline has no wire form and is dropped.
func Line(off int, run Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %d %s", off, run.Len, theme.FormatColor(run.Style.Fg))
	if run.Style.Bg != nil {
		b.WriteByte(' ')
		b.WriteString(theme.FormatColor(run.Style.Bg))
	}
	if run.Style.Bold {
		b.WriteString(" bold")
	}
	if run.Style.Italic {
		b.WriteString(" italic")
	}
	if run.Hidden {
		b.WriteString(" hidden")
	}
	return b.String()
}

// Encode renders r as chunks of whole lines, each at most maxChunk bytes
// unless a single line is longer. Every chunk is a valid write on its own.
func Encode(r Region, maxChunk int) []string {
	if maxChunk <= 0 {
		maxChunk = DefaultChunk
	}
	var (
		chunks []string
		buf    strings.Builder
	)
	off := r.Start
	for _, run := range r.Runs {
		line := Line(off, run) + "\n"
		off += run.Len
		if buf.Len()+len(line) > maxChunk && buf.Len() > 0 {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
		buf.WriteString(line)
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}

// Parse reads span definitions written for a buffer of bufLen runes.
func Parse(data string, bufLen int) (Region, error) {
	var (
		r    Region
		next = -1
	)
	for _, line := range strings.Split(data, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return Region{}, fmt.Errorf("bad span format: need at least offset length color")
		}
		off, err := strconv.Atoi(fields[0])
		if err != nil {
			return Region{}, fmt.Errorf("bad span offset: %q", fields[0])
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return Region{}, fmt.Errorf("bad span length: %q", fields[1])
		}
		if off < 0 || n < 0 {
			return Region{}, fmt.Errorf("negative span offset or length")
		}
		if next == -1 {
			if off > bufLen {
				return Region{}, fmt.Errorf("span offset %d beyond buffer of %d runes", off, bufLen)
			}
			r.Start, next = off, off
		}
		if off != next {
			return Region{}, fmt.Errorf("spans must be contiguous: expected offset %d, got %d", next, off)
		}
		next = off + n
		if next > bufLen {
			return Region{}, fmt.Errorf("span region [%d,%d) exceeds buffer of %d runes", r.Start, next, bufLen)
		}

		run := Run{Len: n}
		if run.Style.Fg, err = theme.ParseColor(fields[2]); err != nil {
			return Region{}, err
		}
		flags := fields[3:]
		if len(flags) > 0 && (flags[0] == "-" || strings.HasPrefix(flags[0], "#")) {
			if run.Style.Bg, err = theme.ParseColor(flags[0]); err != nil {
				return Region{}, err
			}
			flags = flags[1:]
		}
		for _, f := range flags {
			switch f {
			case "bold":
				run.Style.Bold = true
			case "italic":
				run.Style.Italic = true
			case "hidden":
				run.Hidden = true
			default:
				return Region{}, fmt.Errorf("unknown span flag: %q", f)
			}
		}
		r.Runs = append(r.Runs, run)
	}
	return r, nil
}

// FromAnnotations returns the region covering the bytes [start, end) of
// text, styled by anns and default elsewhere. Annotations are clipped to
// the range.
func FromAnnotations(text string, start, end int, anns []chlorophyll.Annotation) Region {
	start = max(0, min(start, len(text)))
	end = max(start, min(end, len(text)))
	r := Region{Start: utf8.RuneCountInString(text[:start])}

	pos := start
	add := func(to int, s theme.Style) {
		if to <= pos {
			return
		}
		r.Runs = append(r.Runs, Run{Len: utf8.RuneCountInString(text[pos:to]), Style: s})
		pos = to
	}
	for _, a := range anns {
		if a.End <= pos || a.Start >= end {
			continue
		}
		add(max(a.Start, pos), theme.Style{})
		add(min(a.End, end), a.Style)
	}
	add(end, theme.Style{})
	return r
}

// DeltaRange returns the bytes a host must restyle to apply d to a
// buffer of bufLen bytes: the whole buffer after a reset, otherwise the
// smallest range covering every removed and added span.
func DeltaRange(d chlorophyll.Delta, bufLen int) (start, end int, ok bool) {
	if d.Reset {
		return 0, bufLen, true
	}
	start, end = bufLen, 0
	for _, s := range d.Removed {
		start, end = min(start, s.Start), max(end, s.End)
	}
	for _, a := range d.Added {
		start, end = min(start, a.Start), max(end, a.End)
	}
	if start >= end {
		return 0, 0, false
	}
	return start, min(end, bufLen), true
}
