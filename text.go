package chlorophyll

import (
	"fmt"
	"sort"
	"strings"
)

// Span is a half-open byte range [Start, End) of the buffer.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes in s.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether s and o share at least one byte.
func (s Span) Overlaps(o Span) bool { return s.Start < o.End && o.Start < s.End }

func (s Span) String() string { return fmt.Sprintf("[%d,%d)", s.Start, s.End) }

// Position is a 0-based line and byte column.
type Position struct {
	Line int
	Col  int
}

// Edit records one buffer replacement: the bytes of Old were replaced by
// NewLen bytes. Seq is the engine generation the edit produced.
type Edit struct {
	Old    Span
	NewLen int
	Seq    uint64
}

// LineRange is a half-open range of line indexes [First, End).
type LineRange struct {
	First int
	End   int
}

// Empty reports whether r covers no lines.
func (r LineRange) Empty() bool { return r.End <= r.First }

// Union returns the smallest range covering r and o.
func (r LineRange) Union(o LineRange) LineRange {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return LineRange{First: min(r.First, o.First), End: max(r.End, o.End)}
}

// Shift maps r from line numbers before an edit to line numbers after it.
// Lines touched by the edit map onto the lines that replaced them.
func (r LineRange) Shift(c LineChange) LineRange {
	if r.Empty() {
		return r
	}
	delta := c.NewCount - c.OldCount
	oldEnd := c.First + c.OldCount
	mapLine := func(l int, isEnd bool) int {
		switch {
		case l <= c.First:
			return l
		case l >= oldEnd:
			return l + delta
		case isEnd:
			return c.First + c.NewCount
		default:
			return c.First
		}
	}
	return LineRange{First: mapLine(r.First, false), End: mapLine(r.End, true)}
}

// LineChange describes how an edit changed the line structure: the
// OldCount lines starting at First were replaced by NewCount lines.
// Both counts include line First itself.
type LineChange struct {
	First    int
	OldCount int
	NewCount int
}

// Lines returns the range of lines the edit produced.
func (c LineChange) Lines() LineRange {
	return LineRange{First: c.First, End: c.First + c.NewCount}
}

// Document is an immutable snapshot of the buffer text with a line index.
type Document struct {
	text   string
	starts []int
}

// NewDocument indexes text.
func NewDocument(text string) *Document {
	starts := make([]int, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Document{text: text, starts: starts}
}

// Text returns the whole buffer.
func (d *Document) Text() string { return d.text }

// Len returns the buffer length in bytes.
func (d *Document) Len() int { return len(d.text) }

// NumLines returns the number of lines. A buffer ending in a newline has
// an empty last line.
func (d *Document) NumLines() int { return len(d.starts) }

// LineStart returns the offset of line i. LineStart(NumLines()) is Len().
func (d *Document) LineStart(i int) int {
	if i >= len(d.starts) {
		return len(d.text)
	}
	return d.starts[i]
}

// Line returns line i including its newline.
func (d *Document) Line(i int) string {
	return d.text[d.LineStart(i):d.LineStart(i+1)]
}

// LineOf returns the line containing offset off. An offset equal to
// Len() belongs to the last line.
func (d *Document) LineOf(off int) int {
	return sort.Search(len(d.starts), func(i int) bool { return d.starts[i] > off }) - 1
}

// Position converts an offset to a line and column.
func (d *Document) Position(off int) Position {
	off = max(0, min(off, len(d.text)))
	l := d.LineOf(off)
	return Position{Line: l, Col: off - d.starts[l]}
}

// Offset converts a line and column to an offset, clamping to the
// buffer and to the line's content.
func (d *Document) Offset(p Position) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(d.starts) {
		return len(d.text)
	}
	start := d.starts[p.Line]
	end := d.LineStart(p.Line + 1)
	if p.Line+1 < len(d.starts) {
		end-- // the newline
	}
	return start + max(0, min(p.Col, end-start))
}

// Valid reports whether s lies within the buffer.
func (d *Document) Valid(s Span) bool {
	return 0 <= s.Start && s.Start <= s.End && s.End <= len(d.text)
}

// Apply returns the document with old replaced by text, and the line
// change the replacement caused. old must be valid.
func (d *Document) Apply(old Span, text string) (*Document, LineChange) {
	first := d.LineOf(old.Start)
	last := d.LineOf(old.End)
	removed := strings.Count(d.text[old.Start:old.End], "\n")
	added := strings.Count(text, "\n")
	change := LineChange{
		First:    first,
		OldCount: last - first + 1,
		NewCount: last - first + 1 + added - removed,
	}

	newText := d.text[:old.Start] + text + d.text[old.End:]
	delta := len(text) - old.Len()

	// Lines up to first keep their starts, lines after last shift.
	starts := make([]int, 0, len(d.starts)+added-removed)
	starts = append(starts, d.starts[:first+1]...)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, old.Start+i+1)
		}
	}
	// Newlines of line last after the edit end survive, shifted.
	for _, s := range d.starts[last+1:] {
		starts = append(starts, s+delta)
	}
	return &Document{text: newText, starts: starts}, change
}
