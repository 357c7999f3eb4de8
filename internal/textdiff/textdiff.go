// Package textdiff turns two versions of a text into the edits that lead
// from one to the other, for hosts that only see whole files.
package textdiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// lineModeThreshold is the combined size above which texts are diffed
// line by line rather than character by character.
const lineModeThreshold = 64 << 10

// Edit replaces the bytes [Start, End) with Text. Offsets refer to the
// text as it is once every earlier edit of the same batch is applied.
type Edit struct {
	Start int
	End   int
	Text  string
}

func (e Edit) String() string {
	return fmt.Sprintf("[%d,%d)→%q", e.Start, e.End, e.Text)
}

// Edits returns the edits that turn old into new, in buffer order.
func Edits(old, new string) []Edit {
	if old == new {
		return nil
	}
	dmp := diffmatchpatch.New()
	var diffs []diffmatchpatch.Diff
	if len(old)+len(new) > lineModeThreshold {
		a, b, lines := dmp.DiffLinesToChars(old, new)
		diffs = dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	} else {
		diffs = dmp.DiffMain(old, new, false)
	}

	var (
		edits []Edit
		pos   int
		cur   *Edit
	)
	flush := func() {
		if cur != nil {
			edits = append(edits, *cur)
			pos = cur.Start + len(cur.Text)
			cur = nil
		}
	}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += len(d.Text)
		case diffmatchpatch.DiffDelete:
			if cur == nil {
				cur = &Edit{Start: pos, End: pos}
			}
			cur.End += len(d.Text)
		case diffmatchpatch.DiffInsert:
			if cur == nil {
				cur = &Edit{Start: pos, End: pos}
			}
			cur.Text += d.Text
		}
	}
	flush()
	return edits
}

// Apply applies edits to text in order.
func Apply(text string, edits []Edit) (string, error) {
	for _, e := range edits {
		if e.Start < 0 || e.Start > e.End || e.End > len(text) {
			return "", fmt.Errorf("edit %s out of range for %d bytes", e, len(text))
		}
		var b strings.Builder
		b.Grow(len(text) - (e.End - e.Start) + len(e.Text))
		b.WriteString(text[:e.Start])
		b.WriteString(e.Text)
		b.WriteString(text[e.End:])
		text = b.String()
	}
	return text, nil
}
