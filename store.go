package chlorophyll

import (
	"fmt"
	"slices"

	"github.com/sanity-io/litter"

	"github.com/jbdoderlein/chlorophyll/lex"
	"github.com/jbdoderlein/chlorophyll/theme"
)

// Annotation is a styled span of the buffer.
type Annotation struct {
	Span
	Kind  lex.Kind
	Style theme.Style

	// touched is set when an edit changed the annotated text after the
	// annotation was made. A touched annotation is always replaced.
	touched bool
}

// Delta is the change set a highlight pass hands to the host. Removed
// spans are applied before Added annotations.
type Delta struct {
	Seq     uint64
	Added   []Annotation
	Removed []Span

	// Reset tells the host to drop every annotation it holds before
	// applying the delta.
	Reset bool
}

// Empty reports whether d changes nothing.
func (d Delta) Empty() bool { return len(d.Added) == 0 && len(d.Removed) == 0 }

// Checkpoints gives read access to recorded line entry states.
type Checkpoints interface {
	// Checkpoint returns the entry state recorded for line and whether
	// it is still known to be correct.
	Checkpoint(line int) (lex.State, bool)
}

// AnnotationStore holds the annotations of a buffer and the lexer state
// at the start of every line. It is not safe for concurrent use.
type AnnotationStore struct {
	spans   *spanStore
	entries []lex.State
	valid   []bool
}

// NewAnnotationStore returns a store for an empty one-line buffer.
func NewAnnotationStore() *AnnotationStore {
	st := &AnnotationStore{spans: newSpanStore()}
	st.Reset(0, 1)
	return st
}

// Reset drops every annotation and checkpoint for a buffer of bufLen
// bytes and lines lines. Only line 0 has a known entry state.
func (st *AnnotationStore) Reset(bufLen, lines int) {
	st.spans.Reset(bufLen)
	st.entries = make([]lex.State, max(lines, 1))
	st.valid = make([]bool, len(st.entries))
	st.valid[0] = true
}

// Len returns the number of bytes the store covers.
func (st *AnnotationStore) Len() int { return st.spans.TotalLen() }

// NumLines returns the number of lines the store keeps checkpoints for.
func (st *AnnotationStore) NumLines() int { return len(st.entries) }

// Shift re-anchors annotations and checkpoints after an edit. It must
// be called exactly once per edit, before any damage is computed.
func (st *AnnotationStore) Shift(e Edit, c LineChange) {
	st.spans.Replace(e.Old.Start, e.Old.Len(), e.NewLen)

	// Line c.First keeps its entry. Lines the edit produced after it are
	// unknown. Lines after the edit keep their recorded entries, which
	// become the targets the damage walk re-syncs against.
	lo := min(c.First+1, len(st.entries))
	hi := min(c.First+c.OldCount, len(st.entries))
	fresh := max(c.NewCount-1, 0)
	st.entries = slices.Replace(st.entries, lo, hi, make([]lex.State, fresh)...)
	st.valid = slices.Replace(st.valid, lo, hi, make([]bool, fresh)...)
}

// Checkpoint returns the entry state of line.
func (st *AnnotationStore) Checkpoint(line int) (lex.State, bool) {
	if line == 0 {
		return lex.Initial, true
	}
	if line < 0 || line >= len(st.entries) {
		return lex.Initial, false
	}
	return st.entries[line], st.valid[line]
}

// SetCheckpoints records states as the entry states of the lines
// starting at first.
func (st *AnnotationStore) SetCheckpoints(first int, states []lex.State) {
	for i, s := range states {
		line := first + i
		if line <= 0 {
			continue
		}
		if line >= len(st.entries) {
			break
		}
		st.entries[line] = s
		st.valid[line] = true
	}
}

// InvalidateCheckpoints forgets every entry state but line 0's.
func (st *AnnotationStore) InvalidateCheckpoints() {
	for i := 1; i < len(st.valid); i++ {
		st.valid[i] = false
	}
}

// Snapshot returns a copy of the checkpoints that later edits to the
// store do not affect.
func (st *AnnotationStore) Snapshot() Checkpoints {
	return &checkpointSnapshot{entries: slices.Clone(st.entries), valid: slices.Clone(st.valid)}
}

type checkpointSnapshot struct {
	entries []lex.State
	valid   []bool
}

func (c *checkpointSnapshot) Checkpoint(line int) (lex.State, bool) {
	if line == 0 {
		return lex.Initial, true
	}
	if line < 0 || line >= len(c.entries) {
		return lex.Initial, false
	}
	return c.entries[line], c.valid[line]
}

// Annotations returns the annotations overlapping [start, end), in order.
func (st *AnnotationStore) Annotations(start, end int) []Annotation {
	var out []Annotation
	st.spans.ForEachRun(func(off int, r styleRun) bool {
		if off >= end {
			return false
		}
		if !r.plain() && off+r.Len > start {
			out = append(out, annotationOf(off, r))
		}
		return true
	})
	return out
}

// At returns the annotation covering pos, if any.
func (st *AnnotationStore) At(pos int) (Annotation, bool) {
	var (
		a     Annotation
		found bool
	)
	st.spans.ForEachRun(func(off int, r styleRun) bool {
		if off > pos {
			return false
		}
		if pos < off+r.Len {
			if !r.plain() {
				a, found = annotationOf(off, r), true
			}
			return false
		}
		return true
	})
	return a, found
}

func annotationOf(off int, r styleRun) Annotation {
	return Annotation{
		Span:    Span{Start: off, End: off + r.Len},
		Kind:    r.Kind,
		Style:   r.Style,
		touched: r.Dirty,
	}
}

// Apply removes and adds annotations as one transaction. Every removal
// must name an existing annotation exactly and no addition may overlap
// another addition or an annotation that is kept. On error the store is
// unchanged.
func (st *AnnotationStore) Apply(adds []Annotation, removes []Span) (Delta, error) {
	if len(adds) == 0 && len(removes) == 0 {
		return Delta{}, nil
	}

	removes = slices.Clone(removes)
	slices.SortFunc(removes, func(a, b Span) int { return a.Start - b.Start })
	adds = slices.Clone(adds)
	slices.SortFunc(adds, func(a, b Annotation) int { return a.Start - b.Start })
	delta := Delta{Added: adds, Removed: removes}

	lo, hi := st.spans.TotalLen(), 0
	for _, r := range removes {
		lo, hi = min(lo, r.Start), max(hi, r.End)
	}
	for i, a := range adds {
		if a.Start < 0 || a.End > st.spans.TotalLen() || a.End <= a.Start {
			return Delta{}, fmt.Errorf("%w: addition %s outside buffer", ErrApplyMismatch, a.Span)
		}
		if a.Kind == lex.Text {
			return Delta{}, fmt.Errorf("%w: addition %s has no kind", ErrApplyMismatch, a.Span)
		}
		if i > 0 && adds[i-1].End > a.Start {
			return Delta{}, fmt.Errorf("%w: additions %s and %s overlap", ErrApplyMismatch, adds[i-1].Span, a.Span)
		}
		lo, hi = min(lo, a.Start), max(hi, a.End)
	}

	// The window [lo, hi) is rebuilt in one region update. Annotations
	// straddling its edges would be cut, so they must be kept whole.
	existing := st.Annotations(lo, hi)
	kept := existing[:0:0]
	ri := 0
	for _, a := range existing {
		if ri < len(removes) && removes[ri].Start < a.Start {
			return Delta{}, fmt.Errorf("%w: no annotation at %s", ErrApplyMismatch, removes[ri])
		}
		if ri < len(removes) && removes[ri] == a.Span {
			ri++
			continue
		}
		if a.Start < lo || a.End > hi {
			lo, hi = min(lo, a.Start), max(hi, a.End)
		}
		kept = append(kept, a)
	}
	if ri < len(removes) {
		return Delta{}, fmt.Errorf("%w: no annotation at %s", ErrApplyMismatch, removes[ri])
	}

	merged := make([]Annotation, 0, len(kept)+len(adds))
	ki, ai := 0, 0
	for ki < len(kept) || ai < len(adds) {
		if ai == len(adds) || (ki < len(kept) && kept[ki].Start < adds[ai].Start) {
			merged = append(merged, kept[ki])
			ki++
			continue
		}
		merged = append(merged, adds[ai])
		ai++
	}
	for i := 1; i < len(merged); i++ {
		if merged[i-1].End > merged[i].Start {
			return Delta{}, fmt.Errorf("%w: addition overlaps annotation at %s", ErrApplyMismatch, merged[i-1].Span)
		}
	}

	runs := make([]styleRun, 0, 2*len(merged)+1)
	pos := lo
	for _, a := range merged {
		if a.Start > pos {
			runs = append(runs, styleRun{Len: a.Start - pos})
		}
		runs = append(runs, styleRun{Len: a.Len(), Kind: a.Kind, Style: a.Style, Dirty: a.touched})
		pos = a.End
	}
	if hi > pos {
		runs = append(runs, styleRun{Len: hi - pos})
	}
	st.spans.RegionUpdate(lo, runs)
	return delta, nil
}

// Verify checks that the store covers a buffer of bufLen bytes and
// lines lines.
func (st *AnnotationStore) Verify(bufLen, lines int) error {
	if got := st.spans.TotalLen(); got != bufLen {
		return fmt.Errorf("%w: store covers %d bytes, buffer has %d", ErrDesync, got, bufLen)
	}
	if got := len(st.entries); got != lines {
		return fmt.Errorf("%w: store has %d line checkpoints, buffer has %d lines", ErrDesync, got, lines)
	}
	return nil
}

// Dump renders the store for debugging.
func (st *AnnotationStore) Dump() string {
	type run struct {
		Start, End int
		Kind       string
		Style      string
		Dirty      bool
	}
	var runs []run
	st.spans.ForEachRun(func(off int, r styleRun) bool {
		if !r.plain() {
			runs = append(runs, run{off, off + r.Len, r.Kind.String(), r.Style.String(), r.Dirty})
		}
		return true
	})
	var invalid []int
	for i, ok := range st.valid {
		if !ok {
			invalid = append(invalid, i)
		}
	}
	dump := struct {
		Len          int
		Annotations  []run
		Entries      []lex.State
		InvalidLines []int
	}{st.spans.TotalLen(), runs, st.entries, invalid}
	return litter.Options{StripPackageNames: true}.Sdump(dump)
}
