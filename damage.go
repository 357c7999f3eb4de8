package chlorophyll

import (
	"context"

	"github.com/jbdoderlein/chlorophyll/internal/log"
	"github.com/jbdoderlein/chlorophyll/lex"
)

// Region is the result of a damage walk: the lines [First, End) were
// re-lexed, covering the bytes [Start, Stop).
type Region struct {
	First int
	End   int
	Start int
	Stop  int

	// Tokens are the tokens of the region with buffer offsets.
	Tokens []lex.Token

	// Entries holds the entry state of each line in [First, End).
	Entries []lex.State

	// Full is set when the walk gave up looking for a stable line and
	// re-lexed the buffer from the top.
	Full bool
}

// Lines returns the line range of r.
func (r Region) Lines() LineRange { return LineRange{First: r.First, End: r.End} }

// ComputeDamage re-lexes the lines affected by changes to the dirty
// lines of doc.
//
// The walk starts at the first dirty line, stepping back to the nearest
// line whose entry state is known. It then lexes forward, and once past
// the dirty lines stops at the first line whose recomputed entry state
// matches the recorded one. Lines after that point lex exactly as they
// did before. With maxBacktrack > 0, needing to step back further than
// that many lines re-lexes the whole buffer instead.
//
// The walk checks ctx between lines and returns its error when canceled.
func ComputeDamage(ctx context.Context, doc *Document, cp Checkpoints, dirty LineRange, g lex.Grammar, maxBacktrack int) (Region, error) {
	n := doc.NumLines()
	if dirty.Empty() {
		return Region{First: 0, End: 0}, nil
	}
	first := max(0, min(dirty.First, n-1))
	stopAfter := min(dirty.End, n) - 1

	start, full := first, false
	for walked := 0; start > 0; walked++ {
		if _, ok := cp.Checkpoint(start); ok {
			break
		}
		if maxBacktrack > 0 && walked >= maxBacktrack {
			log.Debug(log.CatDamage, "backtrack limit reached, relexing everything", "line", first, "limit", maxBacktrack)
			start, full = 0, true
			break
		}
		start--
	}

	entry := lex.Initial
	if start > 0 {
		entry, _ = cp.Checkpoint(start)
	}

	r := Region{First: start, Full: full}
	line := start
	for ; line < n; line++ {
		if err := ctx.Err(); err != nil {
			return Region{}, err
		}
		off := doc.LineStart(line)
		l := lex.LexLine(g, doc.Line(line), entry)
		for _, t := range l.Tokens {
			r.Tokens = append(r.Tokens, lex.Token{Start: t.Start + off, End: t.End + off, Kind: t.Kind})
		}
		r.Entries = append(r.Entries, entry)
		entry = l.Exit

		if !full && line >= stopAfter && line+1 < n {
			if rec, ok := cp.Checkpoint(line + 1); ok && rec == entry {
				line++
				break
			}
		}
	}
	r.End = line
	r.Start = doc.LineStart(r.First)
	r.Stop = doc.LineStart(r.End)

	log.Debug(log.CatDamage, "damage computed",
		"dirty_first", dirty.First, "dirty_end", dirty.End,
		"first", r.First, "end", r.End, "tokens", len(r.Tokens), "full", full)
	return r, nil
}
