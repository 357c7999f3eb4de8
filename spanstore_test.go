package chlorophyll

import (
	"image/color"
	"testing"

	"pgregory.net/rapid"

	"github.com/jbdoderlein/chlorophyll/lex"
	"github.com/jbdoderlein/chlorophyll/theme"
)

// Test runs used throughout. P is plain text, A–C are distinct annotations.
var (
	styleA = theme.Style{Fg: color.RGBA{R: 255, A: 255}, Bold: true}
	styleB = theme.Style{Bg: color.RGBA{G: 255, A: 255}, Italic: true}
	styleC = theme.Style{Fg: color.RGBA{B: 255, A: 255}}
)

func P(n int) styleRun { return styleRun{Len: n} }
func A(n int) styleRun { return styleRun{Len: n, Kind: lex.Keyword, Style: styleA} }
func B(n int) styleRun { return styleRun{Len: n, Kind: lex.String, Style: styleB} }
func C(n int) styleRun { return styleRun{Len: n, Kind: lex.Comment, Style: styleC} }

func dirty(r styleRun) styleRun {
	r.Dirty = true
	return r
}

// --- helpers ---

// buildStore creates a spanStore pre-loaded with the given runs.
// It uses RegionUpdate on an appropriately-sized plain store so that
// the gap buffer internals are exercised from the start.
func buildStore(runs []styleRun) *spanStore {
	s := newSpanStore()
	total := 0
	for _, r := range runs {
		total += r.Len
	}
	if total == 0 {
		return s
	}
	s.Insert(0, total)
	s.RegionUpdate(0, runs)
	return s
}

// expectRuns asserts that s.Runs() matches expected in order.
func expectRuns(t *testing.T, label string, s *spanStore, expected []styleRun) {
	t.Helper()
	got := s.Runs()
	if len(got) != len(expected) {
		t.Errorf("%s: got %d runs, want %d\n  got:  %+v\n  want: %+v", label, len(got), len(expected), got, expected)
		return
	}
	for i := range expected {
		g, w := got[i], expected[i]
		if g.Len != w.Len || g.Kind != w.Kind || !g.Style.Equal(w.Style) || g.Dirty != w.Dirty {
			t.Errorf("%s: run[%d] got {Len:%d Kind:%s Dirty:%v}, want {Len:%d Kind:%s Dirty:%v}",
				label, i, g.Len, g.Kind, g.Dirty, w.Len, w.Kind, w.Dirty)
		}
	}
}

// expectTotalLen asserts TotalLen.
func expectTotalLen(t *testing.T, label string, s *spanStore, want int) {
	t.Helper()
	if got := s.TotalLen(); got != want {
		t.Errorf("%s: TotalLen = %d, want %d", label, got, want)
	}
}

// =========================================================================
// Empty store
// =========================================================================

func TestSpanStore_EmptyStore(t *testing.T) {
	s := newSpanStore()
	expectTotalLen(t, "new", s, 0)
	if n := s.NumRuns(); n != 0 {
		t.Errorf("new: NumRuns = %d, want 0", n)
	}

	called := false
	s.ForEachRun(func(int, styleRun) bool { called = true; return true })
	if called {
		t.Error("ForEachRun should not call fn on empty store")
	}
	if runs := s.Runs(); len(runs) != 0 {
		t.Errorf("Runs() = %v, want empty", runs)
	}

	s.Clear()
	expectTotalLen(t, "clear", s, 0)
}

// =========================================================================
// Insert
// =========================================================================

func TestSpanStore_InsertIntoEmpty(t *testing.T) {
	s := newSpanStore()
	s.Insert(0, 5)
	expectRuns(t, "insert", s, []styleRun{P(5)})
	expectTotalLen(t, "insert", s, 5)
}

func TestSpanStore_InsertBeforeAnnotation(t *testing.T) {
	// Text typed before a token is not part of it.
	s := buildStore([]styleRun{A(5)})
	s.Insert(0, 3)
	expectRuns(t, "start", s, []styleRun{P(3), A(5)})
	expectTotalLen(t, "start", s, 8)
}

func TestSpanStore_InsertAfterAnnotation(t *testing.T) {
	s := buildStore([]styleRun{A(5)})
	s.Insert(5, 3)
	expectRuns(t, "end", s, []styleRun{A(5), P(3)})
	expectTotalLen(t, "end", s, 8)
}

func TestSpanStore_InsertMidAnnotation(t *testing.T) {
	s := buildStore([]styleRun{A(10)})
	s.Insert(5, 3)
	expectRuns(t, "mid", s, []styleRun{dirty(A(13))})
	expectTotalLen(t, "mid", s, 13)
}

func TestSpanStore_InsertBetweenAnnotations(t *testing.T) {
	s := buildStore([]styleRun{A(5), B(5)})
	s.Insert(5, 3)
	expectRuns(t, "between", s, []styleRun{A(5), P(3), B(5)})
	expectTotalLen(t, "between", s, 13)
}

func TestSpanStore_InsertGrowsPlainNeighbour(t *testing.T) {
	s := buildStore([]styleRun{A(5), P(5)})
	s.Insert(5, 3)
	expectRuns(t, "plain after", s, []styleRun{A(5), P(8)})

	s = buildStore([]styleRun{P(5), A(5)})
	s.Insert(5, 2)
	expectRuns(t, "plain before", s, []styleRun{P(7), A(5)})
}

func TestSpanStore_InsertMidPlainStaysClean(t *testing.T) {
	s := buildStore([]styleRun{P(4), B(2), P(4)})
	s.Insert(8, 2)
	expectRuns(t, "plain", s, []styleRun{P(4), B(2), P(6)})
}

// =========================================================================
// Delete
// =========================================================================

func TestSpanStore_DeleteWithinAnnotation(t *testing.T) {
	s := buildStore([]styleRun{A(10)})
	s.Delete(3, 4)
	expectRuns(t, "within", s, []styleRun{dirty(A(6))})
	expectTotalLen(t, "within", s, 6)
}

func TestSpanStore_DeleteWithinPlain(t *testing.T) {
	s := buildStore([]styleRun{P(10)})
	s.Delete(3, 4)
	expectRuns(t, "plain", s, []styleRun{P(6)})
}

func TestSpanStore_DeleteEntireSingleRun(t *testing.T) {
	s := buildStore([]styleRun{A(10)})
	s.Delete(0, 10)
	expectRuns(t, "entire", s, []styleRun{})
	expectTotalLen(t, "entire", s, 0)
}

func TestSpanStore_DeleteExactAnnotationMergesPlain(t *testing.T) {
	s := buildStore([]styleRun{P(5), A(5), P(5)})
	s.Delete(5, 5)
	expectRuns(t, "exact", s, []styleRun{P(10)})
	expectTotalLen(t, "exact", s, 10)
}

func TestSpanStore_DeleteSpanningTwoAnnotations(t *testing.T) {
	s := buildStore([]styleRun{A(5), B(5)})
	s.Delete(3, 4)
	expectRuns(t, "two", s, []styleRun{dirty(A(3)), dirty(B(3))})
	expectTotalLen(t, "two", s, 6)
}

func TestSpanStore_DeleteSpanningMultiplePartialEdges(t *testing.T) {
	// Annotations with equal styles stay separate after the cut.
	s := buildStore([]styleRun{A(5), B(5), C(5), A(5)})
	s.Delete(3, 14)
	expectRuns(t, "edges", s, []styleRun{dirty(A(3)), dirty(A(3))})
	expectTotalLen(t, "edges", s, 6)
}

func TestSpanStore_DeleteEntireStore(t *testing.T) {
	s := buildStore([]styleRun{A(5), B(5)})
	s.Delete(0, 10)
	expectRuns(t, "all", s, []styleRun{})
	expectTotalLen(t, "all", s, 0)
}

func TestSpanStore_DeleteClampsToEnd(t *testing.T) {
	s := buildStore([]styleRun{P(5), C(5)})
	s.Delete(5, 50)
	expectRuns(t, "clamp", s, []styleRun{P(5)})
}

// =========================================================================
// Replace
// =========================================================================

func TestSpanStore_ReplaceRetypedToken(t *testing.T) {
	// "a = 1" -> "a = 2": the number keeps its run but is marked dirty.
	s := buildStore([]styleRun{P(4), B(1), P(5)})
	s.Replace(4, 1, 1)
	expectRuns(t, "retype", s, []styleRun{P(4), dirty(B(1)), P(5)})
	expectTotalLen(t, "retype", s, 10)
}

func TestSpanStore_ReplaceWithinPlain(t *testing.T) {
	s := buildStore([]styleRun{P(5), A(2)})
	s.Replace(1, 2, 5)
	expectRuns(t, "plain", s, []styleRun{P(8), A(2)})
}

func TestSpanStore_ReplaceSpanningRuns(t *testing.T) {
	s := buildStore([]styleRun{A(2), P(1), B(2)})
	s.Replace(1, 3, 1)
	expectRuns(t, "span", s, []styleRun{dirty(A(1)), P(1), dirty(B(1))})
	expectTotalLen(t, "span", s, 3)
}

func TestSpanStore_ReplaceWholeAnnotationWithNothing(t *testing.T) {
	s := buildStore([]styleRun{P(3), A(2), P(3)})
	s.Replace(3, 2, 0)
	expectRuns(t, "erase", s, []styleRun{P(6)})
}

func TestSpanStore_ReplacePureInsert(t *testing.T) {
	s := buildStore([]styleRun{A(4)})
	s.Replace(2, 0, 3)
	expectRuns(t, "insert", s, []styleRun{dirty(A(7))})
}

// =========================================================================
// RegionUpdate
// =========================================================================

func TestSpanStore_RegionUpdateMiddle(t *testing.T) {
	s := buildStore([]styleRun{P(10)})
	s.RegionUpdate(3, []styleRun{A(4)})
	expectRuns(t, "middle", s, []styleRun{P(3), A(4), P(3)})
	expectTotalLen(t, "middle", s, 10)
}

func TestSpanStore_RegionUpdateToPlainMerges(t *testing.T) {
	s := buildStore([]styleRun{P(3), A(4), P(3)})
	s.RegionUpdate(3, []styleRun{P(4)})
	expectRuns(t, "plain", s, []styleRun{P(10)})
}

func TestSpanStore_RegionUpdateKeepsEqualAnnotationsApart(t *testing.T) {
	s := buildStore([]styleRun{P(10)})
	s.RegionUpdate(0, []styleRun{A(5), A(5)})
	expectRuns(t, "apart", s, []styleRun{A(5), A(5)})
}

func TestSpanStore_RegionUpdateSpanningRuns(t *testing.T) {
	s := buildStore([]styleRun{P(5), B(5)})
	s.RegionUpdate(3, []styleRun{P(2), C(2)})
	expectRuns(t, "span", s, []styleRun{P(5), C(2), B(3)})
}

func TestSpanStore_ZeroLengthInRegionUpdate(t *testing.T) {
	s := buildStore([]styleRun{P(10)})
	s.RegionUpdate(5, []styleRun{B(0), A(5)})
	expectRuns(t, "zero", s, []styleRun{P(5), A(5)})
	expectTotalLen(t, "zero", s, 10)
}

// =========================================================================
// ForEachRun, Clear, Reset
// =========================================================================

func TestSpanStore_ForEachRunOffsets(t *testing.T) {
	s := buildStore([]styleRun{A(5), P(3), C(7)})
	var offs []int
	s.ForEachRun(func(off int, _ styleRun) bool {
		offs = append(offs, off)
		return true
	})
	if want := []int{0, 5, 8}; len(offs) != 3 || offs[0] != want[0] || offs[1] != want[1] || offs[2] != want[2] {
		t.Errorf("offsets = %v, want %v", offs, want)
	}

	calls := 0
	s.ForEachRun(func(int, styleRun) bool {
		calls++
		return false
	})
	if calls != 1 {
		t.Errorf("ForEachRun kept going after false: %d calls", calls)
	}
}

func TestSpanStore_ForEachRunAfterGapMove(t *testing.T) {
	s := buildStore([]styleRun{A(5), B(5), C(5)})
	// Insert near the end to force a gap move away from the initial position.
	s.Insert(12, 3)
	expectRuns(t, "gap", s, []styleRun{A(5), B(5), dirty(C(8))})
	s.Insert(0, 1)
	expectRuns(t, "gap back", s, []styleRun{P(1), A(5), B(5), dirty(C(8))})
}

func TestSpanStore_ClearThenReset(t *testing.T) {
	s := buildStore([]styleRun{A(5)})
	s.Clear()
	expectTotalLen(t, "clear", s, 0)
	s.Reset(3)
	expectRuns(t, "reset", s, []styleRun{P(3)})
	s.Reset(0)
	expectRuns(t, "reset empty", s, []styleRun{})
}

func TestSpanStore_GrowsPastInitialCapacity(t *testing.T) {
	runs := make([]styleRun, 0, 3*minGapCapacity)
	for range 3 * minGapCapacity {
		runs = append(runs, A(1), P(1))
	}
	s := buildStore(runs)
	if got, want := s.NumRuns(), len(runs); got != want {
		t.Fatalf("NumRuns = %d, want %d", got, want)
	}
	expectTotalLen(t, "grow", s, len(runs))
}

// =========================================================================
// Invariants under random edits
// =========================================================================

func TestSpanStore_InvariantsHold(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := newSpanStore()
		s.Insert(0, rapid.IntRange(0, 40).Draw(t, "initial"))

		for range rapid.IntRange(1, 30).Draw(t, "ops") {
			total := s.TotalLen()
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				s.Insert(rapid.IntRange(0, total).Draw(t, "pos"), rapid.IntRange(1, 5).Draw(t, "n"))
			case 1:
				pos := rapid.IntRange(0, total).Draw(t, "pos")
				s.Delete(pos, rapid.IntRange(0, total-pos).Draw(t, "n"))
			case 2:
				pos := rapid.IntRange(0, total).Draw(t, "pos")
				s.Replace(pos, rapid.IntRange(0, total-pos).Draw(t, "old"), rapid.IntRange(0, 5).Draw(t, "new"))
			case 3:
				if total == 0 {
					continue
				}
				pos := rapid.IntRange(0, total-1).Draw(t, "pos")
				n := rapid.IntRange(1, total-pos).Draw(t, "n")
				s.RegionUpdate(pos, []styleRun{A(n)})
			}

			sum := 0
			prevPlain := false
			for i, r := range s.Runs() {
				if r.Len <= 0 {
					t.Fatalf("run %d has length %d", i, r.Len)
				}
				if i > 0 && prevPlain && r.plain() {
					t.Fatalf("adjacent plain runs at %d: %+v", i, s.Runs())
				}
				if r.plain() && r.Dirty {
					t.Fatalf("plain run %d is dirty", i)
				}
				prevPlain = r.plain()
				sum += r.Len
			}
			if sum != s.TotalLen() {
				t.Fatalf("sum of run lengths (%d) != TotalLen (%d)", sum, s.TotalLen())
			}
		}
	})
}
