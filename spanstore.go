package chlorophyll

import (
	"github.com/jbdoderlein/chlorophyll/lex"
	"github.com/jbdoderlein/chlorophyll/theme"
)

// styleRun is a contiguous byte range of the buffer. A run of kind
// lex.Text is plain text; any other run is exactly one annotation.
type styleRun struct {
	Len   int // number of bytes (must be >= 0)
	Kind  lex.Kind
	Style theme.Style
	Dirty bool // an edit changed the annotated text since it was lexed
}

func (r styleRun) plain() bool { return r.Kind == lex.Text }

// spanStore tiles the whole buffer with runs, kept in a gap buffer.
// Plain neighbours are merged, styled runs never are.
type spanStore struct {
	runs     []styleRun // storage array with gap
	gap0     int        // start of gap (first unused index)
	gap1     int        // end of gap (first used index after gap)
	totalLen int        // cached sum of all run lengths
}

const minGapCapacity = 32

func newSpanStore() *spanStore {
	runs := make([]styleRun, minGapCapacity)
	return &spanStore{
		runs: runs,
		gap0: 0,
		gap1: len(runs),
	}
}

// TotalLen returns the total number of bytes covered by all runs.
func (s *spanStore) TotalLen() int {
	return s.totalLen
}

// NumRuns returns the number of active runs (excluding the gap).
func (s *spanStore) NumRuns() int {
	return s.gap0 + (len(s.runs) - s.gap1)
}

// Clear removes all runs and resets TotalLen to 0.
func (s *spanStore) Clear() {
	s.gap0 = 0
	s.gap1 = len(s.runs)
	s.totalLen = 0
}

// Reset makes the store a single plain run of n bytes.
func (s *spanStore) Reset(n int) {
	s.Clear()
	s.Insert(0, n)
}

// ForEachRun calls fn with each run and its offset, in order, until fn
// returns false.
func (s *spanStore) ForEachRun(fn func(off int, r styleRun) bool) {
	off := 0
	for i := 0; i < s.gap0; i++ {
		if !fn(off, s.runs[i]) {
			return
		}
		off += s.runs[i].Len
	}
	for i := s.gap1; i < len(s.runs); i++ {
		if !fn(off, s.runs[i]) {
			return
		}
		off += s.runs[i].Len
	}
}

// Runs returns all runs as a new slice.
func (s *spanStore) Runs() []styleRun {
	n := s.NumRuns()
	if n == 0 {
		return nil
	}
	result := make([]styleRun, 0, n)
	s.ForEachRun(func(_ int, r styleRun) bool {
		result = append(result, r)
		return true
	})
	return result
}

// physicalIndex converts a logical index to a physical index in the runs slice.
func (s *spanStore) physicalIndex(logical int) int {
	if logical < s.gap0 {
		return logical
	}
	return logical + (s.gap1 - s.gap0)
}

func (s *spanStore) getRun(logical int) styleRun {
	return s.runs[s.physicalIndex(logical)]
}

func (s *spanStore) setRun(logical int, r styleRun) {
	s.runs[s.physicalIndex(logical)] = r
}

// moveGapTo repositions the gap so that gap0 == logicalIdx.
func (s *spanStore) moveGapTo(logicalIdx int) {
	if logicalIdx == s.gap0 {
		return
	}
	if logicalIdx < s.gap0 {
		// Move runs [logicalIdx, gap0) rightward to end at gap1.
		count := s.gap0 - logicalIdx
		copy(s.runs[s.gap1-count:s.gap1], s.runs[logicalIdx:s.gap0])
		s.gap1 -= count
		s.gap0 = logicalIdx
	} else {
		// logicalIdx > gap0: move runs from after the gap leftward.
		count := logicalIdx - s.gap0
		copy(s.runs[s.gap0:s.gap0+count], s.runs[s.gap1:s.gap1+count])
		s.gap0 += count
		s.gap1 += count
	}
}

func (s *spanStore) gapSize() int {
	return s.gap1 - s.gap0
}

// growGap ensures there are at least needed free slots in the gap.
func (s *spanStore) growGap(needed int) {
	if s.gapSize() >= needed {
		return
	}
	oldLen := len(s.runs)
	// Double or add needed, whichever is larger.
	growth := max(oldLen, needed, minGapCapacity)
	newLen := oldLen + growth

	newRuns := make([]styleRun, newLen)
	copy(newRuns[:s.gap0], s.runs[:s.gap0])
	afterCount := oldLen - s.gap1
	newGap1 := newLen - afterCount
	copy(newRuns[newGap1:], s.runs[s.gap1:])

	s.runs = newRuns
	s.gap1 = newGap1
}

// insertRun inserts r before the run at logical index idx.
func (s *spanStore) insertRun(idx int, r styleRun) {
	s.moveGapTo(idx)
	s.growGap(1)
	s.runs[s.gap0] = r
	s.gap0++
}

// removeRun removes the run at logical index idx.
func (s *spanStore) removeRun(idx int) {
	s.moveGapTo(idx)
	s.gap1++
}

// findRunAt locates which run contains byte position pos.
// Returns (logicalIndex, offsetWithinRun).
// When pos == TotalLen, returns (NumRuns(), 0).
func (s *spanStore) findRunAt(pos int) (int, int) {
	n := s.NumRuns()
	accum := 0
	for i := 0; i < n; i++ {
		r := s.getRun(i)
		if pos < accum+r.Len {
			return i, pos - accum
		}
		accum += r.Len
	}
	return n, 0
}

// Insert adjusts runs when length bytes are inserted at pos. Text typed
// strictly inside an annotation grows it and marks it dirty; text at a
// run boundary is plain.
func (s *spanStore) Insert(pos, length int) {
	if length <= 0 {
		return
	}
	runIdx, offsetInRun := s.findRunAt(pos)
	if offsetInRun > 0 {
		r := s.getRun(runIdx)
		r.Len += length
		r.Dirty = r.Dirty || !r.plain()
		s.setRun(runIdx, r)
		s.totalLen += length
		return
	}

	// At a boundary: grow a plain neighbour or add a plain run.
	switch {
	case runIdx < s.NumRuns() && s.getRun(runIdx).plain():
		r := s.getRun(runIdx)
		r.Len += length
		s.setRun(runIdx, r)
	case runIdx > 0 && s.getRun(runIdx-1).plain():
		r := s.getRun(runIdx - 1)
		r.Len += length
		s.setRun(runIdx-1, r)
	default:
		s.insertRun(runIdx, styleRun{Len: length})
	}
	s.totalLen += length
}

// Delete adjusts runs when bytes in [pos, pos+length) are deleted.
// Annotations losing part of their text are marked dirty.
func (s *spanStore) Delete(pos, length int) {
	// Clamp.
	if pos+length > s.totalLen {
		length = s.totalLen - pos
	}
	if length <= 0 {
		return
	}

	startIdx, startOff := s.findRunAt(pos)
	endIdx, endOff := s.findRunAt(pos + length)

	if startIdx == endIdx {
		// Deletion within a single run.
		r := s.getRun(startIdx)
		r.Len -= length
		r.Dirty = r.Dirty || !r.plain()
		if r.Len == 0 {
			s.removeRun(startIdx)
			s.mergeAround(startIdx)
		} else {
			s.setRun(startIdx, r)
		}
		s.totalLen -= length
		return
	}

	// Deletion spans multiple runs.
	// Shrink the first run.
	firstRun := s.getRun(startIdx)
	firstRun.Len = startOff
	firstRun.Dirty = firstRun.Dirty || !firstRun.plain()

	// Shrink the last run.
	var lastRun styleRun
	if endIdx < s.NumRuns() {
		lastRun = s.getRun(endIdx)
		lastRun.Len -= endOff
		lastRun.Dirty = lastRun.Dirty || (endOff > 0 && !lastRun.plain())
	}

	keepFirst := firstRun.Len > 0
	keepLast := endIdx < s.NumRuns() && lastRun.Len > 0

	if keepFirst {
		s.setRun(startIdx, firstRun)
	}

	// Determine the range of runs to remove: all fully-contained plus
	// zero-length edge runs.
	removeStart := startIdx
	if keepFirst {
		removeStart = startIdx + 1
	}
	removeEnd := endIdx // exclusive; endIdx run is handled separately
	if endIdx < s.NumRuns() {
		if keepLast {
			s.setRun(endIdx, lastRun)
		} else {
			removeEnd = endIdx + 1
		}
	}

	if removeEnd > removeStart {
		s.moveGapTo(removeStart)
		s.gap1 += (removeEnd - removeStart)
	}

	s.totalLen -= length
	s.mergeAround(removeStart)
}

// Replace adjusts runs when the oldLen bytes at pos are replaced by
// newLen bytes. A replacement inside a single run resizes that run, so
// an annotation whose text was retyped survives as a dirty annotation.
func (s *spanStore) Replace(pos, oldLen, newLen int) {
	if oldLen > 0 && pos+oldLen <= s.totalLen {
		startIdx, startOff := s.findRunAt(pos)
		r := s.getRun(startIdx)
		if startOff+oldLen <= r.Len {
			r.Len += newLen - oldLen
			r.Dirty = r.Dirty || !r.plain()
			s.totalLen += newLen - oldLen
			if r.Len == 0 {
				s.removeRun(startIdx)
				s.mergeAround(startIdx)
			} else {
				s.setRun(startIdx, r)
			}
			return
		}
	}
	s.Delete(pos, oldLen)
	s.Insert(pos, newLen)
}

// mergeAround merges plain runs meeting at logical index idx.
func (s *spanStore) mergeAround(idx int) {
	if idx <= 0 || idx >= s.NumRuns() {
		return
	}
	prev, cur := s.getRun(idx-1), s.getRun(idx)
	if prev.plain() && cur.plain() {
		prev.Len += cur.Len
		s.setRun(idx-1, prev)
		s.removeRun(idx)
	}
}

// mergeAdjacent scans all runs and merges adjacent plain runs.
func (s *spanStore) mergeAdjacent() {
	i := 0
	for i < s.NumRuns()-1 {
		cur := s.getRun(i)
		next := s.getRun(i + 1)
		if cur.plain() && next.plain() {
			cur.Len += next.Len
			s.setRun(i, cur)
			s.removeRun(i + 1)
		} else {
			i++
		}
	}
}

// removeZeroLengthRuns removes any runs with Len == 0.
func (s *spanStore) removeZeroLengthRuns() {
	i := 0
	for i < s.NumRuns() {
		if s.getRun(i).Len == 0 {
			s.removeRun(i)
		} else {
			i++
		}
	}
}

// RegionUpdate replaces the runs in [offset, offset+sum(newRuns.Len)).
func (s *spanStore) RegionUpdate(offset int, newRuns []styleRun) {
	newTotalLen := 0
	for _, r := range newRuns {
		newTotalLen += r.Len
	}

	if newTotalLen == 0 && len(newRuns) == 0 {
		return
	}

	startIdx, startOff := s.findRunAt(offset)
	endIdx, endOff := s.findRunAt(offset + newTotalLen)

	// Split at start boundary if needed.
	if startOff > 0 {
		origRun := s.getRun(startIdx)
		beforeRun, afterRun := origRun, origRun
		beforeRun.Len = startOff
		afterRun.Len = origRun.Len - startOff

		s.setRun(startIdx, beforeRun)
		s.insertRun(startIdx+1, afterRun)

		startIdx++ // now points to the first run fully inside the region

		// Recalculate endIdx since we inserted a run.
		endIdx, endOff = s.findRunAt(offset + newTotalLen)
	}

	// Split at end boundary if needed.
	if endOff > 0 && endIdx < s.NumRuns() {
		origRun := s.getRun(endIdx)
		insideRun, afterRun := origRun, origRun
		insideRun.Len = endOff
		afterRun.Len = origRun.Len - endOff

		s.setRun(endIdx, insideRun)
		s.insertRun(endIdx+1, afterRun)

		endIdx++ // include the inside part in the replacement range
	}

	// Now remove runs [startIdx, endIdx) and insert newRuns.
	numToRemove := endIdx - startIdx
	s.moveGapTo(startIdx)
	s.gap1 += numToRemove

	filtered := make([]styleRun, 0, len(newRuns))
	for _, r := range newRuns {
		if r.Len > 0 {
			filtered = append(filtered, r)
		}
	}

	if len(filtered) > 0 {
		s.growGap(len(filtered))
		for _, r := range filtered {
			s.runs[s.gap0] = r
			s.gap0++
		}
	}

	s.removeZeroLengthRuns()
	s.mergeAdjacent()
	s.recomputeTotalLen()
}

// recomputeTotalLen recalculates totalLen from the actual runs.
func (s *spanStore) recomputeTotalLen() {
	total := 0
	s.ForEachRun(func(_ int, r styleRun) bool {
		total += r.Len
		return true
	})
	s.totalLen = total
}
