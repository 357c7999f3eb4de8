// Package lex turns source lines into classified tokens.
//
// A Grammar is a pure function of a line and the state the lexer was in at
// the start of that line. It returns the tokens found on the line and the
// state at its end. Callers may therefore restart lexing at any line whose
// entry state they recorded earlier.
package lex

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jbdoderlein/chlorophyll/internal/log"
)

// State is the opaque lexer mode at a line boundary. Two states are
// interchangeable exactly when they compare equal.
type State string

// Initial is the state at the start of a buffer.
const Initial State = ""

// Token is a classified byte range of a line, [Start, End).
type Token struct {
	Start int
	End   int
	Kind  Kind
}

func (t Token) String() string {
	return fmt.Sprintf("%d-%d:%s", t.Start, t.End, t.Kind)
}

// Grammar lexes one line at a time. The line includes its trailing
// newline when it has one. Implementations must not keep state between
// calls and must be safe for concurrent use.
type Grammar interface {
	Name() string
	LexLine(line string, entry State) ([]Token, State)
}

// Line is the result of lexing a single line.
type Line struct {
	Tokens []Token
	Exit   State
}

// LexLine runs g over line and normalises the result: tokens are sorted,
// clipped to the line, plain and empty tokens are dropped and overlaps
// are trimmed. A grammar that panics yields one error token covering the
// line and the entry state is carried through unchanged.
func LexLine(g Grammar, line string, entry State) (out Line) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn(log.CatLex, "grammar panicked", "grammar", g.Name(), "panic", r)
			out = Line{Exit: entry}
			if n := len(strings.TrimRight(line, "\r\n")); n > 0 {
				out.Tokens = []Token{{Start: 0, End: n, Kind: Error}}
			}
		}
	}()
	toks, exit := g.LexLine(line, entry)
	return Line{Tokens: normalize(toks, len(line)), Exit: exit}
}

func normalize(toks []Token, n int) []Token {
	if len(toks) == 0 {
		return nil
	}
	out := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind == Text {
			continue
		}
		t.Start = max(t.Start, 0)
		t.End = min(t.End, n)
		if t.End <= t.Start {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	w, end := 0, 0
	for _, t := range out {
		if t.Start < end {
			t.Start = end
		}
		if t.End <= t.Start {
			continue
		}
		out[w] = t
		w++
		end = t.End
	}
	if w == 0 {
		return nil
	}
	return out[:w]
}

// SplitLines splits text after every newline. The result always has at
// least one element; text ending in a newline yields a trailing empty line.
func SplitLines(text string) []string {
	lines := make([]string, 0, strings.Count(text, "\n")+1)
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
	return append(lines, text)
}

// Lex runs g over text starting in entry and returns tokens with offsets
// relative to the start of text, plus the state after the last line.
func Lex(g Grammar, text string, entry State) ([]Token, State) {
	var toks []Token
	off := 0
	state := entry
	for _, line := range SplitLines(text) {
		l := LexLine(g, line, state)
		for _, t := range l.Tokens {
			toks = append(toks, Token{Start: t.Start + off, End: t.End + off, Kind: t.Kind})
		}
		state = l.Exit
		off += len(line)
	}
	return toks, state
}

type plain struct{}

func (plain) Name() string                             { return "plain" }
func (plain) LexLine(string, State) ([]Token, State) { return nil, Initial }

// Plain is a grammar that recognises nothing.
var Plain Grammar = plain{}
