package lex

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingGrammar struct {
	Grammar
	calls atomic.Int32
}

func (c *countingGrammar) LexLine(line string, entry State) ([]Token, State) {
	c.calls.Add(1)
	return c.Grammar.LexLine(line, entry)
}

func TestCache_Memoizes(t *testing.T) {
	inner := &countingGrammar{Grammar: Python}
	g := NewCache(inner, time.Minute)
	require.Equal(t, "python", g.Name())

	a := LexLine(g, "x = 1\n", Initial)
	b := LexLine(g, "x = 1\n", Initial)
	require.Equal(t, a, b)
	require.Equal(t, int32(1), inner.calls.Load())

	// A different entry state is a different key.
	c := LexLine(g, "x = 1\n", `"""`)
	require.Equal(t, int32(2), inner.calls.Load())
	require.Equal(t, State(`"""`), c.Exit)
}

func TestCache_Expires(t *testing.T) {
	inner := &countingGrammar{Grammar: Go}
	g := NewCache(inner, 10*time.Millisecond)

	LexLine(g, "var x\n", Initial)
	time.Sleep(30 * time.Millisecond)
	LexLine(g, "var x\n", Initial)
	require.Equal(t, int32(2), inner.calls.Load())
}

func TestCache_Unwrap(t *testing.T) {
	g := NewCache(Rust, time.Minute)
	require.Equal(t, Rust, Unwrap(g))
	require.Equal(t, Rust, Unwrap(Rust))

	// Wrapping twice does not stack caches.
	require.Equal(t, Rust, Unwrap(NewCache(g, time.Minute)))
}

// echoGrammar reports its input as the exit state.
type echoGrammar struct{}

func (echoGrammar) Name() string { return "echo" }

func (echoGrammar) LexLine(line string, entry State) ([]Token, State) {
	return nil, State(string(entry) + "|" + line)
}

func TestCache_KeysDoNotCollide(t *testing.T) {
	g := NewCache(echoGrammar{}, time.Minute)

	// Chroma states hold raw source text, NUL bytes included.
	_, exit := g.LexLine("C", "A\x00B")
	require.Equal(t, State("A\x00B|C"), exit)
	_, exit = g.LexLine("B\x00C", "A")
	require.Equal(t, State("A|B\x00C"), exit)

	_, exit = g.LexLine("bc", "a")
	require.Equal(t, State("a|bc"), exit)
	_, exit = g.LexLine("c", "ab")
	require.Equal(t, State("ab|c"), exit)
}
