package lex

import (
	"testing"
)

func TestLexLatex(t *testing.T) {
	src := `\documentclass{article}
\usepackage{amsmath}

% A comment
\begin{document}
\section{Introduction}
Inline math: $x^2$ and display:
$$E = mc^2$$
\end{document}
`
	expectTokens(t, lexTexts(LaTeX, src), []tokText{
		{`\documentclass`, Keyword},
		{`\usepackage`, Keyword},
		{"% A comment", Comment},
		{`\begin`, Keyword},
		{"document", Builtin},
		{`\section`, Keyword},
		{"$x^2$", String},
		{"$$E = mc^2$$", String},
		{`\end`, Keyword},
	})
}

func TestLexLatexComments(t *testing.T) {
	t.Run("comment to end of line", func(t *testing.T) {
		got := lexTexts(LaTeX, "hello % this is a comment\nworld")
		expectTokens(t, got, []tokText{{"% this is a comment", Comment}})
	})
	t.Run("escaped percent", func(t *testing.T) {
		got := lexTexts(LaTeX, `10\% discount`)
		for _, tok := range got {
			if tok.kind == Comment {
				t.Errorf("unexpected comment %q", tok.text)
			}
		}
		expectTokens(t, got, []tokText{{`\%`, Keyword}})
	})
}

func TestLexLatexMath(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"inline", "text $a + b$ more", "$a + b$"},
		{"display", "text $$a + b$$ more", "$$a + b$$"},
		{"escaped dollar", `$cost = \$5$`, `$cost = \$5$`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectTokens(t, lexTexts(LaTeX, tt.src), []tokText{{tt.want, String}})
		})
	}
}

func TestLatexMathState(t *testing.T) {
	src := "$$a\nb$$ $x\ny$\n$open\n\nplain\n"
	states := lineStates(LaTeX, src)
	want := []State{latexInDisplayMath, latexInMath, Initial, latexInMath, Initial, Initial, Initial}
	if len(states) != len(want) {
		t.Fatalf("got %d states, want %d", len(states), len(want))
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("line %d exit = %q, want %q", i, states[i], want[i])
		}
	}
}
