package lex

import (
	"strings"

	chroma "github.com/alecthomas/chroma/v2"

	"github.com/jbdoderlein/chlorophyll/internal/log"
)

// maxPending bounds the text a chroma state may carry. A construct that
// runs longer is abandoned and lexing restarts from the root state.
const maxPending = 64 << 10

type chromaGrammar struct {
	lexer chroma.Lexer
	name  string
}

// Chroma adapts a chroma lexer to a Grammar.
//
// Chroma lexers cannot resume mid-document, so the state carried between
// lines is the text of the construct still open at the end of the line:
// every line since the last one that ended outside any token. Lexing a
// line re-lexes that prefix and keeps only the tokens on the new line.
//
// A line ends inside a construct when the token holding its newline
// would also swallow the text that follows. This is probed by lexing one
// extra space after the newline.
func Chroma(l chroma.Lexer) Grammar {
	name := "chroma"
	if cfg := l.Config(); cfg != nil && cfg.Name != "" {
		name = strings.ToLower(cfg.Name)
	}
	return &chromaGrammar{lexer: chroma.Coalesce(l), name: name}
}

func (g *chromaGrammar) Name() string { return g.name }

func (g *chromaGrammar) LexLine(line string, entry State) ([]Token, State) {
	pending := string(entry)
	src := pending + line
	text := src
	last := -1
	if strings.HasSuffix(line, "\n") {
		last = len(src) - 1
		text += " "
	}

	it, err := g.lexer.Tokenise(&chroma.TokeniseOptions{State: "root"}, text)
	if err != nil {
		log.Debug(log.CatLex, "chroma tokenise failed", "lexer", g.name, "error", err)
		if n := len(strings.TrimRight(line, "\r\n")); n > 0 {
			return []Token{{0, n, Error}}, Initial
		}
		return nil, Initial
	}

	var toks []Token
	base := len(pending)
	continuing := false
	off := 0
	for t := it(); t != chroma.EOF; t = it() {
		start, end := off, off+len(t.Value)
		off = end
		if start <= last && end > last+1 {
			continuing = !t.Type.InCategory(chroma.Text)
		}
		end = min(end, len(src))
		if end <= base || start >= end {
			continue
		}
		if kind := chromaKind(t.Type); kind != Text {
			toks = append(toks, Token{max(start, base) - base, end - base, kind})
		}
	}

	if !continuing || len(src) > maxPending {
		return toks, Initial
	}
	return toks, State(src)
}

// chromaKind maps a chroma token type onto a Kind.
func chromaKind(tt chroma.TokenType) Kind {
	switch {
	case tt == chroma.Error, tt == chroma.GenericError:
		return Error
	case tt.InCategory(chroma.Keyword):
		return Keyword
	case tt == chroma.NameBuiltin, tt == chroma.NameBuiltinPseudo:
		return Builtin
	case tt.InCategory(chroma.Name):
		return Identifier
	case tt.InSubCategory(chroma.LiteralString):
		return String
	case tt.InSubCategory(chroma.LiteralNumber):
		return Number
	case tt.InCategory(chroma.Literal):
		return Literal
	case tt.InCategory(chroma.Operator):
		return Operator
	case tt.InCategory(chroma.Punctuation):
		return Punctuation
	case tt.InCategory(chroma.Comment):
		return Comment
	}
	return Text
}
