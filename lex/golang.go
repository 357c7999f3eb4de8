package lex

import (
	"go/scanner"
	"go/token"
	"strings"
)

// Predeclared Go identifiers that get special coloring.
var goBuiltins = map[string]bool{
	// Types
	"bool": true, "byte": true, "complex64": true, "complex128": true,
	"error": true, "float32": true, "float64": true, "int": true,
	"int8": true, "int16": true, "int32": true, "int64": true,
	"rune": true, "string": true, "uint": true, "uint8": true,
	"uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"any": true, "comparable": true,
	// Functions
	"append": true, "cap": true, "clear": true, "close": true,
	"complex": true, "copy": true, "delete": true, "imag": true,
	"len": true, "make": true, "max": true, "min": true,
	"new": true, "panic": true, "print": true, "println": true,
	"real": true, "recover": true,
	// Constants
	"true": true, "false": true, "nil": true, "iota": true,
}

const (
	goInComment State = "/*"
	goInRaw     State = "`"
)

type golang struct{}

// Go lexes Go source with go/scanner. Block comments and raw string
// literals continue across lines.
var Go Grammar = golang{}

func (golang) Name() string { return "go" }

func (golang) LexLine(src string, entry State) ([]Token, State) {
	var toks []Token
	i := 0

	switch entry {
	case goInComment:
		end := strings.Index(src, "*/")
		if end < 0 {
			return []Token{{0, len(src), Comment}}, goInComment
		}
		toks = append(toks, Token{0, end + 2, Comment})
		i = end + 2
	case goInRaw:
		end := strings.IndexByte(src, '`')
		if end < 0 {
			return []Token{{0, len(src), String}}, goInRaw
		}
		toks = append(toks, Token{0, end + 1, String})
		i = end + 1
	}

	rest := src[i:]
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(rest))

	var s scanner.Scanner
	// Suppress error printing; color what we can.
	s.Init(file, []byte(rest), func(token.Position, string) {}, scanner.ScanComments)

	exit := Initial
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		// Skip auto-inserted semicolons; they have no source text.
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}

		start := int(pos) - file.Base()
		var end int
		switch {
		// The scanner strips carriage returns from comments and raw
		// strings, so their extent is measured on the source.
		case tok == token.COMMENT && strings.HasPrefix(lit, "/*"):
			if j := strings.Index(rest[start+2:], "*/"); j >= 0 {
				end = start + 2 + j + 2
			} else {
				end, exit = len(rest), goInComment
			}
		case tok == token.COMMENT:
			end = lineEnd(rest, start)
		case tok == token.STRING && strings.HasPrefix(lit, "`"):
			if j := strings.IndexByte(rest[start+1:], '`'); j >= 0 {
				end = start + 1 + j + 1
			} else {
				end, exit = len(rest), goInRaw
			}
		case lit != "":
			end = start + len(lit)
		default:
			end = start + len(tok.String())
		}

		if kind := goTokenKind(tok, lit); kind != Text {
			toks = append(toks, Token{start + i, end + i, kind})
		}
		if exit != Initial {
			break
		}
	}

	return toks, exit
}

// goTokenKind classifies a Go token. Plain identifiers are Text.
func goTokenKind(tok token.Token, lit string) Kind {
	switch {
	case tok.IsKeyword():
		return Keyword
	case tok == token.COMMENT:
		return Comment
	case tok == token.STRING, tok == token.CHAR:
		return String
	case tok == token.INT, tok == token.FLOAT, tok == token.IMAG:
		return Number
	case tok == token.IDENT && goBuiltins[lit]:
		return Builtin
	case tok == token.ILLEGAL:
		return Error
	case tok.IsOperator():
		switch tok {
		case token.LPAREN, token.RPAREN, token.LBRACK, token.RBRACK,
			token.LBRACE, token.RBRACE, token.COMMA, token.PERIOD,
			token.SEMICOLON, token.COLON:
			return Punctuation
		}
		return Operator
	default:
		return Text
	}
}
