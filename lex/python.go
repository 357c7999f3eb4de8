package lex

import "strings"

// Python keywords (3.12+).
var pyKeywords = map[string]bool{
	"False": true, "None": true, "True": true,
	"and": true, "as": true, "assert": true, "async": true, "await": true,
	"break": true, "class": true, "continue": true,
	"def": true, "del": true,
	"elif": true, "else": true, "except": true,
	"finally": true, "for": true, "from": true,
	"global": true, "if": true, "import": true, "in": true, "is": true,
	"lambda": true, "nonlocal": true, "not": true,
	"or": true, "pass": true, "raise": true, "return": true,
	"try": true, "while": true, "with": true, "yield": true,
}

// Python builtin functions and types.
var pyBuiltins = map[string]bool{
	// Types
	"bool": true, "bytearray": true, "bytes": true, "complex": true,
	"dict": true, "float": true, "frozenset": true, "int": true,
	"list": true, "memoryview": true, "object": true, "set": true,
	"slice": true, "str": true, "tuple": true, "type": true,
	// Functions
	"abs": true, "all": true, "any": true, "ascii": true,
	"bin": true, "breakpoint": true, "callable": true, "chr": true,
	"classmethod": true, "compile": true, "delattr": true, "dir": true,
	"divmod": true, "enumerate": true, "eval": true, "exec": true,
	"filter": true, "format": true, "getattr": true, "globals": true,
	"hasattr": true, "hash": true, "help": true, "hex": true,
	"id": true, "input": true, "isinstance": true, "issubclass": true,
	"iter": true, "len": true, "locals": true, "map": true,
	"max": true, "min": true, "next": true, "oct": true,
	"open": true, "ord": true, "pow": true, "print": true,
	"property": true, "range": true, "repr": true, "reversed": true,
	"round": true, "setattr": true, "sorted": true, "staticmethod": true,
	"sum": true, "super": true, "vars": true, "zip": true,
	// Constants
	"NotImplemented": true, "Ellipsis": true, "__import__": true,
}

const (
	pyOperators   = "+-*/%@&|^~<>=!"
	pyPunctuation = "()[]{},:;."
)

type python struct{}

// Python lexes Python 3 source. A triple-quoted string left open at the
// end of a line is carried to the next line as the state `"""` or `'''`.
var Python Grammar = python{}

func (python) Name() string { return "python" }

func (python) LexLine(src string, entry State) ([]Token, State) {
	var toks []Token
	i := 0
	n := len(src)

	if entry != Initial {
		end, closed := scanTripleBody(src, 0, string(entry))
		toks = append(toks, Token{0, end, String})
		if !closed {
			return toks, entry
		}
		i = end
	}

	for i < n {
		c := src[i]

		switch {
		case isSpace(c), c == '\\':
			i++

		// Comment: # to end of line.
		case c == '#':
			end := lineEnd(src, i)
			toks = append(toks, Token{i, end, Comment})
			i = end

		// Bare string (no prefix).
		case c == '\'' || c == '"':
			start := i
			end, open := scanPyString(src, i)
			toks = append(toks, Token{start, end, String})
			if open != "" {
				return toks, State(open)
			}
			i = end

		case isDigit(c) || (c == '.' && i+1 < n && isDigit(src[i+1])):
			start := i
			i = scanPyNumber(src, i)
			toks = append(toks, Token{start, i, Number})

		// Identifier, keyword, builtin, or string prefix.
		case isIdentStart(c):
			start := i
			for i < n && isIdentChar(src[i]) {
				i++
			}
			word := src[start:i]

			if i < n && (src[i] == '\'' || src[i] == '"') && isValidPrefix(word) {
				end, open := scanPyString(src, i)
				toks = append(toks, Token{start, end, String})
				if open != "" {
					return toks, State(open)
				}
				i = end
				continue
			}

			if pyKeywords[word] {
				toks = append(toks, Token{start, i, Keyword})
			} else if pyBuiltins[word] {
				toks = append(toks, Token{start, i, Builtin})
			}

		case c >= 0x80:
			start := i
			end, valid := skipNonASCII(src, i)
			if !valid {
				toks = append(toks, Token{start, end, Error})
			}
			i = end

		case indexByte(pyOperators, c):
			start := i
			i = scanRun(src, i, pyOperators)
			toks = append(toks, Token{start, i, Operator})

		case indexByte(pyPunctuation, c):
			toks = append(toks, Token{i, i + 1, Punctuation})
			i++

		// $, ? and ` are not Python.
		default:
			toks = append(toks, Token{i, i + 1, Error})
			i++
		}
	}

	return toks, Initial
}

// isValidPrefix reports whether s is a valid Python string prefix.
func isValidPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "f", "b", "rb", "br", "rf", "fr":
		return true
	}
	return false
}

// scanPyString scans a quoted string starting at src[i] (which must be
// ' or "). A triple-quoted string that is still open at the end of src
// returns its delimiter as open.
func scanPyString(src string, i int) (end int, open string) {
	n := len(src)
	quote := src[i]

	if i+2 < n && src[i+1] == quote && src[i+2] == quote {
		delim := src[i : i+3]
		end, closed := scanTripleBody(src, i+3, delim)
		if !closed {
			return end, delim
		}
		return end, ""
	}

	// Single-line string; an unterminated one stops at the newline.
	i++
	for i < n {
		if src[i] == '\\' && i+1 < n && src[i+1] != '\n' {
			i += 2
			continue
		}
		if src[i] == quote {
			return i + 1, ""
		}
		if src[i] == '\n' || src[i] == '\r' {
			return i, ""
		}
		i++
	}
	return i, ""
}

// scanTripleBody scans for delim starting at i, honouring backslash
// escapes. It returns the offset past the delimiter, or len(src) when
// the string continues on the next line.
func scanTripleBody(src string, i int, delim string) (int, bool) {
	n := len(src)
	for i < n {
		if src[i] == '\\' && i+1 < n {
			i += 2
			continue
		}
		if strings.HasPrefix(src[i:], delim) {
			return i + len(delim), true
		}
		i++
	}
	return n, false
}

// scanPyNumber scans a numeric literal starting at src[i].
// Handles int, float, hex, octal, binary, and complex (j suffix).
func scanPyNumber(src string, i int) int {
	n := len(src)

	if src[i] == '.' {
		i = scanDigits(src, i+1, isDigit)
		i = scanExponent(src, i)
		return scanComplexSuffix(src, i)
	}

	if end, ok := scanRadixPrefix(src, i); ok {
		return end
	}

	i = scanDigits(src, i, isDigit)
	if i < n && src[i] == '.' {
		i = scanDigits(src, i+1, isDigit)
	}
	i = scanExponent(src, i)
	return scanComplexSuffix(src, i)
}

func scanComplexSuffix(src string, i int) int {
	if i < len(src) && (src[i] == 'j' || src[i] == 'J') {
		i++
	}
	return i
}
