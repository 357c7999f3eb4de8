package lex

import (
	"strconv"
	"strings"
)

// Rust keywords.
var rustKeywords = map[string]bool{
	"as": true, "async": true, "await": true,
	"break": true,
	"const": true, "continue": true, "crate": true,
	"dyn": true,
	"else": true, "enum": true, "extern": true,
	"false": true, "fn": true, "for": true,
	"if": true, "impl": true, "in": true,
	"let": true, "loop": true,
	"match": true, "mod": true, "move": true, "mut": true,
	"pub": true,
	"ref": true, "return": true,
	"self": true, "static": true, "struct": true, "super": true,
	"trait": true, "true": true, "type": true,
	"unsafe": true, "use": true,
	"where": true, "while": true,
}

// Rust builtin types and common std library types.
var rustBuiltins = map[string]bool{
	// Primitive types
	"bool": true, "char": true, "str": true,
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true,
	"isize": true, "usize": true,
	"f32": true, "f64": true,
	// Common std types
	"String": true, "Vec": true, "Option": true, "Result": true,
	"Box": true, "Rc": true, "Arc": true,
	"HashMap": true, "HashSet": true,
	"Some": true, "None": true, "Ok": true, "Err": true,
	"Self": true,
}

const (
	rustOperators   = "+-*/%&|^!<>=~?@"
	rustPunctuation = "()[]{},;:.#$"
)

// Line states. Block comments record their nesting depth ("/*2"),
// strings record the delimiter that closes them.
const (
	rustCommentPrefix = "/*"
	rustInString      = State(`"`)
	rustRawPrefix     = "r"
)

type rust struct{}

// Rust lexes Rust source. Nested block comments, multi-line strings and
// raw strings continue across lines.
var Rust Grammar = rust{}

func (rust) Name() string { return "rust" }

func (rust) LexLine(src string, entry State) ([]Token, State) {
	var toks []Token
	i := 0
	n := len(src)

	if entry != Initial {
		e := string(entry)
		var end int
		var open State
		kind := String
		switch {
		case strings.HasPrefix(e, rustCommentPrefix):
			depth, _ := strconv.Atoi(e[len(rustCommentPrefix):])
			kind = Comment
			end, open = scanRustBlockComment(src, 0, max(depth, 1))
		case strings.HasPrefix(e, rustRawPrefix):
			end, open = scanRustRawBody(src, 0, len(e)-len(rustRawPrefix))
		default:
			end, open = scanRustString(src, 0)
		}
		toks = append(toks, Token{0, end, kind})
		if open != Initial {
			return toks, open
		}
		i = end
	}

	for i < n {
		c := src[i]

		if isSpace(c) {
			i++
			continue
		}

		// Line comment: // to end of line.
		if c == '/' && i+1 < n && src[i+1] == '/' {
			end := lineEnd(src, i)
			toks = append(toks, Token{i, end, Comment})
			i = end
			continue
		}

		// Block comment: /* ... */ with nesting.
		if c == '/' && i+1 < n && src[i+1] == '*' {
			start := i
			end, open := scanRustBlockComment(src, i+2, 1)
			toks = append(toks, Token{start, end, Comment})
			if open != Initial {
				return toks, open
			}
			i = end
			continue
		}

		// Byte string/char/raw-byte-string: b"...", b'x', br#"..."#
		if c == 'b' && i+1 < n {
			if src[i+1] == '"' {
				start := i
				end, open := scanRustString(src, i+2)
				toks = append(toks, Token{start, end, String})
				if open != Initial {
					return toks, open
				}
				i = end
				continue
			}
			if src[i+1] == '\'' {
				start := i
				i = scanRustCharBody(src, i+2)
				toks = append(toks, Token{start, i, String})
				continue
			}
			if src[i+1] == 'r' {
				if end, open, ok := scanRustRawString(src, i+2); ok {
					toks = append(toks, Token{i, end, String})
					if open != Initial {
						return toks, open
					}
					i = end
					continue
				}
			}
		}

		// Raw string: r"..." or r#"..."#
		if c == 'r' && i+1 < n && (src[i+1] == '"' || src[i+1] == '#') {
			if end, open, ok := scanRustRawString(src, i+1); ok {
				toks = append(toks, Token{i, end, String})
				if open != Initial {
					return toks, open
				}
				i = end
				continue
			}
		}

		// Regular string: "..."
		if c == '"' {
			start := i
			end, open := scanRustString(src, i+1)
			toks = append(toks, Token{start, end, String})
			if open != Initial {
				return toks, open
			}
			i = end
			continue
		}

		// Char literal vs lifetime.
		if c == '\'' {
			if kind, end := scanRustCharOrLifetime(src, i); kind != Text {
				toks = append(toks, Token{i, end, kind})
				i = end
				continue
			}
			toks = append(toks, Token{i, i + 1, Punctuation})
			i++
			continue
		}

		// Range operators: .. and ..=
		if c == '.' && i+1 < n && src[i+1] == '.' {
			start := i
			i = scanRun(src, i, ".=")
			toks = append(toks, Token{start, i, Operator})
			continue
		}

		if isDigit(c) || (c == '.' && i+1 < n && isDigit(src[i+1])) {
			start := i
			i = scanRustNumber(src, i)
			toks = append(toks, Token{start, i, Number})
			continue
		}

		if isIdentStart(c) {
			start := i
			for i < n && isIdentChar(src[i]) {
				i++
			}
			word := src[start:i]

			if rustKeywords[word] {
				toks = append(toks, Token{start, i, Keyword})
			} else if rustBuiltins[word] {
				toks = append(toks, Token{start, i, Builtin})
			}
			continue
		}

		switch {
		case c >= 0x80:
			start := i
			end, valid := skipNonASCII(src, i)
			if !valid {
				toks = append(toks, Token{start, end, Error})
			}
			i = end
		case indexByte(rustOperators, c):
			start := i
			i = scanRun(src, i, rustOperators)
			toks = append(toks, Token{start, i, Operator})
		case indexByte(rustPunctuation, c):
			toks = append(toks, Token{i, i + 1, Punctuation})
			i++
		default:
			toks = append(toks, Token{i, i + 1, Error})
			i++
		}
	}

	return toks, Initial
}

// scanRustBlockComment scans a block comment body starting at i with the
// given nesting depth. When the comment is still open at the end of src
// it returns the state recording the remaining depth.
func scanRustBlockComment(src string, i, depth int) (int, State) {
	n := len(src)
	for i < n && depth > 0 {
		switch {
		case src[i] == '/' && i+1 < n && src[i+1] == '*':
			depth++
			i += 2
		case src[i] == '*' && i+1 < n && src[i+1] == '/':
			depth--
			i += 2
		default:
			i++
		}
	}
	if depth > 0 {
		return n, State(rustCommentPrefix + strconv.Itoa(depth))
	}
	return i, Initial
}

// scanRustString scans past a string body (after the opening quote),
// handling backslash escapes. Rust strings may span lines.
func scanRustString(src string, i int) (int, State) {
	n := len(src)
	for i < n {
		if src[i] == '\\' && i+1 < n {
			i += 2
			continue
		}
		if src[i] == '"' {
			return i + 1, Initial
		}
		i++
	}
	return n, rustInString
}

// scanRustRawString scans a raw string starting at src[pos], which should
// point to the first '#' or '"' after 'r' (or 'br'). ok is false when no
// raw string starts there.
func scanRustRawString(src string, pos int) (end int, open State, ok bool) {
	n := len(src)
	i := pos

	hashes := 0
	for i < n && src[i] == '#' {
		hashes++
		i++
	}
	if i >= n || src[i] != '"' {
		return pos, Initial, false
	}
	end, open = scanRustRawBody(src, i+1, hashes)
	return end, open, true
}

// scanRustRawBody scans for a closing '"' followed by hashes '#'s.
func scanRustRawBody(src string, i, hashes int) (int, State) {
	n := len(src)
	for i < n {
		if src[i] == '"' {
			j := i + 1
			count := 0
			for j < n && count < hashes && src[j] == '#' {
				count++
				j++
			}
			if count == hashes {
				return j, Initial
			}
		}
		i++
	}
	return n, State(rustRawPrefix + strings.Repeat("#", hashes))
}

// scanRustCharBody scans the body of a char literal after the opening
// tick. Returns the byte offset past the closing tick.
func scanRustCharBody(src string, i int) int {
	n := len(src)
	if i >= n {
		return i
	}
	if src[i] == '\\' {
		i++
		if i < n {
			i++
			// For \x, \u{...} etc., consume until closing quote.
			for i < n && src[i] != '\'' && src[i] != '\n' {
				i++
			}
		}
	} else {
		i++
	}
	if i < n && src[i] == '\'' {
		return i + 1
	}
	return i
}

// scanRustCharOrLifetime disambiguates 'x' (char literal) from 'a
// (lifetime). Returns String for a char, Keyword for a lifetime, or Text
// if neither.
func scanRustCharOrLifetime(src string, i int) (Kind, int) {
	n := len(src)
	i++ // skip opening tick
	if i >= n {
		return Text, 0
	}

	// Escape in char literal: scan to closing tick.
	if src[i] == '\\' {
		j := i + 2
		for j < n && src[j] != '\'' && src[j] != '\n' {
			j++
		}
		if j < n && src[j] == '\'' {
			return String, j + 1
		}
		return Text, 0
	}

	if !isIdentStart(src[i]) {
		// Character like '(' or '0', or a multi-byte rune.
		j := i + 1
		if src[i] >= 0x80 {
			j, _ = skipNonASCII(src, i)
		}
		if j < n && src[j] == '\'' {
			return String, j + 1
		}
		return Text, 0
	}

	j := i
	for j < n && isIdentChar(src[j]) {
		j++
	}
	if j < n && src[j] == '\'' && j-i == 1 {
		return String, j + 1
	}
	return Keyword, j
}

// scanRustNumber scans a Rust numeric literal starting at src[i].
// Handles decimal, hex (0x), octal (0o), binary (0b), floats,
// underscore separators, and type suffixes (u8, i32, f64, etc.).
func scanRustNumber(src string, i int) int {
	n := len(src)

	if src[i] == '.' {
		i = scanDigits(src, i+1, isDigit)
		i = scanExponent(src, i)
		return scanRustTypeSuffix(src, i)
	}

	if end, ok := scanRadixPrefix(src, i); ok {
		return scanRustTypeSuffix(src, end)
	}

	i = scanDigits(src, i, isDigit)

	// Fractional part, but not a range (1..10) or a method call (1.max()).
	if i < n && src[i] == '.' {
		next := i + 1
		if next >= n || isDigit(src[next]) || src[next] == 'e' || src[next] == 'E' || isSpace(src[next]) {
			i = scanDigits(src, i+1, isDigit)
		}
	}

	i = scanExponent(src, i)
	return scanRustTypeSuffix(src, i)
}

var rustNumberSuffixes = []string{
	"u128", "usize", "u16", "u32", "u64", "u8",
	"i128", "isize", "i16", "i32", "i64", "i8",
	"f32", "f64",
}

// scanRustTypeSuffix scans an optional numeric type suffix.
func scanRustTypeSuffix(src string, i int) int {
	n := len(src)
	if i >= n || (src[i] != 'u' && src[i] != 'i' && src[i] != 'f') {
		return i
	}
	for _, s := range rustNumberSuffixes {
		if !strings.HasPrefix(src[i:], s) {
			continue
		}
		end := i + len(s)
		if end < n && isIdentChar(src[end]) {
			continue
		}
		return end
	}
	return i
}
