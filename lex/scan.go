package lex

import "unicode/utf8"

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool   { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isIdentStart(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' }
func isIdentChar(c byte) bool  { return isIdentStart(c) || isDigit(c) }
func isLetter(c byte) bool     { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isSpace(c byte) bool      { return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' }

// lineEnd returns the offset of the line terminator in src at or after i,
// or len(src). A CR before the final LF is treated as part of the
// terminator.
func lineEnd(src string, i int) int {
	n := len(src)
	for i < n && src[i] != '\n' {
		i++
	}
	if i > 0 && i <= n && src[i-1] == '\r' {
		i--
	}
	return i
}

// skipNonASCII consumes one rune starting at src[i] (which must be >=
// utf8.RuneSelf). It reports whether the bytes were a valid encoding.
func skipNonASCII(src string, i int) (int, bool) {
	r, size := utf8.DecodeRuneInString(src[i:])
	return i + size, !(r == utf8.RuneError && size == 1)
}

func scanDigits(src string, i int, ok func(byte) bool) int {
	for i < len(src) && (ok(src[i]) || src[i] == '_') {
		i++
	}
	return i
}

func scanExponent(src string, i int) int {
	n := len(src)
	if i < n && (src[i] == 'e' || src[i] == 'E') {
		i++
		if i < n && (src[i] == '+' || src[i] == '-') {
			i++
		}
		i = scanDigits(src, i, isDigit)
	}
	return i
}

// scanRadixPrefix consumes a 0x, 0o or 0b literal if one starts at i.
func scanRadixPrefix(src string, i int) (int, bool) {
	n := len(src)
	if src[i] != '0' || i+1 >= n {
		return i, false
	}
	switch src[i+1] {
	case 'x', 'X':
		return scanDigits(src, i+2, isHexDigit), true
	case 'o', 'O':
		return scanDigits(src, i+2, func(c byte) bool { return c >= '0' && c <= '7' }), true
	case 'b', 'B':
		return scanDigits(src, i+2, func(c byte) bool { return c == '0' || c == '1' }), true
	}
	return i, false
}

func scanRun(src string, i int, set string) int {
	for i < len(src) && indexByte(set, src[i]) {
		i++
	}
	return i
}

func indexByte(set string, c byte) bool {
	for j := 0; j < len(set); j++ {
		if set[j] == c {
			return true
		}
	}
	return false
}
