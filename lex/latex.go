package lex

import "strings"

const (
	latexInMath        State = "$"
	latexInDisplayMath State = "$$"
)

type latex struct{}

// LaTeX lexes TeX and LaTeX source: commands, comments, environment
// names and math. Display math may span any number of lines; inline math
// continues across lines but is closed by a blank line.
var LaTeX Grammar = latex{}

func (latex) Name() string { return "latex" }

func (latex) LexLine(src string, entry State) ([]Token, State) {
	var toks []Token
	i := 0
	n := len(src)

	switch entry {
	case latexInDisplayMath:
		end, closed := scanDisplayMath(src, 0)
		toks = append(toks, Token{0, end, String})
		if !closed {
			return toks, latexInDisplayMath
		}
		i = end
	case latexInMath:
		if strings.TrimSpace(src) == "" {
			return nil, Initial
		}
		end, closed := scanInlineMath(src, 0)
		toks = append(toks, Token{0, end, String})
		if !closed {
			return toks, latexInMath
		}
		i = end
	}

	for i < n {
		c := src[i]

		// Comment: % to end of line (but not \%).
		if c == '%' {
			end := lineEnd(src, i)
			toks = append(toks, Token{i, end, Comment})
			i = end
			continue
		}

		// Command: \ followed by letters or a single non-letter char.
		if c == '\\' && i+1 < n {
			next := src[i+1]

			if isLetter(next) {
				start := i
				i += 2
				for i < n && isLetter(src[i]) {
					i++
				}
				cmd := src[start:i]
				toks = append(toks, Token{start, i, Keyword})

				// \begin{env} and \end{env}: color the environment name.
				if cmd == `\begin` || cmd == `\end` {
					j := i
					for j < n && (src[j] == ' ' || src[j] == '\t') {
						j++
					}
					if j < n && src[j] == '{' {
						j++
						envStart := j
						for j < n && src[j] != '}' && src[j] != '\n' {
							j++
						}
						if j < n && src[j] == '}' {
							if envStart < j {
								toks = append(toks, Token{envStart, j, Builtin})
							}
							i = j + 1
						}
					}
				}
				continue
			}

			// \<non-letter>: single-char command (\\, \%, \$, \{, etc.).
			if next != '\n' && next != '\r' {
				toks = append(toks, Token{i, i + 2, Keyword})
				i += 2
				continue
			}
		}

		// Display math: $$...$$
		if c == '$' && i+1 < n && src[i+1] == '$' {
			start := i
			end, closed := scanDisplayMath(src, i+2)
			toks = append(toks, Token{start, end, String})
			if !closed {
				return toks, latexInDisplayMath
			}
			i = end
			continue
		}

		// Inline math: $...$
		if c == '$' {
			start := i
			end, closed := scanInlineMath(src, i+1)
			toks = append(toks, Token{start, end, String})
			if !closed {
				return toks, latexInMath
			}
			i = end
			continue
		}

		if c >= 0x80 {
			start := i
			end, valid := skipNonASCII(src, i)
			if !valid {
				toks = append(toks, Token{start, end, Error})
			}
			i = end
			continue
		}

		i++
	}

	return toks, Initial
}

// scanDisplayMath scans for the closing $$ starting at i.
func scanDisplayMath(src string, i int) (int, bool) {
	n := len(src)
	for i < n {
		if src[i] == '\\' {
			i += 2
			continue
		}
		if src[i] == '$' && i+1 < n && src[i+1] == '$' {
			return i + 2, true
		}
		i++
	}
	return n, false
}

// scanInlineMath scans for the closing $ starting at i.
func scanInlineMath(src string, i int) (int, bool) {
	n := len(src)
	for i < n {
		if src[i] == '\\' && i+1 < n {
			i += 2
			continue
		}
		if src[i] == '$' {
			return i + 1, true
		}
		i++
	}
	return n, false
}
