package lex

import (
	"sort"
	"strings"
)

// Kind classifies a token. The zero value, Text, marks plain text that
// never receives an annotation.
type Kind int

const (
	Text Kind = iota
	Keyword
	Builtin
	Identifier
	String
	Number
	Literal
	Operator
	Punctuation
	Comment
	Error
)

var kindNames = [...]string{
	Text:        "text",
	Keyword:     "keyword",
	Builtin:     "builtin",
	Identifier:  "identifier",
	String:      "string",
	Number:      "number",
	Literal:     "literal",
	Operator:    "operator",
	Punctuation: "punctuation",
	Comment:     "comment",
	Error:       "error",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds returns every annotatable kind, in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames)-1)
	for k := Keyword; int(k) < len(kindNames); k++ {
		out = append(out, k)
	}
	return out
}

// kindPrefixes maps dotted token names, as used by Pygments-style themes,
// onto kinds. Lookup picks the longest matching prefix.
var kindPrefixes = map[string]Kind{
	"text":                Text,
	"whitespace":          Text,
	"keyword":             Keyword,
	"name.builtin":        Builtin,
	"builtin":             Builtin,
	"name":                Identifier,
	"identifier":          Identifier,
	"literal.string":      String,
	"string":              String,
	"literal.number":      Number,
	"number":              Number,
	"literal":             Literal,
	"operator":            Operator,
	"punctuation":         Punctuation,
	"comment":             Comment,
	"error":               Error,
	"generic.error":       Error,
	"name.function.magic": Builtin,
	"name.variable.magic": Builtin,
}

var sortedPrefixes = func() []string {
	keys := make([]string, 0, len(kindPrefixes))
	for k := range kindPrefixes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	return keys
}()

// ParseKind resolves a kind name. Besides the plain names returned by
// Kind.String it accepts dotted names such as "Token.Literal.String.Doc".
func ParseKind(name string) (Kind, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "token.")
	if n == "" || n == "token" {
		return Text, false
	}
	for _, p := range sortedPrefixes {
		if n == p || strings.HasPrefix(n, p+".") {
			return kindPrefixes[p], true
		}
	}
	return Text, false
}
