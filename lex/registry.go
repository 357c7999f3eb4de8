package lex

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

var byExtension = map[string]Grammar{
	".go":  Go,
	".py":  Python,
	".pyw": Python,
	".pyi": Python,
	".rs":  Rust,
	".tex": LaTeX,
	".sty": LaTeX,
	".cls": LaTeX,
}

var byName = map[string]Grammar{
	"go":     Go,
	"python": Python,
	"rust":   Rust,
	"latex":  LaTeX,
	"plain":  Plain,
}

// ForFilename picks a grammar for a file name: a built-in grammar when
// one handles the extension, otherwise the chroma lexer matching the
// name, otherwise Plain.
func ForFilename(name string) Grammar {
	if g, ok := byExtension[strings.ToLower(filepath.Ext(name))]; ok {
		return g
	}
	if l := lexers.Match(filepath.Base(name)); l != nil {
		return Chroma(l)
	}
	return Plain
}

// ByName looks up a built-in grammar by name, falling back to chroma's
// lexer registry (names, aliases and extensions).
func ByName(name string) (Grammar, bool) {
	if g, ok := byName[strings.ToLower(name)]; ok {
		return g, true
	}
	if l := lexers.Get(name); l != nil {
		return Chroma(l), true
	}
	return nil, false
}

// Names lists the built-in grammar names.
func Names() []string {
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
