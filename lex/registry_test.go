package lex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForFilename(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"main.go", "go"},
		{"script.PY", "python"},
		{"lib.rs", "rust"},
		{"paper.tex", "latex"},
		{"style.sty", "latex"},
		{"app.js", "javascript"},
		{"Makefile", "makefile"},
		{"notes.unknownext", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			require.Equal(t, tt.want, ForFilename(tt.file).Name())
		})
	}
}

func TestByName(t *testing.T) {
	g, ok := ByName("Python")
	require.True(t, ok)
	require.Equal(t, Python, g)

	g, ok = ByName("javascript")
	require.True(t, ok)
	require.Equal(t, "javascript", g.Name())

	_, ok = ByName("no-such-language")
	require.False(t, ok)

	require.Equal(t, []string{"go", "latex", "plain", "python", "rust"}, Names())
}
