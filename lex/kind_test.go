package lex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name   string
		want   Kind
		wantOK bool
	}{
		{"keyword", Keyword, true},
		{"Keyword", Keyword, true},
		{"Token.Keyword.Constant", Keyword, true},
		{"token.name.builtin", Builtin, true},
		{"Token.Name.Builtin.Pseudo", Builtin, true},
		{"Token.Name.Function.Magic", Builtin, true},
		{"Token.Name.Function", Identifier, true},
		{"Token.Literal.String.Doc", String, true},
		{"string", String, true},
		{"Token.Literal.Number.Float", Number, true},
		{"Token.Literal.Date", Literal, true},
		{"Token.Operator.Word", Operator, true},
		{"punctuation", Punctuation, true},
		{"Token.Comment.Single", Comment, true},
		{"Token.Error", Error, true},
		{"Token.Generic.Error", Error, true},
		{"Token.Text.Whitespace", Text, true},
		{"Token", Text, false},
		{"", Text, false},
		{"keywordish", Text, false},
		{"Token.Generic.Heading", Text, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseKind(tt.name)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestKind_String(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		require.True(t, ok, k.String())
		require.Equal(t, k, got)
	}
	require.Equal(t, "text", Text.String())
	require.Equal(t, "unknown", Kind(99).String())
	require.NotContains(t, Kinds(), Text)
}
