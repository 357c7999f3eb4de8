package chlorophyll

import (
	"github.com/jbdoderlein/chlorophyll/lex"
	"github.com/jbdoderlein/chlorophyll/theme"
)

// Reconcile compares the annotations currently covering a region with
// freshly lexed tokens for it and returns the minimal change set. An
// annotation equal in span, kind and style to a token stays untouched
// unless an edit changed its text. Both inputs must be sorted and free
// of overlaps. Kinds the theme does not name get its default style.
func Reconcile(old []Annotation, tokens []lex.Token, th *theme.Theme) (adds []Annotation, removes []Span) {
	i, j := 0, 0
	for i < len(old) || j < len(tokens) {
		if j == len(tokens) {
			removes = append(removes, old[i].Span)
			i++
			continue
		}
		t := tokens[j]
		want := Annotation{Span: Span{Start: t.Start, End: t.End}, Kind: t.Kind, Style: th.Resolve(t.Kind)}
		if i == len(old) || t.Start < old[i].Start {
			adds = append(adds, want)
			j++
			continue
		}
		o := old[i]
		if o.Start < t.Start {
			removes = append(removes, o.Span)
			i++
			continue
		}
		if !sameAnnotation(o, want) {
			removes = append(removes, o.Span)
			adds = append(adds, want)
		}
		i++
		j++
	}
	return adds, removes
}

func sameAnnotation(o, want Annotation) bool {
	return !o.touched && o.Span == want.Span && o.Kind == want.Kind && o.Style.Equal(want.Style)
}
