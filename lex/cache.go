package lex

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const cleanupInterval = 5 * time.Minute

type cachedGrammar struct {
	g     Grammar
	cache *gocache.Cache
}

// NewCache wraps g with a memo of recent lines keyed by entry state and
// line text. Entries expire after ttl. Returned token slices are shared
// between callers and must not be modified.
func NewCache(g Grammar, ttl time.Duration) Grammar {
	if c, ok := g.(*cachedGrammar); ok {
		g = c.g
	}
	return &cachedGrammar{
		g:     g,
		cache: gocache.New(ttl, cleanupInterval),
	}
}

func (c *cachedGrammar) Name() string { return c.g.Name() }

func (c *cachedGrammar) LexLine(line string, entry State) ([]Token, State) {
	// The length prefix keeps the split between entry and line unambiguous
	// whatever bytes either holds.
	key := strconv.Itoa(len(entry)) + ":" + string(entry) + line
	if v, ok := c.cache.Get(key); ok {
		l := v.(Line)
		return l.Tokens, l.Exit
	}
	toks, exit := c.g.LexLine(line, entry)
	c.cache.SetDefault(key, Line{Tokens: toks, Exit: exit})
	return toks, exit
}

// Unwrap returns the grammar behind a cache, or g itself.
func Unwrap(g Grammar) Grammar {
	if c, ok := g.(*cachedGrammar); ok {
		return c.g
	}
	return g
}
