package chlorophyll

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jbdoderlein/chlorophyll/lex"
	"github.com/jbdoderlein/chlorophyll/theme"
)

// DefaultDebounce is how long the scheduler waits after the last edit
// before re-highlighting.
const DefaultDebounce = 30 * time.Millisecond

// DefaultMaxBacktrack bounds the search for a stable line before the
// engine re-highlights the whole buffer.
const DefaultMaxBacktrack = 2000

type options struct {
	grammar      lex.Grammar
	theme        *theme.Theme
	paint        func(Delta)
	debounce     time.Duration
	maxBacktrack int
	cacheTTL     time.Duration
	tracer       trace.Tracer
}

// Option configures an Engine.
type Option func(*options)

// WithGrammar sets the grammar. The default is lex.Plain.
func WithGrammar(g lex.Grammar) Option {
	return func(o *options) { o.grammar = g }
}

// WithTheme sets the theme. Without one every kind gets the zero style.
func WithTheme(th *theme.Theme) Option {
	return func(o *options) { o.theme = th }
}

// WithPaint sets the function the engine hands each change set to. It
// runs on the scheduler goroutine, one call at a time, in edit order,
// and holds off edits while it runs: it may query the engine but must
// not change it.
func WithPaint(fn func(Delta)) Option {
	return func(o *options) { o.paint = fn }
}

// WithDebounce sets the quiet period after an edit before highlighting.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = max(d, 0) }
}

// WithMaxBacktrack sets how many lines the damage walk may step back
// looking for a stable line. Zero means no limit.
func WithMaxBacktrack(n int) Option {
	return func(o *options) { o.maxBacktrack = max(n, 0) }
}

// WithLexCache memoises lexed lines for ttl.
func WithLexCache(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = ttl }
}

// WithTracer records a span for every highlight pass.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}
