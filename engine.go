// Package chlorophyll keeps syntax highlighting of an edited buffer up
// to date without re-lexing the whole buffer on every keystroke.
//
// The host mirrors its buffer into an Engine with SetText and reports
// every change with NotifyEdit. After a short quiet period the engine
// re-lexes only the lines an edit can have affected, compares the result
// with the annotations it already holds, and hands the host the minimal
// change set through the paint callback.
package chlorophyll

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jbdoderlein/chlorophyll/internal/log"
	"github.com/jbdoderlein/chlorophyll/internal/pubsub"
	"github.com/jbdoderlein/chlorophyll/lex"
	"github.com/jbdoderlein/chlorophyll/theme"
)

// SchedulerState is the phase of the highlight scheduler.
type SchedulerState int

const (
	// Idle means the annotations match the buffer.
	Idle SchedulerState = iota
	// Pending means edits are waiting for a highlight pass.
	Pending
	// Relexing means a highlight pass is running.
	Relexing
)

func (s SchedulerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Relexing:
		return "relexing"
	}
	return fmt.Sprintf("SchedulerState(%d)", int(s))
}

// Engine highlights one buffer. All methods are safe for concurrent use.
type Engine struct {
	id   string
	opts options

	// editMu serialises changes to the buffer with painting, so a delta
	// always refers to the text the host holds. It is taken before mu.
	editMu sync.Mutex

	mu      sync.Mutex
	doc     *Document
	store   *AnnotationStore
	grammar lex.Grammar
	theme   *theme.Theme
	gen     uint64
	dirty   LineRange
	reset   bool // the next delta must tell the host to start over
	state   SchedulerState
	idle    chan struct{} // closed on entering Idle

	// flushing is set by Flush until Idle: passes overtaken by an edit
	// are retried at once instead of waiting out the debounce.
	flushing bool

	cancel context.CancelFunc
	closed bool

	broker *pubsub.Broker[Delta]
	kick   chan struct{}
	flush  chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
}

// New returns an engine for an empty buffer and starts its scheduler.
// Close releases it.
func New(opts ...Option) *Engine {
	o := options{
		grammar:      lex.Plain,
		debounce:     DefaultDebounce,
		maxBacktrack: DefaultMaxBacktrack,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = noop.NewTracerProvider().Tracer("chlorophyll")
	}

	e := &Engine{
		id:     uuid.New().String()[:8],
		opts:   o,
		doc:    NewDocument(""),
		store:  NewAnnotationStore(),
		theme:  o.theme,
		idle:   make(chan struct{}),
		broker: pubsub.NewBroker[Delta](),
		kick:   make(chan struct{}, 1),
		flush:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	e.grammar = e.wrapGrammar(o.grammar)
	close(e.idle)

	e.wg.Add(1)
	go e.run()
	log.Debug(log.CatEngine, "engine started", "engine", e.id, "grammar", e.grammar.Name(), "theme", e.theme.Name())
	return e
}

// ID returns a short identifier used in logs and traces.
func (e *Engine) ID() string { return e.id }

func (e *Engine) wrapGrammar(g lex.Grammar) lex.Grammar {
	if g == nil {
		g = lex.Plain
	}
	if e.opts.cacheTTL > 0 {
		return lex.NewCache(g, e.opts.cacheTTL)
	}
	return g
}

// SetText replaces the whole buffer. Every annotation is dropped and the
// next change set tells the host to start over.
func (e *Engine) SetText(text string) error {
	e.editMu.Lock()
	defer e.editMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.doc = NewDocument(text)
	e.store.Reset(e.doc.Len(), e.doc.NumLines())
	e.reset = true
	e.markAllDirtyLocked()
	log.Debug(log.CatEngine, "text set", "engine", e.id, "len", e.doc.Len(), "lines", e.doc.NumLines())
	return nil
}

// NotifyEdit reports that the bytes of old were replaced by newText.
// Annotations are shifted at once; the affected lines are re-highlighted
// asynchronously.
func (e *Engine) NotifyEdit(old Span, newText string) error {
	e.editMu.Lock()
	defer e.editMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if !e.doc.Valid(old) {
		return fmt.Errorf("%w: %s in buffer of %d bytes", ErrInvalidEdit, old, e.doc.Len())
	}

	doc, change := e.doc.Apply(old, newText)
	e.gen++
	edit := Edit{Old: old, NewLen: len(newText), Seq: e.gen}
	e.store.Shift(edit, change)
	e.doc = doc
	if err := e.store.Verify(doc.Len(), doc.NumLines()); err != nil {
		e.desyncLocked(err)
	} else {
		e.dirty = e.dirty.Shift(change).Union(change.Lines())
	}
	e.pendingLocked()
	return nil
}

// SetTheme swaps the theme and restyles every annotation.
func (e *Engine) SetTheme(th *theme.Theme) error {
	e.editMu.Lock()
	defer e.editMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.theme = th
	log.Info(log.CatTheme, "theme changed", "engine", e.id, "theme", th.Name())
	e.markAllDirtyLocked()
	return nil
}

// SetGrammar swaps the grammar. Recorded lexer states mean nothing to a
// different grammar, so the whole buffer is re-lexed.
func (e *Engine) SetGrammar(g lex.Grammar) error {
	e.editMu.Lock()
	defer e.editMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.grammar = e.wrapGrammar(g)
	e.store.InvalidateCheckpoints()
	log.Info(log.CatEngine, "grammar changed", "engine", e.id, "grammar", e.grammar.Name())
	e.markAllDirtyLocked()
	return nil
}

// Grammar returns the current grammar.
func (e *Engine) Grammar() lex.Grammar {
	e.mu.Lock()
	defer e.mu.Unlock()
	return lex.Unwrap(e.grammar)
}

// Theme returns the current theme.
func (e *Engine) Theme() *theme.Theme {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.theme
}

// StyleAt returns the style of the annotation covering pos. The answer
// reflects edits already reported, shifted, even before they are
// re-highlighted.
func (e *Engine) StyleAt(pos int) (theme.Style, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.store.At(pos)
	if !ok {
		return theme.Style{}, false
	}
	return a.Style, true
}

// AnnotationAt returns the annotation covering pos.
func (e *Engine) AnnotationAt(pos int) (Annotation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.At(pos)
}

// Annotations returns copies of the annotations overlapping [start, end).
func (e *Engine) Annotations(start, end int) []Annotation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Annotations(start, end)
}

// Text returns the mirrored buffer.
func (e *Engine) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Text()
}

// Len returns the buffer length in bytes.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Len()
}

// Position converts a byte offset to a line and column.
func (e *Engine) Position(off int) Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Position(off)
}

// Offset converts a line and column to a byte offset.
func (e *Engine) Offset(p Position) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Offset(p)
}

// State returns the scheduler phase.
func (e *Engine) State() SchedulerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Generation returns the number of changes made to the engine so far.
// Each Delta carries the generation it brings the host up to.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

// Dump renders the annotation store for debugging.
func (e *Engine) Dump() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Dump()
}

// Subscribe returns a channel receiving every change set the engine
// paints, until ctx is done.
func (e *Engine) Subscribe(ctx context.Context) <-chan pubsub.Event[Delta] {
	return e.broker.Subscribe(ctx)
}

// Flush starts highlighting at once, skipping the debounce, and waits
// until the annotations match the buffer.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.state == Idle {
		e.mu.Unlock()
		return nil
	}
	idle := e.idle
	e.flushing = true
	e.mu.Unlock()

	select {
	case e.flush <- struct{}{}:
	default:
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrClosed
	}
}

// Close stops the scheduler. A pass in progress is abandoned.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.closed = true
	if e.cancel != nil {
		e.cancel()
	}
	close(e.done)
	e.mu.Unlock()

	e.wg.Wait()
	e.broker.Close()
	log.Debug(log.CatEngine, "engine closed", "engine", e.id)
	return nil
}

// markAllDirtyLocked schedules every line for re-highlighting.
func (e *Engine) markAllDirtyLocked() {
	e.gen++
	e.dirty = LineRange{First: 0, End: e.doc.NumLines()}
	e.pendingLocked()
}

// desyncLocked drops the store after it was found inconsistent.
func (e *Engine) desyncLocked(err error) {
	log.Warn(log.CatStore, "annotation store desynchronized, relexing everything", "engine", e.id, "error", err)
	e.store.Reset(e.doc.Len(), e.doc.NumLines())
	e.reset = true
	e.dirty = LineRange{First: 0, End: e.doc.NumLines()}
}

// pendingLocked moves the scheduler to Pending, abandons the running
// pass and wakes the scheduler.
func (e *Engine) pendingLocked() {
	if e.state == Idle {
		e.idle = make(chan struct{})
	}
	e.state = Pending
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

func (e *Engine) idleLocked() {
	e.flushing = false
	if e.state != Idle {
		e.state = Idle
		close(e.idle)
	}
}
