package chlorophyll

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jbdoderlein/chlorophyll/internal/log"
	"github.com/jbdoderlein/chlorophyll/internal/pubsub"
)

// run is the scheduler goroutine. Edits restart a debounce timer; when
// it fires, or on Flush, a highlight pass runs.
func (e *Engine) run() {
	defer e.wg.Done()

	timer := time.NewTimer(e.opts.debounce)
	stopTimer(timer)

	for {
		select {
		case <-e.done:
			stopTimer(timer)
			return
		case <-e.kick:
			stopTimer(timer)
			timer.Reset(e.opts.debounce)
		case <-e.flush:
			stopTimer(timer)
			e.highlight()
		case <-timer.C:
			e.highlight()
		}
	}
}

// stopTimer stops t and drains a pending fire.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

// highlight runs passes until one lands or is overtaken by an edit. An
// overtaken pass leaves its dirty lines in place; the edit that
// overtook it has already woken the scheduler again. While a Flush
// waits, overtaken passes are retried at once.
func (e *Engine) highlight() {
	for e.pass() {
	}
}

// pass runs one highlight pass and reports whether another must follow
// at once.
func (e *Engine) pass() bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	if e.dirty.Empty() {
		e.idleLocked()
		e.mu.Unlock()
		return false
	}
	gen := e.gen
	doc := e.doc
	cp := e.store.Snapshot()
	dirty := e.dirty
	g := e.grammar
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.state = Relexing
	e.mu.Unlock()
	defer cancel()

	ctx, span := e.opts.tracer.Start(ctx, "chlorophyll.pass",
		trace.WithAttributes(
			attribute.String("engine.id", e.id),
			attribute.Int64("engine.generation", int64(gen)),
			attribute.String("grammar", g.Name()),
			attribute.Int("dirty.first", dirty.First),
			attribute.Int("dirty.end", dirty.End),
		))
	defer span.End()

	start := time.Now()
	region, err := ComputeDamage(ctx, doc, cp, dirty, g, e.opts.maxBacktrack)

	// No edit may land between applying the delta and painting it.
	e.editMu.Lock()
	defer e.editMu.Unlock()

	delta, again := e.commit(gen, region, err, span)
	if delta == nil {
		return again
	}
	log.Debug(log.CatSched, "pass applied", "engine", e.id, "generation", gen,
		"lines", region.End-region.First, "added", len(delta.Added), "removed", len(delta.Removed),
		"elapsed", time.Since(start))
	if !delta.Empty() || delta.Reset {
		e.publish(*delta)
	}

	// Flush returns only once the host has been painted.
	e.mu.Lock()
	if gen == e.gen && e.dirty.Empty() {
		e.idleLocked()
	}
	e.mu.Unlock()
	return false
}

// commit applies the result of a pass computed at generation gen, unless
// the buffer has moved on since.
func (e *Engine) commit(gen uint64, region Region, err error, span trace.Span) (*Delta, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancel = nil
	if e.closed {
		return nil, false
	}
	if err != nil || gen != e.gen {
		if err == nil || errors.Is(err, context.Canceled) {
			err = ErrStale
		}
		span.SetAttributes(attribute.Bool("stale", true))
		log.Debug(log.CatSched, "stale result discarded", "engine", e.id, "generation", gen, "latest", e.gen, "error", err)
		if e.state == Relexing {
			e.state = Pending
		}
		return nil, e.flushing
	}

	old := e.store.Annotations(region.Start, region.Stop)
	adds, removes := Reconcile(old, region.Tokens, e.theme)
	delta, err := e.store.Apply(adds, removes)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply failed")
		e.desyncLocked(err)
		e.state = Pending
		return nil, true
	}
	e.store.SetCheckpoints(region.First, region.Entries)
	e.dirty = LineRange{}
	delta.Seq = gen
	delta.Reset = e.reset
	e.reset = false

	span.SetAttributes(
		attribute.Int("region.first", region.First),
		attribute.Int("region.end", region.End),
		attribute.Bool("region.full", region.Full),
		attribute.Int("delta.added", len(delta.Added)),
		attribute.Int("delta.removed", len(delta.Removed)),
	)
	return &delta, false
}

// publish hands d to the paint callback and to subscribers. Paint runs
// outside the engine lock, on the scheduler goroutine.
func (e *Engine) publish(d Delta) {
	if e.opts.paint != nil {
		e.opts.paint(d)
	}
	typ := pubsub.PaintEvent
	if d.Reset {
		typ = pubsub.ResetEvent
	}
	e.broker.Publish(typ, d)
}
