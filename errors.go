package chlorophyll

import "errors"

// Edit errors
var (
	// ErrInvalidEdit indicates an edit whose span is reversed or falls
	// outside the buffer.
	ErrInvalidEdit = errors.New("invalid edit span")
)

// Store errors
var (
	// ErrDesync indicates that the annotation store no longer matches the
	// buffer it mirrors. The engine recovers by re-highlighting from scratch.
	ErrDesync = errors.New("annotation store out of sync with buffer")

	// ErrApplyMismatch indicates a change set that does not fit the store:
	// a removal naming no existing annotation, or an addition overlapping
	// one that survives.
	ErrApplyMismatch = errors.New("change set does not match annotation store")
)

// Scheduler errors
var (
	// ErrStale indicates a highlight pass overtaken by a newer edit. Its
	// results are discarded.
	ErrStale = errors.New("highlight result is stale")

	// ErrClosed indicates an operation on a closed engine.
	ErrClosed = errors.New("engine is closed")
)
