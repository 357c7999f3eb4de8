// Package pubsub provides a small generic publish/subscribe broker used to
// fan out log entries and paint deltas.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// PaintEvent carries a batch of annotation changes for the host.
	PaintEvent EventType = "paint"
	// ResetEvent signals that every annotation was dropped and a full
	// re-highlight follows.
	ResetEvent EventType = "reset"
	// LogEvent carries a formatted log line.
	LogEvent EventType = "log"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
