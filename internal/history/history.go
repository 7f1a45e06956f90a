package history

import (
	"context"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	EventStarted       EventType = "started"
	EventFinished      EventType = "finished"
	EventReady         EventType = "ready"
	EventAutoRecovered EventType = "auto_recovered"
	EventAdded         EventType = "added"
	EventRemoved       EventType = "removed"
)

// Event represents a farm lifecycle event to be exported to external systems.
// NextReady is zero when the transition left no readiness time armed.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Farm       string    `json:"farm"`
	Actor      string    `json:"actor,omitempty"`
	Status     string    `json:"status"`
	NextReady  time.Time `json:"next_ready,omitempty"`
}

// Sink is a destination for history events (analytics/statistics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
