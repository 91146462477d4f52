package history

import (
	"context"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	EventRegister EventType = "register"
	EventStart    EventType = "start"
	EventStop     EventType = "stop"
	EventRestart  EventType = "restart"
	EventDelete   EventType = "delete"
	EventUpdate   EventType = "update"
)

// Event records one facade operation against a managed process. Detail
// carries the reconcile action for starts ("started", "restarted",
// "recreated", "already-running") or other free-form context.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Name       string    `json:"name"`
	Detail     string    `json:"detail,omitempty"`
}

// Sink is a destination for lifecycle events (audit/analytics systems).
// Implementations must be safe for concurrent use. Sends are best-effort;
// they never block or fail a facade operation.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
