package broker

import (
	"context"

	"user-events/internal/event"
)

// EventStore receives every successfully decoded record.
type EventStore interface {
	Append(ev event.UserEvent)
}

// Archive is an optional write-behind sink for consumed events.
type Archive interface {
	Store(ctx context.Context, ev event.UserEvent) error
}
