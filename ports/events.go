package ports

import "context"

// EventPublisher forwards provider lifecycle events to out-of-process
// observers. Publishing is best effort; failures must not affect the
// operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}
