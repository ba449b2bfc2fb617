package domain

import "context"

type EventRepository interface {
	Append(ctx context.Context, events ...Event) error
	// RegisterEventsHandler subscribes the handler to every batch of events
	// appended under the given topic.
	RegisterEventsHandler(topic string, handler func([]Event))
	Close()
}
