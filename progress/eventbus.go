package progress

import "context"

// Publisher is the write side of an event bus: the Pipeline Engine only
// ever needs to publish, never subscribe.
type Publisher interface {
	Publish(correlationID string, eventType EventType, payload map[string]interface{}) Event
}

// Subscriber is the read side of an event bus: the streaming HTTP handlers
// only ever need to subscribe.
type Subscriber interface {
	Subscribe(ctx context.Context, correlationID string) (<-chan Event, func())
}

// EventBus is the full read/write surface. The in-process Bus and the
// Redis-backed RedisBus both implement it; callers that need both sides
// (such as process wiring code) can depend on this instead of a concrete
// type.
type EventBus interface {
	Publisher
	Subscriber
}

var (
	_ EventBus = (*Bus)(nil)
	_ EventBus = (*RedisBus)(nil)
)
