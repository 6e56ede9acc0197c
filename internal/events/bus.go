package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Delivery is asynchronous; Publish never blocks on subscribers.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers of its concrete type.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case DeviceEvent:
		event.Publish(b.dispatcher, e)
	case SessionStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case SessionErrorEvent:
		event.Publish(b.dispatcher, e)
	case DeviceSelectionRequestedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler for the event type in its signature and
// returns an unsubscribe function. Unknown handler types get a no-op.
//
//	unsub := bus.Subscribe(func(e SessionErrorEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(DeviceEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SessionStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SessionErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceSelectionRequestedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

