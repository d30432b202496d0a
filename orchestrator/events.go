package orchestrator

import (
	"sync"

	"github.com/lexhub/lexchat/chatapi"
)

// EventType identifies what a published event describes.
type EventType string

const (
	// EventStateChanged is published after any successful state transition.
	EventStateChanged EventType = "state_changed"
	// EventErrorSet is published when a failure lands in the held-error slot.
	// The transient notification layer subscribes to this instead of polling.
	EventErrorSet EventType = "error_set"
)

// Event carries a state snapshot to listeners. Err is set for EventErrorSet.
type Event struct {
	Type  EventType
	Err   *chatapi.APIError
	State State
}

// Listener receives events synchronously on the publishing goroutine.
// Listeners must not invoke orchestrator intents re-entrantly.
type Listener func(Event)

type eventBus struct {
	mu        sync.RWMutex
	listeners map[EventType][]Listener
}

func newEventBus() *eventBus {
	return &eventBus{listeners: make(map[EventType][]Listener)}
}

func (b *eventBus) subscribe(t EventType, l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[t] = append(b.listeners[t], l)
}

func (b *eventBus) publish(event Event) {
	b.mu.RLock()
	listeners := b.listeners[event.Type]
	b.mu.RUnlock()

	for _, l := range listeners {
		l(event)
	}
}
