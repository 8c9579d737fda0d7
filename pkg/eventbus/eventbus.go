package eventbus

import (
	"reflect"
	"sync"
)

// Handler is a function that handles an event
type Handler func(event interface{})

// EventBus provides in-process pub/sub
type EventBus struct {
	handlers map[reflect.Type][]Handler
	mu       sync.RWMutex
}

// New creates a new EventBus
func New() *EventBus {
	return &EventBus{
		handlers: make(map[reflect.Type][]Handler),
	}
}

// Subscribe registers a handler for a specific event type
func (e *EventBus) Subscribe(eventType interface{}, handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := reflect.TypeOf(eventType)
	e.handlers[t] = append(e.handlers[t], handler)
}

// Publish publishes an event to all subscribers asynchronously
func (e *EventBus) Publish(event interface{}) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, handler := range e.match(event) {
		go handler(event)
	}
}

// PublishSync publishes an event synchronously to all subscribers
func (e *EventBus) PublishSync(event interface{}) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, handler := range e.match(event) {
		handler(event)
	}
}

// match collects handlers registered for the event's type; pointer
// events also match handlers registered on the element type.
// Callers must hold at least the read lock.
func (e *EventBus) match(event interface{}) []Handler {
	eventType := reflect.TypeOf(event)

	handlers := append([]Handler(nil), e.handlers[eventType]...)
	if eventType.Kind() == reflect.Ptr {
		handlers = append(handlers, e.handlers[eventType.Elem()]...)
	}
	return handlers
}

// HasSubscribers returns true if there are subscribers for the event type
func (e *EventBus) HasSubscribers(eventType interface{}) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t := reflect.TypeOf(eventType)
	handlers, ok := e.handlers[t]
	return ok && len(handlers) > 0
}

// SubscriberCount returns the number of subscribers for an event type
func (e *EventBus) SubscriberCount(eventType interface{}) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t := reflect.TypeOf(eventType)
	return len(e.handlers[t])
}
