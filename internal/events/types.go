// internal/events/types.go
package events

import "time"

// EventType identifies a category of transport event.
type EventType string

const (
	CallSucceeded EventType = "call_succeeded"
	CallFailed    EventType = "call_failed"
	CacheHit      EventType = "cache_hit"
	CircuitOpened EventType = "circuit_opened"
	CircuitClosed EventType = "circuit_closed"
	NodeProbed    EventType = "node_probed"
)

// Event is the payload delivered to listeners. Fields not relevant to a
// given type are zero.
type Event struct {
	Type    EventType
	Node    string
	Method  string
	Err     error
	Latency time.Duration
	Healthy bool
	At      time.Time
}

// Handler receives events. A returned error is logged and does not affect
// dispatch to the remaining listeners.
type Handler interface {
	Handle(Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(Event) error

func (f HandlerFunc) Handle(e Event) error { return f(e) }

// Subscription detaches a registered handler.
type Subscription interface {
	Unsubscribe()
}
