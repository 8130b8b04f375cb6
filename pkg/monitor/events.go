package monitor

import "sync"

// EventType identifies a signal published by the monitor.
type EventType string

const (
	EventMemoryStats       EventType = "memory_stats"
	EventCPUStats          EventType = "cpu_stats"
	EventThresholdExceeded EventType = "threshold_exceeded"
	EventWarningAlert      EventType = "warning_alert"
	EventCriticalAlert     EventType = "critical_alert"
	EventMemoryTrend       EventType = "memory_trend"
	EventGCStats           EventType = "gc_stats"
	EventLeakDetected      EventType = "leak_detected"
	EventHeapSnapshot      EventType = "heap_snapshot"
	EventReportExported    EventType = "report_exported"
	EventError             EventType = "error"
	EventWarning           EventType = "warning"
	EventInfo              EventType = "info"
)

// Event is a published signal with its payload.
type Event struct {
	Type    EventType
	Payload interface{}
}

// Handler receives published events.
type Handler func(Event)

// Notifier is an observer registry. Handlers persist across emissions until
// the notifier is discarded; every emission is delivered synchronously to all
// handlers registered at that moment.
type Notifier struct {
	lock     sync.RWMutex
	handlers map[EventType][]Handler
}

// NewNotifier creates an empty registry.
func NewNotifier() *Notifier {
	return &Notifier{handlers: make(map[EventType][]Handler)}
}

// Subscribe registers a handler for an event type. Registrations accumulate.
func (n *Notifier) Subscribe(t EventType, h Handler) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.handlers[t] = append(n.handlers[t], h)
}

// Emit delivers the payload to every handler registered for the type.
func (n *Notifier) Emit(t EventType, payload interface{}) {
	n.lock.RLock()
	registered := n.handlers[t]
	handlers := make([]Handler, len(registered))
	copy(handlers, registered)
	n.lock.RUnlock()

	ev := Event{Type: t, Payload: payload}
	for _, h := range handlers {
		h(ev)
	}
}
