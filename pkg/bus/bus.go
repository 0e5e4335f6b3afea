// Package bus provides the synchronous in-process event transport for the
// pipeline. Publish fans out to subscribers in registration order, in-line,
// before returning; there is no queueing and no background dispatch, so
// ordering between dependent signals is guaranteed by the call stack.
// Handlers must not block.
package bus

// EventKind is the closed set of signal kinds. Dispatch is keyed by this
// tag only; there is no matching by type name or subclassing.
type EventKind int

const (
	EventTick EventKind = iota
	EventCandleUpdated
	EventCandleClosed
	EventSessionStarted
	EventSessionEnded
	EventUniverseSnapshot
	EventGapSnapshot
	EventIntent
	EventIntentApproved
	EventIntentRejected
	EventIntentExpired
	EventOrderFill

	eventKindCount
)

var kindNames = [...]string{
	"tick",
	"candle_updated",
	"candle_closed",
	"session_started",
	"session_ended",
	"universe_snapshot",
	"gap_snapshot",
	"intent",
	"intent_approved",
	"intent_rejected",
	"intent_expired",
	"order_fill",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Event is anything routed through the bus.
type Event interface {
	Kind() EventKind
}

// Handler processes one event. Invoked synchronously by Publish.
type Handler func(Event)

// Bus is a synchronous fan-out dispatcher. It is not safe for concurrent
// use; the pipeline runs on a single logical thread of control.
type Bus struct {
	handlers [eventKindCount][]Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for one event kind. Handlers fire in
// registration order.
func (b *Bus) Subscribe(kind EventKind, h Handler) {
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Publish invokes every handler registered for the event's kind and does
// not return until all of them have finished.
func (b *Bus) Publish(e Event) {
	for _, h := range b.handlers[e.Kind()] {
		h(e)
	}
}
