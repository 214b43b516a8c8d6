package quill

import (
	"github.com/akmonengine/quill/contact"
	"github.com/google/uuid"
)

// EventType classifies pair lifecycle events.
type EventType uint8

const (
	// PairBegin: the pair touches this step and did not touch the step
	// before.
	PairBegin EventType = iota
	// PairStay: the pair touched last step and still does.
	PairStay
	// PairEnd: the pair touched last step and no longer does.
	PairEnd
)

func (t EventType) String() string {
	switch t {
	case PairBegin:
		return "begin"
	case PairStay:
		return "stay"
	case PairEnd:
		return "end"
	}
	return "unknown"
}

// PairEvent reports a change in a pair's touching state. For PairEnd the
// colliders may already have been removed from the world; the key is always
// valid.
type PairEvent struct {
	Type EventType
	Key  contact.PairKey
	A    *Collider
	B    *Collider
}

// EventListener receives pair events during Flush.
type EventListener func(event PairEvent)

// Events tracks which pairs touch across steps and turns the transitions
// into Begin/Stay/End events. Contacts records the touching pairs of the
// current step; Flush compares them with the previous step and notifies the
// listeners.
type Events struct {
	listeners map[EventType][]EventListener

	previous map[contact.PairKey]ColliderPair
	current  map[contact.PairKey]ColliderPair

	buffer []PairEvent
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		previous:  make(map[contact.PairKey]ColliderPair),
		current:   make(map[contact.PairKey]ColliderPair),
		buffer:    make([]PairEvent, 0, 64),
	}
}

// Subscribe adds a listener for one event type.
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// record marks a pair as touching in the current step.
func (e *Events) record(key contact.PairKey, a, b *Collider) {
	e.current[key] = ColliderPair{A: a, B: b}
}

// forget drops all history involving a removed collider so its pairs do not
// fire spurious End events later.
func (e *Events) forget(id uuid.UUID) {
	for key := range e.previous {
		if key.A == id || key.B == id {
			delete(e.previous, key)
		}
	}
	for key := range e.current {
		if key.A == id || key.B == id {
			delete(e.current, key)
		}
	}
}

// Flush diffs the current step's pairs against the previous step's, emits
// Begin/Stay/End to the listeners, and advances the history.
func (e *Events) Flush() {
	for key, pair := range e.current {
		if _, was := e.previous[key]; was {
			e.buffer = append(e.buffer, PairEvent{Type: PairStay, Key: key, A: pair.A, B: pair.B})
		} else {
			e.buffer = append(e.buffer, PairEvent{Type: PairBegin, Key: key, A: pair.A, B: pair.B})
		}
	}
	for key, pair := range e.previous {
		if _, still := e.current[key]; !still {
			e.buffer = append(e.buffer, PairEvent{Type: PairEnd, Key: key, A: pair.A, B: pair.B})
		}
	}

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]

	// Swap and clear for the next step.
	e.previous, e.current = e.current, e.previous
	clear(e.current)
}
