package broadphase

import "github.com/akmonengine/broadphase/actor"

type EventType uint8

const (
	TRIGGER_ENTER EventType = iota
	OVERLAP_ENTER
	TRIGGER_STAY
	OVERLAP_STAY
	TRIGGER_EXIT
	OVERLAP_EXIT
)

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// PairEvent is the payload shared by every pair event: the two colliders and
// the proxies the tree reported them with, lowest id first
type PairEvent struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
	Proxies   NodePair
}

// Trigger events, sent when at least one collider of the pair is a trigger
type TriggerEnterEvent struct{ PairEvent }

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct{ PairEvent }

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct{ PairEvent }

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// Overlap events
type OverlapEnterEvent struct{ PairEvent }

func (e OverlapEnterEvent) Type() EventType { return OVERLAP_ENTER }

type OverlapStayEvent struct{ PairEvent }

func (e OverlapStayEvent) Type() EventType { return OVERLAP_STAY }

type OverlapExitEvent struct{ PairEvent }

func (e OverlapExitEvent) Type() EventType { return OVERLAP_EXIT }

// newPairEvent builds the event of the given type for p
func newPairEvent(eventType EventType, p Pair) Event {
	payload := PairEvent{ColliderA: p.ColliderA, ColliderB: p.ColliderB, Proxies: p.Proxies}

	switch eventType {
	case TRIGGER_ENTER:
		return TriggerEnterEvent{payload}
	case TRIGGER_STAY:
		return TriggerStayEvent{payload}
	case TRIGGER_EXIT:
		return TriggerExitEvent{payload}
	case OVERLAP_ENTER:
		return OverlapEnterEvent{payload}
	case OVERLAP_STAY:
		return OverlapStayEvent{payload}
	default:
		return OverlapExitEvent{payload}
	}
}

// EventListener - callback for events
type EventListener func(event Event)

// Events dispatches pair events. Pairs are tracked by proxy ids, so the
// events of one step are always sent in the same order.
type Events struct {
	listeners map[EventType][]EventListener
	buffer    []Event

	previous map[NodePair]Pair
	current  map[NodePair]Pair
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 256),
		previous:  make(map[NodePair]Pair),
		current:   make(map[NodePair]Pair),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		*e = NewEvents()
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordOverlaps marks the pairs overlapping during this step
func (e *Events) recordOverlaps(pairs []Pair) {
	for _, p := range pairs {
		e.current[p.Proxies] = p
	}
}

// forget drops every tracked pair involving the proxy, without an exit event
func (e *Events) forget(proxy NodeID) {
	for key := range e.previous {
		if key.A == proxy || key.B == proxy {
			delete(e.previous, key)
		}
	}
}

// processPairEvents compares the pairs of this step with the previous one.
// Enter and Stay follow the proxy order of this step, then Exit the proxy
// order of the pairs that separated.
func (e *Events) processPairEvents() {
	for _, key := range sortedPairKeys(e.current) {
		p := e.current[key]
		// Both asleep: nothing changes, nothing to report
		if p.ColliderA.IsSleeping && p.ColliderB.IsSleeping {
			continue
		}

		eventType := pairEventType(p, TRIGGER_ENTER, OVERLAP_ENTER)
		if _, ok := e.previous[key]; ok {
			eventType = pairEventType(p, TRIGGER_STAY, OVERLAP_STAY)
		}
		e.buffer = append(e.buffer, newPairEvent(eventType, p))
	}

	for _, key := range sortedPairKeys(e.previous) {
		if _, ok := e.current[key]; ok {
			continue
		}
		p := e.previous[key]
		e.buffer = append(e.buffer, newPairEvent(pairEventType(p, TRIGGER_EXIT, OVERLAP_EXIT), p))
	}

	e.previous, e.current = e.current, e.previous
	clear(e.current)
}

// pairEventType picks the trigger flavor when either collider is a trigger
func pairEventType(p Pair, trigger, overlap EventType) EventType {
	if p.ColliderA.IsTrigger || p.ColliderB.IsTrigger {
		return trigger
	}
	return overlap
}

func sortedPairKeys(pairs map[NodePair]Pair) []NodePair {
	keys := make([]NodePair, 0, len(pairs))
	for key := range pairs {
		keys = append(keys, key)
	}
	sortNodePairs(keys)
	return keys
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processPairEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
