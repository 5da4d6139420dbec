package events

import (
	"sync"
	"time"

	"toolgate/pkg/logging"
)

// defaultBufferSize is the per-subscription channel buffer used when the
// subscriber does not specify one.
const defaultBufferSize = 256

// Bus is the in-process pub/sub hub for gateway events.
//
// Publishing is synchronous fan-out under a single mutex, which makes
// delivery order per publisher FIFO: two events published by the same
// goroutine arrive at every subscriber in publication order. Across
// publishers no ordering is guaranteed.
//
// Subscriber channels are buffered; a full channel drops the event rather
// than blocking the publisher (requests must never stall on a slow metrics
// consumer).
type Bus struct {
	mu      sync.Mutex
	subs    map[int]*Subscription
	nextID  int
	dropped uint64
}

// Subscription is one subscriber's view of the bus. Events arrive on C.
type Subscription struct {
	// C receives matching events. The channel is closed by Close.
	C chan Event

	id    int
	types map[Type]bool
	bus   *Bus
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]*Subscription),
	}
}

// Subscribe registers a subscriber for the given event types. An empty type
// list subscribes to everything. buffer <= 0 selects the default buffer
// size.
func (b *Bus) Subscribe(buffer int, types ...Type) *Subscription {
	if buffer <= 0 {
		buffer = defaultBufferSize
	}

	sub := &Subscription{
		C:   make(chan Event, buffer),
		bus: b,
	}
	if len(types) > 0 {
		sub.types = make(map[Type]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub.id = b.nextID
	b.subs[sub.id] = sub
	return sub
}

// Close removes the subscription from the bus and closes its channel.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if _, ok := s.bus.subs[s.id]; !ok {
		return
	}
	delete(s.bus.subs, s.id)
	close(s.C)
}

// Publish delivers an event to every matching subscriber. A zero Timestamp
// is filled in with the current time. Delivery is non-blocking; events to
// full subscriber channels are dropped and counted.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if sub.types != nil && !sub.types[e.Type] {
			continue
		}
		select {
		case sub.C <- e:
		default:
			b.dropped++
			logging.Warn("Events", "Dropped %s event for %s: subscriber buffer full", e.Type, e.Service)
		}
	}
}

// Dropped returns the number of events dropped because of full subscriber
// buffers.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
