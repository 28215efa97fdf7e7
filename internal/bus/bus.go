// Package bus implements the Notification Bus (C5): a single-process
// publish/subscribe mechanism that fans out pricing-context cache state
// transitions to per-session SSE subscribers.
package bus

import (
	"log"
	"sync"
)

// DefaultBufferSize is the default bounded queue depth per subscriber.
const DefaultBufferSize = 64

// EventType names the kind of event carried on the bus.
type EventType string

const (
	// EventURLTransform is published on every terminal CacheEntry transition
	// (ready or error) and once when a transformation begins.
	EventURLTransform EventType = "url_transform"
	// EventLagged is synthesized for a subscriber that has dropped events.
	EventLagged EventType = "lagged"
)

// URLTransformPayload is the JSON data carried by an EventURLTransform event.
type URLTransformPayload struct {
	ID           string `json:"id,omitempty"`
	CanonicalURL string `json:"canonical_url"`
	State        string `json:"state"`
	YAML         string `json:"yaml_content,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Event is one message delivered to subscribers.
type Event struct {
	Type EventType
	Data any
}

// subscriber is a single bounded delivery channel plus its overflow streak.
type subscriber struct {
	ch             chan Event
	mu             sync.Mutex
	overflowStreak int
}

// Bus is a per-session pub/sub fan-out with bounded per-subscriber queues.
// Publishers never block: Publish is non-blocking and drops events for a
// subscriber whose queue is full, emitting a "lagged" event after two
// consecutive drops (spec.md §4.5, §8).
type Bus struct {
	mu         sync.RWMutex
	subs       map[string]map[*subscriber]struct{} // sessionID -> subscriber set
	bufferSize int
}

// New creates a Bus whose subscriber queues hold bufferSize events each.
// bufferSize <= 0 uses DefaultBufferSize.
func New(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Bus{
		subs:       make(map[string]map[*subscriber]struct{}),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a new subscriber for sessionID and returns a
// receive-only channel plus a cancel function that must be called to
// release resources when the caller stops listening (e.g. SSE client
// disconnect).
func (b *Bus) Subscribe(sessionID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, b.bufferSize)}

	b.mu.Lock()
	set, ok := b.subs[sessionID]
	if !ok {
		set = make(map[*subscriber]struct{})
		b.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[sessionID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(b.subs, sessionID)
			}
		}
		close(sub.ch)
	}
	return sub.ch, cancel
}

// Publish delivers evt to every subscriber of sessionID. Delivery is FIFO
// per publisher goroutine and never blocks: a full subscriber queue drops
// the event. Two consecutive drops for the same subscriber trigger a
// best-effort "lagged" notification.
func (b *Bus) Publish(sessionID string, evt Event) {
	b.mu.RLock()
	set := b.subs[sessionID]
	subs := make([]*subscriber, 0, len(set))
	for s := range set {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(s, evt)
	}
}

func (b *Bus) deliver(s *subscriber, evt Event) {
	s.mu.Lock()
	lagPending := s.overflowStreak >= 2
	s.mu.Unlock()
	if lagPending {
		// A lagged notice that could not be queued when the drops happened
		// goes out ahead of the next event that finds room.
		select {
		case s.ch <- Event{Type: EventLagged, Data: map[string]any{"reason": "subscriber too slow"}}:
			s.mu.Lock()
			s.overflowStreak = 0
			s.mu.Unlock()
		default:
		}
	}

	select {
	case s.ch <- evt:
		s.mu.Lock()
		s.overflowStreak = 0
		s.mu.Unlock()
		return
	default:
	}

	s.mu.Lock()
	s.overflowStreak++
	streak := s.overflowStreak
	s.mu.Unlock()

	log.Printf("[Bus] subscriber queue full, dropped event %s (streak=%d)", evt.Type, streak)

	if streak >= 2 {
		select {
		case s.ch <- Event{Type: EventLagged, Data: map[string]any{"reason": "subscriber too slow"}}:
			s.mu.Lock()
			s.overflowStreak = 0
			s.mu.Unlock()
		default:
			// The queue is still full; the streak stays at two or more, so
			// the lagged event is sent ahead of the next event that fits.
		}
	}
}

// SubscriberCount reports how many subscribers are attached to sessionID.
// Intended for tests and diagnostics.
func (b *Bus) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}
