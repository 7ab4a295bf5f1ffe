// Package events provides an in-process publish/subscribe hub with a small
// replay buffer. Adapters and the HTTP surface observe job lifecycle events
// through it without coupling to the engine.
package events

import (
	"sync"
	"time"
)

// Event types published by the engine and sinks.
const (
	TypeJobSubmitted    = "job.submitted"
	TypeJobCompleted    = "job.completed"
	TypeJobResult       = "job.result"
	TypeResultDelivered = "result.delivered"
	TypeResultDropped   = "result.dropped"
)

// ringSize bounds the replay buffer. Older events are overwritten; Since
// callers that fall further behind simply miss them.
const ringSize = 256

// subBuffer is the per-subscriber channel depth. A subscriber that stops
// reading loses events rather than blocking publishers.
const subBuffer = 32

// Event is one hub notification. ID is assigned by the hub, strictly
// increasing per hub instance.
type Event struct {
	ID   int64          `json:"id"`
	Type string         `json:"type"`
	At   time.Time      `json:"at"`
	Data map[string]any `json:"data,omitempty"`
}

// Hub fans events out to live subscribers and keeps the last ringSize events
// for polling consumers.
type Hub struct {
	mu      sync.Mutex
	nextID  int64
	ring    []Event
	head    int
	count   int
	subs    map[int]chan Event
	nextSub int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		ring: make([]Event, ringSize),
		subs: make(map[int]chan Event),
	}
}

// Publish assigns the event an id and timestamp, records it in the replay
// ring, and offers it to every subscriber without blocking.
func (h *Hub) Publish(typ string, data map[string]any) Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	ev := Event{
		ID:   h.nextID,
		Type: typ,
		At:   time.Now(),
		Data: data,
	}

	h.ring[(h.head+h.count)%ringSize] = ev
	if h.count < ringSize {
		h.count++
	} else {
		h.head = (h.head + 1) % ringSize
	}

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// Subscribe registers a live feed. The returned cancel function must be
// called to release the subscription; after cancel the channel is closed.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSub
	h.nextSub++
	ch := make(chan Event, subBuffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Since returns buffered events with id greater than after, oldest first.
// Events evicted from the ring are gone; the caller sees a gap in ids.
func (h *Hub) Since(after int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Event
	for i := 0; i < h.count; i++ {
		ev := h.ring[(h.head+i)%ringSize]
		if ev.ID > after {
			out = append(out, ev)
		}
	}
	return out
}
