// Package liveevents fans out session lifecycle events to in-process
// subscribers such as the SSE and WebSocket endpoints.
package liveevents

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
)

const (
	TypeSessionEntered = "session.entered"
	TypeSessionExited  = "session.exited"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

var Module = fx.Module("parking.liveevents",
	fx.Provide(NewHub),
)

var ErrHubUnavailable = errors.New("hub_unavailable")

type LiveEvent struct {
	Type          string    `json:"type"`
	SessionID     string    `json:"session_id"`
	LicensePlate  string    `json:"license_plate"`
	CustomerClass string    `json:"customer_class"`
	ReceiptID     string    `json:"receipt_id,omitempty"`
	Charges       string    `json:"charges,omitempty"`
	DurationLabel string    `json:"duration_label,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Hub keeps a short backlog so new subscribers can render recent activity.
// Slow subscribers miss events rather than block publishers.
type Hub struct {
	mu               sync.Mutex
	buffer           []LiveEvent
	subs             map[uint64]chan LiveEvent
	nextID           uint64
	bufferSize       int
	subscriberBuffer int
}

type Subscription struct {
	hub  *Hub
	id   uint64
	ch   chan LiveEvent
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{
		subs:             make(map[uint64]chan LiveEvent),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(event LiveEvent) {
	if h == nil {
		return
	}

	h.mu.Lock()
	h.buffer = append(h.buffer, event)
	if len(h.buffer) > h.bufferSize {
		h.buffer = h.buffer[len(h.buffer)-h.bufferSize:]
	}
	subs := make([]chan LiveEvent, 0, len(h.subs))
	for _, ch := range h.subs {
		subs = append(subs, ch)
	}
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a listener and returns it with a copy of the backlog.
func (h *Hub) Subscribe() (*Subscription, []LiveEvent, error) {
	if h == nil {
		return nil, nil, ErrHubUnavailable
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan LiveEvent, h.subscriberBuffer)
	h.subs[id] = ch
	backlog := append([]LiveEvent(nil), h.buffer...)
	h.mu.Unlock()

	return &Subscription{hub: h, id: id, ch: ch}, backlog, nil
}

func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

func (s *Subscription) Events() <-chan LiveEvent {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.id)
	})
}
