// Package realtime implements the in-process change feed: services publish
// insert/update/delete events and websocket subscribers receive the subset
// visible to them. Delivery is best-effort and last-write-wins; there is no
// deduplication or cross-instance fan-out.
package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Event types
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

type (
	// Event mirrors a row change on one of the fed tables.
	Event struct {
		Table  string      `json:"table"`
		Type   string      `json:"type"`
		Record interface{} `json:"record"`

		// visibility; not serialized
		Tenant   string   `json:"-"`
		Audience []string `json:"-"` // profile IDs; staff subscribers see all tenant events
	}

	Subscriber struct {
		ID     string
		Tenant string
		UserID string
		Staff  bool

		events chan Event
	}

	Hub struct {
		mu   sync.RWMutex
		subs map[string]*Subscriber

		// buffer per subscriber; a full buffer drops the subscriber
		buffer int
	}
)

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[string]*Subscriber),
		buffer: 64,
	}
}

// Subscribe registers a new subscriber. The returned subscriber's Events
// channel is closed on Unsubscribe or when the subscriber is dropped for
// falling behind.
func (h *Hub) Subscribe(tenant, userID string, staff bool) *Subscriber {
	sub := &Subscriber{
		ID:     uuid.New().String(),
		Tenant: tenant,
		UserID: userID,
		Staff:  staff,
		events: make(chan Event, h.buffer),
	}
	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.ID]; ok {
		delete(h.subs, sub.ID)
		close(sub.events)
	}
}

// Publish fans the event out to every subscriber allowed to see it. Slow
// consumers are dropped rather than buffered unboundedly.
func (h *Hub) Publish(evt Event) {
	h.mu.RLock()
	var dropped []*Subscriber
	for _, sub := range h.subs {
		if !sub.sees(evt) {
			continue
		}
		select {
		case sub.events <- evt:
		default:
			dropped = append(dropped, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range dropped {
		h.Unsubscribe(sub)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (s *Subscriber) Events() <-chan Event { return s.events }

func (s *Subscriber) sees(evt Event) bool {
	if evt.Tenant != s.Tenant {
		return false
	}
	if s.Staff {
		return true
	}
	for _, id := range evt.Audience {
		if id == s.UserID {
			return true
		}
	}
	return false
}
