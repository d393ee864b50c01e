package realtime

import "testing"

func publishTestEvent(h *Hub, tenant string, audience ...string) {
	h.Publish(Event{
		Table:    "applications",
		Type:     EventUpdate,
		Record:   map[string]string{"id": "app-1"},
		Tenant:   tenant,
		Audience: audience,
	})
}

func TestHub_visibility(t *testing.T) {
	hub := NewHub()

	owner := hub.Subscribe("acme", "user-1", false)
	other := hub.Subscribe("acme", "user-2", false)
	staff := hub.Subscribe("acme", "staff-1", true)
	foreign := hub.Subscribe("globex", "staff-9", true)
	defer func() {
		hub.Unsubscribe(owner)
		hub.Unsubscribe(other)
		hub.Unsubscribe(staff)
		hub.Unsubscribe(foreign)
	}()

	publishTestEvent(hub, "acme", "user-1")

	if len(owner.Events()) != 1 {
		t.Error("audience member did not receive the event")
	}
	if len(other.Events()) != 0 {
		t.Error("non-audience member received the event")
	}
	if len(staff.Events()) != 1 {
		t.Error("tenant staff did not receive the event")
	}
	if len(foreign.Events()) != 0 {
		t.Error("other tenant's staff received the event")
	}
}

func TestHub_slowConsumerDropped(t *testing.T) {
	hub := NewHub()
	hub.buffer = 2

	slow := hub.Subscribe("acme", "user-1", false)
	if hub.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", hub.Len())
	}

	// fill the buffer, then overflow it
	for i := 0; i < 3; i++ {
		publishTestEvent(hub, "acme", "user-1")
	}

	if hub.Len() != 0 {
		t.Errorf("Len() = %d, want 0 (slow subscriber dropped)", hub.Len())
	}
	// the channel is closed after the buffered events drain
	for range slow.events {
	}
}

func TestHub_unsubscribeIdempotent(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("acme", "user-1", false)

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub) // second call must not panic on the closed channel

	if hub.Len() != 0 {
		t.Errorf("Len() = %d, want 0", hub.Len())
	}
}
