package signaling

import (
	"errors"
	"sync"

	"github.com/ovachat/relay/event"
)

type stubHandle struct {
	id string

	mu        sync.Mutex
	delivered []event.Event
	closed    bool
}

func newStubHandle(id string) *stubHandle {
	return &stubHandle{id: id}
}

func (h *stubHandle) ID() string { return h.id }

func (h *stubHandle) Deliver(ev event.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New("handle closed")
	}
	h.delivered = append(h.delivered, ev)
	return nil
}

func (h *stubHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *stubHandle) events() []event.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]event.Event, len(h.delivered))
	copy(out, h.delivered)
	return out
}

func (h *stubHandle) lastEvent() event.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.delivered) == 0 {
		return nil
	}
	return h.delivered[len(h.delivered)-1]
}
