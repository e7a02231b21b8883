package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/metrics"
	"NewsDesk/internal/ports"
)

const defaultBuffer = 32

// Handle is one connected live session registered under an address.
type Handle struct {
	ID      string
	Address string

	events chan domain.LiveEvent
}

// Events yields queued events. The channel is closed on Unregister.
func (h *Handle) Events() <-chan domain.LiveEvent {
	return h.events
}

// Hub keeps the address -> handles registry of this instance.
// Emits enqueue to every handle independently and never block; a full queue drops the event.
type Hub struct {
	mu      sync.RWMutex
	handles map[string]map[string]*Handle
	buffer  int
	closed  bool
	logger  *slog.Logger
}

var _ ports.Broadcaster = (*Hub)(nil)

// NewHub creates an empty registry with the given per-handle queue size.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		handles: make(map[string]map[string]*Handle),
		buffer:  buffer,
		logger:  logger,
	}
}

// Register joins a new session to address.
func (h *Hub) Register(address string) *Handle {
	handle := &Handle{
		ID:      uuid.NewString(),
		Address: address,
		events:  make(chan domain.LiveEvent, h.buffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		handle.close()
		return handle
	}
	group, ok := h.handles[address]
	if !ok {
		group = make(map[string]*Handle)
		h.handles[address] = group
	}
	group[handle.ID] = handle
	h.mu.Unlock()

	metrics.ConnectedSessions.Inc()
	h.logger.Debug("live session registered", "address", address, "handle", handle.ID)
	return handle
}

func (h *Handle) close() {
	close(h.events)
}

// Unregister removes the handle and closes its queue. Calling it twice is a no-op.
func (h *Hub) Unregister(handle *Handle) {
	if handle == nil {
		return
	}

	h.mu.Lock()
	group, ok := h.handles[handle.Address]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := group[handle.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(group, handle.ID)
	if len(group) == 0 {
		delete(h.handles, handle.Address)
	}
	handle.close()
	h.mu.Unlock()

	metrics.ConnectedSessions.Dec()
	h.logger.Debug("live session unregistered", "address", handle.Address, "handle", handle.ID)
}

// Emit enqueues event to every session of address. No session is not an error.
func (h *Hub) Emit(_ context.Context, address string, event domain.LiveEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, handle := range h.handles[address] {
		h.enqueue(handle, event)
	}
	return nil
}

// EmitAll enqueues event to every session on this instance.
func (h *Hub) EmitAll(_ context.Context, event domain.LiveEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for address, group := range h.handles {
		e := event
		e.Address = address
		for _, handle := range group {
			h.enqueue(handle, e)
		}
	}
	return nil
}

// Close ends every open session by closing its queue. Sessions registered
// afterwards start closed.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	n := 0
	for address, group := range h.handles {
		for _, handle := range group {
			handle.close()
			n++
		}
		delete(h.handles, address)
	}
	h.mu.Unlock()

	metrics.ConnectedSessions.Sub(float64(n))
	h.logger.Info("live hub closed", "sessions", n)
}

// Sessions returns the number of open handles.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, group := range h.handles {
		n += len(group)
	}
	return n
}

// enqueue must be called with h.mu held.
func (h *Hub) enqueue(handle *Handle, event domain.LiveEvent) {
	select {
	case handle.events <- event:
		metrics.NotificationsTotal.WithLabelValues("enqueued").Inc()
	default:
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		h.logger.Warn("live session queue full, dropping event", "address", handle.Address, "handle", handle.ID, "event", event.Name)
	}
}
