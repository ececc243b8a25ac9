package transport

import (
	"context"

	"receipt_relay/internal/models"
)

// OrderHandler consumes one order-created push event. The transport invokes
// each registered handler in its own goroutine, so handling of one event
// never blocks delivery of the next.
type OrderHandler func(ctx context.Context, evt models.OrderCreatedEvent)

// TokenProvider supplies the credential presented when the channel is
// established (API key or bearer token, depending on the backend).
type TokenProvider func(ctx context.Context) (string, error)

// Transport is the persistent server-push channel carrying order-created
// events. The connection may be shared by other consumers; subscribers own
// only their handler registration, never the connection itself.
type Transport interface {
	// IsConnected reports whether the channel is currently established.
	IsConnected() bool
	// Connect establishes the channel. Asynchronous delivery starts once it
	// returns nil. Calling Connect on an already connected transport is a
	// no-op.
	Connect(ctx context.Context) error
	// OnOrderCreated registers a handler for the order-created topic and
	// returns a subscription id.
	OnOrderCreated(h OrderHandler) int
	// OffOrderCreated removes a handler registration. Removing an unknown id
	// is a no-op.
	OffOrderCreated(id int)
}

// handlerSet is the shared registration bookkeeping for transports: an
// explicit registry keyed by subscription id, notified over snapshots so a
// removal during dispatch cannot skip or duplicate other handlers.
type handlerSet struct {
	handlers map[int]OrderHandler
	nextID   int
}

func newHandlerSet() handlerSet {
	return handlerSet{handlers: make(map[int]OrderHandler)}
}

func (s *handlerSet) add(h OrderHandler) int {
	s.nextID++
	s.handlers[s.nextID] = h
	return s.nextID
}

func (s *handlerSet) remove(id int) {
	delete(s.handlers, id)
}

func (s *handlerSet) snapshot() []OrderHandler {
	out := make([]OrderHandler, 0, len(s.handlers))
	for _, h := range s.handlers {
		out = append(out, h)
	}
	return out
}
