package service

import (
	"context"
	"fmt"
	"sync"

	"receipt_relay/internal/logger"
	"receipt_relay/internal/models"
	"receipt_relay/internal/transport"
)

// SubscriberService guarantees the pipeline is subscribed to the
// order-created channel exactly once per activation. The transport connection
// itself is shared and never torn down here; only this pipeline's handler
// registration is owned.
type SubscriberService struct {
	transport    transport.Transport
	conn         ConnectionManager
	orchestrator Orchestrator
	logbook      ActivityLog
	log          *logger.Logger

	mu        sync.Mutex
	active    bool
	handlerID int
}

var _ Subscriber = (*SubscriberService)(nil)

func NewSubscriberService(tr transport.Transport, conn ConnectionManager, orch Orchestrator, logbook ActivityLog, log *logger.Logger) *SubscriberService {
	return &SubscriberService{
		transport:    tr,
		conn:         conn,
		orchestrator: orch,
		logbook:      logbook,
		log:          log,
	}
}

// Activate starts a new activation cycle: reset the activity log, seed it
// with the printer's current state, connect the push channel if needed, and
// register the orchestrator handler. Idempotent: activating an already
// active pipeline is a no-op, and repeated activate/deactivate cycles never
// accumulate duplicate handlers.
func (s *SubscriberService) Activate(ctx context.Context) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = true
	s.mu.Unlock()

	s.logbook.Reset()

	// Seed from the current snapshot; an already connected printer must show
	// up immediately, not on its next transition.
	if st := s.conn.State(); st.IsConnected {
		s.logbook.Append(models.SeverityInfo, fmt.Sprintf("Printer ready: %s", st.DeviceName))
	} else {
		s.logbook.Append(models.SeverityWarning, "Printer not connected")
	}

	if !s.transport.IsConnected() {
		s.logbook.Append(models.SeverityInfo, "Connecting to order notifications...")
		if err := s.transport.Connect(ctx); err != nil {
			// Setup failure is terminal for this activation: the pipeline
			// stays active but receives nothing until a future activation
			// retries the channel.
			s.logbook.Append(models.SeverityError, fmt.Sprintf("Notification channel unavailable: %v", err))
			s.log.Errorw("transport_connect_failed", "err", err)
		} else {
			s.logbook.Append(models.SeveritySuccess, "Order notifications connected")
		}
	}

	// Re-check after the connect suspension point: a Deactivate that arrived
	// while the channel was being established wins, and no handler may be
	// left registered on an inactive pipeline.
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	if s.handlerID == 0 {
		s.handlerID = s.transport.OnOrderCreated(s.orchestrator.HandleOrderCreated)
	}
	s.mu.Unlock()

	s.logbook.Append(models.SeverityInfo, "Listening for new orders")
	return nil
}

// Deactivate unregisters this pipeline's handler. The shared transport
// connection stays up for other consumers, and an in-flight print simply
// runs to completion and logs its outcome.
func (s *SubscriberService) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	if s.handlerID != 0 {
		s.transport.OffOrderCreated(s.handlerID)
		s.handlerID = 0
	}
	s.logbook.Append(models.SeverityInfo, "Stopped listening for new orders")
}

func (s *SubscriberService) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
