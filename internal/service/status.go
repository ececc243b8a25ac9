package service

import (
	"time"

	"receipt_relay/internal/models"
	"receipt_relay/internal/transport"
)

// StatusService assembles the live pipeline snapshot for the dashboard.
type StatusService struct {
	conn       ConnectionManager
	transport  transport.Transport
	subscriber Subscriber
}

var _ Status = (*StatusService)(nil)

func NewStatusService(conn ConnectionManager, tr transport.Transport, sub Subscriber) *StatusService {
	return &StatusService{conn: conn, transport: tr, subscriber: sub}
}

// GetStatus samples the live components; it never touches persistence.
func (s *StatusService) GetStatus() models.PipelineStatus {
	return models.PipelineStatus{
		ID:                 1,
		Printer:            s.conn.State(),
		TransportConnected: s.transport.IsConnected(),
		Active:             s.subscriber.IsActive(),
		UpdatedAt:          time.Now().UTC(),
	}
}
