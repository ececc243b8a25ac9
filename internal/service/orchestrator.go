package service

import (
	"context"
	"fmt"

	"receipt_relay/internal/logger"
	"receipt_relay/internal/models"
	"receipt_relay/internal/peripheral"
)

// PrintOrchestratorService transforms one order-created event into zero or
// one print attempt, logging every step. It only reads the connection state
// and invokes print; it never connects or disconnects the printer itself.
type PrintOrchestratorService struct {
	conn     ConnectionManager
	orders   OrderFetcher
	driver   peripheral.Driver
	logbook  ActivityLog
	notifier Notifier
	log      *logger.Logger
}

var _ Orchestrator = (*PrintOrchestratorService)(nil)

func NewPrintOrchestratorService(conn ConnectionManager, orders OrderFetcher, driver peripheral.Driver, logbook ActivityLog, notifier Notifier, log *logger.Logger) *PrintOrchestratorService {
	return &PrintOrchestratorService{
		conn:     conn,
		orders:   orders,
		driver:   driver,
		logbook:  logbook,
		notifier: notifier,
		log:      log,
	}
}

// HandleOrderCreated runs the notification → fetch → print → log sequence
// for one event. Every failure is terminal for this event only: nothing is
// retried, nothing propagates, and one bad order never blocks the next.
func (s *PrintOrchestratorService) HandleOrderCreated(ctx context.Context, evt models.OrderCreatedEvent) {
	defer func() {
		if r := recover(); r != nil {
			s.logbook.Append(models.SeverityError, fmt.Sprintf("Order #%s failed: %v", evt.OrderNumber, r))
			if s.log != nil {
				s.log.Errorw("order_handler_panic", "order", evt.OrderNumber, "panic", r)
			}
		}
	}()

	s.logbook.Append(models.SeverityInfo, fmt.Sprintf("New order received: #%s", evt.OrderNumber))

	// Hard precondition, not a retry case: without a printer there is
	// nothing to fetch.
	st := s.conn.State()
	if !st.IsConnected {
		s.logbook.Append(models.SeverityWarning, fmt.Sprintf("Printer not connected; order #%s was not printed", evt.OrderNumber))
		s.notifier.Notify(Alert{
			Title:       "Printer disconnected",
			Description: fmt.Sprintf("Order #%s could not be printed.", evt.OrderNumber),
			Variant:     AlertWarning,
		})
		return
	}
	s.logbook.Append(models.SeverityInfo, fmt.Sprintf("Printer %s ready, fetching order #%s...", st.DeviceName, evt.OrderNumber))

	detail, err := s.orders.OrderByID(ctx, evt.OrderID)
	if err != nil {
		s.logbook.Append(models.SeverityError, fmt.Sprintf("Failed to fetch order #%s: %v", evt.OrderNumber, err))
		return
	}
	s.logbook.Append(models.SeverityInfo, fmt.Sprintf("Order #%s retrieved (%d items)", detail.OrderNumber, len(detail.Items)))

	payload := BuildReceipt(detail)

	s.logbook.Append(models.SeverityInfo, fmt.Sprintf("Printing receipt for order #%s on %s...", detail.OrderNumber, st.DeviceName))
	if err := s.driver.PrintReceipt(ctx, payload); err != nil {
		s.logbook.Append(models.SeverityError, fmt.Sprintf("Print failed for order #%s: %v", detail.OrderNumber, err))
		s.notifier.Notify(Alert{
			Title:       "Print failed",
			Description: fmt.Sprintf("Order #%s: %v", detail.OrderNumber, err),
			Variant:     AlertError,
		})
		return
	}

	s.logbook.Append(models.SeveritySuccess, fmt.Sprintf("Receipt for order #%s printed", detail.OrderNumber))
	s.notifier.Notify(Alert{
		Title:       "Receipt printed",
		Description: fmt.Sprintf("Order #%s", detail.OrderNumber),
		Variant:     AlertSuccess,
	})
}
