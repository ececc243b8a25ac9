package service

import (
	"context"
	"fmt"
	"sync"

	"receipt_relay/internal/logger"
	"receipt_relay/internal/models"
	"receipt_relay/internal/peripheral"
)

// ConnectionManagerService fronts the printer driver: it owns the observable
// ConnectionState, serializes connect/disconnect, and relays every transition
// (including device-initiated drops) to its own listener registry.
type ConnectionManagerService struct {
	driver   peripheral.Driver
	logbook  ActivityLog
	notifier Notifier
	log      *logger.Logger

	mu        sync.Mutex
	state     models.ConnectionState
	listeners map[int]func(bool)
	nextSubID int
	busy      bool // a manager-initiated connect/disconnect is in flight
}

var _ ConnectionManager = (*ConnectionManagerService)(nil)

func NewConnectionManagerService(driver peripheral.Driver, logbook ActivityLog, notifier Notifier, log *logger.Logger) *ConnectionManagerService {
	m := &ConnectionManagerService{
		driver:    driver,
		logbook:   logbook,
		notifier:  notifier,
		log:       log,
		listeners: make(map[int]func(bool)),
	}
	m.state = models.ConnectionState{
		IsConnected: driver.IsConnected(),
		DeviceName:  driver.DeviceName(),
	}
	driver.OnConnectionChange(m.onDriverChange)
	return m
}

// State returns the current snapshot. Always safe to call synchronously.
func (m *ConnectionManagerService) State() models.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect attempts to establish the printer link. The observable state is
// only touched once the driver reports a result, so an already connected
// device keeps its name through a redundant call. A call while another
// connect is in flight is a no-op.
func (m *ConnectionManagerService) Connect(ctx context.Context) (models.ConnectionState, error) {
	m.mu.Lock()
	if m.busy {
		st := m.state
		m.mu.Unlock()
		return st, nil
	}
	m.busy = true
	m.mu.Unlock()
	defer m.clearBusy()

	m.logbook.Append(models.SeverityInfo, "Connecting to printer...")

	name, err := m.driver.Connect(ctx)
	if err != nil {
		m.applyState(models.ConnectionState{})
		m.logbook.Append(models.SeverityError, fmt.Sprintf("Printer connection failed: %v", err))
		m.notifier.Notify(Alert{
			Title:       "Printer connection failed",
			Description: err.Error(),
			Variant:     AlertError,
		})
		return models.ConnectionState{}, err
	}

	st := models.ConnectionState{IsConnected: true, DeviceName: name}
	m.applyState(st)
	m.logbook.Append(models.SeveritySuccess, fmt.Sprintf("Printer connected: %s", name))
	m.notifier.Notify(Alert{
		Title:       "Printer connected",
		Description: name,
		Variant:     AlertSuccess,
	})
	return st, nil
}

// Disconnect releases the printer link. Idempotent: a second call is silent.
func (m *ConnectionManagerService) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	wasConnected := m.state.IsConnected
	m.busy = true
	m.mu.Unlock()
	defer m.clearBusy()

	if err := m.driver.Disconnect(ctx); err != nil {
		return err
	}
	m.applyState(models.ConnectionState{})

	if wasConnected {
		m.logbook.Append(models.SeverityInfo, "Printer disconnected")
		m.notifier.Notify(Alert{Title: "Printer disconnected", Variant: AlertInfo})
	}
	return nil
}

// OnConnectionChange registers a transition listener and returns its id.
func (m *ConnectionManagerService) OnConnectionChange(fn func(connected bool)) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSubID++
	m.listeners[m.nextSubID] = fn
	return m.nextSubID
}

// OffConnectionChange removes a listener. Unknown ids are ignored.
func (m *ConnectionManagerService) OffConnectionChange(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, id)
}

// onDriverChange handles transitions reported by the driver itself, which is
// how device-initiated drops (cable pulled, socket gone mid-print) surface.
func (m *ConnectionManagerService) onDriverChange(connected bool) {
	st := models.ConnectionState{IsConnected: connected}
	if connected {
		st.DeviceName = m.driver.DeviceName()
	}

	m.mu.Lock()
	deviceInitiated := !m.busy && m.state != st
	m.mu.Unlock()

	m.applyState(st)

	if deviceInitiated && !connected {
		m.logbook.Append(models.SeverityWarning, "Printer connection lost")
		m.notifier.Notify(Alert{Title: "Printer connection lost", Variant: AlertWarning})
	}
}

// applyState stores the new state and, on a transition, notifies a snapshot
// of the listeners outside the lock. Removing a listener mid-notification
// therefore never skips or duplicates the others.
func (m *ConnectionManagerService) applyState(st models.ConnectionState) {
	m.mu.Lock()
	changed := m.state != st
	m.state = st
	var fns []func(bool)
	if changed {
		fns = make([]func(bool), 0, len(m.listeners))
		for _, fn := range m.listeners {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(st.IsConnected)
	}
}

func (m *ConnectionManagerService) clearBusy() {
	m.mu.Lock()
	m.busy = false
	m.mu.Unlock()
}
