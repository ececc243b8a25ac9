package service

import (
	"context"
	"sync"
	"time"

	"receipt_relay/internal/models"
	"receipt_relay/internal/transport"
)

// Shared in-test stubs for the pipeline collaborators.

// stubDriver is a scriptable peripheral.Driver.
type stubDriver struct {
	mu        sync.Mutex
	connected bool
	name      string

	connectName   string
	connectErr    error
	disconnectErr error
	printErr      error

	connectGate chan struct{} // when set, Connect blocks until closed
	printGate   chan struct{} // when set, PrintReceipt blocks until closed

	connectCalls    int
	disconnectCalls int
	printCalls      []models.ReceiptPayload

	listeners map[int]func(bool)
	nextID    int
}

func (d *stubDriver) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

func (d *stubDriver) DeviceName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

func (d *stubDriver) Connect(ctx context.Context) (string, error) {
	d.mu.Lock()
	d.connectCalls++
	gate := d.connectGate
	d.mu.Unlock()

	if gate != nil {
		<-gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connectErr != nil {
		d.connected = false
		return "", d.connectErr
	}
	d.connected = true
	d.name = d.connectName
	return d.connectName, nil
}

func (d *stubDriver) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disconnectCalls++
	if d.disconnectErr != nil {
		return d.disconnectErr
	}
	d.connected = false
	return nil
}

func (d *stubDriver) PrintReceipt(ctx context.Context, payload models.ReceiptPayload) error {
	d.mu.Lock()
	gate := d.printGate
	d.mu.Unlock()
	if gate != nil {
		<-gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.printCalls = append(d.printCalls, payload)
	return d.printErr
}

func (d *stubDriver) OnConnectionChange(fn func(bool)) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listeners == nil {
		d.listeners = make(map[int]func(bool))
	}
	d.nextID++
	d.listeners[d.nextID] = fn
	return d.nextID
}

func (d *stubDriver) OffConnectionChange(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.listeners, id)
}

// fire simulates a device-initiated transition reported by the driver.
func (d *stubDriver) fire(connected bool) {
	d.mu.Lock()
	d.connected = connected
	fns := make([]func(bool), 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.mu.Unlock()
	for _, fn := range fns {
		fn(connected)
	}
}

// stubTransport is a scriptable transport.Transport that dispatches events
// synchronously so tests can assert without sleeping.
type stubTransport struct {
	mu         sync.Mutex
	connected  bool
	connectErr error

	connectGate chan struct{} // when set, Connect blocks until closed

	connectCalls int
	handlers     map[int]transport.OrderHandler
	nextID       int
}

func (t *stubTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *stubTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	t.connectCalls++
	gate := t.connectGate
	t.mu.Unlock()

	if gate != nil {
		<-gate
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connectErr != nil {
		return t.connectErr
	}
	t.connected = true
	return nil
}

func (t *stubTransport) OnOrderCreated(h transport.OrderHandler) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.handlers == nil {
		t.handlers = make(map[int]transport.OrderHandler)
	}
	t.nextID++
	t.handlers[t.nextID] = h
	return t.nextID
}

func (t *stubTransport) OffOrderCreated(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, id)
}

func (t *stubTransport) handlerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handlers)
}

// emit delivers one event to every registered handler, in registration order
// being irrelevant for these tests.
func (t *stubTransport) emit(evt models.OrderCreatedEvent) {
	t.mu.Lock()
	hs := make([]transport.OrderHandler, 0, len(t.handlers))
	for _, h := range t.handlers {
		hs = append(hs, h)
	}
	t.mu.Unlock()
	for _, h := range hs {
		h(context.Background(), evt)
	}
}

// fixedConn is a ConnectionManager returning a constant state snapshot.
type fixedConn struct {
	st models.ConnectionState
}

func (c *fixedConn) State() models.ConnectionState { return c.st }
func (c *fixedConn) Connect(ctx context.Context) (models.ConnectionState, error) {
	return c.st, nil
}
func (c *fixedConn) Disconnect(ctx context.Context) error     { return nil }
func (c *fixedConn) OnConnectionChange(fn func(bool)) int     { return 1 }
func (c *fixedConn) OffConnectionChange(id int)               {}

// stubFetcher is a scriptable OrderFetcher.
type stubFetcher struct {
	mu     sync.Mutex
	detail models.OrderDetail
	err    error
	fn     func(ctx context.Context, id int) (models.OrderDetail, error)
	calls  []int
}

func (f *stubFetcher) OrderByID(ctx context.Context, id int) (models.OrderDetail, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, id)
	}
	return f.detail, f.err
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// captureNotifier records every alert.
type captureNotifier struct {
	mu     sync.Mutex
	alerts []Alert
}

func (n *captureNotifier) Notify(a Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
}

func (n *captureNotifier) byVariant(v AlertVariant) []Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Alert
	for _, a := range n.alerts {
		if a.Variant == v {
			out = append(out, a)
		}
	}
	return out
}

// stubLogRepo is an in-memory repository.LogRepo.
type stubLogRepo struct {
	mu        sync.Mutex
	appended  []models.LogEntry
	appendErr error

	listResp     []models.LogEntry
	listErr      error
	lastFrom     time.Time
	lastTo       time.Time
	lastSeverity string
}

func (r *stubLogRepo) Append(ctx context.Context, e models.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.appended = append(r.appended, e)
	return nil
}

func (r *stubLogRepo) List(ctx context.Context, from, to time.Time, severity string) ([]models.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFrom = from
	r.lastTo = to
	r.lastSeverity = severity
	return r.listResp, r.listErr
}

func (r *stubLogRepo) appendedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.appended)
}
