package peripheral

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"receipt_relay/internal/logger"
	"receipt_relay/internal/models"
)

// Config describes a raw-TCP (JetDirect style) thermal printer.
type Config struct {
	Name         string
	Host         string
	Port         int
	WriteTimeout time.Duration
}

const (
	defaultPrinterPort = 9100
	defaultIOTimeout   = 5 * time.Second

	// 32 columns at standard ESC/POS font on 58mm paper.
	slipWidth = 32
)

// NetworkPrinter drives an ESC/POS thermal printer over raw TCP. Connect
// probes the socket; each print job writes over a fresh dial. A failed dial
// or write flips the driver to disconnected and notifies observers, which is
// how device-initiated drops surface to the rest of the pipeline.
type NetworkPrinter struct {
	cfg Config
	log *logger.Logger

	mu        sync.Mutex
	connected bool
	listeners map[int]func(bool)
	nextSubID int
}

var _ Driver = (*NetworkPrinter)(nil)

func NewNetworkPrinter(cfg Config, log *logger.Logger) *NetworkPrinter {
	if cfg.Port <= 0 {
		cfg.Port = defaultPrinterPort
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultIOTimeout
	}
	return &NetworkPrinter{
		cfg:       cfg,
		log:       log,
		listeners: make(map[int]func(bool)),
	}
}

func (p *NetworkPrinter) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *NetworkPrinter) DeviceName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return ""
	}
	return p.cfg.Name
}

// Connect probes the printer socket. The link state only changes once the
// probe result is in.
func (p *NetworkPrinter) Connect(ctx context.Context) (string, error) {
	conn, err := p.dial(ctx)
	if err != nil {
		p.setConnected(false)
		return "", fmt.Errorf("connect printer %q at %s: %w", p.cfg.Name, p.addr(), err)
	}
	_ = conn.Close()

	p.setConnected(true)
	return p.cfg.Name, nil
}

// Disconnect releases the link. Safe to call when already disconnected.
func (p *NetworkPrinter) Disconnect(ctx context.Context) error {
	p.setConnected(false)
	return nil
}

// PrintReceipt renders the payload to ESC/POS bytes and sends them in one
// job. Requires a prior successful Connect.
func (p *NetworkPrinter) PrintReceipt(ctx context.Context, payload models.ReceiptPayload) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}
	if len(payload.Lines) == 0 {
		return ErrEmptyReceipt
	}

	job := renderESCPOS(payload)

	conn, err := p.dial(ctx)
	if err != nil {
		p.setConnected(false)
		return fmt.Errorf("printer %q unreachable: %w", p.cfg.Name, err)
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetDeadline(time.Now().Add(p.cfg.WriteTimeout))
	if _, err := conn.Write(job); err != nil {
		p.setConnected(false)
		return fmt.Errorf("write to printer %q: %w", p.cfg.Name, err)
	}

	if p.log != nil {
		p.log.Infow("print_job_sent", "printer", p.cfg.Name, "bytes", len(job))
	}
	return nil
}

func (p *NetworkPrinter) OnConnectionChange(fn func(connected bool)) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSubID++
	p.listeners[p.nextSubID] = fn
	return p.nextSubID
}

func (p *NetworkPrinter) OffConnectionChange(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.listeners, id)
}

func (p *NetworkPrinter) addr() string {
	return fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
}

func (p *NetworkPrinter) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: p.cfg.WriteTimeout}
	return d.DialContext(ctx, "tcp", p.addr())
}

// setConnected updates the link state and fires listeners on transitions.
// Listeners are invoked outside the lock over a snapshot.
func (p *NetworkPrinter) setConnected(connected bool) {
	p.mu.Lock()
	changed := p.connected != connected
	p.connected = connected
	var fns []func(bool)
	if changed {
		fns = make([]func(bool), 0, len(p.listeners))
		for _, fn := range p.listeners {
			fns = append(fns, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(connected)
	}
}

// ---- ESC/POS rendering ----

// Command bytes for common ESC/POS sequences.
var (
	escInit      = []byte{0x1B, 0x40}             // ESC @ - reset
	escAlignMid  = []byte{0x1B, 0x61, 0x01}       // ESC a 1 - center
	escAlignLeft = []byte{0x1B, 0x61, 0x00}       // ESC a 0 - left
	escFeed3     = []byte{0x1B, 0x64, 0x03}       // ESC d 3 - feed 3 lines
	escCut       = []byte{0x1D, 0x56, 0x41, 0x00} // GS V A 0 - partial cut
)

// renderESCPOS lays the receipt out as plain text lines. No typesetting:
// fixed 32-column slip, quantity-prefixed items, right-aligned prices.
func renderESCPOS(payload models.ReceiptPayload) []byte {
	var buf bytes.Buffer

	buf.Write(escInit)
	buf.Write(escAlignMid)
	writeLine(&buf, payload.Header.BranchName)
	writeLine(&buf, "Order #"+payload.Header.OrderNumber)
	writeLine(&buf, payload.Header.PrintedAt)
	buf.Write(escAlignLeft)
	writeLine(&buf, strings.Repeat("-", slipWidth))

	for _, line := range payload.Lines {
		left := fmt.Sprintf("%dx %s", line.Quantity, line.Name)
		writeLine(&buf, padPrice(left, line.Price))
	}

	writeLine(&buf, strings.Repeat("-", slipWidth))
	writeLine(&buf, padPrice("Subtotal", payload.Footer.Subtotal))
	writeLine(&buf, padPrice("Tax", payload.Footer.Tax))
	writeLine(&buf, padPrice("TOTAL", payload.Footer.Total))

	buf.Write(escFeed3)
	buf.Write(escCut)
	return buf.Bytes()
}

func writeLine(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte('\n')
}

// padPrice right-aligns the amount on a slip column, truncating the label
// when the two would collide.
func padPrice(label string, amount float64) string {
	price := fmt.Sprintf("%.2f", amount)
	room := slipWidth - len(price) - 1
	if room < 1 {
		room = 1
	}
	if len(label) > room {
		label = label[:room]
	}
	pad := slipWidth - len(label) - len(price)
	if pad < 1 {
		pad = 1
	}
	return label + strings.Repeat(" ", pad) + price
}
