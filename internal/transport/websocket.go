package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"receipt_relay/internal/logger"
	"receipt_relay/internal/models"
)

// Message types spoken on the agent channel.
type MessageType string

const (
	MessageTypeRegister     MessageType = "register"
	MessageTypeRegistered   MessageType = "registered"
	MessageTypePing         MessageType = "ping"
	MessageTypePong         MessageType = "pong"
	MessageTypeOrderCreated MessageType = "order_created"
)

// wsEnvelope is the wire frame exchanged with the push server.
type wsEnvelope struct {
	Type  MessageType     `json:"type"`
	Token string          `json:"token,omitempty"`
	Event json.RawMessage `json:"event,omitempty"`
	Error string          `json:"error,omitempty"`
}

const (
	reconnectDelay = 5 * time.Second
	dispatchWindow = 30 * time.Second
)

// WSConfig configures the WebSocket push channel.
type WSConfig struct {
	URL   string
	Token TokenProvider

	// Lifetime bounds the session and its reconnect loop. It must outlive
	// the call that happens to establish the channel; activation requests
	// come and go while the channel stays up. Defaults to context.Background.
	Lifetime context.Context

	// ReconnectDelay is the fixed backoff between re-dials. Defaults to 5s.
	ReconnectDelay time.Duration
}

// WSTransport keeps a WebSocket agent session open against the push server
// and fans incoming order-created events out to registered handlers.
type WSTransport struct {
	cfg WSConfig
	log *logger.Logger

	mu        sync.Mutex
	connected bool
	started   bool
	subs      handlerSet
}

var _ Transport = (*WSTransport)(nil)

func NewWSTransport(cfg WSConfig, log *logger.Logger) *WSTransport {
	if cfg.Lifetime == nil {
		cfg.Lifetime = context.Background()
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = reconnectDelay
	}
	return &WSTransport{
		cfg:  cfg,
		log:  log,
		subs: newHandlerSet(),
	}
}

func (t *WSTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Connect dials the push server and starts the read loop. ctx bounds the
// initial dial only; the session itself is re-dialed with a fixed backoff
// until the configured lifetime ends. Connect only fails when the first dial
// fails, so activation can report the outcome.
func (t *WSTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return nil
	}
	t.started = true
	t.mu.Unlock()

	conn, err := t.dial(ctx)
	if err != nil {
		t.mu.Lock()
		t.started = false
		t.mu.Unlock()
		return err
	}
	t.setConnected(true)

	go t.run(t.cfg.Lifetime, conn)
	return nil
}

func (t *WSTransport) OnOrderCreated(h OrderHandler) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subs.add(h)
}

func (t *WSTransport) OffOrderCreated(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subs.remove(id)
}

func (t *WSTransport) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if t.cfg.Token != nil {
		token, err := t.cfg.Token(ctx)
		if err != nil {
			return nil, err
		}
		header.Set("X-Api-Key", token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.cfg.URL, header)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteJSON(wsEnvelope{Type: MessageTypeRegister}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// run owns the session: reads frames until the connection drops, then
// re-dials until ctx is done. Clearing started on exit lets a later Connect
// start a fresh session.
func (t *WSTransport) run(ctx context.Context, conn *websocket.Conn) {
	defer func() {
		t.mu.Lock()
		t.started = false
		t.mu.Unlock()
	}()

	for {
		t.readLoop(ctx, conn)
		_ = conn.Close()
		t.setConnected(false)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.cfg.ReconnectDelay):
			}
			var err error
			conn, err = t.dial(ctx)
			if err != nil {
				t.log.Warnw("ws_reconnect_failed", "url", t.cfg.URL, "err", err)
				continue
			}
			t.setConnected(true)
			break
		}
	}
}

func (t *WSTransport) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var msg wsEnvelope
		if err := conn.ReadJSON(&msg); err != nil {
			t.log.Infow("ws_read_closed", "err", err)
			return
		}

		switch msg.Type {
		case MessageTypeRegistered:
			t.log.Infow("ws_registered", "url", t.cfg.URL)

		case MessageTypePing:
			_ = conn.WriteJSON(wsEnvelope{Type: MessageTypePong})

		case MessageTypeOrderCreated:
			var evt models.OrderCreatedEvent
			if err := json.Unmarshal(msg.Event, &evt); err != nil {
				t.log.Errorw("ws_bad_order_event", "err", err)
				continue
			}
			t.dispatch(evt)

		default:
			t.log.Debugw("ws_unknown_message", "type", msg.Type)
		}
	}
}

// dispatch fans one event out to a snapshot of the registered handlers, each
// in its own goroutine. Delivery order is the server's emit order; handler
// completion order is not guaranteed.
func (t *WSTransport) dispatch(evt models.OrderCreatedEvent) {
	t.mu.Lock()
	handlers := t.subs.snapshot()
	t.mu.Unlock()

	for _, h := range handlers {
		go func(h OrderHandler) {
			ctx, cancel := context.WithTimeout(context.Background(), dispatchWindow)
			defer cancel()
			h(ctx, evt)
		}(h)
	}
}

func (t *WSTransport) setConnected(connected bool) {
	t.mu.Lock()
	t.connected = connected
	t.mu.Unlock()
}
