package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	stan "github.com/nats-io/stan.go"

	"receipt_relay/internal/logger"
	"receipt_relay/internal/models"
)

// STANConfig configures the NATS Streaming push channel.
type STANConfig struct {
	ClusterID string
	ClientID  string
	URL       string
	Subject   string
	Durable   string

	// Lifetime bounds the streaming connection and subscription. It must
	// outlive the call that happens to establish the channel; activation
	// requests come and go while the channel stays up. Defaults to
	// context.Background.
	Lifetime context.Context
}

const stanAckWait = 10 * time.Second

// STANTransport delivers order-created events from a NATS Streaming subject
// through a durable queue subscription. Events are acked only after dispatch,
// so an agent restart replays what it missed.
type STANTransport struct {
	cfg STANConfig
	log *logger.Logger

	mu   sync.Mutex
	sc   stan.Conn
	sub  stan.Subscription
	subs handlerSet
}

var _ Transport = (*STANTransport)(nil)

func NewSTANTransport(cfg STANConfig, log *logger.Logger) *STANTransport {
	if cfg.Lifetime == nil {
		cfg.Lifetime = context.Background()
	}
	return &STANTransport{
		cfg:  cfg,
		log:  log,
		subs: newHandlerSet(),
	}
}

func (t *STANTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sc != nil
}

// Connect establishes the streaming connection and the durable subscription.
// No-op when already connected.
func (t *STANTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sc != nil {
		return nil
	}

	clientID := t.cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("receipt-relay-%d", time.Now().UnixNano())
	}

	sc, err := stan.Connect(t.cfg.ClusterID, clientID, stan.NatsURL(t.cfg.URL))
	if err != nil {
		return fmt.Errorf("connect nats streaming at %s: %w", t.cfg.URL, err)
	}

	sub, err := sc.Subscribe(t.cfg.Subject, t.handleMsg,
		stan.DurableName(t.cfg.Durable),
		stan.SetManualAckMode(),
		stan.AckWait(stanAckWait),
	)
	if err != nil {
		_ = sc.Close()
		return fmt.Errorf("subscribe %q: %w", t.cfg.Subject, err)
	}

	t.sc = sc
	t.sub = sub

	// Tear down with the process, not with the call that connected us.
	go func() {
		<-t.cfg.Lifetime.Done()
		t.close()
	}()
	return nil
}

func (t *STANTransport) OnOrderCreated(h OrderHandler) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subs.add(h)
}

func (t *STANTransport) OffOrderCreated(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subs.remove(id)
}

func (t *STANTransport) handleMsg(m *stan.Msg) {
	var evt models.OrderCreatedEvent
	if err := json.Unmarshal(m.Data, &evt); err != nil {
		// Poison message: ack so it does not redeliver forever.
		t.log.Errorw("stan_bad_order_event", "err", err)
		_ = m.Ack()
		return
	}

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

	if err := m.Ack(); err != nil {
		t.log.Errorw("stan_ack_failed", "err", err)
	}
}

func (t *STANTransport) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sub != nil {
		_ = t.sub.Close()
		t.sub = nil
	}
	if t.sc != nil {
		_ = t.sc.Close()
		t.sc = nil
	}
}
