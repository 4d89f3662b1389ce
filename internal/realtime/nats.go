package realtime

import (
	"fmt"
	"log"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/lifelink/donorlink/internal/metrics"
)

// natsTransport wraps a NATS connection. Reconnection and keep-alive are
// the client library's job: it retries forever at the configured wait and
// exchanges pings on its own cadence.
type natsTransport struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs map[*nats.Subscription]struct{}
}

func dialNATS(cfg Config) (Transport, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(-1),
		nats.PingInterval(cfg.PingInterval),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[realtime] disconnected: %v", err)
			} else {
				log.Printf("[realtime] disconnected")
			}
			metrics.RealtimeConnected.Set(0)
			if cfg.OnDisconnect != nil {
				cfg.OnDisconnect()
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[realtime] reconnected to %s", nc.ConnectedUrl())
			metrics.RealtimeReconnectsTotal.Inc()
			metrics.RealtimeConnected.Set(1)
			if cfg.OnConnect != nil {
				cfg.OnConnect()
			}
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("[realtime] connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("realtime: nats connect: %w", err)
	}

	log.Printf("[realtime] connected to %s", nc.ConnectedUrl())
	metrics.RealtimeConnected.Set(1)

	return &natsTransport{
		conn: nc,
		subs: make(map[*nats.Subscription]struct{}),
	}, nil
}

func (t *natsTransport) Publish(subject string, data []byte) error {
	if !t.Connected() {
		return ErrNotConnected
	}
	if err := t.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("realtime: publish %s: %w", subject, err)
	}
	return nil
}

func (t *natsTransport) Subscribe(subject string, handler Handler) (func(), error) {
	sub, err := t.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("realtime: subscribe %s: %w", subject, err)
	}

	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, sub)
		t.mu.Unlock()
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("[realtime] unsubscribe %s: %v", subject, err)
		}
	}, nil
}

func (t *natsTransport) Connected() bool {
	return t.conn.Status() == nats.CONNECTED
}

// Close drains all subscriptions and the connection.
func (t *natsTransport) Close() {
	t.mu.Lock()
	for sub := range t.subs {
		if err := sub.Drain(); err != nil {
			log.Printf("[realtime] drain subscription: %v", err)
		}
	}
	t.subs = make(map[*nats.Subscription]struct{})
	t.mu.Unlock()

	if err := t.conn.Drain(); err != nil {
		log.Printf("[realtime] connection drain: %v", err)
	}
	metrics.RealtimeConnected.Set(0)
}
