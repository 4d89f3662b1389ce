package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/lifelink/donorlink/internal/metrics"
)

const wsDialTimeout = 10 * time.Second

// wsFrame is the wire format of the websocket fallback: the broker's
// bridge endpoint broadcasts every subject's traffic and the client fans
// out by subject locally.
type wsFrame struct {
	Subject string          `json:"subject"`
	Body    json.RawMessage `json:"body"`
}

// wsTransport speaks the pub/sub protocol over a single websocket when no
// native broker endpoint is reachable. Unlike the NATS transport it owns
// its reconnect loop: a fixed wait between attempts and ping frames in
// both directions while up.
type wsTransport struct {
	cfg Config

	mu        sync.Mutex // guards conn, connected, handlers
	writeMu   sync.Mutex // serializes outbound frames
	conn      net.Conn
	connected bool
	handlers  map[string]map[int]Handler
	nextID    int

	done      chan struct{}
	closeOnce sync.Once
}

func dialWebsocket(cfg Config) (Transport, error) {
	ctx, cancel := context.WithTimeout(context.Background(), wsDialTimeout)
	defer cancel()
	conn, _, _, err := ws.Dial(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("realtime: ws dial %s: %w", cfg.URL, err)
	}

	t := &wsTransport{
		cfg:       cfg,
		conn:      conn,
		connected: true,
		handlers:  make(map[string]map[int]Handler),
		done:      make(chan struct{}),
	}
	log.Printf("[realtime] connected to %s", cfg.URL)
	metrics.RealtimeConnected.Set(1)

	go t.run(conn)
	return t, nil
}

func (t *wsTransport) Publish(subject string, data []byte) error {
	t.mu.Lock()
	conn, up := t.conn, t.connected
	t.mu.Unlock()
	if !up {
		return ErrNotConnected
	}

	frame, err := json.Marshal(wsFrame{Subject: subject, Body: data})
	if err != nil {
		return fmt.Errorf("realtime: marshal frame: %w", err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := wsutil.WriteClientMessage(conn, ws.OpText, frame); err != nil {
		return fmt.Errorf("realtime: publish %s: %w", subject, err)
	}
	return nil
}

func (t *wsTransport) Subscribe(subject string, handler Handler) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handlers[subject] == nil {
		t.handlers[subject] = make(map[int]Handler)
	}
	id := t.nextID
	t.nextID++
	t.handlers[subject][id] = handler

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.handlers[subject], id)
	}, nil
}

func (t *wsTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *wsTransport) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
		t.mu.Lock()
		if t.conn != nil {
			t.conn.Close()
		}
		t.connected = false
		t.mu.Unlock()
		metrics.RealtimeConnected.Set(0)
	})
}

// run reads frames until the connection drops, then redials at a fixed
// cadence until Close. Subscriptions live in the transport, so handlers
// survive reconnects without re-registering.
func (t *wsTransport) run(conn net.Conn) {
	for {
		stopPing := t.startPinger(conn)
		t.readLoop(conn)
		stopPing()
		conn.Close()

		t.mu.Lock()
		t.conn = nil
		t.connected = false
		t.mu.Unlock()

		select {
		case <-t.done:
			return
		default:
		}

		metrics.RealtimeConnected.Set(0)
		if t.cfg.OnDisconnect != nil {
			t.cfg.OnDisconnect()
		}

		conn = t.redial()
		if conn == nil {
			return // closed while waiting
		}
	}
}

// redial attempts to reconnect forever at the configured wait. Returns
// nil only when the transport is closed.
func (t *wsTransport) redial() net.Conn {
	for {
		select {
		case <-t.done:
			return nil
		case <-time.After(t.cfg.ReconnectWait):
		}

		ctx, cancel := context.WithTimeout(context.Background(), wsDialTimeout)
		conn, _, _, err := ws.Dial(ctx, t.cfg.URL)
		cancel()
		if err != nil {
			log.Printf("[realtime] reconnect failed: %v", err)
			continue
		}

		t.mu.Lock()
		t.conn = conn
		t.connected = true
		t.mu.Unlock()

		log.Printf("[realtime] reconnected to %s", t.cfg.URL)
		metrics.RealtimeReconnectsTotal.Inc()
		metrics.RealtimeConnected.Set(1)
		if t.cfg.OnConnect != nil {
			t.cfg.OnConnect()
		}
		return conn
	}
}

func (t *wsTransport) readLoop(conn net.Conn) {
	for {
		data, err := wsutil.ReadServerText(conn)
		if err != nil {
			select {
			case <-t.done:
			default:
				log.Printf("[realtime] read: %v", err)
			}
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("[realtime] bad frame: %v", err)
			continue
		}

		t.mu.Lock()
		handlers := make([]Handler, 0, len(t.handlers[frame.Subject]))
		for _, h := range t.handlers[frame.Subject] {
			handlers = append(handlers, h)
		}
		t.mu.Unlock()

		for _, h := range handlers {
			h(frame.Body)
		}
	}
}

// startPinger sends websocket ping frames at the keep-alive cadence. The
// returned stop function ends the goroutine when the connection drops.
func (t *wsTransport) startPinger(conn net.Conn) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(t.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.done:
				return
			case <-ticker.C:
				t.writeMu.Lock()
				err := ws.WriteFrame(conn, ws.MaskFrame(ws.NewPingFrame(nil)))
				t.writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}
