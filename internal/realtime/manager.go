package realtime

import (
	"log"
	"sync"

	"github.com/lifelink/donorlink/internal/metrics"
	"github.com/lifelink/donorlink/internal/protocol"
	"github.com/lifelink/donorlink/internal/session"
)

// Manager owns the process-wide broker connection. Surfaces acquire it
// with reference counting: the first Acquire dials, the last Close hangs
// up, and every surface in between multiplexes the same transport. The
// join announcement happens once per physical connect, not per surface.
type Manager struct {
	cfg  Config
	user session.User

	// dial is swapped by tests to inject a fake transport.
	dial func(Config) (Transport, error)

	mu        sync.Mutex
	transport Transport
	refs      int
	surfaces  map[*Surface]struct{}
	unsubs    []func()
}

// NewManager creates a Manager for the given local user. No connection is
// opened until the first Acquire.
func NewManager(cfg Config, user session.User) *Manager {
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = DefaultConfig().ReconnectWait
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultConfig().PingInterval
	}
	if cfg.TypingDebounce <= 0 {
		cfg.TypingDebounce = DefaultConfig().TypingDebounce
	}
	return &Manager{
		cfg:      cfg,
		user:     user,
		dial:     Dial,
		surfaces: make(map[*Surface]struct{}),
	}
}

// Acquire returns a new chat surface bound to the shared connection,
// dialing the broker if this is the first open surface.
func (m *Manager) Acquire() (*Surface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refs == 0 {
		if err := m.connectLocked(); err != nil {
			return nil, err
		}
	}
	m.refs++

	s := newSurface(m)
	m.surfaces[s] = struct{}{}
	metrics.OpenSurfaces.Inc()
	return s, nil
}

// connectLocked dials the transport, subscribes the fixed subject set,
// and announces the join. Caller holds m.mu.
func (m *Manager) connectLocked() error {
	cfg := m.cfg
	cfg.OnConnect = m.announceJoin
	cfg.OnDisconnect = func() {
		log.Printf("[realtime] transport down, library will retry every %s", m.cfg.ReconnectWait)
	}

	t, err := m.dial(cfg)
	if err != nil {
		return err
	}

	subs := []struct {
		subject string
		handler Handler
	}{
		{SubjectPublic, m.dispatchPublic},
		{SubjectTyping, m.dispatchTyping},
		{SubjectPresence, m.dispatchPresence},
	}
	var unsubs []func()
	for _, s := range subs {
		unsub, err := t.Subscribe(s.subject, s.handler)
		if err != nil {
			for _, u := range unsubs {
				u()
			}
			t.Close()
			return err
		}
		unsubs = append(unsubs, unsub)
	}

	m.transport = t
	m.unsubs = unsubs
	m.announceJoinOn(t)
	return nil
}

// release drops one surface reference; the last one closes the transport.
func (m *Manager) release(s *Surface) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.surfaces[s]; !ok {
		return
	}
	delete(m.surfaces, s)
	metrics.OpenSurfaces.Dec()

	m.refs--
	if m.refs > 0 {
		return
	}
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
	m.transport.Close()
	m.transport = nil
}

// Connected reports whether the shared transport is up.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	t := m.transport
	m.mu.Unlock()
	return t != nil && t.Connected()
}

// announceJoin publishes the local user's join event. It is the
// transport's OnConnect callback, so it re-fires on every reconnect.
func (m *Manager) announceJoin() {
	m.mu.Lock()
	t := m.transport
	m.mu.Unlock()
	if t == nil {
		return
	}
	m.announceJoinOn(t)
}

func (m *Manager) announceJoinOn(t Transport) {
	data, err := protocol.NewEvent(protocol.TypeJoin, protocol.JoinEvent{
		Sender:   m.user.ID,
		Username: m.user.FullName,
	})
	if err != nil {
		log.Printf("[realtime] encode join: %v", err)
		return
	}
	if err := t.Publish(SubjectJoin, data); err != nil {
		log.Printf("[realtime] announce join: %v", err)
	}
}

func (m *Manager) publish(subject string, data []byte) error {
	m.mu.Lock()
	t := m.transport
	m.mu.Unlock()
	if t == nil || !t.Connected() {
		return ErrNotConnected
	}
	return t.Publish(subject, data)
}

// dispatchPublic fans an inbound public message out to every surface.
func (m *Manager) dispatchPublic(data []byte) {
	eventType, event, err := protocol.ParseServerEvent(data)
	if err != nil || eventType != protocol.TypeMessage {
		log.Printf("[realtime] drop public event type=%q: %v", eventType, err)
		return
	}
	msg := event.(protocol.ChatMessage)
	metrics.MessagesTotal.WithLabelValues("received").Inc()

	for _, s := range m.snapshot() {
		s.handleMessage(msg)
	}
}

func (m *Manager) dispatchTyping(data []byte) {
	eventType, event, err := protocol.ParseServerEvent(data)
	if err != nil || eventType != protocol.TypeTyping {
		return
	}
	sig := event.(protocol.TypingSignal)
	for _, s := range m.snapshot() {
		s.handleTyping(sig)
	}
}

func (m *Manager) dispatchPresence(data []byte) {
	eventType, event, err := protocol.ParseServerEvent(data)
	if err != nil || eventType != protocol.TypePresence {
		return
	}
	count := event.(protocol.PresenceCount)
	for _, s := range m.snapshot() {
		s.handlePresence(count)
	}
}

func (m *Manager) snapshot() []*Surface {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Surface, 0, len(m.surfaces))
	for s := range m.surfaces {
		out = append(out, s)
	}
	return out
}
