// Package realtime maintains the client's connection to the platform's
// chat broker. One transport connection is shared process-wide and
// multiplexed across chat surfaces; each surface keeps its own message
// list, unread counter, and typing state.
package realtime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Broker subjects. The platform's chat service consumes the publish
// subjects and fans results out to the subscribe subjects.
const (
	// Subscribe subjects.
	SubjectPublic   = "chat.public"
	SubjectTyping   = "chat.typing"
	SubjectPresence = "chat.presence"

	// Publish subjects.
	SubjectSendMessage = "chat.send"
	SubjectSetTyping   = "chat.set_typing"
	SubjectJoin        = "chat.join"
)

// ErrNotConnected is returned when an event is published while the
// transport is down. Nothing is queued: the send simply fails.
var ErrNotConnected = errors.New("realtime: not connected")

// Handler receives the raw payload of an inbound event. Handlers run on
// the transport's dispatch goroutine and must not block.
type Handler func(data []byte)

// Transport is a subject-based pub/sub connection to the broker.
type Transport interface {
	// Publish sends data to the given subject.
	Publish(subject string, data []byte) error
	// Subscribe registers a handler for a subject and returns an
	// unsubscribe function.
	Subscribe(subject string, handler Handler) (func(), error)
	// Connected reports whether the underlying connection is up.
	Connected() bool
	// Close releases the connection and cancels all subscriptions.
	Close()
}

// Config holds transport connection settings.
type Config struct {
	URL            string        // nats://host:4222, or ws(s)://host/ws for the fallback
	Name           string        // client name for identification
	ReconnectWait  time.Duration // fixed delay between reconnect attempts
	PingInterval   time.Duration // keep-alive cadence in both directions
	TypingDebounce time.Duration // idle time before typing=false is announced

	// OnConnect fires after every successful (re)connect of the
	// transport; OnDisconnect after every loss. Set by the Manager.
	OnConnect    func()
	OnDisconnect func()
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:            "nats://localhost:4222",
		Name:           "lifelink-client",
		ReconnectWait:  5 * time.Second,
		PingInterval:   4 * time.Second,
		TypingDebounce: 2 * time.Second,
	}
}

// Dial opens a transport chosen by the URL scheme: nats:// speaks to a
// NATS broker, ws:// and wss:// use the websocket fallback.
func Dial(cfg Config) (Transport, error) {
	switch {
	case strings.HasPrefix(cfg.URL, "nats://"), strings.HasPrefix(cfg.URL, "tls://"):
		return dialNATS(cfg)
	case strings.HasPrefix(cfg.URL, "ws://"), strings.HasPrefix(cfg.URL, "wss://"):
		return dialWebsocket(cfg)
	default:
		return nil, fmt.Errorf("realtime: unsupported broker URL %q", cfg.URL)
	}
}
