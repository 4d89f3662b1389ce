// Package protocol defines the realtime event types exchanged with the
// platform's chat broker. Events are serialized as JSON envelopes with a
// type discriminator so transports can route payloads without knowing
// their shape.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Event type constants.
const (
	TypeMessage  = "message"
	TypeTyping   = "typing"
	TypeJoin     = "join"
	TypePresence = "presence"
)

// Delivery status values carried on chat messages. The client sets SENT
// on publish; the broker echo of an own message reads as DELIVERED; READ
// originates server-side only.
const (
	StatusSent      = "SENT"
	StatusDelivered = "DELIVERED"
	StatusRead      = "READ"
)

// ---------------------------------------------------------------------------
// Envelope — used for initial JSON parsing to extract the type discriminator.
// ---------------------------------------------------------------------------

// Envelope holds the event type and the raw JSON payload for deferred
// parsing into a concrete struct.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON captures the full raw bytes and extracts only the "type"
// field so the rest of the payload can be decoded later.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	return nil
}

// ---------------------------------------------------------------------------
// Event structs
// ---------------------------------------------------------------------------

// ChatMessage is one public chat entry. Timestamp is ISO-8601.
type ChatMessage struct {
	ID        string `json:"id,omitempty"`
	Sender    string `json:"sender"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status,omitempty"`
}

// TypingSignal announces whether a user is currently typing. It is
// ephemeral: consumers update a transient set and never store it.
type TypingSignal struct {
	Sender string `json:"sender"`
	Typing bool   `json:"typing"`
}

// JoinEvent announces a user entering the chat.
type JoinEvent struct {
	Sender   string `json:"sender"`
	Username string `json:"username"`
}

// PresenceCount carries the broker's current online-user count.
type PresenceCount struct {
	Online int `json:"online"`
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// ParseServerEvent parses raw broker bytes into a typed event. It returns
// the event type string, the decoded struct, and any parse error. Unknown
// types are an error.
func ParseServerEvent(data []byte) (string, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("protocol: failed to parse event: %w", err)
	}

	var (
		event interface{}
		err   error
	)

	switch env.Type {
	case TypeMessage:
		var m ChatMessage
		err = json.Unmarshal(env.Raw, &m)
		event = m
	case TypeTyping:
		var m TypingSignal
		err = json.Unmarshal(env.Raw, &m)
		event = m
	case TypeJoin:
		var m JoinEvent
		err = json.Unmarshal(env.Raw, &m)
		event = m
	case TypePresence:
		var m PresenceCount
		err = json.Unmarshal(env.Raw, &m)
		event = m
	default:
		return env.Type, nil, fmt.Errorf("protocol: unknown event type: %q", env.Type)
	}

	if err != nil {
		return env.Type, nil, fmt.Errorf("protocol: failed to decode %q payload: %w", env.Type, err)
	}
	return env.Type, event, nil
}

// NewEvent creates a JSON-encoded event with the type field injected into
// the payload under the "type" key.
func NewEvent(eventType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal payload: %w", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("protocol: failed to unmarshal payload into map: %w", err)
	}

	m["type"] = eventType

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal event: %w", err)
	}
	return out, nil
}
