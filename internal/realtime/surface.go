package realtime

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lifelink/donorlink/internal/metrics"
	"github.com/lifelink/donorlink/internal/protocol"
)

// Surface is one mounted chat view. It shares the manager's transport and
// keeps only view-local state: the ordered message list, the unread
// counter, focus, and typing bookkeeping. Messages live exactly as long
// as the surface; nothing is persisted.
type Surface struct {
	mgr *Manager

	mu          sync.Mutex
	messages    []protocol.ChatMessage
	unread      int
	focused     bool
	online      int
	typingUsers map[string]struct{}

	typingActive bool
	typingTimer  *time.Timer
	closed       bool
}

func newSurface(m *Manager) *Surface {
	return &Surface{
		mgr:         m,
		typingUsers: make(map[string]struct{}),
	}
}

// Close releases the surface's hold on the shared connection and cancels
// any pending typing announcement. Nothing outbound survives teardown.
func (s *Surface) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	wasTyping := s.typingActive
	s.typingActive = false
	s.mu.Unlock()

	if wasTyping {
		s.publishTyping(false)
	}
	s.mgr.release(s)
}

// Send publishes a chat message. It fails with ErrNotConnected while the
// transport is down or after Close, and never appends locally: the entry
// shows up when the broker echoes it back, tagged DELIVERED.
func (s *Surface) Send(content string) error {
	if content == "" {
		return nil
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrNotConnected
	}
	s.mu.Unlock()
	msg := protocol.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    s.mgr.user.ID,
		Username:  s.mgr.user.FullName,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    protocol.StatusSent,
	}
	data, err := protocol.NewEvent(protocol.TypeMessage, msg)
	if err != nil {
		return err
	}
	if err := s.mgr.publish(SubjectSendMessage, data); err != nil {
		return err
	}
	metrics.MessagesTotal.WithLabelValues("sent").Inc()

	// Sending ends the typing state immediately.
	s.mu.Lock()
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	wasTyping := s.typingActive
	s.typingActive = false
	s.mu.Unlock()
	if wasTyping {
		s.publishTyping(false)
	}
	return nil
}

// InputActivity records a keystroke in the surface's input. The first
// keystroke announces typing=true; the debounce timer re-arms on each
// call and announces typing=false after the idle window.
func (s *Surface) InputActivity() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	rising := !s.typingActive
	s.typingActive = true
	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingTimer = time.AfterFunc(s.mgr.cfg.TypingDebounce, s.typingExpired)
	s.mu.Unlock()

	if rising {
		s.publishTyping(true)
	}
}

func (s *Surface) typingExpired() {
	s.mu.Lock()
	if !s.typingActive || s.closed {
		s.mu.Unlock()
		return
	}
	s.typingActive = false
	s.typingTimer = nil
	s.mu.Unlock()

	s.publishTyping(false)
}

func (s *Surface) publishTyping(typing bool) {
	data, err := protocol.NewEvent(protocol.TypeTyping, protocol.TypingSignal{
		Sender: s.mgr.user.ID,
		Typing: typing,
	})
	if err != nil {
		return
	}
	// Best effort: a typing signal lost to a dead transport is just lost.
	_ = s.mgr.publish(SubjectSetTyping, data)
}

// SetFocused records whether the chat surface currently has input focus.
// Gaining focus clears the unread counter.
func (s *Surface) SetFocused(focused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focused = focused
	if focused {
		s.unread = 0
	}
}

// Messages returns the ordered message list, oldest first.
func (s *Surface) Messages() []protocol.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Unread returns the count of messages received while unfocused.
func (s *Surface) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Online returns the broker's last reported online-user count.
func (s *Surface) Online() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// TypingUsers returns the ids of other users currently typing, sorted
// for stable rendering.
func (s *Surface) TypingUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.typingUsers))
	for id := range s.typingUsers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Connected reports whether the shared transport is up.
func (s *Surface) Connected() bool {
	return s.mgr.Connected()
}

// handleMessage appends an inbound public message in delivery order. Own
// echoes are tagged DELIVERED; foreign messages keep the broker's status
// and bump the unread counter while the surface is unfocused.
func (s *Surface) handleMessage(msg protocol.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if msg.Sender == s.mgr.user.ID {
		msg.Status = protocol.StatusDelivered
	}
	s.messages = append(s.messages, msg)
	if !s.focused {
		s.unread++
	}
}

// handleTyping maintains the set of currently-typing users. The local
// user's own signals are ignored.
func (s *Surface) handleTyping(sig protocol.TypingSignal) {
	if sig.Sender == s.mgr.user.ID {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sig.Typing {
		s.typingUsers[sig.Sender] = struct{}{}
	} else {
		delete(s.typingUsers, sig.Sender)
	}
}

func (s *Surface) handlePresence(count protocol.PresenceCount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = count.Online
}
