package session

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store. It backs one-shot invocations that must
// not touch the on-disk session (e.g. scripted runs with a token injected
// through the environment) and test substitution.
type MemStore struct {
	mu   sync.Mutex
	sess *Session
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Save overwrites the stored session.
func (s *MemStore) Save(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := sess
	s.sess = &copy
	return nil
}

// Read returns the stored session, or nil when no token is held.
func (s *MemStore) Read(_ context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil || s.sess.Token == "" {
		return nil, nil
	}
	copy := *s.sess
	return &copy, nil
}

// Clear drops the stored session.
func (s *MemStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil
	return nil
}
