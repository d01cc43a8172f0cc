package store

import (
	"context"
	"sync"

	"github.com/phantom/wallet-sdk-sub001/core"
	"github.com/phantom/wallet-sdk-sub001/ports"
)

// MemoryStore is an in-memory implementation of the session store, for
// tests and single-process embedding.
type MemoryStore struct {
	mu        sync.RWMutex
	session   *core.Session
	clearFlag bool
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ ports.SessionStore = (*MemoryStore)(nil)

// GetSession returns a copy of the persisted session, or nil.
func (s *MemoryStore) GetSession(ctx context.Context) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil, nil
	}
	cp := *s.session
	return &cp, nil
}

// SaveSession persists session in the single slot, replacing any previous
// record.
func (s *MemoryStore) SaveSession(ctx context.Context, session *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *session
	s.session = &cp
	return nil
}

// ClearSession empties the slot.
func (s *MemoryStore) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	return nil
}

// ShouldClearPreviousSession reads the force-fresh-OAuth flag.
func (s *MemoryStore) ShouldClearPreviousSession(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clearFlag, nil
}

// SetShouldClearPreviousSession writes the force-fresh-OAuth flag.
func (s *MemoryStore) SetShouldClearPreviousSession(ctx context.Context, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearFlag = v
	return nil
}
