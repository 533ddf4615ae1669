package fatwa

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionNotFound is returned when a session id is unknown to the store.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists sessions keyed by id. Implementations must be
// safe for concurrent Get/Put across goroutines.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	Put(ctx context.Context, session *Session) error
}

// MemoryStore is the in-process store used for tests and deployments
// without a durable backend.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore bootstraps an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Get retrieves a deep copy of the stored session.
func (m *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Put stores a deep copy of the session.
func (m *MemoryStore) Put(_ context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return errors.New("session id is required")
	}
	m.mu.Lock()
	m.sessions[session.ID] = session.Clone()
	m.mu.Unlock()
	return nil
}
