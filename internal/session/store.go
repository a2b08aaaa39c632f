package session

import (
	"sync"

	"github.com/google/uuid"
)

// Store is a keyed session-state store. Implementations must return
// copies from Get so callers can mutate freely, and must treat nil
// delta values as deletions in Apply.
type Store interface {
	// GetOrCreate returns the state for a session, creating an empty
	// record (and generating an id when the given one is blank).
	GetOrCreate(sessionID string) (string, State, error)

	// Get returns a copy of the state for a session, or an empty
	// state if the session is unknown.
	Get(sessionID string) (State, error)

	// Apply merges a delta into the stored state for a session.
	Apply(sessionID string, delta map[string]any) error
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]State
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]State)}
}

func (m *MemoryStore) GetOrCreate(sessionID string) (string, State, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.sessions[sessionID]
	if !ok {
		st = State{}
		m.sessions[sessionID] = st
	}
	return sessionID, st.Clone(), nil
}

func (m *MemoryStore) Get(sessionID string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.sessions[sessionID]; ok {
		return st.Clone(), nil
	}
	return State{}, nil
}

func (m *MemoryStore) Apply(sessionID string, delta map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.sessions[sessionID]
	if !ok {
		st = State{}
		m.sessions[sessionID] = st
	}
	Apply(st, delta)
	return nil
}
