package session

import (
	"context"
	"sync"
	"time"
)

// sweepEvery bounds how often Save scans for expired sessions.
const sweepEvery = time.Minute

// MemoryStore is a process-local Store. Sessions are lost on restart.
// Expired sessions are dropped by Get and by a periodic sweep in Save.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now := m.now(); now.Sub(m.lastSweep) >= sweepEvery {
		m.sweep(now)
	}
	m.sessions[s.ID] = *s
	return nil
}

// sweep deletes every expired session. Callers hold m.mu.
func (m *MemoryStore) sweep(now time.Time) {
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
		}
	}
	m.lastSweep = now
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if s.Expired(m.now()) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) Close() error {
	return nil
}
