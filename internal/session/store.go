package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Store persists sessions between turns.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory with a sliding TTL.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
}

// NewMemoryStore creates an in-memory store. ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]memoryEntry),
	}
}

// Get returns a copy of the stored session and refreshes its TTL.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.ttl > 0 && m.now().After(entry.expiresAt) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}

	entry.expiresAt = m.now().Add(m.ttl)
	m.sessions[id] = entry

	return clone(&entry.session), nil
}

// Save stores a copy of s.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = memoryEntry{
		session:   *clone(s),
		expiresAt: m.now().Add(m.ttl),
	}
	return nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

func clone(s *Session) *Session {
	out := *s
	out.Transcript = s.Turns()
	return &out
}
