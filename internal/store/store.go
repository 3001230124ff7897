// Package store provides the session persistence port and its
// implementations. The exam engine only sees the SessionStore interface,
// which keeps persistence swappable in tests and lets multiple sessions
// coexist (one slot per user).
package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Load when no blob exists for the user.
var ErrNotFound = errors.New("no session blob stored")

// SessionStore is the persistence slot for serialized exam sessions.
// Implementations must tolerate absence (Load returns ErrNotFound) and
// treat Clear of a missing slot as a no-op.
type SessionStore interface {
	Save(ctx context.Context, userID int, blob []byte) error
	Load(ctx context.Context, userID int) ([]byte, error)
	Clear(ctx context.Context, userID int) error
}

// MemoryStore is an in-process SessionStore used by tests and as a degraded
// fallback when Redis is unavailable.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[int][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[int][]byte)}
}

// Save stores a copy of blob for the user.
func (m *MemoryStore) Save(_ context.Context, userID int, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	m.blobs[userID] = cp
	return nil
}

// Load returns the stored blob or ErrNotFound.
func (m *MemoryStore) Load(_ context.Context, userID int) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

// Clear removes the user's blob. Clearing an empty slot is not an error.
func (m *MemoryStore) Clear(_ context.Context, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, userID)
	return nil
}
