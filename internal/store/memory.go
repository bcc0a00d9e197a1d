// internal/store/memory.go
//
// In-memory implementation of the Repository interface.
// This is a lightweight persistence layer used for ephemeral game sessions,
// primarily in development/testing, or when durability is not required.
//
// Characteristics:
//   - Stores sessions keyed by owner, then by session ID.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Sessions are cloned on the way in and out so callers never alias stored state.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/wordle/apps/engine/internal/game"
)

// ErrNotFound is returned by Get when the owner has no session with that ID.
var ErrNotFound = errors.New("store: session not found")

// Repository defines the owner-scoped persistence contract for sessions.
// Implementations may be backed by memory (this file), bbolt, SQL, etc.
type Repository interface {
	// Get retrieves one session of owner. Returns ErrNotFound if absent.
	Get(ctx context.Context, owner, id string) (*game.Session, error)

	// Put inserts or replaces a session of owner.
	Put(ctx context.Context, owner string, s *game.Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, owner, id string) error

	// ListAll returns every session of owner keyed by session ID.
	ListAll(ctx context.Context, owner string) (map[string]*game.Session, error)
}

// memory is an in-memory map-based Repository implementation.
type memory struct {
	mu       sync.RWMutex                        // guards sessions map
	sessions map[string]map[string]*game.Session // owner → id → session
}

// NewMemory constructs a new in-memory Repository.
func NewMemory() Repository {
	return &memory{sessions: make(map[string]map[string]*game.Session)}
}

// Get looks up a session by owner and ID.
func (m *memory) Get(ctx context.Context, owner, id string) (*game.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[owner][id]; ok {
		return s.Clone(), nil
	}
	return nil, ErrNotFound
}

// Put adds or updates the session in the owner's map.
func (m *memory) Put(ctx context.Context, owner string, s *game.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(owner, s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byID, ok := m.sessions[owner]
	if !ok {
		byID = make(map[string]*game.Session)
		m.sessions[owner] = byID
	}
	byID[s.ID] = s.Clone()
	return nil
}

// Delete removes the session; empty owner maps are dropped.
func (m *memory) Delete(ctx context.Context, owner, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if byID, ok := m.sessions[owner]; ok {
		delete(byID, id)
		if len(byID) == 0 {
			delete(m.sessions, owner)
		}
	}
	return nil
}

// ListAll returns copies of all of owner's sessions.
func (m *memory) ListAll(ctx context.Context, owner string) (map[string]*game.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*game.Session, len(m.sessions[owner]))
	for id, s := range m.sessions[owner] {
		out[id] = s.Clone()
	}
	return out, nil
}

// validateKey rejects writes that could not be read back.
func validateKey(owner string, s *game.Session) error {
	if owner == "" {
		return errors.New("store: owner is required")
	}
	if s == nil || s.ID == "" {
		return errors.New("store: session id is required")
	}
	return nil
}
