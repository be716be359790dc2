// Package db persists saved sounds. Sounds are addressed by their position in
// insertion order, matching the order ListSaved returns.
package db

import (
	"context"
	"errors"
	"sync"

	"github.com/tasmanvs/MusicMaker/types"
)

var (
	ErrNotFound = errors.New("db: sound not found")
	// ErrEmptyName rejects saves without a name; an empty prompt cancels a save.
	ErrEmptyName = errors.New("db: sound name is empty")
)

// Store is the saved sound collection.
type Store interface {
	ListSaved(ctx context.Context) ([]types.SavedSound, error)
	LoadSaved(ctx context.Context, idx int) (types.SavedSound, error)
	SaveSound(ctx context.Context, name, data string) error
	Close() error
}

// MemoryStore keeps sounds in process. It is used when no database path is
// configured and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	sounds []types.SavedSound
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) ListSaved(ctx context.Context) ([]types.SavedSound, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.SavedSound, len(m.sounds))
	copy(out, m.sounds)
	return out, nil
}

func (m *MemoryStore) LoadSaved(ctx context.Context, idx int) (types.SavedSound, error) {
	if err := ctx.Err(); err != nil {
		return types.SavedSound{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if idx < 0 || idx >= len(m.sounds) {
		return types.SavedSound{}, ErrNotFound
	}
	return m.sounds[idx], nil
}

func (m *MemoryStore) SaveSound(ctx context.Context, name, data string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return ErrEmptyName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sounds = append(m.sounds, types.SavedSound{Name: name, Data: data})
	return nil
}

func (m *MemoryStore) Close() error { return nil }
