// Package snapshot holds the in-memory snapshot store. Snapshots are
// replaced wholesale and atomically; readers always observe either the
// previous or the next complete snapshot, never a mix.
package snapshot

import (
	"context"
	"sync"

	"github.com/hotelrm/backend-go/internal/domain"
)

// Store hands out immutable snapshots for simulation requests.
type Store interface {
	// Load returns the current snapshot for a hotel. It honors the
	// caller's context deadline and returns domain.ErrNotFound when the
	// hotel has no snapshot.
	Load(ctx context.Context, hotelID string) (*domain.Snapshot, error)
	// Replace installs a new snapshot for its hotel, replacing any
	// previous one atomically.
	Replace(ctx context.Context, snap *domain.Snapshot) error
}

// MemoryStore keeps one snapshot per hotel behind a RWMutex. The values
// themselves are never mutated after Replace, so concurrent readers need
// no further coordination.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]*domain.Snapshot)}
}

func (s *MemoryStore) Load(ctx context.Context, hotelID string) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.DataUnavailableError{HotelID: hotelID, Err: err}
	}

	s.mu.RLock()
	snap, ok := s.snapshots[hotelID]
	s.mu.RUnlock()

	if !ok {
		return nil, &domain.NotFoundError{Resource: "hotel", Key: hotelID}
	}
	return snap, nil
}

func (s *MemoryStore) Replace(ctx context.Context, snap *domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.snapshots[snap.HotelID] = snap
	s.mu.Unlock()
	return nil
}

// Drop removes a hotel's snapshot, if any.
func (s *MemoryStore) Drop(hotelID string) {
	s.mu.Lock()
	delete(s.snapshots, hotelID)
	s.mu.Unlock()
}

var _ Store = (*MemoryStore)(nil)
