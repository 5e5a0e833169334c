package snapshot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// Repository loads a complete snapshot from persistent storage.
type Repository interface {
	LoadSnapshot(ctx context.Context, hotelID string) (*domain.Snapshot, error)
}

// Lister enumerates the hotels present in persistent storage.
type Lister interface {
	ListHotelIDs(ctx context.Context) ([]string, error)
}

// DBStore serves snapshots from memory and falls through to the
// repository on a miss. Memoized entries expire after refreshInterval
// so a snapshot published by another process (the importer) becomes
// visible here without a restart; refreshInterval <= 0 disables
// expiry. A repository failure or timeout on a miss surfaces as
// DataUnavailable so the caller can retry; a failed refresh of an
// already-memoized hotel serves the previous snapshot instead.
type DBStore struct {
	mem             *MemoryStore
	repo            Repository
	refreshInterval time.Duration

	mu       sync.Mutex
	loadedAt map[string]time.Time
}

func NewDBStore(repo Repository, refreshInterval time.Duration) *DBStore {
	return &DBStore{
		mem:             NewMemoryStore(),
		repo:            repo,
		refreshInterval: refreshInterval,
		loadedAt:        make(map[string]time.Time),
	}
}

func (s *DBStore) Load(ctx context.Context, hotelID string) (*domain.Snapshot, error) {
	snap, err := s.mem.Load(ctx, hotelID)
	if err == nil {
		if !s.expired(hotelID) {
			return snap, nil
		}
		return s.refresh(ctx, hotelID, snap)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	snap, err = s.repo.LoadSnapshot(ctx, hotelID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, &domain.DataUnavailableError{HotelID: hotelID, Err: err}
	}

	s.memoize(ctx, snap)
	return snap, nil
}

// refresh revalidates an expired entry against the repository. The
// repository disappearing a hotel drops it here too; transient failures
// keep serving the previous snapshot.
func (s *DBStore) refresh(ctx context.Context, hotelID string, stale *domain.Snapshot) (*domain.Snapshot, error) {
	fresh, err := s.repo.LoadSnapshot(ctx, hotelID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.mem.Drop(hotelID)
			s.dropLoadedAt(hotelID)
			return nil, err
		}
		log.Warn().Err(err).Str("hotel_id", hotelID).Msg("snapshot: refresh failed, serving previous")
		s.touch(hotelID)
		return stale, nil
	}

	if fresh.Version != stale.Version {
		log.Info().
			Str("hotel_id", hotelID).
			Str("previous_version", stale.Version).
			Str("version", fresh.Version).
			Msg("snapshot: refreshed")
	}
	s.memoize(ctx, fresh)
	return fresh, nil
}

func (s *DBStore) Replace(ctx context.Context, snap *domain.Snapshot) error {
	if err := s.mem.Replace(ctx, snap); err != nil {
		return err
	}
	s.touch(snap.HotelID)
	return nil
}

// Warm loads every persisted hotel into memory, typically at startup.
// Individual hotels failing to load are skipped; the count of loaded
// snapshots is returned.
func (s *DBStore) Warm(ctx context.Context, lister Lister) (int, error) {
	hotelIDs, err := lister.ListHotelIDs(ctx)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, hotelID := range hotelIDs {
		snap, err := s.repo.LoadSnapshot(ctx, hotelID)
		if err != nil {
			log.Warn().Err(err).Str("hotel_id", hotelID).Msg("snapshot: preload failed")
			continue
		}
		s.memoize(ctx, snap)
		loaded++
	}
	return loaded, nil
}

func (s *DBStore) memoize(ctx context.Context, snap *domain.Snapshot) {
	if err := s.mem.Replace(ctx, snap); err != nil {
		log.Warn().Err(err).Str("hotel_id", snap.HotelID).Msg("snapshot: memoize failed")
		return
	}
	s.touch(snap.HotelID)
}

func (s *DBStore) expired(hotelID string) bool {
	if s.refreshInterval <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.loadedAt[hotelID]
	return !ok || time.Since(at) >= s.refreshInterval
}

func (s *DBStore) touch(hotelID string) {
	s.mu.Lock()
	s.loadedAt[hotelID] = time.Now()
	s.mu.Unlock()
}

func (s *DBStore) dropLoadedAt(hotelID string) {
	s.mu.Lock()
	delete(s.loadedAt, hotelID)
	s.mu.Unlock()
}

var _ Store = (*DBStore)(nil)
