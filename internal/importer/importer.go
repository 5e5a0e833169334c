// Package importer turns raw hotel documents into published snapshots:
// build, validate, archive, persist, swap into memory, invalidate cache.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hotelrm/backend-go/internal/cache"
	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/hotelrm/backend-go/internal/snapshot"
	"github.com/hotelrm/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	dataSuffix   = "_data.json"
	configSuffix = "_config.json"
)

// ErrArchiveDisabled reports that no object storage is configured, so
// archive listing and restore are unavailable.
var ErrArchiveDisabled = errors.New("snapshot archive is not configured")

// Repository persists snapshots wholesale.
type Repository interface {
	ReplaceSnapshot(ctx context.Context, snap *domain.Snapshot) error
}

// Importer publishes new hotel snapshots. Archiving raw documents is
// best effort behind a nil check; persistence and the in-memory swap
// are not.
type Importer struct {
	store   snapshot.Store
	repo    Repository
	archive storage.ObjectStorage
	cache   cache.SimulationCache
}

func NewImporter(store snapshot.Store, repo Repository, archive storage.ObjectStorage, cacheImpl cache.SimulationCache) *Importer {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopSimulationCache()
	}
	return &Importer{store: store, repo: repo, archive: archive, cache: cacheImpl}
}

// ImportDocuments builds a snapshot from one hotel's document pair and
// publishes it. Earlier simulation results for the hotel become stale
// the moment the new snapshot lands, so the cache is invalidated last.
func (i *Importer) ImportDocuments(ctx context.Context, hotelID string, dataJSON, configJSON []byte) (*domain.Snapshot, error) {
	snap, err := BuildSnapshot(hotelID, dataJSON, configJSON)
	if err != nil {
		return nil, err
	}

	if i.archive != nil {
		g, gctx := errgroup.WithContext(ctx)
		prefix := fmt.Sprintf("%s/%s", hotelID, snap.Version)
		g.Go(func() error {
			return i.archive.UploadObject(gctx, prefix+dataSuffix, dataJSON)
		})
		g.Go(func() error {
			return i.archive.UploadObject(gctx, prefix+configSuffix, configJSON)
		})
		if err := g.Wait(); err != nil {
			log.Warn().Err(err).Str("hotel_id", hotelID).Msg("importer: archive upload failed")
		}
	}

	if i.repo != nil {
		if err := i.repo.ReplaceSnapshot(ctx, snap); err != nil {
			return nil, fmt.Errorf("persist snapshot for %s: %w", hotelID, err)
		}
	}

	if err := i.store.Replace(ctx, snap); err != nil {
		return nil, fmt.Errorf("publish snapshot for %s: %w", hotelID, err)
	}

	if err := i.cache.InvalidateHotel(ctx, hotelID); err != nil {
		log.Warn().Err(err).Str("hotel_id", hotelID).Msg("importer: cache invalidation failed")
	}

	log.Info().
		Str("hotel_id", hotelID).
		Str("version", snap.Version).
		Int("room_types", len(snap.Rooms)).
		Int("partners", len(snap.Partners)).
		Str("processed_from", snap.ProcessedFrom).
		Str("processed_to", snap.ProcessedTo).
		Msg("importer: snapshot published")

	return snap, nil
}

// ListArchivedVersions returns the snapshot versions for which a hotel
// has a complete archived document pair, sorted lexicographically.
func (i *Importer) ListArchivedVersions(ctx context.Context, hotelID string) ([]string, error) {
	if i.archive == nil {
		return nil, ErrArchiveDisabled
	}

	objects, err := i.archive.ListObjects(ctx, hotelID+"/")
	if err != nil {
		return nil, fmt.Errorf("list archive for %s: %w", hotelID, err)
	}

	pairs := make(map[string]struct{ data, config bool })
	for _, object := range objects {
		key := strings.TrimPrefix(object.Key, hotelID+"/")
		switch {
		case strings.HasSuffix(key, dataSuffix):
			p := pairs[strings.TrimSuffix(key, dataSuffix)]
			p.data = true
			pairs[strings.TrimSuffix(key, dataSuffix)] = p
		case strings.HasSuffix(key, configSuffix):
			p := pairs[strings.TrimSuffix(key, configSuffix)]
			p.config = true
			pairs[strings.TrimSuffix(key, configSuffix)] = p
		}
	}

	versions := make([]string, 0, len(pairs))
	for version, have := range pairs {
		if have.data && have.config {
			versions = append(versions, version)
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// RestoreFromArchive re-imports the archived document pair of one
// version. The documents go through the full publish pipeline again, so
// the restored snapshot carries a fresh version of its own.
func (i *Importer) RestoreFromArchive(ctx context.Context, hotelID, version string) (*domain.Snapshot, error) {
	versions, err := i.ListArchivedVersions(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, v := range versions {
		if v == version {
			found = true
			break
		}
	}
	if !found {
		return nil, &domain.NotFoundError{Resource: "archived snapshot", Key: hotelID + "/" + version}
	}

	prefix := fmt.Sprintf("%s/%s", hotelID, version)
	var dataJSON, configJSON []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dataJSON, err = i.archive.DownloadObject(gctx, prefix+dataSuffix)
		return err
	})
	g.Go(func() error {
		var err error
		configJSON, err = i.archive.DownloadObject(gctx, prefix+configSuffix)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("download archived documents for %s: %w", hotelID, err)
	}

	return i.ImportDocuments(ctx, hotelID, dataJSON, configJSON)
}

// ImportDir imports every complete document pair found in a local
// directory. Hotels missing either half of the pair are skipped.
func (i *Importer) ImportDir(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir %s: %w", dir, err)
	}

	hotels := make(map[string]struct{ data, config bool })
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, dataSuffix):
			h := hotels[strings.TrimSuffix(name, dataSuffix)]
			h.data = true
			hotels[strings.TrimSuffix(name, dataSuffix)] = h
		case strings.HasSuffix(name, configSuffix):
			h := hotels[strings.TrimSuffix(name, configSuffix)]
			h.config = true
			hotels[strings.TrimSuffix(name, configSuffix)] = h
		}
	}

	ids := make([]string, 0, len(hotels))
	for hotelID, have := range hotels {
		if have.data && have.config {
			ids = append(ids, hotelID)
		} else {
			log.Warn().Str("hotel_id", hotelID).Msg("importer: incomplete document pair skipped")
		}
	}
	sort.Strings(ids)

	imported := make([]string, 0, len(ids))
	for _, hotelID := range ids {
		dataJSON, err := os.ReadFile(filepath.Join(dir, hotelID+dataSuffix))
		if err != nil {
			return imported, fmt.Errorf("read data document for %s: %w", hotelID, err)
		}
		configJSON, err := os.ReadFile(filepath.Join(dir, hotelID+configSuffix))
		if err != nil {
			return imported, fmt.Errorf("read config document for %s: %w", hotelID, err)
		}
		if _, err := i.ImportDocuments(ctx, hotelID, dataJSON, configJSON); err != nil {
			return imported, err
		}
		imported = append(imported, hotelID)
	}
	return imported, nil
}
