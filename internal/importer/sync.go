package importer

import (
	"context"
	"sync"
	"time"

	"github.com/hotelrm/backend-go/internal/drive"
	"github.com/rs/zerolog/log"
)

// DriveSyncer periodically pulls hotel document pairs from a Google
// Drive folder and imports them. One failing hotel does not stop the
// rest of the sweep.
type DriveSyncer struct {
	drive    *drive.Service
	importer *Importer
	folderID string
	interval time.Duration

	mu   sync.Mutex
	seen map[string]string // hotel -> last imported data/config fingerprint
}

func NewDriveSyncer(driveService *drive.Service, imp *Importer, folderID string, interval time.Duration) *DriveSyncer {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &DriveSyncer{
		drive:    driveService,
		importer: imp,
		folderID: folderID,
		interval: interval,
		seen:     make(map[string]string),
	}
}

// Run blocks until ctx is cancelled, syncing once immediately and then
// on every tick.
func (s *DriveSyncer) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("drive sync: stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// SyncOnce performs a single sweep, returning the hotels imported.
// Safe to call concurrently with Run; sweeps are serialized.
func (s *DriveSyncer) SyncOnce(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pairs, err := s.drive.ListDocumentPairs(s.folderID)
	if err != nil {
		return nil, err
	}

	var imported []string
	for _, pair := range pairs {
		fingerprint := pair.DataFile.ModifiedTime + "|" + pair.ConfigFile.ModifiedTime
		if s.seen[pair.HotelID] == fingerprint {
			continue
		}

		dataJSON, err := s.drive.DownloadBytes(ctx, pair.DataFile.ID)
		if err != nil {
			log.Error().Err(err).Str("hotel_id", pair.HotelID).Msg("drive sync: data download failed")
			continue
		}
		configJSON, err := s.drive.DownloadBytes(ctx, pair.ConfigFile.ID)
		if err != nil {
			log.Error().Err(err).Str("hotel_id", pair.HotelID).Msg("drive sync: config download failed")
			continue
		}

		if _, err := s.importer.ImportDocuments(ctx, pair.HotelID, dataJSON, configJSON); err != nil {
			log.Error().Err(err).Str("hotel_id", pair.HotelID).Msg("drive sync: import failed")
			continue
		}
		s.seen[pair.HotelID] = fingerprint
		imported = append(imported, pair.HotelID)
	}
	return imported, nil
}

func (s *DriveSyncer) sweep(ctx context.Context) {
	imported, err := s.SyncOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("drive sync: sweep failed")
		return
	}
	if len(imported) > 0 {
		log.Info().Strs("hotels", imported).Msg("drive sync: snapshots refreshed")
	}
}
