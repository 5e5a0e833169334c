package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/hotelrm/backend-go/internal/cache"
	"github.com/hotelrm/backend-go/internal/config"
	"github.com/hotelrm/backend-go/internal/drive"
	"github.com/hotelrm/backend-go/internal/importer"
	"github.com/hotelrm/backend-go/internal/repository/postgres"
	"github.com/hotelrm/backend-go/internal/snapshot"
	"github.com/hotelrm/backend-go/internal/storage"
	"github.com/hotelrm/backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	snapshotRepo := postgres.NewSnapshotRepository(db)
	store := snapshot.NewDBStore(snapshotRepo,
		time.Duration(cfg.Server.SnapshotRefreshSeconds)*time.Second)

	simulationCache, err := cache.NewSimulationCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, importing without invalidation")
		simulationCache = cache.NewNoopSimulationCache()
	}

	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		minioClient, err := storage.NewMinioClient(cfg.Archive)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize snapshot archive")
		}
		archive = minioClient
	}

	imp := importer.NewImporter(store, snapshotRepo, archive, simulationCache)

	// Drive sync is optional: without credentials the importer only
	// serves direct document uploads.
	var syncer *importer.DriveSyncer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if credentials := os.Getenv(cfg.Importer.DriveCredentialsEnv); credentials != "" {
		driveService, err := drive.NewService(credentials)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
		}
		syncer = importer.NewDriveSyncer(
			driveService, imp, cfg.Importer.DriveFolderID,
			time.Duration(cfg.Importer.SyncIntervalSeconds)*time.Second,
		)
		go syncer.Run(ctx)
	} else {
		logger.Log.Info().Msg("Drive credentials not set, periodic sync disabled")
	}

	router := mux.NewRouter()
	importer.NewHandler(imp, syncer).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Importer.Port,
		Handler: router,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Importer.Port).Msg("Starting importer")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start importer")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down importer...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Importer forced to shutdown")
	}

	logger.Log.Info().Msg("Importer exiting")
}
