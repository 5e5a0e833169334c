package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hotelrm/backend-go/internal/api"
	"github.com/hotelrm/backend-go/internal/cache"
	"github.com/hotelrm/backend-go/internal/config"
	"github.com/hotelrm/backend-go/internal/repository/postgres"
	"github.com/hotelrm/backend-go/internal/service"
	"github.com/hotelrm/backend-go/internal/simulation"
	"github.com/hotelrm/backend-go/internal/snapshot"
	"github.com/hotelrm/backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	snapshotRepo := postgres.NewSnapshotRepository(db)
	dbStore := snapshot.NewDBStore(snapshotRepo,
		time.Duration(cfg.Server.SnapshotRefreshSeconds)*time.Second)
	store := snapshot.NewTimeoutStore(dbStore,
		time.Duration(cfg.Server.SnapshotLoadTimeoutSeconds)*time.Second)

	warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if loaded, err := dbStore.Warm(warmCtx, snapshotRepo); err != nil {
		logger.Log.Warn().Err(err).Msg("Snapshot preload failed, serving on demand")
	} else {
		logger.Log.Info().Int("hotels", loaded).Msg("Snapshots preloaded")
	}
	warmCancel()

	simulationCache, err := cache.NewSimulationCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, serving without it")
		simulationCache = cache.NewNoopSimulationCache()
	}

	engine := simulation.NewEngine(store)
	simulationService := service.NewSimulationService(engine, simulationCache)

	router := api.NewRouter(simulationService, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
