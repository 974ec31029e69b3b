// Package main is the entry point for the options position tracker server.
// The application tracks option structures and their legs, computes realized
// results server-side, persists everything as a single JSON document, and
// proxies market data from the OpLab API with an SQLite-backed quote cache.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/optracker/internal/clients/oplab"
	"github.com/aristath/optracker/internal/config"
	"github.com/aristath/optracker/internal/database"
	"github.com/aristath/optracker/internal/domain"
	"github.com/aristath/optracker/internal/quotecache"
	"github.com/aristath/optracker/internal/scheduler"
	"github.com/aristath/optracker/internal/server"
	"github.com/aristath/optracker/internal/store"
	"github.com/aristath/optracker/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Msg("Starting optracker")

	// Document store. A missing data file is not an error: the tracker
	// starts from an empty portfolio on first run. The configured backup
	// interval seeds documents without a config block of their own.
	documentStore := store.New(cfg.DataFilePath(), log)
	defaults := domain.DefaultSettings()
	defaults.AutoBackupInterval = cfg.AutoBackupInterval
	documentStore.SetDefaultSettings(defaults)
	if err := documentStore.Load(); err != nil {
		log.Fatal().Err(err).Str("path", cfg.DataFilePath()).Msg("Failed to load data file")
	}

	// Quote cache database
	cacheDB, err := database.New(database.Config{
		Path: cfg.CacheDBPath(),
		Name: "quote_cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open quote cache database")
	}
	defer cacheDB.Close()

	if err := quotecache.Migrate(cacheDB.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate quote cache schema")
	}
	cacheRepo := quotecache.NewRepository(cacheDB.Conn())

	// OpLab market-data client
	oplabClient := oplab.NewClient(cfg.OpLabBaseURL, cfg.OpLabAccessToken, cacheRepo, log)

	// Background jobs: periodic document saves and daily cache cleanup
	sched := scheduler.New(log)
	autosaveSpec := fmt.Sprintf("@every %ds", cfg.AutosaveSeconds)
	if err := sched.AddJob(autosaveSpec, scheduler.NewAutosaveJob(documentStore, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule autosave job")
	}
	if err := sched.AddJob("@daily", quotecache.NewCleanupJob(cacheRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule cache cleanup job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:      log,
		Store:    documentStore,
		Provider: oplabClient,
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Flush any unsaved changes before exiting
	if saved, err := documentStore.SaveIfDirty(); err != nil {
		log.Error().Err(err).Msg("Failed to save data on shutdown")
	} else if saved {
		log.Info().Msg("Saved data on shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
}
