// Package main is the entry point for the quantum engine service.
// The service simulates quantum circuits on a dense state vector, runs the
// algorithm library (Bell pairs, teleportation, Grover search, VQE, QFT,
// phase estimation, classifier training, error correction) over HTTP, and
// persists completed runs to SQLite.
//
// Startup sequence:
// 1. Load configuration from environment variables (.env file)
// 2. Initialize structured logging
// 3. Open the runs database and apply its schema
// 4. Construct the processor (backend and seed are fixed at construction)
// 5. Wire the runs service, HTTP server, and cleanup scheduler
// 6. Wait for SIGINT/SIGTERM and shut down gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/LukhasAI/quantum-engine/internal/config"
	"github.com/LukhasAI/quantum-engine/internal/database"
	"github.com/LukhasAI/quantum-engine/internal/modules/cleanup"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/circuit"
	"github.com/LukhasAI/quantum-engine/internal/modules/runs"
	"github.com/LukhasAI/quantum-engine/internal/scheduler"
	"github.com/LukhasAI/quantum-engine/internal/server"
	"github.com/LukhasAI/quantum-engine/pkg/logger"
)

// cleanupSchedule runs the retention job daily at 03:00 (cron with seconds).
const cleanupSchedule = "0 0 3 * * *"

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

	log.Info().Msg("Starting quantum engine")

	// Open the runs database. Runs are append-only history, so the archive
	// profile applies.
	runsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "runs.db"),
		Profile: database.ProfileArchive,
		Name:    "runs",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open runs database")
	}
	defer runsDB.Close()

	if err := runs.InitSchema(runsDB.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize runs schema")
	}

	// The backend is chosen once, here. With no simulator service configured
	// the engine runs every circuit on the embedded state-vector backend.
	var backend circuit.Backend
	if cfg.SimulatorServiceURL != "" {
		backend = circuit.NewRemoteBackend(cfg.SimulatorServiceURL, log)
		log.Info().Str("url", cfg.SimulatorServiceURL).Msg("Using remote simulator backend")
	}

	// A zero seed means non-reproducible runs; derive one from the clock.
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	processor, err := quantum.NewProcessor(quantum.Config{
		NumQubits: cfg.NumQubits,
		Backend:   backend,
		Seed:      seed,
		Log:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create processor")
	}
	log.Info().Int("qubits", cfg.NumQubits).Str("backend", processor.BackendName()).Msg("Processor ready")

	repo := runs.NewRepository(runsDB.Conn(), log)
	feed := runs.NewFeed()
	service := runs.NewService(processor, repo, feed, log)

	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		RunsDB:  runsDB,
		Service: service,
		DevMode: cfg.DevMode,
	})

	// Schedule run retention cleanup
	sched := scheduler.New(log)
	cleanupJob := cleanup.NewRunsCleanupJob(runsDB, repo, cfg.RunRetentionDays, log)
	if err := sched.AddJob(cleanupSchedule, cleanupJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule runs cleanup job")
	}
	sched.Start()

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	sched.Stop()

	// Give the HTTP server up to 10 seconds to finish in-flight requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
