// The lite server runs the full assessment engine from a single binary
// with an embedded SQLite database: no PostgreSQL, Redis, or webhook
// endpoint required.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/patientpathway/assessment-server/internal/api"
	"github.com/patientpathway/assessment-server/internal/catalog"
	"github.com/patientpathway/assessment-server/internal/config"
	"github.com/patientpathway/assessment-server/internal/conversation"
	"github.com/patientpathway/assessment-server/internal/lead"
	"github.com/patientpathway/assessment-server/internal/leadstore"
	"github.com/patientpathway/assessment-server/internal/notify"
	"github.com/patientpathway/assessment-server/internal/scoring"
	"github.com/patientpathway/assessment-server/internal/sharekey"
)

func main() {
	cfg := config.LoadLiteConfig()
	if err := cfg.EnsureDataDir(); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	store, err := leadstore.NewSQLiteStore(cfg.LeadDBPath())
	if err != nil {
		logger.WithError(err).Fatal("Failed to open lead store")
	}
	defer store.Close()

	quizzes := catalog.New(logger)
	scorer := scoring.NewEngine(logger, quizzes)
	notifier := notify.NewLogNotifier(logger)
	coordinator := lead.NewCoordinator(logger, store, notifier, 0)
	resolver := sharekey.NewStaticResolver(logger, cfg.ParseShareKeys())

	manager := conversation.NewManager(logger, quizzes, scorer, coordinator, resolver, cfg.IdleTTL)
	manager.StartCleanup(ctx, 0)

	serverCfg := config.ServerConfig{
		Host: "0.0.0.0",
		Port: cfg.HTTPPort,
	}

	server := api.NewServer(logger, serverCfg, manager, quizzes, store)
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}
