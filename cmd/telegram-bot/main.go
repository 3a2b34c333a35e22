// The telegram-bot binary runs the chat surface against an embedded
// SQLite lead store, for clinics that distribute assessments through a
// Telegram link.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/patientpathway/assessment-server/internal/bot"
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
	token := os.Getenv("PATHWAY_TELEGRAM_TOKEN")
	if token == "" {
		log.Fatal("PATHWAY_TELEGRAM_TOKEN is required")
	}

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
		logger.Info("Shutdown signal received, stopping bot")
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

	tgBot, err := bot.NewBot(token, os.Getenv("PATHWAY_TELEGRAM_DEBUG") == "true", logger, manager, quizzes)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Telegram bot")
	}

	tgBot.Start(ctx)
	logger.Info("Bot stopped")
}
