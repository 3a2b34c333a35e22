package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/patientpathway/assessment-server/internal/api"
	"github.com/patientpathway/assessment-server/internal/bot"
	"github.com/patientpathway/assessment-server/internal/catalog"
	"github.com/patientpathway/assessment-server/internal/config"
	"github.com/patientpathway/assessment-server/internal/conversation"
	"github.com/patientpathway/assessment-server/internal/database"
	"github.com/patientpathway/assessment-server/internal/domain"
	"github.com/patientpathway/assessment-server/internal/lead"
	"github.com/patientpathway/assessment-server/internal/notify"
	"github.com/patientpathway/assessment-server/internal/repository"
	"github.com/patientpathway/assessment-server/internal/scoring"
	"github.com/patientpathway/assessment-server/internal/sharekey"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := config.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	dbConfig := database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		Database:    cfg.Database.Database,
		Username:    cfg.Database.Username,
		Password:    cfg.Database.Password,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnLife: cfg.Database.ConnMaxLifetime,
		MaxConnIdle: cfg.Database.ConnMaxIdleTime,
		SSLMode:     cfg.Database.SSLMode,
	}

	migrator, err := database.NewMigrationRunner(dbConfig.URL(), cfg.Database.MigrationsPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create migration runner")
	}
	if err := migrator.Up(); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}
	migrator.Close()

	db, err := database.NewConnection(ctx, dbConfig, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.WithError(err).Fatal("Invalid Redis URL")
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()
	}

	quizzes := catalog.New(logger)
	scorer := scoring.NewEngine(logger, quizzes)
	store := repository.NewLeadRepository(db.Pool, logger)

	var notifier domain.Notifier
	if cfg.Notifier.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(logger, notify.WebhookConfig{
			URL:              cfg.Notifier.WebhookURL,
			Timeout:          cfg.Notifier.Timeout,
			FailureThreshold: cfg.Notifier.FailureThreshold,
		})
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	coordinator := lead.NewCoordinator(logger, store, notifier, cfg.Submission.Timeout)

	resolver := sharekey.NewResolver(logger, repository.NewShareKeyRepository(db.Pool, logger), redisClient)

	manager := conversation.NewManager(logger, quizzes, scorer, coordinator, resolver, cfg.Conversation.IdleTTL)
	manager.StartCleanup(ctx, cfg.Conversation.CleanupInterval)

	// The chat surface runs alongside HTTP when a token is configured.
	if cfg.Telegram.Token != "" {
		tgBot, err := bot.NewBot(cfg.Telegram.Token, cfg.Telegram.Debug, logger, manager, quizzes)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Telegram bot")
		}
		go tgBot.Start(ctx)
	}

	server := api.NewServer(logger, cfg.Server, manager, quizzes, store)
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}
