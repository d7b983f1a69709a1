package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/admiral-games/token-ledger/internal/config"
	mongodata "github.com/admiral-games/token-ledger/internal/data/mongo"
	"github.com/admiral-games/token-ledger/internal/data/postgres"
	"github.com/admiral-games/token-ledger/internal/logger"
	"github.com/admiral-games/token-ledger/internal/notifier"
	"github.com/admiral-games/token-ledger/internal/platform/cache"
	"github.com/admiral-games/token-ledger/internal/platform/messaging/consumers"
	"github.com/admiral-games/token-ledger/internal/platform/messaging/producers"
	"github.com/admiral-games/token-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("notifier")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting balance change notifier",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize stores with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	archiveRepo := mongodata.NewArchiveRepository(log, mongoDB.Database())

	// Initialize Kafka producers
	eventProducer, err := producers.NewBalanceEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize balance event producer", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer is nil when DLQTopic is not configured
	var deadLetterPublisher producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetterPublisher = dlqProducer
	}

	// Initialize the outbox poller
	eventPublisher := notifier.NewEventPublisher(outboxRepo, eventProducer, log)
	poller := notifier.NewPoller(&cfg.Outbox, outboxRepo, eventPublisher, log)

	// Initialize subscribers and the dispatcher
	balanceCache := cache.NewBalanceCache(redisClient, log, &cfg.Redis)
	leaderboard := cache.NewLeaderboard(redisClient)

	dispatcher, err := notifier.NewDispatcher(cfg.WorkerPool, log,
		notifier.NewCacheInvalidator(balanceCache),
		notifier.NewLeaderboardUpdater(leaderboard),
		notifier.NewArchiver(ledgerRepo, archiveRepo, log),
	)
	if err != nil {
		log.Error("Failed to initialize dispatcher", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)
	eventHandler := notifier.NewBalanceEventHandler(dispatcher, deadLetterPublisher, log)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.BalanceTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.BalanceTopic, cfg.Kafka.ConsumerGroup, eventHandler); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting outbox poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	dispatcher.Shutdown()

	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ producer", "error", err)
		}
	}

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing balance event producer", "error", err)
	}

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	postgresDB.Close()

	if err = redisClient.Close(); err != nil {
		log.Error("Error closing Redis connection", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Notifier shutdown with errors", "error", serviceErr)
		os.Exit(1)
	}
	log.Info("Notifier shutdown completed successfully")
}
