package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/admiral-games/token-ledger/internal/api_gateway"
	"github.com/admiral-games/token-ledger/internal/api_gateway/service"
	"github.com/admiral-games/token-ledger/internal/config"
	mongodata "github.com/admiral-games/token-ledger/internal/data/mongo"
	"github.com/admiral-games/token-ledger/internal/data/postgres"
	"github.com/admiral-games/token-ledger/internal/engine"
	"github.com/admiral-games/token-ledger/internal/logger"
	"github.com/admiral-games/token-ledger/internal/platform/cache"
	"github.com/admiral-games/token-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting token ledger API",
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
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	archiveRepo := mongodata.NewArchiveRepository(log, mongoDB.Database())

	// Initialize Redis read models
	balanceCache := cache.NewBalanceCache(redisClient, log, &cfg.Redis)
	leaderboard := cache.NewLeaderboard(redisClient)

	// Initialize the ledger engine
	ledgerEngine := engine.New(postgresDB.Pool(), accountRepo, ledgerRepo, outboxRepo, cfg.Ledger, log)

	// Initialize services
	ledgerService := service.NewLedgerService(ledgerEngine, ledgerRepo)
	accountService := service.NewAccountService(postgresDB.Pool(), accountRepo, ledgerRepo, balanceCache, leaderboard, log)
	statsService := service.NewStatsService(archiveRepo, leaderboard)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, accountService, ledgerService, statsService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	postgresDB.Close()

	if err = redisClient.Close(); err != nil {
		log.Error("Error closing Redis connection", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
		os.Exit(1)
	}
	log.Info("Server shutdown completed successfully")
}
