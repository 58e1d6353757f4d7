package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/revenue-reconciler/internal/api_gateway"
	"github.com/revenue-reconciler/internal/api_gateway/service"
	"github.com/revenue-reconciler/internal/config"
	"github.com/revenue-reconciler/internal/data/mongo"
	"github.com/revenue-reconciler/internal/data/postgres"
	"github.com/revenue-reconciler/internal/logger"
	"github.com/revenue-reconciler/internal/platform/messaging/producers"
	"github.com/revenue-reconciler/internal/platform/persistence"
	"github.com/revenue-reconciler/internal/reconciliation/components"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

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

	// Batches are published to the topic the reconciler consumes
	batchProducer, err := producers.NewBatchProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize batch Kafka producer", "error", err)
		os.Exit(1)
	}

	repos := components.Repositories{
		Transactions: postgres.NewTransactionRepository(log, postgresDB),
		Persons:      postgres.NewPersonRepository(log, postgresDB),
		Reviews:      postgres.NewReviewRepository(log, postgresDB),
		Outbox:       postgres.NewOutboxRepository(log, postgresDB),
	}
	attributionRepo := mongo.NewAttributionRepository(log, mongoDB.Database())
	syncLogRepo := mongo.NewSyncLogRepository(log, mongoDB.Database())

	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Batches:     service.NewBatchService(log, batchProducer),
		ReviewQueue: service.NewReviewQueueService(log, repos.Reviews, repos.Transactions),
		Persons:     service.NewPersonService(log, repos.Persons, repos.Transactions, attributionRepo),
		SyncLogs:    service.NewSyncLogService(syncLogRepo),
		Resolution:  components.CreateResolutionService(postgresDB, repos, log, cfg),
		LTV:         components.CreateLTVService(postgresDB, repos, log, cfg),
	})

	errChan := make(chan error, 1)

	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before closing the pools they use
	var closeErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		closeErr = err
	}

	if err := batchProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
		closeErr = err
	}

	postgresDB.Close()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		closeErr = err
	}

	if serverErr != nil || closeErr != nil {
		log.Error("API gateway shutdown completed with errors", "server_error", serverErr, "close_error", closeErr)
		os.Exit(1)
	}
	log.Info("API gateway shutdown completed successfully")
}
