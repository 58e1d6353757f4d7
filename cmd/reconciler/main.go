package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/revenue-reconciler/internal/classifier"
	"github.com/revenue-reconciler/internal/config"
	"github.com/revenue-reconciler/internal/data/mongo"
	"github.com/revenue-reconciler/internal/data/postgres"
	"github.com/revenue-reconciler/internal/logger"
	"github.com/revenue-reconciler/internal/platform/messaging/consumers"
	"github.com/revenue-reconciler/internal/platform/messaging/producers"
	"github.com/revenue-reconciler/internal/platform/persistence"
	"github.com/revenue-reconciler/internal/reconciliation/components"
	"github.com/revenue-reconciler/internal/reconciliation/consumer"
	"github.com/revenue-reconciler/internal/reconciliation/outbox_poller"
	"github.com/revenue-reconciler/internal/reconciliation/service"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("reconciler")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Reconciler",
		"batch_topic", cfg.Kafka.BatchTopic,
		"worker_pool_size", cfg.WorkerPool.Size,
	)

	// Migrations run inside NewPostgresDB
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

	revenueClassifier, err := classifier.Load(cfg.Classifier.MappingPath)
	if err != nil {
		log.Error("Failed to load category mapping", "path", cfg.Classifier.MappingPath, "error", err)
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

	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// A nil *DLQProducer must not reach the handler as a non-nil interface
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}

	ingestionService := components.CreateIngestionService(postgresDB, repos, revenueClassifier, log, cfg)

	batchEventHandler := consumer.NewBatchEventHandler(
		log,
		ingestionService,
		components.NewSyncRecorder(syncLogRepo, log),
		deadLetters,
	)

	attributionPublisher := outbox_poller.NewAttributionPublisher(repos.Outbox, attributionRepo, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, repos.Outbox, attributionPublisher, log)

	errChan := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.BatchTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.BatchTopic, cfg.Kafka.ConsumerGroup, batchEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	if wpService, ok := ingestionService.(*service.WorkerPoolIngestionService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running())
		wpService.Shutdown()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Waiting for consumer and outbox poller to stop...")
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

	var closeErr error
	if dlqProducer != nil {
		if err := dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
			closeErr = err
		}
	}

	if err := kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
		closeErr = err
	}

	postgresDB.Close()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		closeErr = err
	}

	if serviceErr != nil || closeErr != nil {
		log.Error("Reconciler shutdown completed with errors", "service_error", serviceErr, "close_error", closeErr)
		os.Exit(1)
	}
	log.Info("Reconciler shutdown completed successfully")
}

