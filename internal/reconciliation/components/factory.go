package components

import (
	"log/slog"

	"github.com/revenue-reconciler/internal/config"
	"github.com/revenue-reconciler/internal/domain/outbox"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/review"
	"github.com/revenue-reconciler/internal/domain/transaction"
	"github.com/revenue-reconciler/internal/identity"
	"github.com/revenue-reconciler/internal/reconciliation/service"
)

// Repositories bundles the stores the core writes through
type Repositories struct {
	Transactions transaction.Repository
	Persons      person.Repository
	Reviews      review.Repository
	Outbox       outbox.Repository
}

func newAttributionManager(repos Repositories, logger *slog.Logger, cfg *config.Config) service.AttributionManager {
	aggregator := NewLTVAggregator(repos.Persons, repos.Transactions, repos.Outbox, cfg.LTV.DriftToleranceMinor, logger)
	return NewAttributionManager(repos.Transactions, repos.Persons, aggregator, logger)
}

// CreateIngestionService creates an IngestionService with all its dependencies.
func CreateIngestionService(
	txRunner service.TxRunner,
	repos Repositories,
	classifier service.RevenueClassifier,
	logger *slog.Logger,
	cfg *config.Config,
) service.IngestionService {
	baseService := service.NewIngestionService(
		txRunner,
		NewDedupGate(repos.Transactions, logger),
		classifier,
		identity.NewNormalizer(cfg.Identity.DefaultRegion),
		NewMatchResolver(MatchPolicyFromConfig(cfg.Matching)),
		NewPersonDirectory(repos.Persons, logger),
		newAttributionManager(repos, logger, cfg),
		NewReviewQueueManager(repos.Reviews, logger),
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolIngestionService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool ingestion service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}

// CreateResolutionService creates the reviewer and operator facing service.
func CreateResolutionService(
	txRunner service.TxRunner,
	repos Repositories,
	logger *slog.Logger,
	cfg *config.Config,
) service.ResolutionService {
	return service.NewResolutionService(
		txRunner,
		NewPersonDirectory(repos.Persons, logger),
		newAttributionManager(repos, logger, cfg),
		NewReviewQueueManager(repos.Reviews, logger),
		logger,
	)
}

// CreateLTVService creates the recompute and verification service.
func CreateLTVService(
	txRunner service.TxRunner,
	repos Repositories,
	logger *slog.Logger,
	cfg *config.Config,
) service.LTVService {
	return service.NewLTVService(
		txRunner,
		NewLTVAggregator(repos.Persons, repos.Transactions, repos.Outbox, cfg.LTV.DriftToleranceMinor, logger),
		NewPersonDirectory(repos.Persons, logger),
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		logger,
	)
}
