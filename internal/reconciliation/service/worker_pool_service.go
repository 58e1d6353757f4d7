package service

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/revenue-reconciler/internal/domain/shared"
)

// WorkerPoolIngestionService bounds how many batches are ingested at once
type WorkerPoolIngestionService struct {
	baseService IngestionService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

type ingestionOutcome struct {
	result *IngestionResult
	err    error
}

func NewWorkerPoolIngestionService(
	baseService IngestionService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolIngestionService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolIngestionService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// IngestBatch submits the batch to the worker pool and waits for its result.
func (s *WorkerPoolIngestionService) IngestBatch(ctx context.Context, batch *shared.BatchRequest) (*IngestionResult, error) {
	logger := s.logger
	if batch.CorrelationID != "" {
		logger = s.logger.With("correlation_id", batch.CorrelationID)
	}

	logger.Info("Submitting batch to worker pool",
		"batch_id", batch.BatchID.String(),
		"provider", batch.Provider,
		"records", len(batch.Records),
	)

	resultChan := make(chan ingestionOutcome, 1)

	// Copy so the caller may reuse its request
	batchCopy := *batch

	err := s.pool.Submit(func() {
		result, err := s.baseService.IngestBatch(ctx, &batchCopy)
		resultChan <- ingestionOutcome{result: result, err: err}
	})
	if err != nil {
		logger.Error("Failed to submit batch to worker pool",
			"batch_id", batch.BatchID.String(),
			"error", err,
		)
		return nil, err
	}

	outcome := <-resultChan
	return outcome.result, outcome.err
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolIngestionService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolIngestionService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolIngestionService) Capacity() int {
	return s.pool.Cap()
}
