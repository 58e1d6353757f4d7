package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/platform/messaging/producers"
)

// BatchServiceImpl implements the BatchService interface
type BatchServiceImpl struct {
	producer producers.BatchPublisher
	logger   *slog.Logger
}

func NewBatchService(logger *slog.Logger, producer producers.BatchPublisher) BatchService {
	return &BatchServiceImpl{
		producer: producer,
		logger:   logger,
	}
}

// SubmitBatch publishes the batch keyed by provider. A caller-supplied batch id
// is kept so that resubmitting the same batch is traceable in the sync log.
func (s *BatchServiceImpl) SubmitBatch(ctx context.Context, batch *shared.BatchRequest) (*shared.BatchRequest, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	accepted := *batch
	accepted.Provider = strings.ToLower(strings.TrimSpace(batch.Provider))
	if accepted.BatchID == uuid.Nil {
		accepted.BatchID = uuid.New()
	}
	accepted.SubmittedAt = time.Now().UTC()

	if err := s.producer.PublishBatch(ctx, &accepted); err != nil {
		s.logger.Error("Failed to publish batch",
			"batch_id", accepted.BatchID.String(),
			"provider", accepted.Provider,
			"records", len(accepted.Records),
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Batch accepted",
		"batch_id", accepted.BatchID.String(),
		"provider", accepted.Provider,
		"records", len(accepted.Records),
	)
	return &accepted, nil
}
