package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/platform/messaging/producers"
	"github.com/revenue-reconciler/internal/reconciliation/service"
)

// BatchEventHandler handles normalized provider batches arriving from Kafka
type BatchEventHandler struct {
	ingestionService service.IngestionService
	syncRecorder     service.SyncRecorder
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

func NewBatchEventHandler(
	logger *slog.Logger,
	ingestionService service.IngestionService,
	syncRecorder service.SyncRecorder,
	producer producers.DeadLetterPublisher,
) *BatchEventHandler {
	return &BatchEventHandler{
		ingestionService: ingestionService,
		syncRecorder:     syncRecorder,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage ingests one batch. Returning an error makes the consumer retry
// the same message without committing it, and a restart redelivers it; both
// are safe because every record is deduplicated on its provider key.
func (h *BatchEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var batch shared.BatchRequest
	if err := json.Unmarshal(value, &batch); err != nil {
		h.logger.Error("Failed to unmarshal batch request from Kafka message", "error", err, "message_key", string(key))
		return h.deadLetter(ctx, key, value, fmt.Sprintf("Failed to unmarshal batch request: %s", err.Error()), err)
	}

	logger := h.logger.With("batch_id", batch.BatchID.String(), "provider", batch.Provider)
	if batch.CorrelationID != "" {
		logger = logger.With("correlation_id", batch.CorrelationID)
	}

	logger.Info("Received batch for ingestion", "records", len(batch.Records))

	result, err := h.ingestionService.IngestBatch(ctx, &batch)
	if err != nil {
		h.record(ctx, logger, &batch, nil, err)

		if errors.Is(err, shared.ErrMissingProvider) || errors.Is(err, shared.ErrEmptyBatch) {
			logger.Warn("Rejected batch envelope", "error", err)
			return h.deadLetter(ctx, key, value, fmt.Sprintf("Invalid batch envelope: %s", err.Error()), err)
		}

		logger.Error("Failed to ingest batch", "error", err)
		return fmt.Errorf("ingesting batch %s failed: %w", batch.BatchID.String(), err)
	}

	h.record(ctx, logger, &batch, result, nil)

	logger.Info("Successfully ingested batch",
		"added", result.Added,
		"duplicates", result.Duplicates,
		"queued_for_review", result.QueuedForReview,
		"errors", len(result.Errors),
	)
	return nil
}

// record writes the sync log entry. The audit trail is best effort; a failed
// write never causes the batch to be redelivered.
func (h *BatchEventHandler) record(ctx context.Context, logger *slog.Logger, batch *shared.BatchRequest, result *service.IngestionResult, runErr error) {
	if h.syncRecorder == nil {
		return
	}
	if err := h.syncRecorder.Record(ctx, batch, result, runErr); err != nil {
		logger.Error("Failed to record sync log entry", "error", err)
	}
}

func (h *BatchEventHandler) deadLetter(ctx context.Context, key, value []byte, reason string, cause error) error {
	if h.producer == nil {
		return fmt.Errorf("unprocessable batch message: %w", cause)
	}

	if err := h.producer.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		return fmt.Errorf("unprocessable batch message: %w", cause)
	}

	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
	return nil
}
