package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/revenue-reconciler/internal/config"
	"github.com/revenue-reconciler/internal/domain/outbox"
	"github.com/revenue-reconciler/internal/domain/shared"
)

// Poller drains pending attribution events from the outbox
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        AttributionPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher AttributionPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start polls until ctx is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Outbox Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			if _, err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

// processPendingMessages publishes one batch and returns how many messages were published
func (p *Poller) processPendingMessages(ctx context.Context) (int, error) {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found.")
		return 0, nil
	}

	published := 0
	for _, msg := range messages {
		if err := p.publisher.Publish(ctx, msg); err != nil {
			p.recordFailure(ctx, msg, err)
			continue
		}
		published++
	}

	p.logger.Info("Processed pending outbox messages", "fetched", len(messages), "published", published)
	return published, nil
}

// recordFailure counts the attempt and gives up on the message once the retry budget is spent
func (p *Poller) recordFailure(ctx context.Context, msg *outbox.Message, publishErr error) {
	logger := p.logger.With("outbox_id", msg.ID, "person_id", msg.PersonID.String())
	logger.Error("Failed to publish outbox message", "current_attempts", msg.Attempts, "error", publishErr)

	if err := p.outboxRepo.IncrementAttempts(ctx, msg.ID); err != nil {
		logger.Error("Failed to increment attempts for outbox message", "error", err)
		return
	}

	if msg.Attempts+1 < p.maxRetryAttempts {
		return
	}

	logger.Warn("Max retry attempts reached for outbox message, marking as FAILED_TO_PUBLISH", "attempts_made", msg.Attempts+1)
	if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
		logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH after max retries", "error", err)
	}
}
