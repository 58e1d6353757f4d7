package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/revenue-reconciler/internal/domain/attribution"
	"github.com/revenue-reconciler/internal/domain/outbox"
	"github.com/revenue-reconciler/internal/domain/shared"
)

// AttributionPublisher moves one outbox message into the attribution history
type AttributionPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// AttributionPublisherImpl implements AttributionPublisher
type AttributionPublisherImpl struct {
	outboxRepo      outbox.Repository
	attributionRepo attribution.Repository
	logger          *slog.Logger
}

func NewAttributionPublisher(
	outboxRepo outbox.Repository,
	attributionRepo attribution.Repository,
	logger *slog.Logger,
) AttributionPublisher {
	return &AttributionPublisherImpl{
		outboxRepo:      outboxRepo,
		attributionRepo: attributionRepo,
		logger:          logger,
	}
}

// Publish records the event and marks the message processed. Recording is
// idempotent on the event id, so a message retried after a partial failure
// never shows up twice in the history.
func (p *AttributionPublisherImpl) Publish(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetEvent()
	if err != nil {
		p.logger.Error("Failed to unmarshal attribution event from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID.String(), "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger.With("outbox_id", message.ID, "event_id", event.EventID.String())
	if event.CorrelationID != "" {
		logger = logger.With("correlation_id", event.CorrelationID)
	}

	now := time.Now().UTC()
	event.PublishedAt = &now

	if err := p.attributionRepo.Record(ctx, event); err != nil {
		logger.Error("Failed to record attribution event", "person_id", event.PersonID.String(), "error", err)
		return fmt.Errorf("failed to record attribution event %s: %w", event.EventID.String(), err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED", "error", err)
		return fmt.Errorf("attribution event %s recorded, but failed to mark outbox %d as PROCESSED: %w", event.EventID.String(), message.ID, err)
	}

	logger.Debug("Attribution event published",
		"person_id", event.PersonID.String(),
		"reason", string(event.Reason),
		"amount_delta", event.AmountDelta,
	)
	return nil
}
