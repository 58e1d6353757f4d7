package components

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/review"
	"github.com/revenue-reconciler/internal/reconciliation/service"
)

type ReviewQueueManagerImpl struct {
	reviewRepo review.Repository
	logger     *slog.Logger
}

func NewReviewQueueManager(reviewRepo review.Repository, logger *slog.Logger) service.ReviewQueueManager {
	return &ReviewQueueManagerImpl{
		reviewRepo: reviewRepo,
		logger:     logger,
	}
}

// Enqueue opens a review entry unless the transaction already has one open
func (m *ReviewQueueManagerImpl) Enqueue(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID, candidates []review.Candidate, reason review.Reason) (bool, error) {
	entry := review.NewEntry(transactionID, candidates, reason)

	created, err := m.reviewRepo.WithTx(tx).Create(ctx, entry)
	if err != nil {
		return false, err
	}

	if created {
		m.logger.Info("Transaction queued for review",
			"transaction_id", transactionID.String(),
			"reason", string(reason),
			"candidates", len(entry.Candidates),
		)
	} else {
		m.logger.Debug("Transaction already has an open review entry", "transaction_id", transactionID.String())
	}
	return created, nil
}

// Close resolves the open entry, if any
func (m *ReviewQueueManagerImpl) Close(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID, resolvedBy string) (bool, error) {
	return m.reviewRepo.WithTx(tx).Resolve(ctx, transactionID, resolvedBy, time.Now().UTC())
}

func (m *ReviewQueueManagerImpl) PurgeProvider(ctx context.Context, tx pgx.Tx, provider string) (int64, error) {
	return m.reviewRepo.WithTx(tx).DeleteByProvider(ctx, provider)
}
