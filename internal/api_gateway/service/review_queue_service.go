package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/revenue-reconciler/internal/domain/review"
	"github.com/revenue-reconciler/internal/domain/transaction"
)

type ReviewQueueServiceImpl struct {
	reviewRepo review.Repository
	txRepo     transaction.Repository
	logger     *slog.Logger
}

func NewReviewQueueService(logger *slog.Logger, reviewRepo review.Repository, txRepo transaction.Repository) ReviewQueueService {
	return &ReviewQueueServiceImpl{
		reviewRepo: reviewRepo,
		txRepo:     txRepo,
		logger:     logger,
	}
}

func (s *ReviewQueueServiceImpl) ListOpen(ctx context.Context, page, perPage int) ([]*QueueItem, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.reviewRepo.ListOpen(ctx, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.reviewRepo.CountOpen(ctx)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*QueueItem, 0, len(entries))
	for _, entry := range entries {
		txn, err := s.txRepo.GetByID(ctx, entry.TransactionID)
		if err != nil {
			// Purged concurrently; the entry disappears with it
			if errors.Is(err, transaction.ErrTransactionNotFound{}) {
				s.logger.Warn("Queue entry without transaction", "transaction_id", entry.TransactionID.String())
				continue
			}
			return nil, 0, fmt.Errorf("failed to load queued transaction %s: %w", entry.TransactionID.String(), err)
		}
		items = append(items, &QueueItem{Entry: entry, Transaction: txn})
	}

	return items, total, nil
}
