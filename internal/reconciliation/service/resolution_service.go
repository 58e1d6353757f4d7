package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/attribution"
	"github.com/revenue-reconciler/internal/domain/review"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/domain/transaction"
)

type ResolutionServiceImpl struct {
	txRunner    TxRunner
	persons     PersonDirectory
	attribution AttributionManager
	queue       ReviewQueueManager
	logger      *slog.Logger
}

func NewResolutionService(
	txRunner TxRunner,
	persons PersonDirectory,
	attribution AttributionManager,
	queue ReviewQueueManager,
	logger *slog.Logger,
) ResolutionService {
	return &ResolutionServiceImpl{
		txRunner:    txRunner,
		persons:     persons,
		attribution: attribution,
		queue:       queue,
		logger:      logger,
	}
}

// ResolveManualMatch attaches a queued transaction to the person a reviewer chose
// and closes its queue entry. An unknown transaction or person leaves everything untouched.
func (s *ResolutionServiceImpl) ResolveManualMatch(ctx context.Context, req ManualResolution) (*transaction.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.forceAttach(ctx, req.TransactionID, req.PersonID, req.ResolvedBy)
}

// Reattribute moves a transaction to another person. The previous owner's
// contribution is reversed in the same database transaction.
func (s *ResolutionServiceImpl) Reattribute(ctx context.Context, transactionID, personID uuid.UUID, by string) (*transaction.Transaction, error) {
	req := ManualResolution{TransactionID: transactionID, PersonID: personID, ResolvedBy: by}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.forceAttach(ctx, transactionID, personID, by)
}

func (s *ResolutionServiceImpl) forceAttach(ctx context.Context, transactionID, personID uuid.UUID, by string) (*transaction.Transaction, error) {
	logger := s.logger.With("transaction_id", transactionID.String(), "person_id", personID.String(), "resolved_by", by)

	var updated *transaction.Transaction
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		before, err := s.attribution.Lock(ctx, tx, transactionID)
		if err != nil {
			return err
		}

		if _, err := s.persons.Get(ctx, tx, personID); err != nil {
			return err
		}

		reason := attribution.ReasonAttach
		if before.PersonID != nil && !before.OwnedBy(personID) {
			reason = attribution.ReasonReattribute
		}

		after := before.Clone()
		after.AttachManually(personID)

		cause := Cause{TransactionID: transactionID, Reason: reason, Actor: by, CorrelationID: shared.CorrelationIDFromContext(ctx)}
		if err := s.attribution.Transition(ctx, tx, before, after, cause); err != nil {
			return err
		}

		closed, err := s.queue.Close(ctx, tx, transactionID, by)
		if err != nil {
			return err
		}

		logger.Info("Transaction attached manually", "reason", string(reason), "queue_entry_closed", closed)
		updated = after
		return nil
	})
	if err != nil {
		logger.Warn("Manual attach failed", "error", err)
		return nil, err
	}

	return updated, nil
}

// Detach clears the owner, reverses its contribution and parks the transaction for review
func (s *ResolutionServiceImpl) Detach(ctx context.Context, transactionID uuid.UUID, by string) (*transaction.Transaction, error) {
	logger := s.logger.With("transaction_id", transactionID.String(), "by", by)

	var updated *transaction.Transaction
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		before, err := s.attribution.Lock(ctx, tx, transactionID)
		if err != nil {
			return err
		}

		after := before.Clone()
		after.MarkNeedsReview()

		cause := Cause{TransactionID: transactionID, Reason: attribution.ReasonDetach, Actor: by, CorrelationID: shared.CorrelationIDFromContext(ctx)}
		if err := s.attribution.Transition(ctx, tx, before, after, cause); err != nil {
			return err
		}

		var candidates []review.Candidate
		if before.PersonID != nil {
			candidates = []review.Candidate{{PersonID: *before.PersonID, Rules: []string{"previous_owner"}}}
		}
		if _, err := s.queue.Enqueue(ctx, tx, transactionID, candidates, review.ReasonDetached); err != nil {
			return err
		}

		updated = after
		return nil
	})
	if err != nil {
		logger.Warn("Detach failed", "error", err)
		return nil, err
	}

	logger.Info("Transaction detached")
	return updated, nil
}

// CorrectAmount replaces the amount, moving the owner's totals by the difference
func (s *ResolutionServiceImpl) CorrectAmount(ctx context.Context, transactionID uuid.UUID, amountMinor int64, by string) (*transaction.Transaction, error) {
	logger := s.logger.With("transaction_id", transactionID.String(), "by", by)

	var updated *transaction.Transaction
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		before, err := s.attribution.Lock(ctx, tx, transactionID)
		if err != nil {
			return err
		}

		after := before.Clone()
		after.AmountMinor = amountMinor

		cause := Cause{TransactionID: transactionID, Reason: attribution.ReasonAmountCorrection, Actor: by, CorrelationID: shared.CorrelationIDFromContext(ctx)}
		if err := s.attribution.Transition(ctx, tx, before, after, cause); err != nil {
			return err
		}

		logger.Info("Transaction amount corrected", "old_amount", before.AmountMinor, "new_amount", amountMinor)
		updated = after
		return nil
	})
	if err != nil {
		logger.Warn("Amount correction failed", "error", err)
		return nil, err
	}

	return updated, nil
}

// PurgeProvider deletes every transaction of the provider, reversing their
// contributions, then removes persons that only that provider ever referred.
func (s *ResolutionServiceImpl) PurgeProvider(ctx context.Context, provider string) (*PurgeResult, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, ErrMissingProvider
	}

	logger := s.logger.With("provider", provider)
	result := &PurgeResult{Provider: provider}

	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		if result.QueueEntriesDeleted, err = s.queue.PurgeProvider(ctx, tx, provider); err != nil {
			return err
		}

		cause := Cause{Reason: attribution.ReasonPurge, Actor: "provider_purge", CorrelationID: shared.CorrelationIDFromContext(ctx)}
		if result.TransactionsDeleted, err = s.attribution.PurgeProvider(ctx, tx, provider, cause); err != nil {
			return err
		}

		if result.PersonsDeleted, err = s.persons.DeleteGhosts(ctx, tx, provider); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		logger.Error("Provider purge failed", "error", err)
		return nil, fmt.Errorf("failed to purge provider %s: %w", provider, err)
	}

	logger.Info("Provider purged",
		"transactions_deleted", result.TransactionsDeleted,
		"queue_entries_deleted", result.QueueEntriesDeleted,
		"persons_deleted", result.PersonsDeleted,
	)
	return result, nil
}
