package components

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/transaction"
	"github.com/revenue-reconciler/internal/reconciliation/service"
)

// AttributionManagerImpl implements the AttributionManager interface
type AttributionManagerImpl struct {
	txRepo     transaction.Repository
	personRepo person.Repository
	aggregator service.LTVAggregator
	logger     *slog.Logger
}

func NewAttributionManager(
	txRepo transaction.Repository,
	personRepo person.Repository,
	aggregator service.LTVAggregator,
	logger *slog.Logger,
) service.AttributionManager {
	return &AttributionManagerImpl{
		txRepo:     txRepo,
		personRepo: personRepo,
		aggregator: aggregator,
		logger:     logger,
	}
}

// Lock takes the row lock on the transaction. It is always taken before any person lock.
func (m *AttributionManagerImpl) Lock(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID) (*transaction.Transaction, error) {
	txn, err := m.txRepo.WithTx(tx).LockForUpdate(ctx, transactionID)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound{TransactionID: transactionID}) {
			m.logger.Warn("Transaction not found for lock", "transaction_id", transactionID.String())
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock transaction %s: %w", transactionID.String(), err)
	}
	return txn, nil
}

// Transition persists after, then reverses the contribution of before on its
// owner and applies the contribution of after on its owner. Owners are locked
// in ascending id order first, so concurrent transitions cannot deadlock.
func (m *AttributionManagerImpl) Transition(ctx context.Context, tx pgx.Tx, before, after *transaction.Transaction, cause service.Cause) error {
	logger := m.logger.With("transaction_id", after.ID.String(), "reason", string(cause.Reason))
	if cause.CorrelationID != "" {
		logger = logger.With("correlation_id", cause.CorrelationID)
	}
	if cause.Actor != "" {
		logger = logger.With("actor", cause.Actor)
	}

	personRepoTx := m.personRepo.WithTx(tx)

	for _, id := range lockOrder(before.PersonID, after.PersonID) {
		if _, err := personRepoTx.LockForUpdate(ctx, id); err != nil {
			if errors.Is(err, person.ErrPersonNotFound{PersonID: id}) {
				logger.Warn("Owner not found for lock", "person_id", id.String())
				return err
			}
			return fmt.Errorf("failed to lock person %s: %w", id.String(), err)
		}
	}

	if err := m.txRepo.WithTx(tx).Update(ctx, after); err != nil {
		return err
	}

	oldContribution, newContribution := before.Contribution(), after.Contribution()
	sameOwner := samePerson(before.PersonID, after.PersonID)

	if !sameOwner || oldContribution != newContribution || before.CountsTowardRevenue() != after.CountsTowardRevenue() {
		if before.CountsTowardRevenue() {
			if _, err := m.aggregator.ApplyDelta(ctx, tx, *before.PersonID, oldContribution, -1, cause); err != nil {
				return err
			}
		}
		if after.CountsTowardRevenue() {
			if _, err := m.aggregator.ApplyDelta(ctx, tx, *after.PersonID, newContribution, 1, cause); err != nil {
				return err
			}
		}
	}

	if after.PersonID != nil && !sameOwner {
		if err := personRepoTx.AddSourceTag(ctx, *after.PersonID, after.Provider); err != nil {
			return err
		}
	}

	logger.Info("Transaction transitioned",
		"status", string(after.Status),
		"confidence", string(after.Confidence),
		"counts_toward_revenue", after.CountsTowardRevenue(),
	)
	return nil
}

// PurgeProvider retracts the contribution of every provider transaction and deletes them all
func (m *AttributionManagerImpl) PurgeProvider(ctx context.Context, tx pgx.Tx, provider string, cause service.Cause) (int64, error) {
	txRepoTx := m.txRepo.WithTx(tx)

	txns, err := txRepoTx.ListByProviderForUpdate(ctx, provider)
	if err != nil {
		return 0, err
	}

	owners := make([]*uuid.UUID, 0, len(txns))
	for _, txn := range txns {
		owners = append(owners, txn.PersonID)
	}
	personRepoTx := m.personRepo.WithTx(tx)
	for _, id := range lockOrder(owners...) {
		if _, err := personRepoTx.LockForUpdate(ctx, id); err != nil {
			return 0, fmt.Errorf("failed to lock person %s: %w", id.String(), err)
		}
	}

	retracted := 0
	for _, txn := range txns {
		if !txn.CountsTowardRevenue() {
			continue
		}
		txnCause := cause
		txnCause.TransactionID = txn.ID
		if _, err := m.aggregator.ApplyDelta(ctx, tx, *txn.PersonID, txn.Contribution(), -1, txnCause); err != nil {
			return 0, err
		}
		retracted++
	}

	deleted, err := txRepoTx.DeleteByProvider(ctx, provider)
	if err != nil {
		return 0, err
	}

	m.logger.Info("Provider transactions purged", "provider", provider, "deleted", deleted, "contributions_retracted", retracted)
	return deleted, nil
}

// lockOrder returns the distinct non-nil ids in ascending byte order
func lockOrder(ids ...*uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != nil && !slices.Contains(out, *id) {
			out = append(out, *id)
		}
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return out
}

func samePerson(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
