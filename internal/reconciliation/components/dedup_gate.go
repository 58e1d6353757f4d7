package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/transaction"
	"github.com/revenue-reconciler/internal/reconciliation/service"
)

// DedupGateImpl implements the DedupGate interface on the (provider, external_id) key
type DedupGateImpl struct {
	txRepo transaction.Repository
	logger *slog.Logger
}

func NewDedupGate(txRepo transaction.Repository, logger *slog.Logger) service.DedupGate {
	return &DedupGateImpl{
		txRepo: txRepo,
		logger: logger,
	}
}

// IsDuplicate reports whether the dedup key is already recorded, regardless of any other field
func (g *DedupGateImpl) IsDuplicate(ctx context.Context, provider, externalID string) (bool, error) {
	exists, err := g.txRepo.Exists(ctx, provider, externalID)
	if err != nil {
		g.logger.Error("Failed to check dedup key", "provider", provider, "external_id", externalID, "error", err)
		return false, fmt.Errorf("failed to check dedup key %s/%s: %w", provider, externalID, err)
	}
	return exists, nil
}

// Admit inserts the transaction. The unique constraint decides concurrent
// inserts; the losing writer gets false and no error.
func (g *DedupGateImpl) Admit(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction) (bool, error) {
	err := g.txRepo.WithTx(tx).Insert(ctx, txn)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, transaction.ErrDuplicateTransaction{}) {
		g.logger.Info("Dedup key recorded by a concurrent writer",
			"provider", txn.Provider,
			"external_id", txn.ExternalID,
		)
		return false, nil
	}
	return false, err
}
