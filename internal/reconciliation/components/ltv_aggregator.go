package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/attribution"
	"github.com/revenue-reconciler/internal/domain/outbox"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/domain/transaction"
	"github.com/revenue-reconciler/internal/reconciliation/service"
)

var ErrInvalidSign = errors.New("ltv delta sign must be +1 or -1")

// LTVAggregatorImpl implements the LTVAggregator interface
type LTVAggregatorImpl struct {
	personRepo person.Repository
	txRepo     transaction.Repository
	outboxRepo outbox.Repository
	tolerance  int64
	logger     *slog.Logger
}

func NewLTVAggregator(
	personRepo person.Repository,
	txRepo transaction.Repository,
	outboxRepo outbox.Repository,
	driftTolerance int64,
	logger *slog.Logger,
) service.LTVAggregator {
	return &LTVAggregatorImpl{
		personRepo: personRepo,
		txRepo:     txRepo,
		outboxRepo: outboxRepo,
		tolerance:  driftTolerance,
		logger:     logger,
	}
}

// ApplyDelta moves the person's totals by sign*amount and records the change in
// the outbox, both inside the caller's transaction. Totals may go negative.
func (a *LTVAggregatorImpl) ApplyDelta(
	ctx context.Context,
	tx pgx.Tx,
	personID uuid.UUID,
	amount shared.CategoryAmount,
	sign int64,
	cause service.Cause,
) (person.LTV, error) {
	if sign != 1 && sign != -1 {
		return person.LTV{}, ErrInvalidSign
	}

	delta := shared.CategoryAmount{Category: amount.Category, AmountMinor: sign * amount.AmountMinor}

	ltv, err := a.personRepo.WithTx(tx).ApplyLTVDelta(ctx, personID, delta, time.Now().UTC())
	if err != nil {
		return person.LTV{}, err
	}

	event := attribution.NewEvent(cause.TransactionID, personID, delta, cause.Reason, cause.CorrelationID)
	event.Actor = cause.Actor
	message, err := outbox.NewMessage(event)
	if err != nil {
		a.logger.Error("Failed to create outbox message (marshal payload)", "event_id", event.EventID.String(), "error", err)
		return person.LTV{}, fmt.Errorf("failed to create outbox message payload for person %s: %w", personID.String(), err)
	}

	if err := a.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		return person.LTV{}, fmt.Errorf("failed to create outbox message for person %s: %w", personID.String(), err)
	}

	a.logger.Debug("LTV delta applied",
		"person_id", personID.String(),
		"transaction_id", cause.TransactionID.String(),
		"category", string(delta.Category),
		"amount_delta", delta.AmountMinor,
		"ltv_all", ltv.All,
	)
	return ltv, nil
}

// RecomputeAll replaces the stored totals with the sum of the person's
// currently owned revenue-counting transactions. Running it twice changes nothing.
func (a *LTVAggregatorImpl) RecomputeAll(ctx context.Context, tx pgx.Tx, personID uuid.UUID) (person.LTV, error) {
	personRepoTx := a.personRepo.WithTx(tx)

	locked, err := personRepoTx.LockForUpdate(ctx, personID)
	if err != nil {
		return person.LTV{}, err
	}

	sums, err := a.txRepo.WithTx(tx).SumRevenueByPerson(ctx, personID)
	if err != nil {
		return person.LTV{}, err
	}
	recomputed := person.LTVFromAmounts(sums)

	if err := personRepoTx.ReplaceLTV(ctx, personID, recomputed); err != nil {
		return person.LTV{}, err
	}

	if locked.LTV != recomputed {
		a.logger.Info("LTV totals corrected by recompute",
			"person_id", personID.String(),
			"stored_all", locked.LTV.All,
			"recomputed_all", recomputed.All,
			"max_diff", locked.LTV.Diff(recomputed),
		)
	}
	return recomputed, nil
}

// Verify compares stored totals with recomputed ones without writing anything
func (a *LTVAggregatorImpl) Verify(ctx context.Context, tx pgx.Tx, personID uuid.UUID) (person.LTV, person.LTV, error) {
	p, err := a.personRepo.WithTx(tx).GetByID(ctx, personID)
	if err != nil {
		return person.LTV{}, person.LTV{}, err
	}

	sums, err := a.txRepo.WithTx(tx).SumRevenueByPerson(ctx, personID)
	if err != nil {
		return person.LTV{}, person.LTV{}, err
	}
	recomputed := person.LTVFromAmounts(sums)

	if diff := p.LTV.Diff(recomputed); diff > a.tolerance {
		consistencyErr := person.ConsistencyError{PersonID: personID, Stored: p.LTV, Recomputed: recomputed}
		a.logger.Warn("LTV drift detected", "person_id", personID.String(), "max_diff", diff, "error", consistencyErr)
		return p.LTV, recomputed, consistencyErr
	}

	if p.LTV.All < p.LTV.MaxCategory() {
		a.logger.Warn("All-time LTV below a category total", "person_id", personID.String(),
			"ltv_all", p.LTV.All, "max_category", p.LTV.MaxCategory())
	}

	return p.LTV, recomputed, nil
}
