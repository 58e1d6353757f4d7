// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be rebound to a pgx.Tx so that ownership changes, LTV
// deltas and outbox events commit together.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/domain/transaction"
	"github.com/revenue-reconciler/internal/platform/persistence"
)

const transactionColumns = `id, provider, external_id, occurred_at, amount_minor, currency, description, category,
		provider_status, name_hint, email_hint, phone_hint, raw_payload, status, confidence, person_id,
		created_at, updated_at`

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier // Can be a pool or pgx.Tx
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Insert stores a new transaction. The unique (provider, external_id) constraint
// decides concurrent inserts: the loser gets ErrDuplicateTransaction.
func (r *TransactionRepository) Insert(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (provider, external_id) DO NOTHING
		RETURNING id
	`

	var id uuid.UUID
	err := r.querier.QueryRow(ctx, query,
		txn.ID,
		txn.Provider,
		txn.ExternalID,
		txn.OccurredAt,
		txn.AmountMinor,
		txn.Currency,
		txn.Description,
		txn.Category,
		txn.ProviderStatus,
		txn.NameHint,
		txn.EmailHint,
		txn.PhoneHint,
		txn.RawPayload,
		txn.Status,
		txn.Confidence,
		txn.PersonID,
		txn.CreatedAt,
		txn.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return transaction.ErrDuplicateTransaction{Provider: txn.Provider, ExternalID: txn.ExternalID}
		}
		r.logger.Error("Failed to insert transaction",
			"provider", txn.Provider,
			"external_id", txn.ExternalID,
			"error", err,
		)
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// Exists reports whether the dedup key is already recorded
func (r *TransactionRepository) Exists(ctx context.Context, provider, externalID string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM transactions WHERE provider = $1 AND external_id = $2)
	`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, provider, externalID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check transaction existence",
			"provider", provider,
			"external_id", externalID,
			"error", err,
		)
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}

	return exists, nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// LockForUpdate obtains a pessimistic lock on the transaction row.
// Must be called inside a transaction.
func (r *TransactionRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to lock transaction for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock transaction for update: %w", err)
	}

	return txn, nil
}

// Update persists the mutable fields of a transaction
func (r *TransactionRepository) Update(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET person_id = $1, status = $2, confidence = $3, amount_minor = $4, category = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := r.querier.Exec(ctx, query,
		txn.PersonID,
		txn.Status,
		txn.Confidence,
		txn.AmountMinor,
		txn.Category,
		txn.UpdatedAt,
		txn.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update transaction", "id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{TransactionID: txn.ID}
	}

	return nil
}

// ListByProviderForUpdate locks every transaction of a provider, ordered by id
func (r *TransactionRepository) ListByProviderForUpdate(ctx context.Context, provider string) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE provider = $1 ORDER BY id FOR UPDATE`

	rows, err := r.querier.Query(ctx, query, provider)
	if err != nil {
		r.logger.Error("Failed to list provider transactions", "provider", provider, "error", err)
		return nil, fmt.Errorf("failed to list provider transactions: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// ListByPerson returns a page of the person's transactions, newest first
func (r *TransactionRepository) ListByPerson(ctx context.Context, personID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE person_id = $1
		ORDER BY occurred_at DESC, id
		LIMIT $2 OFFSET $3`

	rows, err := r.querier.Query(ctx, query, personID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list person transactions", "person_id", personID.String(), "error", err)
		return nil, fmt.Errorf("failed to list person transactions: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *TransactionRepository) collect(rows pgx.Rows) ([]*transaction.Transaction, error) {
	var txns []*transaction.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction", "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transactions", "error", err)
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return txns, nil
}

// DeleteByProvider removes every transaction of a provider. Callers reverse
// the LTV contributions first.
func (r *TransactionRepository) DeleteByProvider(ctx context.Context, provider string) (int64, error) {
	query := `DELETE FROM transactions WHERE provider = $1`

	result, err := r.querier.Exec(ctx, query, provider)
	if err != nil {
		r.logger.Error("Failed to delete provider transactions", "provider", provider, "error", err)
		return 0, fmt.Errorf("failed to delete provider transactions: %w", err)
	}

	return result.RowsAffected(), nil
}

// SumRevenueByPerson totals revenue-counting transactions per category
func (r *TransactionRepository) SumRevenueByPerson(ctx context.Context, personID uuid.UUID) ([]shared.CategoryAmount, error) {
	query := `
		SELECT category, COALESCE(SUM(amount_minor), 0)::BIGINT
		FROM transactions
		WHERE person_id = $1 AND status = $2 AND confidence IN ($3, $4)
		GROUP BY category
		ORDER BY category
	`

	rows, err := r.querier.Query(ctx, query, personID,
		shared.TransactionStatusCompleted,
		shared.ConfidenceMatched,
		shared.ConfidenceManuallyMatched,
	)
	if err != nil {
		r.logger.Error("Failed to sum person revenue", "person_id", personID.String(), "error", err)
		return nil, fmt.Errorf("failed to sum person revenue: %w", err)
	}
	defer rows.Close()

	var amounts []shared.CategoryAmount
	for rows.Next() {
		var a shared.CategoryAmount
		if err := rows.Scan(&a.Category, &a.AmountMinor); err != nil {
			r.logger.Error("Failed to scan revenue sum", "error", err)
			return nil, fmt.Errorf("failed to scan revenue sum: %w", err)
		}
		amounts = append(amounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over revenue sums: %w", err)
	}

	return amounts, nil
}

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.Provider,
		&txn.ExternalID,
		&txn.OccurredAt,
		&txn.AmountMinor,
		&txn.Currency,
		&txn.Description,
		&txn.Category,
		&txn.ProviderStatus,
		&txn.NameHint,
		&txn.EmailHint,
		&txn.PhoneHint,
		&txn.RawPayload,
		&txn.Status,
		&txn.Confidence,
		&txn.PersonID,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
