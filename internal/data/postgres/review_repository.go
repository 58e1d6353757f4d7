package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/review"
	"github.com/revenue-reconciler/internal/platform/persistence"
)

const reviewColumns = `id, transaction_id, candidates, reason, created_at, resolved_at, resolved_by`

// ReviewRepository implements the review.Repository interface for PostgreSQL
type ReviewRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewReviewRepository(logger *slog.Logger, db *persistence.PostgresDB) review.Repository {
	return &ReviewRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *ReviewRepository) WithTx(tx pgx.Tx) review.Repository {
	return &ReviewRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts an open entry. It returns false when the transaction already
// has an open entry, which the partial unique index enforces.
func (r *ReviewRepository) Create(ctx context.Context, entry *review.Entry) (bool, error) {
	query := `
		INSERT INTO manual_match_queue (id, transaction_id, candidates, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (transaction_id) WHERE resolved_at IS NULL DO NOTHING
	`

	result, err := r.querier.Exec(ctx, query,
		entry.ID,
		entry.TransactionID,
		entry.Candidates,
		entry.Reason,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create review entry",
			"transaction_id", entry.TransactionID.String(),
			"error", err,
		)
		return false, fmt.Errorf("failed to create review entry: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ListOpen returns open entries, oldest first
func (r *ReviewRepository) ListOpen(ctx context.Context, limit, offset int) ([]*review.Entry, error) {
	query := `SELECT ` + reviewColumns + ` FROM manual_match_queue
		WHERE resolved_at IS NULL
		ORDER BY created_at ASC, id
		LIMIT $1 OFFSET $2`

	rows, err := r.querier.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list open review entries", "error", err)
		return nil, fmt.Errorf("failed to list open review entries: %w", err)
	}
	defer rows.Close()

	var entries []*review.Entry
	for rows.Next() {
		entry, err := scanReviewEntry(rows)
		if err != nil {
			r.logger.Error("Failed to scan review entry", "error", err)
			return nil, fmt.Errorf("failed to scan review entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over review entries: %w", err)
	}

	return entries, nil
}

func (r *ReviewRepository) CountOpen(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM manual_match_queue WHERE resolved_at IS NULL`

	var count int64
	if err := r.querier.QueryRow(ctx, query).Scan(&count); err != nil {
		r.logger.Error("Failed to count open review entries", "error", err)
		return 0, fmt.Errorf("failed to count open review entries: %w", err)
	}

	return count, nil
}

func (r *ReviewRepository) GetOpenByTransactionID(ctx context.Context, transactionID uuid.UUID) (*review.Entry, error) {
	query := `SELECT ` + reviewColumns + ` FROM manual_match_queue
		WHERE transaction_id = $1 AND resolved_at IS NULL`

	entry, err := scanReviewEntry(r.querier.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrEntryNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get open review entry",
			"transaction_id", transactionID.String(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to get open review entry: %w", err)
	}

	return entry, nil
}

// Resolve closes the open entry of a transaction. It returns false when there was none.
func (r *ReviewRepository) Resolve(ctx context.Context, transactionID uuid.UUID, resolvedBy string, at time.Time) (bool, error) {
	query := `
		UPDATE manual_match_queue
		SET resolved_at = $1, resolved_by = $2
		WHERE transaction_id = $3 AND resolved_at IS NULL
	`

	result, err := r.querier.Exec(ctx, query, at, resolvedBy, transactionID)
	if err != nil {
		r.logger.Error("Failed to resolve review entry",
			"transaction_id", transactionID.String(),
			"error", err,
		)
		return false, fmt.Errorf("failed to resolve review entry: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *ReviewRepository) DeleteByProvider(ctx context.Context, provider string) (int64, error) {
	query := `
		DELETE FROM manual_match_queue q
		USING transactions t
		WHERE q.transaction_id = t.id AND t.provider = $1
	`

	result, err := r.querier.Exec(ctx, query, provider)
	if err != nil {
		r.logger.Error("Failed to delete provider review entries", "provider", provider, "error", err)
		return 0, fmt.Errorf("failed to delete provider review entries: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanReviewEntry(row pgx.Row) (*review.Entry, error) {
	var entry review.Entry
	var resolvedBy *string
	err := row.Scan(
		&entry.ID,
		&entry.TransactionID,
		&entry.Candidates,
		&entry.Reason,
		&entry.CreatedAt,
		&entry.ResolvedAt,
		&resolvedBy,
	)
	if err != nil {
		return nil, err
	}
	if resolvedBy != nil {
		entry.ResolvedBy = *resolvedBy
	}
	return &entry, nil
}
