package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/shared"
)

// Repository defines transaction persistence operations
type Repository interface {
	// Insert stores a new transaction. A (provider, external_id) conflict returns
	// ErrDuplicateTransaction and leaves the stored row untouched.
	Insert(ctx context.Context, txn *Transaction) error
	Exists(ctx context.Context, provider, externalID string) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// LockForUpdate acquires a pessimistic lock for ownership changes
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Transaction, error)
	Update(ctx context.Context, txn *Transaction) error

	ListByProviderForUpdate(ctx context.Context, provider string) ([]*Transaction, error)
	ListByPerson(ctx context.Context, personID uuid.UUID, limit, offset int) ([]*Transaction, error)
	DeleteByProvider(ctx context.Context, provider string) (int64, error)

	// SumRevenueByPerson totals the person's revenue-counting transactions per stored category
	SumRevenueByPerson(ctx context.Context, personID uuid.UUID) ([]shared.CategoryAmount, error)
	WithTx(tx pgx.Tx) Repository
}
