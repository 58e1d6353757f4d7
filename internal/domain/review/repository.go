package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages the manual match queue
type Repository interface {
	// Create stores an entry unless the transaction already has an open one
	Create(ctx context.Context, entry *Entry) (bool, error)
	ListOpen(ctx context.Context, limit, offset int) ([]*Entry, error)
	CountOpen(ctx context.Context) (int64, error)
	GetOpenByTransactionID(ctx context.Context, transactionID uuid.UUID) (*Entry, error)
	Resolve(ctx context.Context, transactionID uuid.UUID, resolvedBy string, at time.Time) (bool, error)
	DeleteByProvider(ctx context.Context, provider string) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates no open queue entry for the transaction
type ErrEntryNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "open review entry not found for transaction: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
