package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/domain/attribution"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/review"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/domain/synclog"
	"github.com/revenue-reconciler/internal/domain/transaction"
)

// BatchService accepts provider batches for asynchronous ingestion
type BatchService interface {
	// SubmitBatch validates the envelope, assigns a batch id and publishes it.
	// Returns shared.ErrMissingProvider or shared.ErrEmptyBatch for a bad envelope.
	SubmitBatch(ctx context.Context, batch *shared.BatchRequest) (*shared.BatchRequest, error)
}

// QueueItem is an open review entry together with the transaction it parks
type QueueItem struct {
	Entry       *review.Entry
	Transaction *transaction.Transaction
}

// ReviewQueueService reads the manual match queue
type ReviewQueueService interface {
	// ListOpen returns open entries oldest first, plus the total number of open entries
	ListOpen(ctx context.Context, page, perPage int) ([]*QueueItem, int64, error)
}

// PersonService reads persons and their attribution history
type PersonService interface {
	// GetPerson returns nil if the person does not exist
	GetPerson(ctx context.Context, id uuid.UUID) (*person.Person, error)
	ListTransactions(ctx context.Context, personID uuid.UUID, page, perPage int) ([]*transaction.Transaction, error)
	ListAttributionEvents(ctx context.Context, personID uuid.UUID, page, perPage int) ([]*attribution.Event, error)
}

// SyncLogService reads the audit trail of ingestion runs
type SyncLogService interface {
	List(ctx context.Context, provider string, page, perPage int) ([]*synclog.Entry, int64, error)
}
