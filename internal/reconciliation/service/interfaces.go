package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/revenue-reconciler/internal/domain/attribution"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/review"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/domain/transaction"
	"github.com/revenue-reconciler/internal/identity"
)

// IngestionService reconciles normalized provider batches record by record.
type IngestionService interface {
	IngestBatch(ctx context.Context, batch *shared.BatchRequest) (*IngestionResult, error)
}

// ResolutionService carries out reviewer and operator driven ownership changes.
// Each operation is atomic: ownership and LTV move together or not at all.
type ResolutionService interface {
	ResolveManualMatch(ctx context.Context, req ManualResolution) (*transaction.Transaction, error)
	Reattribute(ctx context.Context, transactionID, personID uuid.UUID, by string) (*transaction.Transaction, error)
	Detach(ctx context.Context, transactionID uuid.UUID, by string) (*transaction.Transaction, error)
	CorrectAmount(ctx context.Context, transactionID uuid.UUID, amountMinor int64, by string) (*transaction.Transaction, error)
	PurgeProvider(ctx context.Context, provider string) (*PurgeResult, error)
}

// LTVService exposes the recompute and verification paths
type LTVService interface {
	Recompute(ctx context.Context, personID uuid.UUID) (person.LTV, error)
	Verify(ctx context.Context, personID uuid.UUID) (*LTVReport, error)
	RecomputeEveryone(ctx context.Context) (*RecomputeReport, error)
}

// TxRunner runs fn inside one database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// DedupGate decides whether a provider record is already recorded
type DedupGate interface {
	IsDuplicate(ctx context.Context, provider, externalID string) (bool, error)
	// Admit inserts the transaction. It returns false when a concurrent writer
	// recorded the same dedup key first.
	Admit(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction) (bool, error)
}

// RevenueClassifier maps a description to a revenue category
type RevenueClassifier interface {
	Classify(description string) shared.Category
}

// IdentityNormalizer builds comparison keys from raw hints
type IdentityNormalizer interface {
	Keys(hints identity.Hints) identity.Keys
}

// MatchResolver scores candidates and decides what happens to a transaction
type MatchResolver interface {
	Resolve(keys identity.Keys, candidates []*person.Person) Decision
}

// PersonDirectory looks up and creates canonical persons
type PersonDirectory interface {
	FindCandidates(ctx context.Context, tx pgx.Tx, keys identity.Keys) ([]*person.Person, error)
	CreateFromHints(ctx context.Context, tx pgx.Tx, hints identity.Hints, keys identity.Keys, source string) (*person.Person, error)
	Get(ctx context.Context, tx pgx.Tx, personID uuid.UUID) (*person.Person, error)
	ListIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error)
	DeleteGhosts(ctx context.Context, tx pgx.Tx, source string) (int64, error)
}

// AttributionManager owns the transaction side of ownership changes
type AttributionManager interface {
	Lock(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID) (*transaction.Transaction, error)
	// Transition persists after and moves the revenue contribution of before
	// to the contribution of after, across owners if they differ.
	Transition(ctx context.Context, tx pgx.Tx, before, after *transaction.Transaction, cause Cause) error
	// PurgeProvider retracts every contribution of the provider's transactions and deletes them
	PurgeProvider(ctx context.Context, tx pgx.Tx, provider string, cause Cause) (int64, error)
}

// LTVAggregator maintains per-person totals
type LTVAggregator interface {
	ApplyDelta(ctx context.Context, tx pgx.Tx, personID uuid.UUID, amount shared.CategoryAmount, sign int64, cause Cause) (person.LTV, error)
	RecomputeAll(ctx context.Context, tx pgx.Tx, personID uuid.UUID) (person.LTV, error)
	// Verify returns the stored and recomputed totals, and a person.ConsistencyError
	// when they drift apart beyond tolerance.
	Verify(ctx context.Context, tx pgx.Tx, personID uuid.UUID) (stored, recomputed person.LTV, err error)
}

// ReviewQueueManager manages manual match queue entries
type ReviewQueueManager interface {
	Enqueue(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID, candidates []review.Candidate, reason review.Reason) (bool, error)
	Close(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID, resolvedBy string) (bool, error)
	PurgeProvider(ctx context.Context, tx pgx.Tx, provider string) (int64, error)
}

// SyncRecorder writes the audit record of an ingestion run
type SyncRecorder interface {
	Record(ctx context.Context, batch *shared.BatchRequest, result *IngestionResult, runErr error) error
}

// Cause identifies the operation behind an LTV delta. Actor is who asked for
// a manual change; CorrelationID ties it to the request or batch.
type Cause struct {
	TransactionID uuid.UUID
	Reason        attribution.Reason
	Actor         string
	CorrelationID string
}
