package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/domain/person"
	"github.com/revenue-reconciler/internal/domain/review"
)

var (
	ErrInvalidResolution = errors.New("transaction_id, person_id and resolved_by are required")
	ErrMissingProvider   = errors.New("provider is required")
)

// Action is what the resolver decided to do with a transaction
type Action int

const (
	ActionQueue Action = iota
	ActionAutoAttach
	ActionCreatePerson
)

func (a Action) String() string {
	switch a {
	case ActionAutoAttach:
		return "auto_attach"
	case ActionCreatePerson:
		return "create_person"
	default:
		return "queue"
	}
}

// Decision is the outcome of matching one transaction.
// PersonID and Score are set for ActionAutoAttach; Candidates and Reason for ActionQueue.
type Decision struct {
	Action     Action
	PersonID   uuid.UUID
	Score      int
	Candidates []review.Candidate
	Reason     review.Reason
}

// IngestionResult is reported back to the sync orchestrator and the audit log
type IngestionResult struct {
	BatchID          uuid.UUID     `json:"batch_id"`
	Provider         string        `json:"provider"`
	RecordsProcessed int           `json:"records_processed"`
	Added            int           `json:"added"`
	Duplicates       int           `json:"duplicates"`
	AutoMatched      int           `json:"auto_matched"`
	QueuedForReview  int           `json:"queued_for_review"`
	PersonsCreated   int           `json:"persons_created"`
	Errors           []RecordError `json:"errors"`
}

// RecordError reports a single rejected record
type RecordError struct {
	ExternalID string `json:"external_id"`
	Reason     string `json:"reason"`
}

// ManualResolution is a reviewer's forced attach
type ManualResolution struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	PersonID      uuid.UUID `json:"person_id"`
	ResolvedBy    string    `json:"resolved_by"`
}

func (r ManualResolution) Validate() error {
	if r.TransactionID == uuid.Nil || r.PersonID == uuid.Nil || r.ResolvedBy == "" {
		return ErrInvalidResolution
	}
	return nil
}

// PurgeResult summarizes a provider-wide purge
type PurgeResult struct {
	Provider            string `json:"provider"`
	TransactionsDeleted int64  `json:"transactions_deleted"`
	QueueEntriesDeleted int64  `json:"queue_entries_deleted"`
	PersonsDeleted      int64  `json:"persons_deleted"`
}

// LTVReport compares stored totals with totals recomputed from owned transactions
type LTVReport struct {
	PersonID   uuid.UUID  `json:"person_id"`
	Stored     person.LTV `json:"stored"`
	Recomputed person.LTV `json:"recomputed"`
	Consistent bool       `json:"consistent"`
	MaxDiff    int64      `json:"max_diff"`
}

// RecomputeReport summarizes a recompute over every person
type RecomputeReport struct {
	Persons int             `json:"persons"`
	Failed  []PersonFailure `json:"failed"`
}

type PersonFailure struct {
	PersonID uuid.UUID `json:"person_id"`
	Reason   string    `json:"reason"`
}
