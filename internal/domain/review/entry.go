package review

import (
	"time"

	"github.com/google/uuid"
)

// Reason explains why a transaction was parked for a reviewer
type Reason string

const (
	ReasonBelowThreshold Reason = "below_threshold"
	ReasonNearTie        Reason = "near_tie"
	ReasonNoCandidates   Reason = "no_candidates"
	ReasonDetached       Reason = "detached"
)

// Candidate is a scored person suggestion for a queued transaction
type Candidate struct {
	PersonID uuid.UUID `json:"person_id"`
	Score    int       `json:"score"`
	Rules    []string  `json:"rules"`
}

// Entry is one manual match queue task. It is open while ResolvedAt is nil.
type Entry struct {
	ID            uuid.UUID   `json:"id"`
	TransactionID uuid.UUID   `json:"transaction_id"`
	Candidates    []Candidate `json:"candidates"`
	Reason        Reason      `json:"reason"`
	CreatedAt     time.Time   `json:"created_at"`
	ResolvedAt    *time.Time  `json:"resolved_at,omitempty"`
	ResolvedBy    string      `json:"resolved_by,omitempty"`
}

func NewEntry(transactionID uuid.UUID, candidates []Candidate, reason Reason) *Entry {
	if candidates == nil {
		candidates = []Candidate{}
	}
	return &Entry{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Candidates:    candidates,
		Reason:        reason,
		CreatedAt:     time.Now().UTC(),
	}
}

func (e *Entry) IsOpen() bool {
	return e.ResolvedAt == nil
}
