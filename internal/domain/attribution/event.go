package attribution

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/domain/shared"
)

// Reason names the operation that moved revenue
type Reason string

const (
	ReasonAttach           Reason = "attach"
	ReasonReattribute      Reason = "reattribute"
	ReasonDetach           Reason = "detach"
	ReasonAmountCorrection Reason = "amount_correction"
	ReasonPurge            Reason = "purge"
)

// Event records one LTV delta applied to a person
type Event struct {
	EventID       uuid.UUID       `json:"event_id" bson:"_id"`
	TransactionID uuid.UUID       `json:"transaction_id" bson:"transaction_id"`
	PersonID      uuid.UUID       `json:"person_id" bson:"person_id"`
	Category      shared.Category `json:"category" bson:"category"`
	AmountDelta   int64           `json:"amount_delta" bson:"amount_delta"`
	Reason        Reason          `json:"reason" bson:"reason"`
	Actor         string          `json:"actor,omitempty" bson:"actor,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	AppliedAt     time.Time       `json:"applied_at" bson:"applied_at"`
	PublishedAt   *time.Time      `json:"published_at,omitempty" bson:"published_at,omitempty"`
}

func NewEvent(transactionID, personID uuid.UUID, delta shared.CategoryAmount, reason Reason, correlationID string) *Event {
	return &Event{
		EventID:       uuid.New(),
		TransactionID: transactionID,
		PersonID:      personID,
		Category:      delta.Category,
		AmountDelta:   delta.AmountMinor,
		Reason:        reason,
		CorrelationID: correlationID,
		AppliedAt:     time.Now().UTC(),
	}
}

// Repository stores the published attribution history
type Repository interface {
	// Record is idempotent on EventID
	Record(ctx context.Context, event *Event) error
	ListByPerson(ctx context.Context, personID uuid.UUID, limit, offset int) ([]*Event, error)
}
