package synclog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is the append-only audit record of one sync run for a provider
type Entry struct {
	ID               uuid.UUID `json:"id" bson:"_id"`
	Provider         string    `json:"provider" bson:"provider"`
	BatchID          uuid.UUID `json:"batch_id" bson:"batch_id"`
	CorrelationID    string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Timestamp        time.Time `json:"timestamp" bson:"timestamp"`
	RecordsProcessed int       `json:"records_processed" bson:"records_processed"`
	Added            int       `json:"added" bson:"added"`
	Duplicates       int       `json:"duplicates" bson:"duplicates"`
	AutoMatched      int       `json:"auto_matched" bson:"auto_matched"`
	QueuedForReview  int       `json:"queued_for_review" bson:"queued_for_review"`
	PersonsCreated   int       `json:"persons_created" bson:"persons_created"`
	ErrorCount       int       `json:"error_count" bson:"error_count"`
	Detail           string    `json:"detail" bson:"detail"`
	Error            string    `json:"error,omitempty" bson:"error,omitempty"`
}

// Repository appends and lists sync log entries; entries are never updated
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, provider string, limit, offset int) ([]*Entry, error)
	Count(ctx context.Context, provider string) (int64, error)
}
