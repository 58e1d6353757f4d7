package shared

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingProvider = errors.New("batch provider is required")
	ErrEmptyBatch      = errors.New("batch contains no records")
)

// BatchRequest defines a Kafka message carrying one normalized sync batch for a provider.
// Records stay raw so that a single malformed record is rejected on its own.
type BatchRequest struct {
	BatchID       uuid.UUID         `json:"batch_id"`
	Provider      string            `json:"provider"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	SubmittedAt   time.Time         `json:"submitted_at"`
	Records       []json.RawMessage `json:"records"`
}

// Validate checks the batch envelope. Record contents are validated one by one during ingestion.
func (b *BatchRequest) Validate() error {
	if strings.TrimSpace(b.Provider) == "" {
		return ErrMissingProvider
	}
	if len(b.Records) == 0 {
		return ErrEmptyBatch
	}
	return nil
}
