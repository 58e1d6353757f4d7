package producers

import (
	"context"

	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// BatchPublisher hands accepted provider batches to the reconciler. The
// provider is the message key, so one provider's batches keep their order.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, batch *shared.BatchRequest) error
	Close() error
}

// DeadLetterPublisher parks batch messages that can never be ingested
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter is the part of *kafka.Writer the producers use
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
