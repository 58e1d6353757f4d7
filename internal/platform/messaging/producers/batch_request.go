package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/revenue-reconciler/internal/config"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// BatchProducer publishes provider batches. Messages are keyed by provider so
// batches of one provider stay on one partition and are ingested in order.
type BatchProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewBatchProducer ensures the batch topic exists and opens a synchronous writer
func NewBatchProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*BatchProducer, error) {
	if cfg.BatchTopic == "" {
		return nil, fmt.Errorf("kafka batch topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for batch producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.BatchTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure batch topic %s exists: %w", cfg.BatchTopic, err)
	}

	// Synchronous with all acks: a 202 to the caller means the batch is durable
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.BatchTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}

	return &BatchProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.BatchTopic,
	}, nil
}

// PublishBatch writes the batch keyed by its provider
func (p *BatchProducer) PublishBatch(ctx context.Context, batch *shared.BatchRequest) error {
	jsonValue, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch %s: %w", batch.BatchID, err)
	}

	msg := kafka.Message{
		Key:   []byte(batch.Provider),
		Value: jsonValue,
		Headers: []kafka.Header{
			{Key: "batch-id", Value: []byte(batch.BatchID.String())},
			{Key: "correlation-id", Value: []byte(batch.CorrelationID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish batch",
			"topic", p.topic,
			"provider", batch.Provider,
			"batch_id", batch.BatchID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to publish batch %s to %s: %w", batch.BatchID, p.topic, err)
	}

	p.logger.Debug("Published batch",
		"topic", p.topic,
		"provider", batch.Provider,
		"batch_id", batch.BatchID.String(),
		"records", len(batch.Records),
	)
	return nil
}

func (p *BatchProducer) Close() error {
	p.logger.Info("Closing Kafka batch producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
