package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/revenue-reconciler/internal/config"
	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error
	Close() error
}

// KafkaReader is the part of *kafka.Reader the consumer uses
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer implements Consumer using Kafka
type KafkaConsumer struct {
	reader       KafkaReader
	logger       *slog.Logger
	retryBackoff time.Duration
}

// NewKafkaConsumer reads the batch topic with at-least-once delivery: offsets
// are committed only after the handler succeeds.
func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	return &KafkaConsumer{
		logger:       logger,
		retryBackoff: time.Second,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.BatchTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: kafka.FirstOffset,
		}),
	}
}

// Subscribe starts consuming in the background and returns immediately
func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic",
		"topic", topic,
		"group_id", groupID,
	)

	go c.consume(ctx, topic, groupID, handler)
	return nil
}

func (c *KafkaConsumer) consume(ctx context.Context, topic, groupID string, handler MessageHandler) {
	for {
		if ctx.Err() != nil {
			c.logger.Info("Context canceled, stopping consumer", "topic", topic, "group_id", groupID)
			return
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to fetch message from Kafka", "topic", topic, "group_id", groupID, "error", err)
			c.backoff(ctx)
			continue
		}

		logger := c.logger.With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))
		logger.Debug("Received message from Kafka")

		// Commits are cumulative, so a failed message is retried in place
		// rather than skipped past.
		if !c.handleUntilDone(ctx, logger, msg, handler) {
			return
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Error("Failed to commit message after successful processing", "error", err)
			continue
		}
		logger.Debug("Message committed successfully")
	}
}

// handleUntilDone runs the handler until it succeeds. It reports false when
// the context ends first, leaving the offset uncommitted for redelivery.
func (c *KafkaConsumer) handleUntilDone(ctx context.Context, logger *slog.Logger, msg kafka.Message, handler MessageHandler) bool {
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			return true
		}
		logger.Error("Failed to process message, retrying", "attempt", attempt, "error", err)
		c.backoff(ctx)
		if ctx.Err() != nil {
			logger.Warn("Context canceled before message was processed, offset left uncommitted")
			return false
		}
	}
}

func (c *KafkaConsumer) backoff(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.retryBackoff):
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
