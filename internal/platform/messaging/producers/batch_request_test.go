package producers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ KafkaWriter = (*MockKafkaWriter)(nil)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBatchProducer_PublishBatch(t *testing.T) {
	ctx := context.Background()
	newBatch := func(provider string) *shared.BatchRequest {
		return &shared.BatchRequest{
			BatchID:       uuid.New(),
			Provider:      provider,
			CorrelationID: "corr-" + provider,
			Records:       []json.RawMessage{json.RawMessage(`{"external_id":"g-1"}`)},
		}
	}

	t.Run("SuccessfulPublishKeyedByProvider", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &BatchProducer{logger: newTestLogger(), writer: mockWriter, topic: "provider-batches"}

		batch := newBatch("glofox")
		expected, err := json.Marshal(batch)
		require.NoError(t, err)

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			headers := map[string]string{}
			for _, h := range msgs[0].Headers {
				headers[h.Key] = string(h.Value)
			}
			return string(msgs[0].Key) == "glofox" &&
				string(msgs[0].Value) == string(expected) &&
				headers["batch-id"] == batch.BatchID.String() &&
				headers["correlation-id"] == "corr-glofox"
		})).Return(nil).Once()

		require.NoError(t, producer.PublishBatch(ctx, batch))
		mockWriter.AssertExpectations(t)
	})

	t.Run("PublishReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &BatchProducer{logger: newTestLogger(), writer: mockWriter, topic: "provider-batches"}
		writerError := errors.New("kafka write error")

		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerError).Once()

		err := producer.PublishBatch(ctx, newBatch("stripe"))
		require.Error(t, err)
		assert.ErrorIs(t, err, writerError)
	})

	t.Run("PublishRejectsUnmarshalableRecord", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &BatchProducer{logger: newTestLogger(), writer: mockWriter, topic: "provider-batches"}

		batch := newBatch("crm")
		batch.Records = []json.RawMessage{json.RawMessage(`{not json`)}

		err := producer.PublishBatch(ctx, batch)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to marshal batch")
		mockWriter.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
	})
}

func TestBatchProducer_Close(t *testing.T) {
	t.Run("SuccessfulClose", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &BatchProducer{logger: newTestLogger(), writer: mockWriter, topic: "provider-batches"}
		mockWriter.On("Close").Return(nil).Once()

		require.NoError(t, producer.Close())
		mockWriter.AssertExpectations(t)
	})

	t.Run("CloseReturnsErrorOnWriterCloseError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &BatchProducer{logger: newTestLogger(), writer: mockWriter, topic: "provider-batches"}
		closeError := errors.New("kafka close error")
		mockWriter.On("Close").Return(closeError).Once()

		assert.ErrorIs(t, producer.Close(), closeError)
	})
}
