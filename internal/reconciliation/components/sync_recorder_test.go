package components

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/domain/synclog"
	"github.com/revenue-reconciler/internal/reconciliation/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSyncLog struct {
	entries []*synclog.Entry
	err     error
}

func (m *memSyncLog) Append(ctx context.Context, entry *synclog.Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memSyncLog) List(ctx context.Context, provider string, limit, offset int) ([]*synclog.Entry, error) {
	return page(m.entries, limit, offset), nil
}

func (m *memSyncLog) Count(ctx context.Context, provider string) (int64, error) {
	return int64(len(m.entries)), nil
}

func TestSyncRecorder_Record(t *testing.T) {
	ctx := context.Background()
	batch := &shared.BatchRequest{
		BatchID:       uuid.New(),
		Provider:      "Glofox",
		CorrelationID: "corr-9",
		Records:       []json.RawMessage{json.RawMessage(`{}`), json.RawMessage(`{}`)},
	}

	t.Run("completed run", func(t *testing.T) {
		repo := &memSyncLog{}
		result := &service.IngestionResult{
			BatchID:          batch.BatchID,
			Provider:         "glofox",
			RecordsProcessed: 2,
			Added:            1,
			AutoMatched:      1,
			Errors:           []service.RecordError{{ExternalID: "g-2", Reason: "currency must be a 3-letter code"}},
		}

		require.NoError(t, NewSyncRecorder(repo, newTestLogger()).Record(ctx, batch, result, nil))
		require.Len(t, repo.entries, 1)

		entry := repo.entries[0]
		assert.Equal(t, "glofox", entry.Provider)
		assert.Equal(t, batch.BatchID, entry.BatchID)
		assert.Equal(t, "corr-9", entry.CorrelationID)
		assert.Equal(t, 2, entry.RecordsProcessed)
		assert.Equal(t, 1, entry.ErrorCount)
		assert.Equal(t, "added=1 duplicates=0 auto_matched=1 queued_for_review=0 persons_created=0 errors=1", entry.Detail)
		assert.Contains(t, entry.Error, `"g-2"`)
		assert.False(t, entry.Timestamp.IsZero())
	})

	t.Run("rejected batch", func(t *testing.T) {
		repo := &memSyncLog{}
		require.NoError(t, NewSyncRecorder(repo, newTestLogger()).Record(ctx, batch, nil, shared.ErrEmptyBatch))
		require.Len(t, repo.entries, 1)
		assert.Equal(t, shared.ErrEmptyBatch.Error(), repo.entries[0].Error)
		assert.Equal(t, "batch of 2 record(s) not ingested", repo.entries[0].Detail)
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := &memSyncLog{err: errors.New("no primary")}
		err := NewSyncRecorder(repo, newTestLogger()).Record(ctx, batch, &service.IngestionResult{}, nil)
		assert.EqualError(t, err, "no primary")
	})
}
