package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/revenue-reconciler/internal/domain/shared"
	"github.com/revenue-reconciler/internal/domain/synclog"
	"github.com/revenue-reconciler/internal/reconciliation/service"
)

// SyncRecorderImpl appends one audit entry per ingestion run
type SyncRecorderImpl struct {
	syncLogRepo synclog.Repository
	logger      *slog.Logger
}

func NewSyncRecorder(syncLogRepo synclog.Repository, logger *slog.Logger) service.SyncRecorder {
	return &SyncRecorderImpl{
		syncLogRepo: syncLogRepo,
		logger:      logger,
	}
}

func (r *SyncRecorderImpl) Record(ctx context.Context, batch *shared.BatchRequest, result *service.IngestionResult, runErr error) error {
	entry := &synclog.Entry{
		ID:            uuid.New(),
		Provider:      batch.Provider,
		BatchID:       batch.BatchID,
		CorrelationID: batch.CorrelationID,
		Timestamp:     time.Now().UTC(),
	}

	if result != nil {
		entry.Provider = result.Provider
		entry.RecordsProcessed = result.RecordsProcessed
		entry.Added = result.Added
		entry.Duplicates = result.Duplicates
		entry.AutoMatched = result.AutoMatched
		entry.QueuedForReview = result.QueuedForReview
		entry.PersonsCreated = result.PersonsCreated
		entry.ErrorCount = len(result.Errors)
		entry.Detail = fmt.Sprintf("added=%d duplicates=%d auto_matched=%d queued_for_review=%d persons_created=%d errors=%d",
			result.Added, result.Duplicates, result.AutoMatched, result.QueuedForReview, result.PersonsCreated, len(result.Errors))
		if len(result.Errors) > 0 {
			first := result.Errors[0]
			entry.Error = fmt.Sprintf("%d record(s) rejected, first %q: %s", len(result.Errors), first.ExternalID, first.Reason)
		}
	}

	if runErr != nil {
		entry.Error = runErr.Error()
		if entry.Detail == "" {
			entry.Detail = fmt.Sprintf("batch of %d record(s) not ingested", len(batch.Records))
		}
	}

	if err := r.syncLogRepo.Append(ctx, entry); err != nil {
		return err
	}

	r.logger.Info("Sync run recorded",
		"provider", entry.Provider,
		"batch_id", entry.BatchID.String(),
		"error_count", entry.ErrorCount,
	)
	return nil
}
