// Package mongo holds the append-only audit stores: sync run logs and the
// published attribution event history.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/revenue-reconciler/internal/domain/synclog"
	"github.com/revenue-reconciler/internal/platform/persistence"
)

// SyncLogRepository implements the synclog.Repository interface for MongoDB
type SyncLogRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewSyncLogRepository creates a new MongoDB sync log repository
func NewSyncLogRepository(logger *slog.Logger, db *mongo.Database) synclog.Repository {
	return &SyncLogRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts one sync run record. Entries are never updated.
func (r *SyncLogRepository) Append(ctx context.Context, entry *synclog.Entry) error {
	collection := r.db.Collection(persistence.SyncLogsCollection)

	if _, err := collection.InsertOne(ctx, entry); err != nil {
		r.logger.Error("Failed to append sync log entry",
			"provider", entry.Provider,
			"batch_id", entry.BatchID.String(),
			"error", err)
		return fmt.Errorf("failed to append sync log entry: %w", err)
	}

	return nil
}

// List returns sync log entries newest first, optionally for one provider
func (r *SyncLogRepository) List(ctx context.Context, provider string, limit, offset int) ([]*synclog.Entry, error) {
	collection := r.db.Collection(persistence.SyncLogsCollection)

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, providerFilter(provider), opts)
	if err != nil {
		r.logger.Error("Failed to list sync log entries", "provider", provider, "error", err)
		return nil, fmt.Errorf("failed to list sync log entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*synclog.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode sync log entries", "provider", provider, "error", err)
		return nil, fmt.Errorf("failed to decode sync log entries: %w", err)
	}

	return entries, nil
}

// Count returns the number of entries, optionally for one provider
func (r *SyncLogRepository) Count(ctx context.Context, provider string) (int64, error) {
	collection := r.db.Collection(persistence.SyncLogsCollection)

	count, err := collection.CountDocuments(ctx, providerFilter(provider))
	if err != nil {
		r.logger.Error("Failed to count sync log entries", "provider", provider, "error", err)
		return 0, fmt.Errorf("failed to count sync log entries: %w", err)
	}

	return count, nil
}

func providerFilter(provider string) bson.M {
	if provider == "" {
		return bson.M{}
	}
	return bson.M{"provider": provider}
}
