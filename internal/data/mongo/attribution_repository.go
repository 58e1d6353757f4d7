package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/revenue-reconciler/internal/domain/attribution"
	"github.com/revenue-reconciler/internal/platform/persistence"
)

// AttributionRepository implements the attribution.Repository interface for MongoDB
type AttributionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewAttributionRepository(logger *slog.Logger, db *mongo.Database) attribution.Repository {
	return &AttributionRepository{
		db:     db,
		logger: logger,
	}
}

// Record stores an event keyed by its event id. Re-publishing the same event
// after a poller retry leaves the stored document unchanged.
func (r *AttributionRepository) Record(ctx context.Context, event *attribution.Event) error {
	collection := r.db.Collection(persistence.AttributionEventsCollection)

	filter := bson.M{"_id": event.EventID}
	update := bson.M{"$setOnInsert": event}
	opts := options.Update().SetUpsert(true)

	if _, err := collection.UpdateOne(ctx, filter, update, opts); err != nil {
		r.logger.Error("Failed to record attribution event",
			"event_id", event.EventID.String(),
			"person_id", event.PersonID.String(),
			"error", err)
		return fmt.Errorf("failed to record attribution event: %w", err)
	}

	return nil
}

// ListByPerson returns a person's attribution history, newest first
func (r *AttributionRepository) ListByPerson(ctx context.Context, personID uuid.UUID, limit, offset int) ([]*attribution.Event, error) {
	collection := r.db.Collection(persistence.AttributionEventsCollection)

	opts := options.Find().
		SetSort(bson.D{{Key: "applied_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{"person_id": personID}, opts)
	if err != nil {
		r.logger.Error("Failed to list attribution events", "person_id", personID.String(), "error", err)
		return nil, fmt.Errorf("failed to list attribution events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*attribution.Event
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode attribution events", "person_id", personID.String(), "error", err)
		return nil, fmt.Errorf("failed to decode attribution events: %w", err)
	}

	return events, nil
}
