package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/revenue-reconciler/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	SyncLogsCollection          = "sync_logs"
	AttributionEventsCollection = "attribution_events"
)

type MongoDB struct {
	logger   *slog.Logger
	client   *mongo.Client
	database *mongo.Database
}

func NewMongoDB(ctx context.Context, logger *slog.Logger, cfg *config.MongoDBConfig) (*MongoDB, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := &MongoDB{
		logger:   logger,
		client:   client,
		database: client.Database(cfg.Database),
	}

	indexCtx, indexCancel := context.WithTimeout(ctx, cfg.Timeout)
	defer indexCancel()
	if err := EnsureIndexes(indexCtx, db.database); err != nil {
		return nil, err
	}

	logger.Info("Connected to MongoDB", "database", cfg.Database)
	return db, nil
}

// EnsureIndexes creates the listing indexes of the audit collections
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	syncLogIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "provider", Value: 1}, {Key: "timestamp", Value: -1}},
	}
	if _, err := database.Collection(SyncLogsCollection).Indexes().CreateOne(ctx, syncLogIndex); err != nil {
		return fmt.Errorf("failed to create sync log index: %w", err)
	}

	eventIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "person_id", Value: 1}, {Key: "applied_at", Value: -1}},
	}
	if _, err := database.Collection(AttributionEventsCollection).Indexes().CreateOne(ctx, eventIndex); err != nil {
		return fmt.Errorf("failed to create attribution event index: %w", err)
	}
	return nil
}

func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

func (m *MongoDB) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	m.logger.Info("Closed MongoDB connection")
	return nil
}
