// Package config provides configuration structures and validation for the reconciler.
// It handles environment-based configuration for the stores, the batch transport,
// the outbox poller and the matching/classification policies of the core.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration with settings for all components.
// Each field represents a subsystem's configuration and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Matching    MatchingConfig
	Identity    IdentityConfig
	Classifier  ClassifierConfig
	LTV         LTVConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka configuration for the normalized batch topic
type KafkaConfig struct {
	Brokers           string
	BatchTopic        string
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	DLQTopic          string // Unparseable batches end up here
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string // Empty means the migrations embedded in the binary
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig contains attribution outbox configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of batches or recomputations running at once
}

// MatchingConfig holds the candidate scoring policy.
type MatchingConfig struct {
	AutoAttachThreshold     int
	TieWindow               int
	MaxSuggestions          int
	EmailWeight             int
	PhoneWeight             int
	FullNameWeight          int
	LastNameInitialWeight   int
	FuzzyNameWeight         int
	FuzzyNameMaxDistance    int
	CreatePersonWhenUnknown bool
}

// IdentityConfig holds identity normalization settings
type IdentityConfig struct {
	DefaultRegion string // ISO 3166 region used for phone numbers without a country code
}

// ClassifierConfig points at the ordered category keyword mapping
type ClassifierConfig struct {
	MappingPath string
}

// LTVConfig holds LTV verification settings
type LTVConfig struct {
	DriftToleranceMinor int64
}

// validate performs comprehensive validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT, SERVER_WRITE_TIMEOUT and SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate Kafka config
	if c.Kafka.Brokers == "" {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.BatchTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_BATCH_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 || c.Kafka.MaxBytes < c.Kafka.MinBytes {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0 and not exceed KAFKA_CONSUMER_MAX_BYTES")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate MongoDB config
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize == 0 || c.MongoDB.MinPoolSize == 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE and MONGO_MIN_POOL_SIZE must be greater than 0")
	}

	// Validate Outbox config
	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	// Validate Matching policy
	m := c.Matching
	if m.AutoAttachThreshold <= 0 {
		validationErrors = append(validationErrors, "MATCH_AUTO_ATTACH_THRESHOLD must be greater than 0")
	}
	if m.TieWindow < 0 {
		validationErrors = append(validationErrors, "MATCH_TIE_WINDOW must not be negative")
	}
	if m.MaxSuggestions <= 0 {
		validationErrors = append(validationErrors, "MATCH_MAX_SUGGESTIONS must be greater than 0")
	}
	if m.EmailWeight < 0 || m.PhoneWeight < 0 || m.FullNameWeight < 0 || m.LastNameInitialWeight < 0 || m.FuzzyNameWeight < 0 {
		validationErrors = append(validationErrors, "MATCH_*_WEIGHT values must not be negative")
	}
	if m.FuzzyNameWeight >= m.AutoAttachThreshold && m.AutoAttachThreshold > 0 {
		validationErrors = append(validationErrors, "MATCH_FUZZY_NAME_WEIGHT must stay below MATCH_AUTO_ATTACH_THRESHOLD")
	}

	if len(c.Identity.DefaultRegion) != 2 {
		validationErrors = append(validationErrors, "IDENTITY_DEFAULT_REGION must be a 2-letter region code")
	}
	if c.LTV.DriftToleranceMinor < 0 {
		validationErrors = append(validationErrors, "LTV_DRIFT_TOLERANCE_MINOR must not be negative")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
