package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir := t.TempDir()

	tempConfigsSubDir := filepath.Join(tempDir, "configs")
	require.NoError(t, os.Mkdir(tempConfigsSubDir, 0755))

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nMATCH_AUTO_ATTACH_THRESHOLD=%d\nIDENTITY_DEFAULT_REGION=%s\n",
		"TestReconciler", 9090, "debug", 90, "au",
	)
	err := os.WriteFile(filepath.Join(tempConfigsSubDir, "test_happy.env"), []byte(envContent), 0644)
	require.NoError(t, err)

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()
	require.NoError(t, os.Chdir(tempDir))

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "TestReconciler", cfg.Application.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 90, cfg.Matching.AutoAttachThreshold)
	assert.Equal(t, "AU", cfg.Identity.DefaultRegion)

	// Untouched values fall back to defaults
	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, "ingestion_batches", cfg.Kafka.BatchTopic)
	assert.Equal(t, 10, cfg.Matching.TieWindow)
	assert.Equal(t, 5, cfg.Matching.MaxSuggestions)
	assert.Equal(t, 100, cfg.Matching.EmailWeight)
	assert.True(t, cfg.Matching.CreatePersonWhenUnknown)
	assert.Empty(t, cfg.Postgres.MigrationsPath)

	cfgWithName, err := LoadConfigWithName("configs/test_happy")
	require.NoError(t, err)
	assert.Equal(t, "TestReconciler", cfgWithName.Application.Name)
}

func TestLoadConfig_EnvironmentOverridesDefaults(t *testing.T) {
	tempDir := t.TempDir()
	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()
	require.NoError(t, os.Chdir(tempDir))

	t.Setenv("MATCH_TIE_WINDOW", "15")
	t.Setenv("WORKER_POOL_SIZE", "8")

	cfg, err := LoadConfig("missing_file")
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Matching.TieWindow)
	assert.Equal(t, 8, cfg.WorkerPool.Size)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	tempDir := t.TempDir()
	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()
	require.NoError(t, os.Chdir(tempDir))

	cfg, err := LoadConfig("defaults_only")
	require.NoError(t, err)
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	t.Run("DefaultsAreValid", func(t *testing.T) {
		cfg := defaultConfig(t)
		assert.NoError(t, cfg.validate())
	})

	t.Run("CollectsEveryViolation", func(t *testing.T) {
		cfg := defaultConfig(t)
		cfg.Kafka.BatchTopic = ""
		cfg.Postgres.URL = ""
		cfg.Matching.MaxSuggestions = 0
		cfg.Identity.DefaultRegion = "USA"

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "KAFKA_BATCH_TOPIC is required")
		assert.Contains(t, err.Error(), "POSTGRES_URL is required")
		assert.Contains(t, err.Error(), "MATCH_MAX_SUGGESTIONS must be greater than 0")
		assert.Contains(t, err.Error(), "IDENTITY_DEFAULT_REGION must be a 2-letter region code")
	})

	t.Run("FuzzyWeightMustStayBelowThreshold", func(t *testing.T) {
		cfg := defaultConfig(t)
		cfg.Matching.FuzzyNameWeight = 80

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MATCH_FUZZY_NAME_WEIGHT must stay below MATCH_AUTO_ATTACH_THRESHOLD")
	})
}

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	assert.Equal(t, 80, v.GetInt("MATCH_AUTO_ATTACH_THRESHOLD"))
	assert.Equal(t, 50, v.GetInt("MATCH_FULL_NAME_WEIGHT"))
	assert.Equal(t, 20, v.GetInt("MATCH_LAST_NAME_INITIAL_WEIGHT"))
	assert.Equal(t, "ingestion_batches_dlq", v.GetString("KAFKA_DLQ_TOPIC"))
}
