package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("should return defaults when no environment is set", func(t *testing.T) {
		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, 9300, cfg.Server.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, int32(20), cfg.Database.MaxConns)
		assert.Equal(t, "enrichment-events", cfg.Redis.Stream)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 10, cfg.Enrichment.BatchSize)
		assert.True(t, cfg.Enrichment.SkipEnriched)
		assert.Equal(t, 30*time.Second, cfg.NLP.Timeout)
		assert.Len(t, cfg.NLP.TagLabels, 12)
		assert.InDelta(t, 0.4, cfg.Similarity.MinSimilarity, 1e-9)
		assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	})

	t.Run("should apply environment overrides", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "8080")
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("DB_PASSWORD", "secret")
		t.Setenv("REDIS_ENABLED", "false")
		t.Setenv("NLP_TAG_LABELS", "politics, economy, ,sports")
		t.Setenv("ENRICHMENT_BATCH_SIZE", "25")
		t.Setenv("ENRICHMENT_STEP_TIMEOUT", "90s")
		t.Setenv("SIMILARITY_MIN_SIMILARITY", "0.55")

		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, "secret", cfg.Database.Password)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, []string{"politics", "economy", "sports"}, cfg.NLP.TagLabels)
		assert.Equal(t, 25, cfg.Enrichment.BatchSize)
		assert.Equal(t, 90*time.Second, cfg.Enrichment.StepTimeout)
		assert.InDelta(t, 0.55, cfg.Similarity.MinSimilarity, 1e-9)
	})

	t.Run("should reject malformed values", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "not-a-number")

		_, err := LoadConfig()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "SERVER_PORT")
	})

	t.Run("should reject malformed durations", func(t *testing.T) {
		t.Setenv("NLP_TIMEOUT", "fast")

		_, err := LoadConfig()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "NLP_TIMEOUT")
	})
}

func TestValidateConfig(t *testing.T) {
	t.Run("should reject an out-of-range port", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "70000")

		_, err := LoadConfig()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation")
	})

	t.Run("should reject min conns above max conns", func(t *testing.T) {
		t.Setenv("DB_MAX_CONNS", "2")
		t.Setenv("DB_MIN_CONNS", "5")

		_, err := LoadConfig()

		require.Error(t, err)
	})

	t.Run("should reject a similarity floor above one", func(t *testing.T) {
		t.Setenv("SIMILARITY_MIN_SIMILARITY", "1.5")

		_, err := LoadConfig()

		require.Error(t, err)
	})

	t.Run("should reject a max delay below the base delay", func(t *testing.T) {
		t.Setenv("RETRY_BASE_DELAY", "10s")
		t.Setenv("RETRY_MAX_DELAY", "1s")

		_, err := LoadConfig()

		require.Error(t, err)
	})
}
