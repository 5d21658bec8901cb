package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadConfig builds the configuration from defaults and overrides provided via environment variables.
func LoadConfig() (*Config, error) {
	config := defaultConfig()

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func loadFromEnv(config *Config) error {
	if err := loadServerConfig(&config.Server); err != nil {
		return fmt.Errorf("failed to load server config: %w", err)
	}

	if err := loadDatabaseConfig(&config.Database); err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	if err := loadRedisConfig(&config.Redis); err != nil {
		return fmt.Errorf("failed to load redis config: %w", err)
	}

	if err := loadNLPConfig(&config.NLP); err != nil {
		return fmt.Errorf("failed to load NLP provider config: %w", err)
	}

	if err := loadExtractorConfig(&config.Extractor); err != nil {
		return fmt.Errorf("failed to load extractor config: %w", err)
	}

	if err := loadEnrichmentConfig(&config.Enrichment); err != nil {
		return fmt.Errorf("failed to load enrichment config: %w", err)
	}

	if err := loadSimilarityConfig(&config.Similarity); err != nil {
		return fmt.Errorf("failed to load similarity config: %w", err)
	}

	if err := loadRetryConfig(&config.Retry); err != nil {
		return fmt.Errorf("failed to load retry config: %w", err)
	}

	return nil
}

// loadServerConfig loads server configuration from environment variables
func loadServerConfig(cfg *ServerConfig) error {
	var err error

	if cfg.Port, err = parseIntEnv("SERVER_PORT", cfg.Port); err != nil {
		return err
	}

	if cfg.ShutdownTimeout, err = parseDurationEnv("SERVER_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return err
	}

	if cfg.ReadTimeout, err = parseDurationEnv("SERVER_READ_TIMEOUT", cfg.ReadTimeout); err != nil {
		return err
	}

	if cfg.WriteTimeout, err = parseDurationEnv("SERVER_WRITE_TIMEOUT", cfg.WriteTimeout); err != nil {
		return err
	}

	return nil
}

// loadDatabaseConfig loads database configuration from environment variables
func loadDatabaseConfig(cfg *DatabaseConfig) error {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}

	if port := os.Getenv("DB_PORT"); port != "" {
		cfg.Port = port
	}

	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}

	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}

	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}

	if mode := os.Getenv("DB_SSL_MODE"); mode != "" {
		cfg.SSLMode = mode
	}

	maxConns, err := parseIntEnv("DB_MAX_CONNS", int(cfg.MaxConns))
	if err != nil {
		return err
	}
	cfg.MaxConns = int32(maxConns)

	minConns, err := parseIntEnv("DB_MIN_CONNS", int(cfg.MinConns))
	if err != nil {
		return err
	}
	cfg.MinConns = int32(minConns)

	return nil
}

// loadRedisConfig loads redis configuration from environment variables
func loadRedisConfig(cfg *RedisConfig) error {
	var err error

	if addr := os.Getenv("REDIS_ADDRESS"); addr != "" {
		cfg.Address = addr
	}

	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}

	if cfg.DB, err = parseIntEnv("REDIS_DB", cfg.DB); err != nil {
		return err
	}

	if stream := os.Getenv("REDIS_STREAM"); stream != "" {
		cfg.Stream = stream
	}

	maxLen, err := parseIntEnv("REDIS_STREAM_MAX_LEN", int(cfg.StreamMaxLen))
	if err != nil {
		return err
	}
	cfg.StreamMaxLen = int64(maxLen)

	if cfg.DialTimeout, err = parseDurationEnv("REDIS_DIAL_TIMEOUT", cfg.DialTimeout); err != nil {
		return err
	}

	if cfg.Enabled, err = parseBoolEnv("REDIS_ENABLED", cfg.Enabled); err != nil {
		return err
	}

	return nil
}

// loadNLPConfig loads NLP provider configuration from environment variables
func loadNLPConfig(cfg *NLPConfig) error {
	var err error

	if host := os.Getenv("NLP_PROVIDER_HOST"); host != "" {
		cfg.Host = host
	}

	if path := os.Getenv("NLP_ENTITIES_PATH"); path != "" {
		cfg.EntitiesPath = path
	}

	if path := os.Getenv("NLP_ZERO_SHOT_PATH"); path != "" {
		cfg.ZeroShotPath = path
	}

	if path := os.Getenv("NLP_SENTIMENT_PATH"); path != "" {
		cfg.SentimentPath = path
	}

	if cfg.Timeout, err = parseDurationEnv("NLP_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}

	if labels := os.Getenv("NLP_TAG_LABELS"); labels != "" {
		cfg.TagLabels = splitList(labels)
	}

	if template := os.Getenv("NLP_HYPOTHESIS_TEMPLATE"); template != "" {
		cfg.HypothesisTemplate = template
	}

	if cfg.MinTagConfidence, err = parseFloatEnv("NLP_MIN_TAG_CONFIDENCE", cfg.MinTagConfidence); err != nil {
		return err
	}

	return nil
}

// loadExtractorConfig loads text extractor configuration from environment variables
func loadExtractorConfig(cfg *ExtractorConfig) error {
	var err error

	if cfg.Timeout, err = parseDurationEnv("EXTRACTOR_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}

	if agent := os.Getenv("EXTRACTOR_USER_AGENT"); agent != "" {
		cfg.UserAgent = agent
	}

	maxBytes, err := parseIntEnv("EXTRACTOR_MAX_BODY_BYTES", int(cfg.MaxBodyBytes))
	if err != nil {
		return err
	}
	cfg.MaxBodyBytes = int64(maxBytes)

	return nil
}

// loadEnrichmentConfig loads pipeline default configuration from environment variables
func loadEnrichmentConfig(cfg *EnrichmentConfig) error {
	var err error

	if cfg.BatchSize, err = parseIntEnv("ENRICHMENT_BATCH_SIZE", cfg.BatchSize); err != nil {
		return err
	}

	if cfg.MaxRetries, err = parseIntEnv("ENRICHMENT_MAX_RETRIES", cfg.MaxRetries); err != nil {
		return err
	}

	if cfg.StepTimeout, err = parseDurationEnv("ENRICHMENT_STEP_TIMEOUT", cfg.StepTimeout); err != nil {
		return err
	}

	if cfg.SkipEnriched, err = parseBoolEnv("ENRICHMENT_SKIP_ENRICHED", cfg.SkipEnriched); err != nil {
		return err
	}

	return nil
}

// loadSimilarityConfig loads similarity engine configuration from environment variables
func loadSimilarityConfig(cfg *SimilarityConfig) error {
	var err error

	if cfg.RecencyWindow, err = parseDurationEnv("SIMILARITY_RECENCY_WINDOW", cfg.RecencyWindow); err != nil {
		return err
	}

	if cfg.MinSimilarity, err = parseFloatEnv("SIMILARITY_MIN_SIMILARITY", cfg.MinSimilarity); err != nil {
		return err
	}

	if cfg.MaxResults, err = parseIntEnv("SIMILARITY_MAX_RESULTS", cfg.MaxResults); err != nil {
		return err
	}

	if cfg.PreferRecent, err = parseBoolEnv("SIMILARITY_PREFER_RECENT", cfg.PreferRecent); err != nil {
		return err
	}

	return nil
}

// loadRetryConfig loads retry configuration from environment variables
func loadRetryConfig(cfg *RetryConfig) error {
	var err error

	if cfg.BaseDelay, err = parseDurationEnv("RETRY_BASE_DELAY", cfg.BaseDelay); err != nil {
		return err
	}

	if cfg.MaxDelay, err = parseDurationEnv("RETRY_MAX_DELAY", cfg.MaxDelay); err != nil {
		return err
	}

	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return d, nil
	}
	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return i, nil
	}
	return defaultValue, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return b, nil
	}
	return defaultValue, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return f, nil
	}
	return defaultValue, nil
}
