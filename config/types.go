package config

import (
	"time"
)

// Config aggregates all service configuration blocks.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Redis      RedisConfig      `json:"redis"`
	NLP        NLPConfig        `json:"nlp"`
	Extractor  ExtractorConfig  `json:"extractor"`
	Enrichment EnrichmentConfig `json:"enrichment"`
	Similarity SimilarityConfig `json:"similarity"`
	Retry      RetryConfig      `json:"retry"`
}

type ServerConfig struct {
	Port            int           `json:"port" env:"SERVER_PORT" default:"9300"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"300s"`
}

type DatabaseConfig struct {
	Host     string `json:"host" env:"DB_HOST" default:"localhost"`
	Port     string `json:"port" env:"DB_PORT" default:"5432"`
	Name     string `json:"name" env:"DB_NAME" default:"articles"`
	User     string `json:"user" env:"DB_USER" default:"enricher"`
	Password string `json:"password" env:"DB_PASSWORD"`
	SSLMode  string `json:"ssl_mode" env:"DB_SSL_MODE" default:"prefer"`
	MaxConns int32  `json:"max_conns" env:"DB_MAX_CONNS" default:"20"`
	MinConns int32  `json:"min_conns" env:"DB_MIN_CONNS" default:"5"`
}

type RedisConfig struct {
	Address      string        `json:"address" env:"REDIS_ADDRESS" default:"localhost:6379"`
	Password     string        `json:"password" env:"REDIS_PASSWORD"`
	DB           int           `json:"db" env:"REDIS_DB" default:"0"`
	Stream       string        `json:"stream" env:"REDIS_STREAM" default:"enrichment-events"`
	StreamMaxLen int64         `json:"stream_max_len" env:"REDIS_STREAM_MAX_LEN" default:"10000"`
	DialTimeout  time.Duration `json:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" default:"5s"`
	Enabled      bool          `json:"enabled" env:"REDIS_ENABLED" default:"true"`
}

type NLPConfig struct {
	Host               string        `json:"host" env:"NLP_PROVIDER_HOST" default:"http://nlp-provider:8500"`
	EntitiesPath       string        `json:"entities_path" env:"NLP_ENTITIES_PATH" default:"/api/v1/entities"`
	ZeroShotPath       string        `json:"zero_shot_path" env:"NLP_ZERO_SHOT_PATH" default:"/api/v1/zero-shot"`
	SentimentPath      string        `json:"sentiment_path" env:"NLP_SENTIMENT_PATH" default:"/api/v1/sentiment"`
	Timeout            time.Duration `json:"timeout" env:"NLP_TIMEOUT" default:"30s"`
	TagLabels          []string      `json:"tag_labels" env:"NLP_TAG_LABELS"`
	HypothesisTemplate string        `json:"hypothesis_template" env:"NLP_HYPOTHESIS_TEMPLATE" default:"This article is about {}."`
	MinTagConfidence   float64       `json:"min_tag_confidence" env:"NLP_MIN_TAG_CONFIDENCE" default:"0.3"`
}

type ExtractorConfig struct {
	Timeout      time.Duration `json:"timeout" env:"EXTRACTOR_TIMEOUT" default:"30s"`
	UserAgent    string        `json:"user_agent" env:"EXTRACTOR_USER_AGENT" default:"Mozilla/5.0 (compatible; EnricherBot/1.0)"`
	MaxBodyBytes int64         `json:"max_body_bytes" env:"EXTRACTOR_MAX_BODY_BYTES" default:"5242880"`
}

type EnrichmentConfig struct {
	BatchSize    int           `json:"batch_size" env:"ENRICHMENT_BATCH_SIZE" default:"10"`
	MaxRetries   int           `json:"max_retries" env:"ENRICHMENT_MAX_RETRIES" default:"3"`
	StepTimeout  time.Duration `json:"step_timeout" env:"ENRICHMENT_STEP_TIMEOUT" default:"60s"`
	SkipEnriched bool          `json:"skip_enriched" env:"ENRICHMENT_SKIP_ENRICHED" default:"true"`
}

type SimilarityConfig struct {
	RecencyWindow time.Duration `json:"recency_window" env:"SIMILARITY_RECENCY_WINDOW" default:"720h"`
	MinSimilarity float64       `json:"min_similarity" env:"SIMILARITY_MIN_SIMILARITY" default:"0.4"`
	MaxResults    int           `json:"max_results" env:"SIMILARITY_MAX_RESULTS" default:"10"`
	PreferRecent  bool          `json:"prefer_recent" env:"SIMILARITY_PREFER_RECENT" default:"true"`
}

type RetryConfig struct {
	BaseDelay time.Duration `json:"base_delay" env:"RETRY_BASE_DELAY" default:"1s"`
	MaxDelay  time.Duration `json:"max_delay" env:"RETRY_MAX_DELAY" default:"30s"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            9300,
			ShutdownTimeout: 30 * time.Second,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    300 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			Name:     "articles",
			User:     "enricher",
			SSLMode:  "prefer",
			MaxConns: 20,
			MinConns: 5,
		},
		Redis: RedisConfig{
			Address:      "localhost:6379",
			DB:           0,
			Stream:       "enrichment-events",
			StreamMaxLen: 10000,
			DialTimeout:  5 * time.Second,
			Enabled:      true,
		},
		NLP: NLPConfig{
			Host:               "http://nlp-provider:8500",
			EntitiesPath:       "/api/v1/entities",
			ZeroShotPath:       "/api/v1/zero-shot",
			SentimentPath:      "/api/v1/sentiment",
			Timeout:            30 * time.Second,
			TagLabels:          defaultTagLabels(),
			HypothesisTemplate: "This article is about {}.",
			MinTagConfidence:   0.3,
		},
		Extractor: ExtractorConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Mozilla/5.0 (compatible; EnricherBot/1.0)",
			MaxBodyBytes: 5 * 1024 * 1024,
		},
		Enrichment: EnrichmentConfig{
			BatchSize:    10,
			MaxRetries:   3,
			StepTimeout:  60 * time.Second,
			SkipEnriched: true,
		},
		Similarity: SimilarityConfig{
			RecencyWindow: 720 * time.Hour,
			MinSimilarity: 0.4,
			MaxResults:    10,
			PreferRecent:  true,
		},
		Retry: RetryConfig{
			BaseDelay: 1 * time.Second,
			MaxDelay:  30 * time.Second,
		},
	}
}

func defaultTagLabels() []string {
	return []string{
		"politics",
		"business",
		"technology",
		"science",
		"health",
		"sports",
		"entertainment",
		"world",
		"economy",
		"climate",
		"education",
		"crime",
	}
}
