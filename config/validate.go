package config

import (
	"fmt"
)

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}

	if config.Database.MaxConns < config.Database.MinConns {
		return fmt.Errorf("database max conns (%d) cannot be less than min conns (%d)",
			config.Database.MaxConns, config.Database.MinConns)
	}

	if config.Redis.Enabled && config.Redis.Address == "" {
		return fmt.Errorf("redis address cannot be empty when redis is enabled")
	}

	if config.NLP.Host == "" {
		return fmt.Errorf("NLP provider host cannot be empty")
	}

	if config.NLP.Timeout <= 0 {
		return fmt.Errorf("NLP provider timeout must be positive: %v", config.NLP.Timeout)
	}

	if len(config.NLP.TagLabels) == 0 {
		return fmt.Errorf("NLP tag labels cannot be empty")
	}

	if config.NLP.MinTagConfidence < 0 || config.NLP.MinTagConfidence > 1 {
		return fmt.Errorf("NLP min tag confidence must be in [0,1]: %f", config.NLP.MinTagConfidence)
	}

	if config.Extractor.Timeout <= 0 {
		return fmt.Errorf("extractor timeout must be positive: %v", config.Extractor.Timeout)
	}

	if config.Extractor.MaxBodyBytes <= 0 {
		return fmt.Errorf("extractor max body bytes must be positive: %d", config.Extractor.MaxBodyBytes)
	}

	if config.Enrichment.BatchSize <= 0 {
		return fmt.Errorf("enrichment batch size must be positive: %d", config.Enrichment.BatchSize)
	}

	if config.Enrichment.MaxRetries < 0 {
		return fmt.Errorf("enrichment max retries must be non-negative: %d", config.Enrichment.MaxRetries)
	}

	if config.Enrichment.StepTimeout <= 0 {
		return fmt.Errorf("enrichment step timeout must be positive: %v", config.Enrichment.StepTimeout)
	}

	if config.Similarity.RecencyWindow <= 0 {
		return fmt.Errorf("similarity recency window must be positive: %v", config.Similarity.RecencyWindow)
	}

	if config.Similarity.MinSimilarity < 0 || config.Similarity.MinSimilarity > 1 {
		return fmt.Errorf("similarity min similarity must be in [0,1]: %f", config.Similarity.MinSimilarity)
	}

	if config.Similarity.MaxResults <= 0 {
		return fmt.Errorf("similarity max results must be positive: %d", config.Similarity.MaxResults)
	}

	if config.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry base delay must be positive: %v", config.Retry.BaseDelay)
	}

	if config.Retry.MaxDelay < config.Retry.BaseDelay {
		return fmt.Errorf("retry max delay (%v) cannot be less than base delay (%v)",
			config.Retry.MaxDelay, config.Retry.BaseDelay)
	}

	return nil
}
