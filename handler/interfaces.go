package handler

import (
	"context"

	"article-enricher/domain"
)

// Orchestrator is the pipeline surface the HTTP handlers depend on.
type Orchestrator interface {
	EnrichArticle(ctx context.Context, articleID string, cfg domain.EnrichmentConfig) (*domain.EnrichmentResult, error)
	EnrichBatch(ctx context.Context, articleIDs []string, cfg domain.EnrichmentConfig) (*domain.EnrichmentJob, error)
	GetJob(jobID string) (*domain.EnrichmentJob, error)
	CancelJob(jobID string) error
	ListJobs(runningOnly bool) []*domain.EnrichmentJob
	GetStats() *domain.PipelineStats
	GetUnprocessedArticles(ctx context.Context, limit int) ([]string, error)
}
