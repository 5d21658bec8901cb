package repository

import (
	"context"
	"time"

	"article-enricher/domain"
)

// ArticleRepository reads article data owned by the ingestion side.
type ArticleRepository interface {
	// FindByID returns the article or nil when it does not exist.
	FindByID(ctx context.Context, articleID string) (*domain.Article, error)

	// FindUnprocessed returns ids of articles that have not been enriched
	// yet, oldest first.
	FindUnprocessed(ctx context.Context, limit int) ([]string, error)

	// FindCandidates returns articles published within the recency window
	// around the given article, annotated with their top entities
	// (importance > 0.5, at most 20) and top tags (confidence > 0.4, at
	// most 15).
	FindCandidates(ctx context.Context, article *domain.Article, window time.Duration) ([]domain.CandidateArticle, error)
}

// EnrichmentRepository persists derived enrichment data. Replace operations
// fully replace an article's prior rows before returning, so repeated runs
// are idempotent per article.
type EnrichmentRepository interface {
	GetRecord(ctx context.Context, articleID string) (*domain.EnrichmentRecord, error)
	IsEnriched(ctx context.Context, articleID string) (bool, error)
	// UpsertFullText writes only the working text, leaving any previously
	// persisted analysis columns untouched.
	UpsertFullText(ctx context.Context, articleID string, fullText string) error
	UpsertEnrichment(ctx context.Context, articleID string, fullText string, analysis *domain.ContentAnalysis) error
	ReplaceEntities(ctx context.Context, articleID string, entities []domain.Entity) error
	ReplaceTags(ctx context.Context, articleID string, tags []domain.Tag) error
	ReplaceQuotes(ctx context.Context, articleID string, quotes []domain.Quote) error
	ReplaceRelationships(ctx context.Context, articleID string, relationships []domain.ArticleRelationship) error
	UpsertStance(ctx context.Context, articleID string, analysis *domain.StanceAnalysis) error
	MarkProcessed(ctx context.Context, articleID string) error
	RecordJobAudit(ctx context.Context, articleID string, result *domain.EnrichmentResult, cfg domain.EnrichmentConfig) error
}
