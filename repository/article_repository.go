package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"article-enricher/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Thresholds for the similarity candidate annotation (top entities and
// tags per candidate article).
const (
	candidateEntityMinImportance = 0.5
	candidateEntityLimit         = 20
	candidateTagMinConfidence    = 0.4
	candidateTagLimit            = 15
)

// ArticleRepository implementation.
type articleRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *pgxpool.Pool, logger *slog.Logger) ArticleRepository {
	return &articleRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID finds an article by its ID. Returns nil when not found.
func (r *articleRepository) FindByID(ctx context.Context, articleID string) (*domain.Article, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to find article: database connection is nil")
	}

	query := `
		SELECT id, title, COALESCE(description, ''), COALESCE(full_text, ''),
		       COALESCE(url, ''), COALESCE(source, ''), published_at
		FROM articles
		WHERE id = $1
	`

	var article domain.Article
	err := r.db.QueryRow(ctx, query, articleID).Scan(
		&article.ID, &article.Title, &article.Description, &article.FullText,
		&article.URL, &article.Source, &article.PublishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		r.logger.WarnContext(ctx, "article not found", "article_id", articleID)
		return nil, nil
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find article", "error", err, "article_id", articleID)
		return nil, fmt.Errorf("failed to find article: %w", err)
	}

	return &article, nil
}

// FindUnprocessed returns ids of articles without a completed enrichment,
// oldest first.
func (r *articleRepository) FindUnprocessed(ctx context.Context, limit int) ([]string, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to find unprocessed articles: database connection is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT a.id
		FROM articles a
		WHERE NOT EXISTS (
			SELECT 1 FROM article_enrichments e
			WHERE e.article_id = a.id AND e.processed_at IS NOT NULL
		)
		ORDER BY a.published_at ASC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find unprocessed articles", "error", err)
		return nil, fmt.Errorf("failed to find unprocessed articles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan article id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read unprocessed articles: %w", err)
	}

	r.logger.InfoContext(ctx, "found unprocessed articles", "count", len(ids))

	return ids, nil
}

// FindCandidates returns the recency-window candidate pool for the
// similarity engine, each article annotated with its top entities and tags.
func (r *articleRepository) FindCandidates(ctx context.Context, article *domain.Article, window time.Duration) ([]domain.CandidateArticle, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to find candidates: database connection is nil")
	}

	from := article.PublishedAt.Add(-window)
	to := article.PublishedAt.Add(window)

	query := `
		SELECT id, title, COALESCE(description, ''), COALESCE(full_text, ''),
		       COALESCE(url, ''), COALESCE(source, ''), published_at
		FROM articles
		WHERE id != $1 AND published_at BETWEEN $2 AND $3
		ORDER BY published_at DESC
	`

	rows, err := r.db.Query(ctx, query, article.ID, from, to)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to query candidate articles", "error", err, "article_id", article.ID)
		return nil, fmt.Errorf("failed to query candidate articles: %w", err)
	}
	defer rows.Close()

	var candidates []domain.CandidateArticle
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.FullText, &a.URL, &a.Source, &a.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate article: %w", err)
		}
		candidates = append(candidates, domain.CandidateArticle{Article: &a})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidate articles: %w", err)
	}

	for i := range candidates {
		entities, err := r.topEntities(ctx, candidates[i].Article.ID)
		if err != nil {
			return nil, err
		}
		tags, err := r.topTags(ctx, candidates[i].Article.ID)
		if err != nil {
			return nil, err
		}
		candidates[i].Entities = entities
		candidates[i].Tags = tags
	}

	r.logger.InfoContext(ctx, "found candidate articles", "article_id", article.ID, "count", len(candidates))

	return candidates, nil
}

func (r *articleRepository) topEntities(ctx context.Context, articleID string) ([]domain.Entity, error) {
	query := `
		SELECT text, label, start_offset, end_offset, confidence, importance
		FROM article_entities
		WHERE article_id = $1 AND importance > $2
		ORDER BY importance DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, articleID, candidateEntityMinImportance, candidateEntityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top entities: %w", err)
	}
	defer rows.Close()

	var entities []domain.Entity
	for rows.Next() {
		var e domain.Entity
		if err := rows.Scan(&e.Text, &e.Label, &e.Start, &e.End, &e.Confidence, &e.Importance); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func (r *articleRepository) topTags(ctx context.Context, articleID string) ([]domain.Tag, error) {
	query := `
		SELECT label, confidence
		FROM article_tags
		WHERE article_id = $1 AND confidence > $2
		ORDER BY confidence DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, articleID, candidateTagMinConfidence, candidateTagLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.Label, &t.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
