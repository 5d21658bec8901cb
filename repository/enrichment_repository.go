package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"article-enricher/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrichmentRepository implementation.
type enrichmentRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewEnrichmentRepository creates a new enrichment repository.
func NewEnrichmentRepository(db *pgxpool.Pool, logger *slog.Logger) EnrichmentRepository {
	return &enrichmentRepository{
		db:     db,
		logger: logger,
	}
}

// GetRecord returns the persisted enrichment fields for an article, or nil
// when none exist.
func (r *enrichmentRepository) GetRecord(ctx context.Context, articleID string) (*domain.EnrichmentRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to get enrichment record: database connection is nil")
	}

	query := `
		SELECT article_id, COALESCE(full_text, ''), COALESCE(reading_time_minutes, 0),
		       COALESCE(complexity_score, 0)
		FROM article_enrichments
		WHERE article_id = $1
	`

	var record domain.EnrichmentRecord
	err := r.db.QueryRow(ctx, query, articleID).Scan(
		&record.ArticleID, &record.FullText, &record.ReadingTimeMinutes, &record.ComplexityScore,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrichment record: %w", err)
	}

	return &record, nil
}

// IsEnriched reports whether a successful prior enrichment exists.
func (r *enrichmentRepository) IsEnriched(ctx context.Context, articleID string) (bool, error) {
	if r.db == nil {
		return false, fmt.Errorf("failed to check enrichment: database connection is nil")
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM article_enrichments
			WHERE article_id = $1 AND processed_at IS NOT NULL
		)
	`

	var enriched bool
	if err := r.db.QueryRow(ctx, query, articleID).Scan(&enriched); err != nil {
		return false, fmt.Errorf("failed to check enrichment: %w", err)
	}
	return enriched, nil
}

// UpsertFullText writes the working text without touching the analysis
// columns, so an extraction-only run cannot zero a prior content analysis.
func (r *enrichmentRepository) UpsertFullText(ctx context.Context, articleID string, fullText string) error {
	if r.db == nil {
		return fmt.Errorf("failed to upsert full text: database connection is nil")
	}

	query := `
		INSERT INTO article_enrichments (article_id, full_text, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (article_id) DO UPDATE SET
			full_text = EXCLUDED.full_text,
			updated_at = NOW()
	`

	if _, err := r.db.Exec(ctx, query, articleID, fullText); err != nil {
		r.logger.ErrorContext(ctx, "failed to upsert full text", "error", err, "article_id", articleID)
		return fmt.Errorf("failed to upsert full text: %w", err)
	}
	return nil
}

// UpsertEnrichment writes the working text and the content analysis fields.
func (r *enrichmentRepository) UpsertEnrichment(ctx context.Context, articleID string, fullText string, analysis *domain.ContentAnalysis) error {
	if r.db == nil {
		return fmt.Errorf("failed to upsert enrichment: database connection is nil")
	}

	query := `
		INSERT INTO article_enrichments (
			article_id, full_text, word_count, sentence_count, paragraph_count,
			reading_time_minutes, flesch_reading_ease, flesch_kincaid_grade,
			complexity_score, difficulty_label, complexity_label, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (article_id) DO UPDATE SET
			full_text = EXCLUDED.full_text,
			word_count = EXCLUDED.word_count,
			sentence_count = EXCLUDED.sentence_count,
			paragraph_count = EXCLUDED.paragraph_count,
			reading_time_minutes = EXCLUDED.reading_time_minutes,
			flesch_reading_ease = EXCLUDED.flesch_reading_ease,
			flesch_kincaid_grade = EXCLUDED.flesch_kincaid_grade,
			complexity_score = EXCLUDED.complexity_score,
			difficulty_label = EXCLUDED.difficulty_label,
			complexity_label = EXCLUDED.complexity_label,
			updated_at = NOW()
	`

	var (
		wordCount, sentenceCount, paragraphCount, readingTime int
		flesch, grade, complexity                             float64
		difficulty, complexityLabel                           string
	)
	if analysis != nil {
		wordCount = analysis.Metrics.WordCount
		sentenceCount = analysis.Metrics.SentenceCount
		paragraphCount = analysis.Metrics.ParagraphCount
		readingTime = analysis.ReadingTimeMinutes
		flesch = analysis.Readability.FleschReadingEase
		grade = analysis.Readability.FleschKincaidGrade
		complexity = analysis.Readability.ComplexityScore
		difficulty = analysis.DifficultyLabel
		complexityLabel = analysis.ComplexityLabel
	}

	_, err := r.db.Exec(ctx, query, articleID, fullText,
		wordCount, sentenceCount, paragraphCount, readingTime,
		flesch, grade, complexity, difficulty, complexityLabel)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to upsert enrichment", "error", err, "article_id", articleID)
		return fmt.Errorf("failed to upsert enrichment: %w", err)
	}
	return nil
}

// ReplaceEntities deletes the article's prior entities and inserts the new
// set in one transaction.
func (r *enrichmentRepository) ReplaceEntities(ctx context.Context, articleID string, entities []domain.Entity) error {
	return r.replaceRows(ctx, articleID, "article_entities", func(tx pgx.Tx) error {
		for _, e := range entities {
			_, err := tx.Exec(ctx, `
				INSERT INTO article_entities (article_id, text, label, start_offset, end_offset, confidence, importance)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, articleID, e.Text, e.Label, e.Start, e.End, e.Confidence, e.Importance)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceTags deletes the article's prior tags and inserts the new set.
func (r *enrichmentRepository) ReplaceTags(ctx context.Context, articleID string, tags []domain.Tag) error {
	return r.replaceRows(ctx, articleID, "article_tags", func(tx pgx.Tx) error {
		for _, t := range tags {
			_, err := tx.Exec(ctx, `
				INSERT INTO article_tags (article_id, label, confidence)
				VALUES ($1, $2, $3)
			`, articleID, t.Label, t.Confidence)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceQuotes deletes the article's prior quotes and inserts the new set.
func (r *enrichmentRepository) ReplaceQuotes(ctx context.Context, articleID string, quotes []domain.Quote) error {
	return r.replaceRows(ctx, articleID, "article_quotes", func(tx pgx.Tx) error {
		for _, q := range quotes {
			_, err := tx.Exec(ctx, `
				INSERT INTO article_quotes (
					article_id, text, speaker, context, quote_type,
					start_offset, end_offset, paragraph_index,
					importance, sentiment, is_key_quote
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			`, articleID, q.Text, q.Speaker, q.Context, string(q.Type),
				q.StartOffset, q.EndOffset, q.ParagraphIndex,
				q.Importance, q.Sentiment, q.IsKeyQuote)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceRelationships deletes the relationships computed from this source
// article and inserts the new set. Relationships are directional; rows
// where the article is the related side are left alone.
func (r *enrichmentRepository) ReplaceRelationships(ctx context.Context, articleID string, relationships []domain.ArticleRelationship) error {
	return r.replaceRows(ctx, articleID, "article_relationships", func(tx pgx.Tx) error {
		for _, rel := range relationships {
			_, err := tx.Exec(ctx, `
				INSERT INTO article_relationships (
					article_id, related_article_id, relationship_type, strength,
					similarity, content_overlap, shared_entities, shared_tags,
					detection_method, confidence
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			`, rel.ArticleID, rel.RelatedArticleID, string(rel.Type), string(rel.Strength),
				rel.Similarity, rel.ContentOverlap,
				strings.Join(rel.SharedEntities, ","), strings.Join(rel.SharedTags, ","),
				rel.DetectionMethod, rel.Confidence)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertStance writes the stance/bias/subjectivity record for an article.
func (r *enrichmentRepository) UpsertStance(ctx context.Context, articleID string, analysis *domain.StanceAnalysis) error {
	if r.db == nil {
		return fmt.Errorf("failed to upsert stance: database connection is nil")
	}

	query := `
		INSERT INTO article_stance (
			article_id, stance, stance_confidence, bias_score, bias_confidence,
			subjectivity, method, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (article_id) DO UPDATE SET
			stance = EXCLUDED.stance,
			stance_confidence = EXCLUDED.stance_confidence,
			bias_score = EXCLUDED.bias_score,
			bias_confidence = EXCLUDED.bias_confidence,
			subjectivity = EXCLUDED.subjectivity,
			method = EXCLUDED.method,
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query, articleID, string(analysis.Stance),
		analysis.StanceConfidence, analysis.BiasScore, analysis.BiasConfidence,
		analysis.Subjectivity, analysis.Method)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to upsert stance", "error", err, "article_id", articleID)
		return fmt.Errorf("failed to upsert stance: %w", err)
	}
	return nil
}

// MarkProcessed stamps the article's enrichment record as complete.
func (r *enrichmentRepository) MarkProcessed(ctx context.Context, articleID string) error {
	if r.db == nil {
		return fmt.Errorf("failed to mark processed: database connection is nil")
	}

	query := `
		INSERT INTO article_enrichments (article_id, processed_at, updated_at)
		VALUES ($1, NOW(), NOW())
		ON CONFLICT (article_id) DO UPDATE SET
			processed_at = NOW(),
			updated_at = NOW()
	`

	if _, err := r.db.Exec(ctx, query, articleID); err != nil {
		return fmt.Errorf("failed to mark processed: %w", err)
	}
	return nil
}

// RecordJobAudit persists the per-article step outcome as an audit record.
func (r *enrichmentRepository) RecordJobAudit(ctx context.Context, articleID string, result *domain.EnrichmentResult, cfg domain.EnrichmentConfig) error {
	if r.db == nil {
		return fmt.Errorf("failed to record job audit: database connection is nil")
	}

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal enrichment config: %w", err)
	}

	completed := stepNames(result.CompletedSteps())
	failed := stepNames(result.FailedSteps())

	query := `
		INSERT INTO enrichment_audit (
			article_id, success, duration_ms, completed_steps, failed_steps,
			error_text, config, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err = r.db.Exec(ctx, query, articleID, result.Success,
		result.TotalDuration.Milliseconds(),
		strings.Join(completed, ","), strings.Join(failed, ","),
		strings.Join(result.Errors, "; "), configJSON)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to record job audit", "error", err, "article_id", articleID)
		return fmt.Errorf("failed to record job audit: %w", err)
	}
	return nil
}

// replaceRows runs delete-then-insert for one article's rows in a single
// transaction.
func (r *enrichmentRepository) replaceRows(ctx context.Context, articleID, table string, insert func(tx pgx.Tx) error) error {
	if r.db == nil {
		return fmt.Errorf("failed to replace %s: database connection is nil", table)
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.ErrorContext(ctx, "failed to rollback transaction", "error", err)
		}
	}()

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE article_id = $1", table), articleID); err != nil {
		return fmt.Errorf("failed to delete prior %s rows: %w", table, err)
	}

	if err := insert(tx); err != nil {
		return fmt.Errorf("failed to insert %s rows: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s replace: %w", table, err)
	}
	return nil
}

func stepNames(steps []domain.StepName) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = string(s)
	}
	return names
}
