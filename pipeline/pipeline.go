// Package pipeline orchestrates the enrichment steps for single articles
// and batch jobs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"article-enricher/domain"
	"article-enricher/quotes"
	"article-enricher/repository"
	"article-enricher/retry"
	"article-enricher/service"
	"article-enricher/similarity"
	"article-enricher/stance"
	"article-enricher/textmetrics"
)

// EventPublisher is the outbound event contract. Publishing is best-effort;
// implementations never fail the caller.
type EventPublisher interface {
	ArticleEnriched(ctx context.Context, result *domain.EnrichmentResult)
	JobCompleted(ctx context.Context, job *domain.EnrichmentJob)
}

// Options carries the fixed pipeline settings that are not part of the
// per-run enrichment config.
type Options struct {
	Defaults           domain.EnrichmentConfig
	RetryBaseDelay     time.Duration
	RetryMaxDelay      time.Duration
	TagLabels          []string
	HypothesisTemplate string
	MinTagConfidence   float64
	SimilarityWindow   time.Duration
}

// Pipeline runs the enrichment step sequence and manages batch jobs.
type Pipeline struct {
	articles   repository.ArticleRepository
	enrichment repository.EnrichmentRepository
	extractor  service.TextExtractorService
	nlp        service.NLPProvider
	metrics    *textmetrics.Engine
	quotes     *quotes.Extractor
	stance     *stance.Scorer
	similarity *similarity.Engine
	publisher  EventPublisher
	opts       Options
	logger     *slog.Logger

	mu   sync.Mutex
	jobs map[string]*jobEntry
}

// NewPipeline wires the pipeline from its collaborators.
func NewPipeline(
	articles repository.ArticleRepository,
	enrichment repository.EnrichmentRepository,
	extractor service.TextExtractorService,
	nlp service.NLPProvider,
	metrics *textmetrics.Engine,
	quoteExtractor *quotes.Extractor,
	stanceScorer *stance.Scorer,
	similarityEngine *similarity.Engine,
	publisher EventPublisher,
	opts Options,
	logger *slog.Logger,
) *Pipeline {
	if opts.SimilarityWindow <= 0 {
		opts.SimilarityWindow = 30 * 24 * time.Hour
	}
	return &Pipeline{
		articles:   articles,
		enrichment: enrichment,
		extractor:  extractor,
		nlp:        nlp,
		metrics:    metrics,
		quotes:     quoteExtractor,
		stance:     stanceScorer,
		similarity: similarityEngine,
		publisher:  publisher,
		opts:       opts,
		logger:     logger,
		jobs:       make(map[string]*jobEntry),
	}
}

// applyDefaults fills zero-valued knobs from the configured defaults.
func (p *Pipeline) applyDefaults(cfg domain.EnrichmentConfig) domain.EnrichmentConfig {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = p.opts.Defaults.BatchSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = p.opts.Defaults.MaxRetries
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = p.opts.Defaults.StepTimeout
	}
	return cfg
}

// EnrichArticle runs the full step sequence for one article. Missing
// articles and articles without usable text fail immediately without
// retries; individual step failures do not abort the remaining steps.
func (p *Pipeline) EnrichArticle(ctx context.Context, articleID string, cfg domain.EnrichmentConfig) (*domain.EnrichmentResult, error) {
	cfg = p.applyDefaults(cfg)
	return p.enrichOne(ctx, articleID, cfg)
}

// runState carries data between steps of one article run.
type runState struct {
	article  *domain.Article
	text     string
	entities []domain.Entity
	tags     []domain.Tag
}

func (p *Pipeline) enrichOne(ctx context.Context, articleID string, cfg domain.EnrichmentConfig) (*domain.EnrichmentResult, error) {
	start := time.Now()
	result := &domain.EnrichmentResult{ArticleID: articleID}

	if cfg.SkipEnriched {
		enriched, err := p.enrichment.IsEnriched(ctx, articleID)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to check prior enrichment, proceeding",
				"error", err, "article_id", articleID)
		} else if enriched {
			for _, name := range domain.StepOrder {
				if cfg.StepEnabled(name) {
					result.SkippedSteps = append(result.SkippedSteps, name)
				}
			}
			result.Success = true
			result.TotalDuration = time.Since(start)
			p.logger.InfoContext(ctx, "article already enriched, skipping", "article_id", articleID)
			return result, nil
		}
	}

	article, err := p.articles.FindByID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load article %s: %w", articleID, err)
	}
	if article == nil {
		return nil, domain.ErrArticleNotFound
	}

	state := &runState{article: article, text: article.BestText()}

	p.runTextExtraction(ctx, result, cfg, state)

	if state.text == "" {
		return nil, domain.ErrNoUsableText
	}

	p.runStep(ctx, result, cfg, domain.StepEntityExtraction, func(ctx context.Context) error {
		entities, err := p.nlp.ExtractEntities(ctx, state.text)
		if err != nil {
			return err
		}
		if err := p.enrichment.ReplaceEntities(ctx, articleID, entities); err != nil {
			return err
		}
		state.entities = entities
		return nil
	})

	p.runStep(ctx, result, cfg, domain.StepTagGeneration, func(ctx context.Context) error {
		tags, err := p.nlp.ClassifyZeroShot(ctx, state.text, p.opts.TagLabels, p.opts.HypothesisTemplate)
		if err != nil {
			return err
		}
		kept := make([]domain.Tag, 0, len(tags))
		for _, t := range tags {
			if t.Confidence >= p.opts.MinTagConfidence {
				kept = append(kept, t)
			}
		}
		if err := p.enrichment.ReplaceTags(ctx, articleID, kept); err != nil {
			return err
		}
		state.tags = kept
		return nil
	})

	p.runStep(ctx, result, cfg, domain.StepContentAnalysis, func(ctx context.Context) error {
		analysis := p.metrics.Analyze(state.text)
		return p.enrichment.UpsertEnrichment(ctx, articleID, state.text, &analysis)
	})

	p.runStep(ctx, result, cfg, domain.StepQuoteExtraction, func(ctx context.Context) error {
		extracted := p.quotes.Extract(state.text)
		return p.enrichment.ReplaceQuotes(ctx, articleID, extracted)
	})

	p.runStep(ctx, result, cfg, domain.StepStanceAnalysis, func(ctx context.Context) error {
		analysis := p.stance.Analyze(ctx, state.text)
		return p.enrichment.UpsertStance(ctx, articleID, &analysis)
	})

	p.runStep(ctx, result, cfg, domain.StepRelatedArticles, func(ctx context.Context) error {
		candidates, err := p.articles.FindCandidates(ctx, article, p.opts.SimilarityWindow)
		if err != nil {
			return err
		}

		// The target uses this run's best text and freshly computed
		// annotations rather than whatever is persisted.
		target := *article
		target.FullText = state.text
		relationships := p.similarity.FindRelated(domain.CandidateArticle{
			Article:  &target,
			Entities: state.entities,
			Tags:     state.tags,
		}, candidates)

		return p.enrichment.ReplaceRelationships(ctx, articleID, relationships)
	})

	result.TotalDuration = time.Since(start)
	result.Success = len(result.Errors) == 0 || len(result.CompletedSteps()) > 0

	if result.Success && len(result.Steps) > 0 {
		if err := p.enrichment.MarkProcessed(ctx, articleID); err != nil {
			p.logger.ErrorContext(ctx, "failed to mark article processed",
				"error", err, "article_id", articleID)
		}
	}

	if err := p.enrichment.RecordJobAudit(ctx, articleID, result, cfg); err != nil {
		p.logger.ErrorContext(ctx, "failed to record enrichment audit",
			"error", err, "article_id", articleID)
	}

	if p.publisher != nil {
		p.publisher.ArticleEnriched(ctx, result)
	}

	p.logger.InfoContext(ctx, "article enrichment finished",
		"article_id", articleID,
		"success", result.Success,
		"completed_steps", len(result.CompletedSteps()),
		"failed_steps", len(result.FailedSteps()),
		"duration_ms", result.TotalDuration.Milliseconds())

	return result, nil
}

// runTextExtraction is the only step that mutates the working text. An
// article without a URL skips extraction and keeps its stored text.
func (p *Pipeline) runTextExtraction(ctx context.Context, result *domain.EnrichmentResult, cfg domain.EnrichmentConfig, state *runState) {
	if cfg.StepEnabled(domain.StepTextExtraction) && state.article.URL == "" {
		result.SkippedSteps = append(result.SkippedSteps, domain.StepTextExtraction)
		return
	}

	p.runStep(ctx, result, cfg, domain.StepTextExtraction, func(ctx context.Context) error {
		content, err := p.extractor.Extract(ctx, state.article.URL)
		if err != nil {
			return err
		}
		if content.Text != "" {
			state.text = content.Text
		}
		// Text only; a run without content analysis must not clobber
		// previously persisted analysis columns.
		return p.enrichment.UpsertFullText(ctx, state.article.ID, state.text)
	})
}

// runStep executes one enabled step under the retry policy and records its
// outcome. A failed step is recorded and the sequence continues.
func (p *Pipeline) runStep(ctx context.Context, result *domain.EnrichmentResult, cfg domain.EnrichmentConfig, name domain.StepName, op func(ctx context.Context) error) {
	if !cfg.StepEnabled(name) {
		result.SkippedSteps = append(result.SkippedSteps, name)
		return
	}

	step := domain.EnrichmentStep{
		Name:      name,
		Status:    domain.StepRunning,
		StartedAt: time.Now(),
	}

	stepLogger := p.logger.With("article_id", result.ArticleID, "step", string(name))
	attempts, err := retry.Do(ctx, retry.Config{
		MaxRetries: cfg.MaxRetries,
		Timeout:    cfg.StepTimeout,
		BaseDelay:  p.opts.RetryBaseDelay,
		MaxDelay:   p.opts.RetryMaxDelay,
	}, stepLogger, op)

	step.EndedAt = time.Now()
	step.Duration = step.EndedAt.Sub(step.StartedAt)

	if err != nil {
		step.Status = domain.StepFailed
		step.Error = err.Error()
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
		stepLogger.ErrorContext(ctx, "enrichment step failed",
			"attempts", attempts, "error", err)
	} else {
		step.Status = domain.StepCompleted
		stepLogger.DebugContext(ctx, "enrichment step completed",
			"attempts", attempts, "duration_ms", step.Duration.Milliseconds())
	}

	result.Steps = append(result.Steps, step)
}

// GetUnprocessedArticles returns ids of articles awaiting enrichment.
func (p *Pipeline) GetUnprocessedArticles(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	return p.articles.FindUnprocessed(ctx, limit)
}
