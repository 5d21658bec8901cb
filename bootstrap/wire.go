package bootstrap

import (
	"context"
	"log/slog"

	"article-enricher/config"
	"article-enricher/domain"
	"article-enricher/driver"
	"article-enricher/events"
	"article-enricher/handler"
	"article-enricher/pipeline"
	"article-enricher/quotes"
	"article-enricher/repository"
	"article-enricher/service"
	"article-enricher/similarity"
	"article-enricher/stance"
	"article-enricher/textmetrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all application dependencies.
type Dependencies struct {
	DBPool        *pgxpool.Pool
	Config        *config.Config
	Pipeline      *pipeline.Pipeline
	EnrichHandler *handler.EnrichHandler
	JobHandler    *handler.JobHandler
	HealthHandler *handler.HealthHandler
	Publisher     *events.Publisher
	Defaults      domain.EnrichmentConfig
	Logger        *slog.Logger
}

// BuildDependencies constructs all application dependencies.
// Returns a cleanup function that should be deferred.
func BuildDependencies(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Dependencies, func(), error) {
	dbPool, err := driver.Init(ctx, &cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}

	// Event delivery is best-effort; a missing broker must not keep
	// enrichment down.
	publisher, err := events.NewPublisher(ctx, &cfg.Redis, log)
	if err != nil {
		log.WarnContext(ctx, "event publisher unavailable, continuing without events", "error", err)
		publisher = nil
	}

	articleRepo := repository.NewArticleRepository(dbPool, log)
	enrichmentRepo := repository.NewEnrichmentRepository(dbPool, log)

	nlpClient := driver.NewNLPAPIClient(&cfg.NLP, log)
	textExtractor := service.NewTextExtractorService(nil, &cfg.Extractor, log)

	metricsEngine := textmetrics.NewEngine(textmetrics.DefaultWordsPerMinute)
	quoteExtractor := quotes.NewExtractor(quotes.DefaultConfig())
	stanceScorer := stance.NewScorer(nlpClient, cfg.NLP.Timeout, log)
	similarityEngine := similarity.NewEngine(similarity.Config{
		RecencyWindow: cfg.Similarity.RecencyWindow,
		MinSimilarity: cfg.Similarity.MinSimilarity,
		MaxResults:    cfg.Similarity.MaxResults,
		PreferRecent:  cfg.Similarity.PreferRecent,
	})

	defaults := domain.EnrichmentConfig{
		ExtractText:     true,
		ExtractEntities: true,
		GenerateTags:    true,
		AnalyzeContent:  true,
		ExtractQuotes:   true,
		AnalyzeStance:   true,
		FindRelated:     true,
		SkipEnriched:    cfg.Enrichment.SkipEnriched,
		BatchSize:       cfg.Enrichment.BatchSize,
		MaxRetries:      cfg.Enrichment.MaxRetries,
		StepTimeout:     cfg.Enrichment.StepTimeout,
	}

	var eventSink pipeline.EventPublisher
	if publisher != nil {
		eventSink = publisher
	}

	enrichmentPipeline := pipeline.NewPipeline(
		articleRepo,
		enrichmentRepo,
		textExtractor,
		nlpClient,
		metricsEngine,
		quoteExtractor,
		stanceScorer,
		similarityEngine,
		eventSink,
		pipeline.Options{
			Defaults:           defaults,
			RetryBaseDelay:     cfg.Retry.BaseDelay,
			RetryMaxDelay:      cfg.Retry.MaxDelay,
			TagLabels:          cfg.NLP.TagLabels,
			HypothesisTemplate: cfg.NLP.HypothesisTemplate,
			MinTagConfidence:   cfg.NLP.MinTagConfidence,
			SimilarityWindow:   cfg.Similarity.RecencyWindow,
		},
		log,
	)

	enrichHandler := handler.NewEnrichHandler(enrichmentPipeline, defaults, log)
	jobHandler := handler.NewJobHandler(enrichmentPipeline, log)
	healthHandler := handler.NewHealthHandler(dbPool, log)

	cleanup := func() {
		if publisher != nil {
			publisher.Close()
		}
		dbPool.Close()
	}

	return &Dependencies{
		DBPool:        dbPool,
		Config:        cfg,
		Pipeline:      enrichmentPipeline,
		EnrichHandler: enrichHandler,
		JobHandler:    jobHandler,
		HealthHandler: healthHandler,
		Publisher:     publisher,
		Defaults:      defaults,
		Logger:        log,
	}, cleanup, nil
}
