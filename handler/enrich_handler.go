package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"article-enricher/domain"

	"github.com/labstack/echo/v4"
)

// ConfigOverrides is the optional per-request enrichment config. Omitted
// fields fall back to the server defaults.
type ConfigOverrides struct {
	ExtractText     *bool `json:"extract_text,omitempty"`
	ExtractEntities *bool `json:"extract_entities,omitempty"`
	GenerateTags    *bool `json:"generate_tags,omitempty"`
	AnalyzeContent  *bool `json:"analyze_content,omitempty"`
	ExtractQuotes   *bool `json:"extract_quotes,omitempty"`
	AnalyzeStance   *bool `json:"analyze_stance,omitempty"`
	FindRelated     *bool `json:"find_related,omitempty"`
	SkipEnriched    *bool `json:"skip_enriched,omitempty"`
	BatchSize       *int  `json:"batch_size,omitempty"`
	MaxRetries      *int  `json:"max_retries,omitempty"`
}

// EnrichRequest is the body of a single-article enrichment request.
type EnrichRequest struct {
	Config *ConfigOverrides `json:"config,omitempty"`
}

// BatchEnrichRequest is the body of a batch enrichment request.
type BatchEnrichRequest struct {
	ArticleIDs []string         `json:"article_ids"`
	Config     *ConfigOverrides `json:"config,omitempty"`
}

// EnrichHandler serves the enrichment endpoints.
type EnrichHandler struct {
	orchestrator Orchestrator
	defaults     domain.EnrichmentConfig
	logger       *slog.Logger
}

// NewEnrichHandler creates a new enrichment handler.
func NewEnrichHandler(orchestrator Orchestrator, defaults domain.EnrichmentConfig, logger *slog.Logger) *EnrichHandler {
	return &EnrichHandler{
		orchestrator: orchestrator,
		defaults:     defaults,
		logger:       logger,
	}
}

// HandleEnrichArticle handles POST /api/v1/enrich/:article_id requests.
func (h *EnrichHandler) HandleEnrichArticle(c echo.Context) error {
	ctx := c.Request().Context()

	articleID := c.Param("article_id")
	if articleID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Article ID cannot be empty")
	}

	var req EnrichRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("failed to bind request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	cfg := h.buildConfig(req.Config)

	h.logger.Info("processing enrichment request", "article_id", articleID)

	result, err := h.orchestrator.EnrichArticle(ctx, articleID, cfg)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrArticleNotFound):
			h.logger.Warn("article not found", "article_id", articleID)
			return echo.NewHTTPError(http.StatusNotFound, "Article not found")
		case errors.Is(err, domain.ErrNoUsableText):
			h.logger.Warn("article has no usable text", "article_id", articleID)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "Article has no usable text")
		default:
			h.logger.Error("failed to enrich article", "error", err, "article_id", articleID)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to enrich article")
		}
	}

	return c.JSON(http.StatusOK, result)
}

// HandleEnrichBatch handles POST /api/v1/enrich/batch requests. The job is
// accepted and runs in the background.
func (h *EnrichHandler) HandleEnrichBatch(c echo.Context) error {
	ctx := c.Request().Context()

	var req BatchEnrichRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("failed to bind request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	cfg := h.buildConfig(req.Config)

	job, err := h.orchestrator.EnrichBatch(ctx, req.ArticleIDs, cfg)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyBatch) {
			return echo.NewHTTPError(http.StatusBadRequest, "Article IDs cannot be empty")
		}
		h.logger.Error("failed to start batch job", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to start batch job")
	}

	h.logger.Info("batch job started", "job_id", job.ID, "articles", len(req.ArticleIDs))

	return c.JSON(http.StatusAccepted, job)
}

// HandleUnprocessed handles GET /api/v1/articles/unprocessed requests.
func (h *EnrichHandler) HandleUnprocessed(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 100
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
	}

	ids, err := h.orchestrator.GetUnprocessedArticles(ctx, limit)
	if err != nil {
		h.logger.Error("failed to list unprocessed articles", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list unprocessed articles")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"article_ids": ids,
		"count":       len(ids),
	})
}

// buildConfig starts from the server defaults (every step enabled) and
// applies the request's overrides.
func (h *EnrichHandler) buildConfig(overrides *ConfigOverrides) domain.EnrichmentConfig {
	cfg := h.defaults

	if overrides == nil {
		return cfg
	}

	if overrides.ExtractText != nil {
		cfg.ExtractText = *overrides.ExtractText
	}
	if overrides.ExtractEntities != nil {
		cfg.ExtractEntities = *overrides.ExtractEntities
	}
	if overrides.GenerateTags != nil {
		cfg.GenerateTags = *overrides.GenerateTags
	}
	if overrides.AnalyzeContent != nil {
		cfg.AnalyzeContent = *overrides.AnalyzeContent
	}
	if overrides.ExtractQuotes != nil {
		cfg.ExtractQuotes = *overrides.ExtractQuotes
	}
	if overrides.AnalyzeStance != nil {
		cfg.AnalyzeStance = *overrides.AnalyzeStance
	}
	if overrides.FindRelated != nil {
		cfg.FindRelated = *overrides.FindRelated
	}
	if overrides.SkipEnriched != nil {
		cfg.SkipEnriched = *overrides.SkipEnriched
	}
	if overrides.BatchSize != nil && *overrides.BatchSize > 0 {
		cfg.BatchSize = *overrides.BatchSize
	}
	if overrides.MaxRetries != nil && *overrides.MaxRetries >= 0 {
		cfg.MaxRetries = *overrides.MaxRetries
	}

	return cfg
}
