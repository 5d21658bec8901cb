package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"article-enricher/domain"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOrchestrator struct {
	result    *domain.EnrichmentResult
	enrichErr error

	job      *domain.EnrichmentJob
	batchErr error

	getJobErr error
	cancelErr error
	jobs      []*domain.EnrichmentJob
	stats     *domain.PipelineStats

	unprocessed    []string
	unprocessedErr error

	lastArticleID string
	lastIDs       []string
	lastCfg       domain.EnrichmentConfig
	lastLimit     int
	lastRunning   bool
}

func (f *fakeOrchestrator) EnrichArticle(ctx context.Context, articleID string, cfg domain.EnrichmentConfig) (*domain.EnrichmentResult, error) {
	f.lastArticleID = articleID
	f.lastCfg = cfg
	return f.result, f.enrichErr
}

func (f *fakeOrchestrator) EnrichBatch(ctx context.Context, articleIDs []string, cfg domain.EnrichmentConfig) (*domain.EnrichmentJob, error) {
	f.lastIDs = articleIDs
	f.lastCfg = cfg
	return f.job, f.batchErr
}

func (f *fakeOrchestrator) GetJob(jobID string) (*domain.EnrichmentJob, error) {
	if f.getJobErr != nil {
		return nil, f.getJobErr
	}
	return f.job, nil
}

func (f *fakeOrchestrator) CancelJob(jobID string) error {
	return f.cancelErr
}

func (f *fakeOrchestrator) ListJobs(runningOnly bool) []*domain.EnrichmentJob {
	f.lastRunning = runningOnly
	return f.jobs
}

func (f *fakeOrchestrator) GetStats() *domain.PipelineStats {
	return f.stats
}

func (f *fakeOrchestrator) GetUnprocessedArticles(ctx context.Context, limit int) ([]string, error) {
	f.lastLimit = limit
	if f.unprocessedErr != nil {
		return nil, f.unprocessedErr
	}
	return f.unprocessed, nil
}

func serverDefaults() domain.EnrichmentConfig {
	return domain.EnrichmentConfig{
		ExtractText:     true,
		ExtractEntities: true,
		GenerateTags:    true,
		AnalyzeContent:  true,
		ExtractQuotes:   true,
		AnalyzeStance:   true,
		FindRelated:     true,
		SkipEnriched:    true,
		BatchSize:       10,
		MaxRetries:      3,
		StepTimeout:     time.Minute,
	}
}

func enrichContext(method, target, body string, e *echo.Echo) (echo.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandleEnrichArticle(t *testing.T) {
	e := echo.New()

	t.Run("should enrich an article and return the result", func(t *testing.T) {
		orch := &fakeOrchestrator{result: &domain.EnrichmentResult{ArticleID: "a1", Success: true}}
		h := NewEnrichHandler(orch, serverDefaults(), testLogger())

		c, rec := enrichContext(http.MethodPost, "/api/v1/enrich/a1", "", e)
		c.SetParamNames("article_id")
		c.SetParamValues("a1")

		require.NoError(t, h.HandleEnrichArticle(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "a1", orch.lastArticleID)
		assert.Equal(t, serverDefaults(), orch.lastCfg)

		var result domain.EnrichmentResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.Success)
	})

	t.Run("should apply request overrides on top of the defaults", func(t *testing.T) {
		orch := &fakeOrchestrator{result: &domain.EnrichmentResult{ArticleID: "a1"}}
		h := NewEnrichHandler(orch, serverDefaults(), testLogger())

		body := `{"config":{"extract_text":false,"max_retries":0,"batch_size":-5}}`
		c, _ := enrichContext(http.MethodPost, "/api/v1/enrich/a1", body, e)
		c.SetParamNames("article_id")
		c.SetParamValues("a1")

		require.NoError(t, h.HandleEnrichArticle(c))
		assert.False(t, orch.lastCfg.ExtractText)
		assert.True(t, orch.lastCfg.ExtractEntities)
		assert.Equal(t, 0, orch.lastCfg.MaxRetries)
		// Non-positive batch size overrides are ignored.
		assert.Equal(t, 10, orch.lastCfg.BatchSize)
	})

	t.Run("should reject an empty article id", func(t *testing.T) {
		h := NewEnrichHandler(&fakeOrchestrator{}, serverDefaults(), testLogger())

		c, _ := enrichContext(http.MethodPost, "/api/v1/enrich/", "", e)
		c.SetParamNames("article_id")
		c.SetParamValues("")

		err := h.HandleEnrichArticle(c)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		h := NewEnrichHandler(&fakeOrchestrator{}, serverDefaults(), testLogger())

		c, _ := enrichContext(http.MethodPost, "/api/v1/enrich/a1", `{"config":`, e)
		c.SetParamNames("article_id")
		c.SetParamValues("a1")

		err := h.HandleEnrichArticle(c)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})

	t.Run("should map domain errors to status codes", func(t *testing.T) {
		cases := []struct {
			name string
			err  error
			code int
		}{
			{"missing article", domain.ErrArticleNotFound, http.StatusNotFound},
			{"article without text", domain.ErrNoUsableText, http.StatusUnprocessableEntity},
			{"unexpected failure", errors.New("db down"), http.StatusInternalServerError},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				h := NewEnrichHandler(&fakeOrchestrator{enrichErr: tc.err}, serverDefaults(), testLogger())

				c, _ := enrichContext(http.MethodPost, "/api/v1/enrich/a1", "", e)
				c.SetParamNames("article_id")
				c.SetParamValues("a1")

				err := h.HandleEnrichArticle(c)
				var httpErr *echo.HTTPError
				require.ErrorAs(t, err, &httpErr)
				assert.Equal(t, tc.code, httpErr.Code)
			})
		}
	})
}

func TestHandleEnrichBatch(t *testing.T) {
	e := echo.New()

	t.Run("should accept a batch and return the job", func(t *testing.T) {
		orch := &fakeOrchestrator{job: &domain.EnrichmentJob{ID: "job-1", Status: domain.JobPending}}
		h := NewEnrichHandler(orch, serverDefaults(), testLogger())

		body := `{"article_ids":["a1","a2"]}`
		c, rec := enrichContext(http.MethodPost, "/api/v1/enrich/batch", body, e)

		require.NoError(t, h.HandleEnrichBatch(c))
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, []string{"a1", "a2"}, orch.lastIDs)

		var job domain.EnrichmentJob
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
		assert.Equal(t, "job-1", job.ID)
	})

	t.Run("should reject an empty batch", func(t *testing.T) {
		orch := &fakeOrchestrator{batchErr: domain.ErrEmptyBatch}
		h := NewEnrichHandler(orch, serverDefaults(), testLogger())

		c, _ := enrichContext(http.MethodPost, "/api/v1/enrich/batch", `{"article_ids":[]}`, e)

		err := h.HandleEnrichBatch(c)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})
}

func TestHandleUnprocessed(t *testing.T) {
	e := echo.New()

	t.Run("should list unprocessed article ids", func(t *testing.T) {
		orch := &fakeOrchestrator{unprocessed: []string{"a1", "a2"}}
		h := NewEnrichHandler(orch, serverDefaults(), testLogger())

		c, rec := enrichContext(http.MethodGet, "/api/v1/articles/unprocessed?limit=5", "", e)

		require.NoError(t, h.HandleUnprocessed(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 5, orch.lastLimit)

		var resp struct {
			ArticleIDs []string `json:"article_ids"`
			Count      int      `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, []string{"a1", "a2"}, resp.ArticleIDs)
	})

	t.Run("should default the limit when absent", func(t *testing.T) {
		orch := &fakeOrchestrator{}
		h := NewEnrichHandler(orch, serverDefaults(), testLogger())

		c, _ := enrichContext(http.MethodGet, "/api/v1/articles/unprocessed", "", e)

		require.NoError(t, h.HandleUnprocessed(c))
		assert.Equal(t, 100, orch.lastLimit)
	})

	t.Run("should reject a non-numeric limit", func(t *testing.T) {
		h := NewEnrichHandler(&fakeOrchestrator{}, serverDefaults(), testLogger())

		c, _ := enrichContext(http.MethodGet, "/api/v1/articles/unprocessed?limit=abc", "", e)

		err := h.HandleUnprocessed(c)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})

	t.Run("should surface repository failures", func(t *testing.T) {
		h := NewEnrichHandler(&fakeOrchestrator{unprocessedErr: errors.New("db down")}, serverDefaults(), testLogger())

		c, _ := enrichContext(http.MethodGet, "/api/v1/articles/unprocessed", "", e)

		err := h.HandleUnprocessed(c)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
	})
}
