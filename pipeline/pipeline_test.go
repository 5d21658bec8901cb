package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"article-enricher/domain"
	"article-enricher/quotes"
	"article-enricher/service"
	"article-enricher/similarity"
	"article-enricher/stance"
	"article-enricher/textmetrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleText = `The city council approved the new transit plan on Tuesday. ` +
	`"This is a major step forward for commuters in our region," said Mayor Alice Hong. ` +
	`The plan allocates funding for new bus lines and station upgrades across the metropolitan area.`

type fakeArticles struct {
	mu          sync.Mutex
	articles    map[string]*domain.Article
	unprocessed []string
	candidates  []domain.CandidateArticle
	lastLimit   int
	findGate    chan struct{}
	gateIDs     map[string]bool // nil gates every lookup while findGate is set
	gated       atomic.Int32    // lookups currently blocked on the gate
}

func newFakeArticles(articles ...*domain.Article) *fakeArticles {
	f := &fakeArticles{articles: make(map[string]*domain.Article)}
	for _, a := range articles {
		f.articles[a.ID] = a
	}
	return f
}

func (f *fakeArticles) FindByID(ctx context.Context, articleID string) (*domain.Article, error) {
	f.mu.Lock()
	gate := f.findGate
	gateThis := gate != nil && (f.gateIDs == nil || f.gateIDs[articleID])
	article := f.articles[articleID]
	f.mu.Unlock()

	if gateThis {
		f.gated.Add(1)
		defer f.gated.Add(-1)
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return article, nil
}

func (f *fakeArticles) FindUnprocessed(ctx context.Context, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	return f.unprocessed, nil
}

func (f *fakeArticles) FindCandidates(ctx context.Context, article *domain.Article, window time.Duration) ([]domain.CandidateArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.candidates, nil
}

type fakeEnrichment struct {
	mu            sync.Mutex
	enriched      map[string]bool
	processed     map[string]bool
	fullTexts     map[string]string
	analyses      map[string]*domain.ContentAnalysis
	entities      map[string][]domain.Entity
	tags          map[string][]domain.Tag
	quoteCounts   map[string]int
	relationships map[string][]domain.ArticleRelationship
	stances       map[string]*domain.StanceAnalysis
	audits        int

	isEnrichedErr error
	entitiesErr   error
}

func newFakeEnrichment() *fakeEnrichment {
	return &fakeEnrichment{
		enriched:      make(map[string]bool),
		processed:     make(map[string]bool),
		fullTexts:     make(map[string]string),
		analyses:      make(map[string]*domain.ContentAnalysis),
		entities:      make(map[string][]domain.Entity),
		tags:          make(map[string][]domain.Tag),
		quoteCounts:   make(map[string]int),
		relationships: make(map[string][]domain.ArticleRelationship),
		stances:       make(map[string]*domain.StanceAnalysis),
	}
}

func (f *fakeEnrichment) GetRecord(ctx context.Context, articleID string) (*domain.EnrichmentRecord, error) {
	return nil, nil
}

func (f *fakeEnrichment) IsEnriched(ctx context.Context, articleID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isEnrichedErr != nil {
		return false, f.isEnrichedErr
	}
	return f.enriched[articleID], nil
}

func (f *fakeEnrichment) UpsertFullText(ctx context.Context, articleID string, fullText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullTexts[articleID] = fullText
	return nil
}

func (f *fakeEnrichment) UpsertEnrichment(ctx context.Context, articleID string, fullText string, analysis *domain.ContentAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullTexts[articleID] = fullText
	f.analyses[articleID] = analysis
	return nil
}

func (f *fakeEnrichment) ReplaceEntities(ctx context.Context, articleID string, entities []domain.Entity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entitiesErr != nil {
		return f.entitiesErr
	}
	f.entities[articleID] = entities
	return nil
}

func (f *fakeEnrichment) ReplaceTags(ctx context.Context, articleID string, tags []domain.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags[articleID] = tags
	return nil
}

func (f *fakeEnrichment) ReplaceQuotes(ctx context.Context, articleID string, quotes []domain.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteCounts[articleID] = len(quotes)
	return nil
}

func (f *fakeEnrichment) ReplaceRelationships(ctx context.Context, articleID string, relationships []domain.ArticleRelationship) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relationships[articleID] = relationships
	return nil
}

func (f *fakeEnrichment) UpsertStance(ctx context.Context, articleID string, analysis *domain.StanceAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stances[articleID] = analysis
	return nil
}

func (f *fakeEnrichment) MarkProcessed(ctx context.Context, articleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed[articleID] = true
	return nil
}

func (f *fakeEnrichment) RecordJobAudit(ctx context.Context, articleID string, result *domain.EnrichmentResult, cfg domain.EnrichmentConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits++
	return nil
}

type fakeNLP struct {
	entities    []domain.Entity
	tags        []domain.Tag
	entitiesErr error
	tagsErr     error
}

func (f *fakeNLP) ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error) {
	if f.entitiesErr != nil {
		return nil, f.entitiesErr
	}
	return f.entities, nil
}

func (f *fakeNLP) ClassifyZeroShot(ctx context.Context, text string, candidateLabels []string, hypothesisTemplate string) ([]domain.Tag, error) {
	if f.tagsErr != nil {
		return nil, f.tagsErr
	}
	return f.tags, nil
}

func (f *fakeNLP) AnalyzeSentimentBias(ctx context.Context, text string) (*domain.StanceAnalysis, error) {
	return nil, domain.ErrProviderUnavailable
}

type fakeExtractor struct {
	content *service.ExtractedContent
	err     error
}

func (f *fakeExtractor) Extract(ctx context.Context, url string) (*service.ExtractedContent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	enriched []*domain.EnrichmentResult
	jobs     []*domain.EnrichmentJob
}

func (f *fakePublisher) ArticleEnriched(ctx context.Context, result *domain.EnrichmentResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enriched = append(f.enriched, result)
}

func (f *fakePublisher) JobCompleted(ctx context.Context, job *domain.EnrichmentJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
}

func (f *fakePublisher) jobCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

func allSteps() domain.EnrichmentConfig {
	return domain.EnrichmentConfig{
		ExtractText:     true,
		ExtractEntities: true,
		GenerateTags:    true,
		AnalyzeContent:  true,
		ExtractQuotes:   true,
		AnalyzeStance:   true,
		FindRelated:     true,
		BatchSize:       2,
		MaxRetries:      0,
		StepTimeout:     time.Second,
	}
}

func newTestPipeline(articles *fakeArticles, enr *fakeEnrichment, nlp *fakeNLP, extractor *fakeExtractor, publisher *fakePublisher) *Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPipeline(
		articles,
		enr,
		extractor,
		nlp,
		textmetrics.NewEngine(textmetrics.DefaultWordsPerMinute),
		quotes.NewExtractor(quotes.DefaultConfig()),
		stance.NewScorer(nil, time.Second, logger),
		similarity.NewEngine(similarity.DefaultConfig()),
		publisher,
		Options{
			Defaults:         allSteps(),
			RetryBaseDelay:   time.Millisecond,
			RetryMaxDelay:    time.Millisecond,
			TagLabels:        []string{"politics", "sports"},
			MinTagConfidence: 0.3,
			SimilarityWindow: 30 * 24 * time.Hour,
		},
		logger,
	)
}

func sampleArticle(id string) *domain.Article {
	return &domain.Article{
		ID:          id,
		Title:       "City council approves transit plan",
		FullText:    sampleText,
		Source:      "localnews",
		PublishedAt: time.Now().Add(-24 * time.Hour),
	}
}

func TestEnrichArticle(t *testing.T) {
	t.Run("should run every enabled step and mark the article processed", func(t *testing.T) {
		articles := newFakeArticles(sampleArticle("a1"))
		enr := newFakeEnrichment()
		nlp := &fakeNLP{
			entities: []domain.Entity{{Text: "Alice Hong", Label: "PERSON", Importance: 0.9}},
			tags:     []domain.Tag{{Label: "politics", Confidence: 0.8}, {Label: "sports", Confidence: 0.1}},
		}
		publisher := &fakePublisher{}
		p := newTestPipeline(articles, enr, nlp, &fakeExtractor{}, publisher)

		result, err := p.EnrichArticle(context.Background(), "a1", allSteps())

		require.NoError(t, err)
		assert.True(t, result.Success)
		// No URL, so text extraction is skipped and the stored text is used.
		assert.Contains(t, result.SkippedSteps, domain.StepTextExtraction)
		assert.Len(t, result.CompletedSteps(), 6)
		assert.Empty(t, result.Errors)

		assert.True(t, enr.processed["a1"])
		assert.Equal(t, 1, enr.audits)
		assert.Len(t, publisher.enriched, 1)
		assert.Equal(t, nlp.entities, enr.entities["a1"])
		assert.NotNil(t, enr.stances["a1"])
		assert.Greater(t, enr.quoteCounts["a1"], 0)
	})

	t.Run("should drop tags below the confidence floor", func(t *testing.T) {
		articles := newFakeArticles(sampleArticle("a1"))
		enr := newFakeEnrichment()
		nlp := &fakeNLP{tags: []domain.Tag{
			{Label: "politics", Confidence: 0.8},
			{Label: "sports", Confidence: 0.1},
		}}
		p := newTestPipeline(articles, enr, nlp, &fakeExtractor{}, &fakePublisher{})

		_, err := p.EnrichArticle(context.Background(), "a1", allSteps())

		require.NoError(t, err)
		require.Len(t, enr.tags["a1"], 1)
		assert.Equal(t, "politics", enr.tags["a1"][0].Label)
	})

	t.Run("should use freshly extracted text when the article has a url", func(t *testing.T) {
		article := sampleArticle("a1")
		article.URL = "https://example.com/story"
		articles := newFakeArticles(article)
		enr := newFakeEnrichment()
		extracted := "Extracted body text with plenty of words describing the transit plan in detail."
		extractor := &fakeExtractor{content: &service.ExtractedContent{Text: extracted}}
		p := newTestPipeline(articles, enr, &fakeNLP{}, extractor, &fakePublisher{})

		result, err := p.EnrichArticle(context.Background(), "a1", allSteps())

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Contains(t, result.CompletedSteps(), domain.StepTextExtraction)
		assert.Equal(t, extracted, enr.fullTexts["a1"])
	})

	t.Run("should not touch analysis fields on an extraction-only run", func(t *testing.T) {
		article := sampleArticle("a1")
		article.URL = "https://example.com/story"
		articles := newFakeArticles(article)
		enr := newFakeEnrichment()
		extracted := "Extracted body text with plenty of words describing the transit plan in detail."
		extractor := &fakeExtractor{content: &service.ExtractedContent{Text: extracted}}
		p := newTestPipeline(articles, enr, &fakeNLP{}, extractor, &fakePublisher{})

		cfg := domain.EnrichmentConfig{ExtractText: true, StepTimeout: time.Second}
		result, err := p.EnrichArticle(context.Background(), "a1", cfg)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, extracted, enr.fullTexts["a1"])
		assert.Empty(t, enr.analyses)
	})

	t.Run("should continue past an extraction failure with stored text", func(t *testing.T) {
		article := sampleArticle("a1")
		article.URL = "https://example.com/story"
		articles := newFakeArticles(article)
		enr := newFakeEnrichment()
		extractor := &fakeExtractor{err: domain.ErrExtractionFailed}
		p := newTestPipeline(articles, enr, &fakeNLP{}, extractor, &fakePublisher{})

		result, err := p.EnrichArticle(context.Background(), "a1", allSteps())

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Contains(t, result.FailedSteps(), domain.StepTextExtraction)
		assert.Len(t, result.CompletedSteps(), 6)
		assert.True(t, enr.processed["a1"])
	})

	t.Run("should continue past a failing step without aborting the run", func(t *testing.T) {
		articles := newFakeArticles(sampleArticle("a1"))
		enr := newFakeEnrichment()
		nlp := &fakeNLP{entitiesErr: errors.New("provider down")}
		p := newTestPipeline(articles, enr, nlp, &fakeExtractor{}, &fakePublisher{})

		result, err := p.EnrichArticle(context.Background(), "a1", allSteps())

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Contains(t, result.FailedSteps(), domain.StepEntityExtraction)
		assert.Len(t, result.CompletedSteps(), 5)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "entity_extraction")
		assert.True(t, enr.processed["a1"])
	})

	t.Run("should fail the run when every enabled step fails", func(t *testing.T) {
		articles := newFakeArticles(sampleArticle("a1"))
		enr := newFakeEnrichment()
		nlp := &fakeNLP{entitiesErr: errors.New("provider down")}
		p := newTestPipeline(articles, enr, nlp, &fakeExtractor{}, &fakePublisher{})

		cfg := domain.EnrichmentConfig{ExtractEntities: true, StepTimeout: time.Second}
		result, err := p.EnrichArticle(context.Background(), "a1", cfg)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Empty(t, result.CompletedSteps())
		assert.False(t, enr.processed["a1"])
	})

	t.Run("should skip an already enriched article entirely", func(t *testing.T) {
		articles := newFakeArticles(sampleArticle("a1"))
		enr := newFakeEnrichment()
		enr.enriched["a1"] = true
		p := newTestPipeline(articles, enr, &fakeNLP{}, &fakeExtractor{}, &fakePublisher{})

		cfg := allSteps()
		cfg.SkipEnriched = true
		result, err := p.EnrichArticle(context.Background(), "a1", cfg)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Empty(t, result.Steps)
		assert.Len(t, result.SkippedSteps, 7)
		assert.False(t, enr.processed["a1"])
	})

	t.Run("should proceed when the enrichment check itself fails", func(t *testing.T) {
		articles := newFakeArticles(sampleArticle("a1"))
		enr := newFakeEnrichment()
		enr.isEnrichedErr = errors.New("db down")
		p := newTestPipeline(articles, enr, &fakeNLP{}, &fakeExtractor{}, &fakePublisher{})

		cfg := allSteps()
		cfg.SkipEnriched = true
		result, err := p.EnrichArticle(context.Background(), "a1", cfg)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.NotEmpty(t, result.Steps)
	})

	t.Run("should return not found for a missing article", func(t *testing.T) {
		p := newTestPipeline(newFakeArticles(), newFakeEnrichment(), &fakeNLP{}, &fakeExtractor{}, &fakePublisher{})

		result, err := p.EnrichArticle(context.Background(), "ghost", allSteps())

		assert.ErrorIs(t, err, domain.ErrArticleNotFound)
		assert.Nil(t, result)
	})

	t.Run("should abort when the article has no usable text", func(t *testing.T) {
		articles := newFakeArticles(&domain.Article{ID: "empty"})
		p := newTestPipeline(articles, newFakeEnrichment(), &fakeNLP{}, &fakeExtractor{}, &fakePublisher{})

		result, err := p.EnrichArticle(context.Background(), "empty", allSteps())

		assert.ErrorIs(t, err, domain.ErrNoUsableText)
		assert.Nil(t, result)
	})
}

func TestGetUnprocessedArticles(t *testing.T) {
	t.Run("should pass the limit through and default it when non-positive", func(t *testing.T) {
		articles := newFakeArticles()
		articles.unprocessed = []string{"a1", "a2"}
		p := newTestPipeline(articles, newFakeEnrichment(), &fakeNLP{}, &fakeExtractor{}, &fakePublisher{})

		ids, err := p.GetUnprocessedArticles(context.Background(), 25)
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "a2"}, ids)
		assert.Equal(t, 25, articles.lastLimit)

		_, err = p.GetUnprocessedArticles(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, 100, articles.lastLimit)
	})
}

func TestIsPermanentInputError(t *testing.T) {
	t.Run("should recognize article-level failures", func(t *testing.T) {
		assert.True(t, IsPermanentInputError(domain.ErrArticleNotFound))
		assert.True(t, IsPermanentInputError(domain.ErrNoUsableText))
		assert.False(t, IsPermanentInputError(errors.New("network glitch")))
		assert.False(t, IsPermanentInputError(nil))
	})
}
