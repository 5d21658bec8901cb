package service

import (
	"context"

	"article-enricher/domain"
)

// NLPProvider is the external provider contract for named-entity
// recognition, zero-shot tag classification and sentiment/bias analysis.
// All three are remote calls subject to timeout. Callers treat non-success
// as a retryable step failure for entities/tags and as a fallback trigger
// for sentiment/bias; the invocation mechanism behind the interface is not
// this service's concern.
type NLPProvider interface {
	ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error)
	ClassifyZeroShot(ctx context.Context, text string, candidateLabels []string, hypothesisTemplate string) ([]domain.Tag, error)
	AnalyzeSentimentBias(ctx context.Context, text string) (*domain.StanceAnalysis, error)
}

// ExtractedContent is the output of the text-extraction collaborator.
type ExtractedContent struct {
	Title   string `json:"title,omitempty"`
	Text    string `json:"text"`
	Excerpt string `json:"excerpt,omitempty"`
}

// TextExtractorService fetches an article URL and extracts its readable
// text.
type TextExtractorService interface {
	Extract(ctx context.Context, url string) (*ExtractedContent, error)
}
