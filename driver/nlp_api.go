package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"article-enricher/config"
	"article-enricher/domain"
	"article-enricher/service"
)

// NLPAPIClient calls the external NLP provider over HTTP. It implements
// service.NLPProvider.
type NLPAPIClient struct {
	client *http.Client
	cfg    *config.NLPConfig
	logger *slog.Logger
}

// NewNLPAPIClient creates an NLP provider client.
func NewNLPAPIClient(cfg *config.NLPConfig, logger *slog.Logger) *NLPAPIClient {
	return &NLPAPIClient{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

type entitiesRequest struct {
	Text string `json:"text"`
}

type entitiesResponse struct {
	Entities []struct {
		Text       string  `json:"text"`
		Label      string  `json:"label"`
		Start      int     `json:"start"`
		End        int     `json:"end"`
		Confidence float64 `json:"confidence"`
		Importance float64 `json:"importance"`
	} `json:"entities"`
}

// ExtractEntities requests named-entity recognition for the given text.
func (c *NLPAPIClient) ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error) {
	var resp entitiesResponse
	if err := c.post(ctx, c.cfg.EntitiesPath, entitiesRequest{Text: text}, &resp); err != nil {
		return nil, err
	}

	entities := make([]domain.Entity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		entities = append(entities, domain.Entity{
			Text:       e.Text,
			Label:      e.Label,
			Start:      e.Start,
			End:        e.End,
			Confidence: e.Confidence,
			Importance: e.Importance,
		})
	}

	c.logger.DebugContext(ctx, "entities extracted", "count", len(entities))

	return entities, nil
}

type zeroShotRequest struct {
	Text               string   `json:"text"`
	CandidateLabels    []string `json:"candidate_labels"`
	HypothesisTemplate string   `json:"hypothesis_template,omitempty"`
}

type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// ClassifyZeroShot runs zero-shot topic classification against the
// candidate label set.
func (c *NLPAPIClient) ClassifyZeroShot(ctx context.Context, text string, candidateLabels []string, hypothesisTemplate string) ([]domain.Tag, error) {
	req := zeroShotRequest{
		Text:               text,
		CandidateLabels:    candidateLabels,
		HypothesisTemplate: hypothesisTemplate,
	}

	var resp zeroShotResponse
	if err := c.post(ctx, c.cfg.ZeroShotPath, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Labels) != len(resp.Scores) {
		return nil, fmt.Errorf("zero-shot response has %d labels but %d scores", len(resp.Labels), len(resp.Scores))
	}

	tags := make([]domain.Tag, 0, len(resp.Labels))
	for i, label := range resp.Labels {
		tags = append(tags, domain.Tag{Label: label, Confidence: resp.Scores[i]})
	}

	return tags, nil
}

type sentimentRequest struct {
	Text string `json:"text"`
}

type sentimentResponse struct {
	Sentiment      string  `json:"sentiment"`
	Confidence     float64 `json:"confidence"`
	BiasScore      float64 `json:"bias_score"`
	BiasConfidence float64 `json:"bias_confidence"`
	Subjectivity   float64 `json:"subjectivity"`
}

// AnalyzeSentimentBias requests model-based stance and bias analysis.
func (c *NLPAPIClient) AnalyzeSentimentBias(ctx context.Context, text string) (*domain.StanceAnalysis, error) {
	var resp sentimentResponse
	if err := c.post(ctx, c.cfg.SentimentPath, sentimentRequest{Text: text}, &resp); err != nil {
		return nil, err
	}

	return &domain.StanceAnalysis{
		Stance:           domain.Stance(resp.Sentiment),
		StanceConfidence: resp.Confidence,
		BiasScore:        resp.BiasScore,
		BiasConfidence:   resp.BiasConfidence,
		Subjectivity:     resp.Subjectivity,
		Method:           "provider",
	}, nil
}

func (c *NLPAPIClient) post(ctx context.Context, path string, payload any, out any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := c.cfg.Host + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "NLP provider request failed", "error", err, "api_url", apiURL)
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.ErrorContext(ctx, "NLP provider returned non-200 status",
			"status", resp.Status, "api_url", apiURL, "body", string(bodyBytes))
		return fmt.Errorf("%w: status %s", domain.ErrProviderUnavailable, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse NLP provider response: %w", err)
	}

	return nil
}

var _ service.NLPProvider = (*NLPAPIClient)(nil)
