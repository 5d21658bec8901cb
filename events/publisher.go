// Package events publishes enrichment domain events to Redis Streams.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"article-enricher/config"
	"article-enricher/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// EventArticleEnriched is emitted after a single article finishes its run.
	EventArticleEnriched = "article.enriched"
	// EventJobCompleted is emitted when a batch job reaches a terminal state.
	EventJobCompleted = "job.completed"

	eventSource = "article-enricher"
)

// Publisher writes domain events to a Redis Stream. A disabled publisher is
// a no-op so callers never need to nil-check.
type Publisher struct {
	client *redis.Client
	cfg    *config.RedisConfig
	logger *slog.Logger
}

// NewPublisher creates a stream publisher. When the Redis block is disabled
// no connection is made and every publish is a no-op.
func NewPublisher(ctx context.Context, cfg *config.RedisConfig, logger *slog.Logger) (*Publisher, error) {
	if !cfg.Enabled {
		logger.InfoContext(ctx, "event publishing disabled")
		return &Publisher{cfg: cfg, logger: logger}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorContext(ctx, "failed to connect to redis", "error", err, "address", cfg.Address)
		client.Close()
		return nil, err
	}

	logger.InfoContext(ctx, "event publisher connected", "address", cfg.Address, "stream", cfg.Stream)

	return &Publisher{client: client, cfg: cfg, logger: logger}, nil
}

// Close releases the Redis connection.
func (p *Publisher) Close() {
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			p.logger.Error("failed to close redis client", "error", err)
		}
	}
}

// ArticleEnriched publishes the per-article outcome event.
func (p *Publisher) ArticleEnriched(ctx context.Context, result *domain.EnrichmentResult) {
	payload := map[string]any{
		"article_id":      result.ArticleID,
		"success":         result.Success,
		"completed_steps": result.CompletedSteps(),
		"failed_steps":    result.FailedSteps(),
		"duration_ms":     result.TotalDuration.Milliseconds(),
	}
	p.publish(ctx, EventArticleEnriched, payload)
}

// JobCompleted publishes the terminal state of a batch job.
func (p *Publisher) JobCompleted(ctx context.Context, job *domain.EnrichmentJob) {
	payload := map[string]any{
		"job_id":    job.ID,
		"status":    job.Status,
		"total":     job.Progress.Total,
		"succeeded": job.Progress.Succeeded,
		"failed":    job.Progress.Failed,
		"skipped":   job.Progress.Skipped,
	}
	p.publish(ctx, EventJobCompleted, payload)
}

// publish appends one event to the stream. Failures are logged, never
// propagated; event delivery is best-effort and must not fail enrichment.
func (p *Publisher) publish(ctx context.Context, eventType string, payload map[string]any) {
	if p.client == nil {
		return
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal event payload", "error", err, "event_type", eventType)
		return
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.cfg.Stream,
		MaxLen: p.cfg.StreamMaxLen,
		Approx: true,
		Values: map[string]any{
			"event_id":   uuid.New().String(),
			"event_type": eventType,
			"source":     eventSource,
			"created_at": time.Now().UTC().Format(time.RFC3339),
			"payload":    string(payloadJSON),
		},
	}).Err()
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event", "error", err, "event_type", eventType)
		return
	}

	p.logger.DebugContext(ctx, "event published", "event_type", eventType, "stream", p.cfg.Stream)
}
