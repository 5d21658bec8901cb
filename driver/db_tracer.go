package driver

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	queryDurationThreshold = 100 * time.Millisecond
)

type queryStartKey struct{}

// QueryTracer logs queries that exceed the duration threshold.
type QueryTracer struct {
	logger *slog.Logger
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryEndData) {
	queryStart, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}

	duration := time.Since(queryStart)

	if duration > queryDurationThreshold {
		t.logger.InfoContext(ctx, "slow query executed", "duration", duration)
	}
}
