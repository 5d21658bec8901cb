package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"article-enricher/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Init initializes the database connection pool from configuration.
func Init(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Name, cfg.User, cfg.Password, cfg.SSLMode,
	)

	logger.InfoContext(ctx, "database connection",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Name,
		"sslmode", cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.ErrorContext(ctx, "failed to parse database config", "error", err)
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.ConnConfig.Tracer = &QueryTracer{logger: logger}

	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.ErrorContext(ctx, "failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to ping database", "error", err)
		dbPool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.InfoContext(ctx, "connected to database pool",
		"max_conns", poolConfig.MaxConns,
		"min_conns", poolConfig.MinConns,
	)

	return dbPool, nil
}
