package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *pgxpool.Pool, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
	}
}

// HandleHealth handles GET /api/v1/health requests. Readiness requires the
// database to answer a ping.
func (h *HealthHandler) HandleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error("health check failed, database unreachable", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"reason": "database unreachable",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
