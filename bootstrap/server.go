package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// NewHTTPServer creates and configures the Echo HTTP server.
func NewHTTPServer(deps *Dependencies, otelEnabled bool, otelServiceName string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	if otelEnabled {
		e.Use(otelecho.Middleware(otelServiceName))
	}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" || path == "/api/v1/health"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			deps.Logger.InfoContext(ctx, "HTTP request completed",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := e.Group("/api/v1")
	api.POST("/enrich/:article_id", deps.EnrichHandler.HandleEnrichArticle)
	api.POST("/enrich/batch", deps.EnrichHandler.HandleEnrichBatch)
	api.GET("/articles/unprocessed", deps.EnrichHandler.HandleUnprocessed)
	api.GET("/jobs", deps.JobHandler.HandleListJobs)
	api.GET("/jobs/:job_id", deps.JobHandler.HandleGetJob)
	api.DELETE("/jobs/:job_id", deps.JobHandler.HandleCancelJob)
	api.GET("/stats", deps.JobHandler.HandleStats)
	api.GET("/health", deps.HealthHandler.HandleHealth)

	e.GET("/health", deps.HealthHandler.HandleHealth)

	return e
}

// StartHTTPServer starts the HTTP server in a goroutine.
func StartHTTPServer(e *echo.Echo, port int, log *slog.Logger) {
	go func() {
		addr := fmt.Sprintf(":%d", port)
		log.Info("starting HTTP server", "port", port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()
}
