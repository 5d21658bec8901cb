package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"article-enricher/domain"

	"github.com/labstack/echo/v4"
)

// JobHandler serves the job management and stats endpoints.
type JobHandler struct {
	orchestrator Orchestrator
	logger       *slog.Logger
}

// NewJobHandler creates a new job handler.
func NewJobHandler(orchestrator Orchestrator, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// HandleGetJob handles GET /api/v1/jobs/:job_id requests.
func (h *JobHandler) HandleGetJob(c echo.Context) error {
	jobID := c.Param("job_id")

	job, err := h.orchestrator.GetJob(jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Job not found")
		}
		h.logger.Error("failed to get job", "error", err, "job_id", jobID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get job")
	}

	return c.JSON(http.StatusOK, job)
}

// HandleCancelJob handles DELETE /api/v1/jobs/:job_id requests.
func (h *JobHandler) HandleCancelJob(c echo.Context) error {
	jobID := c.Param("job_id")

	if err := h.orchestrator.CancelJob(jobID); err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Job not found")
		case errors.Is(err, domain.ErrJobNotCancellable):
			return echo.NewHTTPError(http.StatusConflict, "Job already finished")
		default:
			h.logger.Error("failed to cancel job", "error", err, "job_id", jobID)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to cancel job")
		}
	}

	h.logger.Info("job cancellation accepted", "job_id", jobID)

	return c.JSON(http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": "cancelling",
	})
}

// HandleListJobs handles GET /api/v1/jobs requests. The running query flag
// filters to pending and running jobs.
func (h *JobHandler) HandleListJobs(c echo.Context) error {
	runningOnly := false
	if err := echo.QueryParamsBinder(c).Bool("running", &runningOnly).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid running flag")
	}

	jobs := h.orchestrator.ListJobs(runningOnly)

	return c.JSON(http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// HandleStats handles GET /api/v1/stats requests.
func (h *JobHandler) HandleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.orchestrator.GetStats())
}
