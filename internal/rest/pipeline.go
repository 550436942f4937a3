package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"smartPromo/business/pipeline"
	"smartPromo/domain"
	"smartPromo/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	PipelineHandler struct {
		pipelineService PipelineService
		timeout         time.Duration
	}

	PipelineService interface {
		Trigger(ctx context.Context) (string, error)
		Status(ctx context.Context, runID string) (domain.PipelineRun, error)
		LatestRun(ctx context.Context) (domain.PipelineRun, error)
		Running() bool
	}
)

func NewPipelineHandler(svc PipelineService) *PipelineHandler {
	return &PipelineHandler{
		pipelineService: svc,
		timeout:         10 * time.Second,
	}
}

// POST /api/v1/recommendations/regenerate
func (h *PipelineHandler) TriggerRun(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	runID, err := h.pipelineService.Trigger(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			return c.JSON(http.StatusConflict, ResponseError{Message: err.Error()})
		}
		logger.Error("failed to trigger pipeline run", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"run_id": runID,
		"status": domain.RunStatusRunning,
	})
}

// GET /api/v1/recommendations/runs/:id
func (h *PipelineHandler) GetRun(c echo.Context) error {
	runID := c.Param("id")
	if runID == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "run id is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	run, err := h.pipelineService.Status(ctx, runID)
	if err != nil {
		return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(run))
}

// GET /api/v1/recommendations/status
func (h *PipelineHandler) GetStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	latest, err := h.pipelineService.LatestRun(ctx)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"running":    h.pipelineService.Running(),
			"latest_run": nil,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"running":    h.pipelineService.Running(),
		"latest_run": latest,
	})
}
