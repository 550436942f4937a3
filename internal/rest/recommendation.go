package rest

import (
	"context"
	"net/http"
	"time"

	"smartPromo/domain"
	"smartPromo/pkg/logger"
	"smartPromo/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

type (
	RecommendationHandler struct {
		validate    *validator.Validate
		recoService RecommendationService
		timeout     time.Duration
	}

	RecommendationService interface {
		TopRecommendations(ctx context.Context, limit int) ([]domain.Recommendation, error)
		Stats(ctx context.Context) (domain.RecommendationSummary, error)
		ByCategory(ctx context.Context, category string) ([]domain.Recommendation, error)
	}

	TopQuery struct {
		N int `query:"n" validate:"omitempty,min=1,max=1000"`
	}
)

func NewRecommendationHandler(svc RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		validate:    validator.New(),
		recoService: svc,
		timeout:     10 * time.Second,
	}
}

// GET /api/v1/recommendations?n=30
func (h *RecommendationHandler) GetTop(c echo.Context) error {
	started := time.Now()
	defer func() {
		metrics.RecommendationReadLatency.Observe(time.Since(started).Seconds())
	}()

	var q TopQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	recs, err := h.recoService.TopRecommendations(ctx, q.N)
	if err != nil {
		logger.Error("failed to serve top recommendations", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}

// GET /api/v1/recommendations/stats
func (h *RecommendationHandler) GetStats(c echo.Context) error {
	started := time.Now()
	defer func() {
		metrics.RecommendationReadLatency.Observe(time.Since(started).Seconds())
	}()

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	summary, err := h.recoService.Stats(ctx)
	if err != nil {
		logger.Error("failed to serve recommendation stats", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(summary))
}

// GET /api/v1/recommendations/category/:category
func (h *RecommendationHandler) GetByCategory(c echo.Context) error {
	started := time.Now()
	defer func() {
		metrics.RecommendationReadLatency.Observe(time.Since(started).Seconds())
	}()

	category := c.Param("category")
	if category == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "category is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	recs, err := h.recoService.ByCategory(ctx, category)
	if err != nil {
		logger.Error("failed to serve recommendations by category", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}
