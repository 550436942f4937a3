package router

import (
	"smartPromo/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupRecommendationRoutes(
	api *echo.Group,
	recoHandler *rest.RecommendationHandler,
	pipelineHandler *rest.PipelineHandler,
	authRequired echo.MiddlewareFunc,
	adminOnly echo.MiddlewareFunc,
) {
	reco := api.Group("/recommendations", authRequired)

	reco.GET("", recoHandler.GetTop)
	reco.GET("/stats", recoHandler.GetStats)
	reco.GET("/category/:category", recoHandler.GetByCategory)

	reco.POST("/regenerate", pipelineHandler.TriggerRun, adminOnly)
	reco.GET("/status", pipelineHandler.GetStatus)
	reco.GET("/runs/:id", pipelineHandler.GetRun)
}
