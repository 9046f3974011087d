package router

import (
	"plateful/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetCatalogRoutes(api *echo.Group, handler *rest.CatalogHandler, authRequired echo.MiddlewareFunc) {
	items := api.Group("/items", authRequired)

	items.GET("", handler.GetAllItems)
	items.GET("/:id", handler.GetItemByID)
}

func SetSessionRoutes(api *echo.Group, handler *rest.SessionHandler, authRequired echo.MiddlewareFunc) {
	sessions := api.Group("/sessions", authRequired)

	sessions.POST("", handler.Start)
	sessions.POST("/:id/complete", handler.Complete)
	sessions.POST("/:id/abandon", handler.Abandon)
}

func SetRecommendationRoutes(api *echo.Group, handler *rest.RecommendHandler, authRequired echo.MiddlewareFunc) {
	reco := api.Group("/recommendations", authRequired)

	reco.GET("", handler.NextRound)
	reco.GET("/debug", handler.DebugRound)
	reco.POST("/feedback", handler.Feedback)
	reco.POST("/compose", handler.Compose)
}

func SetAdminRoutes(api *echo.Group, handler *rest.AdminHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	admin := api.Group("/admin", authRequired, adminOnly)

	admin.POST("/index/rebuild", handler.TriggerRebuild)
	admin.GET("/index/status", handler.RebuildStatus)
	admin.GET("/engine-params", handler.GetEngineParams)
	admin.PUT("/engine-params", handler.UpdateEngineParams)
}
