package router

import (
	"github.com/labstack/echo/v4"

	"echosocial/internal/adapter/api/handler"
	"echosocial/internal/adapter/api/middleware"
)

func SetupMediaRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	mediaHandler := handler.GetMediaHandler()

	media := api.Group("/media")
	media.Use(authMiddleware.Authenticate)

	media.POST("", mediaHandler.Upload)
}
