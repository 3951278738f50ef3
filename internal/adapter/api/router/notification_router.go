package router

import (
	"github.com/labstack/echo/v4"

	"echosocial/internal/adapter/api/handler"
	"echosocial/internal/adapter/api/middleware"
)

func SetupNotificationRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	notificationHandler := handler.GetNotificationHandler()

	notifications := api.Group("/notifications")
	notifications.Use(authMiddleware.Authenticate)

	notifications.GET("", notificationHandler.List)
	notifications.DELETE("/:id", notificationHandler.Delete)
}
