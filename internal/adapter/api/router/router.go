package router

import (
	"github.com/labstack/echo/v4"

	"echosocial/internal/adapter/api/middleware"
)

// Setup mounts every route. The REST surface lives under /api and is
// throttled per client IP.
func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimitMiddleware *middleware.RateLimitMiddleware) {
	SetupHealthRouter(e)

	api := e.Group("/api")
	if rateLimitMiddleware != nil {
		api.Use(rateLimitMiddleware.Limit)
	}

	SetupUserRouter(api, authMiddleware)
	SetupPostRouter(api, authMiddleware)
	SetupCommentRouter(api, authMiddleware)
	SetupNotificationRouter(api, authMiddleware)
	SetupChatRouter(api, authMiddleware)
	SetupMediaRouter(api, authMiddleware)
}
