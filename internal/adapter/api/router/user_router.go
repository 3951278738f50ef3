package router

import (
	"github.com/labstack/echo/v4"

	"echosocial/internal/adapter/api/handler"
	"echosocial/internal/adapter/api/middleware"
)

func SetupUserRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	userHandler := handler.GetUserHandler()

	// Public profiles.
	api.GET("/users/profile/:username", userHandler.GetByUsername)

	users := api.Group("/users")
	users.Use(authMiddleware.Authenticate)

	users.POST("/sync", userHandler.Sync)
	users.GET("/me", userHandler.GetMe)
	users.PUT("/profile", userHandler.UpdateProfile)
	users.GET("/search", userHandler.Search)
	users.PUT("/device-token", userHandler.RegisterDevice)
	users.POST("/follow/:id", userHandler.ToggleFollow)
	users.GET("/:id", userHandler.GetByID)
}
