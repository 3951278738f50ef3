package router

import (
	"github.com/labstack/echo/v4"

	"echosocial/internal/adapter/api/handler"
	"echosocial/internal/adapter/api/middleware"
)

func SetupPostRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	postHandler := handler.GetPostHandler()

	posts := api.Group("/posts")
	posts.Use(authMiddleware.Authenticate)

	posts.POST("", postHandler.Create)
	posts.GET("", postHandler.List)
	posts.GET("/user/:username", postHandler.ListByUsername)
	posts.GET("/:id", postHandler.GetByID)
	posts.POST("/:id/like", postHandler.ToggleLike)
	posts.DELETE("/:id", postHandler.Delete)
}
