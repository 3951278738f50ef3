package router

import (
	"github.com/labstack/echo/v4"

	"echosocial/internal/adapter/api/handler"
	"echosocial/internal/adapter/api/middleware"
)

func SetupCommentRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	commentHandler := handler.GetCommentHandler()

	comments := api.Group("/comments")
	comments.Use(authMiddleware.Authenticate)

	comments.GET("/post/:id", commentHandler.ListByPost)
	comments.POST("/post/:id", commentHandler.Create)
	comments.DELETE("/:id", commentHandler.Delete)
}
