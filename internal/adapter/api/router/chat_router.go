package router

import (
	"github.com/labstack/echo/v4"

	"echosocial/internal/adapter/api/handler"
	"echosocial/internal/adapter/api/middleware"
)

// SetupChatRouter mounts the conversation endpoints and the live session
// websocket.
func SetupChatRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	chatHandler := handler.GetChatHandler()
	wsHandler := handler.GetWebSocketHandler()

	conversations := api.Group("/conversations")
	conversations.Use(authMiddleware.Authenticate)

	conversations.POST("", chatHandler.CreateConversation)
	conversations.GET("", chatHandler.ListConversations)
	conversations.GET("/:id", chatHandler.GetConversation)
	conversations.PUT("/:id/read", chatHandler.MarkRead)
	conversations.PUT("/:id/typing", chatHandler.SetTyping)

	conversations.GET("/:id/messages", chatHandler.ListMessages)
	conversations.POST("/:id/messages", chatHandler.SendMessage)
	conversations.DELETE("/:id/messages/:messageId", chatHandler.DeleteMessage)
	conversations.POST("/:id/messages/:messageId/reactions", chatHandler.ToggleReaction)

	if wsHandler != nil {
		conversations.GET("/:id/live", wsHandler.HandleLive)
	}
}
