package router

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/handler"
	"marketsync/internal/adapter/api/middleware"
)

// SetupChatRouter sets up the chat write routes; reads go over WebSocket.
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware, writeLimit echo.MiddlewareFunc) {
	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate)
	chatGroup.Use(writeLimit)

	chatGroup.POST("", chatHandler.CreateChat)
	chatGroup.PUT("/:id/read", chatHandler.MarkRead)
	chatGroup.POST("/:id/messages", chatHandler.SendMessage)
	chatGroup.POST("/:id/offers", chatHandler.SendOffer)
}
