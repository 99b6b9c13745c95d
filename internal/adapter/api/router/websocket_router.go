package router

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/handler"
	"marketsync/internal/adapter/api/middleware"
)

// SetupWebSocketRouter sets up the live stream endpoints. /v1/ws/me carries
// its own sign-in frames and is not behind the auth middleware.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/v1/ws/me", wsHandler.Me)

	live := e.Group("/v1/ws")
	live.Use(authMiddleware.Authenticate)

	live.GET("/products", wsHandler.Products)
	live.GET("/chats", wsHandler.Chats)
	live.GET("/chats/:id/messages", wsHandler.Messages)
	live.GET("/notifications", wsHandler.Notifications)
	live.GET("/notifications/unread", wsHandler.UnreadCount)
}
