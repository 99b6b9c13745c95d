package router

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/handler"
	"marketsync/internal/adapter/api/middleware"
	"marketsync/internal/infrastructure/ratelimit"
)

type Handlers struct {
	Health       *handler.HealthHandler
	User         *handler.UserHandler
	Product      *handler.ProductHandler
	Chat         *handler.ChatHandler
	Notification *handler.NotificationHandler
	WebSocket    *handler.WebSocketHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, writeLimiter *ratelimit.RateLimiter) {
	writeLimit := middleware.RateLimit(writeLimiter)

	SetupHealthRouter(e, h.Health)
	SetupUserRouter(e, h.User, authMiddleware, writeLimit)
	SetupProductRouter(e, h.Product, authMiddleware, writeLimit)
	SetupChatRouter(e, h.Chat, authMiddleware, writeLimit)
	SetupNotificationRouter(e, h.Notification, authMiddleware, writeLimit)
	SetupWebSocketRouter(e, h.WebSocket, authMiddleware)
}
