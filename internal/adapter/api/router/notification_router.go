package router

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/handler"
	"marketsync/internal/adapter/api/middleware"
)

func SetupNotificationRouter(e *echo.Echo, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware, writeLimit echo.MiddlewareFunc) {
	notifications := e.Group("/v1/notifications")
	notifications.Use(authMiddleware.Authenticate)
	notifications.Use(writeLimit)

	notifications.POST("", notificationHandler.Create)
	notifications.PUT("/read-all", notificationHandler.MarkAllRead)
	notifications.PUT("/:id/read", notificationHandler.MarkRead)
	notifications.DELETE("/:id", notificationHandler.Delete)
	notifications.DELETE("", notificationHandler.ClearAll)
}
