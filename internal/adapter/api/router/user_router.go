package router

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/handler"
	"marketsync/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, userHandler *handler.UserHandler, authMiddleware *middleware.AuthMiddleware, writeLimit echo.MiddlewareFunc) {
	me := e.Group("/v1/me")
	me.Use(authMiddleware.Authenticate)
	me.Use(writeLimit)

	me.POST("", userHandler.Register)
	me.PATCH("", userHandler.UpdateProfile)
	me.PUT("/push-token", userHandler.RegisterPushToken)
}
