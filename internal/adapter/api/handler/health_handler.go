package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	ws "marketsync/internal/infrastructure/websocket"
)

type HealthHandler struct {
	wsManager *ws.Manager
}

func NewHealthHandler(wsManager *ws.Manager) *HealthHandler {
	return &HealthHandler{
		wsManager: wsManager,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"connections": h.wsManager.Count(),
	})
}
