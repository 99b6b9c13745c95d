package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/middleware"
	"marketsync/internal/domain/entity"
	"marketsync/internal/usecase"
	"marketsync/pkg/errors"
	"marketsync/pkg/response"
)

type NotificationHandler struct {
	center *usecase.NotificationCenter
}

func NewNotificationHandler(center *usecase.NotificationCenter) *NotificationHandler {
	return &NotificationHandler{
		center: center,
	}
}

type createNotificationRequest struct {
	UserID  string                  `json:"user_id" validate:"required"`
	Type    entity.NotificationType `json:"type" validate:"required,oneof=offer chat review system"`
	Title   string                  `json:"title" validate:"required"`
	Message string                  `json:"message"`
}

// Create notifies another user, e.g. the seller about a new offer. A failed
// push still answers 201 with the stored notification and the push error.
func (h *NotificationHandler) Create(c echo.Context) error {
	var req createNotificationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	notification, err := h.center.Create(c.Request().Context(), req.UserID, usecase.CreateNotificationInput{
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
	})
	if notification != nil && errors.Is(err, errors.CodePushDispatch) {
		return response.Partial(c, http.StatusCreated, notification, err)
	}
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, notification)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	if err := h.center.MarkRead(c.Request().Context(), middleware.UID(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"id": c.Param("id")})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	if err := h.center.MarkAllRead(c.Request().Context(), middleware.UID(c)); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, nil)
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	if err := h.center.Delete(c.Request().Context(), middleware.UID(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"id": c.Param("id")})
}

func (h *NotificationHandler) ClearAll(c echo.Context) error {
	if err := h.center.ClearAll(c.Request().Context(), middleware.UID(c)); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, nil)
}
