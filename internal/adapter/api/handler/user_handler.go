package handler

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/middleware"
	"marketsync/internal/domain/entity"
	"marketsync/internal/usecase"
	"marketsync/pkg/errors"
	"marketsync/pkg/response"
)

type UserHandler struct {
	identity *usecase.IdentityStream
}

func NewUserHandler(identity *usecase.IdentityStream) *UserHandler {
	return &UserHandler{
		identity: identity,
	}
}

type pushTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// Register creates the profile for the caller's freshly issued uid.
func (h *UserHandler) Register(c echo.Context) error {
	var req usecase.RegisterInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.identity.Register(c.Request().Context(), middleware.UID(c), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var update entity.UserUpdate
	if err := c.Bind(&update); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := h.identity.UpdateProfile(c.Request().Context(), middleware.UID(c), update); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, nil)
}

func (h *UserHandler) RegisterPushToken(c echo.Context) error {
	var req pushTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}
	if err := h.identity.RegisterPushToken(c.Request().Context(), middleware.UID(c), req.Token); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, nil)
}
