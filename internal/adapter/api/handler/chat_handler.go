package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/middleware"
	"marketsync/internal/domain/entity"
	"marketsync/internal/usecase"
	"marketsync/pkg/errors"
	"marketsync/pkg/response"
)

type ChatHandler struct {
	chats    *usecase.ChatDirectory
	messages *usecase.MessageStream
}

func NewChatHandler(chats *usecase.ChatDirectory, messages *usecase.MessageStream) *ChatHandler {
	return &ChatHandler{
		chats:    chats,
		messages: messages,
	}
}

type createChatRequest struct {
	SellerID  string `json:"seller_id" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
}

type sendMessageRequest struct {
	Content string             `json:"content" validate:"required"`
	Type    entity.MessageType `json:"type" validate:"required,oneof=text image offer"`
}

// Amount is taken as typed by the user and parsed server side.
type sendOfferRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// CreateChat opens (or returns) the caller's chat with a seller about a product.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chats.GetOrCreateChat(c.Request().Context(), middleware.UID(c), req.SellerID, req.ProductID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, chat)
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	chatID, uid := c.Param("id"), middleware.UID(c)
	if err := h.requireParticipant(c.Request().Context(), chatID, uid); err != nil {
		return response.Error(c, err)
	}
	if err := h.chats.MarkRead(c.Request().Context(), chatID, uid); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"chat_id": chatID})
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	chatID, uid := c.Param("id"), middleware.UID(c)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}
	if err := h.requireParticipant(c.Request().Context(), chatID, uid); err != nil {
		return response.Error(c, err)
	}

	message, err := h.messages.Send(c.Request().Context(), chatID, uid, req.Content, req.Type)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, message)
}

func (h *ChatHandler) SendOffer(c echo.Context) error {
	chatID, uid := c.Param("id"), middleware.UID(c)

	var req sendOfferRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}
	// parse before touching the store
	amount, err := entity.ParseOfferAmount(req.Amount)
	if err != nil {
		return response.Error(c, errors.Validation("Invalid offer", err))
	}
	if err := h.requireParticipant(c.Request().Context(), chatID, uid); err != nil {
		return response.Error(c, err)
	}

	message, err := h.messages.SendOffer(c.Request().Context(), chatID, uid, amount)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, message)
}

func (h *ChatHandler) requireParticipant(ctx context.Context, chatID, uid string) error {
	chat, err := h.chats.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if chat == nil {
		return errors.NotFound("Chat", nil)
	}
	if !chat.HasParticipant(uid) {
		return errors.Forbidden("You are not a participant of this chat", nil)
	}
	return nil
}
