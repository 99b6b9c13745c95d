package usecase

import (
	"context"
	"sort"
	"strings"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
	"marketsync/pkg/stream"
)

// MessageStream is the ordered feed of a single chat plus the offer
// sub-protocol carried inside it.
type MessageStream struct {
	chatRepo repository.ChatRepository
}

func NewMessageStream(chatRepo repository.ChatRepository) *MessageStream {
	return &MessageStream{chatRepo: chatRepo}
}

// Subscribe replays the full message list, oldest first, on every change.
func (m *MessageStream) Subscribe(ctx context.Context, chatID string) *stream.Stream[[]*entity.Message] {
	if strings.TrimSpace(chatID) == "" {
		return stream.Failed[[]*entity.Message](errors.Validation("chat id is required", nil))
	}
	return stream.Map(m.chatRepo.WatchMessages(ctx, chatID), func(messages []*entity.Message) ([]*entity.Message, error) {
		sort.SliceStable(messages, func(i, j int) bool {
			return messages[i].CreatedAt.Before(messages[j].CreatedAt)
		})
		return messages, nil
	})
}

// Send appends a message and then bumps the chat's lastMessageAt. A failed
// bump leaves the appended message in place.
func (m *MessageStream) Send(ctx context.Context, chatID, senderID, content string, msgType entity.MessageType) (*entity.Message, error) {
	if strings.TrimSpace(chatID) == "" || strings.TrimSpace(senderID) == "" {
		return nil, errors.Validation("chat and sender are required", nil)
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.Validation("message content is required", nil)
	}
	if !msgType.Valid() {
		return nil, errors.Validation("unknown message type "+string(msgType), nil)
	}

	message := &entity.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
		Type:     msgType,
	}
	if err := m.chatRepo.CreateMessage(ctx, message); err != nil {
		logger.Error("Send: failed to append message to chat %s: %v", chatID, err)
		return nil, sendFailure(err)
	}
	if err := m.chatRepo.TouchLastMessage(ctx, chatID, message.CreatedAt); err != nil {
		logger.Error("Send: message %s stored but chat %s not touched: %v", message.ID, chatID, err)
		return nil, sendFailure(err)
	}
	return message, nil
}

func sendFailure(err error) error {
	if appErr, ok := err.(*errors.AppError); ok && appErr.Err != nil {
		err = appErr.Err
	}
	return errors.Store("Failed to send message", err)
}

// SendOffer posts an offer message whose content is the amount in its
// shortest decimal form.
func (m *MessageStream) SendOffer(ctx context.Context, chatID, senderID string, amount float64) (*entity.Message, error) {
	if err := entity.CheckOfferAmount(amount); err != nil {
		return nil, errors.Validation("Invalid offer", err)
	}
	return m.Send(ctx, chatID, senderID, entity.FormatOfferAmount(amount), entity.MessageTypeOffer)
}

// SendOfferText parses a user-entered amount before sending the offer.
func (m *MessageStream) SendOfferText(ctx context.Context, chatID, senderID, raw string) (*entity.Message, error) {
	amount, err := entity.ParseOfferAmount(raw)
	if err != nil {
		return nil, errors.Validation("Invalid offer", err)
	}
	return m.SendOffer(ctx, chatID, senderID, amount)
}
