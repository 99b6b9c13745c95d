package repository

import (
	"context"
	"time"

	"marketsync/internal/domain/entity"
	"marketsync/pkg/stream"
)

type ChatRepository interface {
	// Create fails with a CONFLICT error when chat.ID is already taken.
	Create(ctx context.Context, chat *entity.Chat) error
	// GetByID returns nil, nil when the chat does not exist.
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	// FindByTriple returns nil, nil when no chat exists for the triple.
	FindByTriple(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error)
	// WatchByUser streams chats where the user is buyer or seller, newest first.
	WatchByUser(ctx context.Context, userID string) *stream.Stream[[]*entity.Chat]
	MarkRead(ctx context.Context, chatID, userID string, at time.Time) error
	TouchLastMessage(ctx context.Context, chatID string, at time.Time) error

	// CreateMessage assigns the message ID and its store-side CreatedAt.
	CreateMessage(ctx context.Context, message *entity.Message) error
	// WatchMessages streams the full message list of a chat, oldest first.
	WatchMessages(ctx context.Context, chatID string) *stream.Stream[[]*entity.Message]
}
