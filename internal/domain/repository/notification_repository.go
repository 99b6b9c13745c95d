package repository

import (
	"context"

	"marketsync/internal/domain/entity"
	"marketsync/pkg/stream"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	// Watch streams the user's notifications, newest first.
	Watch(ctx context.Context, userID string) *stream.Stream[[]*entity.Notification]
	MarkRead(ctx context.Context, userID, id string) error
	ListUnread(ctx context.Context, userID string) ([]*entity.Notification, error)
	ListAll(ctx context.Context, userID string) ([]*entity.Notification, error)
	Delete(ctx context.Context, userID, id string) error

	// MarkReadBatch and DeleteBatch apply to exactly the given ids in one
	// atomic batch: either every write lands or none does.
	MarkReadBatch(ctx context.Context, userID string, ids []string) error
	DeleteBatch(ctx context.Context, userID string, ids []string) error
}
