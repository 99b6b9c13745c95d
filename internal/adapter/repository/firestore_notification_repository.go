package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
	"marketsync/pkg/stream"
)

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{
		client: client,
	}
}

func (r *firestoreNotificationRepository) notifications(userID string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(userID).Collection("notifications")
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	ref := r.notifications(notification.UserID).NewDoc()
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	if _, err := ref.Create(ctx, notification); err != nil {
		return errors.Store("Failed to send notification", err)
	}

	notification.ID = ref.ID
	return nil
}

func (r *firestoreNotificationRepository) Watch(ctx context.Context, userID string) *stream.Stream[[]*entity.Notification] {
	query := r.notifications(userID).OrderBy("createdAt", firestore.Desc)
	return watchQuery(ctx, query, decodeNotification, "notifications")
}

func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	_, err := r.notifications(userID).Doc(id).Update(ctx, []firestore.Update{
		{Path: "read", Value: true},
	})
	if err != nil {
		return errors.Store("Failed to mark notification as read", err)
	}
	return nil
}

func (r *firestoreNotificationRepository) ListUnread(ctx context.Context, userID string) ([]*entity.Notification, error) {
	query := r.notifications(userID).Where("read", "==", false)
	return getAll(ctx, query, decodeNotification, "notifications")
}

func (r *firestoreNotificationRepository) ListAll(ctx context.Context, userID string) ([]*entity.Notification, error) {
	return getAll(ctx, r.notifications(userID).Query, decodeNotification, "notifications")
}

func (r *firestoreNotificationRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.notifications(userID).Doc(id).Delete(ctx); err != nil {
		return errors.Store("Failed to delete notification", err)
	}
	return nil
}

// A WriteBatch commits atomically and holds at most 500 writes.
func (r *firestoreNotificationRepository) MarkReadBatch(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	batch := r.client.Batch()
	for _, id := range ids {
		batch.Update(r.notifications(userID).Doc(id), []firestore.Update{
			{Path: "read", Value: true},
		})
	}
	if _, err := batch.Commit(ctx); err != nil {
		return errors.Store("Failed to mark all notifications as read", err)
	}
	return nil
}

func (r *firestoreNotificationRepository) DeleteBatch(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	batch := r.client.Batch()
	for _, id := range ids {
		batch.Delete(r.notifications(userID).Doc(id))
	}
	if _, err := batch.Commit(ctx); err != nil {
		return errors.Store("Failed to clear notifications", err)
	}
	return nil
}
