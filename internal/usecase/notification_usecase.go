package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/internal/domain/service"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
	"marketsync/pkg/stream"
)

// NotificationCenter keeps each user's notification feed and fans new
// notifications out to the user's device.
type NotificationCenter struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	push             service.PushDispatcher
}

// NewNotificationCenter accepts a nil push dispatcher when push delivery is
// disabled.
func NewNotificationCenter(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	push service.PushDispatcher,
) *NotificationCenter {
	return &NotificationCenter{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		push:             push,
	}
}

func (n *NotificationCenter) Subscribe(ctx context.Context, userID string) *stream.Stream[[]*entity.Notification] {
	if strings.TrimSpace(userID) == "" {
		return stream.Failed[[]*entity.Notification](errors.Validation("user id is required", nil))
	}
	return stream.Map(n.notificationRepo.Watch(ctx, userID), func(notifications []*entity.Notification) ([]*entity.Notification, error) {
		sort.SliceStable(notifications, func(i, j int) bool {
			return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
		})
		return notifications, nil
	})
}

// UnreadCount streams the number of unread notifications.
func (n *NotificationCenter) UnreadCount(ctx context.Context, userID string) *stream.Stream[int] {
	return stream.Map(n.Subscribe(ctx, userID), func(notifications []*entity.Notification) (int, error) {
		return entity.CountUnread(notifications), nil
	})
}

type CreateNotificationInput struct {
	Type    entity.NotificationType `json:"type" validate:"required,oneof=offer chat review system"`
	Title   string                  `json:"title" validate:"required"`
	Message string                  `json:"message"`
}

// Create stores the notification and then pushes it to the user's device.
// A push failure is reported alongside the stored notification; the record
// stays.
func (n *NotificationCenter) Create(ctx context.Context, userID string, input CreateNotificationInput) (*entity.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.Validation("user id is required", nil)
	}
	if err := entity.Validate(input); err != nil {
		return nil, errors.Validation("Invalid notification", err)
	}

	notification := &entity.Notification{
		UserID:    userID,
		Type:      input.Type,
		Title:     input.Title,
		Message:   input.Message,
		Read:      false,
		CreatedAt: time.Now(),
	}
	if err := n.notificationRepo.Create(ctx, notification); err != nil {
		logger.Error("Create: failed to store notification for %s: %v", userID, err)
		return nil, err
	}

	if err := n.dispatch(ctx, notification); err != nil {
		logger.Warn("Notification %s stored but push failed: %v", notification.ID, err)
		return notification, err
	}
	return notification, nil
}

func (n *NotificationCenter) dispatch(ctx context.Context, notification *entity.Notification) error {
	if n.push == nil {
		return nil
	}

	token, err := n.userRepo.PushToken(ctx, notification.UserID)
	if err != nil {
		return errors.PushDispatch("Failed to look up push token", err)
	}
	if token == "" {
		return nil
	}

	err = n.push.Dispatch(ctx, service.PushMessage{
		Token: token,
		Title: notification.Title,
		Body:  notification.Message,
		Data: map[string]string{
			"type":   string(notification.Type),
			"userId": notification.UserID,
		},
	})
	if err != nil {
		return errors.PushDispatch("Failed to dispatch push notification", err)
	}
	return nil
}

// MarkRead is idempotent.
func (n *NotificationCenter) MarkRead(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return errors.Validation("user and notification are required", nil)
	}
	return n.notificationRepo.MarkRead(ctx, userID, id)
}

// MarkAllRead flips every notification unread at read time in one batch.
// Notifications created after the read are left alone. One deleted between
// the read and the commit fails the whole batch with a store error and
// nothing is marked; the caller may retry.
func (n *NotificationCenter) MarkAllRead(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.Validation("user id is required", nil)
	}

	unread, err := n.notificationRepo.ListUnread(ctx, userID)
	if err != nil {
		return err
	}
	if len(unread) == 0 {
		return nil
	}
	if err := n.notificationRepo.MarkReadBatch(ctx, userID, notificationIDs(unread)); err != nil {
		logger.Error("MarkAllRead: batch failed for %s: %v", userID, err)
		return err
	}

	logger.Debug("Marked %d notifications read for %s", len(unread), userID)
	return nil
}

func (n *NotificationCenter) Delete(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return errors.Validation("user and notification are required", nil)
	}
	return n.notificationRepo.Delete(ctx, userID, id)
}

// ClearAll deletes every notification present at read time in one batch.
func (n *NotificationCenter) ClearAll(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.Validation("user id is required", nil)
	}

	all, err := n.notificationRepo.ListAll(ctx, userID)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return nil
	}
	if err := n.notificationRepo.DeleteBatch(ctx, userID, notificationIDs(all)); err != nil {
		logger.Error("ClearAll: batch failed for %s: %v", userID, err)
		return err
	}
	return nil
}

func notificationIDs(notifications []*entity.Notification) []string {
	ids := make([]string, len(notifications))
	for i, notification := range notifications {
		ids[i] = notification.ID
	}
	return ids
}
