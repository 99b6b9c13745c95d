package entity

import "time"

type NotificationType string

const (
	NotificationTypeOffer  NotificationType = "offer"
	NotificationTypeChat   NotificationType = "chat"
	NotificationTypeReview NotificationType = "review"
	NotificationTypeSystem NotificationType = "system"
)

// Notification is owned by UserID. Read only ever goes from false to true.
type Notification struct {
	ID        string           `json:"id" firestore:"-"`
	UserID    string           `json:"user_id" firestore:"userId" validate:"required"`
	Type      NotificationType `json:"type" firestore:"type" validate:"required,oneof=offer chat review system"`
	Title     string           `json:"title" firestore:"title" validate:"required"`
	Message   string           `json:"message" firestore:"message"`
	Read      bool             `json:"read" firestore:"read"`
	CreatedAt time.Time        `json:"created_at" firestore:"createdAt" validate:"required"`
}

func CountUnread(notifications []*Notification) int {
	n := 0
	for _, notification := range notifications {
		if !notification.Read {
			n++
		}
	}
	return n
}
