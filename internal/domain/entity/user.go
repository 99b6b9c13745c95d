package entity

import (
	"time"
)

type UserType string

const (
	UserTypeBuyer  UserType = "buyer"
	UserTypeSeller UserType = "seller"
)

type Location struct {
	Latitude  float64 `json:"latitude" firestore:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" firestore:"longitude" validate:"gte=-180,lte=180"`
	Address   string  `json:"address" firestore:"address"`
}

type User struct {
	ID       string    `json:"id" firestore:"-"`
	Type     UserType  `json:"type" firestore:"type" validate:"required,oneof=buyer seller"`
	Name     string    `json:"name" firestore:"name" validate:"required"`
	Email    string    `json:"email" firestore:"email" validate:"required,email"`
	Phone    string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	Avatar   string    `json:"avatar,omitempty" firestore:"avatar,omitempty"`
	Location *Location `json:"location,omitempty" firestore:"location,omitempty" validate:"omitempty"`
	Language string    `json:"language" firestore:"language" validate:"required,oneof=es en zh"`

	// PushToken is the FCM registration token of the user's device.
	PushToken string `json:"-" firestore:"fcmToken,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt" validate:"required"`
}

// UserUpdate carries the profile fields a user may change; nil means unchanged.
type UserUpdate struct {
	Name     *string   `json:"name,omitempty" validate:"omitempty,min=1"`
	Phone    *string   `json:"phone,omitempty"`
	Avatar   *string   `json:"avatar,omitempty" validate:"omitempty,url"`
	Location *Location `json:"location,omitempty"`
	Language *string   `json:"language,omitempty" validate:"omitempty,oneof=es en zh"`
}

func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Phone == nil && u.Avatar == nil && u.Location == nil && u.Language == nil
}
