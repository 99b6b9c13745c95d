package repository

import (
	"context"

	"marketsync/internal/domain/entity"
)

type UserRepository interface {
	// Create writes users/{id} once; an existing document yields a CONFLICT error.
	Create(ctx context.Context, user *entity.User) error
	// GetByID returns nil, nil when the user does not exist.
	GetByID(ctx context.Context, id string) (*entity.User, error)
	Update(ctx context.Context, id string, update entity.UserUpdate) error
	SetPushToken(ctx context.Context, id, token string) error
	// PushToken reads only the device token; it returns "" when the user or
	// the token is absent, whatever state the rest of the profile is in.
	PushToken(ctx context.Context, id string) (string, error)
}
