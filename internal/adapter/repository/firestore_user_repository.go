package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *entity.User) error {
	_, err := r.client.Collection("users").Doc(user.ID).Create(ctx, user)
	if err != nil {
		if isAlreadyExists(err) {
			return errors.Conflict("User already registered")
		}
		return errors.Store("Failed to create user", err)
	}
	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return getDoc(ctx, r.client.Collection("users").Doc(id), decodeUser, "user")
}

func (r *firestoreUserRepository) Update(ctx context.Context, id string, update entity.UserUpdate) error {
	var updates []firestore.Update
	if update.Name != nil {
		updates = append(updates, firestore.Update{Path: "name", Value: *update.Name})
	}
	if update.Phone != nil {
		updates = append(updates, firestore.Update{Path: "phone", Value: *update.Phone})
	}
	if update.Avatar != nil {
		updates = append(updates, firestore.Update{Path: "avatar", Value: *update.Avatar})
	}
	if update.Location != nil {
		updates = append(updates, firestore.Update{Path: "location", Value: *update.Location})
	}
	if update.Language != nil {
		updates = append(updates, firestore.Update{Path: "language", Value: *update.Language})
	}
	if len(updates) == 0 {
		return nil
	}

	if _, err := r.client.Collection("users").Doc(id).Update(ctx, updates); err != nil {
		return errors.Store("Profile update failed", err)
	}
	return nil
}

func (r *firestoreUserRepository) SetPushToken(ctx context.Context, id, token string) error {
	_, err := r.client.Collection("users").Doc(id).Update(ctx, []firestore.Update{
		{Path: "fcmToken", Value: token},
	})
	if err != nil {
		return errors.Store("Failed to update push token", err)
	}
	return nil
}

func (r *firestoreUserRepository) PushToken(ctx context.Context, id string) (string, error) {
	doc, err := r.client.Collection("users").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", nil
		}
		return "", errors.Store("Failed to get push token", err)
	}
	token, _ := doc.Data()["fcmToken"].(string)
	return token, nil
}
