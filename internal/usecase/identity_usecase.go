package usecase

import (
	"context"
	"strings"
	"time"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/internal/domain/service"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
	"marketsync/pkg/stream"
)

// IdentityStream exposes the signed-in user as a live value.
type IdentityStream struct {
	sessions service.SessionSource
	userRepo repository.UserRepository
}

func NewIdentityStream(sessions service.SessionSource, userRepo repository.UserRepository) *IdentityStream {
	return &IdentityStream{
		sessions: sessions,
		userRepo: userRepo,
	}
}

type RegisterInput struct {
	Type     entity.UserType  `json:"type" validate:"required,oneof=buyer seller"`
	Name     string           `json:"name" validate:"required"`
	Email    string           `json:"email" validate:"required,email"`
	Phone    string           `json:"phone"`
	Location *entity.Location `json:"location"`
	Language string           `json:"language" validate:"required,oneof=es en zh"`
}

// Current opens one session subscription and emits the user document for
// each session change, or nil while signed out. Cancelling the returned
// stream releases the session subscription.
func (s *IdentityStream) Current(ctx context.Context) *stream.Stream[*entity.User] {
	sessions := s.sessions.Subscribe(ctx)

	return stream.Start(ctx, func(ctx context.Context, emit func(*entity.User)) error {
		defer sessions.Cancel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case uid, ok := <-sessions.Updates():
				if !ok {
					return sessions.Err()
				}
				if uid == "" {
					emit(nil)
					continue
				}
				user, err := s.userRepo.GetByID(ctx, uid)
				if err != nil {
					return err
				}
				emit(user)
			}
		}
	})
}

// Register stores the profile of a freshly issued identity. It runs once per
// uid; a second call reports a conflict.
func (s *IdentityStream) Register(ctx context.Context, uid string, input RegisterInput) (*entity.User, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, errors.Validation("user id is required", nil)
	}
	if err := entity.Validate(input); err != nil {
		return nil, errors.Validation("Invalid registration data", err)
	}

	user := &entity.User{
		ID:        uid,
		Type:      input.Type,
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Location:  input.Location,
		Language:  input.Language,
		CreatedAt: time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		logger.Error("Registration failed for %s: %v", uid, err)
		return nil, err
	}

	logger.Info("Registered %s user %s", user.Type, uid)
	return user, nil
}

func (s *IdentityStream) UpdateProfile(ctx context.Context, uid string, update entity.UserUpdate) error {
	if err := entity.Validate(update); err != nil {
		return errors.Validation("Invalid profile data", err)
	}
	if update.Empty() {
		return nil
	}
	return s.userRepo.Update(ctx, uid, update)
}

// RegisterPushToken records the device token used for push fan-out.
func (s *IdentityStream) RegisterPushToken(ctx context.Context, uid, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.Validation("push token is required", nil)
	}
	return s.userRepo.SetPushToken(ctx, uid, token)
}
