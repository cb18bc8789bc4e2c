package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-bodytrack/internal/models"
	"github.com/pribylovaa/go-bodytrack/internal/pkg/log"
	"github.com/pribylovaa/go-bodytrack/internal/storage"
)

// Profile возвращает пользователя по ID.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	const op = "service.Profile"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// DeleteUser удаляет пользователя вместе с его refresh-токенами.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	const op = "service.DeleteUser"

	if err := s.storage.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user deleted", "op", op, "user_id", userID)

	return nil
}
