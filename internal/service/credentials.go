package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-bodytrack/internal/models"
	"github.com/pribylovaa/go-bodytrack/internal/storage"
)

// VerifyCredentials находит пользователя по email и проверяет пароль.
// Неизвестный email и неверный пароль дают одну и ту же ErrWrongCredentials.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	const op = "service.VerifyCredentials"

	user, err := s.storage.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			checkPassword(password, dummyPasswordHash(s.cfg.BcryptCost))
			return nil, ErrWrongCredentials
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(password, user.PasswordHash) {
		return nil, ErrWrongCredentials
	}

	return user, nil
}
