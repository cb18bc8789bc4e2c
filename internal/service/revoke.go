package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-bodytrack/internal/pkg/log"
	"github.com/pribylovaa/go-bodytrack/internal/pkg/redact"
	"github.com/pribylovaa/go-bodytrack/internal/storage"
)

// Logout отзывает сессию: удаляет запись реестра для предъявленного refresh-токена.
// Пустой raw — no-op. Повторный вызов не ошибка.
// Запись ищется только среди записей самого пользователя: чужой токен ничего не отзовёт.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, raw string) error {
	const op = "service.Logout"

	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}

	if raw == "" {
		return nil
	}

	hash := s.refreshHash(raw)
	if err := s.storage.DeleteRefreshToken(ctx, userID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.events.AuthEvent(EventLogout, OutcomeSuccess)
	log.From(ctx).Info("session revoked", "op", op, "user_id", userID, "token_hash", redact.Hash(hash))

	return nil
}

// LogoutAll отзывает все сессии пользователя.
// Токены, выпущенные после вызова, действуют.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	const op = "service.LogoutAll"

	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}

	n, err := s.storage.DeleteUserRefreshTokens(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.events.AuthEvent(EventLogoutAll, OutcomeSuccess)
	log.From(ctx).Info("all sessions revoked", "op", op, "user_id", userID, "count", n)

	return nil
}

// PurgeExpiredTokens удаляет из реестра записи с истёкшим сроком.
// Такие записи уже не могут пройти проверку, поэтому поведение Refresh не меняется.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	const op = "service.PurgeExpiredTokens"

	n, err := s.storage.DeleteExpiredTokens(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (s *Service) ensureUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.storage.UserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}

		return fmt.Errorf("service.ensureUser: %w", err)
	}

	return nil
}
