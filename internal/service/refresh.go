package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-bodytrack/internal/pkg/log"
	"github.com/pribylovaa/go-bodytrack/internal/storage"
	"github.com/pribylovaa/go-bodytrack/internal/token"
)

// Refresh выпускает новый access-токен по предъявленному refresh-токену.
//
// Токен принят, если подпись верна, срок не истёк и в реестре есть запись
// (пользователь, HMAC токена). Отказ по любой из причин выглядит одинаково.
// Refresh-токен не ротируется: запись остаётся, пока её не удалит logout.
func (s *Service) Refresh(ctx context.Context, raw string) (string, time.Time, error) {
	const op = "service.Refresh"

	if raw == "" {
		return "", time.Time{}, &AuthError{
			Kind:        ErrUnauthenticated,
			Realm:       RealmReauth,
			Reason:      ReasonNoRefreshToken,
			Description: "Refresh token is missing",
		}
	}

	lg := log.From(ctx).With("op", op)

	var claims token.RefreshClaims
	if err := s.codec.Verify(raw, s.cfg.RefreshTokenSecret, &claims); err != nil {
		lg.Debug("refresh token rejected", "err", err)
		s.events.AuthEvent(EventRefresh, OutcomeFailure)
		return "", time.Time{}, refreshRejected()
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		s.events.AuthEvent(EventRefresh, OutcomeFailure)
		return "", time.Time{}, refreshRejected()
	}

	if _, err := s.storage.RefreshToken(ctx, userID, s.refreshHash(raw)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Debug("refresh token not registered", "user_id", userID)
			s.events.AuthEvent(EventRefresh, OutcomeFailure)
			return "", time.Time{}, refreshRejected()
		}

		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.events.AuthEvent(EventRefresh, OutcomeFailure)
			return "", time.Time{}, refreshRejected()
		}

		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	access, exp, err := s.signAccess(user)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	s.events.AuthEvent(EventRefresh, OutcomeSuccess)

	return access, exp, nil
}
