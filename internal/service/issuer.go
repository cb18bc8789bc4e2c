package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pribylovaa/go-bodytrack/internal/models"
	"github.com/pribylovaa/go-bodytrack/internal/token"
)

// Issue выпускает пару токенов и сохраняет хэш refresh-токена.
// Возврат происходит только после успешной записи в реестр.
func (s *Service) Issue(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "service.Issue"

	access, accessExp, err := s.signAccess(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, refreshExp, err := s.codec.Sign(&token.RefreshClaims{
		UserID: user.ID.String(),
	}, s.cfg.RefreshTokenSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rec := &models.RefreshToken{
		TokenHash: s.refreshHash(refresh),
		UserID:    user.ID,
		CreatedAt: s.now().UTC(),
		ExpiresAt: refreshExp,
	}
	if err := s.storage.SaveRefreshToken(ctx, rec); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *Service) signAccess(user *models.User) (string, time.Time, error) {
	return s.codec.Sign(&token.AccessClaims{
		UserID:   user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, s.cfg.AccessTokenSecret, s.cfg.AccessTokenTTL)
}
