package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-bodytrack/internal/models"
	"github.com/pribylovaa/go-bodytrack/internal/token"
)

const bearerPrefix = "Bearer "

// Authenticate разбирает значение заголовка Authorization и проверяет access-токен.
// Реестр не опрашивается: access-токен действителен до exp.
func (s *Service) Authenticate(_ context.Context, header string) (*models.Identity, error) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return nil, invalidAccess("unknown authentication scheme")
	}

	raw := strings.TrimSpace(header[len(bearerPrefix):])
	if raw == "" {
		return nil, invalidAccess("access token is missing")
	}

	var claims token.AccessClaims
	if err := s.codec.Verify(raw, s.cfg.AccessTokenSecret, &claims); err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, &AuthError{
				Kind:        ErrUnauthenticated,
				Realm:       RealmDefault,
				Reason:      ReasonExpiredAccessToken,
				Description: "access token has expired",
			}
		}

		return nil, invalidAccess("access token is invalid")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || !claims.Role.Valid() {
		return nil, invalidAccess("access token is invalid")
	}

	return &models.Identity{UserID: userID, Role: claims.Role}, nil
}

// RequireRole — единственная точка решения о ролях.
func RequireRole(id *models.Identity, role models.Role) error {
	if id == nil {
		return invalidAccess("access token is missing")
	}

	if id.Role != role {
		return &AuthError{Kind: ErrForbidden, Realm: RealmDefault, Reason: "insufficient_role"}
	}

	return nil
}

func invalidAccess(desc string) *AuthError {
	return &AuthError{
		Kind:        ErrUnauthenticated,
		Realm:       RealmDefault,
		Reason:      ReasonInvalidAccessToken,
		Description: desc,
	}
}
