package token

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/pribylovaa/go-bodytrack/internal/models"
)

// AccessClaims — полезная нагрузка access-токена.
type AccessClaims struct {
	UserID   string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }

// RefreshClaims — полезная нагрузка refresh-токена: только идентификатор пользователя.
type RefreshClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

func (c *RefreshClaims) registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }
