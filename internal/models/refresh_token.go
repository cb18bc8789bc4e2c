package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken — запись реестра refresh-токенов.
// Хранится только HMAC-хэш токена, сам токен на сервере не сохраняется.
type RefreshToken struct {
	TokenHash string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}
