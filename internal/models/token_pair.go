package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenPair — пара токенов, выдаваемая при входе/регистрации.
//
// Описание:
//   - AccessToken — короткоживущий JWT, передаётся клиенту в теле ответа;
//   - RefreshToken — долгоживущий JWT, уходит клиенту только в cookie;
//     на сервере хранится лишь его HMAC-хэш;
//   - AccessExpiresAt / RefreshExpiresAt — моменты истечения (UTC).
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Identity — аутентифицированный субъект запроса.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}
