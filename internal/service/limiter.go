package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// LoginLimiter ограничивает число неудачных попыток входа на ключ.
type LoginLimiter interface {
	// Allow сообщает, разрешена ли ещё одна попытка.
	Allow(ctx context.Context, key string) (bool, error)
	// Fail учитывает неудачную попытку.
	Fail(ctx context.Context, key string) error
	// Reset сбрасывает счётчик после успешного входа.
	Reset(ctx context.Context, key string) error
}

// limiterKey — ключ ограничителя: email в Redis не попадает в открытом виде.
func limiterKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
