package storage

//go:generate mockgen -source=storage.go -destination=../../mocks/mock_storage.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-bodytrack/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/токен).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/хэш refresh-токена).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя. Уникальность email обеспечивается хранилищем.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email (без учёта регистра).
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// DeleteUser удаляет пользователя вместе с его refresh-токенами.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// RefreshTokenStorage — реестр refresh-токенов.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет запись о выданном refresh-токене.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// RefreshToken ищет запись по паре (пользователь, хэш).
	RefreshToken(ctx context.Context, userID uuid.UUID, hash string) (*models.RefreshToken, error)
	// DeleteRefreshToken удаляет запись пользователя с данным хэшем. Отсутствие записи не ошибка.
	DeleteRefreshToken(ctx context.Context, userID uuid.UUID, hash string) error
	// DeleteUserRefreshTokens удаляет все записи пользователя и возвращает их количество.
	DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) (int64, error)
	// DeleteExpiredTokens удаляет записи с expires_at <= now.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// Storage задает контракт работы с хранилищем.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	Close()
}
