// memory — потокобезопасная реализация storage.Storage в памяти процесса.
// Используется для локального запуска (db.driver: memory) и в тестах HTTP-слоя.
// Семантика совпадает с PostgreSQL-реализацией: email уникален без учёта регистра,
// удаление пользователя удаляет его refresh-токены.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-bodytrack/internal/models"
	"github.com/pribylovaa/go-bodytrack/internal/storage"
)

type Storage struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]models.User
	byEmail map[string]uuid.UUID
	tokens  map[string]models.RefreshToken // ключ — хэш токена
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		users:   make(map[uuid.UUID]models.User),
		byEmail: make(map[string]uuid.UUID),
		tokens:  make(map[string]models.RefreshToken),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.memory.SaveUser"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(user.Email)
	if _, ok := s.byEmail[key]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	s.users[user.ID] = *user
	s.byEmail[key] = user.ID

	return nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.memory.UserByEmail"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	u := s.users[id]
	return &u, nil
}

func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.memory.UserByID"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return &u, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	const op = "storage.memory.DeleteUser"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	delete(s.users, id)
	delete(s.byEmail, emailKey(u.Email))
	s.deleteUserTokensLocked(id)

	return nil
}

func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage.memory.SaveRefreshToken"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[token.UserID]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if _, ok := s.tokens[token.TokenHash]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	s.tokens[token.TokenHash] = *token

	return nil
}

func (s *Storage) RefreshToken(ctx context.Context, userID uuid.UUID, hash string) (*models.RefreshToken, error) {
	const op = "storage.memory.RefreshToken"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[hash]
	if !ok || t.UserID != userID {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return &t, nil
}

func (s *Storage) DeleteRefreshToken(ctx context.Context, userID uuid.UUID, hash string) error {
	const op = "storage.memory.DeleteRefreshToken"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tokens[hash]; ok && t.UserID == userID {
		delete(s.tokens, hash)
	}

	return nil
}

func (s *Storage) DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "storage.memory.DeleteUserRefreshTokens"

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteUserTokensLocked(userID), nil
}

func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.memory.DeleteExpiredTokens"

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, t := range s.tokens {
		if !t.ExpiresAt.After(now) {
			delete(s.tokens, hash)
			n++
		}
	}

	return n, nil
}

// Close ничего не освобождает; нужен для соответствия storage.Storage.
func (s *Storage) Close() {}

func (s *Storage) deleteUserTokensLocked(userID uuid.UUID) int64 {
	var n int64
	for hash, t := range s.tokens {
		if t.UserID == userID {
			delete(s.tokens, hash)
			n++
		}
	}

	return n
}

var _ storage.Storage = (*Storage)(nil)
