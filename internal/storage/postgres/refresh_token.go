package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/go-bodytrack/internal/models"
	"github.com/pribylovaa/go-bodytrack/internal/storage"
)

// SaveRefreshToken сохраняет запись о refresh-токене.
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage.postgres.SaveRefreshToken"

	query := `
		INSERT INTO refresh_tokens(token_hash, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.Exec(ctx, query,
		token.TokenHash,
		token.UserID,
		token.CreatedAt,
		token.ExpiresAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
			case pgerrcode.ForeignKeyViolation:
				// Пользователь удалён между выдачей токенов и вставкой записи.
				return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
			}
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RefreshToken ищет запись по паре (пользователь, хэш).
func (s *Storage) RefreshToken(ctx context.Context, userID uuid.UUID, hash string) (*models.RefreshToken, error) {
	const op = "storage.postgres.RefreshToken"

	query := `
		SELECT token_hash, user_id, created_at, expires_at
		FROM refresh_tokens
		WHERE user_id = $1 AND token_hash = $2
	`

	var token models.RefreshToken
	err := s.db.QueryRow(ctx, query, userID, hash).Scan(
		&token.TokenHash,
		&token.UserID,
		&token.CreatedAt,
		&token.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &token, nil
}

// DeleteRefreshToken удаляет запись пользователя с данным хэшем (идемпотентно).
func (s *Storage) DeleteRefreshToken(ctx context.Context, userID uuid.UUID, hash string) error {
	const op = "storage.postgres.DeleteRefreshToken"

	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1 AND token_hash = $2
	`

	if _, err := s.db.Exec(ctx, query, userID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteUserRefreshTokens удаляет все записи пользователя.
func (s *Storage) DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "storage.postgres.DeleteUserRefreshTokens"

	tag, err := s.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}

// DeleteExpiredTokens удаляет все просроченные записи.
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.DeleteExpiredTokens"

	tag, err := s.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}
