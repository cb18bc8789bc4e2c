package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-bodytrack/internal/config"
	apierrors "github.com/pribylovaa/go-bodytrack/internal/errors"
	"github.com/pribylovaa/go-bodytrack/internal/models"
)

// maxBodyBytes ограничивает размер тела JSON-запроса.
const maxBodyBytes = 1 << 20

// AuthService — операции сервиса, которые нужны хендлерам.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.User, *models.TokenPair, error)
	Signup(ctx context.Context, in models.UserInput) (*models.User, *models.TokenPair, error)
	Refresh(ctx context.Context, raw string) (string, time.Time, error)
	Logout(ctx context.Context, userID uuid.UUID, raw string) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, in models.UserInput) (*models.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// Handlers агрегирует зависимости HTTP-обработчиков.
type Handlers struct {
	svc    AuthService
	cookie config.CookieConfig
}

func New(svc AuthService, cookie config.CookieConfig) *Handlers {
	return &Handlers{svc: svc, cookie: cookie}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля и хвост после объекта.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("%w: %v", apierrors.ErrBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: trailing data", apierrors.ErrBadRequest)
	}

	return nil
}
