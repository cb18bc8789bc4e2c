package models

import (
	"time"

	"github.com/google/uuid"
)

// User — модель пользователя приложения.
//
// PasswordHash никогда не сериализуется в ответы API.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Age          int       `json:"age"`
	Height       float64   `json:"height"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserInput — данные для создания пользователя (signup/admin-create).
// Числовые поля — указатели, чтобы отличать отсутствие значения от нуля.
type UserInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	Age             *int
	Height          *float64
	Role            Role
}
