package service

import (
	"errors"
	"strings"
)

var (
	// ErrWrongCredentials — неизвестный email или неверный пароль. Причина намеренно не различается.
	// HTTP: 400.
	ErrWrongCredentials = errors.New("wrong credentials")

	// ErrUnauthenticated — запрос без действительных учётных данных. HTTP: 401.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden — роль не позволяет выполнить действие. HTTP: 403.
	ErrForbidden = errors.New("forbidden")

	// ErrUserNotFound — пользователь не найден. HTTP: 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrTooManyAttempts — превышен лимит неудачных попыток входа. HTTP: 429.
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// Машиночитаемые причины AuthError (параметр error в WWW-Authenticate).
const (
	ReasonInvalidAccessToken = "invalid_access_token"
	ReasonExpiredAccessToken = "expired_access_token"
	ReasonNoRefreshToken     = "no_rft"
)

// Realm-значения для WWW-Authenticate.
const (
	RealmDefault = "apps"
	RealmReauth  = "Obtain new Access Token"
)

// AuthError — ошибка аутентификации/авторизации с параметрами для WWW-Authenticate.
// Kind — ErrUnauthenticated или ErrForbidden; errors.Is работает по Kind.
type AuthError struct {
	Kind        error
	Realm       string
	Reason      string
	Description string
}

func (e *AuthError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Description != "" {
		b.WriteString(" (")
		b.WriteString(e.Description)
		b.WriteString(")")
	}

	return b.String()
}

func (e *AuthError) Unwrap() error { return e.Kind }

// Expired сообщает, что причина — истёкший access-токен (клиенту стоит вызвать reauth).
func (e *AuthError) Expired() bool { return e.Reason == ReasonExpiredAccessToken }

// refreshRejected — единый ответ на любой отказ в обновлении по предъявленному refresh-токену:
// просроченный, поддельный, отозванный и никогда не выдававшийся токены неразличимы.
func refreshRejected() *AuthError {
	return &AuthError{Kind: ErrUnauthenticated, Realm: RealmReauth}
}

// FieldError — ошибка валидации одного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError — ошибки валидации входных данных. HTTP: 422.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// add добавляет ошибку поля.
func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// orNil возвращает nil, если ошибок нет.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}

	return e
}
