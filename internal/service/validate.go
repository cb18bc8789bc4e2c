package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pribylovaa/go-bodytrack/internal/models"
)

const (
	maxEmailLen       = 48
	maxUsernameLen    = 16
	minPasswordLen    = 8
	maxPasswordLen    = 72 // предел bcrypt
	maxAge            = 150
	adminLoginLiteral = "admin"
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateLogin проверяет тело запроса входа.
func validateLogin(email, password string) error {
	ve := &ValidationError{}

	switch {
	case email == "":
		ve.add("email", "Email is required")
	case email != adminLoginLiteral && !emailRe.MatchString(email):
		ve.add("email", "Email is invalid")
	}

	if password == "" {
		ve.add("password", "Password is required")
	}

	return ve.orNil()
}

// validateUserInput проверяет данные регистрации/создания пользователя.
// Порядок ошибок совпадает с порядком полей формы.
func validateUserInput(in *models.UserInput) error {
	ve := &ValidationError{}

	switch {
	case in.Username == "":
		ve.add("username", "Username is required")
	case utf8.RuneCountInString(in.Username) > maxUsernameLen:
		ve.add("username", "Username is too long")
	}

	switch {
	case in.Email == "":
		ve.add("email", "Email is required")
	case in.Role == models.RoleAdmin && in.Email == adminLoginLiteral:
	case len(in.Email) > maxEmailLen || !emailRe.MatchString(in.Email):
		ve.add("email", "Email is invalid")
	}

	switch {
	case in.Age == nil:
		ve.add("age", "Age is required")
	case *in.Age < 1 || *in.Age > maxAge:
		ve.add("age", "Age is invalid")
	}

	switch {
	case in.Height == nil:
		ve.add("height", "Height is required")
	case *in.Height <= 0:
		ve.add("height", "Height is invalid")
	}

	switch {
	case in.Password == "":
		ve.add("password", "Password is required")
	case len(in.Password) < minPasswordLen:
		ve.add("password", "Password MUST be at least 8 characters long")
	case len(in.Password) > maxPasswordLen:
		ve.add("password", "Password is too long")
	}

	if in.Password != in.PasswordConfirm {
		ve.add("passwordConfirm", "Passwords DO NOT match")
	}

	if !in.Role.Valid() {
		ve.add("role", "Role is invalid")
	}

	return ve.orNil()
}
