package handlers

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pribylovaa/go-bodytrack/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	PasswordConfirm string     `json:"passwordConfirm"`
	Age             formNumber `json:"age"`
	Height          formNumber `json:"height"`
}

func (r signupRequest) toInput() models.UserInput {
	return models.UserInput{
		Username:        r.Username,
		Email:           r.Email,
		Password:        r.Password,
		PasswordConfirm: r.PasswordConfirm,
		Age:             r.Age.int(),
		Height:          r.Height.float(),
	}
}

// formNumber — числовое поле формы. Клиент присылает его числом или строкой ("30").
// Отсутствие, null и пустая строка дают nil (поле обязательно), нечисловое
// значение превращается в 0 и не проходит проверку диапазона.
type formNumber struct {
	set  bool
	text string
}

func (n *formNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		n.text = strings.TrimSpace(s)
	} else {
		n.text = string(b)
	}
	n.set = n.text != ""

	return nil
}

func (n formNumber) int() *int {
	if !n.set {
		return nil
	}

	v, err := strconv.Atoi(n.text)
	if err != nil {
		v = 0
	}

	return &v
}

func (n formNumber) float() *float64 {
	if !n.set {
		return nil
	}

	v, err := strconv.ParseFloat(n.text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}

	return &v
}

// createUserRequest — создание пользователя администратором: форма регистрации и роль.
type createUserRequest struct {
	signupRequest
	Role string `json:"role"`
}

type authResponse struct {
	Success     bool         `json:"success"`
	User        *models.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

type reauthResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
}

type userResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
}

type successResponse struct {
	Success bool `json:"success"`
}
