package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-bodytrack/internal/models"
	"github.com/pribylovaa/go-bodytrack/internal/pkg/log"
	"github.com/pribylovaa/go-bodytrack/internal/pkg/redact"
	"github.com/pribylovaa/go-bodytrack/internal/storage"
)

// События аутентификации для EventRecorder.
const (
	EventLogin       = "login"
	EventSignup      = "signup"
	EventRefresh     = "refresh"
	EventLogout      = "logout"
	EventLogoutAll   = "logout_all"
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeThrottled = "throttled"
)

// Login проверяет учётные данные и выпускает пару токенов.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, *models.TokenPair, error) {
	const op = "service.Login"

	email = strings.TrimSpace(email)
	if err := validateLogin(email, password); err != nil {
		return nil, nil, err
	}

	lg := log.From(ctx).With("op", op, "email", redact.Email(email))
	key := limiterKey(normalizeEmail(email))

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, key)
		if err != nil {
			lg.Warn("login limiter unavailable", "err", err)
		} else if !ok {
			s.events.AuthEvent(EventLogin, OutcomeThrottled)
			return nil, nil, ErrTooManyAttempts
		}
	}

	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrWrongCredentials) {
			s.events.AuthEvent(EventLogin, OutcomeFailure)
			if s.limiter != nil {
				if ferr := s.limiter.Fail(ctx, key); ferr != nil {
					lg.Warn("login limiter fail not recorded", "err", ferr)
				}
			}
		}

		return nil, nil, err
	}

	if s.limiter != nil {
		if rerr := s.limiter.Reset(ctx, key); rerr != nil {
			lg.Warn("login limiter reset failed", "err", rerr)
		}
	}

	pair, err := s.Issue(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	s.events.AuthEvent(EventLogin, OutcomeSuccess)
	lg.Info("user logged in", "user_id", user.ID)

	return user, pair, nil
}

// Signup регистрирует пользователя с ролью user и выпускает пару токенов.
func (s *Service) Signup(ctx context.Context, in models.UserInput) (*models.User, *models.TokenPair, error) {
	const op = "service.Signup"

	in.Role = models.RoleUser
	user, err := s.CreateUser(ctx, in)
	if err != nil {
		s.events.AuthEvent(EventSignup, OutcomeFailure)
		return nil, nil, err
	}

	pair, err := s.Issue(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	s.events.AuthEvent(EventSignup, OutcomeSuccess)
	log.From(ctx).Info("user signed up", "op", op, "user_id", user.ID)

	return user, pair, nil
}

// CreateUser валидирует данные и сохраняет нового пользователя без выпуска токенов.
// Занятый email возвращается как ValidationError.
func (s *Service) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	const op = "service.CreateUser"

	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = models.RoleUser
	}

	if err := validateUserInput(&in); err != nil {
		return nil, err
	}

	_, err := s.storage.UserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, emailInUse()
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := hashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		Role:         in.Role,
		Age:          *in.Age,
		Height:       *in.Height,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		// Проверка выше не защищает от гонки двух регистраций; решает уникальный индекс.
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, emailInUse()
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// EnsureAdmin создаёт администратора, если пользователя с таким email ещё нет.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	const op = "service.EnsureAdmin"

	_, err := s.storage.UserByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%s: %w", op, err)
	}

	age, height := 1, 1.0
	name, _, _ := strings.Cut(email, "@")
	if r := []rune(name); len(r) > maxUsernameLen {
		name = string(r[:maxUsernameLen])
	}

	_, err = s.CreateUser(ctx, models.UserInput{
		Username:        name,
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
		Age:             &age,
		Height:          &height,
		Role:            models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("admin user created", "op", op, "email", redact.Email(email))

	return nil
}

func emailInUse() error {
	return &ValidationError{Fields: []FieldError{{Field: "email", Message: "E-mail already in use"}}}
}
