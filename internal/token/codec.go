// token реализует подпись и проверку JWT (HS256) для access- и refresh-токенов.
//
// Codec не хранит секретов: секрет передаётся в каждый вызов Sign/Verify,
// поэтому один экземпляр обслуживает оба вида токенов.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrExpired — срок действия токена истёк (клиенту имеет смысл обновить токен).
	ErrExpired = errors.New("token expired")
	// ErrInvalidSignature — подпись не сходится, алгоритм не HS256
	// или не прошли проверки iss/aud/iat.
	ErrInvalidSignature = errors.New("token signature is invalid")
	// ErrMalformed — строка не является JWT.
	ErrMalformed = errors.New("token is malformed")
)

// Claims — набор claims, который умеет подписывать Codec.
type Claims interface {
	jwt.Claims
	registered() *jwt.RegisteredClaims
}

// Codec подписывает и проверяет токены.
type Codec struct {
	issuer   string
	audience []string
	leeway   time.Duration
	now      func() time.Time
}

// Option настраивает Codec.
type Option func(*Codec)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithLeeway задаёт допуск расхождения часов при проверке exp/iat.
func WithLeeway(d time.Duration) Option {
	return func(c *Codec) { c.leeway = d }
}

// NewCodec создаёт Codec с заданными issuer и audience.
func NewCodec(issuer string, audience []string, opts ...Option) *Codec {
	c := &Codec{
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Sign заполняет iat/exp/iss/aud/jti и подписывает claims секретом.
func (c *Codec) Sign(claims Claims, secret string, ttl time.Duration) (string, time.Time, error) {
	const op = "token.Codec.Sign"

	now := c.now().UTC()
	exp := now.Add(ttl)

	rc := claims.registered()
	rc.IssuedAt = jwt.NewNumericDate(now)
	rc.ExpiresAt = jwt.NewNumericDate(exp)
	rc.Issuer = c.issuer
	rc.Audience = jwt.ClaimStrings(c.audience)
	rc.ID = uuid.NewString()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, rc.ExpiresAt.Time, nil
}

// Verify проверяет подпись и стандартные claims, заполняя переданный claims.
// Возвращает одну из ошибок ErrExpired, ErrInvalidSignature, ErrMalformed.
func (c *Codec) Verify(raw, secret string, claims Claims) error {
	const op = "token.Codec.Verify"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	if len(c.audience) > 0 {
		opts = append(opts, jwt.WithAudience(c.audience...))
	}

	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)

	switch {
	case err == nil && tok.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%s: %w", op, ErrMalformed)
	case errors.Is(err, jwt.ErrTokenExpired):
		// Просрочку сообщаем только при валидной подписи: jwt проверяет подпись раньше claims.
		return fmt.Errorf("%s: %w", op, ErrExpired)
	default:
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}
}
