// limiter ограничивает число неудачных попыток входа с помощью счётчиков в Redis
// (фиксированное окно: INCR + EXPIRE NX в одной транзакции).
package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis — ограничитель попыток входа поверх Redis.
type Redis struct {
	rdb         *redis.Client
	prefix      string
	maxAttempts int64
	window      time.Duration
}

// NewRedis создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:login:".
func NewRedis(redisURL, prefix string, maxAttempts int, window time.Duration) (*Redis, error) {
	const op = "limiter.NewRedis"

	if prefix == "" {
		prefix = "auth:login:"
	}
	if maxAttempts <= 0 || window <= 0 {
		return nil, fmt.Errorf("%s: max attempts and window must be positive", op)
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Redis{
		rdb:         rdb,
		prefix:      prefix,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}, nil
}

func (l *Redis) key(k string) string { return l.prefix + k }

// Allow сообщает, осталась ли у ключа хотя бы одна попытка в текущем окне.
func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.rdb.Get(ctx, l.key(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		// Решение fail-open принимает вызывающий.
		return true, fmt.Errorf("limiter.Allow: %w", err)
	}

	return n < l.maxAttempts, nil
}

// Fail учитывает неудачную попытку. Окно отсчитывается от первой неудачи.
// INCR и EXPIRE NX уходят одной транзакцией: счётчик без TTL не остаётся.
func (l *Redis) Fail(ctx context.Context, key string) error {
	const op = "limiter.Fail"

	pipe := l.rdb.TxPipeline()
	pipe.Incr(ctx, l.key(key))
	pipe.ExpireNX(ctx, l.key(key), l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Reset сбрасывает счётчик ключа.
func (l *Redis) Reset(ctx context.Context, key string) error {
	if err := l.rdb.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("limiter.Reset: %w", err)
	}

	return nil
}

// Ping проверяет доступность Redis (для readiness).
func (l *Redis) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Close закрывает клиент Redis.
func (l *Redis) Close() error { return l.rdb.Close() }
