// janitor по расписанию удаляет просроченные записи реестра refresh-токенов.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Purger удаляет просроченные записи и возвращает их количество.
type Purger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// Janitor — фоновая очистка реестра по cron-расписанию.
type Janitor struct {
	cron     *cron.Cron
	purger   Purger
	log      *slog.Logger
	timeout  time.Duration
	onPurged func(n int64)
}

// Option настраивает Janitor.
type Option func(*Janitor)

// WithTimeout ограничивает время одного прохода.
func WithTimeout(d time.Duration) Option {
	return func(j *Janitor) { j.timeout = d }
}

// WithObserver вызывается после каждого успешного прохода (метрики).
func WithObserver(fn func(n int64)) Option {
	return func(j *Janitor) { j.onPurged = fn }
}

// New создаёт Janitor. Расписание задаётся в Start.
func New(purger Purger, log *slog.Logger, opts ...Option) *Janitor {
	j := &Janitor{
		cron:    cron.New(),
		purger:  purger,
		log:     log,
		timeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(j)
	}

	return j
}

// Start регистрирует задачу по расписанию (формат robfig/cron, например "@every 30m")
// и запускает планировщик.
func (j *Janitor) Start(schedule string) error {
	const op = "janitor.Start"

	if _, err := j.cron.AddFunc(schedule, func() {
		_, _ = j.RunOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("%s: invalid schedule %q: %w", op, schedule, err)
	}

	j.cron.Start()
	j.log.Info("refresh_janitor_started", slog.String("schedule", schedule))

	return nil
}

// RunOnce выполняет один проход очистки.
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	n, err := j.purger.PurgeExpiredTokens(ctx)
	if err != nil {
		j.log.Error("refresh_janitor_failed", slog.String("err", err.Error()))
		return 0, err
	}

	if j.onPurged != nil {
		j.onPurged(n)
	}
	if n > 0 {
		j.log.Info("refresh_janitor_purged", slog.Int64("count", n))
	}

	return n, nil
}

// Stop останавливает планировщик и ждёт завершения текущего прохода либо отмены ctx.
func (j *Janitor) Stop(ctx context.Context) {
	done := j.cron.Stop()

	select {
	case <-done.Done():
	case <-ctx.Done():
		j.log.Warn("refresh_janitor_stop_timeout")
	}
}
