// service содержит ядро аутентификации и жизненного цикла сессий:
// проверку учётных данных, выпуск пары токенов, обновление access-токена
// по refresh-токену, отзыв сессий и проверку ролей.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для конкурентного
//     использования при условии, что storage.Storage потокобезопасно.
//   - Refresh-токен принимается, только если подпись верна, срок не истёк и в реестре
//     есть запись с HMAC(refreshSecret, token) для заявленного пользователя.
//     Удаление записи — единственный механизм отзыва.
//   - Refresh-токен не ротируется при использовании.
//   - Ошибки возвращаются значениями; перевод в HTTP-статусы делает пакет internal/errors.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pribylovaa/go-bodytrack/internal/config"
	"github.com/pribylovaa/go-bodytrack/internal/storage"
	"github.com/pribylovaa/go-bodytrack/internal/token"
)

// EventRecorder учитывает события аутентификации (метрики).
type EventRecorder interface {
	AuthEvent(event, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}

// Service описывает бизнес-логику аутентификации.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	codec   *token.Codec
	limiter LoginLimiter // может быть nil, если Redis не сконфигурирован
	events  EventRecorder
	now     func() time.Time
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig) *Service {
	s := &Service{
		storage: storage,
		cfg:     cfg,
		events:  nopRecorder{},
		now:     time.Now,
	}
	s.codec = token.NewCodec(cfg.Issuer, cfg.Audience,
		token.WithLeeway(cfg.Leeway),
		token.WithClock(func() time.Time { return s.now() }),
	)

	return s
}

// SetLoginLimiter устанавливает ограничитель попыток входа (опционально).
func (s *Service) SetLoginLimiter(l LoginLimiter) {
	s.limiter = l
}

// SetEventRecorder устанавливает получателя событий для метрик (опционально).
func (s *Service) SetEventRecorder(r EventRecorder) {
	if r == nil {
		r = nopRecorder{}
	}
	s.events = r
}

// refreshHash — HMAC-SHA256 refresh-токена на refresh-секрете в hex.
// В реестре хранится только это значение.
func (s *Service) refreshHash(raw string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.RefreshTokenSecret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
