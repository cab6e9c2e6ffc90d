// service содержит бизнес-логику подсистемы аутентификации:
// проверку учётных данных, выпуск и отзыв пар токенов,
// регистрацию и подтверждение e-mail, социальный вход и выборки дашборда.
//
// Основные аспекты:
//   - Service не хранит состояния запроса и безопасен для конкурентного
//     использования при потокобезопасных storage.Storage и cache.KV;
//   - Authorize — единственный предикат входа, общий для API и веб-формы;
//   - ошибки возвращаются sentinel-значениями ниже и маппятся транспортом
//     на HTTP-коды в пакете internal/http/errors.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/go-login-boilerplate/internal/cache"
	"github.com/pribylovaa/go-login-boilerplate/internal/config"
	"github.com/pribylovaa/go-login-boilerplate/internal/mail"
	"github.com/pribylovaa/go-login-boilerplate/internal/metrics"
	"github.com/pribylovaa/go-login-boilerplate/internal/models"
	"github.com/pribylovaa/go-login-boilerplate/internal/security"
	"github.com/pribylovaa/go-login-boilerplate/internal/storage"
	"github.com/pribylovaa/go-login-boilerplate/internal/token"
)

var (
	// ErrInvalidCredentials — пользователь не найден или пароль не совпал.
	// HTTP 400 "Incorrect email or password".
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrInactiveAccount — e-mail пользователя ещё не подтверждён. HTTP 400.
	ErrInactiveAccount = errors.New("account has not been activated yet")

	// ErrSocialAccount — парольный сценарий для пользователя социального входа. HTTP 400.
	// Конкретный провайдер доступен через *SocialAccountError.
	ErrSocialAccount = errors.New("account registered via social login")

	// ErrRevoked — токен отсутствует в кэше отзыва. HTTP 403.
	ErrRevoked = errors.New("token has been revoked")

	// ErrInvalidToken — подпись, структура или роль токена неверны. HTTP 403.
	ErrInvalidToken = errors.New("could not validate credentials")

	// ErrExpired — срок действия токена истёк. HTTP 403.
	ErrExpired = errors.New("token expired")

	// ErrForbidden — токен подписан верно, но предъявлен не по назначению. HTTP 403.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidRefreshToken — refresh-токен не найден в кэше отзыва. HTTP 403.
	ErrInvalidRefreshToken = errors.New("invalidated or invalid refresh token")

	// ErrNotFound — пользователь не найден. HTTP 404.
	ErrNotFound = errors.New("user not found")

	// ErrConflict — e-mail уже зарегистрирован. HTTP 409.
	ErrConflict = errors.New("email already registered")

	// ErrInvalidEmail — e-mail имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrIncorrectOldPassword — текущий пароль при смене указан неверно. HTTP 400.
	ErrIncorrectOldPassword = errors.New("incorrect old password")

	// ErrPasswordMismatch — новый пароль и подтверждение различаются. HTTP 400.
	ErrPasswordMismatch = errors.New("new password did not match")

	// ErrWeakPassword и ErrEmptyPassword — нарушения политики пароля. HTTP 400.
	ErrWeakPassword  = security.ErrWeakPassword
	ErrEmptyPassword = security.ErrEmptyPassword
)

// SocialAccountError уточняет ErrSocialAccount провайдером.
type SocialAccountError struct {
	Provider models.SignupBy
}

func (e *SocialAccountError) Error() string {
	return fmt.Sprintf("You signed by %s. Please use that social login instead.", e.Provider)
}

func (e *SocialAccountError) Is(target error) bool {
	return target == ErrSocialAccount
}

// Service описывает бизнес-логику аутентификации.
type Service struct {
	storage    storage.Storage
	tokens     *token.Codec
	revocation *cache.Revocation
	cfg        config.AuthConfig

	mailer    mail.Mailer
	metrics   *metrics.Metrics
	publicURL string
	now       func() time.Time
}

// Option настраивает необязательные зависимости Service.
type Option func(*Service)

// WithMailer задаёт отправку писем; по умолчанию письма только логируются.
func WithMailer(m mail.Mailer) Option {
	return func(s *Service) { s.mailer = m }
}

// WithMetrics подключает Prometheus-метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPublicURL задаёт внешний адрес приложения для ссылок в письмах.
func WithPublicURL(u string) Option {
	return func(s *Service) { s.publicURL = u }
}

// New создаёт новый экземпляр Service.
// kv — хранилище кэша отзыва (Redis или in-memory).
func New(st storage.Storage, kv cache.KV, cfg config.AuthConfig, opts ...Option) *Service {
	s := &Service{
		storage:    st,
		tokens:     token.New(cfg),
		revocation: cache.NewRevocation(kv),
		cfg:        cfg,
		mailer:     mail.NewLogMailer(false),
		now:        func() time.Time { return time.Now().UTC() },
	}

	for _, o := range opts {
		o(s)
	}

	return s
}
