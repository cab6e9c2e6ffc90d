// session — подписанная cookie-сессия веб-интерфейса.
//
// Сессия хранит только {email, full_name} и живёт столько, сколько
// живёт cookie (Max-Age). Менеджер не обращается ни к кэшу отзыва,
// ни к токенам API: это независимый канал аутентификации.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/pribylovaa/go-login-boilerplate/internal/config"
	"github.com/pribylovaa/go-login-boilerplate/internal/metrics"
	"github.com/pribylovaa/go-login-boilerplate/internal/models"
	"github.com/pribylovaa/go-login-boilerplate/internal/pkg/log"
)

const (
	stateCookieName = "oauth_state"
	stateMaxAge     = 10 * time.Minute
)

// ErrStateMismatch — state из callback не совпал с cookie.
var ErrStateMismatch = errors.New("oauth state mismatch")

// LoginRecorder фиксирует вход пользователя (счётчик входов, время сессии).
type LoginRecorder interface {
	RecordLogin(ctx context.Context, user *models.User) error
}

// Manager читает и пишет cookie-сессии.
type Manager struct {
	name     string
	maxAge   time.Duration
	secure   bool
	codec    *securecookie.SecureCookie
	state    *securecookie.SecureCookie
	recorder LoginRecorder
	metrics  *metrics.Metrics
}

// New создаёт менеджер сессий. m может быть nil.
func New(cfg config.SessionConfig, rec LoginRecorder, m *metrics.Metrics) *Manager {
	var block []byte
	if cfg.BlockKey != "" {
		block = []byte(cfg.BlockKey)
	}

	codec := securecookie.New([]byte(cfg.HashKey), block)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.MaxAge.Seconds()))

	state := securecookie.New([]byte(cfg.HashKey), block)
	state.MaxAge(int(stateMaxAge.Seconds()))

	return &Manager{
		name:     cfg.CookieName,
		maxAge:   cfg.MaxAge,
		secure:   cfg.Secure,
		codec:    codec,
		state:    state,
		recorder: rec,
		metrics:  m,
	}
}

// Establish фиксирует вход и записывает сессию пользователя в cookie.
// method — способ входа для метрик: password, google, facebook.
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, user *models.User, method string) error {
	const op = "session.Establish"

	if err := m.recorder.RecordLogin(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	encoded, err := m.codec.Encode(m.name, models.WebSession{Email: user.Email, FullName: user.FullName})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	http.SetCookie(w, m.cookie(m.name, encoded, m.maxAge))
	m.metrics.WebSession(method)

	log.From(ctx).Info("web_session_established",
		slog.String("user_id", user.ID.String()),
		slog.String("method", method),
	)

	return nil
}

// Current возвращает сессию из запроса.
// Отсутствующая, просроченная или подделанная cookie даёт false.
func (m *Manager) Current(r *http.Request) (*models.WebSession, bool) {
	c, err := r.Cookie(m.name)
	if err != nil || c.Value == "" {
		return nil, false
	}

	var s models.WebSession
	if err := m.codec.Decode(m.name, c.Value, &s); err != nil {
		log.From(r.Context()).Debug("web_session_rejected", slog.Any("err", err))
		return nil, false
	}

	if s.Email == "" {
		return nil, false
	}

	return &s, true
}

// Clear удаляет cookie сессии. Повторный вызов безопасен.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie(m.name, "", -1))
}

// SetState сохраняет OAuth state в подписанной короткоживущей cookie.
func (m *Manager) SetState(w http.ResponseWriter, state string) error {
	const op = "session.SetState"

	encoded, err := m.state.Encode(stateCookieName, state)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	http.SetCookie(w, m.cookie(stateCookieName, encoded, stateMaxAge))
	return nil
}

// CheckState сверяет state из callback с cookie и удаляет cookie.
func (m *Manager) CheckState(w http.ResponseWriter, r *http.Request, got string) error {
	const op = "session.CheckState"

	http.SetCookie(w, m.cookie(stateCookieName, "", -1))

	c, err := r.Cookie(stateCookieName)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrStateMismatch)
	}

	var want string
	if err := m.state.Decode(stateCookieName, c.Value, &want); err != nil {
		return fmt.Errorf("%s: %w", op, ErrStateMismatch)
	}

	if got == "" || got != want {
		return fmt.Errorf("%s: %w", op, ErrStateMismatch)
	}

	return nil
}

// cookie собирает cookie; отрицательный maxAge удаляет её.
func (m *Manager) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}

	if maxAge < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		return c
	}

	c.MaxAge = int(maxAge.Seconds())
	return c
}
