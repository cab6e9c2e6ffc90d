// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает ошибку сервисного слоя, на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Источник истинности по маппингу: sentinel-ошибки пакета service.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-login-boilerplate/internal/pkg/log"
	"github.com/pribylovaa/go-login-boilerplate/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrNotAuthenticated — запрос к защищённому маршруту без bearer-токена.
var ErrNotAuthenticated = stderrors.New("not authenticated")

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// invalidInput — ошибка разбора запроса с готовым текстом для клиента.
type invalidInput struct {
	msg string
}

func (e *invalidInput) Error() string { return e.msg }

// InvalidInput оборачивает ошибку валидации входных данных (HTTP 400).
func InvalidInput(msg string) error {
	return &invalidInput{msg: msg}
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal;
//   - известные sentinel-ошибки маппятся по таблице ниже;
//   - прочее — 500/internal без утечки деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
// Для 5xx полная ошибка уходит в лог запроса, клиент видит только "internal error".
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if status >= http.StatusInternalServerError {
		log.From(r.Context()).Error("request_failed",
			slog.Int("status", status),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
	}

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// classify — таблица маппинга:
//   - неверные учётные данные, неактивный или социальный аккаунт, плохой ввод -> 400;
//   - нет bearer-токена -> 401;
//   - отозванный, битый, просроченный токен, неверная роль -> 403;
//   - пользователь не найден -> 404;
//   - e-mail занят -> 409;
//   - отмена клиентом -> 499, таймаут -> 504;
//   - прочее -> 500.
func classify(err error) (int, string, string) {
	var (
		social *service.SocialAccountError
		input  *invalidInput
	)

	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case stderrors.As(err, &input):
		return http.StatusBadRequest, "invalid_argument", input.msg
	case stderrors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest, "invalid_credentials", "Incorrect email or password"
	case stderrors.Is(err, service.ErrInactiveAccount):
		return http.StatusBadRequest, "inactive_account", "Your account has not been activated yet"
	case stderrors.As(err, &social):
		return http.StatusBadRequest, "social_account", social.Error()
	case stderrors.Is(err, service.ErrSocialAccount):
		return http.StatusBadRequest, "social_account", "Please use your social login instead."
	case stderrors.Is(err, service.ErrWeakPassword), stderrors.Is(err, service.ErrEmptyPassword):
		return http.StatusBadRequest, "weak_password", reason(err)
	case stderrors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_email", "Invalid email format"
	case stderrors.Is(err, service.ErrIncorrectOldPassword):
		return http.StatusBadRequest, "incorrect_old_password", "Incorrect old password."
	case stderrors.Is(err, service.ErrPasswordMismatch):
		return http.StatusBadRequest, "password_mismatch", "New password did not match"
	case stderrors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized, "unauthenticated", "Not authenticated"
	case stderrors.Is(err, service.ErrRevoked):
		return http.StatusForbidden, "revoked", "Your token have been revoked"
	case stderrors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusForbidden, "invalid_refresh_token", "Invalidated/Invalid refresh token"
	case stderrors.Is(err, service.ErrInvalidToken),
		stderrors.Is(err, service.ErrExpired),
		stderrors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "permission_denied", "Could not validate credentials"
	case stderrors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", "User not found"
	case stderrors.Is(err, service.ErrConflict):
		return http.StatusConflict, "already_exists", "This email has already been registered."
	case stderrors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

// reason достаёт из цепочки последнюю, самую конкретную причину
// (например, "password should contain at least one digit character").
func reason(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}

	return msg
}
