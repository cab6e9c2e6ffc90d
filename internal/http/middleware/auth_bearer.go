package middleware

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/go-login-boilerplate/internal/http/errors"
)

// AuthBearer извлекает Bearer-токен из Authorization и кладёт "сырой" токен в контекст.
// Отсутствие токена не ошибка: решение принимает RequireBearer или хендлер.
func AuthBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearer(r.Header.Get("Authorization")); tok != "" {
				r = r.WithContext(context.WithValue(r.Context(), ctxBearer, tok))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireBearer отвечает 401 "Not authenticated", если токена нет.
// Ставится после AuthBearer.
func RequireBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if BearerFrom(r.Context()) == "" {
				apierrors.WriteError(w, r, apierrors.ErrNotAuthenticated)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerFrom возвращает токен, извлечённый AuthBearer.
func BearerFrom(ctx context.Context) string {
	tok, _ := ctx.Value(ctxBearer).(string)
	return tok
}

// bearer разбирает заголовок "Bearer <token>"; схема без учёта регистра.
func bearer(header string) string {
	const prefix = "bearer "

	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}
