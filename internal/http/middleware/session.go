package middleware

import (
	"context"
	"net/http"

	"github.com/pribylovaa/go-login-boilerplate/internal/models"
	"github.com/pribylovaa/go-login-boilerplate/internal/pkg/log"
	"github.com/pribylovaa/go-login-boilerplate/internal/pkg/redact"
)

// SessionReader читает cookie-сессию запроса.
type SessionReader interface {
	Current(r *http.Request) (*models.WebSession, bool)
}

// RequireSession пускает дальше только запросы с действующей cookie-сессией,
// остальных перенаправляет на loginPath.
func RequireSession(sr SessionReader, loginPath string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := sr.Current(r)
			if !ok {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), ctxSession, s)
			ctx = log.With(ctx, "session_email", redact.Email(s.Email))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom возвращает сессию, положенную RequireSession.
func SessionFrom(ctx context.Context) (*models.WebSession, bool) {
	s, ok := ctx.Value(ctxSession).(*models.WebSession)
	return s, ok && s != nil
}
