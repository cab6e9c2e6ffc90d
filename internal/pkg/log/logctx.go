// log — request-scoped slog-логгер в контексте.
// Logging-мидлвар кладёт логгер с request_id, дальше слои дополняют его
// атрибутами сессии или пользователя.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста, иначе slog.Default().
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}

	return slog.Default()
}

// With дополняет логгер из контекста атрибутами и кладёт результат обратно.
func With(ctx context.Context, args ...any) context.Context {
	return Into(ctx, From(ctx).With(args...))
}

// WithUser — With для аутентифицированного пользователя API.
func WithUser(ctx context.Context, userID string) context.Context {
	return With(ctx, slog.String("user_id", userID))
}
