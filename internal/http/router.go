package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-login-boilerplate/internal/http/handlers"
	"github.com/pribylovaa/go-login-boilerplate/internal/http/middleware"
	"github.com/pribylovaa/go-login-boilerplate/internal/metrics"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Timeout  time.Duration
	BasePath string // например, "/app"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(h *handlers.Handlers, sessions middleware.SessionReader, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(opts.Metrics),
		middleware.AuthBearer(), // вынимаем Bearer токен в контекст
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, sessions)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, sessions)
	return root
}

// registerRoutes — единая точка регистрации всех эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, sessions middleware.SessionReader) {
	// api: auth
	r.Post("/auth/access-token", h.AccessToken)
	r.Post("/auth/refresh-token", h.RefreshToken)
	r.With(middleware.RequireBearer()).Get("/auth/logout", h.Logout)

	// api: users
	r.Post("/users", h.CreateUser)
	r.With(middleware.RequireBearer()).Get("/users/me", h.GetMe)
	r.With(middleware.RequireBearer()).Put("/users/me", h.UpdateMe)

	// web: вход и регистрация
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Get("/logout", h.WebLogout)
	r.Get("/signup", h.SignupPage)
	r.Post("/signup", h.Signup)
	r.Get("/verification-request/{email}", h.VerificationRequest)
	r.Get("/verify", h.Verify)

	// web: социальный вход
	r.Get("/auth/{provider}/login", h.SocialLogin)
	r.Get("/auth/{provider}/callback", h.SocialCallback)

	// web: только с cookie-сессией
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(sessions, "/login"))
		r.Get("/", redirectTo("/dashboard"))
		r.Get("/dashboard", h.Dashboard)
		r.Post("/change-password", h.ChangePassword)
	})
}

func redirectTo(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusFound)
	}
}
