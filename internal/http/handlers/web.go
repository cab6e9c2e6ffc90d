package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-login-boilerplate/internal/http/errors"
	"github.com/pribylovaa/go-login-boilerplate/internal/http/middleware"
	"github.com/pribylovaa/go-login-boilerplate/internal/models"
	"github.com/pribylovaa/go-login-boilerplate/internal/oauth"
	"github.com/pribylovaa/go-login-boilerplate/internal/pkg/log"
	"github.com/pribylovaa/go-login-boilerplate/internal/service"
)

const (
	pathDashboard = "/dashboard"
	pathLogin     = "/login"
)

const (
	msgVerifySent     = "We have sent you an email verification link. Please check your inbox."
	msgVerifyExpired  = "Your email verification link has been expired. Please re-send again."
	msgVerifyInvalid  = "Invalid email verification link."
	msgVerifySuccess  = "Email verification success! You may login now."
	msgSocialFailed   = "Could not sign you in with this provider. Please try again."
	msgPasswordChange = "Your password has been changed."
)

// LoginPage показывает форму входа; с активной сессией — сразу на дашборд.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.Current(r); ok {
		http.Redirect(w, r, pathDashboard, http.StatusFound)
		return
	}

	h.render.Render(w, r, http.StatusOK, Page{Name: "login"})
}

// Login — вход через веб-форму (email, password) тем же предикатом Authorize, что и API.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, Page{Name: "login", Message: "invalid form"})
		return
	}

	email := strings.TrimSpace(r.PostForm.Get("email"))

	user, err := h.svc.WebLogin(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		h.renderLoginError(w, r, email, err)
		return
	}

	if err := h.sessions.Establish(r.Context(), w, user, "password"); err != nil {
		h.renderError(w, r, "login", err)
		return
	}

	http.Redirect(w, r, pathDashboard, http.StatusFound)
}

// WebLogout очищает cookie-сессию. Повторный вызов безопасен.
func (h *Handlers) WebLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, pathDashboard, http.StatusFound)
}

func (h *Handlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, Page{Name: "signup"})
}

// Signup — регистрация через веб-форму (full_name, email, password, confirm_password).
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, Page{Name: "signup", Message: "invalid form"})
		return
	}

	password := r.PostForm.Get("password")
	if confirm, ok := r.PostForm["confirm_password"]; ok && (len(confirm) == 0 || confirm[0] != password) {
		h.renderError(w, r, "signup", service.ErrPasswordMismatch)
		return
	}

	if _, err := h.svc.Register(r.Context(), r.PostForm.Get("full_name"), r.PostForm.Get("email"), password); err != nil {
		h.renderError(w, r, "signup", err)
		return
	}

	h.render.Render(w, r, http.StatusCreated, Page{Name: "signup_success", Message: msgVerifySent})
}

// VerificationRequest повторно отправляет ссылку подтверждения e-mail.
func (h *Handlers) VerificationRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RequestVerification(r.Context(), chi.URLParam(r, "email")); err != nil {
		h.renderError(w, r, "verification_request", err)
		return
	}

	h.render.Render(w, r, http.StatusOK, Page{Name: "verification_request", Message: msgVerifySent})
}

// Verify активирует пользователя по ссылке /verify?l=<token>.
// Для просроченной ссылки предлагает повторную отправку.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	email, err := h.svc.VerifyEmail(r.Context(), r.URL.Query().Get("l"))
	switch {
	case err == nil:
		h.render.Render(w, r, http.StatusOK, Page{Name: "verify", Message: msgVerifySuccess})
	case errors.Is(err, service.ErrExpired):
		h.render.Render(w, r, http.StatusBadRequest, Page{
			Name:    "verify",
			Message: msgVerifyExpired,
			Data:    map[string]string{"resend_link": h.svc.VerificationRequestLink(email)},
		})
	case errors.Is(err, service.ErrInvalidToken):
		h.render.Render(w, r, http.StatusBadRequest, Page{Name: "verify", Message: msgVerifyInvalid})
	default:
		h.renderError(w, r, "verify", err)
	}
}

// SocialLogin перенаправляет на страницу согласия провайдера.
func (h *Handlers) SocialLogin(w http.ResponseWriter, r *http.Request) {
	p, err := h.oauth.Provider(chi.URLParam(r, "provider"))
	if err != nil {
		h.render.Render(w, r, http.StatusNotFound, Page{Name: "login", Message: "Unknown login provider."})
		return
	}

	state, err := oauth.StateToken()
	if err == nil {
		err = h.sessions.SetState(w, state)
	}
	if err != nil {
		h.renderError(w, r, "login", err)
		return
	}

	http.Redirect(w, r, p.AuthURL(state), http.StatusFound)
}

// SocialCallback завершает вход через провайдера и заводит cookie-сессию.
func (h *Handlers) SocialCallback(w http.ResponseWriter, r *http.Request) {
	lg := log.From(r.Context())

	p, err := h.oauth.Provider(chi.URLParam(r, "provider"))
	if err != nil {
		h.render.Render(w, r, http.StatusNotFound, Page{Name: "login", Message: "Unknown login provider."})
		return
	}

	q := r.URL.Query()
	if err := h.sessions.CheckState(w, r, q.Get("state")); err != nil {
		lg.Warn("oauth_state_rejected", slog.String("provider", string(p.Kind())))
		h.render.Render(w, r, http.StatusBadRequest, Page{Name: "login", Message: msgSocialFailed})
		return
	}

	profile, err := p.Profile(r.Context(), q.Get("code"))
	if err != nil {
		lg.Warn("oauth_profile_failed", slog.String("provider", string(p.Kind())), slog.Any("err", err))
		h.render.Render(w, r, http.StatusBadRequest, Page{Name: "login", Message: msgSocialFailed})
		return
	}

	user, err := h.svc.SocialLogin(r.Context(), profile)
	if err != nil {
		h.renderLoginError(w, r, profile.Email, err)
		return
	}

	if err := h.sessions.Establish(r.Context(), w, user, strings.ToLower(string(p.Kind()))); err != nil {
		h.renderError(w, r, "login", err)
		return
	}

	http.Redirect(w, r, pathDashboard, http.StatusFound)
}

// Dashboard — статистика и список пользователей с фильтрами activated и signup_by.
// Маршрут защищён RequireSession.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFrom(r.Context())

	filter, err := parseUserFilter(r)
	if err != nil {
		h.renderError(w, r, "dashboard", err)
		return
	}

	d, err := h.svc.Dashboard(r.Context(), filter)
	if err != nil {
		h.renderError(w, r, "dashboard", err)
		return
	}

	out := dashboardResponse{
		Stats: statsResponse{
			Total:               d.Stats.Total,
			SessionsToday:       d.Stats.SessionsToday,
			AvgActive7Days:      d.Stats.AvgActive7Days,
			UnverifiedThisMonth: d.Stats.UnverifiedThisMonth,
		},
		Users: make([]userResponse, 0, len(d.Users)),
	}
	if sess != nil {
		out.Session = *sess
	}
	for i := range d.Users {
		out.Users = append(out.Users, userFromModel(&d.Users[i]))
	}

	h.render.Render(w, r, http.StatusOK, Page{Name: "dashboard", Data: out})
}

// ChangePassword — смена пароля из веб-интерфейса. Маршрут защищён RequireSession.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFrom(r.Context())
	if sess == nil {
		http.Redirect(w, r, pathLogin, http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, Page{Name: "change_password", Message: "invalid form"})
		return
	}

	err := h.svc.ChangePassword(r.Context(), sess.Email,
		r.PostForm.Get("old_password"),
		r.PostForm.Get("new_password"),
		r.PostForm.Get("confirm_password"),
	)
	if err != nil {
		h.renderError(w, r, "change_password", err)
		return
	}

	h.render.Render(w, r, http.StatusOK, Page{Name: "change_password", Message: msgPasswordChange})
}

// renderLoginError — ошибка входа; для неактивированного аккаунта страница
// дополнительно несёт ссылку на повторную отправку письма подтверждения.
func (h *Handlers) renderLoginError(w http.ResponseWriter, r *http.Request, email string, err error) {
	if !errors.Is(err, service.ErrInactiveAccount) {
		h.renderError(w, r, "login", err)
		return
	}

	status, resp := apierrors.ToHTTP(err)
	h.render.Render(w, r, status, Page{
		Name:    "login",
		Message: resp.Error.Message,
		Data:    map[string]string{"resend_link": h.svc.VerificationRequestLink(strings.ToLower(email))},
	})
}

// renderError показывает страницу с текстом ошибки и статусом из общей таблицы маппинга.
func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, page string, err error) {
	status, resp := apierrors.ToHTTP(err)
	if status >= http.StatusInternalServerError {
		log.From(r.Context()).Error("web_request_failed", slog.String("page", page), slog.Any("err", err))
	}

	h.render.Render(w, r, status, Page{Name: page, Message: resp.Error.Message})
}

func parseUserFilter(r *http.Request) (models.UserFilter, error) {
	var f models.UserFilter
	q := r.URL.Query()

	switch strings.ToLower(q.Get("activated")) {
	case "":
	case "true", "1":
		v := true
		f.Activated = &v
	case "false", "0":
		v := false
		f.Activated = &v
	default:
		return f, apierrors.InvalidInput("activated must be true or false")
	}

	if raw := q.Get("signup_by"); raw != "" {
		sb := models.SignupBy(strings.ToUpper(raw))
		if !sb.Valid() {
			return f, apierrors.InvalidInput("signup_by must be EMAIL, FACEBOOK or GOOGLE")
		}
		f.SignupBy = &sb
	}

	return f, nil
}
