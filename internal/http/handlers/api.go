package handlers

import (
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/go-login-boilerplate/internal/http/errors"
	"github.com/pribylovaa/go-login-boilerplate/internal/http/middleware"
	"github.com/pribylovaa/go-login-boilerplate/internal/pkg/log"
	"github.com/pribylovaa/go-login-boilerplate/internal/service"
)

// AccessToken — вход по паролю в стиле OAuth2 password flow:
// form-поля username (e-mail) и password.
func (h *Handlers) AccessToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apierrors.WriteError(w, r, apierrors.InvalidInput("invalid form"))
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		apierrors.WriteError(w, r, apierrors.InvalidInput("username and password are required"))
		return
	}

	pair, _, err := h.svc.Login(r.Context(), username, password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenFromPair(pair))
}

// Logout отзывает пару токенов. Маршрут защищён RequireBearer.
// Для уже отозванного токена ответ тот же, но без имени и e-mail.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Logout(r.Context(), middleware.BearerFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := logoutResponse{LogoutStatus: true}
	if user != nil {
		out.FullName = user.FullName
		out.Email = user.Email
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.InvalidInput("invalid request body"))
		return
	}

	pair, err := h.svc.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenFromPair(pair))
}

// CreateUser — регистрация через API; пользователь создаётся неактивированным.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.InvalidInput("invalid request body"))
		return
	}

	user, err := h.svc.Register(r.Context(), in.FullName, in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userFromModel(user))
}

func (h *Handlers) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Authenticate(r.Context(), middleware.BearerFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Authenticate(r.Context(), middleware.BearerFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	r = r.WithContext(log.WithUser(r.Context(), user.ID.String()))

	var in updateMeRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.InvalidInput("invalid request body"))
		return
	}

	updated, err := h.svc.UpdateProfile(r.Context(), user, service.ProfileUpdate{
		FullName: in.FullName,
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(updated))
}
