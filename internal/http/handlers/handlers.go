package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/go-login-boilerplate/internal/models"
	"github.com/pribylovaa/go-login-boilerplate/internal/oauth"
	"github.com/pribylovaa/go-login-boilerplate/internal/service"
)

// Service — операции сервисного слоя, которые нужны хендлерам.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.TokenPair, *models.User, error)
	WebLogin(ctx context.Context, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, access string) (*models.User, error)
	Logout(ctx context.Context, access string) (*models.User, error)
	Refresh(ctx context.Context, refresh string) (*models.TokenPair, error)

	Register(ctx context.Context, fullName, email, password string) (*models.User, error)
	RequestVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, tok string) (string, error)
	VerificationRequestLink(email string) string
	ChangePassword(ctx context.Context, email, oldPassword, newPassword, confirm string) error
	UpdateProfile(ctx context.Context, user *models.User, in service.ProfileUpdate) (*models.User, error)
	SocialLogin(ctx context.Context, p models.SocialProfile) (*models.User, error)
	Dashboard(ctx context.Context, filter models.UserFilter) (*service.Dashboard, error)
}

// Sessions — менеджер cookie-сессий веб-интерфейса.
type Sessions interface {
	Establish(ctx context.Context, w http.ResponseWriter, user *models.User, method string) error
	Current(r *http.Request) (*models.WebSession, bool)
	Clear(w http.ResponseWriter)
	SetState(w http.ResponseWriter, state string) error
	CheckState(w http.ResponseWriter, r *http.Request, got string) error
}

// Providers выдаёт сконфигурированных OAuth-провайдеров.
type Providers interface {
	Provider(name string) (*oauth.Provider, error)
}

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	svc      Service
	sessions Sessions
	oauth    Providers
	render   Renderer
}

// New создаёт хендлеры. Если r == nil, страницы отдаются в JSON.
func New(svc Service, sessions Sessions, providers Providers, r Renderer) *Handlers {
	if r == nil {
		r = JSONRenderer{}
	}

	return &Handlers{
		svc:      svc,
		sessions: sessions,
		oauth:    providers,
		render:   r,
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
