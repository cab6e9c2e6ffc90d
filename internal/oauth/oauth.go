// oauth — вход через социальных провайдеров (Google, Facebook) по схеме
// authorization code: ссылка на провайдера, обмен кода на токен и
// загрузка профиля пользователя.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"github.com/pribylovaa/go-login-boilerplate/internal/config"
	"github.com/pribylovaa/go-login-boilerplate/internal/models"
)

const (
	googleProfileURL   = "https://www.googleapis.com/oauth2/v3/userinfo"
	facebookProfileURL = "https://graph.facebook.com/me?fields=id,name,email"

	// maxProfileSize ограничивает тело ответа с профилем.
	maxProfileSize = 1 << 20
)

var (
	// ErrUnknownProvider — провайдер не поддерживается или не сконфигурирован.
	ErrUnknownProvider = errors.New("unknown oauth provider")
	// ErrExchange — провайдер отклонил код авторизации.
	ErrExchange = errors.New("oauth code exchange failed")
	// ErrProfile — профиль не получен или в нём нет e-mail.
	ErrProfile = errors.New("oauth profile unavailable")
)

// Provider — сконфигурированный OAuth-клиент одного провайдера.
type Provider struct {
	kind       models.SignupBy
	conf       *oauth2.Config
	profileURL string
}

// Manager хранит включённых провайдеров по имени в URL (google, facebook).
type Manager struct {
	providers map[string]*Provider
}

// New создаёт провайдеров для всех клиентов с client_id и client_secret.
func New(cfg config.OAuthConfig) *Manager {
	m := &Manager{providers: make(map[string]*Provider)}

	if cfg.Google.Enabled() {
		m.providers["google"] = NewProvider(models.SignupByGoogle, &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		}, googleProfileURL)
	}

	if cfg.Facebook.Enabled() {
		m.providers["facebook"] = NewProvider(models.SignupByFacebook, &oauth2.Config{
			ClientID:     cfg.Facebook.ClientID,
			ClientSecret: cfg.Facebook.ClientSecret,
			RedirectURL:  cfg.Facebook.RedirectURL,
			Endpoint:     facebook.Endpoint,
			Scopes:       []string{"email", "public_profile"},
		}, facebookProfileURL)
	}

	return m
}

// NewProvider создаёт провайдера с произвольными endpoint'ами
// (например, для self-hosted OIDC или тестового сервера).
func NewProvider(kind models.SignupBy, conf *oauth2.Config, profileURL string) *Provider {
	return &Provider{kind: kind, conf: conf, profileURL: profileURL}
}

// Provider возвращает провайдера по имени без учёта регистра.
func (m *Manager) Provider(name string) (*Provider, error) {
	p, ok := m.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}

	return p, nil
}

// StateToken генерирует случайный state для защиты callback от CSRF.
func StateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("oauth.StateToken: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Kind возвращает способ регистрации, соответствующий провайдеру.
func (p *Provider) Kind() models.SignupBy { return p.kind }

// AuthURL строит ссылку на страницу согласия провайдера.
func (p *Provider) AuthURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

// userInfo покрывает ответы Google (sub) и Facebook (id).
type userInfo struct {
	Sub   string `json:"sub"`
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Profile обменивает код на токен и загружает профиль пользователя.
func (p *Provider) Profile(ctx context.Context, code string) (models.SocialProfile, error) {
	const op = "oauth.Provider.Profile"

	if code == "" {
		return models.SocialProfile{}, fmt.Errorf("%s: %w", op, ErrExchange)
	}

	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return models.SocialProfile{}, fmt.Errorf("%s: %w: %v", op, ErrExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return models.SocialProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return models.SocialProfile{}, fmt.Errorf("%s: %w: %v", op, ErrProfile, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.SocialProfile{}, fmt.Errorf("%s: %w: status %d", op, ErrProfile, resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileSize)).Decode(&info); err != nil {
		return models.SocialProfile{}, fmt.Errorf("%s: %w: %v", op, ErrProfile, err)
	}

	id := info.Sub
	if id == "" {
		id = info.ID
	}

	if id == "" || info.Email == "" {
		return models.SocialProfile{}, fmt.Errorf("%s: %w: missing id or email", op, ErrProfile)
	}

	return models.SocialProfile{
		ID:       id,
		Email:    info.Email,
		FullName: info.Name,
		Provider: p.kind,
	}, nil
}
