package handlers

import (
	"time"

	"github.com/pribylovaa/go-login-boilerplate/internal/models"
)

// tokenResponse — ответ /auth/access-token и /auth/refresh-token.
type tokenResponse struct {
	TokenType       string `json:"token_type"`
	AccessToken     string `json:"access_token"`
	ExpireAt        string `json:"expire_at"`
	RefreshToken    string `json:"refresh_token"`
	RefreshExpireAt string `json:"refresh_expire_at"`
}

func tokenFromPair(p *models.TokenPair) tokenResponse {
	return tokenResponse{
		TokenType:       "bearer",
		AccessToken:     p.AccessToken,
		ExpireAt:        p.AccessExpiresAt.UTC().Format(time.RFC3339),
		RefreshToken:    p.RefreshToken,
		RefreshExpireAt: p.RefreshExpiresAt.UTC().Format(time.RFC3339),
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutResponse struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	LogoutStatus bool   `json:"logout_status"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type updateMeRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// userResponse — публичное представление пользователя (без хэша пароля).
type userResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	Activated  bool       `json:"activated"`
	SignupBy   string     `json:"signup_by"`
	TotalLogin int        `json:"total_login"`
	SessionAt  *time.Time `json:"session_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func userFromModel(u *models.User) userResponse {
	out := userResponse{
		ID:         u.ID.String(),
		Email:      u.Email,
		FullName:   u.FullName,
		Activated:  u.Activated,
		SignupBy:   string(u.SignupBy),
		TotalLogin: u.TotalLogin,
		CreatedAt:  u.CreatedAt,
	}

	if !u.SessionAt.IsZero() {
		at := u.SessionAt
		out.SessionAt = &at
	}

	return out
}

type statsResponse struct {
	Total               int `json:"total"`
	SessionsToday       int `json:"sessions_today"`
	AvgActive7Days      int `json:"avg_active_7_days"`
	UnverifiedThisMonth int `json:"unverified_this_month"`
}

type dashboardResponse struct {
	Session models.WebSession `json:"session"`
	Stats   statsResponse     `json:"stats"`
	Users   []userResponse    `json:"users"`
}
