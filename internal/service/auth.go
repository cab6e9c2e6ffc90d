package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-login-boilerplate/internal/models"
	"github.com/pribylovaa/go-login-boilerplate/internal/pkg/log"
	"github.com/pribylovaa/go-login-boilerplate/internal/pkg/redact"
	"github.com/pribylovaa/go-login-boilerplate/internal/security"
	"github.com/pribylovaa/go-login-boilerplate/internal/storage"
	"github.com/pribylovaa/go-login-boilerplate/internal/token"
)

// Authorize — единый предикат входа по паролю для API и веб-формы.
// Проверки идут строго по порядку:
//  1. пользователь не найден — ErrInvalidCredentials;
//  2. аккаунт не активирован — ErrInactiveAccount;
//  3. регистрация через соцсеть — *SocialAccountError;
//  4. пароль не совпал — ErrInvalidCredentials.
func (s *Service) Authorize(user *models.User, password string) error {
	if user == nil {
		return ErrInvalidCredentials
	}
	if err := CheckActive(user); err != nil {
		return err
	}

	switch {
	case !user.PasswordLogin():
		return &SocialAccountError{Provider: user.SignupBy}
	case password == "" || !security.Verify(password, user.PasswordHash):
		return ErrInvalidCredentials
	}

	return nil
}

// CheckActive — проверка активации, общая для входа по паролю и через соцсеть.
func CheckActive(user *models.User) error {
	if !user.Activated {
		return ErrInactiveAccount
	}

	return nil
}

// Login выполняет вход по email+пароль и выпускает новую пару токенов.
// Пара записывается в кэш отзыва, счётчик входов увеличивается до возврата.
func (s *Service) Login(ctx context.Context, email, password string) (*models.TokenPair, *models.User, error) {
	const op = "service.auth.Login"

	user, err := s.passwordLogin(ctx, email, password)
	if err != nil {
		s.metrics.Login(loginResult(err))
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		s.metrics.Login("error")
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.RecordLogin(ctx, user); err != nil {
		s.metrics.Login("error")
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.Login("ok")
	log.From(ctx).Info("login_succeeded",
		slog.String("user_id", user.ID.String()),
		slog.String("access_fp", redact.Fingerprint(pair.AccessToken)),
	)

	return pair, user, nil
}

// WebLogin проверяет учётные данные веб-формы тем же предикатом, что и Login,
// но токенов не выпускает: вход фиксирует менеджер cookie-сессий.
func (s *Service) WebLogin(ctx context.Context, email, password string) (*models.User, error) {
	const op = "service.auth.WebLogin"

	user, err := s.passwordLogin(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// passwordLogin находит пользователя и применяет Authorize.
// Некорректный или неизвестный e-mail трактуется как отсутствующий пользователь.
func (s *Service) passwordLogin(ctx context.Context, email, password string) (*models.User, error) {
	var user *models.User

	if norm, err := validateEmail(email); err == nil {
		user, err = s.storage.UserByEmail(ctx, norm)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			user = nil
		}
	}

	if err := s.Authorize(user, password); err != nil {
		log.From(ctx).Info("login_rejected",
			slog.String("email", redact.Email(email)),
			slog.String("reason", err.Error()),
		)
		return nil, err
	}

	return user, nil
}

// RecordLogin увеличивает счётчик входов и выставляет время сессии.
// Используется и API-входом, и установкой cookie-сессии.
func (s *Service) RecordLogin(ctx context.Context, user *models.User) error {
	const op = "service.auth.RecordLogin"

	at := s.now()
	if err := s.storage.TouchLogin(ctx, user.ID, at); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	user.TotalLogin++
	user.SessionAt = at

	return nil
}

// Authenticate возвращает владельца живого access-токена.
// Порядок проверок: кэш отзыва, подпись и срок, роль, пользователь.
// Отозванный токен отсекается до любой криптографии.
func (s *Service) Authenticate(ctx context.Context, access string) (*models.User, error) {
	const op = "service.auth.Authenticate"

	ok, err := s.revocation.Exists(ctx, access)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrRevoked)
	}

	p, err := s.tokens.Parse(access)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrExpired)
		}
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if p.Role != token.RoleAccess {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	user, err := s.userBySubject(ctx, p.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// Logout отзывает пару, к которой относится access-токен.
// Повторный вызов и неизвестный токен — не ошибка; пользователь
// возвращается, только если токен ещё был жив.
func (s *Service) Logout(ctx context.Context, access string) (*models.User, error) {
	const op = "service.auth.Logout"

	user, err := s.Authenticate(ctx, access)
	if err != nil {
		user = nil
		log.From(ctx).Debug("logout_token_unresolved", slog.String("reason", err.Error()))
	}

	if err := s.revocation.Revoke(ctx, access); err != nil {
		return user, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.Revocation()
	log.From(ctx).Info("logout_revoked", slog.String("access_fp", redact.Fingerprint(access)))

	return user, nil
}

// Refresh выпускает новую пару по живому refresh-токену.
// Старая пара не отзывается и остаётся действительной до истечения TTL.
func (s *Service) Refresh(ctx context.Context, refresh string) (*models.TokenPair, error) {
	const op = "service.auth.Refresh"

	pair, err := s.refresh(ctx, refresh)
	if err != nil {
		s.metrics.Refresh(refreshResult(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.Refresh("ok")
	log.From(ctx).Info("refresh_succeeded",
		slog.String("refresh_fp", redact.Fingerprint(refresh)),
		slog.String("access_fp", redact.Fingerprint(pair.AccessToken)),
	)

	return pair, nil
}

func (s *Service) refresh(ctx context.Context, refresh string) (*models.TokenPair, error) {
	ok, err := s.revocation.Exists(ctx, refresh)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidRefreshToken
	}

	p, err := s.tokens.Parse(refresh)
	if err != nil || p.Role != token.RoleRefresh {
		return nil, ErrForbidden
	}

	user, err := s.userBySubject(ctx, p.Subject)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	return s.issuePair(ctx, user.ID)
}

// issuePair выпускает access+refresh и записывает пару в кэш отзыва.
// TTL каждой записи совпадает со сроком жизни её токена.
func (s *Service) issuePair(ctx context.Context, userID uuid.UUID) (*models.TokenPair, error) {
	const op = "service.auth.issuePair"

	sub := userID.String()

	access, accessExp, err := s.tokens.Issue(sub, token.RoleAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, refreshExp, err := s.tokens.Issue(sub, token.RoleRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.revocation.Record(ctx, access, refresh, s.cfg.AccessTokenTTL, s.cfg.RefreshTokenTTL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// userBySubject загружает пользователя по sub из токена.
func (s *Service) userBySubject(ctx context.Context, sub string) (*models.User, error) {
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

// validateEmail проверяет базовый формат email, обрезает пробелы и приводит к нижнему регистру.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrInactiveAccount):
		return "inactive"
	case errors.Is(err, ErrSocialAccount):
		return "social"
	default:
		return "error"
	}
}

func refreshResult(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRefreshToken):
		return "invalidated"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "user_not_found"
	default:
		return "error"
	}
}
