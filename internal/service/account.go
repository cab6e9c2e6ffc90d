package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-login-boilerplate/internal/mail"
	"github.com/pribylovaa/go-login-boilerplate/internal/models"
	"github.com/pribylovaa/go-login-boilerplate/internal/pkg/log"
	"github.com/pribylovaa/go-login-boilerplate/internal/pkg/redact"
	"github.com/pribylovaa/go-login-boilerplate/internal/security"
	"github.com/pribylovaa/go-login-boilerplate/internal/storage"
	"github.com/pribylovaa/go-login-boilerplate/internal/token"
)

const verificationSubject = "Verify your email"

// ProfileUpdate — изменяемые поля профиля; nil означает "не менять".
type ProfileUpdate struct {
	FullName *string
	Email    *string
	Password *string
}

// Register создаёт неактивированного пользователя с регистрацией по e-mail
// и отправляет ему ссылку подтверждения. Сбой отправки письма регистрацию не отменяет:
// ссылку можно запросить повторно.
func (s *Service) Register(ctx context.Context, fullName, email, password string) (*models.User, error) {
	const op = "service.account.Register"

	norm, err := validateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := security.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.storage.UserByEmail(ctx, norm)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrConflict)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := security.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New(),
		Email:        norm,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		SignupBy:     models.SignupByEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg := log.From(ctx)
	lg.Info("user_registered", slog.String("user_id", user.ID.String()))

	if err := s.sendVerification(ctx, user.Email); err != nil {
		lg.Warn("verification_mail_failed", slog.String("email", redact.Email(user.Email)), slog.Any("err", err))
	}

	return user, nil
}

// VerificationLink строит ссылку подтверждения e-mail со сроком EmailVerificationTTL.
func (s *Service) VerificationLink(email string) (string, error) {
	const op = "service.account.VerificationLink"

	tok, _, err := s.tokens.Issue(email, token.RoleVerification, s.cfg.EmailVerificationTTL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return strings.TrimRight(s.publicURL, "/") + "/verify?l=" + url.QueryEscape(tok), nil
}

// VerificationRequestLink строит ссылку повторной отправки письма подтверждения.
func (s *Service) VerificationRequestLink(email string) string {
	return strings.TrimRight(s.publicURL, "/") + "/verification-request/" + url.PathEscape(email)
}

// RequestVerification повторно отправляет ссылку подтверждения.
func (s *Service) RequestVerification(ctx context.Context, email string) error {
	const op = "service.account.RequestVerification"

	norm, err := validateEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	user, err := s.storage.UserByEmail(ctx, norm)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sendVerification(ctx, user.Email); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) sendVerification(ctx context.Context, email string) error {
	link, err := s.VerificationLink(email)
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, mail.Message{
		To:      email,
		Subject: verificationSubject,
		Body:    "Please follow the link to verify your email: " + link,
	})
}

// VerifyEmail активирует пользователя по токену из ссылки подтверждения.
// Для просроченной ссылки возвращает e-mail из неё вместе с ErrExpired,
// чтобы вызывающий мог предложить повторную отправку.
func (s *Service) VerifyEmail(ctx context.Context, tok string) (string, error) {
	const op = "service.account.VerifyEmail"

	p, err := s.tokens.Parse(tok)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			if ep, perr := s.tokens.Parse(tok, token.SkipExpiry()); perr == nil && ep.Role == token.RoleVerification {
				return ep.Subject, fmt.Errorf("%s: %w", op, ErrExpired)
			}
		}
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if p.Role != token.RoleVerification {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.storage.UserByEmail(ctx, p.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !user.Activated {
		if err := s.storage.SetActivated(ctx, user.ID, true); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		log.From(ctx).Info("email_verified", slog.String("user_id", user.ID.String()))
	}

	return user.Email, nil
}

// ChangePassword меняет пароль пользователя с регистрацией по e-mail.
func (s *Service) ChangePassword(ctx context.Context, email, oldPassword, newPassword, confirm string) error {
	const op = "service.account.ChangePassword"

	user, err := s.storage.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if !user.PasswordLogin() {
		return fmt.Errorf("%s: %w", op, &SocialAccountError{Provider: user.SignupBy})
	}

	if !security.Verify(oldPassword, user.PasswordHash) {
		return fmt.Errorf("%s: %w", op, ErrIncorrectOldPassword)
	}

	if newPassword != confirm {
		return fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateProfile меняет имя, e-mail и пароль текущего пользователя.
// Пароль можно менять только при регистрации по e-mail.
func (s *Service) UpdateProfile(ctx context.Context, user *models.User, in ProfileUpdate) (*models.User, error) {
	const op = "service.account.UpdateProfile"

	updated := *user

	if in.FullName != nil {
		updated.FullName = strings.TrimSpace(*in.FullName)
	}

	if in.Email != nil {
		norm, err := validateEmail(*in.Email)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
		}
		updated.Email = norm
	}

	if in.Password != nil {
		if !user.PasswordLogin() {
			return nil, fmt.Errorf("%s: %w", op, &SocialAccountError{Provider: user.SignupBy})
		}
		if err := security.ValidatePassword(*in.Password); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if updated.FullName != user.FullName || updated.Email != user.Email {
		if err := s.storage.UpdateProfile(ctx, user.ID, updated.FullName, updated.Email); err != nil {
			switch {
			case errors.Is(err, storage.ErrAlreadyExists):
				return nil, fmt.Errorf("%s: %w", op, ErrConflict)
			case errors.Is(err, storage.ErrNotFound):
				return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if in.Password != nil {
		if err := s.setPassword(ctx, &updated, *in.Password); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	updated.UpdatedAt = s.now()

	return &updated, nil
}

func (s *Service) setPassword(ctx context.Context, user *models.User, password string) error {
	if err := security.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := security.Hash(password)
	if err != nil {
		return err
	}

	if err := s.storage.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	user.PasswordHash = hash
	log.From(ctx).Info("password_changed", slog.String("user_id", user.ID.String()))

	return nil
}

// SocialLogin находит пользователя по e-mail профиля провайдера или создаёт его.
// Новый пользователь сразу активирован: e-mail подтверждён провайдером.
// В качестве хэша пароля сохраняется хэш ID у провайдера, парольный вход
// для такого пользователя всё равно запрещён Authorize.
func (s *Service) SocialLogin(ctx context.Context, p models.SocialProfile) (*models.User, error) {
	const op = "service.account.SocialLogin"

	if p.Provider == models.SignupByEmail || !p.Provider.Valid() || p.ID == "" {
		return nil, fmt.Errorf("%s: unsupported provider %q", op, p.Provider)
	}

	norm, err := validateEmail(p.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	user, err := s.storage.UserByEmail(ctx, norm)
	if err == nil {
		if err := s.checkSocialExisting(ctx, user, p.Provider); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := security.Hash(p.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	user = &models.User{
		ID:           uuid.New(),
		Email:        norm,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(p.FullName),
		Activated:    true,
		SignupBy:     p.Provider,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		// Параллельный вход тем же аккаунтом успел создать запись.
		existing, lerr := s.storage.UserByEmail(ctx, norm)
		if lerr != nil {
			return nil, fmt.Errorf("%s: %w", op, lerr)
		}
		if err := s.checkSocialExisting(ctx, existing, p.Provider); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return existing, nil
	}

	log.From(ctx).Info("social_user_created",
		slog.String("user_id", user.ID.String()),
		slog.String("provider", string(p.Provider)),
	)

	return user, nil
}

// checkSocialExisting пускает через провайдера уже существующего пользователя
// только если он активирован. Аккаунт с другим signup_by допускается:
// провайдер подтвердил владение тем же e-mail.
func (s *Service) checkSocialExisting(ctx context.Context, user *models.User, provider models.SignupBy) error {
	if err := CheckActive(user); err != nil {
		log.From(ctx).Info("social_login_rejected",
			slog.String("user_id", user.ID.String()),
			slog.String("provider", string(provider)),
			slog.String("reason", err.Error()),
		)
		return err
	}

	if user.SignupBy != provider {
		log.From(ctx).Info("social_login_linked",
			slog.String("user_id", user.ID.String()),
			slog.String("signup_by", string(user.SignupBy)),
			slog.String("provider", string(provider)),
		)
	}

	return nil
}

// CreateSuperuser создаёт первого активированного пользователя, если его ещё нет.
// Возвращает false, если пользователь с таким e-mail уже существует.
func (s *Service) CreateSuperuser(ctx context.Context, email, password string) (bool, error) {
	const op = "service.account.CreateSuperuser"

	norm, err := validateEmail(email)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}
	if password == "" {
		return false, fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	_, err = s.storage.UserByEmail(ctx, norm)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := security.Hash(password)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New(),
		Email:        norm,
		PasswordHash: hash,
		FullName:     norm,
		Activated:    true,
		SignupBy:     models.SignupByEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}
